package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// Listen opens the TCP listener for the status server. Address-level
// failures are reported as ErrSocketBind, anything else as ErrSocketListen.
func Listen(ctx context.Context, addr string) (net.Listener, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, classifyListenError(addr, err)
	}
	return ln, nil
}

func classifyListenError(addr string, err error) error {
	if errors.Is(err, syscall.EADDRINUSE) ||
		errors.Is(err, syscall.EACCES) ||
		errors.Is(err, syscall.EADDRNOTAVAIL) {
		return fmt.Errorf("%w: %s: %v", ErrSocketBind, addr, err)
	}
	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		return fmt.Errorf("%w: %s: %v", ErrSocketBind, addr, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrSocketListen, addr, err)
}
