package network

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Joiner associates the device with a wireless network.
type Joiner interface {
	Join(ctx context.Context, ssid, password string, timeout time.Duration) error
}

// Policy decides what happens when joining fails.
type Policy string

const (
	PolicyAbort Policy = "abort"
	PolicyRetry Policy = "retry"
)

// ParsePolicy validates a configured policy name.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyAbort, PolicyRetry:
		return Policy(s), nil
	case "":
		return PolicyAbort, nil
	}
	return "", fmt.Errorf("unknown wifi policy %q (want %q or %q)", s, PolicyAbort, PolicyRetry)
}

// Credentials identify the network to join.
type Credentials struct {
	SSID     string
	Password string
	Timeout  time.Duration
}

// Connect joins the network. With PolicyAbort the first failure is returned.
// With PolicyRetry it waits retryDelay between attempts until ctx ends.
func Connect(ctx context.Context, j Joiner, creds Credentials, policy Policy, retryDelay time.Duration, log *zap.Logger) error {
	for attempt := 1; ; attempt++ {
		log.Info("connecting to wifi", zap.String("ssid", creds.SSID), zap.Int("attempt", attempt))
		err := j.Join(ctx, creds.SSID, creds.Password, creds.Timeout)
		if err == nil {
			log.Info("connected to wifi", zap.String("ssid", creds.SSID))
			return nil
		}
		if policy != PolicyRetry {
			return err
		}
		log.Warn("wifi connect failed, retrying", zap.Error(err), zap.Duration("delay", retryDelay))
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrWifiConnect, ctx.Err())
		case <-time.After(retryDelay):
		}
	}
}

// NMCLIJoiner joins networks with NetworkManager's nmcli.
type NMCLIJoiner struct {
	path string
	run  func(ctx context.Context, stdin, name string, args ...string) ([]byte, error)
}

// NewNMCLIJoiner locates nmcli on PATH.
func NewNMCLIJoiner() (*NMCLIJoiner, error) {
	path, err := exec.LookPath("nmcli")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkInit, err)
	}
	return &NMCLIJoiner{path: path, run: runCommand}, nil
}

// Join runs "nmcli device wifi connect" bounded by timeout. A password is
// answered on stdin through --ask so it never appears in the process
// arguments.
func (n *NMCLIJoiner) Join(ctx context.Context, ssid, password string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := []string{"--wait", strconv.Itoa(int(timeout.Seconds()))}
	stdin := ""
	if password != "" {
		args = append(args, "--ask")
		stdin = password + "\n"
	}
	args = append(args, "device", "wifi", "connect", ssid)
	out, err := n.run(ctx, stdin, n.path, args...)
	if err != nil {
		return fmt.Errorf("%w: %s: %v: %s", ErrWifiConnect, ssid, err, out)
	}
	return nil
}

func runCommand(ctx context.Context, stdin, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader(stdin)
	return cmd.CombinedOutput()
}
