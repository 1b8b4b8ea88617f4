// Package network handles Wi-Fi association and the listening socket.
package network

import "errors"

// Startup failures. All are fatal unless the Wi-Fi retry policy applies.
var (
	ErrNetworkInit  = errors.New("network init failed")
	ErrWifiConnect  = errors.New("wifi connect failed")
	ErrSocketBind   = errors.New("socket bind failed")
	ErrSocketListen = errors.New("socket listen failed")
)
