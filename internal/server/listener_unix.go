//go:build !windows

package server

import (
	"fmt"
	"net"
	"os"

	"github.com/warmjar/warmjar/common"
)

// createListener creates a Unix socket listener with TCP fallback.
// Transport priority: Unix socket > loopback TCP.
func (s *Server) createListener() (net.Listener, error) {
	if common.ForceTCP() {
		return net.Listen("tcp", fmt.Sprintf("%s:%d", common.TCPHost, s.port))
	}

	socketPath := common.SocketPath()
	_ = os.Remove(socketPath)
	l, err := net.ListenUnix("unix", &net.UnixAddr{
		Name: socketPath,
		Net:  "unix",
	})
	if err != nil {
		s.log.Warning("server: unix socket unavailable (%v), falling back to tcp", err)
		tcpListener, tcpErr := net.Listen("tcp", fmt.Sprintf("%s:%d", common.TCPHost, s.port))
		if tcpErr != nil {
			return nil, fmt.Errorf("listening: %w", tcpErr)
		}
		return tcpListener, nil
	}
	// The socket fronts the account's session cookies; owner-only.
	_ = os.Chmod(socketPath, 0o600)
	return l, nil
}

// cleanupSocket removes the Unix socket file.
func cleanupSocket() error {
	if err := os.Remove(common.SocketPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
