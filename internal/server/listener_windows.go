//go:build windows

package server

import (
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"

	"github.com/warmjar/warmjar/common"
)

// pipeSecurityDescriptor restricts pipe access to SYSTEM, built-in
// Administrators and the creator owner. The pipe fronts the account's
// session cookies, so no other users may connect.
const pipeSecurityDescriptor = "D:(A;;GA;;;SY)(A;;GA;;;BA)(A;;GA;;;CO)"

// createListener creates a named pipe listener with TCP fallback.
// Transport priority: named pipe > loopback TCP.
func (s *Server) createListener() (net.Listener, error) {
	if common.ForceTCP() {
		return net.Listen("tcp", fmt.Sprintf("%s:%d", common.TCPHost, s.port))
	}

	cfg := &winio.PipeConfig{
		SecurityDescriptor: pipeSecurityDescriptor,
	}
	l, err := winio.ListenPipe(common.PipePath(), cfg)
	if err != nil {
		s.log.Warning("server: named pipe unavailable (%v), falling back to tcp", err)
		tcpListener, tcpErr := net.Listen("tcp", fmt.Sprintf("%s:%d", common.TCPHost, s.port))
		if tcpErr != nil {
			return nil, fmt.Errorf("listening: %w", tcpErr)
		}
		return tcpListener, nil
	}
	return l, nil
}

// cleanupSocket is a no-op on Windows; the OS tears the pipe down with
// its last handle.
func cleanupSocket() error {
	return nil
}
