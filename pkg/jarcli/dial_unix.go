//go:build !windows

package jarcli

import (
	"fmt"
	"net"

	"github.com/warmjar/warmjar/common"
)

// dial connects to the daemon via Unix socket with TCP fallback.
// Transport priority: Unix socket > loopback TCP.
func dial() (net.Conn, error) {
	if common.ForceTCP() {
		return dialFunc("tcp", tcpAddress())
	}

	debugLog("dialing unix socket %s", common.SocketPath())
	conn, unixErr := dialFunc("unix", common.SocketPath())
	if unixErr != nil {
		debugLog("unix socket failed (%v), falling back to tcp", unixErr)
		conn, err := dialFunc("tcp", tcpAddress())
		if err != nil {
			return nil, fmt.Errorf("unix socket error: %v; tcp error: %w", unixErr, err)
		}
		return conn, nil
	}
	return conn, nil
}

// connectionPath is the transport endpoint used for liveness checks.
func connectionPath() string {
	return common.SocketPath()
}

// probeTransport reports whether anything is accepting connections at
// the daemon's endpoint.
func probeTransport(path string) bool {
	if conn, err := dialFunc("unix", path); err == nil {
		conn.Close()
		return true
	}
	if conn, err := dialFunc("tcp", tcpAddress()); err == nil {
		conn.Close()
		return true
	}
	return false
}
