//go:build windows

package jarcli

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Microsoft/go-winio"

	"github.com/warmjar/warmjar/common"
)

const pipeDialTimeout = 2 * time.Second

// dialPipeFunc is swappable by tests.
var dialPipeFunc = dialPipeImpl

func dialPipeImpl(path string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return winio.DialPipeContext(ctx, path)
}

// dial connects to the daemon via named pipe with TCP fallback.
// Transport priority: named pipe > loopback TCP.
func dial() (net.Conn, error) {
	if common.ForceTCP() {
		return dialFunc("tcp", tcpAddress())
	}

	path := common.PipePath()
	debugLog("dialing named pipe %s", path)
	conn, pipeErr := dialPipeFunc(path, pipeDialTimeout)
	if pipeErr != nil {
		debugLog("named pipe failed (%v), falling back to tcp", pipeErr)
		conn, err := dialFunc("tcp", tcpAddress())
		if err != nil {
			return nil, fmt.Errorf("named pipe error: %v; tcp error: %w", pipeErr, err)
		}
		return conn, nil
	}
	return conn, nil
}

// connectionPath is the transport endpoint used for liveness checks.
func connectionPath() string {
	return common.PipePath()
}

// probeTransport reports whether anything is accepting connections at
// the daemon's endpoint.
func probeTransport(path string) bool {
	if conn, err := dialPipeFunc(path, pipeDialTimeout); err == nil {
		conn.Close()
		return true
	}
	if conn, err := dialFunc("tcp", tcpAddress()); err == nil {
		conn.Close()
		return true
	}
	return false
}
