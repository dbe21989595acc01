package common

import (
	"os"
	"path/filepath"
)

// Environment variable names for transport configuration.
const (
	// SocketPathEnv overrides the Unix socket path.
	SocketPathEnv = "WARMJAR_SOCKET_PATH"

	// TCPPortEnv overrides the TCP fallback port.
	TCPPortEnv = "WARMJAR_TCP_PORT"

	// ForceTCPEnv forces the TCP transport when set to "1".
	ForceTCPEnv = "WARMJAR_FORCE_TCP"

	// PipeNameEnv overrides the Windows named pipe name.
	PipeNameEnv = "WARMJAR_PIPE_NAME"

	// DebugEnv enables client-side debug logging when set to "1".
	DebugEnv = "WARMJAR_DEBUG"
)

// SocketPath returns the Unix socket path the daemon listens on,
// honoring the SocketPathEnv override.
func SocketPath() string {
	if path := os.Getenv(SocketPathEnv); path != "" {
		return path
	}
	return filepath.Join(os.TempDir(), "warmjar.sock")
}

// ForceTCP reports whether the TCP transport is forced.
func ForceTCP() bool {
	return os.Getenv(ForceTCPEnv) == "1"
}
