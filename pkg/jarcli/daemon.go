package jarcli

import (
	"fmt"
	"time"
)

const (
	daemonStartTimeout = 5 * time.Second
	socketPollInterval = 50 * time.Millisecond
)

// IsDaemonRunning reports whether a daemon is reachable on any
// transport.
func IsDaemonRunning() bool {
	return probeTransport(connectionPath())
}

// EnsureDaemon spawns the daemon when it is not already running and
// waits for its socket to come up. A non-empty configPath is passed
// through to the spawned process so it runs on the caller's config
// rather than the default location.
func EnsureDaemon(configPath string) error {
	path := connectionPath()
	if probeTransport(path) {
		return nil
	}
	if err := spawnDaemon(configPath); err != nil {
		return err
	}
	return waitForSocket(path, daemonStartTimeout)
}

// daemonArgs builds the argument vector for the spawned daemon.
func daemonArgs(configPath string) []string {
	if configPath == "" {
		return []string{"start"}
	}
	return []string{"--config", configPath, "start"}
}

// waitForSocket polls until the daemon's endpoint accepts connections
// or the timeout expires.
func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probeTransport(path) {
			return nil
		}
		time.Sleep(socketPollInterval)
	}
	return fmt.Errorf("daemon failed to start within %v", timeout)
}
