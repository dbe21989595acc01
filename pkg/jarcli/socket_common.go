package jarcli

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"

	"github.com/warmjar/warmjar/common"
)

// dialFunc is swappable by tests.
var dialFunc = net.Dial

// tcpPort returns the TCP fallback port from the environment or the
// default.
func tcpPort() int {
	if port := os.Getenv(common.TCPPortEnv); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p >= 1 && p <= 65535 {
			return p
		}
		debugLog("invalid TCP port %q, using default %d", port, common.DefaultTCPPort)
	}
	return common.DefaultTCPPort
}

func tcpAddress() string {
	return fmt.Sprintf("%s:%d", common.TCPHost, tcpPort())
}

func debugMode() bool {
	return os.Getenv(common.DebugEnv) == "1"
}

func debugLog(format string, args ...any) {
	if debugMode() {
		log.Printf(format, args...)
	}
}
