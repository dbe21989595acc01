// Package common provides the shared types and constants of the warmjar
// client-daemon communication layer.
package common

// Method identifies an RPC operation on the daemon.
type Method string

const (
	METHOD_STATUS  Method = "status"
	METHOD_REFRESH Method = "refresh"
	METHOD_IMPORT  Method = "import"
	METHOD_EXPORT  Method = "export"
	METHOD_STOP    Method = "stop"
	METHOD_VERSION Method = "version"
)

// TCPHost is the host for the TCP fallback transport. Loopback only;
// the daemon is never exposed beyond the local machine.
const TCPHost = "localhost"

// DefaultTCPPort is the TCP fallback port when the socket transport is
// unavailable.
const DefaultTCPPort = 4690
