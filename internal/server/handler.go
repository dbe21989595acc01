package server

import (
	"encoding/json"

	"github.com/warmjar/warmjar/common"
)

// HandlerFunc handles one RPC request. It returns the response method
// tag, the response payload and any error; errors are serialized into
// an error response for the client.
type HandlerFunc func(
	conn *SyncConn,
	body json.RawMessage,
) (
	common.Method,
	any,
	error,
)
