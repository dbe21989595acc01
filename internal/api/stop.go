package api

import (
	"encoding/json"

	"github.com/warmjar/warmjar/common"
	"github.com/warmjar/warmjar/internal/server"
)

func (a *Api) stopHandler(sconn *server.SyncConn, body json.RawMessage) (common.Method, any, error) {
	a.log.Info("api: stop requested")
	// Shut down after the response has been written.
	go a.stop()
	return common.METHOD_STOP, &common.StopResponse{Stopping: true}, nil
}
