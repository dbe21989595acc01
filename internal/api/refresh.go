package api

import (
	"encoding/json"

	"github.com/warmjar/warmjar/common"
	"github.com/warmjar/warmjar/internal/server"
)

func (a *Api) refreshHandler(sconn *server.SyncConn, body json.RawMessage) (common.Method, any, error) {
	if err := a.sched.TriggerManual(); err != nil {
		return common.METHOD_REFRESH, nil, err
	}
	return common.METHOD_REFRESH, &common.RefreshResponse{Triggered: true}, nil
}
