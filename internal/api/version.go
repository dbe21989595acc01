package api

import (
	"encoding/json"

	"github.com/warmjar/warmjar/common"
	"github.com/warmjar/warmjar/internal/server"
)

func (a *Api) versionHandler(sconn *server.SyncConn, body json.RawMessage) (common.Method, any, error) {
	return common.METHOD_VERSION, &common.VersionResponse{Version: a.version}, nil
}
