package api

import (
	"encoding/json"

	"github.com/warmjar/warmjar/common"
	"github.com/warmjar/warmjar/internal/server"
)

func (a *Api) exportHandler(sconn *server.SyncConn, body json.RawMessage) (common.Method, any, error) {
	flat, err := a.store.ExportFlatBytes()
	if err != nil {
		return common.METHOD_EXPORT, nil, err
	}
	return common.METHOD_EXPORT, &common.ExportResponse{Flat: flat}, nil
}
