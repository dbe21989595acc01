package api

import (
	"encoding/json"

	"github.com/warmjar/warmjar/common"
	"github.com/warmjar/warmjar/internal/server"
)

func (a *Api) statusHandler(sconn *server.SyncConn, body json.RawMessage) (common.Method, any, error) {
	st, err := a.sched.Status()
	if err != nil {
		return common.METHOD_STATUS, nil, err
	}
	return common.METHOD_STATUS, &common.StatusResponse{
		PID:                 a.pid(),
		Version:             a.version,
		StartedAt:           a.startedAt,
		Busy:                st.Busy,
		NextRunAt:           st.NextRunAt,
		CookieCount:         st.CookieCount,
		LastRefreshedAt:     st.LastRefreshedAt,
		LastImportAt:        st.LastImportAt,
		RefreshCount:        st.RefreshCount,
		ConsecutiveFailures: st.ConsecutiveFailures,
		LastError:           st.LastError,
	}, nil
}
