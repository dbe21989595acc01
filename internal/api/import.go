package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/warmjar/warmjar/common"
	"github.com/warmjar/warmjar/internal/importer"
	"github.com/warmjar/warmjar/internal/server"
)

func (a *Api) importHandler(sconn *server.SyncConn, body json.RawMessage) (common.Method, any, error) {
	var m common.ImportParams
	if err := json.Unmarshal(body, &m); err != nil {
		return common.METHOD_IMPORT, nil, err
	}
	if len(m.Data) == 0 {
		return common.METHOD_IMPORT, nil, errors.New("data is required")
	}

	jar, err := importer.Parse(m.Data, importer.ParseFormat(m.Format), a.log)
	if err != nil {
		return common.METHOD_IMPORT, nil, err
	}

	res := &common.ImportResponse{Imported: jar.Len()}
	// Missing required cookies do not block the import; the next refresh
	// may still be able to rebuild the session. Report them instead.
	if report := importer.Validate(jar, a.required, time.Now()); !report.OK() {
		res.Missing = report.String()
	}

	if err := a.sched.ImportJar(jar); err != nil {
		return common.METHOD_IMPORT, nil, err
	}
	a.log.Info("api: imported %d cookies", jar.Len())
	return common.METHOD_IMPORT, res, nil
}
