// Package api registers the daemon's RPC handlers: status, manual
// refresh, cookie import/export, version and stop.
package api

import (
	"os"
	"time"

	"github.com/warmjar/warmjar/common"
	"github.com/warmjar/warmjar/internal/scheduler"
	"github.com/warmjar/warmjar/internal/server"
	"github.com/warmjar/warmjar/internal/store"
	"github.com/warmjar/warmjar/pkg/logger"
)

// Api wires RPC methods to the scheduler and the store.
type Api struct {
	log       logger.Logger
	sched     *scheduler.Scheduler
	store     *store.Store
	required  []string
	version   string
	startedAt time.Time
	stop      func() // requests daemon shutdown
}

// NewApi creates the handler set. stop is invoked by the stop method to
// begin a graceful shutdown.
func NewApi(log logger.Logger, sched *scheduler.Scheduler, st *store.Store, required []string, version string, stop func()) *Api {
	return &Api{
		log:       log,
		sched:     sched,
		store:     st,
		required:  required,
		version:   version,
		startedAt: time.Now(),
		stop:      stop,
	}
}

// RegisterHandlers attaches every method to the server.
func (a *Api) RegisterHandlers(srv *server.Server) {
	srv.RegisterHandler(common.METHOD_STATUS, a.statusHandler)
	srv.RegisterHandler(common.METHOD_REFRESH, a.refreshHandler)
	srv.RegisterHandler(common.METHOD_IMPORT, a.importHandler)
	srv.RegisterHandler(common.METHOD_EXPORT, a.exportHandler)
	srv.RegisterHandler(common.METHOD_VERSION, a.versionHandler)
	srv.RegisterHandler(common.METHOD_STOP, a.stopHandler)
}

func (a *Api) pid() int {
	return os.Getpid()
}
