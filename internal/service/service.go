// Package service assembles the daemon: singleton lock, store, browser
// launcher, refresher, scheduler and RPC server, with signal-driven
// graceful shutdown.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/warmjar/warmjar/common"
	"github.com/warmjar/warmjar/internal/api"
	"github.com/warmjar/warmjar/internal/backoff"
	"github.com/warmjar/warmjar/internal/browser"
	"github.com/warmjar/warmjar/internal/config"
	"github.com/warmjar/warmjar/internal/refresher"
	"github.com/warmjar/warmjar/internal/scheduler"
	"github.com/warmjar/warmjar/internal/server"
	"github.com/warmjar/warmjar/internal/store"
	"github.com/warmjar/warmjar/pkg/logger"
)

// ErrAlreadyRunning means another daemon instance holds the store lock.
var ErrAlreadyRunning = errors.New("service: another instance is already running")

// Service is the assembled daemon.
type Service struct {
	cfg     *config.Config
	log     logger.Logger
	version string

	stopCh   chan struct{}
	stopOnce sync.Once
}

// New creates a service from a validated configuration.
func New(cfg *config.Config, log logger.Logger, version string) *Service {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Service{
		cfg:     cfg,
		log:     log,
		version: version,
		stopCh:  make(chan struct{}),
	}
}

// RequestStop begins a graceful shutdown. Safe to call from any
// goroutine, any number of times; used by the RPC stop handler.
func (s *Service) RequestStop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Run starts the daemon and blocks until ctx is cancelled or a stop is
// requested. It returns ErrAlreadyRunning when the singleton lock is
// held by another process.
func (s *Service) Run(ctx context.Context) error {
	lock, err := acquireLock(s.cfg.StoreDir)
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := writeState(s.cfg.StoreDir, s.version); err != nil {
		s.log.Warning("service: writing state file: %v", err)
	}
	defer removeState(s.cfg.StoreDir)

	st, err := s.buildStore()
	if err != nil {
		return err
	}

	var opts []refresher.Option
	if s.cfg.ProbeURL != "" {
		opts = append(opts, refresher.WithProber(
			refresher.NewHTTPProber(s.cfg.ProbeURL, s.cfg.ProbeTimeout(), s.log)))
	}
	launcher := browser.NewRodLauncher(browser.Options{
		Bin:               s.cfg.Browser.Bin,
		Headless:          s.cfg.Headless(),
		LaunchTimeout:     s.cfg.LaunchTimeout(),
		NavigationTimeout: s.cfg.NavigationTimeout(),
		SettleTimeout:     s.cfg.SettleTimeout(),
	})
	ref := refresher.New(launcher, s.cfg.TargetURL, s.cfg.RequiredCookies, s.log, opts...)

	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	sched := scheduler.New(schedCtx, ref, st, scheduler.Config{
		Interval: s.cfg.RefreshInterval(),
		Cron:     s.cfg.RefreshCron,
		Policy: backoff.Policy{
			Base:           s.cfg.BackoffBase(),
			Max:            s.cfg.BackoffMax(),
			AlertThreshold: s.cfg.AlertThreshold,
		},
	}, s.log)

	srv := server.NewServer(s.log, common.DefaultTCPPort)
	api.NewApi(s.log, sched, st, s.cfg.RequiredCookies, s.version, s.RequestStop).RegisterHandlers(srv)

	srvCtx, cancelSrv := context.WithCancel(ctx)
	defer cancelSrv()
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start(srvCtx)
	}()

	s.log.Info("service: started (pid state in %s)", s.cfg.StoreDir)

	select {
	case <-ctx.Done():
		s.log.Info("service: shutdown signal received")
	case <-s.stopCh:
		s.log.Info("service: stop requested")
	case err := <-srvErr:
		// Listener died before shutdown was requested.
		cancelSched()
		<-sched.Done()
		return fmt.Errorf("service: rpc server: %w", err)
	}

	return s.shutdown(cancelSrv, cancelSched, sched, srvErr)
}

// shutdown stops the server, then gives an in-flight refresh the
// configured grace period to unwind before returning.
func (s *Service) shutdown(cancelSrv, cancelSched context.CancelFunc, sched *scheduler.Scheduler, srvErr chan error) error {
	cancelSrv()
	<-srvErr

	cancelSched()
	select {
	case <-sched.Done():
		s.log.Info("service: stopped cleanly")
		return nil
	case <-time.After(s.cfg.ShutdownGrace()):
		s.log.Warning("service: refresh did not stop within %s, abandoning it", s.cfg.ShutdownGrace())
		return nil
	}
}

// buildStore constructs the persistence layer, wiring at-rest value
// encryption when configured.
func (s *Service) buildStore() (*store.Store, error) {
	var opts []store.Option
	if s.cfg.EncryptValues {
		key, err := store.LoadOrCreateKey()
		if err != nil {
			return nil, fmt.Errorf("service: loading encryption key: %w", err)
		}
		opts = append(opts, store.WithEncryption(key))
	}
	return store.New(s.cfg.StoreDir, s.log, opts...)
}
