// Package scheduler owns the refresh loop. A single goroutine holds the
// jar, the metadata and the timer; refresh attempts run on a worker
// goroutine, at most one in flight. All external access (manual trigger,
// import, status) goes through channels into the loop, so there is no
// shared mutable state to lock.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/adhocore/gronx"

	"github.com/warmjar/warmjar/internal/backoff"
	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/internal/refresher"
	"github.com/warmjar/warmjar/internal/store"
	"github.com/warmjar/warmjar/pkg/logger"
)

// maxSleepCap bounds a single timer sleep so the loop re-evaluates the
// schedule at least once a minute.
const maxSleepCap = 60 * time.Second

// ErrRefreshInFlight is returned when a manual trigger or import arrives
// while a refresh attempt is already running.
var ErrRefreshInFlight = errors.New("scheduler: a refresh is already in flight")

// ErrStopped is returned for requests made after the scheduler shut down.
var ErrStopped = errors.New("scheduler: stopped")

// Runner runs one refresh cycle. Satisfied by *refresher.Refresher.
type Runner interface {
	Refresh(ctx context.Context, seed *cookie.Jar) refresher.Result
}

// Store persists the jar. Satisfied by *store.Store.
type Store interface {
	Load() (*cookie.Jar, store.Metadata, error)
	Save(jar *cookie.Jar, meta store.Metadata) error
}

// Status is a point-in-time snapshot of the loop state.
type Status struct {
	Busy                bool      `json:"busy"`
	NextRunAt           time.Time `json:"next_run_at"`
	CookieCount         int       `json:"cookie_count"`
	LastRefreshedAt     time.Time `json:"last_refreshed_at,omitempty"`
	LastImportAt        time.Time `json:"last_import_at,omitempty"`
	RefreshCount        int       `json:"refresh_count"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
}

// Config sets the refresh cadence and the failure policy.
type Config struct {
	// Interval is the cadence between successful refreshes.
	Interval time.Duration
	// Cron, when non-empty, replaces Interval for scheduling after a
	// success. Backoff still applies after failures.
	Cron string
	// Policy governs retry delays and alerting on consecutive failures.
	Policy backoff.Policy
}

type triggerReq struct {
	reply chan error
}

type importReq struct {
	jar   *cookie.Jar
	reply chan error
}

// Scheduler is the refresh loop. Create with New; all methods are safe
// to call from any goroutine.
type Scheduler struct {
	runner Runner
	store  Store
	cfg    Config
	log    logger.Logger
	now    func() time.Time

	ctx         context.Context
	triggerChan chan triggerReq
	importChan  chan importReq
	statusChan  chan chan Status
	resultChan  chan refresher.Result
	done        chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates and starts a scheduler. The loop starts idle: the first
// refresh fires one full interval (or cron tick) after start, on the
// assumption that the loaded jar is fresh enough to serve until then.
// The loop exits when ctx is cancelled, after waiting for any in-flight
// attempt to unwind.
func New(ctx context.Context, runner Runner, st Store, cfg Config, log logger.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = logger.NewNopLogger()
	}
	s := &Scheduler{
		runner:      runner,
		store:       st,
		cfg:         cfg,
		log:         log,
		now:         time.Now,
		ctx:         ctx,
		triggerChan: make(chan triggerReq),
		importChan:  make(chan importReq),
		statusChan:  make(chan chan Status),
		resultChan:  make(chan refresher.Result, 1),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

// Done is closed once the loop has fully stopped.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// TriggerManual requests an immediate refresh. It returns
// ErrRefreshInFlight when an attempt is already running; the refresh
// itself completes asynchronously.
func (s *Scheduler) TriggerManual() error {
	req := triggerReq{reply: make(chan error, 1)}
	select {
	case s.triggerChan <- req:
		return <-req.reply
	case <-s.ctx.Done():
		return ErrStopped
	case <-s.done:
		return ErrStopped
	}
}

// ImportJar replaces the current jar with an externally supplied one and
// persists it. Rejected while a refresh is in flight so the import and
// the extraction cannot race over the persisted state.
func (s *Scheduler) ImportJar(jar *cookie.Jar) error {
	req := importReq{jar: jar, reply: make(chan error, 1)}
	select {
	case s.importChan <- req:
		return <-req.reply
	case <-s.ctx.Done():
		return ErrStopped
	case <-s.done:
		return ErrStopped
	}
}

// Status returns a snapshot of the loop state.
func (s *Scheduler) Status() (Status, error) {
	reply := make(chan Status, 1)
	select {
	case s.statusChan <- reply:
		return <-reply, nil
	case <-s.ctx.Done():
		return Status{}, ErrStopped
	case <-s.done:
		return Status{}, ErrStopped
	}
}

// run is the loop goroutine. It is the only goroutine that reads or
// writes the jar, the metadata and the timer.
func (s *Scheduler) run() {
	defer close(s.done)

	jar, meta, err := s.store.Load()
	if err != nil {
		// Corrupt state was quarantined; start over with what we got.
		s.log.Error("scheduler: loading persisted jar: %v", err)
	}
	if jar.Len() > 0 {
		s.log.Info("scheduler: loaded %d cookies from store", jar.Len())
	}

	var (
		busy    bool
		alerted bool
		lastErr string
		nextAt  = s.nextAfterSuccess() // idle for one full cadence before the first refresh
		timer   *time.Timer
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if busy {
			// The worker's completion drives the next step.
			return nil
		}
		dur := nextAt.Sub(s.now())
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	start := func() {
		busy = true
		seed := jar.Clone()
		go func() {
			s.resultChan <- s.runner.Refresh(s.ctx, seed)
		}()
	}

	timerCh := resetTimer()

	for {
		select {
		case <-s.ctx.Done():
			if busy {
				// The worker's context is cancelled; wait for it to
				// close its browser and report back, then account for
				// the outcome so an aborted attempt still shows up in
				// the failure counter.
				res := <-s.resultChan
				if res.Err == nil && res.Jar != nil {
					jar = res.Jar
					meta.RecordRefresh(res.FinishedAt)
				} else {
					meta.RecordFailure()
				}
				if err := s.store.Save(jar, meta); err != nil {
					s.log.Error("scheduler: persisting state at shutdown: %v", err)
				}
			}
			return

		case <-timerCh:
			if !s.now().Before(nextAt) {
				start()
			}
			timerCh = resetTimer()

		case req := <-s.triggerChan:
			if busy {
				req.reply <- ErrRefreshInFlight
				continue
			}
			s.log.Info("scheduler: manual refresh requested")
			start()
			req.reply <- nil
			timerCh = resetTimer()

		case req := <-s.importChan:
			if busy {
				req.reply <- ErrRefreshInFlight
				continue
			}
			meta.RecordImport(s.now())
			if err := s.store.Save(req.jar, meta); err != nil {
				req.reply <- err
				continue
			}
			jar = req.jar.Clone()
			s.log.Info("scheduler: imported %d cookies", jar.Len())
			req.reply <- nil

		case reply := <-s.statusChan:
			reply <- Status{
				Busy:                busy,
				NextRunAt:           nextAt,
				CookieCount:         jar.Len(),
				LastRefreshedAt:     meta.LastRefreshedAt,
				LastImportAt:        meta.LastImportAt,
				RefreshCount:        meta.RefreshCount,
				ConsecutiveFailures: meta.ConsecutiveFailures,
				LastError:           lastErr,
			}

		case res := <-s.resultChan:
			busy = false
			if res.Err != nil {
				meta.RecordFailure()
				lastErr = res.Err.Error()
				delay := s.cfg.Policy.NextDelay(meta.ConsecutiveFailures - 1)
				nextAt = s.now().Add(delay)
				s.log.Error("scheduler: refresh failed (%d consecutive): %v; retrying in %s",
					meta.ConsecutiveFailures, res.Err, delay)
				if s.cfg.Policy.ShouldAlert(meta.ConsecutiveFailures) && !alerted {
					alerted = true
					s.log.Error("ALERT: %d consecutive refresh failures, cookies may be going stale; manual re-login may be required",
						meta.ConsecutiveFailures)
				}
				// Persist the failure count alongside the old jar.
				if err := s.store.Save(jar, meta); err != nil {
					s.log.Error("scheduler: persisting failure state: %v", err)
				}
			} else {
				jar = res.Jar
				meta.RecordRefresh(res.FinishedAt)
				lastErr = ""
				alerted = false
				if err := s.store.Save(jar, meta); err != nil {
					s.log.Error("scheduler: persisting refreshed jar: %v", err)
				}
				nextAt = s.nextAfterSuccess()
				s.log.Info("scheduler: next refresh at %s", nextAt.Format(time.RFC3339))
			}
			timerCh = resetTimer()
		}
	}
}

// nextAfterSuccess computes the next run time after a successful cycle:
// the cron expression when configured, the fixed interval otherwise.
func (s *Scheduler) nextAfterSuccess() time.Time {
	if s.cfg.Cron != "" {
		next, err := gronx.NextTickAfter(s.cfg.Cron, s.now(), false)
		if err == nil {
			return next
		}
		s.log.Warning("scheduler: cron %q: %v; falling back to interval", s.cfg.Cron, err)
	}
	return s.now().Add(s.cfg.Interval)
}
