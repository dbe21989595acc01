// Package refresher runs one cookie refresh cycle: launch a browser,
// inject the current jar, let the platform rotate its session cookies,
// extract the result and validate it before anyone persists it. The
// package never touches disk; the scheduler owns persistence.
package refresher

import (
	"context"
	"fmt"
	"time"

	"github.com/warmjar/warmjar/internal/browser"
	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/internal/importer"
	"github.com/warmjar/warmjar/pkg/logger"
)

// Prober independently validates a jar against a protected resource.
type Prober interface {
	// Probe returns nil when the jar authenticates an online request.
	Probe(ctx context.Context, jar *cookie.Jar) error
}

// Result is the outcome of one refresh cycle. Err == nil means the jar
// is validated and safe to persist; on error Jar is nil and the caller
// must keep serving its previous jar.
type Result struct {
	Jar             *cookie.Jar
	ValidatedOnline bool
	StartedAt       time.Time
	FinishedAt      time.Time
	Err             error
}

// Refresher drives refresh cycles. Safe for use from one goroutine at a
// time; the scheduler guarantees at most one cycle is in flight.
type Refresher struct {
	launcher  browser.Launcher
	prober    Prober // nil disables online validation
	targetURL string
	required  []string
	log       logger.Logger
	now       func() time.Time
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithProber enables online validation of extracted jars.
func WithProber(p Prober) Option {
	return func(r *Refresher) { r.prober = p }
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Refresher) { r.now = now }
}

// New creates a refresher targeting url, requiring the named cookies in
// every extracted jar.
func New(l browser.Launcher, targetURL string, required []string, log logger.Logger, opts ...Option) *Refresher {
	if log == nil {
		log = logger.NewNopLogger()
	}
	r := &Refresher{
		launcher:  l,
		targetURL: targetURL,
		required:  required,
		log:       log,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh runs one cycle seeded with the given jar. The browser session
// is always closed, including on error and cancellation.
func (r *Refresher) Refresh(ctx context.Context, seed *cookie.Jar) Result {
	res := Result{StartedAt: r.now()}
	defer func() { res.FinishedAt = r.now() }()

	r.log.Info("refresh: starting cycle against %s", r.targetURL)

	session, err := r.launcher.Launch(ctx)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
		return res
	}
	defer func() {
		if err := session.Close(); err != nil {
			r.log.Warning("refresh: session close: %v", err)
		}
	}()

	if seed != nil && seed.Len() > 0 {
		if err := session.LoadCookies(ctx, seed.Cookies()); err != nil {
			res.Err = fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
			return res
		}
	}

	if err := session.Navigate(ctx, r.targetURL); err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrNavigation, err)
		return res
	}
	if err := session.WaitSettled(ctx); err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrNavigation, err)
		return res
	}

	extracted, err := session.Cookies(ctx)
	if err != nil {
		res.Err = fmt.Errorf("%w: %v", ErrExtraction, err)
		return res
	}
	jar := cookie.JarOf(extracted)

	if report := importer.Validate(jar, r.required, r.now()); !report.OK() {
		res.Err = fmt.Errorf("%w: %s", ErrValidation, report)
		return res
	}

	if r.prober != nil {
		if err := r.prober.Probe(ctx, jar); err != nil {
			res.Err = fmt.Errorf("%w: %v", ErrProbe, err)
			return res
		}
		res.ValidatedOnline = true
	}

	r.log.Info("refresh: cycle succeeded, %d cookies extracted", jar.Len())
	res.Jar = jar
	return res
}
