// Package browser abstracts the headless browser a refresh drives.
// The production implementation launches a real Chromium via rod; tests
// substitute a scripted fake so refresh logic runs without a browser.
package browser

import (
	"context"
	"time"

	"github.com/warmjar/warmjar/internal/cookie"
)

// Session is one live browser session. A session is single-use: launch,
// load cookies, navigate, wait, extract, close.
type Session interface {
	// LoadCookies injects the cookies into the browser before navigation.
	LoadCookies(ctx context.Context, cookies []cookie.Cookie) error

	// Navigate opens the URL and waits for the page load event.
	Navigate(ctx context.Context, url string) error

	// WaitSettled blocks until network activity has gone quiet, so the
	// platform's session-maintenance requests have a chance to complete
	// and rotate cookies. A settle timeout is not an error.
	WaitSettled(ctx context.Context) error

	// Cookies extracts every cookie the browser currently holds.
	Cookies(ctx context.Context) ([]cookie.Cookie, error)

	// Close shuts the session down and releases the browser process.
	// Safe to call multiple times.
	Close() error
}

// Launcher creates sessions. Each Launch starts a fresh browser so a
// wedged instance from a previous attempt cannot poison the next one.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Options configure how sessions are launched and driven.
type Options struct {
	// Bin is an explicit browser binary path. Empty means auto-detect.
	Bin string

	// Headless runs the browser without a visible window.
	Headless bool

	// LaunchTimeout bounds browser startup and connection.
	LaunchTimeout time.Duration

	// NavigationTimeout bounds a single page navigation.
	NavigationTimeout time.Duration

	// SettleTimeout bounds the post-load network-idle wait.
	SettleTimeout time.Duration
}
