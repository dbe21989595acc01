package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/warmjar/warmjar/internal/cookie"
)

// requestIdleWindow is how long the network must stay quiet before a
// page counts as settled.
const requestIdleWindow = 800 * time.Millisecond

// RodLauncher launches headless Chromium sessions through rod. Every
// Launch starts a fresh browser process with its own profile directory,
// torn down on Close.
type RodLauncher struct {
	opts Options
}

// NewRodLauncher creates a launcher with the given options.
func NewRodLauncher(opts Options) *RodLauncher {
	return &RodLauncher{opts: opts}
}

// Launch starts a browser, connects to it and opens a blank incognito
// page. On any failure the partially started process is killed before
// the error is returned.
func (l *RodLauncher) Launch(ctx context.Context) (Session, error) {
	lctx := ctx
	if l.opts.LaunchTimeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, l.opts.LaunchTimeout)
		defer cancel()
	}

	lch := launcher.New().Headless(l.opts.Headless).Context(lctx)
	if l.opts.Bin != "" {
		lch = lch.Bin(l.opts.Bin)
	}
	controlURL, err := lch.Launch()
	if err != nil {
		return nil, fmt.Errorf("browser: launch: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(lctx)
	if err := b.Connect(); err != nil {
		lch.Kill()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}

	incognito, err := b.Incognito()
	if err != nil {
		_ = b.Close()
		lch.Kill()
		return nil, fmt.Errorf("browser: incognito context: %w", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		lch.Kill()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}

	return &rodSession{
		launcher: lch,
		browser:  b,
		page:     page,
		opts:     l.opts,
	}, nil
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	opts     Options
	closed   bool
}

func (s *rodSession) LoadCookies(ctx context.Context, cookies []cookie.Cookie) error {
	if len(cookies) == 0 {
		return nil
	}
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, toCookieParam(c))
	}
	if err := s.page.Context(ctx).SetCookies(params); err != nil {
		return fmt.Errorf("browser: set cookies: %w", err)
	}
	return nil
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)
	if s.opts.NavigationTimeout > 0 {
		page = page.Timeout(s.opts.NavigationTimeout)
	}
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("browser: wait load %s: %w", url, err)
	}
	return nil
}

func (s *rodSession) WaitSettled(ctx context.Context) error {
	page := s.page.Context(ctx)
	if s.opts.SettleTimeout > 0 {
		page = page.Timeout(s.opts.SettleTimeout)
	}
	// WaitRequestIdle returns once the network has been quiet for the
	// idle window, or silently when the settle deadline expires. Either
	// way the page has had its chance to rotate cookies.
	wait := page.WaitRequestIdle(requestIdleWindow, nil, nil, nil)
	wait()
	return nil
}

func (s *rodSession) Cookies(ctx context.Context) ([]cookie.Cookie, error) {
	res, err := proto.NetworkGetCookies{}.Call(s.page.Context(ctx))
	if err != nil {
		return nil, fmt.Errorf("browser: get cookies: %w", err)
	}
	out := make([]cookie.Cookie, 0, len(res.Cookies))
	for _, c := range res.Cookies {
		out = append(out, fromNetworkCookie(c))
	}
	return out, nil
}

func (s *rodSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	if err != nil {
		return fmt.Errorf("browser: close: %w", err)
	}
	return nil
}

func toCookieParam(c cookie.Cookie) *proto.NetworkCookieParam {
	p := &proto.NetworkCookieParam{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HttpOnly,
		SameSite: toSameSite(c.SameSite),
	}
	if !c.Expires.IsZero() {
		p.Expires = proto.TimeSinceEpoch(c.Expires.Unix())
	}
	return p
}

func fromNetworkCookie(c *proto.NetworkCookie) cookie.Cookie {
	out := cookie.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HttpOnly: c.HTTPOnly,
		SameSite: string(c.SameSite),
	}
	// DevTools reports -1 for session cookies.
	if c.Expires > 0 {
		out.Expires = time.Unix(int64(c.Expires), 0).UTC()
	}
	return out
}

func toSameSite(s string) proto.NetworkCookieSameSite {
	switch s {
	case "Strict", "strict":
		return proto.NetworkCookieSameSiteStrict
	case "Lax", "lax":
		return proto.NetworkCookieSameSiteLax
	case "None", "none":
		return proto.NetworkCookieSameSiteNone
	default:
		return ""
	}
}
