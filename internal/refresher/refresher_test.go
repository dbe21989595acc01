package refresher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/warmjar/warmjar/internal/browser"
	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/pkg/logger"
)

var required = []string{"SID", "HSID"}

func liveCookies() []cookie.Cookie {
	exp := time.Now().Add(24 * time.Hour)
	return []cookie.Cookie{
		{Name: "SID", Value: "fresh-sid", Domain: ".youtube.com", Path: "/", Expires: exp},
		{Name: "HSID", Value: "fresh-hsid", Domain: ".youtube.com", Path: "/", Expires: exp},
		{Name: "YSC", Value: "session", Domain: ".youtube.com", Path: "/"},
	}
}

func TestRefresh_SuccessExtractsValidatedJar(t *testing.T) {
	session := &browser.FakeSession{ReturnCookies: liveCookies()}
	launcher := &browser.FakeLauncher{Session: session}
	r := New(launcher, "https://www.youtube.com", required, logger.NewNopLogger())

	seed := cookie.JarOf([]cookie.Cookie{
		{Name: "SID", Value: "stale-sid", Domain: ".youtube.com", Path: "/"},
	})
	res := r.Refresh(context.Background(), seed)
	if res.Err != nil {
		t.Fatalf("Refresh: %v", res.Err)
	}
	if res.Jar == nil || res.Jar.Len() != 3 {
		t.Fatalf("expected jar with 3 cookies, got %+v", res.Jar)
	}
	if len(session.Loaded) != 1 || session.Loaded[0].Value != "stale-sid" {
		t.Errorf("seed cookies not injected: %+v", session.Loaded)
	}
	if len(session.Navigated) != 1 || session.Navigated[0] != "https://www.youtube.com" {
		t.Errorf("navigated = %v", session.Navigated)
	}
	if session.CloseCount() != 1 {
		t.Errorf("session closed %d times, want 1", session.CloseCount())
	}
	if res.ValidatedOnline {
		t.Error("no prober configured, ValidatedOnline must be false")
	}
}

func TestRefresh_LaunchFailure(t *testing.T) {
	launcher := &browser.FakeLauncher{LaunchErr: errors.New("no chromium binary")}
	r := New(launcher, "https://www.youtube.com", required, logger.NewNopLogger())

	res := r.Refresh(context.Background(), cookie.NewJar())
	if !errors.Is(res.Err, ErrBrowserLaunch) {
		t.Fatalf("expected ErrBrowserLaunch, got %v", res.Err)
	}
	if res.Jar != nil {
		t.Error("failed refresh must not hand back a jar")
	}
}

func TestRefresh_NavigationFailureStillClosesSession(t *testing.T) {
	session := &browser.FakeSession{NavigateErr: errors.New("net::ERR_TIMED_OUT")}
	launcher := &browser.FakeLauncher{Session: session}
	r := New(launcher, "https://www.youtube.com", required, logger.NewNopLogger())

	res := r.Refresh(context.Background(), cookie.NewJar())
	if !errors.Is(res.Err, ErrNavigation) {
		t.Fatalf("expected ErrNavigation, got %v", res.Err)
	}
	if session.CloseCount() != 1 {
		t.Errorf("session closed %d times, want 1", session.CloseCount())
	}
}

func TestRefresh_MissingRequiredCookieFailsValidation(t *testing.T) {
	session := &browser.FakeSession{ReturnCookies: []cookie.Cookie{
		{Name: "YSC", Value: "only-anon", Domain: ".youtube.com", Path: "/"},
	}}
	r := New(&browser.FakeLauncher{Session: session}, "https://www.youtube.com", required, logger.NewNopLogger())

	res := r.Refresh(context.Background(), cookie.NewJar())
	if !errors.Is(res.Err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", res.Err)
	}
}

type probeFunc func(ctx context.Context, jar *cookie.Jar) error

func (f probeFunc) Probe(ctx context.Context, jar *cookie.Jar) error { return f(ctx, jar) }

func TestRefresh_ProbeOutcomes(t *testing.T) {
	launcher := &browser.FakeLauncher{Next: func() (*browser.FakeSession, error) {
		return &browser.FakeSession{ReturnCookies: liveCookies()}, nil
	}}

	ok := New(launcher, "https://www.youtube.com", required, logger.NewNopLogger(),
		WithProber(probeFunc(func(context.Context, *cookie.Jar) error { return nil })))
	res := ok.Refresh(context.Background(), cookie.NewJar())
	if res.Err != nil || !res.ValidatedOnline {
		t.Fatalf("passing probe: err=%v validated=%v", res.Err, res.ValidatedOnline)
	}

	bad := New(launcher, "https://www.youtube.com", required, logger.NewNopLogger(),
		WithProber(probeFunc(func(context.Context, *cookie.Jar) error { return errors.New("401") })))
	res = bad.Refresh(context.Background(), cookie.NewJar())
	if !errors.Is(res.Err, ErrProbe) {
		t.Fatalf("expected ErrProbe, got %v", res.Err)
	}
	if res.Jar != nil {
		t.Error("probe-failed refresh must not hand back a jar")
	}
}

func TestHTTPProber_AcceptsAuthenticated2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("SID"); err != nil || c.Value != "fresh-sid" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewHTTPProber(srv.URL+"/account", 5*time.Second, logger.NewNopLogger())
	jar := cookie.JarOf([]cookie.Cookie{
		{Name: "SID", Value: "fresh-sid", Domain: "127.0.0.1", Path: "/"},
	})
	if err := p.Probe(context.Background(), jar); err != nil {
		t.Fatalf("probe: %v", err)
	}

	if err := p.Probe(context.Background(), cookie.NewJar()); err == nil {
		t.Fatal("probe without session cookies should fail")
	}
}
