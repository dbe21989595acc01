package browser

import (
	"context"
	"sync"

	"github.com/warmjar/warmjar/internal/cookie"
)

// FakeSession is a scripted Session for tests. Zero value is usable: it
// records every call and returns the configured cookies and errors.
type FakeSession struct {
	mu sync.Mutex

	// Scripted behavior.
	ReturnCookies []cookie.Cookie
	LoadErr       error
	NavigateErr   error
	CookiesErr    error

	// Recorded calls.
	Loaded    []cookie.Cookie
	Navigated []string
	Settled   int
	Closed    int
}

func (f *FakeSession) LoadCookies(_ context.Context, cookies []cookie.Cookie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Loaded = append(f.Loaded, cookies...)
	return f.LoadErr
}

func (f *FakeSession) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Navigated = append(f.Navigated, url)
	return f.NavigateErr
}

func (f *FakeSession) WaitSettled(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Settled++
	return nil
}

func (f *FakeSession) Cookies(context.Context) ([]cookie.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CookiesErr != nil {
		return nil, f.CookiesErr
	}
	out := make([]cookie.Cookie, len(f.ReturnCookies))
	copy(out, f.ReturnCookies)
	return out, nil
}

func (f *FakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed++
	return nil
}

// CloseCount returns how many times Close was called.
func (f *FakeSession) CloseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Closed
}

// FakeLauncher hands out scripted sessions. If Next is non-nil it is
// called per launch; otherwise Session (or a fresh FakeSession) is used.
type FakeLauncher struct {
	mu        sync.Mutex
	Session   *FakeSession
	LaunchErr error
	Next      func() (*FakeSession, error)
	Launches  int
}

func (f *FakeLauncher) Launch(context.Context) (Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Launches++
	if f.Next != nil {
		s, err := f.Next()
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	if f.LaunchErr != nil {
		return nil, f.LaunchErr
	}
	if f.Session == nil {
		f.Session = &FakeSession{}
	}
	return f.Session, nil
}

var (
	_ Session  = (*FakeSession)(nil)
	_ Launcher = (*FakeLauncher)(nil)
	_ Launcher = (*RodLauncher)(nil)
)
