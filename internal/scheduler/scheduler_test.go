package scheduler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/warmjar/warmjar/internal/backoff"
	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/internal/refresher"
	"github.com/warmjar/warmjar/internal/store"
	"github.com/warmjar/warmjar/pkg/logger"
)

// fakeRunner scripts refresh outcomes and tracks concurrency.
type fakeRunner struct {
	mu       sync.Mutex
	results  []refresher.Result
	calls    int32
	inFlight int32
	maxSeen  int32
	gate     chan struct{} // when non-nil, Refresh blocks until closed
}

func (f *fakeRunner) Refresh(ctx context.Context, seed *cookie.Jar) refresher.Result {
	atomic.AddInt32(&f.calls, 1)
	n := atomic.AddInt32(&f.inFlight, 1)
	for {
		peak := atomic.LoadInt32(&f.maxSeen)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxSeen, peak, n) {
			break
		}
	}
	defer atomic.AddInt32(&f.inFlight, -1)

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return refresher.Result{Err: errors.New("unscripted refresh")}
	}
	res := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return res
}

// memStore is an in-memory Store tracking saves.
type memStore struct {
	mu    sync.Mutex
	jar   *cookie.Jar
	meta  store.Metadata
	saves int
}

func (m *memStore) Load() (*cookie.Jar, store.Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.jar == nil {
		return cookie.NewJar(), store.Metadata{}, nil
	}
	return m.jar.Clone(), m.meta, nil
}

func (m *memStore) Save(jar *cookie.Jar, meta store.Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jar = jar.Clone()
	m.meta = meta
	m.saves++
	return nil
}

func (m *memStore) snapshot() (*cookie.Jar, store.Metadata, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jar
	if j != nil {
		j = j.Clone()
	}
	return j, m.meta, m.saves
}

func goodResult() refresher.Result {
	return refresher.Result{
		Jar: cookie.JarOf([]cookie.Cookie{
			{Name: "SID", Value: "new", Domain: ".youtube.com", Path: "/", Expires: time.Now().Add(24 * time.Hour)},
		}),
		FinishedAt: time.Now(),
	}
}

// testConfig keeps the timer out of the way; refreshes are started with
// TriggerManual.
func testConfig() Config {
	return Config{
		Interval: time.Hour,
		Policy:   backoff.Policy{Base: 5 * time.Millisecond, Max: 20 * time.Millisecond, AlertThreshold: 3},
	}
}

// fastConfig exercises the timer path with a short cadence.
func fastConfig() Config {
	cfg := testConfig()
	cfg.Interval = 10 * time.Millisecond
	return cfg
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 5s")
}

func TestScheduler_StartsIdleUntilFirstInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{results: []refresher.Result{goodResult()}}
	before := time.Now()
	s := New(ctx, runner, &memStore{}, testConfig(), logger.NewNopLogger())

	// Give the loop time to misbehave if it were going to start eagerly.
	time.Sleep(50 * time.Millisecond)

	if calls := atomic.LoadInt32(&runner.calls); calls != 0 {
		t.Fatalf("refresh ran %d times before the first interval elapsed", calls)
	}

	status, err := s.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.Busy {
		t.Error("scheduler should start idle")
	}
	if status.RefreshCount != 0 {
		t.Errorf("refresh count = %d, want 0", status.RefreshCount)
	}
	earliest := before.Add(time.Hour - time.Minute)
	latest := time.Now().Add(time.Hour + time.Minute)
	if status.NextRunAt.Before(earliest) || status.NextRunAt.After(latest) {
		t.Errorf("first run scheduled at %v, want about one interval out", status.NextRunAt)
	}
}

func TestScheduler_ScheduledRefreshPersistsJar(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{results: []refresher.Result{goodResult()}}
	st := &memStore{}
	s := New(ctx, runner, st, fastConfig(), logger.NewNopLogger())

	waitFor(t, func() bool {
		_, meta, _ := st.snapshot()
		return meta.RefreshCount >= 1
	})

	jar, meta, _ := st.snapshot()
	if jar == nil || jar.Len() != 1 {
		t.Fatalf("refreshed jar not persisted: %+v", jar)
	}
	if meta.ConsecutiveFailures != 0 {
		t.Errorf("failures = %d, want 0", meta.ConsecutiveFailures)
	}

	status, err := s.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.RefreshCount < 1 || status.CookieCount != 1 {
		t.Errorf("status = %+v", status)
	}
}

func TestScheduler_ManualTriggerWhileBusyRejected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gate := make(chan struct{})
	runner := &fakeRunner{gate: gate, results: []refresher.Result{goodResult()}}
	s := New(ctx, runner, &memStore{}, testConfig(), logger.NewNopLogger())

	if err := s.TriggerManual(); err != nil {
		t.Fatalf("TriggerManual: %v", err)
	}
	// Wait until the triggered refresh is blocked inside the gate.
	waitFor(t, func() bool { return atomic.LoadInt32(&runner.inFlight) == 1 })

	if err := s.TriggerManual(); !errors.Is(err, ErrRefreshInFlight) {
		t.Fatalf("expected ErrRefreshInFlight, got %v", err)
	}
	if err := s.ImportJar(cookie.NewJar()); !errors.Is(err, ErrRefreshInFlight) {
		t.Fatalf("import while busy: expected ErrRefreshInFlight, got %v", err)
	}

	close(gate)
	waitFor(t, func() bool { return atomic.LoadInt32(&runner.inFlight) == 0 })

	// Once idle a manual trigger is accepted.
	waitFor(t, func() bool { return s.TriggerManual() == nil })

	if peak := atomic.LoadInt32(&runner.maxSeen); peak > 1 {
		t.Errorf("observed %d concurrent refreshes, want at most 1", peak)
	}
}

func TestScheduler_FailureKeepsOldJarAndBacksOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	oldJar := cookie.JarOf([]cookie.Cookie{
		{Name: "SID", Value: "old-but-valid", Domain: ".youtube.com", Path: "/"},
	})
	st := &memStore{jar: oldJar.Clone()}
	runner := &fakeRunner{results: []refresher.Result{
		{Err: errors.New("navigation timeout")},
	}}
	s := New(ctx, runner, st, testConfig(), logger.NewNopLogger())

	if err := s.TriggerManual(); err != nil {
		t.Fatalf("TriggerManual: %v", err)
	}
	waitFor(t, func() bool {
		_, meta, _ := st.snapshot()
		return meta.ConsecutiveFailures >= 1
	})

	jar, _, _ := st.snapshot()
	c, ok := jar.Get(cookie.Key{Domain: ".youtube.com", Name: "SID", Path: "/"})
	if !ok || c.Value != "old-but-valid" {
		t.Fatalf("failure must keep the previous jar, got %+v", jar)
	}

	status, err := s.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status.LastError == "" {
		t.Error("status should carry the last error")
	}
	if !status.NextRunAt.After(time.Now().Add(-time.Second)) {
		t.Errorf("backoff should schedule a future retry, got %v", status.NextRunAt)
	}
}

func TestScheduler_AlertFiresOncePerEpisode(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewMockLogger()
	runner := &fakeRunner{results: []refresher.Result{
		{Err: errors.New("boom")}, // repeats: last result sticks
	}}
	st := &memStore{}
	New(ctx, runner, st, fastConfig(), log)

	waitFor(t, func() bool {
		_, meta, _ := st.snapshot()
		return meta.ConsecutiveFailures >= 5
	})

	alerts := 0
	for _, msg := range log.ErrorCalls() {
		if strings.HasPrefix(msg, "ALERT:") {
			alerts++
		}
	}
	if alerts != 1 {
		t.Fatalf("alert fired %d times, want exactly once per episode", alerts)
	}
}

func TestScheduler_RecoveryResetsFailuresAndRearmsAlert(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.NewMockLogger()
	runner := &fakeRunner{}
	runner.results = []refresher.Result{
		{Err: errors.New("fail-1")},
		{Err: errors.New("fail-2")},
		{Err: errors.New("fail-3")},
		goodResult(),
	}
	st := &memStore{}
	New(ctx, runner, st, fastConfig(), log)

	waitFor(t, func() bool {
		_, meta, _ := st.snapshot()
		return meta.RefreshCount >= 1
	})

	_, meta, _ := st.snapshot()
	if meta.ConsecutiveFailures != 0 {
		t.Errorf("success must reset the failure count, got %d", meta.ConsecutiveFailures)
	}
}

func TestScheduler_ImportReplacesJar(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{results: []refresher.Result{goodResult()}}
	st := &memStore{}
	s := New(ctx, runner, st, testConfig(), logger.NewNopLogger())

	imported := cookie.JarOf([]cookie.Cookie{
		{Name: "SID", Value: "imported", Domain: ".youtube.com", Path: "/"},
		{Name: "HSID", Value: "imported", Domain: ".youtube.com", Path: "/"},
	})
	if err := s.ImportJar(imported); err != nil {
		t.Fatalf("ImportJar: %v", err)
	}

	jar, meta, _ := st.snapshot()
	if jar.Len() != 2 {
		t.Fatalf("imported jar not persisted: %d cookies", jar.Len())
	}
	if meta.LastImportAt.IsZero() {
		t.Error("import timestamp not recorded")
	}

	status, _ := s.Status()
	if status.CookieCount != 2 {
		t.Errorf("status cookie count = %d, want 2", status.CookieCount)
	}
}

func TestScheduler_StopWaitsForInFlightRefresh(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	gate := make(chan struct{})
	runner := &fakeRunner{gate: gate, results: []refresher.Result{goodResult()}}
	s := New(ctx, runner, &memStore{}, testConfig(), logger.NewNopLogger())

	if err := s.TriggerManual(); err != nil {
		t.Fatalf("TriggerManual: %v", err)
	}
	waitFor(t, func() bool { return atomic.LoadInt32(&runner.inFlight) == 1 })

	cancel() // worker unblocks via ctx.Done inside the gate wait

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	if atomic.LoadInt32(&runner.inFlight) != 0 {
		t.Error("worker still in flight after Done")
	}

	if err := s.TriggerManual(); !errors.Is(err, ErrStopped) {
		t.Errorf("trigger after stop = %v, want ErrStopped", err)
	}
}

func TestScheduler_AbortedRefreshRecordedAsFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	gate := make(chan struct{})
	defer close(gate)
	runner := &fakeRunner{gate: gate, results: []refresher.Result{
		{Err: errors.New("context canceled")},
	}}
	st := &memStore{}
	s := New(ctx, runner, st, testConfig(), logger.NewNopLogger())

	if err := s.TriggerManual(); err != nil {
		t.Fatalf("TriggerManual: %v", err)
	}
	waitFor(t, func() bool { return atomic.LoadInt32(&runner.inFlight) == 1 })

	cancel()

	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}

	_, meta, _ := st.snapshot()
	if meta.ConsecutiveFailures < 1 {
		t.Fatalf("aborted in-flight refresh not counted: consecutive_failures = %d, want >= 1",
			meta.ConsecutiveFailures)
	}
}
