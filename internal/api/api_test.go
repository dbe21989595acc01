package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/warmjar/warmjar/common"
	"github.com/warmjar/warmjar/internal/backoff"
	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/internal/refresher"
	"github.com/warmjar/warmjar/internal/scheduler"
	"github.com/warmjar/warmjar/internal/store"
	"github.com/warmjar/warmjar/pkg/logger"
)

type stubRunner struct{}

func (stubRunner) Refresh(ctx context.Context, seed *cookie.Jar) refresher.Result {
	return refresher.Result{
		Jar: cookie.JarOf([]cookie.Cookie{
			{Name: "SID", Value: "fresh", Domain: ".youtube.com", Path: "/", Expires: time.Now().Add(24 * time.Hour)},
		}),
		FinishedAt: time.Now(),
	}
}

func newTestApi(t *testing.T) (*Api, *store.Store) {
	t.Helper()
	st, err := store.New("/state", logger.NewNopLogger(), store.WithFs(afero.NewMemMapFs()))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	sched := scheduler.New(ctx, stubRunner{}, st, scheduler.Config{
		Interval: time.Hour,
		Policy:   backoff.New(0, 0, 0),
	}, logger.NewNopLogger())

	// The scheduler starts idle; trigger a refresh and let it land so
	// handlers see stable state.
	if err := sched.TriggerManual(); err != nil {
		t.Fatalf("TriggerManual: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if s, err := sched.Status(); err == nil && s.RefreshCount > 0 && !s.Busy {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	return NewApi(logger.NewNopLogger(), sched, st, []string{"SID"}, "test", func() {}), st
}

func TestStatusHandler(t *testing.T) {
	a, _ := newTestApi(t)

	method, msg, err := a.statusHandler(nil, nil)
	if err != nil {
		t.Fatalf("statusHandler: %v", err)
	}
	if method != common.METHOD_STATUS {
		t.Errorf("method = %s", method)
	}
	res, ok := msg.(*common.StatusResponse)
	if !ok {
		t.Fatalf("message type %T", msg)
	}
	if res.RefreshCount != 1 || res.CookieCount != 1 {
		t.Errorf("status = %+v", res)
	}
	if res.PID == 0 || res.Version != "test" {
		t.Errorf("identity fields = %+v", res)
	}
}

func TestImportHandler(t *testing.T) {
	a, st := newTestApi(t)

	netscape := "# Netscape HTTP Cookie File\n" +
		".youtube.com\tTRUE\t/\tTRUE\t0\tSID\timported-sid\n" +
		".youtube.com\tTRUE\t/\tTRUE\t0\tHSID\timported-hsid\n"
	body, _ := json.Marshal(common.ImportParams{Data: []byte(netscape)})

	method, msg, err := a.importHandler(nil, body)
	if err != nil {
		t.Fatalf("importHandler: %v", err)
	}
	if method != common.METHOD_IMPORT {
		t.Errorf("method = %s", method)
	}
	res := msg.(*common.ImportResponse)
	if res.Imported != 2 {
		t.Errorf("imported = %d, want 2", res.Imported)
	}

	jar, _, err := st.Load()
	if err != nil {
		t.Fatalf("Load after import: %v", err)
	}
	c, ok := jar.Get(cookie.Key{Domain: ".youtube.com", Name: "SID", Path: "/"})
	if !ok || c.Value != "imported-sid" {
		t.Errorf("imported cookie not persisted: %+v", c)
	}
}

func TestImportHandler_RejectsEmptyAndGarbage(t *testing.T) {
	a, _ := newTestApi(t)

	body, _ := json.Marshal(common.ImportParams{})
	if _, _, err := a.importHandler(nil, body); err == nil {
		t.Error("empty import should fail")
	}

	body, _ = json.Marshal(common.ImportParams{Data: []byte("complete garbage")})
	if _, _, err := a.importHandler(nil, body); err == nil {
		t.Error("unparseable import should fail")
	}
}

func TestExportHandler(t *testing.T) {
	a, _ := newTestApi(t)

	_, msg, err := a.exportHandler(nil, nil)
	if err != nil {
		t.Fatalf("exportHandler: %v", err)
	}
	res := msg.(*common.ExportResponse)
	if len(res.Flat) == 0 {
		t.Fatal("export should carry the flat serialization")
	}
}
