package store

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/pkg/logger"
)

func memStore(t *testing.T, opts ...Option) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	opts = append([]Option{WithFs(fs)}, opts...)
	s, err := New("/state", logger.NewNopLogger(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, fs
}

func sampleJar() *cookie.Jar {
	future := time.Now().Add(48 * time.Hour)
	return cookie.JarOf([]cookie.Cookie{
		{Name: "SID", Value: "s-val", Domain: ".youtube.com", Path: "/", Secure: true, Expires: future},
		{Name: "HSID", Value: "h-val", Domain: ".youtube.com", Path: "/", HttpOnly: true, Expires: future},
		{Name: "YSC", Value: "y-val", Domain: ".youtube.com", Path: "/"},
	})
}

func TestStore_LoadMissingReturnsEmpty(t *testing.T) {
	s, _ := memStore(t)
	jar, meta, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if jar.Len() != 0 {
		t.Errorf("expected empty jar, got %d cookies", jar.Len())
	}
	if meta.RefreshCount != 0 || !meta.LastRefreshedAt.IsZero() {
		t.Errorf("expected zeroed metadata, got %+v", meta)
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s, fs := memStore(t)
	jar := sampleJar()
	meta := Metadata{}
	meta.RecordRefresh(time.Now())

	if err := s.Save(jar, meta); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Both files exist after one save.
	for _, name := range []string{"/state/jar.json", "/state/cookies.txt"} {
		if ok, _ := afero.Exists(fs, name); !ok {
			t.Errorf("expected %s to exist", name)
		}
	}

	got, gotMeta, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Len() != jar.Len() {
		t.Fatalf("round trip lost cookies: %d != %d", got.Len(), jar.Len())
	}
	if gotMeta.RefreshCount != 1 {
		t.Errorf("metadata round trip: %+v", gotMeta)
	}
	c, ok := got.Get(cookie.Key{Domain: ".youtube.com", Name: "SID", Path: "/"})
	if !ok || c.Value != "s-val" {
		t.Errorf("SID cookie = %+v, ok=%v", c, ok)
	}
}

func TestStore_CorruptFileQuarantined(t *testing.T) {
	s, fs := memStore(t)
	if err := afero.WriteFile(fs, "/state/jar.json", []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	jar, _, err := s.Load()
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	if jar.Len() != 0 {
		t.Error("expected empty jar after corruption")
	}

	// Original moved aside, not deleted.
	if ok, _ := afero.Exists(fs, "/state/jar.json"); ok {
		t.Error("corrupt file should have been renamed away")
	}
	entries, err := afero.ReadDir(fs, "/state")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	found := false
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "jar.json.corrupt-") {
			found = true
		}
	}
	if !found {
		t.Error("expected a quarantined jar.json.corrupt-* file")
	}
}

func TestExportFlat_DeterministicAndSorted(t *testing.T) {
	jar := sampleJar()
	a := ExportFlat(jar)
	b := ExportFlat(jar.Clone())
	if !bytes.Equal(a, b) {
		t.Fatal("flat export must be deterministic")
	}

	lines := strings.Split(strings.TrimSpace(string(a)), "\n")
	if !strings.HasPrefix(lines[0], "# Netscape HTTP Cookie File") {
		t.Fatalf("missing header, first line: %q", lines[0])
	}
	var dataLines []string
	for _, l := range lines {
		if !strings.HasPrefix(l, "#") {
			dataLines = append(dataLines, l)
		}
	}
	if len(dataLines) != 3 {
		t.Fatalf("expected 3 cookie lines, got %d", len(dataLines))
	}
	// Sorted by (domain, name): HSID < SID < YSC.
	for i, want := range []string{"HSID", "SID", "YSC"} {
		fields := strings.Split(dataLines[i], "\t")
		if len(fields) != 7 {
			t.Fatalf("line %d has %d fields: %q", i, len(fields), dataLines[i])
		}
		if fields[5] != want {
			t.Errorf("line %d name = %s, want %s", i, fields[5], want)
		}
	}
	// Session cookie serializes expiry 0.
	last := strings.Split(dataLines[2], "\t")
	if last[4] != "0" {
		t.Errorf("session cookie expiry = %s, want 0", last[4])
	}
}

func TestStore_FlatRoundTripPreservesTriples(t *testing.T) {
	s, fs := memStore(t)
	if err := s.Save(sampleJar(), Metadata{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	flat, err := afero.ReadFile(fs, "/state/cookies.txt")
	if err != nil {
		t.Fatalf("read flat: %v", err)
	}

	// Every (domain, name, value) triple from the jar appears in the file.
	for _, c := range sampleJar().Cookies() {
		needle := c.Domain + "\t"
		if !strings.Contains(string(flat), needle) || !strings.Contains(string(flat), "\t"+c.Name+"\t"+c.Value) {
			t.Errorf("flat export missing triple (%s, %s, %s)", c.Domain, c.Name, c.Value)
		}
	}
}

func TestStore_SaveFailureLeavesOldStateUntouched(t *testing.T) {
	s, fs := memStore(t)
	if err := s.Save(sampleJar(), Metadata{}); err != nil {
		t.Fatalf("initial Save: %v", err)
	}
	before, err := afero.ReadFile(fs, "/state/jar.json")
	if err != nil {
		t.Fatalf("read before: %v", err)
	}

	// Swap in a read-only view so the next save fails at the temp write.
	s.fs = afero.NewReadOnlyFs(fs)
	other := cookie.JarOf([]cookie.Cookie{{Name: "X", Value: "x", Domain: ".evil.com", Path: "/"}})
	err = s.Save(other, Metadata{})
	if !errors.Is(err, ErrSave) {
		t.Fatalf("expected ErrSave, got %v", err)
	}

	after, err := afero.ReadFile(fs, "/state/jar.json")
	if err != nil {
		t.Fatalf("read after: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("failed save must leave the persisted file byte-identical")
	}
}

func TestStore_EncryptionRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	s, fs := memStore(t, WithEncryption(key))

	if err := s.Save(sampleJar(), Metadata{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Structured file must not contain plaintext values.
	raw, _ := afero.ReadFile(fs, "/state/jar.json")
	if strings.Contains(string(raw), "s-val") {
		t.Error("structured file leaks plaintext cookie value")
	}
	// Flat interop file stays plaintext for the downstream consumer.
	flat, _ := afero.ReadFile(fs, "/state/cookies.txt")
	if !strings.Contains(string(flat), "s-val") {
		t.Error("flat file should keep plaintext values")
	}

	jar, _, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, ok := jar.Get(cookie.Key{Domain: ".youtube.com", Name: "SID", Path: "/"})
	if !ok || c.Value != "s-val" {
		t.Errorf("decrypted SID = %+v, ok=%v", c, ok)
	}
}

func TestValueCipher_PlaintextPassthrough(t *testing.T) {
	v := newValueCipher(bytes.Repeat([]byte{1}, 32))
	got, err := v.decrypt("legacy-plaintext")
	if err != nil {
		t.Fatalf("decrypt plaintext: %v", err)
	}
	if got != "legacy-plaintext" {
		t.Errorf("passthrough = %q", got)
	}
}
