// Package store owns on-disk persistence of the cookie jar and its
// metadata. Every save writes two views of the same jar: the structured
// JSON file the daemon reads back, and the flat Netscape-format interop
// file the downstream subtitle fetcher consumes. Writes are atomic
// (temp file, fsync, rename) so readers never observe a partial state.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/pkg/logger"
)

// File names under the store directory.
const (
	StructuredFile = "jar.json"
	FlatFile       = "cookies.txt"
)

var (
	// ErrCorrupt means the structured file exists but cannot be parsed.
	// Load quarantines the corrupt file and returns an empty jar together
	// with this error, so the caller can log it and keep running.
	ErrCorrupt = errors.New("store: structured cookie file is corrupt")

	// ErrSave wraps disk write failures. The previous files are left
	// untouched because of the atomic rename.
	ErrSave = errors.New("store: failed to persist cookie jar")
)

// persisted is the on-disk shape of the structured file.
type persisted struct {
	Version  int             `json:"version"`
	Metadata Metadata        `json:"metadata"`
	Cookies  []cookie.Cookie `json:"cookies"`
}

const formatVersion = 1

// Store persists the jar and metadata under a single directory.
type Store struct {
	fs     afero.Fs
	dir    string
	log    logger.Logger
	cipher *valueCipher // nil when at-rest encryption is disabled
}

// Option configures a Store.
type Option func(*Store)

// WithFs overrides the filesystem, used by tests with an in-memory fs.
func WithFs(fs afero.Fs) Option {
	return func(s *Store) { s.fs = fs }
}

// WithEncryption enables at-rest encryption of cookie values in the
// structured file with the given key. The flat interop file stays
// plaintext — the downstream consumer cannot decrypt.
func WithEncryption(key []byte) Option {
	return func(s *Store) { s.cipher = newValueCipher(key) }
}

// New creates a store rooted at dir, creating the directory if needed.
func New(dir string, log logger.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	s := &Store{fs: afero.NewOsFs(), dir: dir, log: log}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.fs.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("store: cannot create directory %s: %w", dir, err)
	}
	return s, nil
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) structuredPath() string {
	return filepath.Join(s.dir, StructuredFile)
}

func (s *Store) flatPath() string {
	return filepath.Join(s.dir, FlatFile)
}

// Load reads the structured file. A missing file yields an empty jar with
// zeroed metadata and no error. A file that exists but cannot be parsed
// is quarantined (renamed aside with a timestamp suffix) and an empty jar
// is returned together with ErrCorrupt, so the service can keep running
// and the operator can inspect the quarantined file.
func (s *Store) Load() (*cookie.Jar, Metadata, error) {
	data, err := afero.ReadFile(s.fs, s.structuredPath())
	if err != nil {
		if errors.Is(err, afero.ErrFileNotFound) || isNotExist(err) {
			return cookie.NewJar(), Metadata{}, nil
		}
		return nil, Metadata{}, fmt.Errorf("store: cannot read %s: %w", s.structuredPath(), err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		s.quarantine(err)
		return cookie.NewJar(), Metadata{}, ErrCorrupt
	}

	if s.cipher != nil {
		for i := range p.Cookies {
			v, err := s.cipher.decrypt(p.Cookies[i].Value)
			if err != nil {
				s.quarantine(err)
				return cookie.NewJar(), Metadata{}, ErrCorrupt
			}
			p.Cookies[i].Value = v
		}
	}

	return cookie.JarOf(p.Cookies), p.Metadata, nil
}

// quarantine renames the unreadable structured file aside so the next
// save starts fresh while preserving the bad bytes for inspection.
func (s *Store) quarantine(cause error) {
	dst := fmt.Sprintf("%s.corrupt-%d", s.structuredPath(), time.Now().Unix())
	if err := s.fs.Rename(s.structuredPath(), dst); err != nil {
		s.log.Error("store: failed to quarantine corrupt file: %v", err)
		return
	}
	s.log.Error("store: quarantined corrupt cookie file to %s: %v", dst, cause)
}

// Save persists the jar and metadata: the structured file and the derived
// flat interop file, each written to a temp file, fsynced and renamed into
// place. The structured file is written first; a failure at any point
// leaves the previous on-disk state untouched and returns an error
// wrapping ErrSave.
func (s *Store) Save(jar *cookie.Jar, meta Metadata) error {
	cookies := jar.Sorted()

	if s.cipher != nil {
		enc := make([]cookie.Cookie, len(cookies))
		copy(enc, cookies)
		for i := range enc {
			v, err := s.cipher.encrypt(enc[i].Value)
			if err != nil {
				return fmt.Errorf("%w: encrypt: %v", ErrSave, err)
			}
			enc[i].Value = v
		}
		cookies = enc
	}

	structured, err := json.MarshalIndent(persisted{
		Version:  formatVersion,
		Metadata: meta,
		Cookies:  cookies,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrSave, err)
	}

	if err := s.writeAtomic(s.structuredPath(), structured, 0o600); err != nil {
		return err
	}
	// Flat view always serializes the plaintext jar.
	if err := s.writeAtomic(s.flatPath(), ExportFlat(jar), 0o600); err != nil {
		return err
	}
	return nil
}

// ExportFlatBytes returns the deterministic flat serialization of the
// currently persisted jar.
func (s *Store) ExportFlatBytes() ([]byte, error) {
	jar, _, err := s.Load()
	if err != nil {
		return nil, err
	}
	return ExportFlat(jar), nil
}

// writeAtomic writes data to path via temp file + fsync + rename.
func (s *Store) writeAtomic(path string, data []byte, perm uint32) error {
	tmp := path + ".tmp"
	f, err := s.fs.OpenFile(tmp, writeFlags, fileMode(perm))
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrSave, tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("%w: write %s: %v", ErrSave, tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("%w: fsync %s: %v", ErrSave, tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("%w: close %s: %v", ErrSave, tmp, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", ErrSave, path, err)
	}
	return nil
}
