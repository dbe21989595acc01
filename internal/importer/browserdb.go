package importer

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/warmjar/warmjar/internal/cookie"
)

// sqliteMagic is the first 16 bytes of any SQLite database file.
var sqliteMagic = []byte("SQLite format 3\x00")

// chromeEpochOffsetSeconds is the number of seconds between the Windows NT
// epoch (1601-01-01) and the Unix epoch (1970-01-01). Chrome stores cookie
// expiry as microseconds since the NT epoch.
const chromeEpochOffsetSeconds int64 = 11_644_473_600

func chromeToUnix(chromeUSec int64) int64 {
	return (chromeUSec / 1_000_000) - chromeEpochOffsetSeconds
}

// ImportBrowserProfile reads cookies for the given domain directly from a
// browser profile cookie database (Chrome "Cookies" or Firefox
// "cookies.sqlite"). The database is copied to a temp directory first so
// a running browser's lock never blocks the import. Only unencrypted
// Chrome cookie values are usable.
func ImportBrowserProfile(path, domain string) ([]cookie.Cookie, error) {
	header, err := readHeader(path)
	if err != nil {
		return nil, err
	}
	if string(header) != string(sqliteMagic) {
		return nil, fmt.Errorf("importer: %s is not a browser cookie database", path)
	}

	tempDir, cleanup, err := safeCopy(path)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	copied := filepath.Join(tempDir, filepath.Base(path))

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?immutable=1", copied))
	if err != nil {
		return nil, fmt.Errorf("importer: cannot open cookie database: %w", err)
	}
	defer db.Close()

	switch {
	case tableExists(db, "moz_cookies"):
		return queryFirefox(db, domain)
	case tableExists(db, "cookies"):
		return queryChrome(db, domain)
	default:
		return nil, fmt.Errorf("importer: unsupported cookie database schema at %s", path)
	}
}

func readHeader(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("importer: cannot open %s: %w", path, err)
	}
	defer f.Close()
	header := make([]byte, 16)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("importer: cannot read %s: %w", path, err)
	}
	return header, nil
}

func tableExists(db *sql.DB, name string) bool {
	var found string
	err := db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, name,
	).Scan(&found)
	return err == nil
}

func queryFirefox(db *sql.DB, domain string) ([]cookie.Cookie, error) {
	rows, err := db.Query(`
        SELECT name, value, host, path, expiry, isSecure, isHttpOnly
        FROM moz_cookies
        WHERE (host = ? OR host = ? OR host LIKE ?)
        ORDER BY path DESC, name ASC
    `, domain, "."+domain, "%."+domain)
	if err != nil {
		return nil, fmt.Errorf("importer: failed to query Firefox cookies: %w", err)
	}
	defer rows.Close()

	var cookies []cookie.Cookie
	for rows.Next() {
		var (
			name, value, host, path string
			expiry                  int64
			isSecure, isHttpOnly    int
		)
		if err := rows.Scan(&name, &value, &host, &path, &expiry, &isSecure, &isHttpOnly); err != nil {
			return nil, fmt.Errorf("importer: failed to scan Firefox cookie row: %w", err)
		}
		c := cookie.Cookie{
			Name:     name,
			Value:    value,
			Domain:   host,
			Path:     path,
			Secure:   isSecure != 0,
			HttpOnly: isHttpOnly != 0,
		}
		if expiry > 0 {
			c.Expires = time.Unix(expiry, 0)
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

func queryChrome(db *sql.DB, domain string) ([]cookie.Cookie, error) {
	rows, err := db.Query(`
        SELECT name, value, host_key, path, expires_utc, is_secure, is_httponly
        FROM cookies
        WHERE (host_key = ? OR host_key = ? OR host_key LIKE ?)
          AND value != ''
        ORDER BY path DESC, name ASC
    `, domain, "."+domain, "%."+domain)
	if err != nil {
		return nil, fmt.Errorf("importer: failed to query Chrome cookies: %w", err)
	}
	defer rows.Close()

	var cookies []cookie.Cookie
	for rows.Next() {
		var (
			name, value, hostKey, path string
			expiresUTC                 int64
			isSecure, isHttpOnly       int
		)
		if err := rows.Scan(&name, &value, &hostKey, &path, &expiresUTC, &isSecure, &isHttpOnly); err != nil {
			return nil, fmt.Errorf("importer: failed to scan Chrome cookie row: %w", err)
		}
		c := cookie.Cookie{
			Name:     name,
			Value:    value,
			Domain:   hostKey,
			Path:     path,
			Secure:   isSecure != 0,
			HttpOnly: isHttpOnly != 0,
		}
		if expiresUTC > 0 {
			c.Expires = time.Unix(chromeToUnix(expiresUTC), 0)
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// safeCopy copies the database (and its -wal/-shm companions if present)
// to a temp directory. The caller must call cleanup when done.
func safeCopy(srcPath string) (tempDir string, cleanup func(), err error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return "", nil, fmt.Errorf("importer: cookie database not found: %s", srcPath)
	}
	if info.IsDir() || info.Size() == 0 {
		return "", nil, fmt.Errorf("importer: %s is not a usable cookie database", srcPath)
	}

	tempDir, err = os.MkdirTemp("", "warmjar-import-*")
	if err != nil {
		return "", nil, fmt.Errorf("importer: cannot create temp directory: %w", err)
	}
	cleanup = func() { os.RemoveAll(tempDir) }

	baseName := filepath.Base(srcPath)
	if err := copyFile(srcPath, filepath.Join(tempDir, baseName)); err != nil {
		cleanup()
		return "", nil, err
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		companion := srcPath + suffix
		if _, err := os.Stat(companion); err == nil {
			_ = copyFile(companion, filepath.Join(tempDir, baseName+suffix))
		}
	}
	return tempDir, cleanup, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("importer: cannot open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("importer: cannot create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("importer: cannot copy file: %w", err)
	}
	return nil
}
