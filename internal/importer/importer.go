package importer

import (
	"errors"
	"fmt"
	"time"

	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/pkg/logger"
)

var (
	// ErrUnknownFormat is returned when the buffer matches no known
	// cookie export format.
	ErrUnknownFormat = errors.New("importer: unknown cookie file format")

	// ErrNoValidCookies is returned when parsing succeeded structurally
	// but every record was dropped.
	ErrNoValidCookies = errors.New("importer: no valid cookies in file")
)

// Parse turns a cookie export buffer into a jar. FormatUnknown means
// auto-detect. Records missing name or domain are dropped with a warning;
// an empty result is ErrNoValidCookies.
func Parse(data []byte, format Format, log logger.Logger) (*cookie.Jar, error) {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if format == FormatUnknown {
		format = DetectFormat(data)
	}

	var cookies []cookie.Cookie
	switch format {
	case FormatNetscape:
		cookies = parseNetscape(data, log)
	case FormatJSON:
		cookies = parseJSON(data, log)
	default:
		return nil, ErrUnknownFormat
	}

	if len(cookies) == 0 {
		return nil, ErrNoValidCookies
	}
	return cookie.JarOf(cookies), nil
}

// ValidationReport lists the actionable problems with an imported jar.
type ValidationReport struct {
	// Missing are required cookie names absent from the jar.
	Missing []string
	// Expired are required cookie names present but already expired.
	Expired []string
}

// OK reports whether the jar passed validation.
func (r ValidationReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Expired) == 0
}

// String renders the report as a one-line CLI diagnostic.
func (r ValidationReport) String() string {
	if r.OK() {
		return "all required cookies present"
	}
	s := ""
	if len(r.Missing) > 0 {
		s += fmt.Sprintf("missing: %v", r.Missing)
	}
	if len(r.Expired) > 0 {
		if s != "" {
			s += "; "
		}
		s += fmt.Sprintf("expired: %v", r.Expired)
	}
	return s
}

// Validate checks that the platform's required cookie names are present
// and not already expired at import time. It returns diagnostics, not a
// boolean, so the CLI can tell the operator what to fix.
func Validate(jar *cookie.Jar, required []string, now time.Time) ValidationReport {
	missing, expired := jar.ByName(required, now)
	return ValidationReport{Missing: missing, Expired: expired}
}
