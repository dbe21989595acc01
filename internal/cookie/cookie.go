// Package cookie defines the in-memory model for authentication cookies
// handled by warmjar: single cookies, the deduplicated jar, and expiry
// helpers shared by the store, importer and refresher.
package cookie

import (
	"strings"
	"time"
)

// Cookie represents a single HTTP authentication cookie.
// Cookie values are sensitive — they must never be logged at any level or
// formatted into error messages. Only Name and Domain may appear in logs.
type Cookie struct {
	// Name is the cookie name.
	Name string `json:"name"`
	// Value is the cookie value. SENSITIVE — never log.
	Value string `json:"value"`
	// Domain is the cookie domain (may have a leading dot for
	// subdomain-inclusive cookies).
	Domain string `json:"domain"`
	// Path is the cookie path scope.
	Path string `json:"path"`
	// Expires is the absolute expiry time. The zero value means a session
	// cookie with no explicit expiry.
	Expires time.Time `json:"expires,omitempty"`
	// Secure indicates the cookie should only be sent over HTTPS.
	Secure bool `json:"secure"`
	// HttpOnly indicates the cookie is not accessible via JavaScript.
	HttpOnly bool `json:"http_only"`
	// SameSite holds the raw SameSite attribute ("Strict", "Lax", "None"
	// or empty when the attribute is absent).
	SameSite string `json:"same_site,omitempty"`
}

// Key identifies a cookie inside a jar. Two cookies with the same key
// replace each other on import or refresh.
type Key struct {
	Domain string
	Name   string
	Path   string
}

// Key returns the jar identity of the cookie.
func (c *Cookie) Key() Key {
	return Key{Domain: c.Domain, Name: c.Name, Path: c.Path}
}

// Valid reports whether the cookie carries the minimum required fields.
func (c *Cookie) Valid() bool {
	return c.Name != "" && c.Domain != ""
}

// Expired reports whether the cookie has an explicit expiry in the past.
// Session cookies (zero Expires) never report expired.
func (c *Cookie) Expired(now time.Time) bool {
	return !c.Expires.IsZero() && c.Expires.Before(now)
}

// IncludeSubdomains reports whether the cookie applies to subdomains,
// which in the Netscape interop format is the second field. A leading dot
// on the domain is the conventional marker.
func (c *Cookie) IncludeSubdomains() bool {
	return strings.HasPrefix(c.Domain, ".")
}
