package refresher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/pkg/logger"
)

// errOffPlatform marks a redirect that left the platform's registered
// domain, which for the probe URL means the session was bounced to a
// login page on an accounts domain.
var errOffPlatform = errors.New("redirected off the platform domain")

// HTTPProber validates a jar by requesting a protected resource with
// the jar's cookies attached. Success is a 2xx response without being
// redirected off the platform's registered domain.
type HTTPProber struct {
	probeURL string
	timeout  time.Duration
	log      logger.Logger

	// transport is swappable for tests.
	transport http.RoundTripper
}

// NewHTTPProber creates a prober against the given protected URL.
func NewHTTPProber(probeURL string, timeout time.Duration, log logger.Logger) *HTTPProber {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &HTTPProber{probeURL: probeURL, timeout: timeout, log: log}
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context, jar *cookie.Jar) error {
	target, err := url.Parse(p.probeURL)
	if err != nil {
		return fmt.Errorf("probe: bad url %q: %w", p.probeURL, err)
	}
	platformDomain := registeredDomain(target.Hostname())

	cj, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("probe: cookie jar: %w", err)
	}
	seedClientJar(cj, jar)

	client := &http.Client{
		Jar:       cj,
		Timeout:   p.timeout,
		Transport: p.transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if registeredDomain(req.URL.Hostname()) != platformDomain {
				return errOffPlatform
			}
			if len(via) >= 10 {
				return errors.New("too many redirects")
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.probeURL, nil)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, errOffPlatform) {
			return errOffPlatform
		}
		return fmt.Errorf("probe: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("probe: unexpected status %d", resp.StatusCode)
	}
	p.log.Info("probe: %s answered %d, session is live", p.probeURL, resp.StatusCode)
	return nil
}

// registeredDomain returns the eTLD+1 for host, or host itself when no
// registrable domain exists (IP addresses, localhost).
func registeredDomain(host string) string {
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// seedClientJar loads the jar's cookies into a net/http cookie jar,
// keyed by each cookie's own domain.
func seedClientJar(cj http.CookieJar, jar *cookie.Jar) {
	byHost := make(map[string][]*http.Cookie)
	for _, c := range jar.Cookies() {
		host := strings.TrimPrefix(c.Domain, ".")
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		// Leading-dot domains become Domain attributes; bare hosts stay
		// host cookies so IP-address domains round-trip through the jar.
		if c.IncludeSubdomains() {
			hc.Domain = c.Domain
		}
		if !c.Expires.IsZero() {
			hc.Expires = c.Expires
		}
		byHost[host] = append(byHost[host], hc)
	}
	for host, cookies := range byHost {
		u := &url.URL{Scheme: "https", Host: host, Path: "/"}
		cj.SetCookies(u, cookies)
	}
}
