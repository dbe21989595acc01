package browser

import (
	"testing"
	"time"

	"github.com/go-rod/rod/lib/proto"

	"github.com/warmjar/warmjar/internal/cookie"
)

func TestToCookieParam(t *testing.T) {
	exp := time.Date(2027, 1, 2, 3, 4, 5, 0, time.UTC)
	p := toCookieParam(cookie.Cookie{
		Name:     "SID",
		Value:    "v",
		Domain:   ".youtube.com",
		Path:     "/",
		Expires:  exp,
		Secure:   true,
		HttpOnly: true,
		SameSite: "Lax",
	})
	if p.Name != "SID" || p.Domain != ".youtube.com" || !p.Secure || !p.HTTPOnly {
		t.Fatalf("unexpected param: %+v", p)
	}
	if int64(p.Expires) != exp.Unix() {
		t.Errorf("Expires = %v, want %d", p.Expires, exp.Unix())
	}
	if p.SameSite != proto.NetworkCookieSameSiteLax {
		t.Errorf("SameSite = %q, want Lax", p.SameSite)
	}
}

func TestToCookieParam_SessionCookieOmitsExpires(t *testing.T) {
	p := toCookieParam(cookie.Cookie{Name: "YSC", Value: "v", Domain: ".youtube.com", Path: "/"})
	if p.Expires != 0 {
		t.Errorf("session cookie Expires = %v, want zero", p.Expires)
	}
}

func TestFromNetworkCookie(t *testing.T) {
	c := fromNetworkCookie(&proto.NetworkCookie{
		Name:     "HSID",
		Value:    "v",
		Domain:   ".youtube.com",
		Path:     "/",
		Expires:  1800000000,
		HTTPOnly: true,
		SameSite: proto.NetworkCookieSameSiteStrict,
	})
	if c.Name != "HSID" || !c.HttpOnly || c.SameSite != "Strict" {
		t.Fatalf("unexpected cookie: %+v", c)
	}
	if c.Expires.Unix() != 1800000000 {
		t.Errorf("Expires = %v", c.Expires)
	}
}

func TestFromNetworkCookie_SessionExpiry(t *testing.T) {
	c := fromNetworkCookie(&proto.NetworkCookie{Name: "YSC", Domain: ".youtube.com", Path: "/", Expires: -1})
	if !c.Expires.IsZero() {
		t.Errorf("Expires = %v, want zero for session cookie", c.Expires)
	}
}

func TestToSameSite(t *testing.T) {
	cases := map[string]proto.NetworkCookieSameSite{
		"Strict": proto.NetworkCookieSameSiteStrict,
		"lax":    proto.NetworkCookieSameSiteLax,
		"None":   proto.NetworkCookieSameSiteNone,
		"":       "",
		"bogus":  "",
	}
	for in, want := range cases {
		if got := toSameSite(in); got != want {
			t.Errorf("toSameSite(%q) = %q, want %q", in, got, want)
		}
	}
}
