package importer

import (
	"time"

	"github.com/tidwall/gjson"

	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/pkg/logger"
)

// parseJSON reads cookies from a JSON buffer: either an array of cookie
// objects or an object carrying the array under "cookies". Field aliases
// from common exporter dialects are accepted (expirationDate/expires,
// httpOnly/http_only, sameSite/same_site). Records missing name or domain
// are dropped with a warning.
func parseJSON(data []byte, log logger.Logger) []cookie.Cookie {
	root := gjson.ParseBytes(data)
	arr := root
	if root.IsObject() {
		arr = root.Get("cookies")
	}
	if !arr.IsArray() {
		return nil
	}

	var cookies []cookie.Cookie
	arr.ForEach(func(_, rec gjson.Result) bool {
		if !rec.IsObject() {
			log.Warning("import: skipping non-object JSON record")
			return true
		}
		c := cookie.Cookie{
			Name:     rec.Get("name").String(),
			Value:    rec.Get("value").String(),
			Domain:   rec.Get("domain").String(),
			Path:     firstString(rec, "path"),
			Secure:   rec.Get("secure").Bool(),
			HttpOnly: firstBool(rec, "httpOnly", "http_only"),
			SameSite: firstString(rec, "sameSite", "same_site"),
		}
		if c.Path == "" {
			c.Path = "/"
		}
		if exp := firstNumber(rec, "expirationDate", "expires", "expiry"); exp > 0 {
			c.Expires = time.Unix(int64(exp), 0)
		}
		if !c.Valid() {
			log.Warning("import: dropping JSON record missing name or domain")
			return true
		}
		cookies = append(cookies, c)
		return true
	})
	return cookies
}

func firstString(rec gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := rec.Get(k); v.Exists() {
			return v.String()
		}
	}
	return ""
}

func firstBool(rec gjson.Result, keys ...string) bool {
	for _, k := range keys {
		if v := rec.Get(k); v.Exists() {
			return v.Bool()
		}
	}
	return false
}

func firstNumber(rec gjson.Result, keys ...string) float64 {
	for _, k := range keys {
		if v := rec.Get(k); v.Exists() {
			return v.Float()
		}
	}
	return 0
}
