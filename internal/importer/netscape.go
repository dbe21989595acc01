package importer

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/warmjar/warmjar/internal/cookie"
	"github.com/warmjar/warmjar/pkg/logger"
)

// netscapeFieldCount is the number of tab-separated fields per cookie line:
// domain, includeSubdomains, path, secure, expires, name, value.
const netscapeFieldCount = 7

// httpOnlyPrefix marks HttpOnly cookies in files exported by curl/wget
// style tools.
const httpOnlyPrefix = "#HttpOnly_"

// parseNetscape reads cookies from a Netscape-format buffer. Comment and
// blank lines are skipped; malformed lines and records missing name or
// domain are dropped with a warning, never a hard failure. Expired
// records are kept — expiry is a validation concern, not a parse one.
func parseNetscape(data []byte, log logger.Logger) []cookie.Cookie {
	var cookies []cookie.Cookie

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			httpOnly = true
			line = line[len(httpOnlyPrefix):]
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != netscapeFieldCount {
			log.Warning("import: skipping malformed line with %d fields", len(fields))
			continue
		}

		expiry, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			log.Warning("import: skipping cookie %q with invalid expiry %q", fields[5], fields[4])
			continue
		}

		c := cookie.Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HttpOnly: httpOnly,
		}
		if expiry > 0 {
			c.Expires = time.Unix(expiry, 0)
		}
		if !c.Valid() {
			log.Warning("import: dropping record missing name or domain")
			continue
		}
		cookies = append(cookies, c)
	}
	return cookies
}
