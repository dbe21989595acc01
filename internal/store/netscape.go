package store

import (
	"bytes"
	"fmt"

	"github.com/warmjar/warmjar/internal/cookie"
)

// flatHeader identifies the flat interop file. Downstream tools key off
// the first comment line, so it must stay byte-stable.
const flatHeader = "# Netscape HTTP Cookie File\n# Generated by warmjar. Do not edit while the service is running.\n"

// ExportFlat serializes the jar into the flat interop format: one
// tab-separated line per cookie (domain, includeSubdomains, path, secure,
// expires, name, value), sorted by (domain, name) so repeated exports of
// the same jar are byte-identical.
func ExportFlat(jar *cookie.Jar) []byte {
	var buf bytes.Buffer
	buf.WriteString(flatHeader)
	for _, c := range jar.Sorted() {
		var expiry int64
		if !c.Expires.IsZero() {
			expiry = c.Expires.Unix()
		}
		fmt.Fprintf(&buf, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			c.Domain,
			flatBool(c.IncludeSubdomains()),
			c.Path,
			flatBool(c.Secure),
			expiry,
			c.Name,
			c.Value,
		)
	}
	return buf.Bytes()
}

func flatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
