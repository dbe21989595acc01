// Package importer turns externally exported cookie files into the
// canonical in-memory jar. It performs no I/O of its own beyond consuming
// the byte buffer handed to it by the CLI boundary, except for the
// browser-profile import path which reads a copied SQLite database.
package importer

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
)

// Format identifies a cookie export format.
type Format int

const (
	// FormatUnknown means the buffer matched no known format.
	FormatUnknown Format = iota
	// FormatNetscape is the tab-separated 7-field text format.
	FormatNetscape
	// FormatJSON is a JSON array of cookie objects, or an object wrapping
	// such an array under a "cookies" key.
	FormatJSON
)

// String returns the CLI-facing name of the format.
func (f Format) String() string {
	switch f {
	case FormatNetscape:
		return "netscape"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ParseFormat maps a CLI --format value to a Format.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "netscape":
		return FormatNetscape
	case "json":
		return FormatJSON
	default:
		return FormatUnknown
	}
}

// netscapeHeaders are the comment lines identifying the Netscape format.
var netscapeHeaders = []string{
	"# Netscape HTTP Cookie File",
	"# HTTP Cookie File",
}

// DetectFormat inspects the buffer and returns the detected format.
// Heuristic: a Netscape header comment or any tab-delimited 7-field line
// means Netscape; a valid JSON array/object of cookie-shaped records means
// JSON; anything else is Unknown.
func DetectFormat(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return FormatUnknown
	}

	if trimmed[0] == '[' || trimmed[0] == '{' {
		if looksLikeCookieJSON(trimmed) {
			return FormatJSON
		}
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		for _, h := range netscapeHeaders {
			if line == h {
				return FormatNetscape
			}
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(strings.Split(line, "\t")) == netscapeFieldCount {
			return FormatNetscape
		}
	}
	return FormatUnknown
}

// looksLikeCookieJSON reports whether the buffer is valid JSON shaped like
// cookie records: an array of objects carrying name/domain fields, or an
// object with such an array under "cookies".
func looksLikeCookieJSON(data []byte) bool {
	if !gjson.ValidBytes(data) {
		return false
	}
	root := gjson.ParseBytes(data)
	arr := root
	if root.IsObject() {
		arr = root.Get("cookies")
	}
	if !arr.IsArray() {
		return false
	}
	records := arr.Array()
	if len(records) == 0 {
		// An empty list is still recognizably JSON.
		return true
	}
	first := records[0]
	return first.IsObject() && first.Get("name").Exists()
}
