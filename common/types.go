package common

import "time"

// StatusResponse mirrors the daemon's scheduler state plus identity
// fields for the status command.
type StatusResponse struct {
	PID                 int       `json:"pid"`
	Version             string    `json:"version"`
	StartedAt           time.Time `json:"started_at"`
	Busy                bool      `json:"busy"`
	NextRunAt           time.Time `json:"next_run_at"`
	CookieCount         int       `json:"cookie_count"`
	LastRefreshedAt     time.Time `json:"last_refreshed_at,omitempty"`
	LastImportAt        time.Time `json:"last_import_at,omitempty"`
	RefreshCount        int       `json:"refresh_count"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastError           string    `json:"last_error,omitempty"`
}

// RefreshResponse acknowledges a manual refresh trigger. The refresh
// itself completes asynchronously; poll status for the outcome.
type RefreshResponse struct {
	Triggered bool `json:"triggered"`
}

// ImportParams carries a cookie file to the daemon. Data is the raw
// file content; Format is "netscape", "json" or empty for auto-detect.
type ImportParams struct {
	Data   []byte `json:"data"`
	Format string `json:"format,omitempty"`
}

// ImportResponse reports the result of an import.
type ImportResponse struct {
	Imported int    `json:"imported"`
	Missing  string `json:"missing,omitempty"`
}

// ExportResponse carries the flat Netscape serialization of the
// current jar.
type ExportResponse struct {
	Flat []byte `json:"flat"`
}

// StopResponse acknowledges a shutdown request.
type StopResponse struct {
	Stopping bool `json:"stopping"`
}

// VersionResponse reports the daemon build version.
type VersionResponse struct {
	Version string `json:"version"`
}
