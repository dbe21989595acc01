package store

import "time"

// Metadata tracks the refresh history persisted alongside the jar.
// It is created empty on first run and mutated only through the Record
// helpers, called by the scheduler after each attempt and by the CLI
// import path.
type Metadata struct {
	LastRefreshedAt     time.Time `json:"last_refreshed_at,omitempty"`
	LastImportAt        time.Time `json:"last_import_at,omitempty"`
	RefreshCount        int       `json:"refresh_count"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

// RecordRefresh marks a successful refresh: bumps the counter, stamps the
// time and resets the failure streak.
func (m *Metadata) RecordRefresh(now time.Time) {
	m.LastRefreshedAt = now
	m.RefreshCount++
	m.ConsecutiveFailures = 0
}

// RecordFailure advances the consecutive-failure streak.
func (m *Metadata) RecordFailure() {
	m.ConsecutiveFailures++
}

// RecordImport stamps a manual import.
func (m *Metadata) RecordImport(now time.Time) {
	m.LastImportAt = now
}
