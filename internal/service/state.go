package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const stateFile = "state.json"

// State identifies the running daemon. The CLI reads it when the RPC
// transport is unreachable.
type State struct {
	PID       int       `json:"pid"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
}

func statePath(dir string) string {
	return filepath.Join(dir, stateFile)
}

func writeState(dir, version string) error {
	b, err := json.MarshalIndent(State{
		PID:       os.Getpid(),
		Version:   version,
		StartedAt: time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(statePath(dir), b, 0o600)
}

func removeState(dir string) {
	_ = os.Remove(statePath(dir))
}

// ReadState returns the persisted daemon identity, or an error when no
// daemon has written one.
func ReadState(dir string) (*State, error) {
	b, err := os.ReadFile(statePath(dir))
	if err != nil {
		return nil, err
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return nil, err
	}
	return &st, nil
}
