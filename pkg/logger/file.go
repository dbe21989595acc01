package logger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// FileLogger appends log lines to a file. Used by the daemon when
// detached from a terminal; the file is opened in append mode so
// restarts preserve the failure history.
type FileLogger struct {
	mu     sync.Mutex
	f      *os.File
	logger *log.Logger
	closed bool
}

// NewFileLogger opens (or creates) the log file at path, creating
// parent directories as needed.
func NewFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("logger: cannot create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logger: cannot open log file %s: %w", path, err)
	}
	return &FileLogger{
		f:      f,
		logger: log.New(f, "", log.LstdFlags),
	}, nil
}

func (l *FileLogger) printf(prefix, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.logger.Printf(prefix+format, args...)
}

// Info logs with an [INFO] prefix.
func (l *FileLogger) Info(format string, args ...interface{}) {
	l.printf("[INFO] ", format, args)
}

// Warning logs with a [WARNING] prefix.
func (l *FileLogger) Warning(format string, args ...interface{}) {
	l.printf("[WARNING] ", format, args)
}

// Error logs with an [ERROR] prefix.
func (l *FileLogger) Error(format string, args ...interface{}) {
	l.printf("[ERROR] ", format, args)
}

// Close flushes and closes the log file. Safe to call multiple times.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if err := l.f.Sync(); err != nil {
		_ = l.f.Close()
		return err
	}
	return l.f.Close()
}

var _ Logger = (*FileLogger)(nil)
