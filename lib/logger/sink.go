package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Sink is the io.Writer behind the process logger. It starts on a fallback
// writer (stderr for the CLI) and is pointed at the workspace log file once
// the workspace is known. It doubles as the logger's level: warn while on
// the fallback, the configured level once a file is open.
type Sink struct {
	mu       sync.Mutex
	fallback io.Writer
	file     *os.File
	level    slog.Level
}

var _ slog.Leveler = (*Sink)(nil)

// NewSink creates a sink that writes to fallback until Open is called.
func NewSink(fallback io.Writer) *Sink {
	if fallback == nil {
		fallback = io.Discard
	}
	return &Sink{fallback: fallback, level: slog.LevelInfo}
}

// SetLevel sets the level used once the sink writes to a file.
func (s *Sink) SetLevel(level slog.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = level
}

// Level implements slog.Leveler.
func (s *Sink) Level() slog.Level {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return max(s.level, slog.LevelWarn)
	}
	return s.level
}

// Open redirects all further writes to the file at path, appending.
func (s *Sink) Open(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		s.file.Close()
	}
	s.file = f
	return nil
}

// Path returns the file currently written to, or "" when on the fallback.
func (s *Sink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return ""
	}
	return s.file.Name()
}

func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file != nil {
		return s.file.Write(p)
	}
	return s.fallback.Write(p)
}

// Close closes the log file, if any. Subsequent writes go to the fallback.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
