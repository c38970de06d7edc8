// Package applog implements the engine's Logger: an in-memory record
// buffer that is prepended to a line-oriented log file on exit, mirrored
// live to the console via zerolog (spec.md §4, "Logger").
package applog

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog/log"
)

// Kind is the closed set of record kinds the engine emits.
type Kind string

const (
	KindFinish Kind = "Finish"
	KindError  Kind = "Error"
	KindRemove Kind = "Remove"
)

// Record is one buffered log line.
type Record struct {
	Time time.Time
	Kind Kind
	Line string
}

// Logger buffers records in memory for the duration of one run and
// prepends them to the log file on Flush.
type Logger struct {
	mu      sync.Mutex
	records []Record
}

// New returns an empty Logger.
func New() *Logger {
	return &Logger{}
}

func (l *Logger) append(kind Kind, line string) {
	rec := Record{Time: time.Now(), Kind: kind, Line: line}
	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()
}

// Finish records a successful placement of name into logdir.
func (l *Logger) Finish(logdir, name string) {
	line := fmt.Sprintf("%s: %s", logdir, name)
	l.append(KindFinish, line)
	log.Info().Str("logdir", logdir).Str("name", name).Msg("finish")
}

// Error records a failure affecting a single torrent.
func (l *Logger) Error(name string, cause error) {
	line := fmt.Sprintf("%s: %v", name, cause)
	l.append(KindError, line)
	log.Error().Str("name", name).Err(cause).Msg("error")
}

// Remove records a quota-driven eviction of name, sized size bytes.
func (l *Logger) Remove(name string, size int64) {
	line := fmt.Sprintf("%s (%s)", name, units.BytesSize(float64(size)))
	l.append(KindRemove, line)
	log.Info().Str("name", name).Int64("size", size).Msg("remove")
}

// Flush prepends the buffered records to path, one line per record,
// formatted "TIMESTAMP KIND: line". Existing file contents are preserved
// below the new records. A missing file is treated as an empty one.
func (l *Logger) Flush(path string) error {
	l.mu.Lock()
	records := l.records
	l.mu.Unlock()
	if len(records) == 0 {
		return nil
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("applog: read %q: %w", path, err)
	}

	tmp, err := os.CreateTemp(dirOf(path), "seedcurator-log-*")
	if err != nil {
		return fmt.Errorf("applog: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, r := range records {
		fmt.Fprintf(w, "%s %s: %s\n", r.Time.Format(time.RFC3339), r.Kind, r.Line)
	}
	if _, err := w.Write(existing); err != nil {
		tmp.Close()
		return fmt.Errorf("applog: write %q: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("applog: flush %q: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("applog: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("applog: rename into %q: %w", path, err)
	}
	return nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
