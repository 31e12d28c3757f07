package sink

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hugsndnugs/SCKillFeed/internal/event"
	"github.com/hugsndnugs/SCKillFeed/pkg/errors"
)

// Header is the first row of every kill history file.
var Header = []string{"timestamp", "killer", "victim", "weapon"}

// CsvSink appends kill events to a history file. Every append is flushed
// so a crash mid-session loses at most the event being written.
type CsvSink struct {
	mu   sync.Mutex
	path string
	file *os.File
	w    *csv.Writer
}

// NewCsvSink opens the history file at path, creating it and writing the
// header row when it is new or empty.
func NewCsvSink(path string) (*CsvSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G302 G304 // history file, path already probed
	if err != nil {
		return nil, errors.NewCSVError(path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.NewCSVError(path, err)
	}

	s := &CsvSink{path: path, file: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := s.w.Write(Header); err != nil {
			f.Close()
			return nil, errors.NewCSVError(path, err)
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			f.Close()
			return nil, errors.NewCSVError(path, err)
		}
	}
	return s, nil
}

// Append writes one event and flushes it to disk.
func (s *CsvSink) Append(ev event.KillEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return errors.NewCSVError(s.path, os.ErrClosed)
	}
	if err := s.w.Write(ev.CSVRecord()); err != nil {
		return errors.NewCSVError(s.path, err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return errors.NewCSVError(s.path, err)
	}
	return nil
}

// Path returns where the history is being written.
func (s *CsvSink) Path() string {
	return s.path
}

// Close flushes and releases the file. Further appends fail.
func (s *CsvSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	s.w.Flush()
	err := s.file.Close()
	s.file = nil
	return err
}

// ResolvePath picks the first writable history location, preferring
// primary. probe must attempt a real write-open; ProbeAppend is the
// production probe. When neither location works the returned error wraps
// ErrCSVPathBlocked and names both candidates.
func ResolvePath(primary, fallback string, probe func(string) error) (string, error) {
	if probe(primary) == nil {
		return primary, nil
	}
	if probe(fallback) == nil {
		return fallback, nil
	}
	return "", errors.NewCSVPathError(primary, fallback)
}

// ProbeAppend verifies path accepts appends, creating the file if needed.
func ProbeAppend(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644) // #nosec G302 G304 // probing the configured history path
	if err != nil {
		return err
	}
	return f.Close()
}

// FallbackPath is the home-directory location used when the configured
// history path is not writable. Only the base name of the configured
// filename carries over.
func FallbackPath(filename string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, filepath.Base(filename)), nil
}

// ReadHistory loads previously recorded kill events. A missing file is an
// empty history, not an error; rows that do not parse are skipped so one
// corrupt line cannot hide an entire session.
func ReadHistory(path string) ([]event.KillEvent, error) {
	f, err := os.Open(path) // #nosec G304 // history path from validated config
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewCSVError(path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []event.KillEvent
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if len(row) < 4 || row[0] == Header[0] {
			continue
		}
		ts, err := time.Parse(time.RFC3339, row[0])
		if err != nil {
			continue
		}
		out = append(out, event.KillEvent{
			Timestamp: ts,
			Killer:    row[1],
			Victim:    row[2],
			Weapon:    row[3],
		})
	}
	return out, nil
}
