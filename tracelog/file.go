package tracelog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// timestampLayout is the UTC layout used in trace file names.
const timestampLayout = "20060102T150405"

// PathRegistry maps session ids to trace files. The first request for a session fixes its
// path for the lifetime of the registry.
type PathRegistry struct {
	dir string
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*pathEntry
}

type pathEntry struct {
	path string
	mu   sync.Mutex
}

// NewPathRegistry creates a registry placing files under dir.
func NewPathRegistry(dir string) *PathRegistry {
	return &PathRegistry{
		dir:     dir,
		now:     time.Now,
		entries: make(map[string]*pathEntry),
	}
}

// Dir returns the directory files are placed in.
func (r *PathRegistry) Dir() string {
	return r.dir
}

// Resolve returns the trace file for sessionID: <dir>/<session>_<YYYYMMDDTHHMMSS>.json.
func (r *PathRegistry) Resolve(sessionID string) string {
	return r.entry(sessionID).path
}

func (r *PathRegistry) entry(sessionID string) *pathEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[sessionID]
	if !ok {
		name := fmt.Sprintf("%s_%s.json", sessionID, r.now().UTC().Format(timestampLayout))
		e = &pathEntry{path: filepath.Join(r.dir, name)}
		r.entries[sessionID] = e
	}
	return e
}

// FileSink appends records to per-session JSON array files.
//
// Appends for one session are serialized; appends for different sessions run in parallel.
// Prior file content that cannot be parsed is logged and replaced.
type FileSink struct {
	paths  *PathRegistry
	logger *zap.Logger
}

// NewFileSink creates a FileSink writing under dir. The directory is created on first use.
func NewFileSink(dir string) *FileSink {
	return NewFileSinkWithRegistry(NewPathRegistry(dir))
}

// NewFileSinkWithRegistry creates a FileSink sharing an existing path registry.
func NewFileSinkWithRegistry(paths *PathRegistry) *FileSink {
	return &FileSink{
		paths:  paths,
		logger: zap.NewNop(),
	}
}

// WithLogger sets the logger. Returns the sink for chaining.
func (s *FileSink) WithLogger(logger *zap.Logger) *FileSink {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Path returns the file used for sessionID.
func (s *FileSink) Path(sessionID string) string {
	return s.paths.Resolve(sessionID)
}

// Append implements Sink.
func (s *FileSink) Append(_ context.Context, rec Record) error {
	e := s.paths.entry(rec.SessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := os.MkdirAll(s.paths.Dir(), 0o755); err != nil {
		return fmt.Errorf("tracelog: create dir: %w", err)
	}

	records, err := ReadFile(e.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		records = nil
	case err != nil:
		s.logger.Warn("TraceFileUnreadable",
			zap.String("component", "ExecutionLogger"),
			zap.String("path", e.path),
			zap.Error(err),
		)
		records = nil
	}
	records = append(records, rec)

	return writeAtomic(e.path, records)
}

// ReadFile loads the records stored in a trace file.
func ReadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("tracelog: parse %s: %w", path, err)
	}
	return records, nil
}

func writeAtomic(path string, records []Record) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("tracelog: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSON(tmp, records); err != nil {
		tmp.Close()
		return fmt.Errorf("tracelog: encode records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tracelog: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("tracelog: replace %s: %w", path, err)
	}
	return nil
}

var (
	_ Sink = (*FileSink)(nil)
	_ Sink = (*MemorySink)(nil)
)
