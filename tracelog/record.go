// Package tracelog persists the reasoning of every validated payload for post-hoc audit.
//
// A record is written for the plan and for the action of every step. The standard sink,
// [FileSink], keeps one JSON array file per session under a configurable directory.
package tracelog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	sgr "github.com/KulikovMichael/sgr-base-agent"
	"gopkg.in/yaml.v3"
)

// Phase identifies which half of a step produced a record.
type Phase string

const (
	PhasePlanning Phase = "planning"
	PhaseAction   Phase = "action"
)

// Record is one trace entry.
type Record struct {
	Timestamp         time.Time          `json:"timestamp" yaml:"timestamp"`
	SessionID         string             `json:"session_id" yaml:"session_id"`
	Phase             Phase              `json:"phase" yaml:"phase"`
	Tool              string             `json:"tool" yaml:"tool"`
	SituationAnalysis string             `json:"situation_analysis" yaml:"situation_analysis"`
	Trace             *sgr.DecisionTrace `json:"trace" yaml:"trace"`

	// Schema is the full payload in its JSON form.
	Schema map[string]any `json:"schema" yaml:"schema"`
}

// NewRecord builds a record for payload, timestamped now in UTC.
func NewRecord(sessionID string, phase Phase, tool string, payload sgr.Payload) (Record, error) {
	full, err := sgr.ToArguments(payload)
	if err != nil {
		return Record{}, fmt.Errorf("tracelog: dump %s payload: %w", tool, err)
	}
	reasoning := payload.GetReasoning()
	trace := reasoning.Trace
	return Record{
		Timestamp:         time.Now().UTC(),
		SessionID:         sessionID,
		Phase:             phase,
		Tool:              tool,
		SituationAnalysis: reasoning.SituationAnalysis,
		Trace:             &trace,
		Schema:            full,
	}, nil
}

// Sink receives trace records.
type Sink interface {
	Append(ctx context.Context, rec Record) error
}

// MemorySink keeps records in memory. It is safe for concurrent use.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append implements Sink.
func (s *MemorySink) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Records returns a copy of every record appended so far.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Discard drops every record.
var Discard Sink = discard{}

type discard struct{}

func (discard) Append(context.Context, Record) error { return nil }

// WriteJSON renders records as an indented JSON array.
func WriteJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteYAML renders records as a YAML sequence.
func WriteYAML(w io.Writer, records []Record) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return err
	}
	return enc.Close()
}
