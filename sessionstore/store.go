// Package sessionstore persists agent states between process runs.
//
// Stores treat the canonical state text produced by sgr.EncodeState as an opaque blob
// keyed by session id.
package sessionstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	sgr "github.com/KulikovMichael/sgr-base-agent"
)

// ErrNotFound is returned by Load when no state is stored for the session.
var ErrNotFound = errors.New("session not found")

// Store saves and restores agent states.
type Store interface {
	// Save stores the state under its session id, replacing any previous value.
	Save(ctx context.Context, state sgr.State) error

	// Load restores the state stored under sessionID into into.
	Load(ctx context.Context, sessionID string, into sgr.State) error
}

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string][]byte
}

// NewMemory creates an empty Memory store.
func NewMemory() *Memory {
	return &Memory{sessions: make(map[string][]byte)}
}

// Save implements Store.
func (m *Memory) Save(_ context.Context, state sgr.State) error {
	data, err := sgr.EncodeState(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[state.Base().SessionID] = data
	return nil
}

// Load implements Store.
func (m *Memory) Load(_ context.Context, sessionID string, into sgr.State) error {
	m.mu.RLock()
	data, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return sgr.DecodeState(data, into)
}

// Sessions returns the stored session ids, sorted.
func (m *Memory) Sessions() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

var _ Store = (*Memory)(nil)
