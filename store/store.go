// Package store persists encoded game snapshots. Every backend stores one
// opaque blob per save slot.
package store

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound is returned by Load when the slot has never been saved.
var ErrNotFound = errors.New("no saved game")

// DefaultSlot is used when no slot name is configured.
const DefaultSlot = "default"

// Memory keeps the snapshot in memory. It is used by tests and by sessions
// that run with persistence disabled.
type Memory struct {
	mu    sync.Mutex
	data  []byte
	saves int

	// FailSave, when set, is returned by every Save.
	FailSave error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Load returns a copy of the last saved blob.
func (m *Memory) Load(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

// Save replaces the stored blob.
func (m *Memory) Save(ctx context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave != nil {
		return m.FailSave
	}
	m.data = append([]byte(nil), data...)
	m.saves++
	return nil
}

// Saves returns the number of successful saves.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
