// SPDX-License-Identifier: MIT
package store

import "sync"

// Memory is an in-process Store. Nothing survives a restart.
type Memory struct {
	mu      sync.RWMutex
	data    map[string][]byte
	version uint64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, error) {
	m.mu.RLock()
	v, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func (m *Memory) Set(key string, value []byte) error {
	cp := clone(value)
	m.mu.Lock()
	m.data[key] = cp
	m.version++
	m.mu.Unlock()
	return nil
}

func (m *Memory) BatchSet(entries map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.data[k] = clone(v)
	}
	m.version++
	return nil
}

func (m *Memory) Snapshot() (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(Snapshot, len(m.data))
	for k, v := range m.data {
		snap[k] = clone(v)
	}
	return snap, nil
}

func (m *Memory) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

func (m *Memory) Close() error { return nil }

func clone(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
