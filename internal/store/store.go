// SPDX-License-Identifier: MIT
/*
Package store persists the runtime tunables: the selected mode and filter, the
enable flag and every mode/filter variable. Values are msgpack encoded.

The control API writes through Set/BatchSet; the render loop reads one
consistent Snapshot per refresh and watches Version to notice changes early.
*/
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("store: not found")

// Well-known keys.
const (
	KeyMode    = "mode"
	KeyFilter  = "filter"
	KeyEnabled = "enabled"
)

// Store is a flat key/value store for tunables. Implementations are safe for
// concurrent use.
type Store interface {
	// Get returns the raw encoded value for key or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set stores an encoded value.
	Set(key string, value []byte) error
	// BatchSet stores every entry atomically.
	BatchSet(entries map[string][]byte) error
	// Snapshot returns every key as of a single point in time.
	Snapshot() (Snapshot, error)
	// Version increases on every successful write.
	Version() uint64
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Open creates the named backend. dir is only used by the badger backend.
func Open(backend, dir string) (Store, error) {
	switch strings.ToLower(backend) {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendBadger:
		return NewBadger(BadgerOptions{Dir: dir})
	default:
		return nil, fmt.Errorf("unknown store backend %q (want %q or %q)", backend, BackendMemory, BackendBadger)
	}
}

// Encode msgpack encodes a tunable value.
func Encode(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Put encodes v and stores it under key.
func Put(s Store, key string, v any) error {
	data, err := Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(key, data)
}

// PutAll encodes every value and stores them in one batch.
func PutAll(s Store, values map[string]any) error {
	entries := make(map[string][]byte, len(values))
	for k, v := range values {
		data, err := Encode(v)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", k, err)
		}
		entries[k] = data
	}
	return s.BatchSet(entries)
}

// Seed stores every value whose key is not present yet.
func Seed(s Store, defaults map[string]any) error {
	snap, err := s.Snapshot()
	if err != nil {
		return err
	}
	missing := make(map[string]any)
	for k, v := range defaults {
		if !snap.Has(k) {
			missing[k] = v
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return PutAll(s, missing)
}

// Snapshot is a point-in-time copy of the store with typed accessors. The
// accessors return def when a key is missing or cannot be decoded as the
// requested type.
type Snapshot map[string][]byte

// Has reports whether key is present.
func (s Snapshot) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Decode unmarshals the value at key into v.
func (s Snapshot) Decode(key string, v any) error {
	data, ok := s[key]
	if !ok {
		return ErrNotFound
	}
	return msgpack.Unmarshal(data, v)
}

func (s Snapshot) Int(key string, def int) int {
	var v int
	if s.Decode(key, &v) != nil {
		return def
	}
	return v
}

func (s Snapshot) Float(key string, def float64) float64 {
	var v float64
	if s.Decode(key, &v) != nil {
		return def
	}
	return v
}

func (s Snapshot) Bool(key string, def bool) bool {
	var v bool
	if s.Decode(key, &v) != nil {
		return def
	}
	return v
}

func (s Snapshot) String(key string, def string) string {
	var v string
	if s.Decode(key, &v) != nil {
		return def
	}
	return v
}
