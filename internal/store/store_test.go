// SPDX-License-Identifier: MIT
package store

import (
	"errors"
	"testing"
)

func newBadgerStore(t *testing.T) Store {
	t.Helper()
	s, err := NewBadger(BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("NewBadger: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func backends(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemory(),
		"badger": newBadgerStore(t),
	}
}

func TestGetSet(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.Get("mode"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
			if err := Put(s, "mode", "scanner"); err != nil {
				t.Fatalf("Put: %v", err)
			}
			snap, err := s.Snapshot()
			if err != nil {
				t.Fatal(err)
			}
			if got := snap.String("mode", ""); got != "scanner" {
				t.Errorf("mode = %q, want scanner", got)
			}
		})
	}
}

func TestBatchSetIsOneVersion(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			before := s.Version()
			err := PutAll(s, map[string]any{
				"stack_speed":      2.5,
				"stack_concurrent": 3,
				KeyEnabled:         false,
			})
			if err != nil {
				t.Fatalf("PutAll: %v", err)
			}
			if got := s.Version(); got != before+1 {
				t.Errorf("Version() = %d, want %d", got, before+1)
			}

			snap, err := s.Snapshot()
			if err != nil {
				t.Fatal(err)
			}
			if snap.Float("stack_speed", 0) != 2.5 {
				t.Errorf("stack_speed = %v", snap.Float("stack_speed", 0))
			}
			if snap.Int("stack_concurrent", 0) != 3 {
				t.Errorf("stack_concurrent = %v", snap.Int("stack_concurrent", 0))
			}
			if snap.Bool(KeyEnabled, true) {
				t.Error("enabled should be false")
			}
		})
	}
}

func TestSnapshotDefaults(t *testing.T) {
	s := NewMemory()
	if err := Put(s, "name", "x"); err != nil {
		t.Fatal(err)
	}
	snap, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if snap.Int("missing", 7) != 7 {
		t.Error("missing key should return default")
	}
	if snap.Bool("name", true) != true {
		t.Error("undecodable value should return default")
	}
	if err := snap.Decode("missing", new(int)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Decode missing = %v, want ErrNotFound", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := Put(s, KeyFilter, "rainbow"); err != nil {
				t.Fatal(err)
			}
			snap, err := s.Snapshot()
			if err != nil {
				t.Fatal(err)
			}
			if err := Put(s, KeyFilter, "hex"); err != nil {
				t.Fatal(err)
			}
			if got := snap.String(KeyFilter, ""); got != "rainbow" {
				t.Errorf("snapshot changed after write: %q", got)
			}
		})
	}
}

func TestSeedKeepsExisting(t *testing.T) {
	s := NewMemory()
	if err := Put(s, KeyMode, "stack"); err != nil {
		t.Fatal(err)
	}
	if err := Seed(s, map[string]any{KeyMode: "full", KeyFilter: "normal"}); err != nil {
		t.Fatal(err)
	}
	snap, _ := s.Snapshot()
	if snap.String(KeyMode, "") != "stack" {
		t.Error("Seed overwrote an existing value")
	}
	if snap.String(KeyFilter, "") != "normal" {
		t.Error("Seed did not add a missing value")
	}
}

func TestBadgerPersists(t *testing.T) {
	dir := t.TempDir()
	s, err := NewBadger(BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	if err := Put(s, KeyMode, "energy"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = NewBadger(BadgerOptions{Dir: dir})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	raw, err := s.Get(KeyMode)
	if err != nil {
		t.Fatal(err)
	}
	snap := Snapshot{KeyMode: raw}
	if snap.String(KeyMode, "") != "energy" {
		t.Errorf("mode after reopen = %q", snap.String(KeyMode, ""))
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
	s, err := Open("", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Errorf("default backend = %T, want *Memory", s)
	}
}
