// SPDX-License-Identifier: MIT
package store

import (
	"errors"
	"sync/atomic"

	"ledstrip/internal/log"

	badger "github.com/dgraph-io/badger/v4"
)

// keyPrefix namespaces tunables inside the database.
const keyPrefix = "tunable:"

// Badger is a Store backed by BadgerDB, so tunables survive restarts.
type Badger struct {
	db      *badger.DB
	version atomic.Uint64
}

// BadgerOptions configures the badger backend.
type BadgerOptions struct {
	// Dir holds the data files. Required unless InMemory is set.
	Dir string

	// InMemory runs badger without disk persistence, for tests.
	InMemory bool
}

// NewBadger opens (or creates) a badger database.
func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("store: badger directory is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{log.For("badger")})
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{log.For("badger")})
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, err
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(key string) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *Badger) Set(key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), value)
	})
	if err == nil {
		b.version.Add(1)
	}
	return err
}

// BatchSet writes every entry in a single transaction so readers never see a
// partial update.
func (b *Badger) BatchSet(entries map[string][]byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		for k, v := range entries {
			if err := txn.Set([]byte(keyPrefix+k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.version.Add(1)
	}
	return err
}

func (b *Badger) Snapshot() (Snapshot, error) {
	snap := make(Snapshot)
	prefix := []byte(keyPrefix)
	err := b.db.View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			snap[string(item.Key()[len(prefix):])] = val
		}
		return nil
	})
	return snap, err
}

func (b *Badger) Version() uint64 {
	return b.version.Load()
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger output through the leveled logger, dropping its
// chatty info and debug messages.
type badgerLogger struct {
	l *log.Logger
}

func (b badgerLogger) Errorf(f string, v ...any)   { b.l.Errorf(f, v...) }
func (b badgerLogger) Warningf(f string, v ...any) { b.l.Warnf(f, v...) }
func (badgerLogger) Infof(string, ...any)          {}
func (badgerLogger) Debugf(string, ...any)         {}
