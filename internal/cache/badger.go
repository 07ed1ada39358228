package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Persistent is a BadgerDB-backed TTL store so cached products and analyses
// survive process restart. Values are JSON-encoded Entry wrappers; Badger's
// own entry TTL additionally reclaims storage, but expiry is always
// re-checked at read time with the same Entry predicate the memory tier uses.
type Persistent[T any] struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenPersistent opens (creating if needed) a Badger database at dir.
// An empty dir opens an in-memory database, which tests use.
func OpenPersistent[T any](dir string, logger *slog.Logger) (*Persistent[T], error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Persistent[T]{db: db, logger: logger}, nil
}

// Get returns the cached value if present, decodable and unexpired.
// A corrupt entry is deleted and reported as a miss with the decode error,
// so the caller can log it; the scan itself never fails on cache state.
func (p *Persistent[T]) Get(_ context.Context, key string) (T, bool, error) {
	var zero T
	var entry Entry[T]

	err := p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})

	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return zero, false, nil
	case err != nil:
		p.dropCorrupt(key)
		return zero, false, fmt.Errorf("cache read for %q degraded to miss: %w", key, err)
	}

	if entry.Expired(time.Now()) {
		if delErr := p.delete(key); delErr != nil {
			p.logger.Warn("failed to evict expired cache entry", "key", key, "error", delErr)
		}
		return zero, false, nil
	}
	return entry.Value, true, nil
}

// Put stores a value under key with the given TTL.
func (p *Persistent[T]) Put(_ context.Context, key string, value T, ttl time.Duration) error {
	payload, err := json.Marshal(NewEntry(value, ttl, time.Now()))
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	return p.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), payload)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Invalidate removes a key.
func (p *Persistent[T]) Invalidate(_ context.Context, key string) error {
	return p.delete(key)
}

// Close closes the underlying database.
func (p *Persistent[T]) Close() error {
	return p.db.Close()
}

func (p *Persistent[T]) delete(key string) error {
	return p.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (p *Persistent[T]) dropCorrupt(key string) {
	if err := p.delete(key); err != nil {
		p.logger.Warn("failed to drop corrupt cache entry", "key", key, "error", err)
	}
}
