// Package cache provides the TTL stores backing the product and analysis
// caches. Both tiers share one Entry wrapper so expiry logic lives in exactly
// one place, and both check expiry lazily at read time; the periodic sweep
// only bounds storage, correctness never depends on it.
package cache

import (
	"context"
	"time"
)

// Store is the contract both cache tiers satisfy. A missing, expired or
// unreadable entry is a miss; an error is reported for logging but callers
// treat it as a miss rather than failing the scan.
type Store[T any] interface {
	Get(ctx context.Context, key string) (T, bool, error)
	Put(ctx context.Context, key string, value T, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Close() error
}

// DefaultTTL applies to product and analysis entries alike; product data
// changes rarely and analysis entries are additionally keyed by profile
// fingerprint, so stale combinations miss rather than serve.
const DefaultTTL = 7 * 24 * time.Hour

// Entry wraps a cached value with its creation time and TTL.
type Entry[T any] struct {
	Value     T             `json:"value"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

// NewEntry stamps a value with the current time and the given TTL.
func NewEntry[T any](value T, ttl time.Duration, now time.Time) Entry[T] {
	return Entry[T]{Value: value, CreatedAt: now, TTL: ttl}
}

// Expired reports whether the entry is stale at the given instant.
// A non-positive TTL never expires.
func (e Entry[T]) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.After(e.CreatedAt.Add(e.TTL))
}
