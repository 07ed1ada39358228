package engine

import (
	"context"

	"github.com/safebite/safebite/internal/model"
)

// HistoryStore is the downstream store scans and profiles are written to.
// All writes are idempotent upserts by natural key, so replaying a queued
// write after a partial failure is safe.
type HistoryStore interface {
	Available(ctx context.Context) bool
	SaveScanHistory(ctx context.Context, record model.ScanRecord) error
	SaveProfile(ctx context.Context, profile model.UserProfile) error
}

// Enqueuer defers a write for later replay.
type Enqueuer interface {
	Enqueue(ctx context.Context, kind model.OperationKind, payload any) (model.QueuedOperation, error)
}
