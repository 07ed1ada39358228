package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/safebite/safebite/internal/cache"
	"github.com/safebite/safebite/internal/common"
	"github.com/safebite/safebite/internal/model"
)

// NewApplier returns the drain callback that replays queued operations into
// the history store and product cache. Hand it to Queue.DrainInOrder on the
// connectivity-restored path. Every target write is an upsert by natural
// key, so re-applying after a partial failure is harmless.
func NewApplier(store HistoryStore, products cache.Store[model.Product]) func(context.Context, model.QueuedOperation) error {
	return func(ctx context.Context, op model.QueuedOperation) error {
		switch op.Kind {
		case model.OpSaveScanHistory, model.OpSaveProfile:
			// Halt the drain cleanly instead of burning a driver error
			// when the store is still unreachable.
			if !store.Available(ctx) {
				return fmt.Errorf("operation %d: %w", op.ID, common.ErrStoreUnavailable)
			}
		}

		switch op.Kind {
		case model.OpSaveScanHistory:
			var payload model.SaveScanHistoryPayload
			if err := json.Unmarshal(op.Payload, &payload); err != nil {
				return fmt.Errorf("operation %d: bad scan history payload: %w", op.ID, err)
			}
			return store.SaveScanHistory(ctx, payload.Record)

		case model.OpSaveProfile:
			var payload model.SaveProfilePayload
			if err := json.Unmarshal(op.Payload, &payload); err != nil {
				return fmt.Errorf("operation %d: bad profile payload: %w", op.ID, err)
			}
			return store.SaveProfile(ctx, payload.Profile)

		case model.OpCacheProduct:
			var payload model.CacheProductPayload
			if err := json.Unmarshal(op.Payload, &payload); err != nil {
				return fmt.Errorf("operation %d: bad product payload: %w", op.ID, err)
			}
			return products.Put(ctx, cache.ProductKey(payload.Product.Barcode), payload.Product, cache.DefaultTTL)

		default:
			return fmt.Errorf("operation %d: unknown kind %q", op.ID, op.Kind)
		}
	}
}

// SaveProfileOrDefer writes a profile to the store, deferring onto the queue
// when the store is unreachable, mirroring how scan history writes behave.
func SaveProfileOrDefer(ctx context.Context, store HistoryStore, q Enqueuer, profile model.UserProfile) error {
	if store != nil && store.Available(ctx) {
		if err := store.SaveProfile(ctx, profile); err == nil {
			return nil
		}
	}
	if q == nil {
		return fmt.Errorf("%w and no queue configured", common.ErrStoreUnavailable)
	}
	if _, err := q.Enqueue(ctx, model.OpSaveProfile, model.SaveProfilePayload{Profile: profile}); err != nil {
		return fmt.Errorf("failed to defer profile write: %w", err)
	}
	return nil
}
