package engine

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/safebite/safebite/internal/cache"
	"github.com/safebite/safebite/internal/common"
	"github.com/safebite/safebite/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPayload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestApplierSaveScanHistory(t *testing.T) {
	history := &mockHistory{available: true}
	products := cache.NewMemory[model.Product](0)
	defer func() { _ = products.Close() }()

	apply := NewApplier(history, products)

	record := model.ScanRecord{ID: "scan-1", ProfileID: "u1", Barcode: "111"}
	op := model.QueuedOperation{
		ID:      1,
		Kind:    model.OpSaveScanHistory,
		Payload: mustPayload(t, model.SaveScanHistoryPayload{Record: record}),
	}

	require.NoError(t, apply(context.Background(), op))
	require.Len(t, history.saved, 1)
	assert.Equal(t, "scan-1", history.saved[0].ID)
}

func TestApplierSaveProfile(t *testing.T) {
	history := &mockHistory{available: true}
	products := cache.NewMemory[model.Product](0)
	defer func() { _ = products.Close() }()

	apply := NewApplier(history, products)

	profile := milkProfile(model.SeveritySevere)
	op := model.QueuedOperation{
		ID:      2,
		Kind:    model.OpSaveProfile,
		Payload: mustPayload(t, model.SaveProfilePayload{Profile: profile}),
	}

	require.NoError(t, apply(context.Background(), op))
	require.Len(t, history.profiles, 1)
	assert.Equal(t, "u1", history.profiles[0].ID)
}

func TestApplierCacheProduct(t *testing.T) {
	ctx := context.Background()
	history := &mockHistory{available: true}
	products := cache.NewMemory[model.Product](0)
	defer func() { _ = products.Close() }()

	apply := NewApplier(history, products)

	op := model.QueuedOperation{
		ID:      3,
		Kind:    model.OpCacheProduct,
		Payload: mustPayload(t, model.CacheProductPayload{Product: *chocolateBar()}),
	}

	require.NoError(t, apply(ctx, op))

	got, ok, err := products.Get(ctx, cache.ProductKey("036000291452"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Dark Chocolate Bar", got.Name)
}

func TestApplierRejectsMalformedPayload(t *testing.T) {
	apply := NewApplier(&mockHistory{available: true}, nil)

	op := model.QueuedOperation{
		ID:      4,
		Kind:    model.OpSaveScanHistory,
		Payload: json.RawMessage(`{broken`),
	}
	assert.Error(t, apply(context.Background(), op))
}

func TestApplierPropagatesStoreFailure(t *testing.T) {
	history := &mockHistory{available: true, saveErr: errors.New("disk full")}
	apply := NewApplier(history, nil)

	op := model.QueuedOperation{
		ID:      5,
		Kind:    model.OpSaveScanHistory,
		Payload: mustPayload(t, model.SaveScanHistoryPayload{Record: model.ScanRecord{ID: "x"}}),
	}
	assert.Error(t, apply(context.Background(), op))
}

func TestApplierHaltsWhenStoreUnavailable(t *testing.T) {
	// An unreachable store must stop the drain with the sentinel, before
	// any write is attempted, so the operation stays queued.
	history := &mockHistory{available: false}
	apply := NewApplier(history, nil)

	op := model.QueuedOperation{
		ID:      6,
		Kind:    model.OpSaveScanHistory,
		Payload: mustPayload(t, model.SaveScanHistoryPayload{Record: model.ScanRecord{ID: "y"}}),
	}
	err := apply(context.Background(), op)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Empty(t, history.saved)
}

func TestSaveProfileOrDefer(t *testing.T) {
	ctx := context.Background()
	profile := milkProfile(model.SeveritySevere)

	t.Run("store reachable writes directly", func(t *testing.T) {
		history := &mockHistory{available: true}
		q := &recordingQueue{}

		require.NoError(t, SaveProfileOrDefer(ctx, history, q, profile))
		assert.Len(t, history.profiles, 1)
		assert.Empty(t, q.kinds())
	})

	t.Run("store unreachable defers", func(t *testing.T) {
		history := &mockHistory{available: false}
		q := &recordingQueue{}

		require.NoError(t, SaveProfileOrDefer(ctx, history, q, profile))
		assert.Empty(t, history.profiles)
		assert.Equal(t, []model.OperationKind{model.OpSaveProfile}, q.kinds())
	})

	t.Run("store unreachable without queue errors", func(t *testing.T) {
		history := &mockHistory{available: false}

		err := SaveProfileOrDefer(ctx, history, nil, profile)
		assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	})
}
