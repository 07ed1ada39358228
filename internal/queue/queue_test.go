package queue

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/safebite/safebite/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(filepath.Join(t.TempDir(), "queue.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

type scanPayload struct {
	ScanID  string `json:"scan_id"`
	Barcode string `json:"barcode"`
}

func TestEnqueueAssignsMonotonicIDs(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	a, err := q.Enqueue(ctx, model.OpSaveScanHistory, scanPayload{ScanID: "a"})
	require.NoError(t, err)
	b, err := q.Enqueue(ctx, model.OpSaveScanHistory, scanPayload{ScanID: "b"})
	require.NoError(t, err)
	c, err := q.Enqueue(ctx, model.OpSaveProfile, scanPayload{ScanID: "c"})
	require.NoError(t, err)

	assert.Less(t, a.ID, b.ID)
	assert.Less(t, b.ID, c.ID)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestEnqueueRejectsUnknownKind(t *testing.T) {
	q := newTestQueue(t)

	_, err := q.Enqueue(context.Background(), model.OperationKind("drop_tables"), nil)
	assert.Error(t, err)
}

func TestDrainAppliesInOrder(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := q.Enqueue(ctx, model.OpSaveScanHistory, scanPayload{ScanID: id})
		require.NoError(t, err)
	}

	var got []string
	applied, err := q.DrainInOrder(ctx, func(_ context.Context, op model.QueuedOperation) error {
		var p scanPayload
		require.NoError(t, json.Unmarshal(op.Payload, &p))
		got = append(got, p.ScanID)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, applied)
	assert.Equal(t, []string{"a", "b", "c"}, got)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDrainHaltsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := q.Enqueue(ctx, model.OpSaveScanHistory, scanPayload{ScanID: id})
		require.NoError(t, err)
	}

	boom := errors.New("store unreachable")
	var attempted []string
	applied, err := q.DrainInOrder(ctx, func(_ context.Context, op model.QueuedOperation) error {
		var p scanPayload
		require.NoError(t, json.Unmarshal(op.Payload, &p))
		attempted = append(attempted, p.ScanID)
		if p.ScanID == "a" {
			return boom
		}
		return nil
	})

	require.ErrorIs(t, err, ErrApplyFailed)
	assert.Equal(t, 0, applied)
	// B and C were never attempted; A stays at the head.
	assert.Equal(t, []string{"a"}, attempted)

	n, countErr := q.Len(ctx)
	require.NoError(t, countErr)
	assert.Equal(t, 3, n)

	// Next drain resumes from A and finishes.
	attempted = nil
	applied, err = q.DrainInOrder(ctx, func(_ context.Context, op model.QueuedOperation) error {
		var p scanPayload
		require.NoError(t, json.Unmarshal(op.Payload, &p))
		attempted = append(attempted, p.ScanID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, applied)
	assert.Equal(t, []string{"a", "b", "c"}, attempted)
}

func TestDrainHaltsMidway(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	for _, id := range []string{"a", "b", "c"} {
		_, err := q.Enqueue(ctx, model.OpSaveScanHistory, scanPayload{ScanID: id})
		require.NoError(t, err)
	}

	applied, err := q.DrainInOrder(ctx, func(_ context.Context, op model.QueuedOperation) error {
		var p scanPayload
		require.NoError(t, json.Unmarshal(op.Payload, &p))
		if p.ScanID == "b" {
			return errors.New("flaky")
		}
		return nil
	})

	require.ErrorIs(t, err, ErrApplyFailed)
	assert.Equal(t, 1, applied)

	n, countErr := q.Len(ctx)
	require.NoError(t, countErr)
	assert.Equal(t, 2, n)
}

func TestQueueSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "queue.db")

	q, err := Open(dbPath, nil)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, model.OpCacheProduct, scanPayload{Barcode: "036000291452"})
	require.NoError(t, err)
	require.NoError(t, q.Close())

	reopened, err := Open(dbPath, nil)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	n, err := reopened.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	applied, err := reopened.DrainInOrder(ctx, func(_ context.Context, op model.QueuedOperation) error {
		assert.Equal(t, model.OpCacheProduct, op.Kind)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
}

func TestConcurrentEnqueueDuringDrain(t *testing.T) {
	ctx := context.Background()
	q := newTestQueue(t)

	for i := 0; i < 5; i++ {
		_, err := q.Enqueue(ctx, model.OpSaveScanHistory, scanPayload{ScanID: "seed"})
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			_, err := q.Enqueue(ctx, model.OpSaveScanHistory, scanPayload{ScanID: "late"})
			assert.NoError(t, err)
		}
	}()

	applied, err := q.DrainInOrder(ctx, func(context.Context, model.QueuedOperation) error {
		return nil
	})
	wg.Wait()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, applied, 5)

	// Anything enqueued after the drain finished is still pending; drain
	// once more to flush the rest.
	_, err = q.DrainInOrder(ctx, func(context.Context, model.QueuedOperation) error {
		return nil
	})
	require.NoError(t, err)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
