package cache

import (
	"context"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/safebite/safebite/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPersistent(t *testing.T) *Persistent[model.Product] {
	t.Helper()
	p, err := OpenPersistent[model.Product]("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPersistentRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistent(t)

	product := model.Product{
		Barcode:           "036000291452",
		Name:              "Dark Chocolate Bar",
		Ingredients:       []string{"cocoa", "sugar", "milk"},
		DeclaredAllergens: []string{"milk", "soy"},
		Source:            model.SourceAPI,
	}

	require.NoError(t, p.Put(ctx, ProductKey(product.Barcode), product, time.Hour))

	got, ok, err := p.Get(ctx, ProductKey(product.Barcode))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, product.Name, got.Name)
	assert.Equal(t, product.Ingredients, got.Ingredients)
}

func TestPersistentMiss(t *testing.T) {
	p := newTestPersistent(t)

	_, ok, err := p.Get(context.Background(), ProductKey("000000000000"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistentExpiry(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistent(t)

	require.NoError(t, p.Put(ctx, "k", model.Product{Barcode: "1"}, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistentInvalidate(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistent(t)

	require.NoError(t, p.Put(ctx, "k", model.Product{Barcode: "1"}, time.Hour))
	require.NoError(t, p.Invalidate(ctx, "k"))

	_, ok, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPersistentCorruptEntryDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	p := newTestPersistent(t)

	// Write garbage straight into the store, bypassing the entry codec.
	require.NoError(t, p.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("bad"), []byte("not json"))
	}))

	_, ok, err := p.Get(ctx, "bad")
	assert.False(t, ok)
	assert.Error(t, err)

	// The corrupt entry was dropped; the next read is a clean miss.
	_, ok, err = p.Get(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)
}
