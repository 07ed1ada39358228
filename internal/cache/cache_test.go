package cache

import (
	"context"
	"testing"
	"time"

	"github.com/safebite/safebite/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryExpired(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		ttl  time.Duration
		at   time.Time
		want bool
	}{
		{name: "fresh", ttl: time.Hour, at: now.Add(time.Minute), want: false},
		{name: "exactly at ttl", ttl: time.Hour, at: now.Add(time.Hour), want: false},
		{name: "past ttl", ttl: time.Hour, at: now.Add(time.Hour + time.Second), want: true},
		{name: "zero ttl never expires", ttl: 0, at: now.Add(1000 * time.Hour), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEntry("v", tt.ttl, now)
			assert.Equal(t, tt.want, e.Expired(tt.at))
		})
	}
}

func TestMemoryGetPut(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[string](0)
	defer func() { _ = m.Close() }()

	_, ok, err := m.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put(ctx, "k", "v", time.Hour))

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[int](0)
	defer func() { _ = m.Close() }()

	require.NoError(t, m.Put(ctx, "k", 42, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	// Lazy eviction removed the entry on read.
	assert.Equal(t, 0, m.Len())
}

func TestMemoryInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[string](0)
	defer func() { _ = m.Close() }()

	require.NoError(t, m.Put(ctx, "k", "v", time.Hour))
	require.NoError(t, m.Invalidate(ctx, "k"))

	_, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLastWriterWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[string](0)
	defer func() { _ = m.Close() }()

	require.NoError(t, m.Put(ctx, "k", "first", time.Hour))
	require.NoError(t, m.Put(ctx, "k", "second", time.Hour))

	got, ok, err := m.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestMemorySweep(t *testing.T) {
	ctx := context.Background()
	m := NewMemory[int](20 * time.Millisecond)
	defer func() { _ = m.Close() }()

	require.NoError(t, m.Put(ctx, "k", 1, time.Millisecond))

	assert.Eventually(t, func() bool {
		return m.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestAnalysisKey(t *testing.T) {
	profile := model.UserProfile{
		ID: "u1",
		Restrictions: []model.Restriction{
			{Category: model.CategoryAllergen, Key: "milk", Severity: model.SeveritySevere},
		},
	}

	k1 := AnalysisKey("036000291452", profile.Fingerprint())

	// Same inputs, same key.
	assert.Equal(t, k1, AnalysisKey("036000291452", profile.Fingerprint()))

	// Severity edit changes the fingerprint and therefore the key.
	profile.Restrictions[0].Severity = model.SeverityAnaphylactic
	assert.NotEqual(t, k1, AnalysisKey("036000291452", profile.Fingerprint()))

	// Different product, different key.
	assert.NotEqual(t, k1, AnalysisKey("0123456789", profile.Fingerprint()))
}

func TestProductKey(t *testing.T) {
	assert.Equal(t, "product:036000291452", ProductKey("036000291452"))
}
