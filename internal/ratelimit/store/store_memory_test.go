package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAllowUpToLimit(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := s.Allow(ctx, "officer-1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed)
		assert.Equal(t, 3-i-1, result.Remaining)
	}

	result, err := s.Allow(ctx, "officer-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
	assert.Positive(t, result.RetryAfter)
}

func TestMemoryStoreKeysAreIndependent(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	result, err := s.Allow(ctx, "officer-1", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = s.Allow(ctx, "officer-2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}

func TestMemoryStoreWindowSlides(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	result, err := s.Allow(ctx, "officer-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, result.Allowed)

	result, err = s.Allow(ctx, "officer-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	require.False(t, result.Allowed)

	time.Sleep(20 * time.Millisecond)

	result, err = s.Allow(ctx, "officer-1", 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "old hits age out of the window")
}
