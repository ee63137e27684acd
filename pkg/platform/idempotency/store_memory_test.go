package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReserveLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	res, err := store.Reserve(ctx, "mint-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, Reserved, res.Outcome)

	// Second caller while in flight.
	res, err = store.Reserve(ctx, "mint-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, InFlight, res.Outcome)

	require.NoError(t, store.Complete(ctx, "mint-1", "record-42", time.Minute))

	res, err = store.Reserve(ctx, "mint-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, Replayed, res.Outcome)
	assert.Equal(t, "record-42", res.RecordID)
}

func TestMemoryReleaseFreesKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.Reserve(ctx, "burn-1", time.Minute)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "burn-1"))

	res, err := store.Reserve(ctx, "burn-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, Reserved, res.Outcome)
}

func TestMemoryReservationExpires(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, err := store.Reserve(ctx, "xfer-1", -time.Second)
	require.NoError(t, err)

	res, err := store.Reserve(ctx, "xfer-1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, Reserved, res.Outcome, "expired reservation must be reclaimable")
}
