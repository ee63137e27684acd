//go:build integration

package idempotency_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"altanbank/pkg/platform/idempotency"
	"altanbank/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *idempotency.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = idempotency.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

// TestReserveCompleteReplay walks the happy path for a single key.
func (s *RedisStoreSuite) TestReserveCompleteReplay() {
	ctx := context.Background()
	key := uuid.NewString()
	recordID := uuid.NewString()

	res, err := s.store.Reserve(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(idempotency.Reserved, res.Outcome)

	// The key is held until the owner completes it.
	res, err = s.store.Reserve(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(idempotency.InFlight, res.Outcome)

	s.Require().NoError(s.store.Complete(ctx, key, recordID, time.Minute))

	res, err = s.store.Reserve(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(idempotency.Replayed, res.Outcome)
	s.Equal(recordID, res.RecordID)
}

// TestReleaseFreesKey verifies a failed operation can be retried with the
// same key.
func (s *RedisStoreSuite) TestReleaseFreesKey() {
	ctx := context.Background()
	key := uuid.NewString()

	res, err := s.store.Reserve(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(idempotency.Reserved, res.Outcome)

	s.Require().NoError(s.store.Release(ctx, key))

	res, err = s.store.Reserve(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(idempotency.Reserved, res.Outcome, "released key should be reservable again")
}

// TestConcurrentReserveSingleOwner fires concurrent reservations for one key
// and verifies SETNX admits exactly one owner.
func (s *RedisStoreSuite) TestConcurrentReserveSingleOwner() {
	ctx := context.Background()
	key := uuid.NewString()
	const goroutines = 50

	var wg sync.WaitGroup
	var reserved atomic.Int32
	var inFlight atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			res, err := s.store.Reserve(ctx, key, time.Minute)
			if err != nil {
				s.T().Errorf("reserve failed: %v", err)
				return
			}
			switch res.Outcome {
			case idempotency.Reserved:
				reserved.Add(1)
			case idempotency.InFlight:
				inFlight.Add(1)
			}
		}()
	}

	wg.Wait()

	s.Equal(int32(1), reserved.Load(), "exactly one caller should own the key")
	s.Equal(int32(goroutines-1), inFlight.Load())
}

// TestReservationExpiry verifies abandoned reservations age out.
func (s *RedisStoreSuite) TestReservationExpiry() {
	ctx := context.Background()
	key := uuid.NewString()

	res, err := s.store.Reserve(ctx, key, 100*time.Millisecond)
	s.Require().NoError(err)
	s.Equal(idempotency.Reserved, res.Outcome)

	time.Sleep(200 * time.Millisecond)

	res, err = s.store.Reserve(ctx, key, time.Minute)
	s.Require().NoError(err)
	s.Equal(idempotency.Reserved, res.Outcome, "expired reservation should be reclaimable")
}
