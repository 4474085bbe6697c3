package redisclient

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisSlotLocker(client, 5*time.Second), mr
}

func TestWithSlotLockRunsFunction(t *testing.T) {
	locker, _ := newTestLocker(t)

	ran := false
	err := locker.WithSlotLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestWithSlotLockReleasesAfterRun(t *testing.T) {
	locker, mr := newTestLocker(t)
	slotID := uuid.New()

	err := locker.WithSlotLock(context.Background(), slotID, func(ctx context.Context) error {
		require.True(t, mr.Exists("lock:slot:"+slotID.String()))
		return nil
	})
	require.NoError(t, err)

	assert.False(t, mr.Exists("lock:slot:"+slotID.String()))
}

func TestWithSlotLockRejectsSecondHolder(t *testing.T) {
	locker, _ := newTestLocker(t)
	slotID := uuid.New()

	err := locker.WithSlotLock(context.Background(), slotID, func(ctx context.Context) error {
		// Re-entry while held must fail with ErrLockNotAcquired.
		inner := locker.WithSlotLock(ctx, slotID, func(ctx context.Context) error {
			return nil
		})
		assert.ErrorIs(t, inner, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)
}

func TestWithSlotLockPropagatesFunctionError(t *testing.T) {
	locker, mr := newTestLocker(t)
	slotID := uuid.New()
	boom := errors.New("boom")

	err := locker.WithSlotLock(context.Background(), slotID, func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	// Lock is released even when the guarded function fails.
	assert.False(t, mr.Exists("lock:slot:"+slotID.String()))
}

func TestWithSlotLockDifferentSlotsDoNotContend(t *testing.T) {
	locker, _ := newTestLocker(t)

	err := locker.WithSlotLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		return locker.WithSlotLock(ctx, uuid.New(), func(ctx context.Context) error {
			return nil
		})
	})

	require.NoError(t, err)
}
