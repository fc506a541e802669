package redisx

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) Redis {
	t.Helper()
	client, err := NewRedis(RedisConfig{RedisType: "miniredis"})
	require.NoError(t, err)
	return client
}

func TestDistributedLock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	client := newMiniRedis(t)
	expiration := time.Minute

	first := NewDistributedLock(client, "lock:test", &expiration)
	require.NoError(t, first.TryLock(ctx))

	second := NewDistributedLock(client, "lock:test", &expiration)
	require.ErrorIs(t, second.TryLock(ctx), ErrLockNotAcquired)

	require.NoError(t, first.Unlock(ctx))
	require.NoError(t, second.TryLock(ctx))
}

func TestUnlockOnlyReleasesOwnLock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	client := newMiniRedis(t)
	expiration := time.Minute

	owner := NewDistributedLock(client, "lock:owner", &expiration)
	require.NoError(t, owner.TryLock(ctx))

	intruder := NewDistributedLock(client, "lock:owner", &expiration)
	require.Error(t, intruder.Unlock(ctx))

	// Still held by the owner.
	require.ErrorIs(t, intruder.TryLock(ctx), ErrLockNotAcquired)
	require.NoError(t, owner.Unlock(ctx))
}

func TestNewRedisRejectsUnknownType(t *testing.T) {
	t.Parallel()

	_, err := NewRedis(RedisConfig{RedisType: "sentinel-cluster-thing"})
	require.Error(t, err)
}
