package redisx

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/net/context"
)

var (
	errIllegalRedisType = errors.New("illegal redis type")
	// ErrLockNotAcquired 未获取到锁
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// DistributedLock 分布式锁
type DistributedLock struct {
	client     Redis
	key        string
	value      string
	expiration time.Duration
}

// NewDistributedLock 创建分布式锁
func NewDistributedLock(client Redis, key string, expiration *time.Duration) *DistributedLock {
	exp := 30 * time.Second
	if expiration != nil {
		exp = *expiration
	}
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      uuid.New().String(),
		expiration: exp,
	}
}

// TryLock 尝试获取锁，未获取到返回 ErrLockNotAcquired
func (l *DistributedLock) TryLock(ctx context.Context) error {
	ok, err := l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
	if err != nil {
		return errors.WithMessagef(err, "获取锁失败, key: %s", l.key)
	}
	if !ok {
		return ErrLockNotAcquired
	}
	return nil
}

// Unlock 释放锁，仅持有者可释放
func (l *DistributedLock) Unlock(ctx context.Context) error {
	const script = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`
	deleted, err := l.client.Eval(ctx, script, []string{l.key}, l.value).Int64()
	if err != nil {
		return errors.WithMessagef(err, "释放锁失败, key: %s", l.key)
	}
	if deleted == 0 {
		return errors.Errorf("锁已过期或被其他持有者占用, key: %s", l.key)
	}
	return nil
}
