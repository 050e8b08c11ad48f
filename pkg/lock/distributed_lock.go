package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shiftboard/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	defaultTTL          = 30 * time.Second
	lockAcquireTimeout  = 5 * time.Second
	lockExtendInterval  = 10 * time.Second
	maxLockHoldDuration = 2 * time.Minute
	retryInterval       = 25 * time.Millisecond
)

// Key helpers
func AcceptKey(workerID string) string { return "accept:worker:" + workerID }
func JobKey(name string) string        { return "jobs:" + name }

// DistributedLock lock held across service replicas
type DistributedLock interface {
	// TryLock attempts to acquire the lock without waiting
	TryLock(ctx context.Context) (bool, error)

	// Lock waits up to wait for the lock
	Lock(ctx context.Context, wait time.Duration) (bool, error)

	// Unlock releases the lock if held by this instance
	Unlock(ctx context.Context) error

	// IsHeld reports whether this instance holds the lock
	IsHeld() bool
}

// RedisDistributedLock SET NX based lock with owner token and background renewal.
// With a nil client it falls back to a process-local lock on the same key.
type RedisDistributedLock struct {
	client       *redis.Client
	lockKey      string
	lockValue    string // owner token so we never release another instance's lock
	ttl          time.Duration
	isHeld       bool
	acquiredAt   time.Time
	stopRenew    chan struct{}
	renewStopped bool
	mu           sync.Mutex
}

// NewRedisDistributedLock creates a lock on lockKey
func NewRedisDistributedLock(client *redis.Client, lockKey string) *RedisDistributedLock {
	return &RedisDistributedLock{
		client:       client,
		lockKey:      lockKey,
		lockValue:    fmt.Sprintf("%s-%s", lockKey, uuid.NewString()),
		ttl:          defaultTTL,
		stopRenew:    make(chan struct{}),
		renewStopped: true,
	}
}

// Locker creates locks backed by one Redis client
type Locker struct {
	client *redis.Client
}

// NewLocker creates a lock factory; a nil client yields process-local locks
func NewLocker(client *redis.Client) *Locker {
	return &Locker{client: client}
}

// New returns an unlocked lock on key
func (f *Locker) New(key string) DistributedLock {
	return NewRedisDistributedLock(f.client, key)
}

// WithTTL overrides the lock TTL
func (l *RedisDistributedLock) WithTTL(ttl time.Duration) *RedisDistributedLock {
	if ttl > 0 {
		l.ttl = ttl
	}
	return l
}

// TryLock attempts to acquire the lock once
func (l *RedisDistributedLock) TryLock(ctx context.Context) (bool, error) {
	if l.client == nil {
		if !local.tryAcquire(l.lockKey) {
			return false, nil
		}
		l.mu.Lock()
		l.isHeld = true
		l.acquiredAt = time.Now()
		l.mu.Unlock()
		return true, nil
	}

	acquireCtx, cancel := context.WithTimeout(ctx, lockAcquireTimeout)
	defer cancel()

	acquired, err := l.client.SetNX(acquireCtx, l.lockKey, l.lockValue, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !acquired {
		logger.DebugCtx(ctx, "lock %s already held by another instance", l.lockKey)
		return false, nil
	}

	l.mu.Lock()
	l.isHeld = true
	l.acquiredAt = time.Now()
	// fresh channel per acquisition so TryLock/Unlock can cycle
	l.stopRenew = make(chan struct{})
	l.renewStopped = false
	stop := l.stopRenew
	l.mu.Unlock()

	go l.renewLock(ctx, stop)

	logger.DebugCtx(ctx, "lock %s acquired", l.lockKey)
	return true, nil
}

// Lock retries TryLock until acquired, wait elapses or ctx is done
func (l *RedisDistributedLock) Lock(ctx context.Context, wait time.Duration) (bool, error) {
	deadline := time.Now().Add(wait)
	for {
		ok, err := l.TryLock(ctx)
		if err != nil || ok {
			return ok, err
		}
		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

// Unlock releases the lock
func (l *RedisDistributedLock) Unlock(ctx context.Context) error {
	l.mu.Lock()
	if !l.isHeld && (l.client == nil || l.renewStopped) {
		l.mu.Unlock()
		return nil
	}

	if l.client == nil {
		l.isHeld = false
		l.mu.Unlock()
		local.release(l.lockKey)
		return nil
	}

	if !l.renewStopped {
		l.renewStopped = true
		close(l.stopRenew)
	}
	l.mu.Unlock()

	// only delete the key if we still own it
	luaScript := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`

	result, err := l.client.Eval(ctx, luaScript, []string{l.lockKey}, l.lockValue).Result()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	l.mu.Lock()
	l.isHeld = false
	l.mu.Unlock()

	if n, ok := result.(int64); ok && n == 1 {
		logger.DebugCtx(ctx, "lock %s released", l.lockKey)
	} else {
		logger.WarnCtx(ctx, "lock %s was already released or held by another instance", l.lockKey)
	}

	return nil
}

// IsHeld reports whether this instance holds the lock
func (l *RedisDistributedLock) IsHeld() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isHeld
}

// renewLock extends the TTL while held
func (l *RedisDistributedLock) renewLock(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(lockExtendInterval)
	defer ticker.Stop()

	renewScript := `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("expire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			holdDuration := time.Since(l.acquiredAt)
			l.mu.Unlock()

			if holdDuration > maxLockHoldDuration {
				// leave the release to the holder's deferred Unlock
				logger.WarnCtx(ctx, "lock %s held for too long (%.0f seconds)", l.lockKey, holdDuration.Seconds())
				l.markLost()
				return
			}

			result, err := l.client.Eval(ctx, renewScript, []string{l.lockKey}, l.lockValue, int(l.ttl.Seconds())).Result()
			if err != nil {
				logger.WarnCtx(ctx, "failed to renew lock %s: %v", l.lockKey, err)
				l.markLost()
				return
			}
			if n, ok := result.(int64); !ok || n == 0 {
				logger.WarnCtx(ctx, "lock %s renewal failed, lock lost", l.lockKey)
				l.markLost()
				return
			}
		}
	}
}

func (l *RedisDistributedLock) markLost() {
	l.mu.Lock()
	l.isHeld = false
	l.mu.Unlock()
}

// localLocks is the single-instance fallback when Redis is not configured
type localLocks struct {
	mu   sync.Mutex
	held map[string]bool
}

var local = &localLocks{held: make(map[string]bool)}

func (m *localLocks) tryAcquire(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[key] {
		return false
	}
	m.held[key] = true
	return true
}

func (m *localLocks) release(key string) {
	m.mu.Lock()
	delete(m.held, key)
	m.mu.Unlock()
}
