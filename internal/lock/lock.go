// Package lock serializes load-simulate-persist runs against the same
// universe: an in-process mutex-map registry for same-instance callers,
// plus a Redis-backed distributed lock for callers on different instances.
// Per §5, at most one of these need be used at a time — either is
// sufficient to satisfy the no-interleaved-writes invariant.
package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Registry is a thread-safe in-process map of per-universe mutexes, held for
// the duration of one load+simulate+persist cycle.
type Registry struct {
	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	waiting map[string]int
}

// NewRegistry builds an empty in-process lock Registry.
func NewRegistry() *Registry {
	return &Registry{
		locks:   make(map[string]*sync.Mutex),
		waiting: make(map[string]int),
	}
}

// Acquire blocks until the exclusive lock for universeID is held and returns
// a release function the caller must call exactly once.
func (r *Registry) Acquire(universeID string) func() {
	r.mu.Lock()
	m, ok := r.locks[universeID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[universeID] = m
	}
	r.waiting[universeID]++
	r.mu.Unlock()

	m.Lock()

	return func() {
		m.Unlock()
		r.mu.Lock()
		r.waiting[universeID]--
		if r.waiting[universeID] <= 0 {
			delete(r.locks, universeID)
			delete(r.waiting, universeID)
		}
		r.mu.Unlock()
	}
}

// DistributedLock acquires a short-lived exclusive lock on a Redis key via
// SET NX with an expiry, for deployments running more than one instance.
type DistributedLock struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDistributedLock builds a DistributedLock using client, with each lock
// held for at most ttl before it auto-expires.
func NewDistributedLock(client *redis.Client, ttl time.Duration) *DistributedLock {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DistributedLock{client: client, ttl: ttl}
}

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Acquire attempts to take the lock for universeID, retrying with backoff
// until ctx is done. Returns a release function; callers must call it to
// free the lock before ttl elapses, or the lock self-expires.
func (d *DistributedLock) Acquire(ctx context.Context, universeID string) (func(context.Context) error, error) {
	key := lockKey(universeID)
	token := uuid.NewString()

	backoff := 25 * time.Millisecond
	for {
		ok, err := d.client.SetNX(ctx, key, token, d.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquiring distributed lock for %s: %w", universeID, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 500*time.Millisecond {
			backoff *= 2
		}
	}

	release := func(releaseCtx context.Context) error {
		return d.client.Eval(releaseCtx, releaseScript, []string{key}, token).Err()
	}
	return release, nil
}

func lockKey(universeID string) string {
	return "cosmos:lock:universe:" + universeID
}
