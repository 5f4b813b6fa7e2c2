package lease

import (
	"context"
	"sync"
	"time"
)

// sweepInterval is the number of acquisitions between full sweeps of
// expired entries. Keys leased once and never touched again would
// otherwise accumulate for the lifetime of the process.
const sweepInterval = 256

// MemoryLocker keeps leases in a process-local map. Suitable for tests
// and single-node deployments; multi-worker deployments share the
// Postgres-backed locker instead.
type MemoryLocker struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
	ops     int
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (l *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.expires[key]; ok {
		if now.Before(until) {
			return false, nil
		}
		delete(l.expires, key)
	}

	l.ops++
	if l.ops%sweepInterval == 0 {
		for k, until := range l.expires {
			if !now.Before(until) {
				delete(l.expires, k)
			}
		}
	}

	l.expires[key] = now.Add(ttl)
	return true, nil
}
