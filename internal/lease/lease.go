package lease

import (
	"context"
	"time"
)

// Locker is a TTL-leased mutual-exclusion primitive. Acquire returns
// true when the caller newly obtained the lease for key, false when the
// lease is currently held by someone else. There is no explicit release:
// a lease expires on its own after ttl, which bounds how long a crashed
// holder can keep a key locked.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
