package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
	// ErrLockNotHeld is returned by Unlock when the lock expired or belongs to another owner.
	ErrLockNotHeld = errors.New("cache: lock not held")
)

// Service defines cache operations interface. Values are stored as JSON,
// except strings which are stored verbatim.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	// TryLock acquires key for owner until ttl elapses.
	TryLock(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)
	// Unlock releases key if owner still holds it.
	Unlock(ctx context.Context, key, owner string) error
}
