package shared

import (
	"context"
	"errors"
	"time"
)

// ErrLockNotObtained is returned when another owner holds the key
var ErrLockNotObtained = errors.New("lock not obtained")

// Lock is a held key lock
type Lock interface {
	// Release gives the key back. Releasing an expired lock is not an error.
	Release(ctx context.Context) error
}

// KeyLocker grants exclusive, expiring ownership of a key
type KeyLocker interface {
	// Obtain takes the key for ttl, or returns ErrLockNotObtained when it is held
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)

	// Close closes the locker and releases resources
	Close() error
}

// LockConfig holds configuration for key locking
type LockConfig struct {
	// TTL bounds how long a crashed owner can keep a key
	// Default: 5 minutes
	TTL time.Duration
}

// DefaultLockConfig returns the default lock configuration
func DefaultLockConfig() LockConfig {
	return LockConfig{
		TTL: 5 * time.Minute,
	}
}
