package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/otec/backoffice/internal/domain/shared"
)

// lockEntry represents a held key with its owner token and expiration
type lockEntry struct {
	token     string
	expiresAt time.Time
}

// InMemoryKeyLocker implements KeyLocker using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryKeyLocker struct {
	mu        sync.Mutex
	entries   map[string]lockEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryKeyLocker creates a new in-memory key locker
// It starts a background goroutine to clean up expired entries
func NewInMemoryKeyLocker() *InMemoryKeyLocker {
	l := &InMemoryKeyLocker{
		entries:  make(map[string]lockEntry),
		stopChan: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.cleanupLoop()

	return l
}

// Obtain takes the key for ttl unless an unexpired owner holds it
func (l *InMemoryKeyLocker) Obtain(_ context.Context, key string, ttl time.Duration) (shared.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if e, exists := l.entries[key]; exists && now.Before(e.expiresAt) {
		return nil, shared.ErrLockNotObtained
	}

	token := uuid.NewString()
	l.entries[key] = lockEntry{
		token:     token,
		expiresAt: now.Add(ttl),
	}
	return &inMemoryLock{locker: l, key: key, token: token}, nil
}

// release drops the key only if token still owns it
func (l *InMemoryKeyLocker) release(key, token string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, exists := l.entries[key]; exists && e.token == token {
		delete(l.entries, key)
	}
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (l *InMemoryKeyLocker) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (l *InMemoryKeyLocker) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

func (l *InMemoryKeyLocker) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, e := range l.entries {
		if now.After(e.expiresAt) {
			delete(l.entries, key)
		}
	}
}

// Size returns the number of held keys (for testing/monitoring)
func (l *InMemoryKeyLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

type inMemoryLock struct {
	locker *InMemoryKeyLocker
	key    string
	token  string
}

func (k *inMemoryLock) Release(_ context.Context) error {
	k.locker.release(k.key, k.token)
	return nil
}

// Ensure InMemoryKeyLocker implements KeyLocker
var _ shared.KeyLocker = (*InMemoryKeyLocker)(nil)
