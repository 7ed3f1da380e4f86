package cache

import (
	"fmt"

	"github.com/otec/backoffice/internal/domain/shared"
	"github.com/otec/backoffice/internal/infrastructure/config"
	"go.uber.org/zap"
)

// KeyLockerFactory creates key lockers based on configuration
type KeyLockerFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// KeyLockerFactoryOption is a functional option for configuring the factory
type KeyLockerFactoryOption func(*KeyLockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) KeyLockerFactoryOption {
	return func(f *KeyLockerFactory) {
		f.logger = logger
	}
}

// NewKeyLockerFactory creates a new factory
func NewKeyLockerFactory(cfg config.RedisConfig, opts ...KeyLockerFactoryOption) *KeyLockerFactory {
	f := &KeyLockerFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: !cfg.RequireLocker,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateLocker creates a Redis-backed locker, falling back to in-memory
// when Redis is not reachable and fallback is allowed
func (f *KeyLockerFactory) CreateLocker() (shared.KeyLocker, error) {
	locker, err := NewRedisKeyLocker(f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis key locker", zap.String("addr", f.redisConfig.Addr()))
		return locker, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for key locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory key locker. "+
		"Sync runs are then only exclusive within this instance.",
		zap.Error(err),
	)
	return NewInMemoryKeyLocker(), nil
}
