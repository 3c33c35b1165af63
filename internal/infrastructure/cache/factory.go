package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Factory builds Redis-backed stores from configuration and falls back to
// in-process stores when Redis is not configured or unreachable.
type Factory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool

	mu     sync.Mutex
	client *redis.Client
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Enabled reports whether a Redis host is configured
func (f *Factory) Enabled() bool {
	return f.redisConfig.Host != ""
}

// Client returns a connected Redis client, dialing on first use
func (f *Factory) Client(ctx context.Context) (*redis.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client != nil {
		return f.client, nil
	}
	if !f.Enabled() {
		return nil, fmt.Errorf("redis is not configured")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         f.redisConfig.Addr(),
		Password:     f.redisConfig.Password,
		DB:           f.redisConfig.DB,
		PoolSize:     10,
		MinIdleConns: 3,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", f.redisConfig.Addr(), err)
	}

	f.client = client
	return client, nil
}

// CreateTokenBlacklist returns a Redis token blacklist when Redis is reachable,
// otherwise an in-memory one if fallback is allowed
func (f *Factory) CreateTokenBlacklist(ctx context.Context) (auth.TokenBlacklist, error) {
	if !f.Enabled() {
		f.logger.Info("redis not configured, using in-memory token blacklist")
		return auth.NewInMemoryTokenBlacklist(), nil
	}

	client, err := f.Client(ctx)
	if err == nil {
		f.logger.Info("using Redis token blacklist", zap.String("addr", f.redisConfig.Addr()))
		return auth.NewRedisTokenBlacklist(client), nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for token revocation but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory token blacklist. "+
		"Revocations will not be shared between instances.",
		zap.Error(err),
	)
	return auth.NewInMemoryTokenBlacklist(), nil
}

// Close closes the shared Redis client if one was opened
func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client == nil {
		return nil
	}
	err := f.client.Close()
	f.client = nil
	return err
}
