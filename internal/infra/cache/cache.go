// Package cache stores synthesized narration audio so that reading the same
// script twice does not call the speech provider again.
package cache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "narration:"

var errMiss = errors.New("cache miss")

type store interface {
	get(ctx context.Context, key string) ([]byte, error)
	set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type AudioCache struct {
	store  store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedis connects to Redis and verifies the connection with a PING.
func NewRedis(ctx context.Context, cfg RedisConfig, logger *slog.Logger) (*AudioCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newCache(&redisStore{rdb: rdb}, cfg.TTL, logger), nil
}

// NewMemory keeps entries in process memory. Entries never expire.
func NewMemory(logger *slog.Logger) *AudioCache {
	return newCache(&memoryStore{entries: make(map[string][]byte)}, 0, logger)
}

func newCache(s store, ttl time.Duration, logger *slog.Logger) *AudioCache {
	return &AudioCache{
		store:  s,
		ttl:    ttl,
		logger: logger.With("component", "audio-cache"),
	}
}

// Key derives a cache key from the parts that determine the audio:
// provider, voice and script text.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

// GetOrCompute returns the cached audio for id, or runs compute and stores
// its result. Concurrent callers for the same id share one compute call.
// The boolean reports a cache hit.
func (c *AudioCache) GetOrCompute(ctx context.Context, id string, compute func() ([]byte, error)) ([]byte, bool, error) {
	key := Key(id)
	if data, ok := c.get(ctx, key); ok {
		return data, true, nil
	}

	val, err, _ := c.group.Do(key, func() (any, error) {
		if data, ok := c.get(ctx, key); ok {
			return data, nil
		}
		data, err := compute()
		if err != nil {
			return nil, err
		}
		if err := c.store.set(ctx, key, data, c.ttl); err != nil {
			c.logger.Error("cache set failed", "key", key, "error", err)
		}
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]byte), false, nil
}

func (c *AudioCache) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.get(ctx, key)
	if err != nil {
		if !errors.Is(err, errMiss) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	c.logger.Debug("cache hit", "key", key, "bytes", len(data))
	return data, true
}

type redisStore struct {
	rdb *redis.Client
}

func (s *redisStore) get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errMiss
	}
	return data, err
}

func (s *redisStore) set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func (s *memoryStore) get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.entries[key]
	if !ok {
		return nil, errMiss
	}
	return data, nil
}

func (s *memoryStore) set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
	return nil
}
