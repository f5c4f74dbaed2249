package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores JSON-encoded values under a key prefix. Errors are logged
// and reported as misses; a cache outage only costs a reload from the
// underlying provider.
type RedisCache[T any] struct {
	client *redis.Client
	ctx    context.Context
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisClient connects lazily; call Ping to check reachability.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
	})
}

func NewRedisCache[T any](client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisCache[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache[T]{
		client: client,
		ctx:    context.Background(),
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *RedisCache[T]) key(k string) string {
	return r.prefix + k
}

func (r *RedisCache[T]) Get(key string) (T, bool) {
	var zero T
	val, err := r.client.Get(r.ctx, r.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Redis get failed", "key", key, "error", err)
		}
		return zero, false
	}
	var out T
	if err := json.Unmarshal(val, &out); err != nil {
		r.logger.Warn("Redis value undecodable, dropping", "key", key, "error", err)
		r.Delete(key)
		return zero, false
	}
	return out, true
}

func (r *RedisCache[T]) Set(key string, data T) {
	b, err := json.Marshal(data)
	if err != nil {
		r.logger.Warn("Redis value unencodable", "key", key, "error", err)
		return
	}
	if err := r.client.Set(r.ctx, r.key(key), b, r.ttl).Err(); err != nil {
		r.logger.Warn("Redis set failed", "key", key, "error", err)
	}
}

func (r *RedisCache[T]) Delete(key string) {
	if err := r.client.Del(r.ctx, r.key(key)).Err(); err != nil {
		r.logger.Warn("Redis delete failed", "key", key, "error", err)
	}
}

// Size counts keys under the prefix with SCAN.
func (r *RedisCache[T]) Size() int {
	n := 0
	iter := r.client.Scan(r.ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(r.ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("Redis scan failed", "error", err)
	}
	return n
}

// Ping checks the connection.
func (r *RedisCache[T]) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
