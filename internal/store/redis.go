package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisBackend stores each partition as one hash so Clear is a single DEL.
// Every write pushes the partition expiry forward by TTL.
type RedisBackend struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisBackend(rdb *redis.Client, prefix string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "portal:storage"
	}
	return &RedisBackend{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisBackend) hashKey(partition string) string { return r.prefix + ":" + partition }

func (r *RedisBackend) Set(ctx context.Context, partition, key string, value []byte) error {
	hk := r.hashKey(partition)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, hk, key, value)
	if r.ttl > 0 {
		pipe.Expire(ctx, hk, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "redis hset")
}

func (r *RedisBackend) Get(ctx context.Context, partition, key string) ([]byte, bool, error) {
	v, err := r.rdb.HGet(ctx, r.hashKey(partition), key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis hget")
	}
	return v, true, nil
}

func (r *RedisBackend) Delete(ctx context.Context, partition, key string) error {
	return errors.Wrap(r.rdb.HDel(ctx, r.hashKey(partition), key).Err(), "redis hdel")
}

func (r *RedisBackend) Clear(ctx context.Context, partition string) error {
	return errors.Wrap(r.rdb.Del(ctx, r.hashKey(partition)).Err(), "redis del")
}

func (r *RedisBackend) Keys(ctx context.Context, partition string) ([]string, error) {
	keys, err := r.rdb.HKeys(ctx, r.hashKey(partition)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "redis hkeys")
	}
	return keys, nil
}
