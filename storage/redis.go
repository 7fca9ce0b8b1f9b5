package storage

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/agentuity/go-recoverable/vsource"
)

// RedisSlot is a typed single-value slot stored under one Redis key.
// The caller owns the redis.Client lifecycle.
type RedisSlot[T any] struct {
	client *redis.Client
	key    string
	cfg    config
}

var _ vsource.Storage[int] = (*RedisSlot[int])(nil)

// NewRedisSlot returns the slot stored under key, optionally namespaced with
// WithPrefix. Values never expire; recoverability is the point.
func NewRedisSlot[T any](client *redis.Client, key string, opts ...Option) *RedisSlot[T] {
	return &RedisSlot[T]{client: client, key: key, cfg: applyOptions(opts)}
}

func (r *RedisSlot[T]) redisKey() string {
	if r.cfg.prefix == "" {
		return r.key
	}
	return r.cfg.prefix + ":" + r.key
}

func (r *RedisSlot[T]) Save(ctx context.Context, v *T) error {
	data, err := msgpack.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "storage: marshal value")
	}
	qctx, cancel := r.cfg.queryCtx(ctx)
	defer cancel()
	if err := r.client.Set(qctx, r.redisKey(), data, 0).Err(); err != nil {
		return errors.Wrapf(err, "storage: save slot %s", r.redisKey())
	}
	return nil
}

func (r *RedisSlot[T]) Recover(ctx context.Context) (*T, error) {
	qctx, cancel := r.cfg.queryCtx(ctx)
	defer cancel()
	data, err := r.client.Get(qctx, r.redisKey()).Bytes()
	if err == redis.Nil {
		return nil, ErrNotSaved
	}
	if err != nil {
		return nil, errors.Wrapf(err, "storage: recover slot %s", r.redisKey())
	}
	var v T
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrapf(err, "storage: unmarshal slot %s", r.redisKey())
	}
	return &v, nil
}
