package kv

import (
	"context"
	"errors"

	"github.com/angelmondragon/bikeshop-bff/pkg/redis"
)

// Redis stores values as plain redis strings without expiry.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.client.Get(ctx, r.client.Key(key))
	if errors.Is(err, redis.ErrNil) {
		return nil, ErrNotFound
	}
	return v, err
}

func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.client.Key(key), value)
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
