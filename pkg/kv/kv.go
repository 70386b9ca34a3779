// Package kv holds the key-value backends the cart is persisted to. Every backend stores
// an opaque byte value under a string key, which is all the device storage of the mobile
// app offers as well.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when nothing was ever written under the key.
var ErrNotFound = errors.New("kv: key not found")

// Store is a persistent key-value backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Ping(ctx context.Context) error
}
