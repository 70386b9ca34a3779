package kv

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bikeshop-bff/pkg/config"
	"github.com/angelmondragon/bikeshop-bff/pkg/db"
	"github.com/angelmondragon/bikeshop-bff/pkg/migrate"
	"github.com/angelmondragon/bikeshop-bff/pkg/redis"
)

// exerciseStore runs the same contract against every backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Get(ctx, "shoppingCart")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "shoppingCart", []byte(`["a","b"]`)))
	got, err := store.Get(ctx, "shoppingCart")
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, string(got))

	require.NoError(t, store.Set(ctx, "shoppingCart", []byte(`[]`)))
	got, err = store.Get(ctx, "shoppingCart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))

	_, err = store.Get(ctx, "other")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, store.Ping(ctx))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte(`["a"]`)
	require.NoError(t, m.Set(ctx, "k", value))
	value[2] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `["a"]`, string(got))
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemory().Set(ctx, "k", nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)
	exerciseStore(t, f)

	_, err = os.Stat(filepath.Join(dir, "shoppingCart.json"))
	require.NoError(t, err)

	leftovers, err := filepath.Glob(filepath.Join(dir, ".kv-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStoreEscapesKeys(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, f.Set(context.Background(), "../escape", []byte("x")))
	_, err = os.Stat(filepath.Join(dir, "..%2Fescape.json"))
	require.NoError(t, err)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	exerciseStore(t, NewRedis(redis.NewFromRaw(raw)))

	stored, err := mr.Get("shoppingCart")
	require.NoError(t, err)
	assert.Equal(t, `[]`, stored)
}

func TestRedisStoreNamespace(t *testing.T) {
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })

	store := NewRedis(redis.NewFromRaw(raw).WithNamespace("bikeshop"))
	require.NoError(t, store.Set(context.Background(), "shoppingCart", []byte(`["a"]`)))
	assert.True(t, mr.Exists("bikeshop:shoppingCart"))
}

func TestSQLStore(t *testing.T) {
	ctx := context.Background()
	client, err := db.New(ctx, config.DBConfig{Driver: config.DBDriverSQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.SQL()
	require.NoError(t, err)
	require.NoError(t, migrate.Up(ctx, sqlDB, client.Driver()))

	exerciseStore(t, NewSQL(client))

	var count int64
	require.NoError(t, client.DB().Model(&Entry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOpenMemoryAndFile(t *testing.T) {
	ctx := context.Background()

	b, err := Open(ctx, &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverMemory}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, b.Store)
	assert.NoError(t, b.Close())

	b, err = Open(ctx, &config.Config{Storage: config.StorageConfig{Driver: config.StorageDriverFile, FileDir: t.TempDir()}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &File{}, b.Store)
	assert.NoError(t, b.Close())

	_, err = Open(ctx, &config.Config{Storage: config.StorageConfig{Driver: "etcd"}}, nil)
	assert.Error(t, err)
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.StorageDriverRedis},
		Redis:   config.RedisConfig{Address: mr.Addr()},
	}
	b, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, b.Redis)
	exerciseStore(t, b)
	assert.NoError(t, b.Close())
}
