package kv

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/angelmondragon/bikeshop-bff/pkg/config"
	"github.com/angelmondragon/bikeshop-bff/pkg/db"
	"github.com/angelmondragon/bikeshop-bff/pkg/logger"
	"github.com/angelmondragon/bikeshop-bff/pkg/redis"
)

// Backend is an opened Store plus the resources it holds.
type Backend struct {
	Store
	Driver string
	DB     *db.Client
	Redis  *redis.Client
}

// Open builds the Store selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Backend, error) {
	b := &Backend{Driver: cfg.Storage.Driver}

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		b.Store = NewMemory()
	case config.StorageDriverFile:
		f, err := NewFile(cfg.Storage.FileDir)
		if err != nil {
			return nil, err
		}
		b.Store = f
	case config.StorageDriverRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, err
		}
		b.Redis = client
		b.Store = NewRedis(client)
	case config.StorageDriverSQL:
		client, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			return nil, err
		}
		b.DB = client
		b.Store = NewSQL(client)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "storage_driver", b.Driver), "cart storage ready")
	}
	return b, nil
}

// Close releases whichever connections the backend opened.
func (b *Backend) Close() error {
	if b == nil {
		return nil
	}
	var err error
	if b.Redis != nil {
		err = multierr.Append(err, b.Redis.Close())
	}
	if b.DB != nil {
		err = multierr.Append(err, b.DB.Close())
	}
	return err
}
