package storage

import (
	"context"
	"fmt"

	"github.com/jhoicas/ventas-xp/internal/domain/repository"
	"github.com/jhoicas/ventas-xp/pkg/config"
)

// Open construye el KeyValueStore según STORAGE_DRIVER. close libera recursos (Redis).
func Open(ctx context.Context, cfg config.StorageConfig) (kv repository.KeyValueStore, close func() error, err error) {
	noop := func() error { return nil }
	switch cfg.Driver {
	case config.StorageMemory:
		return NewMemoryStore(), noop, nil
	case config.StorageRedis:
		rdb, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisStore(rdb, cfg.RedisPrefix), rdb.Close, nil
	case config.StorageFile, "":
		fs, err := NewFileStore(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, noop, nil
	default:
		return nil, nil, fmt.Errorf("storage: driver desconocido %q", cfg.Driver)
	}
}
