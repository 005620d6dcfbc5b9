package store

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-cbt/internal/config"
	"github.com/stemsi/exstem-cbt/internal/database"
)

// Open connects the backend named by cfg.StoreDriver. The returned func
// releases every connection it opened.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Backend, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory, "":
		m := NewMemoryStore()
		return &Backend{Driver: config.StoreMemory, Results: m, Profiles: m}, func() {}, nil

	case config.StoreSQLite:
		db, err := database.NewSQLite(ctx, cfg, log)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		s := NewSQLiteStore(db)
		return &Backend{Driver: cfg.StoreDriver, Results: s, Profiles: s}, func() { db.Close() }, nil

	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		s := NewPostgresStore(pool)
		return &Backend{Driver: cfg.StoreDriver, Results: s, Profiles: s}, pool.Close, nil

	case config.StoreRedis:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		q := NewRedisQueueStore(rdb)
		b := &Backend{
			Driver:   cfg.StoreDriver,
			Results:  q,
			Profiles: q,
			Postgres: NewPostgresStore(pool),
			Redis:    rdb,
		}
		return b, func() {
			rdb.Close()
			pool.Close()
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
