package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/storage"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

// OpenStore opens the profile storage selected by cfg. The returned close
// function is never nil.
func OpenStore(ctx context.Context, cfg config.Config) (storage.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemoryStore(), noop, nil

	case config.StoragePostgres:
		if cfg.PostgresURL == "" {
			return nil, noop, errors.New("POSTGRES_URL is required for postgres storage")
		}
		db, err := telemetry.OpenDB(cfg.PostgresURL)
		if err != nil {
			return nil, noop, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, noop, fmt.Errorf("connect to database: %w", err)
		}
		return storage.NewPostgresStore(db, cfg.Profile), db.Close, nil

	default:
		fs, err := storage.NewFileStore(filepath.Join(cfg.StorageDir, cfg.Profile))
		if err != nil {
			return nil, noop, fmt.Errorf("open profile storage: %w", err)
		}
		return fs, noop, nil
	}
}
