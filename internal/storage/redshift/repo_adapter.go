package redshift

import (
	"context"

	"dwh/internal/storage"
)

func init() {
	storage.Register("redshift", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
	storage.RegisterDialect("redshift", Dialect{})
}
