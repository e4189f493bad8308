// Package infra selects the storage backend named in the configuration.
package infra

import (
	"context"
	"fmt"

	bq "github.com/dvloznov/efinance/internal/bigquery"
	"github.com/dvloznov/efinance/internal/config"
	infraBQ "github.com/dvloznov/efinance/internal/infra/bigquery"
	"github.com/dvloznov/efinance/internal/infra/inmemory"
)

// Store is every repository the commands use, behind one Close.
type Store interface {
	bq.RecordRepository
	bq.UserRepository
	bq.ImportRunRepository
}

var (
	_ Store = (*infraBQ.BigQueryRepository)(nil)
	_ Store = (*inmemory.Store)(nil)
)

// Open returns the backend for cfg.Store.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store {
	case config.StoreBigQuery:
		repo, err := infraBQ.NewBigQueryRepository(ctx, cfg.GCPProject, cfg.BQDataset)
		if err != nil {
			return nil, fmt.Errorf("Open: %w", err)
		}
		return repo, nil
	case config.StoreMemory:
		return inmemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("Open: unknown store %q", cfg.Store)
	}
}
