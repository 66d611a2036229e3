// Package app wires configuration into a ready catalog store and use cases.
package app

import (
	"context"
	"fmt"

	"bamazon/config"
	"bamazon/internal/domain"
	"bamazon/internal/repository"
	"bamazon/internal/seed"
	"bamazon/internal/usecase"
	"bamazon/pkg/db"

	"github.com/sirupsen/logrus"
)

// Store is a catalog backend that can also be seeded.
type Store interface {
	domain.CatalogStore
	domain.CatalogSeeder
}

type UseCases struct {
	Catalog    usecase.CatalogUseCase
	Purchase   usecase.PurchaseUseCase
	Department usecase.DepartmentUseCase
}

func NewUseCases(store domain.CatalogStore, logger *logrus.Logger) UseCases {
	return UseCases{
		Catalog:    usecase.NewCatalogUseCase(store, logger),
		Purchase:   usecase.NewPurchaseUseCase(store, logger),
		Department: usecase.NewDepartmentUseCase(store, logger),
	}
}

// OpenStore connects and migrates the configured backend. The returned close
// function releases the connection pool, if any.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (Store, func() error, error) {
	if cfg.DatabaseDriver == config.DriverMemory {
		logger.Warn("Using in-memory catalog store; data is lost on exit")
		return repository.NewMemoryCatalogRepository(cfg.StoreTimeout, logger), func() error { return nil }, nil
	}

	database, err := db.Connect(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to %s: %w", cfg.DatabaseDriver, err)
	}
	logger.Infof("Database connection established (%s)", cfg.DatabaseDriver)

	var repo *repository.SQLCatalogRepository
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		repo = repository.NewPostgresCatalogRepository(database, cfg.StoreTimeout, logger)
	case config.DriverSQLite:
		repo = repository.NewSQLiteCatalogRepository(database, cfg.StoreTimeout, logger)
	default:
		_ = database.Close()
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	if err := repo.Migrate(ctx); err != nil {
		_ = database.Close()
		return nil, nil, fmt.Errorf("migrating schema: %w", err)
	}
	return repo, database.Close, nil
}

// SeedFromFile loads path into store when the store is empty.
func SeedFromFile(ctx context.Context, store Store, path string, logger *logrus.Logger) (seed.Result, error) {
	catalog, err := seed.Load(path)
	if err != nil {
		return seed.Result{}, err
	}
	return seed.Apply(ctx, store, catalog, logger)
}
