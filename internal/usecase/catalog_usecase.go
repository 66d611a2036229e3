package usecase

import (
	"context"
	"fmt"

	"bamazon/internal/domain"

	"github.com/sirupsen/logrus"
)

type CatalogUseCase interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int) (*domain.Product, error)
	Healthy(ctx context.Context) error
}

type catalogUseCase struct {
	store domain.CatalogStore
	log   *logrus.Logger
}

func NewCatalogUseCase(store domain.CatalogStore, logger *logrus.Logger) CatalogUseCase {
	return &catalogUseCase{
		store: store,
		log:   logger,
	}
}

func (uc *catalogUseCase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := uc.store.ListProducts(ctx)
	if err != nil {
		uc.log.Errorf("Use Case: Repository failed to list products: %v", err)
		return nil, err
	}
	uc.log.Debugf("Use Case: Listed %d products", len(products))
	return products, nil
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	if id <= 0 {
		uc.log.Warnf("Use Case: Attempted to get product with invalid ID: %d", id)
		return nil, fmt.Errorf("%w: product id must be positive, got %d", domain.ErrInvalidInput, id)
	}
	product, err := uc.store.GetProduct(ctx, id)
	if err != nil {
		uc.log.Warnf("Use Case: Repository failed to get product ID %d: %v", id, err)
		return nil, err
	}
	return product, nil
}

func (uc *catalogUseCase) Healthy(ctx context.Context) error {
	return uc.store.Ping(ctx)
}
