package usecase

import (
	"context"
	"errors"
	"fmt"

	"bamazon/internal/domain"

	"github.com/sirupsen/logrus"
)

type PurchaseUseCase interface {
	Purchase(ctx context.Context, productID, quantity int) (domain.PurchaseOutcome, error)
}

type purchaseUseCase struct {
	store domain.CatalogStore
	log   *logrus.Logger
}

func NewPurchaseUseCase(store domain.CatalogStore, logger *logrus.Logger) PurchaseUseCase {
	return &purchaseUseCase{
		store: store,
		log:   logger,
	}
}

// Purchase sells quantity units of one product. Validation problems come back
// as errors; everything else, including store failures, is an outcome.
func (uc *purchaseUseCase) Purchase(ctx context.Context, productID, quantity int) (domain.PurchaseOutcome, error) {
	if productID <= 0 {
		uc.log.Warnf("Use Case: Attempted purchase with invalid product ID: %d", productID)
		return domain.PurchaseOutcome{}, fmt.Errorf("%w: product id must be positive, got %d", domain.ErrInvalidInput, productID)
	}
	if quantity < 0 {
		uc.log.Warnf("Use Case: Attempted purchase of product %d with negative quantity: %d", productID, quantity)
		return domain.PurchaseOutcome{}, fmt.Errorf("%w: quantity cannot be negative, got %d", domain.ErrInvalidInput, quantity)
	}

	outcome := domain.PurchaseOutcome{ProductID: productID, Quantity: quantity}

	snapshot, err := uc.store.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			uc.log.Warnf("Use Case: Purchase requested for unknown product %d", productID)
			return domain.PurchaseOutcome{}, err
		}
		uc.log.Errorf("Use Case: Snapshot read failed for product %d: %v", productID, err)
		outcome.Status = domain.PurchaseStoreUnavailable
		outcome.Err = err
		return outcome, nil
	}
	outcome.Available = snapshot.StockQuantity

	if quantity > snapshot.StockQuantity {
		uc.log.Infof("Use Case: Insufficient stock for product %d: requested %d, available %d",
			productID, quantity, snapshot.StockQuantity)
		outcome.Status = domain.PurchaseInsufficientStock
		return outcome, nil
	}

	// The charge uses the snapshot price; only stock is re-checked at write time.
	charge := domain.Charge(snapshot.Price, quantity)
	result, err := uc.store.ApplyProductMutation(ctx, productID,
		func(current domain.Product) bool {
			return current.StockQuantity >= quantity
		},
		func(current domain.Product) domain.Product {
			current.StockQuantity -= quantity
			current.CumulativeSales = domain.AddSales(current.CumulativeSales, charge)
			return current
		},
	)
	if err != nil {
		uc.log.Errorf("Use Case: Mutation failed for product %d: %v", productID, err)
		outcome.Status = domain.PurchaseStoreUnavailable
		outcome.Err = err
		return outcome, nil
	}
	if !result.Applied {
		uc.log.Warnf("Use Case: Stock for product %d changed before the purchase was applied", productID)
		outcome.Status = domain.PurchaseTransactionFailed
		return outcome, nil
	}

	outcome.Status = domain.PurchaseSuccess
	outcome.TotalCharged = charge
	uc.log.Infof("Use Case: Sold %d of product %d for %s", quantity, productID, charge.StringFixed(2))
	return outcome, nil
}
