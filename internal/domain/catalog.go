package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductPredicate is evaluated against the locked, current record inside
// ApplyProductMutation. It must not have side effects.
type ProductPredicate func(current Product) bool

// ProductMutation returns the next state of a record. Only StockQuantity and
// CumulativeSales are persisted; every other field is ignored.
type ProductMutation func(current Product) Product

type MutationResult struct {
	Applied       bool `json:"applied"`
	AffectedCount int  `json:"affected_count"`
}

type DepartmentInsertResult struct {
	Applied    bool       `json:"applied"`
	Department Department `json:"department"`
}

// CatalogStore is the durable product and department ledger. Every method is
// bounded by the store's own timeout; a failed call has no effect and wraps
// ErrStoreUnavailable.
type CatalogStore interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	ListDepartmentNames(ctx context.Context) ([]string, error)
	ApplyProductMutation(ctx context.Context, productID int, predicate ProductPredicate, mutation ProductMutation) (MutationResult, error)
	InsertDepartment(ctx context.Context, name string, overheadCost decimal.Decimal) (DepartmentInsertResult, error)
	AggregateDepartmentProfit(ctx context.Context) ([]DepartmentProfitRow, error)
	Ping(ctx context.Context) error
}

type SeedResult struct {
	Applied     bool
	Departments int
	Products    int
}

// CatalogSeeder loads pre-existing catalog data. Products are never created
// through the purchase path. SeedCatalog writes everything or nothing, and
// only into an empty catalog; Applied is false when rows already exist.
type CatalogSeeder interface {
	SeedCatalog(ctx context.Context, departments []Department, products []Product) (SeedResult, error)
}

// CheckMutation enforces the per-record invariants on a proposed write.
func CheckMutation(before, after Product) error {
	if after.StockQuantity < 0 {
		return fmt.Errorf("%w: product %d stock would become %d", ErrInvariantViolation, before.ID, after.StockQuantity)
	}
	if after.CumulativeSales.LessThan(before.CumulativeSales) {
		return fmt.Errorf("%w: product %d sales would decrease from %s to %s",
			ErrInvariantViolation, before.ID, before.CumulativeSales.StringFixed(2), after.CumulativeSales.StringFixed(2))
	}
	return nil
}
