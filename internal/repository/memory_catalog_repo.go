package repository

import (
	"context"
	"fmt"
	"time"

	"bamazon/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	_ domain.CatalogStore  = (*MemoryCatalogRepository)(nil)
	_ domain.CatalogSeeder = (*MemoryCatalogRepository)(nil)
)

// MemoryCatalogRepository keeps the catalog in process. A one-slot semaphore
// guards both tables, so each method is one critical section, and waiting for
// it is bounded by the store timeout like any other backend call.
type MemoryCatalogRepository struct {
	sem         chan struct{}
	timeout     time.Duration
	products    map[int]domain.Product
	departments []domain.Department
	nextProduct int
	log         *logrus.Logger
}

func NewMemoryCatalogRepository(timeout time.Duration, logger *logrus.Logger) *MemoryCatalogRepository {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &MemoryCatalogRepository{
		sem:         make(chan struct{}, 1),
		timeout:     timeout,
		products:    make(map[int]domain.Product),
		nextProduct: 1,
		log:         logger,
	}
}

func (r *MemoryCatalogRepository) acquire(ctx context.Context, op string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, storeUnavailable(op, err)
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	select {
	case r.sem <- struct{}{}:
		return func() { <-r.sem }, nil
	case <-ctx.Done():
		r.log.Errorf("Repository: Timed out waiting for in-memory store (%s)", op)
		return nil, storeUnavailable(op, ctx.Err())
	}
}

func (r *MemoryCatalogRepository) Ping(ctx context.Context) error {
	release, err := r.acquire(ctx, "ping")
	if err != nil {
		return err
	}
	release()
	return nil
}

func (r *MemoryCatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	release, err := r.acquire(ctx, "list products")
	if err != nil {
		return nil, err
	}
	defer release()

	products := make([]domain.Product, 0, len(r.products))
	for id := 1; id < r.nextProduct; id++ {
		if p, ok := r.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (r *MemoryCatalogRepository) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	release, err := r.acquire(ctx, "get product")
	if err != nil {
		return nil, err
	}
	defer release()

	p, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
	}
	return &p, nil
}

func (r *MemoryCatalogRepository) ListDepartmentNames(ctx context.Context) ([]string, error) {
	release, err := r.acquire(ctx, "list departments")
	if err != nil {
		return nil, err
	}
	defer release()

	names := make([]string, 0, len(r.departments))
	for _, d := range r.departments {
		names = append(names, d.Name)
	}
	return names, nil
}

func (r *MemoryCatalogRepository) ApplyProductMutation(ctx context.Context, productID int, predicate domain.ProductPredicate, mutation domain.ProductMutation) (domain.MutationResult, error) {
	release, err := r.acquire(ctx, "apply mutation")
	if err != nil {
		return domain.MutationResult{}, err
	}
	defer release()

	current, ok := r.products[productID]
	if !ok || !predicate(current) {
		return domain.MutationResult{}, nil
	}

	next := mutation(current)
	next.CumulativeSales = domain.Round2(next.CumulativeSales)
	if err := domain.CheckMutation(current, next); err != nil {
		r.log.Errorf("Repository: Refusing mutation for product %d: %v", productID, err)
		return domain.MutationResult{}, err
	}

	current.StockQuantity = next.StockQuantity
	current.CumulativeSales = next.CumulativeSales
	r.products[productID] = current
	return domain.MutationResult{Applied: true, AffectedCount: 1}, nil
}

func (r *MemoryCatalogRepository) InsertDepartment(ctx context.Context, name string, overheadCost decimal.Decimal) (domain.DepartmentInsertResult, error) {
	release, err := r.acquire(ctx, "insert department")
	if err != nil {
		return domain.DepartmentInsertResult{}, err
	}
	defer release()

	for _, d := range r.departments {
		if d.Name == name {
			r.log.Warnf("Repository: Attempted to create department with duplicate name: %s", name)
			return domain.DepartmentInsertResult{}, nil
		}
	}
	dept := domain.Department{
		ID:           len(r.departments) + 1,
		Name:         name,
		OverheadCost: domain.Round2(overheadCost),
	}
	r.departments = append(r.departments, dept)
	return domain.DepartmentInsertResult{Applied: true, Department: dept}, nil
}

func (r *MemoryCatalogRepository) AggregateDepartmentProfit(ctx context.Context) ([]domain.DepartmentProfitRow, error) {
	release, err := r.acquire(ctx, "aggregate profit")
	if err != nil {
		return nil, err
	}
	defer release()

	sales := make(map[string]decimal.Decimal, len(r.departments))
	for _, p := range r.products {
		sales[p.DepartmentName] = sales[p.DepartmentName].Add(p.CumulativeSales)
	}

	report := make([]domain.DepartmentProfitRow, 0, len(r.departments))
	for _, d := range r.departments {
		report = append(report, domain.NewDepartmentProfitRow(d.ID, d.Name, d.OverheadCost, sales[d.Name]))
	}
	return report, nil
}

func (r *MemoryCatalogRepository) SeedDepartment(ctx context.Context, department domain.Department) (*domain.Department, error) {
	res, err := r.InsertDepartment(ctx, department.Name, department.OverheadCost)
	if err != nil {
		return nil, err
	}
	if !res.Applied {
		return nil, fmt.Errorf("%w: department '%s' already exists", domain.ErrInvalidInput, department.Name)
	}
	return &res.Department, nil
}

func (r *MemoryCatalogRepository) SeedProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	release, err := r.acquire(ctx, "insert product")
	if err != nil {
		return nil, err
	}
	defer release()

	seeded := r.addProduct(product)
	return &seeded, nil
}

func (r *MemoryCatalogRepository) addProduct(product domain.Product) domain.Product {
	product.ID = r.nextProduct
	product.Price = domain.Round2(product.Price)
	product.CumulativeSales = domain.Round2(product.CumulativeSales)
	r.products[product.ID] = product
	r.nextProduct++
	return product
}

// SeedCatalog checks every record against the same rules the SQL schema
// enforces before touching either table.
func (r *MemoryCatalogRepository) SeedCatalog(ctx context.Context, departments []domain.Department, products []domain.Product) (domain.SeedResult, error) {
	release, err := r.acquire(ctx, "seed catalog")
	if err != nil {
		return domain.SeedResult{}, err
	}
	defer release()

	if len(r.products) > 0 || len(r.departments) > 0 {
		r.log.Infof("Repository: Catalog already holds %d rows, seed skipped", len(r.products)+len(r.departments))
		return domain.SeedResult{}, nil
	}

	names := make(map[string]bool, len(departments))
	for _, d := range departments {
		if names[d.Name] {
			return domain.SeedResult{}, fmt.Errorf("%w: department '%s' listed twice", domain.ErrInvalidInput, d.Name)
		}
		names[d.Name] = true
		if d.OverheadCost.IsNegative() {
			return domain.SeedResult{}, fmt.Errorf("%w: department '%s' has negative overhead", domain.ErrInvalidInput, d.Name)
		}
	}
	for _, p := range products {
		if p.StockQuantity < 0 || p.Price.IsNegative() || p.CumulativeSales.IsNegative() {
			return domain.SeedResult{}, fmt.Errorf("%w: product '%s' has negative values", domain.ErrInvalidInput, p.Name)
		}
	}

	for _, d := range departments {
		r.departments = append(r.departments, domain.Department{
			ID:           len(r.departments) + 1,
			Name:         d.Name,
			OverheadCost: domain.Round2(d.OverheadCost),
		})
	}
	for _, p := range products {
		r.addProduct(p)
	}
	r.log.Infof("Repository: Seeded %d departments and %d products", len(departments), len(products))
	return domain.SeedResult{Applied: true, Departments: len(departments), Products: len(products)}, nil
}
