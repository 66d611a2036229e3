package usecase

import (
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"sync"
	"testing"

	"bamazon/internal/domain"
	"bamazon/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newStore(t *testing.T) *repository.MemoryCatalogRepository {
	t.Helper()
	return repository.NewMemoryCatalogRepository(0, quietLogger())
}

func seed(t *testing.T, store *repository.MemoryCatalogRepository, name, dept, price string, stock int) domain.Product {
	t.Helper()
	p, err := store.SeedProduct(context.Background(), domain.Product{
		Name:           name,
		DepartmentName: dept,
		Price:          decimal.RequireFromString(price),
		StockQuantity:  stock,
	})
	require.NoError(t, err)
	return *p
}

// failingStore fails every call with a store-unavailable error.
type failingStore struct {
	domain.CatalogStore
	failGet bool
}

var errDown = errors.New("connection refused")

func (f *failingStore) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	if f.failGet {
		return nil, errors.Join(domain.ErrStoreUnavailable, errDown)
	}
	return f.CatalogStore.GetProduct(ctx, id)
}

func (f *failingStore) ApplyProductMutation(context.Context, int, domain.ProductPredicate, domain.ProductMutation) (domain.MutationResult, error) {
	return domain.MutationResult{}, errors.Join(domain.ErrStoreUnavailable, errDown)
}

func (f *failingStore) ListDepartmentNames(context.Context) ([]string, error) {
	return nil, errors.Join(domain.ErrStoreUnavailable, errDown)
}

func (f *failingStore) AggregateDepartmentProfit(context.Context) ([]domain.DepartmentProfitRow, error) {
	return nil, errors.Join(domain.ErrStoreUnavailable, errDown)
}

// racingStore lets another buyer drain the stock between snapshot and write.
type racingStore struct {
	*repository.MemoryCatalogRepository
	once sync.Once
}

func (r *racingStore) ApplyProductMutation(ctx context.Context, id int, pred domain.ProductPredicate, mut domain.ProductMutation) (domain.MutationResult, error) {
	r.once.Do(func() {
		_, _ = r.MemoryCatalogRepository.ApplyProductMutation(ctx, id,
			func(domain.Product) bool { return true },
			func(p domain.Product) domain.Product { p.StockQuantity = 0; return p })
	})
	return r.MemoryCatalogRepository.ApplyProductMutation(ctx, id, pred, mut)
}

// racingDepartmentStore hides the name from the pre-check, then inserts it first.
type racingDepartmentStore struct {
	*repository.MemoryCatalogRepository
}

func (r *racingDepartmentStore) ListDepartmentNames(context.Context) ([]string, error) {
	return []string{}, nil
}

func (r *racingDepartmentStore) InsertDepartment(ctx context.Context, name string, cost decimal.Decimal) (domain.DepartmentInsertResult, error) {
	_, _ = r.MemoryCatalogRepository.InsertDepartment(ctx, name, cost)
	return r.MemoryCatalogRepository.InsertDepartment(ctx, name, cost)
}

func TestPurchase_Success(t *testing.T) {
	store := newStore(t)
	p := seed(t, store, "TV", "Electronics", "19.99", 10)
	uc := NewPurchaseUseCase(store, quietLogger())

	outcome, err := uc.Purchase(context.Background(), p.ID, 3)
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, "59.97", outcome.TotalCharged.StringFixed(2))
	assert.Equal(t, "Your total is $59.97", outcome.Message())

	got, err := store.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.StockQuantity)
	assert.Equal(t, "59.97", got.CumulativeSales.StringFixed(2))
}

func TestPurchase_InsufficientStock(t *testing.T) {
	store := newStore(t)
	p := seed(t, store, "TV", "Electronics", "100", 2)
	uc := NewPurchaseUseCase(store, quietLogger())

	outcome, err := uc.Purchase(context.Background(), p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseInsufficientStock, outcome.Status)
	assert.Equal(t, 2, outcome.Available)

	got, _ := store.GetProduct(context.Background(), p.ID)
	assert.Equal(t, 2, got.StockQuantity)
	assert.True(t, got.CumulativeSales.IsZero())
}

func TestPurchase_ZeroQuantity(t *testing.T) {
	store := newStore(t)
	p := seed(t, store, "TV", "Electronics", "100", 4)
	uc := NewPurchaseUseCase(store, quietLogger())

	outcome, err := uc.Purchase(context.Background(), p.ID, 0)
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
	assert.Equal(t, "0.00", outcome.TotalCharged.StringFixed(2))

	got, _ := store.GetProduct(context.Background(), p.ID)
	assert.Equal(t, 4, got.StockQuantity)
}

func TestPurchase_IdenticalCallsDoubleTheEffect(t *testing.T) {
	store := newStore(t)
	p := seed(t, store, "Lamp", "Home", "12.50", 10)
	uc := NewPurchaseUseCase(store, quietLogger())

	for i := 0; i < 2; i++ {
		outcome, err := uc.Purchase(context.Background(), p.ID, 2)
		require.NoError(t, err)
		require.True(t, outcome.Succeeded())
	}

	got, _ := store.GetProduct(context.Background(), p.ID)
	assert.Equal(t, 6, got.StockQuantity)
	assert.Equal(t, "50.00", got.CumulativeSales.StringFixed(2))
}

func TestPurchase_ValidationErrors(t *testing.T) {
	store := newStore(t)
	p := seed(t, store, "TV", "Electronics", "100", 4)
	uc := NewPurchaseUseCase(store, quietLogger())

	_, err := uc.Purchase(context.Background(), p.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Purchase(context.Background(), 0, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Purchase(context.Background(), 404, 1)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestPurchase_StoreUnavailable(t *testing.T) {
	store := newStore(t)
	p := seed(t, store, "TV", "Electronics", "100", 4)

	for _, failGet := range []bool{true, false} {
		uc := NewPurchaseUseCase(&failingStore{CatalogStore: store, failGet: failGet}, quietLogger())
		outcome, err := uc.Purchase(context.Background(), p.ID, 1)
		require.NoError(t, err)
		assert.Equal(t, domain.PurchaseStoreUnavailable, outcome.Status)
		assert.ErrorIs(t, outcome.Err, domain.ErrStoreUnavailable)
	}

	got, _ := store.GetProduct(context.Background(), p.ID)
	assert.Equal(t, 4, got.StockQuantity)
}

func TestPurchase_TransactionFailedWhenStockChanges(t *testing.T) {
	store := newStore(t)
	p := seed(t, store, "TV", "Electronics", "100", 5)
	uc := NewPurchaseUseCase(&racingStore{MemoryCatalogRepository: store}, quietLogger())

	outcome, err := uc.Purchase(context.Background(), p.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, domain.PurchaseTransactionFailed, outcome.Status)

	got, _ := store.GetProduct(context.Background(), p.ID)
	assert.Equal(t, 0, got.StockQuantity)
	assert.True(t, got.CumulativeSales.IsZero())
}

func TestPurchase_ConcurrentLastUnits(t *testing.T) {
	store := newStore(t)
	p := seed(t, store, "TV", "Electronics", "100", 5)
	uc := NewPurchaseUseCase(store, quietLogger())

	var wg sync.WaitGroup
	outcomes := make([]domain.PurchaseOutcome, 2)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcome, err := uc.Purchase(context.Background(), p.ID, 5)
			assert.NoError(t, err)
			outcomes[i] = outcome
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, o := range outcomes {
		if o.Succeeded() {
			successes++
		} else {
			assert.Contains(t, []domain.PurchaseStatus{domain.PurchaseInsufficientStock, domain.PurchaseTransactionFailed}, o.Status)
		}
	}
	assert.Equal(t, 1, successes)

	got, _ := store.GetProduct(context.Background(), p.ID)
	assert.Equal(t, 0, got.StockQuantity)
	assert.Equal(t, "500.00", got.CumulativeSales.StringFixed(2))
}

func TestPurchase_SalesEqualSumOfCharges(t *testing.T) {
	store := newStore(t)
	p := seed(t, store, "Widget", "Tools", "0.333", 1000)
	uc := NewPurchaseUseCase(store, quietLogger())

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total = decimal.Zero
	)
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			outcome, err := uc.Purchase(context.Background(), p.ID, qty)
			assert.NoError(t, err)
			if outcome.Succeeded() {
				mu.Lock()
				total = total.Add(outcome.TotalCharged)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	got, _ := store.GetProduct(context.Background(), p.ID)
	assert.GreaterOrEqual(t, got.StockQuantity, 0)
	assert.Equal(t, total.StringFixed(2), got.CumulativeSales.StringFixed(2))
}

func TestRegisterDepartment(t *testing.T) {
	store := newStore(t)
	uc := NewDepartmentUseCase(store, quietLogger())
	ctx := context.Background()

	outcome, err := uc.RegisterDepartment(ctx, "  Electronics ", 200)
	require.NoError(t, err)
	require.False(t, outcome.Rejected())
	assert.Equal(t, "Electronics", outcome.Department.Name)

	outcome, err = uc.RegisterDepartment(ctx, "Electronics", 10)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationDuplicateName, outcome.Status)
	assert.True(t, outcome.Rejected())

	outcome, err = uc.RegisterDepartment(ctx, "Toys", 500.00)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationSuccess, outcome.Status)
	assert.Equal(t, "500.00", outcome.Department.OverheadCost.StringFixed(2))

	outcome, err = uc.RegisterDepartment(ctx, "Garden", 12.345)
	require.NoError(t, err)
	assert.Equal(t, "12.35", outcome.Department.OverheadCost.StringFixed(2))

	names, err := uc.ListDepartmentNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Toys", "Garden"}, names)
}

func TestRegisterDepartment_InvalidInput(t *testing.T) {
	uc := NewDepartmentUseCase(newStore(t), quietLogger())

	tests := []struct {
		name string
		dept string
		cost float64
	}{
		{"empty", "", 1},
		{"whitespace", "   ", 1},
		{"too long", strings.Repeat("x", 101), 1},
		{"negative cost", "Toys", -0.01},
		{"nan", "Toys", math.NaN()},
		{"infinite", "Toys", math.Inf(1)},
		{"max safe integer", "Toys", float64(domain.MaxSafeInteger)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := uc.RegisterDepartment(context.Background(), tt.dept, tt.cost)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Equal(t, domain.RegistrationInvalidInput, outcome.Status)
			assert.NotEmpty(t, outcome.Reason)
		})
	}

	outcome, err := uc.RegisterDepartment(context.Background(), strings.Repeat("é", 100), 0)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationSuccess, outcome.Status)
}

func TestRegisterDepartment_RaceLost(t *testing.T) {
	uc := NewDepartmentUseCase(&racingDepartmentStore{newStore(t)}, quietLogger())

	outcome, err := uc.RegisterDepartment(context.Background(), "Toys", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationRaceLost, outcome.Status)
}

func TestRegisterDepartment_StoreUnavailable(t *testing.T) {
	uc := NewDepartmentUseCase(&failingStore{CatalogStore: newStore(t)}, quietLogger())

	outcome, err := uc.RegisterDepartment(context.Background(), "Toys", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.RegistrationStoreUnavailable, outcome.Status)
	assert.ErrorIs(t, outcome.Err, domain.ErrStoreUnavailable)
}

func TestDepartmentReport(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	uc := NewDepartmentUseCase(store, quietLogger())
	buy := NewPurchaseUseCase(store, quietLogger())

	_, err := uc.RegisterDepartment(ctx, "Electronics", 200)
	require.NoError(t, err)
	_, err = uc.RegisterDepartment(ctx, "Toys", 500)
	require.NoError(t, err)
	tv := seed(t, store, "TV", "Electronics", "250", 5)

	outcome, err := buy.Purchase(ctx, tv.ID, 3)
	require.NoError(t, err)
	require.True(t, outcome.Succeeded())

	report, err := uc.DepartmentReport(ctx)
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, "750.00", report[0].TotalProductSales.StringFixed(2))
	assert.Equal(t, "550.00", report[0].TotalProfit.StringFixed(2))
	assert.Equal(t, "Toys", report[1].DepartmentName)
	assert.Equal(t, "-500.00", report[1].TotalProfit.StringFixed(2))

	_, err = NewDepartmentUseCase(&failingStore{CatalogStore: store}, quietLogger()).DepartmentReport(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestCatalogUseCase(t *testing.T) {
	store := newStore(t)
	p := seed(t, store, "TV", "Electronics", "100", 1)
	uc := NewCatalogUseCase(store, quietLogger())
	ctx := context.Background()

	products, err := uc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 1)

	got, err := uc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "TV", got.Name)

	_, err = uc.GetProduct(ctx, -3)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.NoError(t, uc.Healthy(ctx))
}
