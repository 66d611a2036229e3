package repository

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bamazon/internal/domain"
	"bamazon/pkg/db"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStore interface {
	domain.CatalogStore
	domain.CatalogSeeder
	SeedDepartment(ctx context.Context, department domain.Department) (*domain.Department, error)
	SeedProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupSQLiteStore(t *testing.T) *SQLCatalogRepository {
	t.Helper()
	conn, err := db.Connect(context.Background(), db.DriverSQLite, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	repo := NewSQLiteCatalogRepository(conn, 0, quietLogger())
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

// forEachStore runs fn against every backend that needs no external server.
func forEachStore(t *testing.T, fn func(t *testing.T, store testStore)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryCatalogRepository(0, quietLogger()))
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, setupSQLiteStore(t))
	})
}

func seedProduct(t *testing.T, store testStore, name, dept, price string, stock int, sales string) domain.Product {
	t.Helper()
	p, err := store.SeedProduct(context.Background(), domain.Product{
		Name:            name,
		DepartmentName:  dept,
		Price:           decimal.RequireFromString(price),
		StockQuantity:   stock,
		CumulativeSales: decimal.RequireFromString(sales),
	})
	require.NoError(t, err)
	return *p
}

func seedDepartment(t *testing.T, store testStore, name, overhead string) domain.Department {
	t.Helper()
	d, err := store.SeedDepartment(context.Background(), domain.Department{
		Name:         name,
		OverheadCost: decimal.RequireFromString(overhead),
	})
	require.NoError(t, err)
	return *d
}

func decrementBy(qty int, price decimal.Decimal) (domain.ProductPredicate, domain.ProductMutation) {
	return func(p domain.Product) bool { return p.StockQuantity >= qty },
		func(p domain.Product) domain.Product {
			p.StockQuantity -= qty
			p.CumulativeSales = domain.AddSales(p.CumulativeSales, domain.Charge(price, qty))
			return p
		}
}

func TestCatalog_ListAndGetProducts(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx := context.Background()
		tv := seedProduct(t, store, "TV", "Electronics", "100.00", 10, "0")
		seedProduct(t, store, "Lego", "Toys", "19.99", 3, "0")

		products, err := store.ListProducts(ctx)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "TV", products[0].Name)
		assert.Equal(t, "Lego", products[1].Name)

		got, err := store.GetProduct(ctx, tv.ID)
		require.NoError(t, err)
		assert.Equal(t, "Electronics", got.DepartmentName)
		assert.True(t, got.Price.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, 10, got.StockQuantity)

		_, err = store.GetProduct(ctx, 9999)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})
}

func TestCatalog_ApplyProductMutation(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx := context.Background()
		p := seedProduct(t, store, "TV", "Electronics", "100.00", 10, "0")

		pred, mut := decrementBy(3, p.Price)
		res, err := store.ApplyProductMutation(ctx, p.ID, pred, mut)
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, 1, res.AffectedCount)

		got, err := store.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, got.StockQuantity)
		assert.Equal(t, "300.00", got.CumulativeSales.StringFixed(2))

		pred, mut = decrementBy(8, p.Price)
		res, err = store.ApplyProductMutation(ctx, p.ID, pred, mut)
		require.NoError(t, err)
		assert.False(t, res.Applied)
		assert.Zero(t, res.AffectedCount)

		got, err = store.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, got.StockQuantity, "rejected predicate must not write")
	})
}

func TestCatalog_ApplyProductMutation_MissingProduct(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		pred, mut := decrementBy(1, decimal.NewFromInt(1))
		res, err := store.ApplyProductMutation(context.Background(), 42, pred, mut)
		require.NoError(t, err)
		assert.False(t, res.Applied)
	})
}

func TestCatalog_ApplyProductMutation_RefusesInvariantBreak(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx := context.Background()
		p := seedProduct(t, store, "TV", "Electronics", "100.00", 2, "50.00")

		always := func(domain.Product) bool { return true }
		_, err := store.ApplyProductMutation(ctx, p.ID, always, func(cur domain.Product) domain.Product {
			cur.StockQuantity = -1
			return cur
		})
		assert.ErrorIs(t, err, domain.ErrInvariantViolation)

		_, err = store.ApplyProductMutation(ctx, p.ID, always, func(cur domain.Product) domain.Product {
			cur.CumulativeSales = decimal.NewFromInt(10)
			return cur
		})
		assert.ErrorIs(t, err, domain.ErrInvariantViolation)

		got, err := store.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.StockQuantity)
		assert.Equal(t, "50.00", got.CumulativeSales.StringFixed(2))
	})
}

func TestCatalog_ConcurrentPurchasesNeverOversell(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx := context.Background()
		p := seedProduct(t, store, "TV", "Electronics", "100.00", 5, "0")

		const buyers = 8
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			applied int
		)
		for i := 0; i < buyers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				pred, mut := decrementBy(5, p.Price)
				res, err := store.ApplyProductMutation(ctx, p.ID, pred, mut)
				assert.NoError(t, err)
				if res.Applied {
					mu.Lock()
					applied++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, applied)
		got, err := store.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, got.StockQuantity)
		assert.Equal(t, "500.00", got.CumulativeSales.StringFixed(2))
	})
}

func TestCatalog_InsertDepartment(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx := context.Background()

		res, err := store.InsertDepartment(ctx, "Electronics", decimal.RequireFromString("200.005"))
		require.NoError(t, err)
		require.True(t, res.Applied)
		assert.NotZero(t, res.Department.ID)
		assert.Equal(t, "Electronics", res.Department.Name)
		assert.Equal(t, "200.01", res.Department.OverheadCost.String())

		res, err = store.InsertDepartment(ctx, "Electronics", decimal.NewFromInt(1))
		require.NoError(t, err)
		assert.False(t, res.Applied)

		res, err = store.InsertDepartment(ctx, "electronics", decimal.NewFromInt(1))
		require.NoError(t, err)
		assert.True(t, res.Applied, "names are compared case-sensitively")

		names, err := store.ListDepartmentNames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Electronics", "electronics"}, names)
	})
}

func TestCatalog_InsertDepartment_KeepsCentsAtLargeAmounts(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx := context.Background()
		cost := decimal.RequireFromString("9007199254740990.99")

		res, err := store.InsertDepartment(ctx, "Big", cost)
		require.NoError(t, err)
		require.True(t, res.Applied)
		assert.True(t, cost.Equal(res.Department.OverheadCost), "got %s", res.Department.OverheadCost)

		report, err := store.AggregateDepartmentProfit(ctx)
		require.NoError(t, err)
		require.Len(t, report, 1)
		assert.Equal(t, "9007199254740990.99", report[0].OverheadCost.StringFixed(2))
		assert.Equal(t, "-9007199254740990.99", report[0].TotalProfit.StringFixed(2))
	})
}

func TestCatalog_ConcurrentDepartmentInsert(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx := context.Background()

		const writers = 6
		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			applied int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				res, err := store.InsertDepartment(ctx, "Toys", decimal.NewFromInt(100))
				assert.NoError(t, err)
				if res.Applied {
					mu.Lock()
					applied++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, applied)
		names, err := store.ListDepartmentNames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Toys"}, names)
	})
}

func TestCatalog_AggregateDepartmentProfit(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx := context.Background()
		seedDepartment(t, store, "Electronics", "200")
		seedDepartment(t, store, "Garden", "50")
		seedProduct(t, store, "TV", "Electronics", "100.00", 1, "500.00")
		seedProduct(t, store, "Radio", "Electronics", "25.00", 1, "250.00")
		seedProduct(t, store, "Orphan", "Nowhere", "1.00", 1, "99.00")

		report, err := store.AggregateDepartmentProfit(ctx)
		require.NoError(t, err)
		require.Len(t, report, 2)

		assert.Equal(t, "Electronics", report[0].DepartmentName)
		assert.Equal(t, "200.00", report[0].OverheadCost.StringFixed(2))
		assert.Equal(t, "750.00", report[0].TotalProductSales.StringFixed(2))
		assert.Equal(t, "550.00", report[0].TotalProfit.StringFixed(2))

		assert.Equal(t, "Garden", report[1].DepartmentName)
		assert.True(t, report[1].TotalProductSales.IsZero())
		assert.Equal(t, "-50.00", report[1].TotalProfit.StringFixed(2))
	})
}

func TestCatalog_AggregateDepartmentProfit_ExactSums(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx := context.Background()
		seedDepartment(t, store, "Big", "0.01")
		seedProduct(t, store, "Yacht", "Big", "1.00", 1, "4503599627370495.49")
		seedProduct(t, store, "Jet", "Big", "1.00", 1, "4503599627370495.51")

		report, err := store.AggregateDepartmentProfit(ctx)
		require.NoError(t, err)
		require.Len(t, report, 1)
		assert.Equal(t, "9007199254740991.00", report[0].TotalProductSales.StringFixed(2))
		assert.Equal(t, "9007199254740990.99", report[0].TotalProfit.StringFixed(2))
	})
}

func TestCatalog_SeedCatalog(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx := context.Background()
		departments := []domain.Department{
			{Name: "Electronics", OverheadCost: decimal.RequireFromString("200.00")},
			{Name: "Toys", OverheadCost: decimal.RequireFromString("500.00")},
		}
		products := []domain.Product{
			{Name: "TV", DepartmentName: "Electronics", Price: decimal.RequireFromString("100.00"), StockQuantity: 5},
			{Name: "Yo-yo", DepartmentName: "Toys", Price: decimal.RequireFromString("2.50"), StockQuantity: 50},
		}

		res, err := store.SeedCatalog(ctx, departments, products)
		require.NoError(t, err)
		assert.Equal(t, domain.SeedResult{Applied: true, Departments: 2, Products: 2}, res)

		listed, err := store.ListProducts(ctx)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, "2.50", listed[1].Price.StringFixed(2))

		res, err = store.SeedCatalog(ctx, departments, products)
		require.NoError(t, err)
		assert.False(t, res.Applied)
		listed, err = store.ListProducts(ctx)
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})
}

func TestCatalog_SeedCatalog_FailureLeavesStoreEmpty(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx := context.Background()
		departments := []domain.Department{{Name: "Electronics", OverheadCost: decimal.NewFromInt(200)}}
		products := []domain.Product{
			{Name: "TV", DepartmentName: "Electronics", Price: decimal.NewFromInt(100), StockQuantity: 5},
			{Name: "Radio", DepartmentName: "Electronics", Price: decimal.NewFromInt(25), StockQuantity: 3},
			{Name: "Broken", DepartmentName: "Electronics", Price: decimal.NewFromInt(1), StockQuantity: -1},
		}

		_, err := store.SeedCatalog(ctx, departments, products)
		require.Error(t, err)

		listed, err := store.ListProducts(ctx)
		require.NoError(t, err)
		assert.Empty(t, listed)
		names, err := store.ListDepartmentNames(ctx)
		require.NoError(t, err)
		assert.Empty(t, names)

		res, err := store.SeedCatalog(ctx, departments, products[:2])
		require.NoError(t, err)
		assert.True(t, res.Applied)
		assert.Equal(t, 2, res.Products)
	})
}

func TestCatalog_SeedDuplicateDepartment(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		seedDepartment(t, store, "Toys", "10")
		_, err := store.SeedDepartment(context.Background(), domain.Department{Name: "Toys"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestCatalog_CancelledContext(t *testing.T) {
	forEachStore(t, func(t *testing.T, store testStore) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := store.ListProducts(ctx)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		_, err = store.AggregateDepartmentProfit(ctx)
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	})
}

func TestMemory_WaitIsBoundedByStoreTimeout(t *testing.T) {
	store := NewMemoryCatalogRepository(20*time.Millisecond, quietLogger())
	release, err := store.acquire(context.Background(), "hold")
	require.NoError(t, err)
	defer release()

	start := time.Now()
	_, err = store.ListProducts(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSQLite_MigrateIsIdempotent(t *testing.T) {
	repo := setupSQLiteStore(t)
	require.NoError(t, repo.Migrate(context.Background()))

	var version int
	require.NoError(t, repo.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestDialectMoneyConversion(t *testing.T) {
	v := decimal.RequireFromString("9007199254740990.99")
	assert.Equal(t, int64(900719925474099099), sqliteDialect.toStore(v))
	assert.True(t, v.Equal(sqliteDialect.fromStore(decimal.NewFromInt(900719925474099099))))

	assert.True(t, v.Equal(postgresDialect.toStore(v).(decimal.Decimal)))
	assert.True(t, v.Equal(postgresDialect.fromStore(v)))
}

func TestDialectBind(t *testing.T) {
	q := `UPDATE products SET stock_quantity = ?, product_sales = ? WHERE id = ?`
	assert.Equal(t, `UPDATE products SET stock_quantity = $1, product_sales = $2 WHERE id = $3`, postgresDialect.bind(q))
	assert.Equal(t, q, sqliteDialect.bind(q))
}
