package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bamazon/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const DefaultStoreTimeout = 10 * time.Second

const selectProductColumns = `SELECT id, name, department_name, price, stock_quantity, product_sales FROM products`

var (
	_ domain.CatalogStore  = (*SQLCatalogRepository)(nil)
	_ domain.CatalogSeeder = (*SQLCatalogRepository)(nil)
)

// SQLCatalogRepository is the database/sql catalog shared by the Postgres and
// SQLite backends.
type SQLCatalogRepository struct {
	db      *sql.DB
	dialect dialect
	timeout time.Duration
	log     *logrus.Logger
}

func NewPostgresCatalogRepository(db *sql.DB, timeout time.Duration, logger *logrus.Logger) *SQLCatalogRepository {
	return newSQLCatalogRepository(db, postgresDialect, timeout, logger)
}

// NewSQLiteCatalogRepository expects a pool opened with a single connection
// (see pkg/db); that is what serializes its transactions.
func NewSQLiteCatalogRepository(db *sql.DB, timeout time.Duration, logger *logrus.Logger) *SQLCatalogRepository {
	return newSQLCatalogRepository(db, sqliteDialect, timeout, logger)
}

func newSQLCatalogRepository(db *sql.DB, d dialect, timeout time.Duration, logger *logrus.Logger) *SQLCatalogRepository {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &SQLCatalogRepository{
		db:      db,
		dialect: d,
		timeout: timeout,
		log:     logger,
	}
}

func (r *SQLCatalogRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func storeUnavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLCatalogRepository) scanProduct(row rowScanner) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.DepartmentName, &p.Price, &p.StockQuantity, &p.CumulativeSales)
	if err != nil {
		return domain.Product{}, err
	}
	p.Price = r.dialect.fromStore(p.Price)
	p.CumulativeSales = r.dialect.fromStore(p.CumulativeSales)
	return p, nil
}

func (r *SQLCatalogRepository) Ping(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.PingContext(ctx); err != nil {
		return storeUnavailable("ping", err)
	}
	return nil
}

func (r *SQLCatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, selectProductColumns+` ORDER BY id ASC`)
	if err != nil {
		r.log.Errorf("Repository: Failed to list products: %v", err)
		return nil, storeUnavailable("list products", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := r.scanProduct(rows)
		if err != nil {
			r.log.Errorf("Repository: Failed to scan product row: %v", err)
			return nil, storeUnavailable("scan product", err)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		r.log.Errorf("Repository: Error during products list iteration: %v", err)
		return nil, storeUnavailable("iterate products", err)
	}

	r.log.Debugf("Repository: Retrieved %d products", len(products))
	return products, nil
}

func (r *SQLCatalogRepository) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	p, err := r.scanProduct(r.db.QueryRowContext(ctx, r.dialect.bind(selectProductColumns+` WHERE id = ?`), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Product with ID %d not found", id)
			return nil, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
		}
		r.log.Errorf("Repository: Failed to get product by ID %d: %v", id, err)
		return nil, storeUnavailable("get product", err)
	}
	return &p, nil
}

func (r *SQLCatalogRepository) ListDepartmentNames(ctx context.Context) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT department_name FROM departments ORDER BY id ASC`)
	if err != nil {
		r.log.Errorf("Repository: Failed to list departments: %v", err)
		return nil, storeUnavailable("list departments", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeUnavailable("scan department", err)
		}
		names = append(names, name)
	}
	if err = rows.Err(); err != nil {
		return nil, storeUnavailable("iterate departments", err)
	}
	return names, nil
}

// ApplyProductMutation locks the product row, evaluates predicate against it
// and writes the mutated stock and sales in the same transaction.
func (r *SQLCatalogRepository) ApplyProductMutation(ctx context.Context, productID int, predicate domain.ProductPredicate, mutation domain.ProductMutation) (domain.MutationResult, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.log.Errorf("Repository: Failed to begin mutation transaction for product %d: %v", productID, err)
		return domain.MutationResult{}, storeUnavailable("begin transaction", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.log.Errorf("Repository: Failed to rollback mutation for product %d: %v", productID, rbErr)
		}
	}()

	query := r.dialect.bind(selectProductColumns + ` WHERE id = ?` + r.dialect.lockClause)
	current, err := r.scanProduct(tx.QueryRowContext(ctx, query, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.log.Warnf("Repository: Product %d vanished before mutation", productID)
			return domain.MutationResult{}, nil
		}
		r.log.Errorf("Repository: Failed to lock product %d: %v", productID, err)
		return domain.MutationResult{}, storeUnavailable("lock product", err)
	}

	if !predicate(current) {
		r.log.Infof("Repository: Predicate rejected mutation for product %d (stock %d)", productID, current.StockQuantity)
		return domain.MutationResult{}, nil
	}

	next := mutation(current)
	next.CumulativeSales = domain.Round2(next.CumulativeSales)
	if err := domain.CheckMutation(current, next); err != nil {
		r.log.Errorf("Repository: Refusing mutation for product %d: %v", productID, err)
		return domain.MutationResult{}, err
	}

	res, err := tx.ExecContext(ctx,
		r.dialect.bind(`UPDATE products SET stock_quantity = ?, product_sales = ? WHERE id = ?`),
		next.StockQuantity, r.dialect.toStore(next.CumulativeSales), productID)
	if err != nil {
		r.log.Errorf("Repository: Failed to update product %d: %v", productID, err)
		return domain.MutationResult{}, storeUnavailable("update product", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.MutationResult{}, storeUnavailable("rows affected", err)
	}

	if err := tx.Commit(); err != nil {
		r.log.Errorf("Repository: Failed to commit mutation for product %d: %v", productID, err)
		return domain.MutationResult{}, storeUnavailable("commit", err)
	}
	committed = true

	r.log.Infof("Repository: Product %d mutated: stock %d -> %d, sales %s -> %s",
		productID, current.StockQuantity, next.StockQuantity,
		current.CumulativeSales.StringFixed(2), next.CumulativeSales.StringFixed(2))
	return domain.MutationResult{Applied: affected == 1, AffectedCount: int(affected)}, nil
}

// InsertDepartment relies on the unique constraint on department_name, so the
// existence check and the insert are one statement.
func (r *SQLCatalogRepository) InsertDepartment(ctx context.Context, name string, overheadCost decimal.Decimal) (domain.DepartmentInsertResult, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	dept, err := r.insertDepartment(ctx, r.db, name, overheadCost)
	if err != nil {
		if r.dialect.isUniqueViolation(err) {
			r.log.Warnf("Repository: Attempted to create department with duplicate name: %s", name)
			return domain.DepartmentInsertResult{}, nil
		}
		r.log.Errorf("Repository: Failed to create department '%s': %v", name, err)
		return domain.DepartmentInsertResult{}, storeUnavailable("insert department", err)
	}

	r.log.Infof("Repository: Department created with ID: %d, Name: %s", dept.ID, dept.Name)
	return domain.DepartmentInsertResult{Applied: true, Department: dept}, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insertDepartment returns the record as stored, not as submitted.
func (r *SQLCatalogRepository) insertDepartment(ctx context.Context, q queryRower, name string, overheadCost decimal.Decimal) (domain.Department, error) {
	dept := domain.Department{Name: name}
	query := r.dialect.bind(`INSERT INTO departments (department_name, over_head_costs) VALUES (?, ?) RETURNING id, over_head_costs`)
	if err := q.QueryRowContext(ctx, query, name, r.dialect.toStore(overheadCost)).Scan(&dept.ID, &dept.OverheadCost); err != nil {
		return domain.Department{}, err
	}
	dept.OverheadCost = r.dialect.fromStore(dept.OverheadCost)
	return dept, nil
}

func (r *SQLCatalogRepository) insertProduct(ctx context.Context, q queryRower, product domain.Product) (domain.Product, error) {
	query := r.dialect.bind(`
		INSERT INTO products (name, department_name, price, stock_quantity, product_sales)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, name, department_name, price, stock_quantity, product_sales`)
	return r.scanProduct(q.QueryRowContext(ctx, query,
		product.Name, product.DepartmentName, r.dialect.toStore(product.Price),
		product.StockQuantity, r.dialect.toStore(product.CumulativeSales),
	))
}

// AggregateDepartmentProfit reads every department with its summed product
// sales in a single statement.
func (r *SQLCatalogRepository) AggregateDepartmentProfit(ctx context.Context) ([]domain.DepartmentProfitRow, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id, d.department_name, d.over_head_costs, COALESCE(SUM(p.product_sales), 0)
		FROM departments d
		LEFT JOIN products p ON p.department_name = d.department_name
		GROUP BY d.id, d.department_name, d.over_head_costs
		ORDER BY d.id ASC`)
	if err != nil {
		r.log.Errorf("Repository: Failed to aggregate department profit: %v", err)
		return nil, storeUnavailable("aggregate profit", err)
	}
	defer rows.Close()

	report := []domain.DepartmentProfitRow{}
	for rows.Next() {
		var (
			id       int
			name     string
			overhead decimal.Decimal
			sales    decimal.Decimal
		)
		if err := rows.Scan(&id, &name, &overhead, &sales); err != nil {
			r.log.Errorf("Repository: Failed to scan profit row: %v", err)
			return nil, storeUnavailable("scan profit row", err)
		}
		report = append(report, domain.NewDepartmentProfitRow(id, name, r.dialect.fromStore(overhead), r.dialect.fromStore(sales)))
	}
	if err = rows.Err(); err != nil {
		return nil, storeUnavailable("iterate profit rows", err)
	}

	r.log.Debugf("Repository: Aggregated profit for %d departments", len(report))
	return report, nil
}

func (r *SQLCatalogRepository) SeedDepartment(ctx context.Context, department domain.Department) (*domain.Department, error) {
	res, err := r.InsertDepartment(ctx, department.Name, department.OverheadCost)
	if err != nil {
		return nil, err
	}
	if !res.Applied {
		return nil, fmt.Errorf("%w: department '%s' already exists", domain.ErrInvalidInput, department.Name)
	}
	return &res.Department, nil
}

func (r *SQLCatalogRepository) SeedProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	seeded, err := r.insertProduct(ctx, r.db, product)
	if err != nil {
		r.log.Errorf("Repository: Failed to seed product '%s': %v", product.Name, err)
		return nil, storeUnavailable("insert product", err)
	}
	r.log.Infof("Repository: Product seeded with ID: %d, Name: %s", seeded.ID, seeded.Name)
	return &seeded, nil
}

// SeedCatalog loads departments and products in one transaction, and only
// into an empty catalog. Applied is false when the catalog already has rows.
func (r *SQLCatalogRepository) SeedCatalog(ctx context.Context, departments []domain.Department, products []domain.Product) (domain.SeedResult, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.SeedResult{}, storeUnavailable("begin transaction", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			r.log.Errorf("Repository: Failed to rollback catalog seed: %v", rbErr)
		}
	}()

	var existing int
	err = tx.QueryRowContext(ctx, `SELECT (SELECT COUNT(*) FROM departments) + (SELECT COUNT(*) FROM products)`).Scan(&existing)
	if err != nil {
		return domain.SeedResult{}, storeUnavailable("count catalog rows", err)
	}
	if existing > 0 {
		r.log.Infof("Repository: Catalog already holds %d rows, seed skipped", existing)
		return domain.SeedResult{}, nil
	}

	res := domain.SeedResult{Applied: true}
	for _, d := range departments {
		if _, err := r.insertDepartment(ctx, tx, d.Name, d.OverheadCost); err != nil {
			if r.dialect.isUniqueViolation(err) {
				return domain.SeedResult{}, fmt.Errorf("%w: department '%s' listed twice", domain.ErrInvalidInput, d.Name)
			}
			r.log.Errorf("Repository: Failed to seed department '%s': %v", d.Name, err)
			return domain.SeedResult{}, storeUnavailable("insert department", err)
		}
		res.Departments++
	}
	for _, p := range products {
		if _, err := r.insertProduct(ctx, tx, p); err != nil {
			r.log.Errorf("Repository: Failed to seed product '%s': %v", p.Name, err)
			return domain.SeedResult{}, storeUnavailable("insert product", err)
		}
		res.Products++
	}

	if err := tx.Commit(); err != nil {
		return domain.SeedResult{}, storeUnavailable("commit", err)
	}
	committed = true
	r.log.Infof("Repository: Seeded %d departments and %d products", res.Departments, res.Products)
	return res, nil
}
