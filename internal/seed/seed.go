// Package seed loads a catalog fixture into an empty store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"bamazon/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type DepartmentFixture struct {
	Name         string `yaml:"department_name"`
	OverheadCost string `yaml:"over_head_costs"`
}

type ProductFixture struct {
	Name            string `yaml:"product_name"`
	DepartmentName  string `yaml:"department_name"`
	Price           string `yaml:"price"`
	StockQuantity   int    `yaml:"stock_quantity"`
	CumulativeSales string `yaml:"product_sales"`
}

type Catalog struct {
	Departments []DepartmentFixture `yaml:"departments"`
	Products    []ProductFixture    `yaml:"products"`
}

type Result struct {
	Departments int
	Products    int
	Skipped     bool
}

func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func Parse(r io.Reader) (*Catalog, error) {
	var catalog Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing seed file: %v", domain.ErrInvalidInput, err)
	}
	return &catalog, nil
}

func money(field, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q is not a number", domain.ErrInvalidInput, field, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s cannot be negative", domain.ErrInvalidInput, field)
	}
	return domain.Round2(d), nil
}

// Build validates the fixture and converts it into domain records.
func (c *Catalog) Build() ([]domain.Department, []domain.Product, error) {
	seen := make(map[string]bool, len(c.Departments))
	departments := make([]domain.Department, 0, len(c.Departments))
	for i, d := range c.Departments {
		name := strings.TrimSpace(d.Name)
		if name == "" || len([]rune(name)) > 100 {
			return nil, nil, fmt.Errorf("%w: department %d: name must be 1 to 100 characters", domain.ErrInvalidInput, i)
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("%w: department %q listed twice", domain.ErrInvalidInput, name)
		}
		seen[name] = true
		cost, err := money("over_head_costs", d.OverheadCost)
		if err != nil {
			return nil, nil, fmt.Errorf("department %q: %w", name, err)
		}
		departments = append(departments, domain.Department{Name: name, OverheadCost: cost})
	}

	products := make([]domain.Product, 0, len(c.Products))
	for i, p := range c.Products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, nil, fmt.Errorf("%w: product %d: name cannot be empty", domain.ErrInvalidInput, i)
		}
		dept := strings.TrimSpace(p.DepartmentName)
		if !seen[dept] {
			return nil, nil, fmt.Errorf("%w: product %q: department %q is not in the fixture", domain.ErrInvalidInput, name, dept)
		}
		if p.StockQuantity < 0 {
			return nil, nil, fmt.Errorf("%w: product %q: stock cannot be negative", domain.ErrInvalidInput, name)
		}
		price, err := money("price", p.Price)
		if err != nil {
			return nil, nil, fmt.Errorf("product %q: %w", name, err)
		}
		sales, err := money("product_sales", p.CumulativeSales)
		if err != nil {
			return nil, nil, fmt.Errorf("product %q: %w", name, err)
		}
		products = append(products, domain.Product{
			Name:            name,
			DepartmentName:  dept,
			Price:           price,
			StockQuantity:   p.StockQuantity,
			CumulativeSales: sales,
		})
	}
	return departments, products, nil
}

// Apply validates the whole fixture, then hands it to seeder in one call.
// A store that already holds data is left untouched and reported as Skipped.
func Apply(ctx context.Context, seeder domain.CatalogSeeder, catalog *Catalog, logger *logrus.Logger) (Result, error) {
	departments, products, err := catalog.Build()
	if err != nil {
		return Result{}, err
	}

	res, err := seeder.SeedCatalog(ctx, departments, products)
	if err != nil {
		return Result{}, fmt.Errorf("seeding catalog: %w", err)
	}
	if !res.Applied {
		logger.Info("Seed: Store already holds catalog data, skipping")
		return Result{Skipped: true}, nil
	}

	logger.Infof("Seed: Loaded %d departments and %d products", res.Departments, res.Products)
	return Result{Departments: res.Departments, Products: res.Products}, nil
}
