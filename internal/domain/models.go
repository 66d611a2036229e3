package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID              int             `json:"id"`
	Name            string          `json:"product_name"`
	DepartmentName  string          `json:"department_name"`
	Price           decimal.Decimal `json:"price"`
	StockQuantity   int             `json:"stock_quantity"`
	CumulativeSales decimal.Decimal `json:"product_sales"`
}

type Department struct {
	ID           int             `json:"department_id"`
	Name         string          `json:"department_name"`
	OverheadCost decimal.Decimal `json:"over_head_costs"`
}

// DepartmentProfitRow is one line of the supervisor's profit report.
type DepartmentProfitRow struct {
	DepartmentID      int             `json:"department_id"`
	DepartmentName    string          `json:"department_name"`
	OverheadCost      decimal.Decimal `json:"over_head_costs"`
	TotalProductSales decimal.Decimal `json:"product_sales"`
	TotalProfit       decimal.Decimal `json:"total_profit"`
}

// NewDepartmentProfitRow derives the profit column so every store computes it the same way.
func NewDepartmentProfitRow(id int, name string, overhead, sales decimal.Decimal) DepartmentProfitRow {
	overhead = Round2(overhead)
	sales = Round2(sales)
	return DepartmentProfitRow{
		DepartmentID:      id,
		DepartmentName:    name,
		OverheadCost:      overhead,
		TotalProductSales: sales,
		TotalProfit:       Round2(sales.Sub(overhead)),
	}
}
