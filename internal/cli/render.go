package cli

import (
	"strconv"

	"bamazon/internal/domain"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

func newTable(headers []string, rightAligned map[int]bool, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if rightAligned[col] {
				return numberStyle
			}
			return cellStyle
		})
	return t.String()
}

// RenderProducts shows what a purchaser needs to pick a product.
func RenderProducts(products []domain.Product) string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, []string{
			strconv.Itoa(p.ID),
			p.Name,
			p.Price.StringFixed(2),
			strconv.Itoa(p.StockQuantity),
		})
	}
	return newTable([]string{"id", "product_name", "price", "stock_quantity"}, map[int]bool{0: true, 2: true, 3: true}, rows)
}

func RenderProfitReport(report []domain.DepartmentProfitRow) string {
	rows := make([][]string, 0, len(report))
	for _, r := range report {
		rows = append(rows, []string{
			strconv.Itoa(r.DepartmentID),
			r.DepartmentName,
			r.OverheadCost.StringFixed(2),
			r.TotalProductSales.StringFixed(2),
			r.TotalProfit.StringFixed(2),
		})
	}
	return newTable(
		[]string{"department_id", "department_name", "over_head_costs", "product_sales", "total_profit"},
		map[int]bool{0: true, 2: true, 3: true, 4: true},
		rows,
	)
}
