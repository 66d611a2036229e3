package domain

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

// MaxSafeInteger is the largest integer a double can hold exactly (2^53 - 1).
const MaxSafeInteger = 1<<53 - 1

var maxOverheadCost = decimal.NewFromInt(MaxSafeInteger)

// Round2 rounds a currency amount to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Charge is the rounded price of quantity units.
func Charge(price decimal.Decimal, quantity int) decimal.Decimal {
	return Round2(price.Mul(decimal.NewFromInt(int64(quantity))))
}

// AddSales adds a charge to a running sales total without carrying fractional cents.
func AddSales(total, charge decimal.Decimal) decimal.Decimal {
	return Round2(Round2(total).Add(Round2(charge)))
}

// OverheadFromFloat converts a user supplied cost, rejecting values that are
// not finite or fall outside [0, MaxSafeInteger).
func OverheadFromFloat(cost float64) (decimal.Decimal, bool) {
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return decimal.Zero, false
	}
	d := decimal.NewFromFloat(cost)
	if d.IsNegative() || !d.LessThan(maxOverheadCost) {
		return decimal.Zero, false
	}
	return Round2(d), true
}

// fixed2 renders a currency amount in JSON as a string with exactly two decimals.
type fixed2 decimal.Decimal

func (m fixed2) MarshalJSON() ([]byte, error) {
	return []byte(`"` + decimal.Decimal(m).StringFixed(2) + `"`), nil
}

func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	return json.Marshal(struct {
		plain
		Price           fixed2 `json:"price"`
		CumulativeSales fixed2 `json:"product_sales"`
	}{plain(p), fixed2(p.Price), fixed2(p.CumulativeSales)})
}

func (d Department) MarshalJSON() ([]byte, error) {
	type plain Department
	return json.Marshal(struct {
		plain
		OverheadCost fixed2 `json:"over_head_costs"`
	}{plain(d), fixed2(d.OverheadCost)})
}

func (r DepartmentProfitRow) MarshalJSON() ([]byte, error) {
	type plain DepartmentProfitRow
	return json.Marshal(struct {
		plain
		OverheadCost      fixed2 `json:"over_head_costs"`
		TotalProductSales fixed2 `json:"product_sales"`
		TotalProfit       fixed2 `json:"total_profit"`
	}{plain(r), fixed2(r.OverheadCost), fixed2(r.TotalProductSales), fixed2(r.TotalProfit)})
}

func (o PurchaseOutcome) MarshalJSON() ([]byte, error) {
	type plain PurchaseOutcome
	return json.Marshal(struct {
		plain
		TotalCharged fixed2 `json:"total_charged"`
	}{plain(o), fixed2(o.TotalCharged)})
}
