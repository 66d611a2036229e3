package repository

import (
	"errors"
	"strconv"
	"strings"

	"bamazon/internal/domain"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type dialect struct {
	name string
	// lockClause is appended to the row read inside ApplyProductMutation.
	// SQLite needs none: its pool is limited to one connection, so a
	// transaction already excludes every other writer.
	lockClause     string
	numberedParams bool
	// moneyShift is the power of ten currency is scaled by in storage.
	moneyShift        int32
	isUniqueViolation func(err error) bool
}

var postgresDialect = dialect{
	name:           "postgres",
	lockClause:     " FOR UPDATE",
	numberedParams: true,
	isUniqueViolation: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && pqErr.Code == "23505"
	},
}

var sqliteDialect = dialect{
	name:       "sqlite",
	moneyShift: 2,
	isUniqueViolation: func(err error) bool {
		var liteErr *sqlite.Error
		if !errors.As(err, &liteErr) {
			return false
		}
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	},
}

// toStore converts a currency amount into its column value. SQLite columns
// hold integer cents.
func (d dialect) toStore(v decimal.Decimal) any {
	v = domain.Round2(v)
	if d.moneyShift == 0 {
		return v
	}
	return v.Shift(d.moneyShift).IntPart()
}

// fromStore is the inverse of toStore for a scanned column value.
func (d dialect) fromStore(v decimal.Decimal) decimal.Decimal {
	return domain.Round2(v.Shift(-d.moneyShift))
}

// bind rewrites '?' placeholders into $1..$n for dialects that need them.
func (d dialect) bind(query string) string {
	if !d.numberedParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
