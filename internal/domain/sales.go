package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrTableMissing signals that a brand's record table has not been created yet.
var ErrTableMissing = errors.New("sales table does not exist")

// periodLayout is the YY/MM form used by month_year.
const periodLayout = "06/01"

// SalesRow is one record of a brand table.
type SalesRow struct {
	Warehouse string `json:"warehouse" db:"warehouse"`
	Category  string `json:"category" db:"category"`
	Series    string `json:"series" db:"series"`
	ItemName  string `json:"item_name" db:"item_name"`
	MonthYear string `json:"month_year" db:"month_year"`
	Quantity  int    `json:"quantity" db:"quantity"`
	Stock     int    `json:"stock" db:"stock"`
	Backorder int    `json:"backorder" db:"backorder"`
}

// DimensionRow is the projection used to enumerate filter options.
type DimensionRow struct {
	Warehouse string `db:"warehouse"`
	Category  string `db:"category"`
	MonthYear string `db:"month_year"`
}

// SafeInt converts loosely typed spreadsheet or legacy values to an integer.
// Anything that does not parse as a finite number becomes 0; fractions are
// truncated toward zero.
func SafeInt(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int(f)
}

// ParsePeriod splits a YY/MM value into a four digit year and a month.
// Two digit years follow the strptime %y pivot (69-99 -> 1900s).
func ParsePeriod(monthYear string) (year int, month int, ok bool) {
	t, err := time.Parse(periodLayout, strings.TrimSpace(monthYear))
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), int(t.Month()), true
}
