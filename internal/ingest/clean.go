package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nineaccord/salesboard/internal/domain"
)

// ErrMissingColumn is returned when a required header is absent from a tab.
var ErrMissingColumn = errors.New("missing required column")

// Spreadsheet headers of the sales tabs.
const (
	colWarehouse = "창고별"
	colCategory  = "구분"
	colMonthYear = "월별"
	colItemName  = "품목별"
	colQuantity  = "수량"
	colSeries    = "시리즈"
	colStock     = "재고"

	colBackorder = "미송"
)

var salesHeaders = []string{colWarehouse, colCategory, colMonthYear, colItemName, colQuantity, colSeries, colStock}

// columnIndex maps each wanted header to its position, reporting those missing.
func columnIndex(header []string, wanted []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	idx := make(map[string]int, len(wanted))
	var missing []string
	for _, w := range wanted {
		i, ok := pos[w]
		if !ok {
			missing = append(missing, w)
			continue
		}
		idx[w] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

func readCell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// CleanRows converts a sales tab into records. Quantity and stock are coerced
// with SafeInt; backorders are looked up by item name and default to 0.
func CleanRows(t *Table, backorders map[string]int) ([]domain.SalesRow, error) {
	idx, err := columnIndex(t.Header, salesHeaders)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.SalesRow, 0, len(t.Rows))
	for _, cells := range t.Rows {
		if blankRow(cells) {
			continue
		}
		item := readCell(cells, idx[colItemName])
		rows = append(rows, domain.SalesRow{
			Warehouse: readCell(cells, idx[colWarehouse]),
			Category:  readCell(cells, idx[colCategory]),
			Series:    readCell(cells, idx[colSeries]),
			ItemName:  item,
			MonthYear: readCell(cells, idx[colMonthYear]),
			Quantity:  domain.SafeInt(readCell(cells, idx[colQuantity])),
			Stock:     domain.SafeInt(readCell(cells, idx[colStock])),
			Backorder: backorders[item],
		})
	}
	return rows, nil
}

// BackorderLookup reads the backorder tab into item name -> quantity. An item
// listed more than once keeps its largest quantity; negatives count as 0.
func BackorderLookup(t *Table) (map[string]int, error) {
	idx, err := columnIndex(t.Header, []string{colItemName, colBackorder})
	if err != nil {
		return nil, err
	}

	out := make(map[string]int)
	for _, cells := range t.Rows {
		item := readCell(cells, idx[colItemName])
		if item == "" {
			continue
		}
		qty := domain.SafeInt(readCell(cells, idx[colBackorder]))
		if qty < 0 {
			qty = 0
		}
		if qty > out[item] {
			out[item] = qty
		} else if _, seen := out[item]; !seen {
			out[item] = qty
		}
	}
	return out, nil
}
