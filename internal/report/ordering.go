package report

import (
	"math"
	"sort"
	"strconv"

	"github.com/nineaccord/salesboard/internal/domain"
)

// Channel and category names as they appear in the source spreadsheets.
const (
	subtotalName = "합계"
	subtotalID   = "subtotal_row"

	// subtotalAnchor is the row after which the subtotal row is emitted, in
	// both pivots. No anchor in the result means no subtotal row.
	subtotalAnchor = "클립"

	// excludedChartCategory holds accessories that would swamp the top series chart.
	excludedChartCategory = "케이스"

	topSeriesLimit = 10
)

var (
	warehouseOrder = []string{"안경원", "면세", "수출", "온라인주문", "클립", "모던"}
	categoryOrder  = []string{"안경테", "선글라스", "클립", "모던"}

	// modern is deliberately outside both subtotal sets.
	warehouseSubtotalSet = setOf("안경원", "면세", "수출", "온라인주문", "클립")
	categorySubtotalSet  = setOf("안경테", "선글라스", "클립")
)

// orderByPriority returns the names present in the data: the priority names
// first in their fixed order, then everything else sorted lexically.
func orderByPriority(priority []string, present map[string]struct{}) []string {
	out := make([]string, 0, len(present))
	listed := make(map[string]struct{}, len(priority))
	for _, name := range priority {
		listed[name] = struct{}{}
		if _, ok := present[name]; ok {
			out = append(out, name)
		}
	}

	var rest []string
	for name := range present {
		if _, ok := listed[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// OrderWarehouses applies the warehouse display order.
func OrderWarehouses(names []string) []string {
	return orderByPriority(warehouseOrder, setOf(names...))
}

// OrderCategories applies the category display order.
func OrderCategories(names []string) []string {
	return orderByPriority(categoryOrder, setOf(names...))
}

// PctChange returns the period-over-period change in percent rounded to one
// decimal, or nil when the comparison base is zero. Exact ties round to even.
func PctChange(total, compare int) *float64 {
	if compare == 0 {
		return nil
	}
	pct := float64(total-compare) / math.Abs(float64(compare)) * 100
	// formatting rounds the exact binary value, halves to even
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(pct, 'f', 1, 64), 64)
	return &rounded
}

// periodsDescending returns the distinct month_year values, most recent first.
func periodsDescending(rows []domain.SalesRow) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[r.MonthYear] = struct{}{}
	}
	periods := make([]string, 0, len(seen))
	for p := range seen {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	return periods
}

func zeroData(periods []string) map[string]domain.Metric {
	data := make(map[string]domain.Metric, len(periods))
	for _, p := range periods {
		data[p] = domain.Metric{}
	}
	return data
}

func addData(dst, src map[string]domain.Metric) {
	for p, m := range src {
		dst[p] = dst[p].Add(m)
	}
}

func setOf(values ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func inSet(set map[string]struct{}, v string) bool {
	_, ok := set[v]
	return ok
}
