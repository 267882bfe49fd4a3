package report

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/nineaccord/salesboard/internal/domain"
)

// BuildFilterOptions enumerates the distinct warehouses, categories, years and
// months present in dims. Values whose month_year does not parse are skipped
// for years and months only.
func BuildFilterOptions(dims []domain.DimensionRow) *domain.FilterOptions {
	if len(dims) == 0 {
		return domain.EmptyFilterOptions()
	}

	warehouses := make(map[string]struct{})
	categories := make(map[string]struct{})
	years := make(map[int]struct{})
	months := make(map[int]struct{})

	for _, d := range dims {
		if d.Warehouse != "" {
			warehouses[d.Warehouse] = struct{}{}
		}
		if d.Category != "" {
			categories[d.Category] = struct{}{}
		}
		if y, m, ok := domain.ParsePeriod(d.MonthYear); ok {
			years[y] = struct{}{}
			months[m] = struct{}{}
		}
	}

	opts := domain.EmptyFilterOptions()
	opts.Warehouses = append(opts.Warehouses, sortedKeys(warehouses)...)
	opts.Categories = append(opts.Categories, sortedKeys(categories)...)

	for _, y := range sortedInts(years, true) {
		opts.Years = append(opts.Years, strconv.Itoa(y))
	}
	for _, m := range sortedInts(months, false) {
		opts.Months = append(opts.Months, fmt.Sprintf("%02d", m))
	}
	return opts
}

func sortedInts(set map[int]struct{}, desc bool) []int {
	out := make([]int, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	if desc {
		sort.Sort(sort.Reverse(sort.IntSlice(out)))
	} else {
		sort.Ints(out)
	}
	return out
}
