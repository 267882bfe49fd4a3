package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// PeriodRole selects which year of a FilterSpec governs the year predicate.
type PeriodRole int

const (
	PeriodMain PeriodRole = iota
	PeriodComparison
)

// FilterSpec is the operator's report filter. Zero values mean "not set".
type FilterSpec struct {
	Warehouses []string `json:"warehouses,omitempty"`
	Categories []string `json:"categories,omitempty"`
	MainYear   int      `json:"main_year,omitempty"`
	CompYear   int      `json:"comp_year,omitempty"`
	StartMonth int      `json:"start_month,omitempty"`
	EndMonth   int      `json:"end_month,omitempty"`
}

// RowQuery is the concrete predicate set the record store evaluates.
type RowQuery struct {
	YearSuffix string
	StartMonth int
	EndMonth   int
	Warehouses []string
	Categories []string
}

// HasMonthRange reports whether the month predicate applies.
func (q RowQuery) HasMonthRange() bool {
	return q.StartMonth > 0 && q.EndMonth > 0
}

// Normalize returns a copy with trimmed, de-duplicated and sorted sets so
// that semantically identical filters compare and hash equal.
func (f FilterSpec) Normalize() FilterSpec {
	out := f
	out.Warehouses = normalizeSet(f.Warehouses)
	out.Categories = normalizeSet(f.Categories)
	if out.MainYear < 0 {
		out.MainYear = 0
	}
	if out.CompYear < 0 {
		out.CompYear = 0
	}
	if out.StartMonth < 0 {
		out.StartMonth = 0
	}
	if out.EndMonth < 0 {
		out.EndMonth = 0
	}
	return out
}

// HasComparison reports whether a comparison year distinct from the main year
// was requested.
func (f FilterSpec) HasComparison() bool {
	return f.CompYear > 0 && f.CompYear != f.MainYear
}

// WithoutComparison drops the comparison year; used by views that ignore it.
func (f FilterSpec) WithoutComparison() FilterSpec {
	out := f
	out.CompYear = 0
	return out
}

// RowQuery builds the store predicate for the given period role.
func (f FilterSpec) RowQuery(role PeriodRole) RowQuery {
	n := f.Normalize()
	year := n.MainYear
	if role == PeriodComparison {
		year = n.CompYear
	}

	q := RowQuery{
		Warehouses: n.Warehouses,
		Categories: n.Categories,
	}
	if year > 0 {
		q.YearSuffix = YearSuffix(year)
	}
	if n.StartMonth > 0 && n.EndMonth > 0 {
		q.StartMonth = n.StartMonth
		q.EndMonth = n.EndMonth
	}
	return q
}

// CacheKey renders a deterministic signature of the normalized filter.
func (f FilterSpec) CacheKey() string {
	n := f.Normalize()
	parts := []string{
		"wh=" + strings.Join(n.Warehouses, ","),
		"cat=" + strings.Join(n.Categories, ","),
		"main=" + strconv.Itoa(n.MainYear),
		"comp=" + strconv.Itoa(n.CompYear),
		"start=" + strconv.Itoa(n.StartMonth),
		"end=" + strconv.Itoa(n.EndMonth),
	}
	return strings.Join(parts, "|")
}

// YearSuffix returns the last two digits of a year as used in month_year.
func YearSuffix(year int) string {
	return fmt.Sprintf("%02d", year%100)
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}
