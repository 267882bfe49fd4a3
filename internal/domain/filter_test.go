package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterCacheKeyIgnoresSetOrder(t *testing.T) {
	a := FilterSpec{Warehouses: []string{"면세", "안경원"}, Categories: []string{"클립"}, MainYear: 2024}
	b := FilterSpec{Warehouses: []string{"안경원", " 면세", "안경원"}, Categories: []string{"클립", ""}, MainYear: 2024}
	assert.Equal(t, a.CacheKey(), b.CacheKey())

	c := a
	c.CompYear = 2023
	assert.NotEqual(t, a.CacheKey(), c.CacheKey())
}

func TestFilterNormalizeDropsEmptySets(t *testing.T) {
	f := FilterSpec{Warehouses: []string{" ", ""}, StartMonth: -1}.Normalize()
	assert.Nil(t, f.Warehouses)
	assert.Zero(t, f.StartMonth)
}

func TestRowQuery(t *testing.T) {
	f := FilterSpec{
		Warehouses: []string{"수출", "면세"},
		MainYear:   2024,
		CompYear:   2023,
		StartMonth: 3,
		EndMonth:   5,
	}

	main := f.RowQuery(PeriodMain)
	assert.Equal(t, "24", main.YearSuffix)
	assert.Equal(t, []string{"면세", "수출"}, main.Warehouses)
	assert.True(t, main.HasMonthRange())

	comp := f.RowQuery(PeriodComparison)
	assert.Equal(t, "23", comp.YearSuffix)
	assert.Equal(t, 3, comp.StartMonth)
}

func TestRowQueryNeedsBothMonthBounds(t *testing.T) {
	q := FilterSpec{StartMonth: 4}.RowQuery(PeriodMain)
	assert.False(t, q.HasMonthRange())
	assert.Empty(t, q.YearSuffix)
}

func TestHasComparison(t *testing.T) {
	assert.False(t, FilterSpec{MainYear: 2024}.HasComparison())
	assert.False(t, FilterSpec{MainYear: 2024, CompYear: 2024}.HasComparison())
	assert.True(t, FilterSpec{MainYear: 2024, CompYear: 2023}.HasComparison())
	assert.False(t, FilterSpec{MainYear: 2024, CompYear: 2023}.WithoutComparison().HasComparison())
}

func TestYearSuffix(t *testing.T) {
	assert.Equal(t, "05", YearSuffix(2005))
	assert.Equal(t, "24", YearSuffix(2024))
}

func TestMetricOf(t *testing.T) {
	assert.Equal(t, Metric{Net: 5}, MetricOf(5))
	assert.Equal(t, Metric{Net: -2, Neg: -2}, MetricOf(-2))
	assert.Equal(t, Metric{Net: 3, Neg: -2}, MetricOf(5).Add(MetricOf(-2)))
}
