package report

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nineaccord/salesboard/internal/domain"
)

type stubSource struct {
	rows    []domain.SalesRow
	dims    []domain.DimensionRow
	err     error
	queries []domain.RowQuery
}

func (s *stubSource) QueryRows(ctx context.Context, brand domain.Brand, q domain.RowQuery) ([]domain.SalesRow, error) {
	s.queries = append(s.queries, q)
	return s.rows, s.err
}

func (s *stubSource) DistinctDimensions(ctx context.Context, brand domain.Brand) ([]domain.DimensionRow, error) {
	return s.dims, s.err
}

func TestResolverPassesPeriodRole(t *testing.T) {
	src := &stubSource{}
	r := NewResolver(src)
	filter := domain.FilterSpec{MainYear: 2024, CompYear: 2023}

	rows, err := r.Resolve(context.Background(), domain.BrandNine, filter, domain.PeriodComparison)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	require.Len(t, src.queries, 1)
	assert.Equal(t, "23", src.queries[0].YearSuffix)
}

func TestResolverMissingTableIsEmpty(t *testing.T) {
	r := NewResolver(&stubSource{err: domain.ErrTableMissing})

	rows, err := r.Resolve(context.Background(), domain.BrandCuru, domain.FilterSpec{}, domain.PeriodMain)
	require.NoError(t, err)
	assert.Empty(t, rows)

	opts, err := r.ListOptions(context.Background(), domain.BrandCuru)
	require.NoError(t, err)
	assert.Equal(t, domain.EmptyFilterOptions(), opts)
}

func TestResolverPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection refused")
	r := NewResolver(&stubSource{err: boom})

	_, err := r.Resolve(context.Background(), domain.BrandNine, domain.FilterSpec{}, domain.PeriodMain)
	assert.ErrorIs(t, err, boom)

	_, err = r.ListOptions(context.Background(), domain.BrandNine)
	assert.ErrorIs(t, err, boom)
}

func TestResolverRejectsUnknownBrand(t *testing.T) {
	r := NewResolver(&stubSource{})
	_, err := r.Resolve(context.Background(), domain.Brand("acme"), domain.FilterSpec{}, domain.PeriodMain)
	assert.ErrorIs(t, err, domain.ErrUnknownBrand)
}

func TestBuildFilterOptions(t *testing.T) {
	opts := BuildFilterOptions([]domain.DimensionRow{
		{Warehouse: "면세", Category: "안경테", MonthYear: "23/11"},
		{Warehouse: "안경원", Category: "", MonthYear: "24/02"},
		{Warehouse: "", Category: "선글라스", MonthYear: "garbage"},
		{Warehouse: "면세", Category: "안경테", MonthYear: "24/11"},
	})

	assert.Equal(t, []string{"면세", "안경원"}, opts.Warehouses)
	assert.Equal(t, []string{"선글라스", "안경테"}, opts.Categories)
	assert.Equal(t, []string{"2024", "2023"}, opts.Years)
	assert.Equal(t, []string{"02", "11"}, opts.Months)
}

func TestBuildFilterOptionsEmpty(t *testing.T) {
	opts := BuildFilterOptions(nil)
	assert.NotNil(t, opts.Years)
	assert.Empty(t, opts.Years)
}
