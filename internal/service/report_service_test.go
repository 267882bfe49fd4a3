package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nineaccord/salesboard/internal/cache"
	"github.com/nineaccord/salesboard/internal/domain"
)

type fakeSource struct {
	mu      sync.Mutex
	rows    map[string][]domain.SalesRow
	dims    []domain.DimensionRow
	err     error
	queries []domain.RowQuery
}

func (f *fakeSource) QueryRows(ctx context.Context, brand domain.Brand, q domain.RowQuery) ([]domain.SalesRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[q.YearSuffix], nil
}

func (f *fakeSource) DistinctDimensions(ctx context.Context, brand domain.Brand) ([]domain.DimensionRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dims, f.err
}

func (f *fakeSource) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func newTestService(t *testing.T, src *fakeSource) *ReportService {
	t.Helper()
	rc := cache.NewReportCache(cache.NewMemoryStore(time.Minute, time.Hour))
	t.Cleanup(func() { _ = rc.Close() })
	return NewReportService(src, rc)
}

func TestWarehouseReportComparison(t *testing.T) {
	src := &fakeSource{rows: map[string][]domain.SalesRow{
		"24": {{Warehouse: "면세", Category: "안경테", MonthYear: "24/01", Quantity: 12}},
		"23": {{Warehouse: "면세", Category: "안경테", MonthYear: "23/01", Quantity: 8}},
	}}
	svc := newTestService(t, src)

	r, err := svc.GetWarehouseReport(context.Background(), domain.BrandNine, domain.FilterSpec{MainYear: 2024, CompYear: 2023})
	require.NoError(t, err)
	require.Len(t, r.Rows, 1)
	require.NotNil(t, r.Rows[0].Compare)
	assert.Equal(t, 8, r.Rows[0].Compare.Net)
	require.NotNil(t, r.Rows[0].PctChange)
	assert.InDelta(t, 50.0, *r.Rows[0].PctChange, 1e-9)
	assert.Equal(t, 2, src.queryCount())
}

func TestWarehouseReportSameYearSkipsComparison(t *testing.T) {
	src := &fakeSource{rows: map[string][]domain.SalesRow{
		"24": {{Warehouse: "면세", Category: "안경테", MonthYear: "24/01", Quantity: 1}},
	}}
	svc := newTestService(t, src)

	r, err := svc.GetWarehouseReport(context.Background(), domain.BrandNine, domain.FilterSpec{MainYear: 2024, CompYear: 2024})
	require.NoError(t, err)
	assert.Nil(t, r.Rows[0].Compare)
	assert.Equal(t, 1, src.queryCount())
}

func TestReportsAreCachedAcrossEquivalentFilters(t *testing.T) {
	src := &fakeSource{rows: map[string][]domain.SalesRow{
		"": {{Warehouse: "A", Category: "안경테", MonthYear: "24/01", Quantity: 1}},
	}}
	svc := newTestService(t, src)
	ctx := context.Background()

	_, err := svc.GetWarehouseReport(ctx, domain.BrandNine, domain.FilterSpec{Warehouses: []string{"A", "B"}})
	require.NoError(t, err)
	_, err = svc.GetWarehouseReport(ctx, domain.BrandNine, domain.FilterSpec{Warehouses: []string{"B", "A"}})
	require.NoError(t, err)
	assert.Equal(t, 1, src.queryCount())

	require.NoError(t, svc.ClearCache(ctx))
	_, err = svc.GetWarehouseReport(ctx, domain.BrandNine, domain.FilterSpec{Warehouses: []string{"A", "B"}})
	require.NoError(t, err)
	assert.Equal(t, 2, src.queryCount())
}

func TestItemReportIgnoresComparisonYear(t *testing.T) {
	src := &fakeSource{rows: map[string][]domain.SalesRow{
		"24": {{Warehouse: "A", Category: "안경테", Series: "S", ItemName: "I", MonthYear: "24/01", Quantity: 4}},
	}}
	svc := newTestService(t, src)
	ctx := context.Background()

	a, err := svc.GetItemReport(ctx, domain.BrandCuru, domain.FilterSpec{MainYear: 2024, CompYear: 2022})
	require.NoError(t, err)
	b, err := svc.GetItemReport(ctx, domain.BrandCuru, domain.FilterSpec{MainYear: 2024})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 1, src.queryCount())
	require.Len(t, a.TopSeries, 1)
	assert.Equal(t, 4, a.TopSeries[0].Quantity)
}

func TestFilterOptions(t *testing.T) {
	src := &fakeSource{dims: []domain.DimensionRow{{Warehouse: "면세", Category: "안경테", MonthYear: "24/03"}}}
	svc := newTestService(t, src)

	opts, err := svc.GetFilterOptions(context.Background(), domain.BrandNine)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024"}, opts.Years)
	assert.Equal(t, []string{"03"}, opts.Months)
}

func TestMissingTableGivesEmptyReports(t *testing.T) {
	svc := newTestService(t, &fakeSource{err: domain.ErrTableMissing})
	ctx := context.Background()

	wr, err := svc.GetWarehouseReport(ctx, domain.BrandCuru, domain.FilterSpec{})
	require.NoError(t, err)
	assert.Empty(t, wr.Rows)
	assert.NotNil(t, wr.Periods)

	opts, err := svc.GetFilterOptions(ctx, domain.BrandCuru)
	require.NoError(t, err)
	assert.Empty(t, opts.Warehouses)
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection reset")
	svc := newTestService(t, &fakeSource{err: boom})

	_, err := svc.GetItemReport(context.Background(), domain.BrandNine, domain.FilterSpec{})
	assert.ErrorIs(t, err, boom)
}

func TestUnknownBrand(t *testing.T) {
	svc := newTestService(t, &fakeSource{})
	_, err := svc.GetWarehouseReport(context.Background(), domain.Brand("acme"), domain.FilterSpec{})
	assert.ErrorIs(t, err, domain.ErrUnknownBrand)
}
