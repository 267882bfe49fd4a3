package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nineaccord/salesboard/internal/cache"
	"github.com/nineaccord/salesboard/internal/domain"
	"github.com/nineaccord/salesboard/internal/report"
)

const (
	warehouseReportFn = "warehouse"
	itemReportFn      = "item"
)

type ReportService struct {
	resolver *report.Resolver
	cache    *cache.ReportCache
}

func NewReportService(source report.RowSource, reportCache *cache.ReportCache) *ReportService {
	if reportCache == nil {
		reportCache = cache.NewReportCache(nil)
	}
	return &ReportService{resolver: report.NewResolver(source), cache: reportCache}
}

// GetWarehouseReport builds the warehouse -> category pivot for a brand.
func (s *ReportService) GetWarehouseReport(ctx context.Context, brand domain.Brand, filter domain.FilterSpec) (*domain.WarehouseReport, error) {
	if !brand.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBrand, brand)
	}
	f := filter.Normalize()

	var out domain.WarehouseReport
	err := s.cache.Fetch(ctx, cache.ReportKey(warehouseReportFn, brand, f), &out, func(ctx context.Context) (interface{}, error) {
		main, err := s.resolver.Resolve(ctx, brand, f, domain.PeriodMain)
		if err != nil {
			return nil, err
		}

		var compare []domain.SalesRow
		if f.HasComparison() {
			compare, err = s.resolver.Resolve(ctx, brand, f, domain.PeriodComparison)
			if err != nil {
				return nil, err
			}
		}

		log.Debug().
			Str("brand", brand.String()).
			Int("rows", len(main)).
			Int("compare_rows", len(compare)).
			Msg("building warehouse report")
		return report.BuildWarehouseReport(main, compare), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetItemReport builds the category -> series -> item pivot. The comparison
// year plays no part in this view.
func (s *ReportService) GetItemReport(ctx context.Context, brand domain.Brand, filter domain.FilterSpec) (*domain.ItemReport, error) {
	if !brand.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBrand, brand)
	}
	f := filter.Normalize().WithoutComparison()

	var out domain.ItemReport
	err := s.cache.Fetch(ctx, cache.ReportKey(itemReportFn, brand, f), &out, func(ctx context.Context) (interface{}, error) {
		rows, err := s.resolver.Resolve(ctx, brand, f, domain.PeriodMain)
		if err != nil {
			return nil, err
		}
		return report.BuildItemReport(rows), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetFilterOptions lists the values the filter UI offers for a brand.
func (s *ReportService) GetFilterOptions(ctx context.Context, brand domain.Brand) (*domain.FilterOptions, error) {
	if !brand.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBrand, brand)
	}

	var out domain.FilterOptions
	err := s.cache.Fetch(ctx, cache.OptionsKey(brand), &out, func(ctx context.Context) (interface{}, error) {
		return s.resolver.ListOptions(ctx, brand)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearCache drops every cached report and option list.
func (s *ReportService) ClearCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}
