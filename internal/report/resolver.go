package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nineaccord/salesboard/internal/domain"
)

// RowSource evaluates a RowQuery against a brand's records.
type RowSource interface {
	QueryRows(ctx context.Context, brand domain.Brand, q domain.RowQuery) ([]domain.SalesRow, error)
	DistinctDimensions(ctx context.Context, brand domain.Brand) ([]domain.DimensionRow, error)
}

// Resolver turns filters into row subsets. A brand whose table does not exist
// yet resolves to no rows.
type Resolver struct {
	source RowSource
}

func NewResolver(source RowSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve returns the rows matching filter for the given period role.
func (r *Resolver) Resolve(ctx context.Context, brand domain.Brand, filter domain.FilterSpec, role domain.PeriodRole) ([]domain.SalesRow, error) {
	if !brand.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBrand, brand)
	}

	rows, err := r.source.QueryRows(ctx, brand, filter.RowQuery(role))
	if errors.Is(err, domain.ErrTableMissing) {
		log.Debug().Str("brand", brand.String()).Msg("sales table missing, resolving to empty set")
		return []domain.SalesRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query %s rows: %w", brand, err)
	}
	if rows == nil {
		rows = []domain.SalesRow{}
	}
	return rows, nil
}

// ListOptions enumerates filter values for a brand.
func (r *Resolver) ListOptions(ctx context.Context, brand domain.Brand) (*domain.FilterOptions, error) {
	if !brand.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownBrand, brand)
	}

	dims, err := r.source.DistinctDimensions(ctx, brand)
	if errors.Is(err, domain.ErrTableMissing) {
		return domain.EmptyFilterOptions(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s dimensions: %w", brand, err)
	}
	return BuildFilterOptions(dims), nil
}
