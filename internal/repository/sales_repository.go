package repository

import (
	"context"

	"github.com/nineaccord/salesboard/internal/domain"
)

// SalesRepository is the record store: one table per brand.
type SalesRepository interface {
	EnsureSchema(ctx context.Context) error
	QueryRows(ctx context.Context, brand domain.Brand, q domain.RowQuery) ([]domain.SalesRow, error)
	DistinctDimensions(ctx context.Context, brand domain.Brand) ([]domain.DimensionRow, error)
	ReplaceRows(ctx context.Context, brand domain.Brand, rows []domain.SalesRow) (int, error)
}

// IngestRunRepository persists ingestion job history.
type IngestRunRepository interface {
	RecordRun(ctx context.Context, job domain.Job) error
	GetRun(ctx context.Context, id string) (*domain.Job, error)
}
