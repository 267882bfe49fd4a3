package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nineaccord/salesboard/internal/domain"
)

// RowReplacer swaps a brand's records for a new set.
type RowReplacer interface {
	ReplaceRows(ctx context.Context, brand domain.Brand, rows []domain.SalesRow) (int, error)
}

// Ingester loads one brand from a Source into the record store.
type Ingester struct {
	source       Source
	store        RowReplacer
	backorderTab string
}

func NewIngester(source Source, store RowReplacer, backorderTab string) *Ingester {
	return &Ingester{source: source, store: store, backorderTab: backorderTab}
}

// IngestBrand reads the brand's tab, cleans it and replaces the stored rows.
// Nothing is written when reading or cleaning fails.
func (i *Ingester) IngestBrand(ctx context.Context, brand domain.Brand) (int, error) {
	logger := log.With().Str("brand", brand.String()).Str("source", i.source.Name()).Logger()

	table, err := i.source.ReadTab(ctx, brand.SheetTab())
	if err != nil {
		return 0, fmt.Errorf("read %s tab %s: %w", brand, brand.SheetTab(), err)
	}

	backorders := i.loadBackorders(ctx, brand)

	rows, err := CleanRows(table, backorders)
	if err != nil {
		return 0, fmt.Errorf("clean %s rows: %w", brand, err)
	}
	logger.Info().Int("rows", len(rows)).Int("backorders", len(backorders)).Msg("sheet rows cleaned")

	n, err := i.store.ReplaceRows(ctx, brand, rows)
	if err != nil {
		return 0, fmt.Errorf("replace %s rows: %w", brand, err)
	}
	return n, nil
}

// loadBackorders is best effort: the tab is optional and a failure only
// leaves every backorder at 0.
func (i *Ingester) loadBackorders(ctx context.Context, brand domain.Brand) map[string]int {
	if i.backorderTab == "" {
		return nil
	}

	table, err := i.source.ReadTab(ctx, i.backorderTab)
	if err != nil {
		log.Warn().Err(err).Str("brand", brand.String()).Str("tab", i.backorderTab).Msg("backorder tab unavailable")
		return nil
	}
	lookup, err := BackorderLookup(table)
	if err != nil {
		log.Warn().Err(err).Str("brand", brand.String()).Str("tab", i.backorderTab).Msg("backorder tab unreadable")
		return nil
	}
	return lookup
}
