package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/nineaccord/salesboard/internal/domain"
	"github.com/nineaccord/salesboard/internal/repository"
)

const defaultBatchSize = 500

var _ repository.SalesRepository = (*salesRepository)(nil)

// rawSalesRow receives numeric columns as text so that legacy tables with
// free-form values still load.
type rawSalesRow struct {
	Warehouse string `db:"warehouse"`
	Category  string `db:"category"`
	Series    string `db:"series"`
	ItemName  string `db:"item_name"`
	MonthYear string `db:"month_year"`
	Quantity  string `db:"quantity"`
	Stock     string `db:"stock"`
	Backorder string `db:"backorder"`
}

func (r rawSalesRow) toDomain() domain.SalesRow {
	return domain.SalesRow{
		Warehouse: r.Warehouse,
		Category:  r.Category,
		Series:    r.Series,
		ItemName:  r.ItemName,
		MonthYear: r.MonthYear,
		Quantity:  domain.SafeInt(r.Quantity),
		Stock:     domain.SafeInt(r.Stock),
		Backorder: domain.SafeInt(r.Backorder),
	}
}

type salesRepository struct {
	db        *DB
	batchSize int
}

func NewSalesRepository(db *DB, batchSize int) *salesRepository {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &salesRepository{db: db, batchSize: batchSize}
}

// EnsureSchema creates every brand table and the run history table.
func (r *salesRepository) EnsureSchema(ctx context.Context) error {
	stmts := []string{createIngestRunsTableSQL}
	for _, b := range domain.Brands() {
		stmts = append(stmts, createSalesTableSQL(b)...)
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error creating schema: %w", err)
		}
	}
	return nil
}

func (r *salesRepository) QueryRows(ctx context.Context, brand domain.Brand, q domain.RowQuery) ([]domain.SalesRow, error) {
	query := fmt.Sprintf(`
		SELECT
			COALESCE(warehouse, '')       AS warehouse,
			COALESCE(category, '')        AS category,
			COALESCE(series, '')          AS series,
			COALESCE(item_name, '')       AS item_name,
			COALESCE(month_year, '')      AS month_year,
			COALESCE(quantity::text, '')  AS quantity,
			COALESCE(stock::text, '')     AS stock,
			COALESCE(backorder::text, '') AS backorder
		FROM %s
		WHERE 1=1`, quotedTable(brand))

	clause, args := buildSalesFilterClause(q, 1)
	query += clause

	var raw []rawSalesRow
	if err := r.db.SelectContext(ctx, &raw, query, args...); err != nil {
		if isUndefinedTable(err) {
			return nil, domain.ErrTableMissing
		}
		return nil, fmt.Errorf("error querying %s: %w", brand.Table(), err)
	}

	rows := make([]domain.SalesRow, len(raw))
	for i, rr := range raw {
		rows[i] = rr.toDomain()
	}
	return rows, nil
}

func (r *salesRepository) DistinctDimensions(ctx context.Context, brand domain.Brand) ([]domain.DimensionRow, error) {
	query := fmt.Sprintf(`
		SELECT DISTINCT
			COALESCE(warehouse, '')  AS warehouse,
			COALESCE(category, '')   AS category,
			COALESCE(month_year, '') AS month_year
		FROM %s`, quotedTable(brand))

	var dims []domain.DimensionRow
	if err := r.db.SelectContext(ctx, &dims, query); err != nil {
		if isUndefinedTable(err) {
			return nil, domain.ErrTableMissing
		}
		return nil, fmt.Errorf("error listing dimensions of %s: %w", brand.Table(), err)
	}
	return dims, nil
}

// ReplaceRows swaps the brand's rows for rows inside one transaction. On any
// failure the previous contents stay in place.
func (r *salesRepository) ReplaceRows(ctx context.Context, brand domain.Brand, rows []domain.SalesRow) (int, error) {
	err := r.db.InTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range createSalesTableSQL(brand) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create %s: %w", brand.Table(), err)
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM "+quotedTable(brand)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", brand.Table(), err)
		}

		for start := 0; start < len(rows); start += r.batchSize {
			end := start + r.batchSize
			if end > len(rows) {
				end = len(rows)
			}
			query, args := buildInsertBatch(brand, rows[start:end])
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to insert rows %d-%d into %s: %w", start, end, brand.Table(), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Str("brand", brand.String()).Int("rows", len(rows)).Msg("sales table replaced")
	return len(rows), nil
}

func buildInsertBatch(brand domain.Brand, rows []domain.SalesRow) (string, []interface{}) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", quotedTable(brand), strings.Join(salesColumns, ", "))

	args := make([]interface{}, 0, len(rows)*len(salesColumns))
	idx := 1
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		placeholders := make([]string, len(salesColumns))
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", idx)
			idx++
		}
		sb.WriteString("(" + strings.Join(placeholders, ", ") + ")")
		args = append(args,
			row.Warehouse, row.Category, row.Series, row.ItemName, row.MonthYear,
			row.Quantity, row.Stock, row.Backorder,
		)
	}
	return sb.String(), args
}
