package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/nineaccord/salesboard/internal/domain"
)

const undefinedTableCode = "42P01"

var salesColumns = []string{
	"warehouse", "category", "series", "item_name", "month_year",
	"quantity", "stock", "backorder",
}

func quotedTable(brand domain.Brand) string {
	return pq.QuoteIdentifier(brand.Table())
}

func createSalesTableSQL(brand domain.Brand) []string {
	table := brand.Table()
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id         BIGSERIAL PRIMARY KEY,
			warehouse  TEXT,
			category   TEXT,
			series     TEXT,
			item_name  TEXT,
			month_year TEXT,
			quantity   INTEGER NOT NULL DEFAULT 0,
			stock      INTEGER NOT NULL DEFAULT 0,
			backorder  INTEGER NOT NULL DEFAULT 0,
			loaded_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, quotedTable(brand)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (month_year)`,
			pq.QuoteIdentifier(table+"_month_year_idx"), quotedTable(brand)),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (warehouse, category)`,
			pq.QuoteIdentifier(table+"_dims_idx"), quotedTable(brand)),
	}
}

// isUndefinedTable recognises a missing relation from either driver.
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == undefinedTableCode
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == undefinedTableCode
	}
	return false
}
