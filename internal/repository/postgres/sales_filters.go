package postgres

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/nineaccord/salesboard/internal/domain"
)

// monthExpr extracts the numeric month from month_year. Values whose month
// part is not numeric yield NULL and therefore never satisfy a range.
const monthExpr = `CASE WHEN split_part(month_year, '/', 2) ~ '^[0-9]{1,2}$' ` +
	`THEN split_part(month_year, '/', 2)::int END`

// buildSalesFilterClause constructs the WHERE predicates for a row query.
// The returned clause starts with " AND " when non-empty.
func buildSalesFilterClause(q domain.RowQuery, startIndex int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex

	if q.YearSuffix != "" {
		clauses = append(clauses, fmt.Sprintf("substr(month_year, 1, 2) = $%d", idx))
		args = append(args, q.YearSuffix)
		idx++
	}

	if q.HasMonthRange() {
		clauses = append(clauses, fmt.Sprintf("%s BETWEEN $%d AND $%d", monthExpr, idx, idx+1))
		args = append(args, q.StartMonth, q.EndMonth)
		idx += 2
	}

	if len(q.Warehouses) > 0 {
		clauses = append(clauses, fmt.Sprintf("warehouse = ANY($%d::text[])", idx))
		args = append(args, pq.Array(q.Warehouses))
		idx++
	}

	if len(q.Categories) > 0 {
		clauses = append(clauses, fmt.Sprintf("category = ANY($%d::text[])", idx))
		args = append(args, pq.Array(q.Categories))
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}
