package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/vk/formulagrid/internal/formula"
)

// Drivers lists the database/sql driver names records can be read from.
var Drivers = []string{"sqlite", "postgres", "mysql"}

// LoadSQL opens the database, runs query and closes the connection.
func LoadSQL(ctx context.Context, driver, dsn, query string) ([]formula.Record, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	defer db.Close()
	return RecordsFromSQL(ctx, db, query)
}

// RecordsFromSQL runs query and turns every row into a record keyed by
// column name.
func RecordsFromSQL(ctx context.Context, db *sql.DB, query string, args ...any) ([]formula.Record, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	var records []formula.Record
	for rows.Next() {
		cells := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row %d: %w", len(records)+1, err)
		}

		rec := make(formula.Record, len(columns))
		for i, col := range columns {
			v, err := sqlValue(cells[i])
			if err != nil {
				return nil, fmt.Errorf("row %d, column '%s': %w", len(records)+1, col, err)
			}
			rec[col] = v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return records, nil
}

func sqlValue(cell any) (formula.Value, error) {
	switch v := cell.(type) {
	case nil:
		return formula.NullVal(), nil
	case int64:
		return formula.NumberVal(float64(v)), nil
	case float64:
		return formula.NumberVal(v), nil
	case []byte:
		// Drivers return DECIMAL and NUMERIC columns as bytes.
		return cellValue(string(v)), nil
	case string:
		return cellValue(v), nil
	case bool:
		return formula.TextVal(strconv.FormatBool(v)), nil
	case time.Time:
		return formula.TextVal(v.Format(time.RFC3339)), nil
	default:
		return formula.Value{}, fmt.Errorf("unsupported column type %T", cell)
	}
}
