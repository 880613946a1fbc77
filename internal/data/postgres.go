package data

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// undefinedTable is the Postgres SQLSTATE for a missing relation.
const undefinedTable = "42P01"

// Querier is the subset of pgxpool.Pool used by LoadPostgres.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadPostgres reads every known table from Postgres (as written by
// scripts/import_data.go). Tables that do not exist are treated as empty.
func LoadPostgres(ctx context.Context, db Querier, logger *zap.Logger) (*Database, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	tables := make(map[string][]Row, len(Tables))
	for _, table := range Tables {
		rows, err := queryTable(ctx, db, table)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == undefinedTable {
				logger.Debug("data table not found, treating as empty", zap.String("table", table))
				continue
			}
			return nil, fmt.Errorf("table %s: %w", table, err)
		}
		tables[table] = rows

		logger.Debug("loaded data table",
			zap.String("table", table),
			zap.Int("rows", len(rows)),
		)
	}

	return NewDatabase(tables), nil
}

func queryTable(ctx context.Context, db Querier, table string) ([]Row, error) {
	rows, err := db.Query(ctx, "SELECT * FROM "+pgx.Identifier{table}.Sanitize()+" ORDER BY row_index")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := make([]Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(Row, len(fields))
		for i, fd := range fields {
			name := strings.ToLower(fd.Name)
			if name == "row_index" {
				continue
			}
			if values[i] == nil {
				row[name] = ""
				continue
			}
			row[name] = strings.TrimSpace(fmt.Sprint(values[i]))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
