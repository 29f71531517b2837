//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/mallflow/mallflow/internal/table"
)

// Loader writes tables into a database. LoadTable replaces any existing
// table of the same name within one transaction.
type Loader interface {
	LoadTable(ctx context.Context, name string, t *table.Table) (int64, error)
	SaveMetadata(ctx context.Context, meta map[string]string) error
	Metadata(ctx context.Context) (map[string]string, error)
	Close()
}

// typeNames maps column types to a dialect's SQL type names.
type typeNames map[table.ColumnType]string

var postgresTypes = typeNames{
	table.String:  "TEXT",
	table.Integer: "BIGINT",
	table.Float:   "DOUBLE PRECISION",
	table.Date:    "DATE",
}

var sqliteTypes = typeNames{
	table.String:  "TEXT",
	table.Integer: "INTEGER",
	table.Float:   "REAL",
	table.Date:    "TEXT",
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func createTableSQL(name string, t *table.Table, types typeNames) (string, error) {
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("table %s has no columns", name)
	}
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		typ, ok := types[t.Types[i]]
		if !ok {
			return "", fmt.Errorf("table %s, column %s: unsupported type %s", name, c, t.Types[i])
		}
		cols[i] = "    " + quoteIdent(c) + " " + typ
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", quoteIdent(name), strings.Join(cols, ",\n")), nil
}

func dropTableSQL(name string) string {
	return "DROP TABLE IF EXISTS " + quoteIdent(name)
}

// sqlValue converts a cell for a database driver. Missing cells become NULL.
// Dates are passed as time.Time unless dateLayout is set.
func sqlValue(v table.Value, dateLayout string) any {
	if !v.Valid {
		return nil
	}
	switch v.Type {
	case table.Integer:
		return v.Int
	case table.Float:
		return v.Float
	case table.Date:
		if dateLayout != "" {
			return v.Time.Format(dateLayout)
		}
		return v.Time
	default:
		return v.Str
	}
}

func rowValues(row table.Row, dateLayout string) []any {
	vals := make([]any, len(row))
	for i, v := range row {
		vals[i] = sqlValue(v, dateLayout)
	}
	return vals
}
