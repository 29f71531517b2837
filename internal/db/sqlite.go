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
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mallflow/mallflow/internal/table"
)

// sqliteDateLayout stores dates as ISO 8601 text.
const sqliteDateLayout = "2006-01-02"

// SQLiteLoader loads tables into a SQLite file.
type SQLiteLoader struct {
	db  *sql.DB
	log zerolog.Logger
}

// OpenSQLite opens or creates a SQLite database file.
func OpenSQLite(ctx context.Context, path string, log zerolog.Logger) (*SQLiteLoader, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// One writer at a time
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	log.Info().Str("path", path).Msg("Opened sqlite database")
	return &SQLiteLoader{db: db, log: log}, nil
}

// DB returns the underlying handle.
func (l *SQLiteLoader) DB() *sql.DB {
	return l.db
}

// LoadTable recreates the table and inserts every row with a prepared
// statement inside one transaction.
func (l *SQLiteLoader) LoadTable(ctx context.Context, name string, t *table.Table) (int64, error) {
	ddl, err := createTableSQL(name, t, sqliteTypes)
	if err != nil {
		return 0, err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, dropTableSQL(name)); err != nil {
		return 0, fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", name, err)
	}

	cols := make([]string, len(t.Columns))
	marks := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = quoteIdent(c)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(name), strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert into %s: %w", name, err)
	}
	defer stmt.Close()

	var n int64
	for i, row := range t.Rows {
		if _, err := stmt.ExecContext(ctx, rowValues(row, sqliteDateLayout)...); err != nil {
			return n, fmt.Errorf("failed to insert row %d into %s: %w", i+1, name, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit table %s: %w", name, err)
	}

	l.log.Debug().Str("table", name).Int64("rows", n).Msg("Inserted table")
	return n, nil
}

// Close closes the database.
func (l *SQLiteLoader) Close() {
	if err := l.db.Close(); err != nil {
		l.log.Warn().Err(err).Msg("Failed to close sqlite database")
	}
}
