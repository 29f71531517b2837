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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/mallflow/mallflow/internal/table"
)

// PostgresLoader loads tables with COPY.
type PostgresLoader struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

// NewPostgresLoader wraps an open pool.
func NewPostgresLoader(pool *pgxpool.Pool, log zerolog.Logger) *PostgresLoader {
	return &PostgresLoader{pool: pool, log: log}
}

// LoadTable recreates the table and copies every row into it.
func (l *PostgresLoader) LoadTable(ctx context.Context, name string, t *table.Table) (int64, error) {
	ddl, err := createTableSQL(name, t, postgresTypes)
	if err != nil {
		return 0, err
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, dropTableSQL(name)); err != nil {
		return 0, fmt.Errorf("failed to drop table %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, ddl); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", name, err)
	}

	rows := make([][]any, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = rowValues(row, "")
	}
	n, err := tx.CopyFrom(ctx, pgx.Identifier{name}, t.Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy rows into %s: %w", name, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit table %s: %w", name, err)
	}

	l.log.Debug().Str("table", name).Int64("rows", n).Msg("Copied table")
	return n, nil
}

// Close closes the pool.
func (l *PostgresLoader) Close() {
	l.pool.Close()
}
