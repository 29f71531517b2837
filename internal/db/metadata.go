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
	"maps"
	"slices"
	"time"

	"github.com/mallflow/mallflow/pkg/version"
)

const metadataTable = "mallflow_metadata"

// createMetadataTableSQL creates the metadata table if it doesn't exist.
const createMetadataTableSQL = `
CREATE TABLE IF NOT EXISTS mallflow_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`

const upsertMetadataPostgresSQL = `
INSERT INTO mallflow_metadata (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

const upsertMetadataSQLiteSQL = `
INSERT INTO mallflow_metadata (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`

// LoadMetadata returns the metadata recorded for a load run.
func LoadMetadata(runID string, loadedAt time.Time) map[string]string {
	return map[string]string{
		"version":   version.Short(),
		"run_id":    runID,
		"loaded_at": loadedAt.UTC().Format(time.RFC3339),
	}
}

// SaveMetadata upserts metadata keys.
func (l *PostgresLoader) SaveMetadata(ctx context.Context, meta map[string]string) error {
	if _, err := l.pool.Exec(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}
	for _, key := range slices.Sorted(maps.Keys(meta)) {
		if _, err := l.pool.Exec(ctx, upsertMetadataPostgresSQL, key, meta[key]); err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}
	l.log.Debug().Int("keys", len(meta)).Msg("Saved metadata")
	return nil
}

// Metadata retrieves all metadata as a map.
func (l *PostgresLoader) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT key, value FROM `+metadataTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// SaveMetadata upserts metadata keys.
func (l *SQLiteLoader) SaveMetadata(ctx context.Context, meta map[string]string) error {
	if _, err := l.db.ExecContext(ctx, createMetadataTableSQL); err != nil {
		return fmt.Errorf("failed to create metadata table: %w", err)
	}
	for _, key := range slices.Sorted(maps.Keys(meta)) {
		if _, err := l.db.ExecContext(ctx, upsertMetadataSQLiteSQL, key, meta[key]); err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}
	l.log.Debug().Int("keys", len(meta)).Msg("Saved metadata")
	return nil
}

// Metadata retrieves all metadata as a map.
func (l *SQLiteLoader) Metadata(ctx context.Context) (map[string]string, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT key, value FROM `+metadataTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}
