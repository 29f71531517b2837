//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package testutil provides a scratch PostgreSQL database for load
// integration tests.
package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// ConnEnv names the environment variable holding the server connection
	// string.
	ConnEnv = "MALLFLOW_TEST_CONN"

	// DefaultConnString is used when ConnEnv is unset.
	DefaultConnString = "postgres://postgres@localhost:5432/postgres"

	// DBPrefix is the prefix of scratch database names.
	DBPrefix = "mallflow_test_"
)

// ScratchDB is a freshly created database that is dropped when the test
// passes. A failed test keeps it for inspection.
type ScratchDB struct {
	Name     string
	ConnStr  string
	baseConn string
	pool     *pgxpool.Pool
}

// NewScratchDB creates a scratch database for the calling test, or skips
// the test when no PostgreSQL server answers.
func NewScratchDB(t *testing.T, suite string) *ScratchDB {
	t.Helper()

	baseConn := serverConnString()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, baseConn)
	if err != nil {
		t.Skipf("PostgreSQL not available, skipping integration test: %v", err)
	}
	defer admin.Close()
	if err := admin.Ping(ctx); err != nil {
		t.Skipf("PostgreSQL not available, skipping integration test: %v", err)
	}

	suffix := make([]byte, 8)
	if _, err := rand.Read(suffix); err != nil {
		t.Fatalf("Failed to generate database name: %v", err)
	}
	name := DBPrefix + suite + "_" + hex.EncodeToString(suffix)

	if _, err := admin.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		t.Fatalf("Failed to create scratch database %s: %v", name, err)
	}

	cfg, err := pgx.ParseConfig(baseConn)
	if err != nil {
		t.Fatalf("Failed to parse connection string: %v", err)
	}
	cfg.Database = name

	db := &ScratchDB{
		Name:     name,
		ConnStr:  connString(cfg),
		baseConn: baseConn,
	}
	t.Cleanup(func() { db.cleanup(t) })
	return db
}

func serverConnString() string {
	if s := os.Getenv(ConnEnv); s != "" {
		return s
	}
	return DefaultConnString
}

// connString renders cfg as a URL. ConnString() would return the original
// string without the changed database.
func connString(cfg *pgx.ConnConfig) string {
	if cfg.Password != "" {
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	}
	return fmt.Sprintf("postgres://%s@%s:%d/%s", cfg.User, cfg.Host, cfg.Port, cfg.Database)
}

// Pool returns a verification pool on the scratch database, independent of
// the connections used by the code under test.
func (db *ScratchDB) Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if db.pool != nil {
		return db.pool
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, db.ConnStr)
	if err != nil {
		t.Fatalf("Failed to connect to scratch database: %v", err)
	}
	db.pool = pool
	return pool
}

// RowCount returns the number of rows in a loaded table.
func (db *ScratchDB) RowCount(t *testing.T, table string) int64 {
	t.Helper()

	var n int64
	query := "SELECT COUNT(*) FROM " + pgx.Identifier{table}.Sanitize()
	if err := db.Pool(t).QueryRow(context.Background(), query).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows of %s: %v", table, err)
	}
	return n
}

// Columns returns the column names and SQL types of a loaded table, in
// ordinal order.
func (db *ScratchDB) Columns(t *testing.T, table string) [][2]string {
	t.Helper()

	rows, err := db.Pool(t).Query(context.Background(), `
        SELECT column_name, data_type
        FROM information_schema.columns
        WHERE table_schema = current_schema() AND table_name = $1
        ORDER BY ordinal_position`, table)
	if err != nil {
		t.Fatalf("Failed to read columns of %s: %v", table, err)
	}
	defer rows.Close()

	var cols [][2]string
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			t.Fatalf("Failed to scan column of %s: %v", table, err)
		}
		cols = append(cols, [2]string{name, typ})
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Failed to read columns of %s: %v", table, err)
	}
	return cols
}

// Metadata returns the mallflow_metadata key/value pairs.
func (db *ScratchDB) Metadata(t *testing.T) map[string]string {
	t.Helper()

	rows, err := db.Pool(t).Query(context.Background(),
		`SELECT key, value FROM mallflow_metadata`)
	if err != nil {
		t.Fatalf("Failed to read mallflow_metadata: %v", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			t.Fatalf("Failed to scan mallflow_metadata: %v", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("Failed to read mallflow_metadata: %v", err)
	}
	return meta
}

func (db *ScratchDB) cleanup(t *testing.T) {
	if db.pool != nil {
		db.pool.Close()
	}
	if t.Failed() {
		t.Logf("Test failed - keeping database %s for diagnostics", db.Name)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admin, err := pgxpool.New(ctx, db.baseConn)
	if err != nil {
		t.Logf("Warning: Failed to connect to drop %s: %v", db.Name, err)
		return
	}
	defer admin.Close()

	// Connections of the code under test may outlive it.
	_, _ = admin.Exec(ctx, `
        SELECT pg_terminate_backend(pid)
        FROM pg_stat_activity
        WHERE datname = $1 AND pid <> pg_backend_pid()`, db.Name)

	if _, err := admin.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{db.Name}.Sanitize()); err != nil {
		t.Logf("Warning: Failed to drop %s: %v", db.Name, err)
	}
}
