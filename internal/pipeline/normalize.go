//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline implements the mallflow stages: raw normalization,
// cross-visit enrichment and the raw schema check.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mallflow/mallflow/internal/config"
	"github.com/mallflow/mallflow/internal/schema"
	"github.com/mallflow/mallflow/internal/table"
)

// Schema is the canonical shape of one table.
type Schema struct {
	// Columns are the canonical names, matched to raw columns by position.
	Columns []string

	// Types declares non-string columns.
	Types map[string]table.ColumnType

	// DateFormat is the layout of date columns.
	DateFormat string
}

// TableSchema builds the canonical schema of a configured table.
func TableSchema(cfg *config.Config, name string) (Schema, error) {
	tc, err := cfg.Table(name)
	if err != nil {
		return Schema{}, err
	}
	types, err := cfg.ColumnTypes(name)
	if err != nil {
		return Schema{}, err
	}
	return Schema{Columns: tc.Columns, Types: types, DateFormat: cfg.CSV.DateFormat}, nil
}

// NormalizeTable renames the columns of raw by position, parses declared
// column types and removes exact duplicate rows, keeping first occurrences
// in order. The column count of raw must equal len(s.Columns).
func NormalizeTable(raw *table.Table, s Schema) (*table.Table, error) {
	renamed, err := raw.Rename(s.Columns)
	if err != nil {
		return nil, err
	}
	typed, err := renamed.Cast(s.Types, s.DateFormat)
	if err != nil {
		return nil, err
	}
	return typed.DropDuplicates(), nil
}

// Normalizer is the raw to intermediate stage.
type Normalizer struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewNormalizer creates a normalizer stage.
func NewNormalizer(cfg *config.Config, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		cfg: cfg,
		log: log.With().Str("stage", StageNormalize).Logger(),
	}
}

// Run normalizes every table in processing order. It stops at the first
// error; intermediate files already written are left in place.
func (n *Normalizer) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	for _, name := range schema.Tables {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		res, err := n.NormalizeOne(name)
		if err != nil {
			return summary, err
		}
		summary.Add(res)
	}
	return summary, nil
}

// NormalizeOne normalizes a single table and writes its intermediate file.
func (n *Normalizer) NormalizeOne(name string) (Result, error) {
	start := time.Now()

	tc, err := n.cfg.Table(name)
	if err != nil {
		return Result{}, err
	}
	s, err := TableSchema(n.cfg, name)
	if err != nil {
		return Result{}, err
	}

	rawPath := n.cfg.Path(tc.Raw)
	n.log.Info().Str("table", name).Str("path", rawPath).Msg("Reading raw table")

	raw, err := table.ReadCSV(name, rawPath, n.cfg.RawDialect())
	if err != nil {
		return Result{}, fmt.Errorf("failed to read raw table %s from %s: %w", name, rawPath, err)
	}

	out, err := NormalizeTable(raw, s)
	if err != nil {
		return Result{}, fmt.Errorf("failed to normalize table %s from %s: %w", name, rawPath, err)
	}

	outPath := n.cfg.Path(tc.Intermediate)
	if err := table.WriteCSV(outPath, out, n.cfg.OutputDialect()); err != nil {
		return Result{}, fmt.Errorf("failed to write intermediate table %s to %s: %w", name, outPath, err)
	}

	n.log.Info().
		Str("table", name).
		Str("path", outPath).
		Int("rows", out.Len()).
		Int("duplicates", raw.Len()-out.Len()).
		Msg("Wrote intermediate table")

	return Result{
		Stage:    StageNormalize,
		Table:    name,
		Path:     outPath,
		RowsIn:   raw.Len(),
		RowsOut:  out.Len(),
		Duration: time.Since(start),
	}, nil
}
