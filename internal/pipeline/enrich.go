//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/mallflow/mallflow/internal/config"
	"github.com/mallflow/mallflow/internal/export"
	"github.com/mallflow/mallflow/internal/schema"
	"github.com/mallflow/mallflow/internal/table"
)

// EnrichStats reports what enrichment did to the cross-visits table.
type EnrichStats struct {
	RowsIn  int
	RowsOut int

	// Dropped counts rows where neither store resolved to a mall.
	Dropped int

	// MallMismatches counts rows whose two stores resolved to different
	// malls. Side 1 wins for these rows.
	MallMismatches int
}

// ApplyRoleSuffix renames every column of a projection for one side of a
// pairwise join.
func ApplyRoleSuffix(projection *table.Table, role string) *table.Table {
	return projection.WithSuffix(role)
}

// StoreLookup projects the block dimension onto the enrichment columns and
// keeps the first row of each store code.
func StoreLookup(dimBlocks *table.Table) (*table.Table, error) {
	projection, err := dimBlocks.Select(schema.EnrichmentColumns...)
	if err != nil {
		return nil, err
	}
	return projection.DropDuplicatesOn(schema.StoreCode)
}

// EnrichCrossVisits attaches the attributes of both stores of every
// cross-visit pair and a single mall id. Rows where neither store resolves
// to a mall are dropped.
func EnrichCrossVisits(crossVisits, dimBlocks *table.Table) (*table.Table, EnrichStats, error) {
	lookup, err := StoreLookup(dimBlocks)
	if err != nil {
		return nil, EnrichStats{}, err
	}
	return enrichWithLookup(crossVisits, lookup)
}

func enrichWithLookup(crossVisits, lookup *table.Table) (*table.Table, EnrichStats, error) {
	stats := EnrichStats{RowsIn: crossVisits.Len()}

	joined := crossVisits
	for i, role := range []string{schema.SuffixStore1, schema.SuffixStore2} {
		side := ApplyRoleSuffix(lookup, role)
		leftOn := []string{schema.StoreCode1, schema.StoreCode2}[i]
		var err error
		joined, err = joined.LeftJoin(side, leftOn, schema.StoreCode+role)
		if err != nil {
			return nil, stats, err
		}
	}

	mall1 := schema.MallID + schema.SuffixStore1
	mall2 := schema.MallID + schema.SuffixStore2
	i1, i2 := joined.Index(mall1), joined.Index(mall2)
	for _, row := range joined.Rows {
		if row[i1].Valid && row[i2].Valid && !row[i1].Equal(row[i2]) {
			stats.MallMismatches++
		}
	}

	merged, err := joined.Coalesce(schema.MallID, mall1, mall2)
	if err != nil {
		return nil, stats, err
	}
	merged, err = merged.Drop(mall1, mall2)
	if err != nil {
		return nil, stats, err
	}
	out, err := merged.DropMissing(schema.MallID)
	if err != nil {
		return nil, stats, err
	}

	stats.RowsOut = out.Len()
	stats.Dropped = stats.RowsIn - stats.RowsOut
	return out, stats, nil
}

// ReadIntermediate reads a normalized table back with its declared types.
// The header must match the canonical column list.
func ReadIntermediate(cfg *config.Config, name string) (*table.Table, string, error) {
	tc, err := cfg.Table(name)
	if err != nil {
		return nil, "", err
	}
	path := cfg.Path(tc.Intermediate)
	t, err := readTyped(cfg, name, path)
	if err != nil {
		return nil, path, err
	}
	if !slices.Equal(t.Columns, tc.Columns) {
		return nil, path, fmt.Errorf("intermediate table %s at %s has columns %v, want %v: %w",
			name, path, t.Columns, tc.Columns, table.ErrSchemaMismatch)
	}
	return t, path, nil
}

// ReadEnriched reads the enriched cross-visits table with its declared types.
func ReadEnriched(cfg *config.Config) (*table.Table, string, error) {
	tc, err := cfg.Table(schema.CrossVisits)
	if err != nil {
		return nil, "", err
	}
	path := cfg.Path(tc.Enriched)
	t, err := readTyped(cfg, schema.CrossVisits, path)
	return t, path, err
}

func readTyped(cfg *config.Config, name, path string) (*table.Table, error) {
	t, err := table.ReadCSV(name, path, cfg.OutputDialect())
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s from %s: %w", name, path, err)
	}
	types, err := cfg.ColumnTypes(name)
	if err != nil {
		return nil, err
	}
	present := make(map[string]table.ColumnType, len(types))
	for col, ct := range types {
		if t.Index(col) >= 0 {
			present[col] = ct
		}
	}
	t, err = t.Cast(present, cfg.CSV.DateFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to parse table %s from %s: %w", name, path, err)
	}
	return t, nil
}

// Enricher is the intermediate to enriched stage.
type Enricher struct {
	cfg *config.Config
	log zerolog.Logger
}

// NewEnricher creates an enricher stage.
func NewEnricher(cfg *config.Config, log zerolog.Logger) *Enricher {
	return &Enricher{
		cfg: cfg,
		log: log.With().Str("stage", StageEnrich).Logger(),
	}
}

// Run enriches the intermediate cross-visits table and writes the enriched
// CSV, plus a Parquet copy when one is configured.
func (e *Enricher) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	dimBlocks, dimPath, err := ReadIntermediate(e.cfg, schema.DimBlocks)
	if err != nil {
		return summary, err
	}
	e.log.Info().Str("table", schema.DimBlocks).Str("path", dimPath).
		Int("rows", dimBlocks.Len()).Msg("Read intermediate table")

	crossVisits, cvPath, err := ReadIntermediate(e.cfg, schema.CrossVisits)
	if err != nil {
		return summary, err
	}
	e.log.Info().Str("table", schema.CrossVisits).Str("path", cvPath).
		Int("rows", crossVisits.Len()).Msg("Read intermediate table")

	enriched, stats, err := EnrichCrossVisits(crossVisits, dimBlocks)
	if err != nil {
		return summary, fmt.Errorf("failed to enrich %s with %s: %w", cvPath, dimPath, err)
	}
	if stats.MallMismatches > 0 {
		e.log.Warn().
			Str("table", schema.CrossVisits).
			Int("rows", stats.MallMismatches).
			Msg("Store pairs resolve to different malls; using the first store's mall")
	}

	tc, err := e.cfg.Table(schema.CrossVisits)
	if err != nil {
		return summary, err
	}
	outPath := e.cfg.Path(tc.Enriched)
	if err := table.WriteCSV(outPath, enriched, e.cfg.OutputDialect()); err != nil {
		return summary, fmt.Errorf("failed to write enriched table to %s: %w", outPath, err)
	}
	e.log.Info().
		Str("table", schema.CrossVisits).
		Str("path", outPath).
		Int("rows", stats.RowsOut).
		Int("dropped", stats.Dropped).
		Msg("Wrote enriched table")

	if tc.Parquet != "" {
		pqPath := e.cfg.Path(tc.Parquet)
		if err := export.WriteParquet(pqPath, enriched); err != nil {
			return summary, fmt.Errorf("failed to write enriched parquet to %s: %w", pqPath, err)
		}
		e.log.Info().Str("table", schema.CrossVisits).Str("path", pqPath).
			Int("rows", stats.RowsOut).Msg("Wrote enriched parquet")
	}

	summary.Add(Result{
		Stage:    StageEnrich,
		Table:    schema.CrossVisits,
		Path:     outPath,
		RowsIn:   stats.RowsIn,
		RowsOut:  stats.RowsOut,
		Duration: time.Since(start),
	})
	return summary, nil
}

// Run normalizes every table and then enriches cross visits.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Summary, error) {
	summary, err := NewNormalizer(cfg, log).Run(ctx)
	if err != nil {
		return summary, err
	}
	enriched, err := NewEnricher(cfg, log).Run(ctx)
	summary.Merge(enriched)
	return summary, err
}
