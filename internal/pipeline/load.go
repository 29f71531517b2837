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
	"time"

	"github.com/rs/zerolog"

	"github.com/mallflow/mallflow/internal/config"
	"github.com/mallflow/mallflow/internal/db"
	"github.com/mallflow/mallflow/internal/schema"
	"github.com/mallflow/mallflow/internal/table"
)

// EnrichedTableName is the database name of the enriched cross-visits table.
const EnrichedTableName = "enriched_" + schema.CrossVisits

// Loader copies the intermediate and enriched tables into a database.
type Loader struct {
	cfg   *config.Config
	sink  db.Loader
	runID string
	log   zerolog.Logger
}

// NewLoader creates a load stage writing to sink.
func NewLoader(cfg *config.Config, sink db.Loader, runID string, log zerolog.Logger) *Loader {
	return &Loader{
		cfg:   cfg,
		sink:  sink,
		runID: runID,
		log:   log.With().Str("stage", StageLoad).Logger(),
	}
}

// Run loads every intermediate table, then the enriched table, then
// records the run metadata. It stops at the first error.
func (l *Loader) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}

	for _, name := range schema.Tables {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		t, path, err := ReadIntermediate(l.cfg, name)
		if err != nil {
			return summary, err
		}
		res, err := l.load(ctx, name, path, t)
		if err != nil {
			return summary, err
		}
		summary.Add(res)
	}

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	enriched, path, err := ReadEnriched(l.cfg)
	if err != nil {
		return summary, err
	}
	res, err := l.load(ctx, EnrichedTableName, path, enriched)
	if err != nil {
		return summary, err
	}
	summary.Add(res)

	if err := l.sink.SaveMetadata(ctx, db.LoadMetadata(l.runID, time.Now())); err != nil {
		return summary, err
	}
	return summary, nil
}

func (l *Loader) load(ctx context.Context, name, path string, t *table.Table) (Result, error) {
	start := time.Now()
	target := l.cfg.Load.TablePrefix + name

	l.log.Info().Str("table", target).Str("path", path).Msg("Loading table")
	n, err := l.sink.LoadTable(ctx, target, t)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load %s into %s: %w", path, target, err)
	}
	l.log.Info().Str("table", target).Int64("rows", n).Msg("Loaded table")

	return Result{
		Stage:    StageLoad,
		Table:    target,
		Path:     path,
		RowsIn:   t.Len(),
		RowsOut:  int(n),
		Duration: time.Since(start),
	}, nil
}
