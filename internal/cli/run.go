//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mallflow/mallflow/internal/pipeline"
	"github.com/mallflow/mallflow/internal/schema"
)

var (
	normalizeTables []string
	enrichParquet   string
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize raw tables into the intermediate layer",
	Long: `Read every raw table, rename its columns to the canonical names by
position, drop exact duplicate rows and write the intermediate file.
Tables are processed one at a time in a fixed order; the first error stops
the run and tables already written are kept.

Example:
  mallflow normalize
  mallflow normalize --table dim_blocks --table cross_visits`,
	RunE: runNormalize,
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich intermediate cross visits with store attributes",
	Long: `Attach the retailer and category labels of both stores to every
intermediate cross-visit pair, resolve a single mall id and drop pairs
where neither store belongs to a known mall.

Example:
  mallflow enrich
  mallflow enrich --parquet enriched/cross_visits_enriched.parquet`,
	RunE: runEnrich,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run normalize then enrich",
	Long: `Run the full pipeline: normalize every raw table, then enrich the
cross-visits table. Interrupt with Ctrl+C to stop between tables.

Example:
  mallflow run --data-dir /srv/mall-data`,
	RunE: runRun,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check configuration and raw file headers",
	Long: `Validate the configuration, then read the header of every raw file and
compare its column count with the canonical column list. Every mismatching
table is reported.`,
	RunE: runValidate,
}

func init() {
	normalizeCmd.Flags().StringSliceVar(&normalizeTables, "table", nil,
		"normalize only these tables (repeatable)")
	enrichCmd.Flags().StringVar(&enrichParquet, "parquet", "",
		"also write the enriched table as parquet to this path")
	runCmd.Flags().StringVar(&enrichParquet, "parquet", "",
		"also write the enriched table as parquet to this path")
}

func applyParquetFlag() {
	if enrichParquet == "" {
		return
	}
	tc := cfg.Tables[schema.CrossVisits]
	tc.Parquet = enrichParquet
	cfg.Tables[schema.CrossVisits] = tc
}

func runNormalize(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	normalizer := pipeline.NewNormalizer(cfg, logger())

	var summary *pipeline.Summary
	var err error
	if len(normalizeTables) == 0 {
		summary, err = normalizer.Run(ctx)
	} else {
		summary = &pipeline.Summary{}
		for _, name := range normalizeTables {
			if _, ok := schema.Columns[name]; !ok {
				return fmt.Errorf("unknown table: %s", name)
			}
			if err = ctx.Err(); err != nil {
				break
			}
			var res pipeline.Result
			res, err = normalizer.NormalizeOne(name)
			if err != nil {
				break
			}
			summary.Add(res)
		}
	}

	if renderErr := summary.Render(cmd.OutOrStdout()); renderErr != nil && err == nil {
		err = renderErr
	}
	return err
}

func runEnrich(cmd *cobra.Command, args []string) error {
	applyParquetFlag()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	summary, err := pipeline.NewEnricher(cfg, logger()).Run(ctx)
	if renderErr := summary.Render(cmd.OutOrStdout()); renderErr != nil && err == nil {
		err = renderErr
	}
	return err
}

func runRun(cmd *cobra.Command, args []string) error {
	applyParquetFlag()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	log := logger()
	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting pipeline")

	summary, err := pipeline.Run(ctx, cfg, log)
	if renderErr := summary.Render(cmd.OutOrStdout()); renderErr != nil && err == nil {
		err = renderErr
	}
	if err != nil {
		return err
	}

	log.Info().Msg("Pipeline completed")
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := pipeline.CheckRawSchemas(cfg); err != nil {
		return err
	}
	cmd.Printf("All %d raw tables match their column lists\n", len(schema.Tables))
	return nil
}
