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
	"strings"

	"github.com/spf13/cobra"

	"github.com/mallflow/mallflow/internal/datagen"
	"github.com/mallflow/mallflow/internal/db"
	"github.com/mallflow/mallflow/internal/pipeline"
)

var (
	loadDriver     string
	loadConnection string
	loadPrefix     string

	sampleSeed    uint64
	sampleMalls   int
	sampleStores  int
	sampleDays    int
	sampleProfile string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load intermediate and enriched tables into a database",
	Long: `Load every intermediate table and the enriched cross-visits table into
PostgreSQL or SQLite. Each table is dropped and recreated with typed
columns inside its own transaction. Run metadata is recorded in
mallflow_metadata.

Example:
  mallflow load --driver postgres --connection "postgres://..."
  mallflow load --driver sqlite --connection mall.db --table-prefix etl_`,
	RunE: runLoad,
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Generate synthetic raw exports",
	Long: `Write synthetic raw files for all seven tables under the configured
raw paths. The data includes exact duplicate rows, store codes spanning two
blocks and cross-visit pairs that name unknown stores.

Available footfall profiles: ` + strings.Join(datagen.ListProfiles(), ", ") + `

Example:
  mallflow sample --malls 5 --days 90 --seed 7
  mallflow sample --profile flat`,
	RunE: runSample,
}

func init() {
	loadCmd.Flags().StringVar(&loadDriver, "driver", "",
		"database driver: postgres or sqlite")
	loadCmd.Flags().StringVar(&loadConnection, "connection", "",
		"PostgreSQL connection string or SQLite file path")
	loadCmd.Flags().StringVar(&loadPrefix, "table-prefix", "",
		"prefix for loaded table names")

	sampleCmd.Flags().Uint64Var(&sampleSeed, "seed", 0,
		"random seed (default from config)")
	sampleCmd.Flags().IntVar(&sampleMalls, "malls", 0,
		"number of malls")
	sampleCmd.Flags().IntVar(&sampleStores, "stores-per-mall", 0,
		"number of stores per mall")
	sampleCmd.Flags().IntVar(&sampleDays, "days", 0,
		"number of days of facts")
	sampleCmd.Flags().StringVar(&sampleProfile, "profile", "",
		"footfall profile (default from config)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if loadDriver != "" {
		cfg.Load.Driver = loadDriver
	}
	if loadConnection != "" {
		cfg.Load.Connection = loadConnection
	}
	if loadPrefix != "" {
		cfg.Load.TablePrefix = loadPrefix
	}

	// Validate configuration
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	log := logger()
	sink, err := db.Open(ctx, cfg.Load.Driver, cfg.Load.Connection, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer sink.Close()

	summary, err := pipeline.NewLoader(cfg, sink, runID, log).Run(ctx)
	if renderErr := summary.Render(cmd.OutOrStdout()); renderErr != nil && err == nil {
		err = renderErr
	}
	return err
}

func runSample(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("seed") {
		cfg.Sample.Seed = sampleSeed
	}
	if sampleMalls > 0 {
		cfg.Sample.Malls = sampleMalls
	}
	if sampleStores > 0 {
		cfg.Sample.StoresPerMall = sampleStores
	}
	if sampleDays > 0 {
		cfg.Sample.Days = sampleDays
	}
	if sampleProfile != "" {
		cfg.Sample.Profile = sampleProfile
	}

	if err := cfg.ValidateSample(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	log := logger()
	log.Info().
		Uint64("seed", cfg.Sample.Seed).
		Int("malls", cfg.Sample.Malls).
		Int("stores_per_mall", cfg.Sample.StoresPerMall).
		Int("days", cfg.Sample.Days).
		Str("profile", cfg.Sample.Profile).
		Msg("Generating sample data")

	summary, err := datagen.NewGenerator(cfg, log).Generate(ctx)
	if renderErr := summary.Render(cmd.OutOrStdout()); renderErr != nil && err == nil {
		err = renderErr
	}
	return err
}
