//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for mallflow.
package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mallflow/mallflow/internal/config"
	"github.com/mallflow/mallflow/internal/logging"
	"github.com/mallflow/mallflow/internal/schema"
	"github.com/mallflow/mallflow/pkg/version"
)

var (
	// Global flags
	cfgFile   string
	dataDir   string
	logLevel  string
	logFormat string

	// Global config
	cfg *config.Config

	// runID identifies this invocation in logs and load metadata
	runID string

	rootCmd = &cobra.Command{
		Use:   "mallflow",
		Short: "Batch ETL for shopping mall footfall and cross-visit exports",
		Long: `mallflow turns raw shopping mall exports into clean tables.

The normalize stage renames raw columns to canonical names by position and
removes exact duplicate rows. The enrich stage attaches store attributes
and a mall id to every cross-visit pair. Results can be loaded into
PostgreSQL or SQLite for downstream dashboards.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./mallflow.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"base directory for relative table paths")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format (console, json)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tablesCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(sampleCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.LogFormat = logFormat
	}

	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	runID = uuid.NewString()
	return nil
}

// logger returns the process logger tagged with the run id.
func logger() zerolog.Logger {
	return logging.Logger.With().Str("run_id", runID).Logger()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables and their configured files",
	Long: `List every logical table in processing order with its canonical
column count and the raw and intermediate files it maps to.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Println("Tables:")
		cmd.Println()
		for _, name := range schema.Tables {
			tc, err := cfg.Table(name)
			if err != nil {
				return err
			}
			cmd.Printf("  %-17s %2d columns  %s -> %s\n",
				name, len(tc.Columns), cfg.Path(tc.Raw), cfg.Path(tc.Intermediate))
			if tc.Enriched != "" {
				cmd.Printf("  %-17s             enriched: %s\n", "", cfg.Path(tc.Enriched))
			}
		}
		cmd.Println()
		cmd.Println("Enriched columns:")
		cmd.Println("  " + strings.Join(enrichedColumns(), ", "))
		return nil
	},
}

// enrichedColumns lists the columns of the enriched cross-visits table.
func enrichedColumns() []string {
	cols := append([]string(nil), schema.Columns[schema.CrossVisits]...)
	for _, role := range []string{schema.SuffixStore1, schema.SuffixStore2} {
		for _, c := range schema.EnrichmentColumns {
			if c == schema.StoreCode || c == schema.MallID {
				continue
			}
			cols = append(cols, c+role)
		}
	}
	return append(cols, schema.MallID)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	},
}
