//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for mallflow.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/viper"

	"github.com/mallflow/mallflow/internal/schema"
	"github.com/mallflow/mallflow/internal/table"
)

// Config holds all configuration for mallflow.
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`

	// LogFormat selects console or json log output.
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// DataDir is the base directory for relative table paths.
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`

	// CSV holds the shared CSV dialect.
	CSV CSVConfig `mapstructure:"csv" yaml:"csv"`

	// Tables maps each logical table name to its files and schema.
	Tables map[string]TableConfig `mapstructure:"tables" yaml:"tables"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load" yaml:"load"`

	// Sample holds configuration for the sample subcommand.
	Sample SampleConfig `mapstructure:"sample" yaml:"sample"`
}

// CSVConfig holds the CSV dialect parameters.
type CSVConfig struct {
	// Separator is the single-character field delimiter.
	Separator string `mapstructure:"separator" yaml:"separator"`

	// Encoding is the text encoding of raw input files.
	Encoding string `mapstructure:"encoding" yaml:"encoding"`

	// OutputEncoding is the text encoding of intermediate and enriched files.
	OutputEncoding string `mapstructure:"output_encoding" yaml:"output_encoding"`

	// MissingValues are literal field values read as missing.
	MissingValues []string `mapstructure:"missing_values" yaml:"missing_values"`

	// DateFormat is the Go time layout of date columns.
	DateFormat string `mapstructure:"date_format" yaml:"date_format"`
}

// TableConfig describes one logical table.
type TableConfig struct {
	// Raw is the raw input file.
	Raw string `mapstructure:"raw" yaml:"raw"`

	// Intermediate is the normalized output file.
	Intermediate string `mapstructure:"intermediate" yaml:"intermediate"`

	// Enriched is the enriched output file (cross_visits only).
	Enriched string `mapstructure:"enriched" yaml:"enriched,omitempty"`

	// Parquet is an optional Parquet copy of the enriched output.
	Parquet string `mapstructure:"parquet" yaml:"parquet,omitempty"`

	// Columns is the canonical column list, matched to raw columns by position.
	Columns []string `mapstructure:"columns" yaml:"columns"`

	// Types declares non-string column types (integer, float, date).
	Types map[string]string `mapstructure:"types" yaml:"types,omitempty"`
}

// LoadConfig holds configuration for loading tables into a database.
type LoadConfig struct {
	// Driver is the target database: postgres or sqlite.
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Connection is the PostgreSQL connection string or SQLite file path.
	Connection string `mapstructure:"connection" yaml:"connection"`

	// TablePrefix is prepended to every loaded table name.
	TablePrefix string `mapstructure:"table_prefix" yaml:"table_prefix"`
}

// SampleConfig holds configuration for synthetic raw data generation.
type SampleConfig struct {
	// Seed makes generated data reproducible.
	Seed uint64 `mapstructure:"seed" yaml:"seed"`

	// Malls is the number of malls to generate.
	Malls int `mapstructure:"malls" yaml:"malls"`

	// StoresPerMall is the number of stores per mall.
	StoresPerMall int `mapstructure:"stores_per_mall" yaml:"stores_per_mall"`

	// Days is the length of the generated daily time series.
	Days int `mapstructure:"days" yaml:"days"`

	// DuplicateRate is the fraction of rows emitted twice.
	DuplicateRate float64 `mapstructure:"duplicate_rate" yaml:"duplicate_rate"`

	// UnknownPairRate is the fraction of cross-visit pairs naming unknown stores.
	UnknownPairRate float64 `mapstructure:"unknown_pair_rate" yaml:"unknown_pair_rate"`

	// Profile names the footfall profile that scales daily traffic.
	Profile string `mapstructure:"profile" yaml:"profile"`
}

// DefaultTables returns the default file layout and schema of every table.
func DefaultTables() map[string]TableConfig {
	tables := make(map[string]TableConfig, len(schema.Tables))
	for _, name := range schema.Tables {
		tc := TableConfig{
			Raw:          filepath.Join("raw", name+"_v1.csv"),
			Intermediate: filepath.Join("intermediate", name+".csv"),
			Columns:      append([]string(nil), schema.Columns[name]...),
		}
		if types, ok := schema.Types[name]; ok {
			tc.Types = make(map[string]string, len(types))
			for col, typ := range types {
				tc.Types[col] = typ
			}
		}
		tables[name] = tc
	}

	cv := tables[schema.CrossVisits]
	cv.Enriched = filepath.Join("enriched", "cross_visits_enriched.csv")
	tables[schema.CrossVisits] = cv

	return tables
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "console",
		DataDir:   "data",
		CSV: CSVConfig{
			Separator:      ",",
			Encoding:       "latin-1",
			OutputEncoding: "utf-8",
			MissingValues:  []string{"", "NA", "NaN"},
			DateFormat:     table.DefaultDateFormat,
		},
		Tables: DefaultTables(),
		Load: LoadConfig{
			Driver: "postgres",
		},
		Sample: SampleConfig{
			Seed:            42,
			Malls:           3,
			StoresPerMall:   25,
			Days:            30,
			DuplicateRate:   0.05,
			UnknownPairRate: 0.02,
			Profile:         "retail",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./mallflow.yaml
// 3. ~/.config/mallflow/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("mallflow")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "mallflow"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Start with defaults. Table entries are decoded separately so that a
	// partial entry only overrides the fields it sets.
	cfg := DefaultConfig()
	defaults := cfg.Tables
	cfg.Tables = nil

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Tables = mergeTables(defaults, cfg.Tables)

	return cfg, nil
}

func mergeTables(defaults, overrides map[string]TableConfig) map[string]TableConfig {
	merged := make(map[string]TableConfig, len(defaults))
	for name, tc := range defaults {
		merged[name] = tc
	}
	for name, o := range overrides {
		tc := merged[name]
		if o.Raw != "" {
			tc.Raw = o.Raw
		}
		if o.Intermediate != "" {
			tc.Intermediate = o.Intermediate
		}
		if o.Enriched != "" {
			tc.Enriched = o.Enriched
		}
		if o.Parquet != "" {
			tc.Parquet = o.Parquet
		}
		if len(o.Columns) > 0 {
			tc.Columns = o.Columns
		}
		if o.Types != nil {
			tc.Types = o.Types
		}
		merged[name] = tc
	}
	return merged
}

// Path resolves a configured path against DataDir.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

// Table returns the configuration of a logical table.
func (c *Config) Table(name string) (TableConfig, error) {
	tc, ok := c.Tables[name]
	if !ok {
		return TableConfig{}, fmt.Errorf("table %s is not configured", name)
	}
	return tc, nil
}

// ColumnTypes parses the declared column types of a table.
func (c *Config) ColumnTypes(name string) (map[string]table.ColumnType, error) {
	tc, err := c.Table(name)
	if err != nil {
		return nil, err
	}
	types := make(map[string]table.ColumnType, len(tc.Types))
	for col, s := range tc.Types {
		ct, err := table.ParseColumnType(s)
		if err != nil {
			return nil, fmt.Errorf("table %s, column %s: %w", name, col, err)
		}
		types[col] = ct
	}
	return types, nil
}

func (c *Config) dialect(encoding string) table.Dialect {
	sep, _ := utf8.DecodeRuneInString(c.CSV.Separator)
	return table.Dialect{
		Separator:     sep,
		Encoding:      encoding,
		MissingValues: c.CSV.MissingValues,
		DateFormat:    c.CSV.DateFormat,
	}
}

// RawDialect returns the dialect of raw input files.
func (c *Config) RawDialect() table.Dialect {
	return c.dialect(c.CSV.Encoding)
}

// OutputDialect returns the dialect of intermediate and enriched files.
func (c *Config) OutputDialect() table.Dialect {
	return c.dialect(c.CSV.OutputEncoding)
}

// Validate checks that the table layout and CSV dialect are usable.
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.CSV.Separator) != 1 {
		return fmt.Errorf("csv.separator must be a single character, got %q", c.CSV.Separator)
	}
	if _, err := table.LookupEncoding(c.CSV.Encoding); err != nil {
		return fmt.Errorf("csv.encoding: %w", err)
	}
	if _, err := table.LookupEncoding(c.CSV.OutputEncoding); err != nil {
		return fmt.Errorf("csv.output_encoding: %w", err)
	}
	if c.CSV.DateFormat == "" {
		return fmt.Errorf("csv.date_format is required")
	}

	for _, name := range schema.Tables {
		tc, err := c.Table(name)
		if err != nil {
			return err
		}
		if tc.Raw == "" || tc.Intermediate == "" {
			return fmt.Errorf("table %s: raw and intermediate paths are required", name)
		}
		if len(tc.Columns) == 0 {
			return fmt.Errorf("table %s: columns are required", name)
		}
		seen := make(map[string]bool, len(tc.Columns))
		for _, col := range tc.Columns {
			if seen[col] {
				return fmt.Errorf("table %s: duplicate column %q", name, col)
			}
			seen[col] = true
		}
		for col := range tc.Types {
			if !seen[col] {
				return fmt.Errorf("table %s: type declared for unknown column %q", name, col)
			}
		}
		if _, err := c.ColumnTypes(name); err != nil {
			return err
		}
	}

	if c.Tables[schema.CrossVisits].Enriched == "" {
		return fmt.Errorf("table %s: enriched path is required", schema.CrossVisits)
	}
	return c.validateJoinKeyTypes()
}

// validateJoinKeyTypes checks that both store code keys of cross_visits
// share the declared type of dim_blocks.store_code. Values of different
// types never match in a join.
func (c *Config) validateJoinKeyTypes() error {
	blockTypes, err := c.ColumnTypes(schema.DimBlocks)
	if err != nil {
		return err
	}
	visitTypes, err := c.ColumnTypes(schema.CrossVisits)
	if err != nil {
		return err
	}
	want := blockTypes[schema.StoreCode]
	for _, col := range []string{schema.StoreCode1, schema.StoreCode2} {
		if got := visitTypes[col]; got != want {
			return fmt.Errorf("table %s: column %s is %s but %s.%s is %s",
				schema.CrossVisits, col, got, schema.DimBlocks, schema.StoreCode, want)
		}
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Load.Driver != "postgres" && c.Load.Driver != "sqlite" {
		return fmt.Errorf("load.driver must be 'postgres' or 'sqlite'")
	}
	if c.Load.Connection == "" {
		return fmt.Errorf("load.connection is required")
	}
	return nil
}

// ValidateSample checks configuration required for the sample command.
func (c *Config) ValidateSample() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Sample.Malls < 1 {
		return fmt.Errorf("sample.malls must be at least 1")
	}
	if c.Sample.StoresPerMall < 2 {
		return fmt.Errorf("sample.stores_per_mall must be at least 2")
	}
	if c.Sample.Days < 1 {
		return fmt.Errorf("sample.days must be at least 1")
	}
	if c.Sample.DuplicateRate < 0 || c.Sample.DuplicateRate > 1 {
		return fmt.Errorf("sample.duplicate_rate must be between 0 and 1")
	}
	if c.Sample.UnknownPairRate < 0 || c.Sample.UnknownPairRate > 1 {
		return fmt.Errorf("sample.unknown_pair_rate must be between 0 and 1")
	}
	if c.Sample.Profile == "" {
		return fmt.Errorf("sample.profile is required")
	}
	return nil
}
