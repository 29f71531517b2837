package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mallflow/mallflow/internal/schema"
	"github.com/mallflow/mallflow/internal/table"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected LogLevel 'info', got '%s'", cfg.LogLevel)
	}
	if cfg.DataDir != "data" {
		t.Errorf("Expected DataDir 'data', got '%s'", cfg.DataDir)
	}

	// CSV defaults
	if cfg.CSV.Separator != "," {
		t.Errorf("Expected CSV.Separator ',', got '%s'", cfg.CSV.Separator)
	}
	if cfg.CSV.Encoding != "latin-1" {
		t.Errorf("Expected CSV.Encoding 'latin-1', got '%s'", cfg.CSV.Encoding)
	}
	if !reflect.DeepEqual(cfg.CSV.MissingValues, []string{"", "NA", "NaN"}) {
		t.Errorf("Unexpected CSV.MissingValues %v", cfg.CSV.MissingValues)
	}
	if cfg.CSV.DateFormat != "02/01/2006" {
		t.Errorf("Expected CSV.DateFormat '02/01/2006', got '%s'", cfg.CSV.DateFormat)
	}

	// Every table is configured with its canonical columns
	for _, name := range schema.Tables {
		tc, ok := cfg.Tables[name]
		if !ok {
			t.Errorf("Table %s missing from defaults", name)
			continue
		}
		if !reflect.DeepEqual(tc.Columns, schema.Columns[name]) {
			t.Errorf("Table %s columns %v, want %v", name, tc.Columns, schema.Columns[name])
		}
		if tc.Raw == "" || tc.Intermediate == "" {
			t.Errorf("Table %s missing raw or intermediate path", name)
		}
	}
	if cfg.Tables[schema.CrossVisits].Enriched == "" {
		t.Error("Expected cross_visits enriched path")
	}
	if cfg.Tables[schema.DimBlocks].Enriched != "" {
		t.Error("Expected no enriched path for dim_blocks")
	}

	// Sample defaults
	if cfg.Sample.Profile != "retail" {
		t.Errorf("Expected Sample.Profile 'retail', got '%s'", cfg.Sample.Profile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got: %v", err)
	}
}

func TestDefaultTablesAreIndependentCopies(t *testing.T) {
	a := DefaultTables()
	a[schema.DimBlocks].Columns[0] = "changed"
	a[schema.DimBlocks].Types[schema.GLA] = "date"

	if schema.Columns[schema.DimBlocks][0] != schema.MallID {
		t.Error("DefaultTables must not alias schema.Columns")
	}
	if schema.Types[schema.DimBlocks][schema.GLA] != "float" {
		t.Error("DefaultTables must not alias schema.Types")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(c *Config)
		wantError bool
	}{
		{
			name:      "defaults",
			modify:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "multi-character separator",
			modify:    func(c *Config) { c.CSV.Separator = ";;" },
			wantError: true,
		},
		{
			name:      "empty separator",
			modify:    func(c *Config) { c.CSV.Separator = "" },
			wantError: true,
		},
		{
			name:      "unknown encoding",
			modify:    func(c *Config) { c.CSV.Encoding = "klingon" },
			wantError: true,
		},
		{
			name: "store code typed on one join side",
			modify: func(c *Config) {
				tc := c.Tables[schema.DimBlocks]
				tc.Types = map[string]string{schema.StoreCode: "integer"}
				c.Tables[schema.DimBlocks] = tc
			},
			wantError: true,
		},
		{
			name: "store code typed on both join sides",
			modify: func(c *Config) {
				tc := c.Tables[schema.DimBlocks]
				tc.Types = map[string]string{schema.StoreCode: "integer"}
				c.Tables[schema.DimBlocks] = tc
				tc = c.Tables[schema.CrossVisits]
				tc.Types = map[string]string{
					schema.StoreCode1:       "integer",
					schema.StoreCode2:       "integer",
					schema.TotalCrossVisits: "integer",
				}
				c.Tables[schema.CrossVisits] = tc
			},
			wantError: false,
		},
		{
			name: "second store code differs",
			modify: func(c *Config) {
				tc := c.Tables[schema.CrossVisits]
				tc.Types = map[string]string{schema.StoreCode2: "integer"}
				c.Tables[schema.CrossVisits] = tc
			},
			wantError: true,
		},
		{
			name:      "missing table",
			modify:    func(c *Config) { delete(c.Tables, schema.FactMalls) },
			wantError: true,
		},
		{
			name: "duplicate column",
			modify: func(c *Config) {
				tc := c.Tables[schema.FactSRIScores]
				tc.Columns = []string{"store_code", "store_code"}
				tc.Types = nil
				c.Tables[schema.FactSRIScores] = tc
			},
			wantError: true,
		},
		{
			name: "type for unknown column",
			modify: func(c *Config) {
				tc := c.Tables[schema.DimMalls]
				tc.Types = map[string]string{"nope": "integer"}
				c.Tables[schema.DimMalls] = tc
			},
			wantError: true,
		},
		{
			name: "invalid type name",
			modify: func(c *Config) {
				tc := c.Tables[schema.DimMalls]
				tc.Types = map[string]string{"opening_hour": "decimal"}
				c.Tables[schema.DimMalls] = tc
			},
			wantError: true,
		},
		{
			name: "missing enriched path",
			modify: func(c *Config) {
				tc := c.Tables[schema.CrossVisits]
				tc.Enriched = ""
				c.Tables[schema.CrossVisits] = tc
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestConfigValidateLoad(t *testing.T) {
	tests := []struct {
		name      string
		load      LoadConfig
		wantError bool
	}{
		{"postgres", LoadConfig{Driver: "postgres", Connection: "postgres://localhost/db"}, false},
		{"sqlite", LoadConfig{Driver: "sqlite", Connection: "mall.db"}, false},
		{"unknown driver", LoadConfig{Driver: "oracle", Connection: "x"}, true},
		{"missing connection", LoadConfig{Driver: "postgres"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Load = tt.load
			err := cfg.ValidateLoad()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestConfigValidateSample(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(s *SampleConfig)
		wantError bool
	}{
		{"defaults", func(s *SampleConfig) {}, false},
		{"no malls", func(s *SampleConfig) { s.Malls = 0 }, true},
		{"one store", func(s *SampleConfig) { s.StoresPerMall = 1 }, true},
		{"no days", func(s *SampleConfig) { s.Days = 0 }, true},
		{"duplicate rate above one", func(s *SampleConfig) { s.DuplicateRate = 1.5 }, true},
		{"negative unknown pair rate", func(s *SampleConfig) { s.UnknownPairRate = -0.1 }, true},
		{"no profile", func(s *SampleConfig) { s.Profile = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg.Sample)
			err := cfg.ValidateSample()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/srv/mall"

	if got := cfg.Path("raw/x.csv"); got != filepath.Join("/srv/mall", "raw/x.csv") {
		t.Errorf("Relative path not resolved against data dir: %s", got)
	}
	if got := cfg.Path("/abs/x.csv"); got != "/abs/x.csv" {
		t.Errorf("Absolute path changed: %s", got)
	}
	if got := cfg.Path(""); got != "" {
		t.Errorf("Empty path should stay empty, got %s", got)
	}
}

func TestDialects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CSV.Separator = ";"

	raw := cfg.RawDialect()
	if raw.Separator != ';' {
		t.Errorf("Expected separator ';', got %q", raw.Separator)
	}
	if raw.Encoding != "latin-1" {
		t.Errorf("Expected raw encoding latin-1, got %s", raw.Encoding)
	}
	if out := cfg.OutputDialect(); out.Encoding != "utf-8" {
		t.Errorf("Expected output encoding utf-8, got %s", out.Encoding)
	}
}

func TestColumnTypes(t *testing.T) {
	cfg := DefaultConfig()

	types, err := cfg.ColumnTypes(schema.FactStores)
	if err != nil {
		t.Fatalf("ColumnTypes failed: %v", err)
	}
	if types[schema.Date] != table.Date {
		t.Errorf("Expected date column type Date, got %v", types[schema.Date])
	}
	if types[schema.PeopleIn] != table.Integer {
		t.Errorf("Expected people_in type Integer, got %v", types[schema.PeopleIn])
	}

	if _, err := cfg.ColumnTypes("unknown"); err == nil {
		t.Error("Expected error for unknown table")
	}
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "mallflow.yaml")

	configContent := `
log_level: "debug"
log_format: "json"
data_dir: "/var/lib/mallflow"

csv:
  separator: ";"
  encoding: "utf-8"
  missing_values: ["", "N/A"]

tables:
  dim_blocks:
    raw: "exports/blocks.csv"
  cross_visits:
    parquet: "enriched/cross_visits_enriched.parquet"
  fact_sri_scores:
    columns: ["store_code", "sri_score"]
    types:
      sri_score: "float"

load:
  driver: "sqlite"
  connection: "mall.db"
  table_prefix: "etl_"

sample:
  seed: 7
  malls: 2
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel mismatch: %s", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat mismatch: %s", cfg.LogFormat)
	}
	if cfg.DataDir != "/var/lib/mallflow" {
		t.Errorf("DataDir mismatch: %s", cfg.DataDir)
	}
	if cfg.CSV.Separator != ";" {
		t.Errorf("CSV.Separator mismatch: %s", cfg.CSV.Separator)
	}
	if !reflect.DeepEqual(cfg.CSV.MissingValues, []string{"", "N/A"}) {
		t.Errorf("CSV.MissingValues mismatch: %v", cfg.CSV.MissingValues)
	}
	if cfg.CSV.OutputEncoding != "utf-8" {
		t.Errorf("CSV.OutputEncoding should keep default, got %s", cfg.CSV.OutputEncoding)
	}

	// Partial table entries merge with defaults
	blocks := cfg.Tables[schema.DimBlocks]
	if blocks.Raw != "exports/blocks.csv" {
		t.Errorf("dim_blocks raw mismatch: %s", blocks.Raw)
	}
	if blocks.Intermediate == "" || len(blocks.Columns) != len(schema.Columns[schema.DimBlocks]) {
		t.Error("dim_blocks should keep default intermediate path and columns")
	}
	cv := cfg.Tables[schema.CrossVisits]
	if cv.Parquet != "enriched/cross_visits_enriched.parquet" {
		t.Errorf("cross_visits parquet mismatch: %s", cv.Parquet)
	}
	if cv.Enriched == "" {
		t.Error("cross_visits should keep default enriched path")
	}
	if len(cfg.Tables) != len(schema.Tables) {
		t.Errorf("Expected %d tables, got %d", len(schema.Tables), len(cfg.Tables))
	}

	if cfg.Load.Driver != "sqlite" || cfg.Load.Connection != "mall.db" || cfg.Load.TablePrefix != "etl_" {
		t.Errorf("Load mismatch: %+v", cfg.Load)
	}
	if cfg.Sample.Seed != 7 || cfg.Sample.Malls != 2 {
		t.Errorf("Sample mismatch: %+v", cfg.Sample)
	}
	if cfg.Sample.Days != 30 {
		t.Errorf("Sample.Days should keep default 30, got %d", cfg.Sample.Days)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Loaded config should validate, got: %v", err)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load should error when specified config file doesn't exist")
	}
}

func TestLoadConfigDefaultPath(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load should not error with empty path, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Load should return default config")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Expected default LogLevel 'info', got '%s'", cfg.LogLevel)
	}
	if len(cfg.Tables) != len(schema.Tables) {
		t.Errorf("Expected default tables, got %d", len(cfg.Tables))
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidContent := `
csv: [invalid yaml
  that: won't parse
`
	err := os.WriteFile(configPath, []byte(invalidContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	_, err = Load(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML, got nil")
	}
}
