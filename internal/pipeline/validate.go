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
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/mallflow/mallflow/internal/config"
	"github.com/mallflow/mallflow/internal/schema"
	"github.com/mallflow/mallflow/internal/table"
)

// CheckRawSchemas reads the header of every raw file and compares its
// column count with the canonical column list. Every failing table is
// reported, not just the first.
func CheckRawSchemas(cfg *config.Config) error {
	var result *multierror.Error
	for _, name := range schema.Tables {
		if err := checkRawSchema(cfg, name); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

func checkRawSchema(cfg *config.Config, name string) error {
	tc, err := cfg.Table(name)
	if err != nil {
		return err
	}
	path := cfg.Path(tc.Raw)
	header, err := table.ReadHeader(path, cfg.RawDialect())
	if err != nil {
		return fmt.Errorf("table %s: %w", name, err)
	}
	if len(header) != len(tc.Columns) {
		return fmt.Errorf("%s: %w", path,
			&table.SchemaError{Table: name, Want: len(tc.Columns), Got: len(header)})
	}
	return nil
}
