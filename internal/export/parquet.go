//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package export writes tables in columnar formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/mallflow/mallflow/internal/table"
)

// parallelism of the parquet page encoder
const writerParallelism = 4

type schemaNode struct {
	Tag    string        `json:"Tag"`
	Fields []*schemaNode `json:"Fields,omitempty"`
}

// fieldName is the in-memory name of column i. Column names are only used
// as parquet external names, so they need not be valid identifiers.
func fieldName(i int) string {
	return fmt.Sprintf("Col%d", i)
}

// ParquetSchema returns the parquet-go JSON schema of a table. Every column
// is optional; strings are UTF8 byte arrays and dates are DATE int32 days.
func ParquetSchema(t *table.Table) (string, error) {
	root := &schemaNode{Tag: "name=parquet_go_root, repetitiontype=REQUIRED"}
	for i, col := range t.Columns {
		var physical string
		switch t.Types[i] {
		case table.String:
			physical = "type=BYTE_ARRAY, convertedtype=UTF8"
		case table.Integer:
			physical = "type=INT64"
		case table.Float:
			physical = "type=DOUBLE"
		case table.Date:
			physical = "type=INT32, convertedtype=DATE"
		default:
			return "", fmt.Errorf("column %s: unsupported type %s", col, t.Types[i])
		}
		root.Fields = append(root.Fields, &schemaNode{
			Tag: fmt.Sprintf("name=%s, inname=%s, %s, repetitiontype=OPTIONAL", col, fieldName(i), physical),
		})
	}
	b, err := json.Marshal(root)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteParquet writes t to path as a Snappy compressed parquet file,
// replacing any existing file atomically.
func WriteParquet(path string, t *table.Table) error {
	schema, err := ParquetSchema(t)
	if err != nil {
		return fmt.Errorf("table %s: %w", t.Name, err)
	}

	return table.WriteAtomic(path, func(w io.Writer) error {
		pw, err := writer.NewJSONWriterFromWriter(schema, w, writerParallelism)
		if err != nil {
			return fmt.Errorf("failed to create parquet writer: %w", err)
		}
		pw.CompressionType = parquet.CompressionCodec_SNAPPY

		for r, row := range t.Rows {
			rec, err := recordJSON(row)
			if err != nil {
				return fmt.Errorf("row %d: %w", r+1, err)
			}
			if err := pw.Write(rec); err != nil {
				return fmt.Errorf("row %d: %w", r+1, err)
			}
		}
		if err := pw.WriteStop(); err != nil {
			return fmt.Errorf("failed to finalize parquet file: %w", err)
		}
		return nil
	})
}

func recordJSON(row table.Row) (string, error) {
	rec := make(map[string]any, len(row))
	for i, v := range row {
		name := fieldName(i)
		if !v.Valid {
			rec[name] = nil
			continue
		}
		switch v.Type {
		case table.Integer:
			rec[name] = v.Int
		case table.Float:
			rec[name] = v.Float
		case table.Date:
			rec[name] = epochDays(v.Time)
		default:
			rec[name] = v.Str
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func epochDays(t time.Time) int32 {
	return int32(t.Unix() / 86400)
}
