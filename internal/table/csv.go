//-------------------------------------------------------------------------
//
// mallflow
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DefaultDateFormat is day/month/4-digit-year.
const DefaultDateFormat = "02/01/2006"

// Dialect describes how tables are laid out on disk.
type Dialect struct {
	// Separator is the field delimiter.
	Separator rune

	// Encoding names the text encoding (e.g. "latin-1", "utf-8").
	Encoding string

	// MissingValues are literal field values read as missing.
	MissingValues []string

	// DateFormat is the Go layout used for date columns.
	DateFormat string
}

// DefaultDialect returns a comma separated UTF-8 dialect.
func DefaultDialect() Dialect {
	return Dialect{
		Separator:     ',',
		Encoding:      "utf-8",
		MissingValues: []string{"", "NA", "NaN"},
		DateFormat:    DefaultDateFormat,
	}
}

func (d Dialect) isMissing(s string) bool {
	for _, m := range d.MissingValues {
		if s == m {
			return true
		}
	}
	return false
}

// LookupEncoding resolves an encoding name.
func LookupEncoding(name string) (encoding.Encoding, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(name))
	switch norm {
	case "", "utf8":
		return unicode.UTF8, nil
	case "latin1", "l1", "iso88591":
		return charmap.ISO8859_1, nil
	case "cp1252", "windows1252":
		return charmap.Windows1252, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("unsupported encoding: %s", name)
	}
	return enc, nil
}

func (d Dialect) newReader(r io.Reader) (*csv.Reader, error) {
	enc, err := LookupEncoding(d.Encoding)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(transform.NewReader(r, enc.NewDecoder()))
	if d.Separator != 0 {
		cr.Comma = d.Separator
	}
	cr.FieldsPerRecord = -1
	return cr, nil
}

// ReadHeader returns only the header record of a CSV file.
func ReadHeader(path string, d Dialect) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr, err := d.newReader(f)
	if err != nil {
		return nil, err
	}
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header, nil
}

// ReadCSV loads a CSV file with a header row into a string-typed table.
// Missing markers become missing values and short rows are padded with
// missing values. Rows longer than the header are a schema error.
func ReadCSV(name, path string, d Dialect) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr, err := d.newReader(f)
	if err != nil {
		return nil, err
	}
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	header = append([]string(nil), header...)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := New(name, header, nil)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("%s: line %d: %w",
				path, line, &SchemaError{Table: name, Want: len(header), Got: len(rec)})
		}
		row := make(Row, len(header))
		for i := range row {
			if i >= len(rec) || d.isMissing(rec[i]) {
				row[i] = Missing(String)
				continue
			}
			row[i] = StringValue(rec[i])
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteCSV writes the table with a header row and no index column. The
// target is replaced atomically; parent directories are created as needed.
func WriteCSV(path string, t *Table, d Dialect) error {
	enc, err := LookupEncoding(d.Encoding)
	if err != nil {
		return err
	}
	return WriteAtomic(path, func(w io.Writer) error {
		tw := transform.NewWriter(w, enc.NewEncoder())
		cw := csv.NewWriter(tw)
		if d.Separator != 0 {
			cw.Comma = d.Separator
		}
		if err := cw.Write(t.Columns); err != nil {
			return err
		}
		rec := make([]string, len(t.Columns))
		for _, row := range t.Rows {
			for i, v := range row {
				rec[i] = v.Format(d.DateFormat)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		return tw.Close()
	})
}

// outputFileMode is the permission of files written by WriteAtomic, the
// same as os.Create under the common 022 umask.
const outputFileMode = 0o644

// WriteAtomic writes a file through fn into a temporary sibling and renames
// it over path once fn succeeds.
func WriteAtomic(path string, fn func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fn(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Chmod(outputFileMode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
