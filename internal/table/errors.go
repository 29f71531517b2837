package table

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaMismatch indicates a table whose shape disagrees with its
	// configured column list.
	ErrSchemaMismatch = errors.New("schema mismatch")

	// ErrCardinality indicates a many-to-one join whose right side holds a
	// key more than once.
	ErrCardinality = errors.New("join cardinality violation")

	// ErrInvalidValue indicates a cell that does not parse as its declared
	// column type.
	ErrInvalidValue = errors.New("invalid value")
)

// SchemaError reports a column count that differs from the expected one.
type SchemaError struct {
	Table string
	Want  int
	Got   int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("table %s: expected %d columns, got %d", e.Table, e.Want, e.Got)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchemaMismatch
}

// CardinalityError reports a duplicated key on the "one" side of a join.
type CardinalityError struct {
	Table  string
	Column string
	Key    string
	First  int
	Second int
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("table %s: key %s=%q appears in rows %d and %d; join must be many-to-one",
		e.Table, e.Column, e.Key, e.First, e.Second)
}

func (e *CardinalityError) Unwrap() error {
	return ErrCardinality
}

// ValueError reports a cell that failed to parse as its column type.
type ValueError struct {
	Table  string
	Column string
	Row    int
	Err    error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("table %s: column %s, row %d: %v", e.Table, e.Column, e.Row, e.Err)
}

func (e *ValueError) Unwrap() []error {
	return []error{ErrInvalidValue, e.Err}
}
