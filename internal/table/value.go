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
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ColumnType is the declared type of a column.
type ColumnType int

const (
	// String is the default column type.
	String ColumnType = iota
	Integer
	Float
	Date
)

// String returns the configuration name of the type.
func (t ColumnType) String() string {
	switch t {
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Date:
		return "date"
	default:
		return "string"
	}
}

// ParseColumnType converts a configuration name to a ColumnType.
func ParseColumnType(s string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "string", "text":
		return String, nil
	case "integer", "int":
		return Integer, nil
	case "float", "double":
		return Float, nil
	case "date":
		return Date, nil
	default:
		return String, fmt.Errorf("unknown column type: %s", s)
	}
}

// Value is a single typed cell. A Value with Valid false is missing.
type Value struct {
	Type  ColumnType
	Valid bool
	Str   string
	Int   int64
	Float float64
	Time  time.Time
}

// Missing returns a missing value of the given type.
func Missing(t ColumnType) Value {
	return Value{Type: t}
}

// StringValue returns a present string value.
func StringValue(s string) Value {
	return Value{Type: String, Valid: true, Str: s}
}

// IntValue returns a present integer value.
func IntValue(i int64) Value {
	return Value{Type: Integer, Valid: true, Int: i}
}

// FloatValue returns a float value. NaN is stored as missing.
func FloatValue(f float64) Value {
	if math.IsNaN(f) {
		return Missing(Float)
	}
	return Value{Type: Float, Valid: true, Float: f}
}

// DateValue returns a present date value truncated to the day.
func DateValue(t time.Time) Value {
	y, m, d := t.Date()
	return Value{Type: Date, Valid: true, Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// IsMissing reports whether the value is absent.
func (v Value) IsMissing() bool {
	return !v.Valid
}

// Format renders the value for CSV output. Missing values render empty.
func (v Value) Format(dateFormat string) string {
	if !v.Valid {
		return ""
	}
	switch v.Type {
	case Integer:
		return strconv.FormatInt(v.Int, 10)
	case Float:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case Date:
		if dateFormat == "" {
			dateFormat = DefaultDateFormat
		}
		return v.Time.Format(dateFormat)
	default:
		return v.Str
	}
}

// key is the canonical identity of the value used for equality, dedup and
// join lookups. Values of different types never share a key.
func (v Value) key() string {
	if !v.Valid {
		return "\x00"
	}
	switch v.Type {
	case Integer:
		return "i" + strconv.FormatInt(v.Int, 10)
	case Float:
		f := v.Float
		if f == 0 {
			// -0 and 0 are the same value.
			f = 0
		}
		return "f" + strconv.FormatFloat(f, 'g', -1, 64)
	case Date:
		return "d" + v.Time.Format("2006-01-02")
	default:
		return "s" + v.Str
	}
}

// Equal reports whether two values are identical, including missingness.
func (v Value) Equal(o Value) bool {
	return v.key() == o.key()
}

// Bounds of the float64 values that convert to int64 without overflow.
const (
	minInt64Float = -9223372036854775808.0
	maxInt64Float = 9223372036854775808.0
)

// parseValue converts a present raw string to the declared type.
func parseValue(raw string, t ColumnType, dateFormat string) (Value, error) {
	switch t {
	case Integer:
		s := strings.TrimSpace(raw)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return IntValue(i), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f != math.Trunc(f) || f < minInt64Float || f >= maxInt64Float {
			return Value{}, fmt.Errorf("invalid integer %q", raw)
		}
		return IntValue(int64(f)), nil
	case Float:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float %q", raw)
		}
		return FloatValue(f), nil
	case Date:
		if dateFormat == "" {
			dateFormat = DefaultDateFormat
		}
		d, err := time.Parse(dateFormat, strings.TrimSpace(raw))
		if err != nil {
			return Value{}, fmt.Errorf("invalid date %q", raw)
		}
		return DateValue(d), nil
	default:
		return StringValue(raw), nil
	}
}
