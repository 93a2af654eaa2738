package gridgo

import (
	"math"
	"strconv"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindNull represents an absent or null cell.
	KindNull Kind = iota
	// KindInt represents an integer cell.
	KindInt
	// KindFloat represents a float cell.
	KindFloat
	// KindString represents a string cell.
	KindString
)

// Value is a small typed scalar held in a table cell.
//
// The representation avoids reflection and fmt-based stringification so
// that copying blocks of rows stays cheap.
type Value struct {
	Kind Kind
	I64  int64
	F64  float64
	S    string
}

// Null returns the absent value. It is also the zero Value.
func Null() Value { return Value{} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{Kind: KindInt, I64: i} }

// Float returns a float Value.
func Float(f float64) Value { return Value{Kind: KindFloat, F64: f} }

// String returns a string Value.
func String(s string) Value { return Value{Kind: KindString, S: s} }

// IsNull reports whether the value is absent.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.Kind != KindInt {
		return 0, false
	}
	return v.I64, true
}

// AsFloat64 returns the float64 value if Kind is KindFloat.
func (v Value) AsFloat64() (float64, bool) {
	if v.Kind != KindFloat {
		return 0, false
	}
	return v.F64, true
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.Kind != KindString {
		return "", false
	}
	return v.S, true
}

// Display returns the value rendered for display. Null renders empty.
func (v Value) Display() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindString:
		return v.S
	default:
		return ""
	}
}

// Key returns a stable string representation for use in maps.
func (v Value) Key() string {
	switch v.Kind {
	case KindInt:
		return "i:" + strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return "f:" + strconv.FormatUint(math.Float64bits(v.F64), 16)
	case KindString:
		return "s:" + v.S
	default:
		return "null"
	}
}

// Row is one table row as an ordered sequence of cell values.
type Row []Value

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Source supplies table data on demand.
//
// Implementations must be safe for concurrent use: LoadRows is invoked
// from multiple block-load workers, possibly for overlapping ranges.
type Source interface {
	// RowCount returns the total number of rows, 0 if unavailable.
	RowCount() int

	// ColumnCount returns the fixed number of columns.
	ColumnCount() int

	// LoadRows returns up to count rows starting at startRow. It may
	// return fewer rows at the end of the data; a short or empty result
	// is not an error.
	LoadRows(startRow, count int) []Row

	// Header returns the column display names.
	Header() []string
}
