package tabular

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// ValueKind tags the scalar variant held by a Value.
type ValueKind int

const (
	ValueMissing ValueKind = iota
	ValueNumber
	ValueText
	ValueDate
)

// Value is one dataset cell: a number, text, a calendar date, or
// missing. The zero Value is missing.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Time time.Time
}

func Number(f float64) Value { return Value{Kind: ValueNumber, Num: f} }
func Text(s string) Value    { return Value{Kind: ValueText, Str: s} }
func Date(t time.Time) Value { return Value{Kind: ValueDate, Time: t} }
func Missing() Value         { return Value{} }

// IsMissing reports whether the cell holds no value.
func (v Value) IsMissing() bool { return v.Kind == ValueMissing }

// String renders the scalar for display: numbers with minimal digits,
// dates as YYYY-MM-DD, missing as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case ValueText:
		return v.Str
	case ValueDate:
		return v.Time.Format("2006-01-02")
	}
	return ""
}

// MarshalJSON emits the native JSON scalar for the cell: a number, a
// string, a "YYYY-MM-DD" string, or null for missing. Non-finite
// numbers also marshal as null because JSON cannot carry them.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return []byte("null"), nil
		}
		return strconv.AppendFloat(nil, v.Num, 'g', -1, 64), nil
	case ValueText:
		return json.Marshal(v.Str)
	case ValueDate:
		return json.Marshal(v.Time.Format("2006-01-02"))
	}
	return []byte("null"), nil
}
