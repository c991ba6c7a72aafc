package formula

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// ValueType identifies which variant a Value holds.
type ValueType int

const (
	NullType ValueType = iota
	NumberType
	TextType
)

// String implements fmt.Stringer.
func (t ValueType) String() string {
	switch t {
	case NumberType:
		return "number"
	case TextType:
		return "text"
	default:
		return "null"
	}
}

// Value is a single scalar held by a record field or produced by a formula.
// The zero Value is null.
type Value struct {
	typ ValueType
	num float64
	str string
}

// NumberVal returns a numeric Value.
func NumberVal(f float64) Value {
	return Value{typ: NumberType, num: f}
}

// TextVal returns a text Value.
func TextVal(s string) Value {
	return Value{typ: TextType, str: s}
}

// NullVal returns the null Value.
func NullVal() Value {
	return Value{}
}

// Type reports the variant held by v.
func (v Value) Type() ValueType { return v.typ }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.typ == NullType }

// Number returns the numeric payload and whether v is a number.
func (v Value) Number() (float64, bool) {
	return v.num, v.typ == NumberType
}

// Text returns the text payload and whether v is text.
func (v Value) Text() (string, bool) {
	return v.str, v.typ == TextType
}

// String renders v for logs and error messages.
func (v Value) String() string {
	switch v.typ {
	case NumberType:
		return FormatNumber(v.num)
	case TextType:
		return strconv.Quote(v.str)
	default:
		return "null"
	}
}

// MarshalJSON encodes numbers with FormatNumber, text as a JSON string and
// null as JSON null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.typ {
	case NumberType:
		return Number(v.num).MarshalJSON()
	case TextType:
		return json.Marshal(v.str)
	default:
		return []byte("null"), nil
	}
}

// Record is one input row: field name to scalar. The engine treats the
// identifier field like any other field.
type Record map[string]Value

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Number is a formula result. It always holds a float64 and serialises whole
// values without a fractional part.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("formula: cannot encode non-finite number %v", f)
	}
	return []byte(FormatNumber(f)), nil
}

// FormatNumber renders f the way results are published: whole numbers have no
// decimal point, everything else uses the shortest exact representation.
func FormatNumber(f float64) string {
	if f == 0 {
		return "0" // also folds negative zero
	}
	if math.Abs(f) < 1e21 && f == math.Trunc(f) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
