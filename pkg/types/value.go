package types

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Wire formats for temporal values.
const (
	DateLayout          = "2006-01-02"
	DatetimeLayout      = time.RFC3339
	datetimeLocalLayout = "2006-01-02T15:04"
)

// Value is a property value of exactly one ValueType. The zero Value has no
// type and is used as "operand not provided".
//
// Date and Datetime values may be null; every other type always carries a
// concrete value.
type Value struct {
	typ   ValueType
	null  bool
	b     bool
	i     int64
	f     float64
	s     string
	items []string
	t     time.Time
}

// NewBool returns a Bool value.
func NewBool(v bool) Value { return Value{typ: TypeBool, b: v} }

// NewInt returns an Int value.
func NewInt(v int64) Value { return Value{typ: TypeInt, i: v} }

// NewFloat returns a Float value.
func NewFloat(v float64) Value { return Value{typ: TypeFloat, f: v} }

// NewString returns a String value.
func NewString(v string) Value { return Value{typ: TypeString, s: v} }

// NewMultiString returns a MultiString value holding a copy of items.
func NewMultiString(items []string) Value {
	cp := make([]string, len(items))
	copy(cp, items)
	return Value{typ: TypeMultiString, items: cp}
}

// NewDate returns a Date value for the calendar day of t in UTC.
func NewDate(t time.Time) Value {
	y, m, d := t.UTC().Date()
	return Value{typ: TypeDate, t: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// NewDatetime returns a Datetime value for the instant t, normalised to UTC.
func NewDatetime(t time.Time) Value {
	return Value{typ: TypeDatetime, t: t.UTC()}
}

// NullValue returns the null value of a Date or Datetime type.
// It panics for types that have no null representation.
func NullValue(vt ValueType) Value {
	if vt != TypeDate && vt != TypeDatetime {
		panic(fmt.Sprintf("types: %s has no null value", vt))
	}
	return Value{typ: vt, null: true}
}

// DefaultValue returns the value a page shows for a property it has never
// received a value for: false, 0, 0.0, "", an empty list, or null for
// temporal types.
func DefaultValue(vt ValueType) (Value, error) {
	switch vt {
	case TypeBool:
		return NewBool(false), nil
	case TypeInt:
		return NewInt(0), nil
	case TypeFloat:
		return NewFloat(0), nil
	case TypeString:
		return NewString(""), nil
	case TypeMultiString:
		return NewMultiString(nil), nil
	case TypeDate, TypeDatetime:
		return NullValue(vt), nil
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidValueType, int(vt))
	}
}

// ParseValue coerces raw text into a Value of type vt. It returns an error
// wrapping ErrTypeMismatch when raw cannot represent a vt.
//
// An empty string parses to null for Date and Datetime.
func ParseValue(vt ValueType, raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)
	switch vt {
	case TypeBool:
		switch strings.ToLower(trimmed) {
		case "on", "yes":
			return NewBool(true), nil
		case "off", "no":
			return NewBool(false), nil
		}
		b, err := strconv.ParseBool(trimmed)
		if err != nil {
			return Value{}, mismatch(vt, raw)
		}
		return NewBool(b), nil
	case TypeInt:
		i, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return Value{}, mismatch(vt, raw)
		}
		return NewInt(i), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, mismatch(vt, raw)
		}
		return NewFloat(f), nil
	case TypeString:
		return NewString(raw), nil
	case TypeMultiString:
		var items []string
		for part := range strings.SplitSeq(raw, ",") {
			if p := strings.TrimSpace(part); p != "" {
				items = append(items, p)
			}
		}
		return NewMultiString(items), nil
	case TypeDate:
		if trimmed == "" {
			return NullValue(vt), nil
		}
		t, err := time.Parse(DateLayout, trimmed)
		if err != nil {
			return Value{}, mismatch(vt, raw)
		}
		return NewDate(t), nil
	case TypeDatetime:
		if trimmed == "" {
			return NullValue(vt), nil
		}
		t, err := time.Parse(DatetimeLayout, trimmed)
		if err != nil {
			t, err = time.ParseInLocation(datetimeLocalLayout, trimmed, time.UTC)
			if err != nil {
				return Value{}, mismatch(vt, raw)
			}
		}
		v := NewDatetime(t)
		if err := v.Check(); err != nil {
			return Value{}, fmt.Errorf("%w: %q", err, raw)
		}
		return v, nil
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrInvalidValueType, int(vt))
	}
}

// Temporal values must fall in these years so their text form keeps a
// four-digit year.
const (
	MinYear = 0
	MaxYear = 9999
)

// Check reports whether v can be stored: floats must be finite and non-null
// dates and datetimes must fall between MinYear and MaxYear in UTC. The error
// wraps ErrTypeMismatch.
func (v Value) Check() error {
	switch v.typ {
	case TypeFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return fmt.Errorf("%w: %v is not a finite float", ErrTypeMismatch, v.f)
		}
	case TypeDate, TypeDatetime:
		if v.null {
			return nil
		}
		if y := v.t.Year(); y < MinYear || y > MaxYear {
			return fmt.Errorf("%w: year %d of %s is outside %d..%d", ErrTypeMismatch, y, v.typ, MinYear, MaxYear)
		}
	}
	return nil
}

func mismatch(vt ValueType, raw string) error {
	return fmt.Errorf("%w: %q is not a valid %s", ErrTypeMismatch, raw, vt)
}

// Type returns the value's type, or 0 for the zero Value.
func (v Value) Type() ValueType { return v.typ }

// IsZero reports whether v is the untyped zero Value.
func (v Value) IsZero() bool { return v.typ == 0 }

// IsNull reports whether v is a null Date or Datetime.
func (v Value) IsNull() bool { return v.null }

// Bool returns the boolean payload. It panics if v is not a Bool.
func (v Value) Bool() bool {
	v.must(TypeBool)
	return v.b
}

// Int returns the integer payload. It panics if v is not an Int.
func (v Value) Int() int64 {
	v.must(TypeInt)
	return v.i
}

// Float returns the float payload. It panics if v is not a Float.
func (v Value) Float() float64 {
	v.must(TypeFloat)
	return v.f
}

// Str returns the string payload. It panics if v is not a String.
func (v Value) Str() string {
	v.must(TypeString)
	return v.s
}

// Items returns a copy of the list payload. It panics if v is not a
// MultiString.
func (v Value) Items() []string {
	v.must(TypeMultiString)
	cp := make([]string, len(v.items))
	copy(cp, v.items)
	return cp
}

// Time returns the temporal payload. It panics if v is not a Date or
// Datetime; a null value returns the zero time.
func (v Value) Time() time.Time {
	if v.typ != TypeDate && v.typ != TypeDatetime {
		panic(fmt.Sprintf("types: Time called on %s value", v.typ))
	}
	return v.t
}

func (v Value) must(vt ValueType) {
	if v.typ != vt {
		panic(fmt.Sprintf("types: %s accessor called on %s value", vt, v.typ))
	}
}

// Equal reports whether v and o have the same type and payload.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ || v.null != o.null {
		return false
	}
	if v.null {
		return true
	}
	switch v.typ {
	case TypeBool:
		return v.b == o.b
	case TypeInt:
		return v.i == o.i
	case TypeFloat:
		return v.f == o.f
	case TypeString:
		return v.s == o.s
	case TypeMultiString:
		return slices.Equal(v.items, o.items)
	case TypeDate, TypeDatetime:
		return v.t.Equal(o.t)
	default:
		return true
	}
}

// Compare orders two values of the same type and returns -1, 0, or +1.
// Null sorts before every non-null value, false before true, and lists
// compare element by element. Comparing values of different types is a
// programming error and panics.
func (v Value) Compare(o Value) int {
	if v.typ != o.typ {
		panic(fmt.Sprintf("types: cannot compare %s with %s", v.typ, o.typ))
	}
	switch {
	case v.null && o.null:
		return 0
	case v.null:
		return -1
	case o.null:
		return 1
	}
	switch v.typ {
	case TypeBool:
		switch {
		case v.b == o.b:
			return 0
		case !v.b:
			return -1
		default:
			return 1
		}
	case TypeInt:
		return cmpOrdered(v.i, o.i)
	case TypeFloat:
		return cmpOrdered(v.f, o.f)
	case TypeString:
		return strings.Compare(v.s, o.s)
	case TypeMultiString:
		return slices.Compare(v.items, o.items)
	case TypeDate, TypeDatetime:
		return v.t.Compare(o.t)
	default:
		return 0
	}
}

func cmpOrdered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// String renders v the way it is accepted by ParseValue.
func (v Value) String() string {
	if v.null {
		return ""
	}
	switch v.typ {
	case TypeBool:
		return strconv.FormatBool(v.b)
	case TypeInt:
		return strconv.FormatInt(v.i, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case TypeString:
		return v.s
	case TypeMultiString:
		return strings.Join(v.items, ", ")
	case TypeDate:
		return v.t.Format(DateLayout)
	case TypeDatetime:
		return v.t.Format(DatetimeLayout)
	default:
		return ""
	}
}

// valueJSON is the wire shape of a Value.
type valueJSON struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// MarshalJSON encodes v as {"type": ..., "value": ...}; null temporal values
// encode their value as JSON null.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.typ == 0 {
		return []byte("null"), nil
	}
	out := valueJSON{Type: v.typ.String()}
	switch {
	case v.null:
		out.Value = nil
	case v.typ == TypeBool:
		out.Value = v.b
	case v.typ == TypeInt:
		out.Value = v.i
	case v.typ == TypeFloat:
		out.Value = v.f
	case v.typ == TypeString:
		out.Value = v.s
	case v.typ == TypeMultiString:
		out.Value = v.Items()
	default:
		out.Value = v.String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the shape produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var in struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	vt, err := ParseValueType(in.Type)
	if err != nil {
		return err
	}
	if len(in.Value) == 0 || string(in.Value) == "null" {
		d, err := DefaultValue(vt)
		if err != nil {
			return err
		}
		*v = d
		return nil
	}
	switch vt {
	case TypeBool:
		var b bool
		if err := json.Unmarshal(in.Value, &b); err != nil {
			return fmt.Errorf("%w: %s", ErrTypeMismatch, err)
		}
		*v = NewBool(b)
	case TypeInt:
		var i int64
		if err := json.Unmarshal(in.Value, &i); err != nil {
			return fmt.Errorf("%w: %s", ErrTypeMismatch, err)
		}
		*v = NewInt(i)
	case TypeFloat:
		var f float64
		if err := json.Unmarshal(in.Value, &f); err != nil {
			return fmt.Errorf("%w: %s", ErrTypeMismatch, err)
		}
		*v = NewFloat(f)
	case TypeMultiString:
		var items []string
		if err := json.Unmarshal(in.Value, &items); err != nil {
			return fmt.Errorf("%w: %s", ErrTypeMismatch, err)
		}
		*v = NewMultiString(items)
	default:
		var s string
		if err := json.Unmarshal(in.Value, &s); err != nil {
			return fmt.Errorf("%w: %s", ErrTypeMismatch, err)
		}
		parsed, err := ParseValue(vt, s)
		if err != nil {
			return err
		}
		*v = parsed
	}
	return nil
}
