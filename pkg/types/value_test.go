package types

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	instant := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		vt      ValueType
		raw     string
		want    Value
		wantErr error
	}{
		{"bool true", TypeBool, "true", NewBool(true), nil},
		{"bool on", TypeBool, "on", NewBool(true), nil},
		{"bool off", TypeBool, "OFF", NewBool(false), nil},
		{"bool garbage", TypeBool, "maybe", Value{}, ErrTypeMismatch},
		{"int", TypeInt, " 42 ", NewInt(42), nil},
		{"int negative", TypeInt, "-7", NewInt(-7), nil},
		{"int from float text", TypeInt, "4.2", Value{}, ErrTypeMismatch},
		{"int non numeric", TypeInt, "abc", Value{}, ErrTypeMismatch},
		{"float", TypeFloat, "2.5", NewFloat(2.5), nil},
		{"float NaN rejected", TypeFloat, "NaN", Value{}, ErrTypeMismatch},
		{"float Inf rejected", TypeFloat, "+Inf", Value{}, ErrTypeMismatch},
		{"string keeps spaces", TypeString, " hi ", NewString(" hi "), nil},
		{"multistring splits and trims", TypeMultiString, "a, b,,c ", NewMultiString([]string{"a", "b", "c"}), nil},
		{"multistring empty", TypeMultiString, "", NewMultiString(nil), nil},
		{"date", TypeDate, "2024-03-09", NewDate(day), nil},
		{"date empty is null", TypeDate, "", NullValue(TypeDate), nil},
		{"date bad", TypeDate, "09/03/2024", Value{}, ErrTypeMismatch},
		{"datetime rfc3339", TypeDatetime, "2024-03-09T16:30:00+02:00", NewDatetime(instant), nil},
		{"datetime local form", TypeDatetime, "2024-03-09T14:30", NewDatetime(instant), nil},
		{"datetime empty is null", TypeDatetime, " ", NullValue(TypeDatetime), nil},
		{"datetime far future", TypeDatetime, "3000-01-01T00:00:00Z", NewDatetime(time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)), nil},
		{"datetime before year zero in UTC", TypeDatetime, "0000-01-01T00:30:00+01:00", Value{}, ErrTypeMismatch},
		{"unknown type", ValueType(99), "x", Value{}, ErrInvalidValueType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValue(tt.vt, tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
		})
	}
}

func TestValueCheck(t *testing.T) {
	tests := []struct {
		name    string
		value   Value
		wantErr bool
	}{
		{"finite float", NewFloat(1.5), false},
		{"NaN", NewFloat(math.NaN()), true},
		{"positive infinity", NewFloat(math.Inf(1)), true},
		{"negative infinity", NewFloat(math.Inf(-1)), true},
		{"datetime year 1600", NewDatetime(time.Date(1600, 6, 1, 0, 0, 0, 0, time.UTC)), false},
		{"datetime year 9999", NewDatetime(time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)), false},
		{"datetime year 10000", NewDatetime(time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)), true},
		{"date negative year", NewDate(time.Date(-5, 1, 1, 0, 0, 0, 0, time.UTC)), true},
		{"null datetime", NullValue(TypeDatetime), false},
		{"int", NewInt(math.MaxInt64), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.value.Check()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTypeMismatch)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefaultValue(t *testing.T) {
	for _, c := range ValueTypeCodes {
		vt := ValueType(c.Code)
		t.Run(vt.String(), func(t *testing.T) {
			v, err := DefaultValue(vt)
			require.NoError(t, err)
			assert.Equal(t, vt, v.Type())
			switch vt {
			case TypeBool:
				assert.False(t, v.Bool())
			case TypeInt:
				assert.Zero(t, v.Int())
			case TypeFloat:
				assert.Zero(t, v.Float())
			case TypeString:
				assert.Empty(t, v.Str())
			case TypeMultiString:
				assert.Empty(t, v.Items())
			case TypeDate, TypeDatetime:
				assert.True(t, v.IsNull())
			}
		})
	}

	_, err := DefaultValue(0)
	assert.ErrorIs(t, err, ErrInvalidValueType)
}

func TestValueCompare(t *testing.T) {
	d1 := NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	d2 := NewDate(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"false before true", NewBool(false), NewBool(true), -1},
		{"equal ints", NewInt(3), NewInt(3), 0},
		{"int greater", NewInt(3), NewInt(2), 1},
		{"float less", NewFloat(-1.5), NewFloat(0), -1},
		{"string lexical", NewString("b"), NewString("a"), 1},
		{"list elementwise", NewMultiString([]string{"a", "b"}), NewMultiString([]string{"a", "c"}), -1},
		{"date order", d1, d2, -1},
		{"null before date", NullValue(TypeDate), d1, -1},
		{"both null", NullValue(TypeDate), NullValue(TypeDate), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
			assert.Equal(t, -tt.want, tt.b.Compare(tt.a))
		})
	}
}

func TestValueCompareAcrossTypesPanics(t *testing.T) {
	assert.Panics(t, func() { NewInt(1).Compare(NewFloat(1)) })
}

func TestValueAccessorPanicsOnWrongType(t *testing.T) {
	assert.Panics(t, func() { NewInt(1).Bool() })
	assert.Panics(t, func() { NewBool(true).Time() })
	assert.Panics(t, func() { NullValue(TypeInt) })
}

func TestValueEqual(t *testing.T) {
	assert.True(t, NewInt(1).Equal(NewInt(1)))
	assert.False(t, NewInt(1).Equal(NewFloat(1)))
	assert.False(t, NullValue(TypeDate).Equal(NewDate(time.Now())))
	assert.True(t, NewMultiString(nil).Equal(NewMultiString([]string{})))
}

func TestNewMultiStringCopies(t *testing.T) {
	items := []string{"a", "b"}
	v := NewMultiString(items)
	items[0] = "z"
	assert.Equal(t, []string{"a", "b"}, v.Items())

	out := v.Items()
	out[1] = "z"
	assert.Equal(t, []string{"a", "b"}, v.Items())
}

func TestValueJSON(t *testing.T) {
	values := []Value{
		NewBool(true),
		NewInt(-3),
		NewFloat(1.25),
		NewString("hello"),
		NewMultiString([]string{"x", "y"}),
		NewDate(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)),
		NewDatetime(time.Date(2023, 12, 31, 23, 59, 0, 0, time.UTC)),
		NullValue(TypeDate),
	}
	for _, v := range values {
		t.Run(v.Type().String(), func(t *testing.T) {
			data, err := json.Marshal(v)
			require.NoError(t, err)

			var got Value
			require.NoError(t, json.Unmarshal(data, &got))
			assert.True(t, v.Equal(got), "round trip of %s gave %s", data, got)
		})
	}

	data, err := json.Marshal(NewInt(7))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"int","value":7}`, string(data))

	data, err = json.Marshal(NullValue(TypeDatetime))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"datetime","value":null}`, string(data))

	var bad Value
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"type":"int","value":"x"}`), &bad), ErrTypeMismatch)
}
