package ir

import (
	"math/big"
	"strconv"
	"strings"
)

// Value is a sealed interface representing a witness value.
// Only IntValue, BoolValue, FieldValue and ListValue implement this.
// Values carry no type information; the declared Type drives encoding.
type Value interface {
	irValue() // Sealed - only these types implement it
	String() string
}

// IntValue is an integer witness value.
type IntValue int64

func (IntValue) irValue() {}

func (v IntValue) String() string { return strconv.FormatInt(int64(v), 10) }

// BoolValue is a boolean witness value.
type BoolValue bool

func (BoolValue) irValue() {}

func (v BoolValue) String() string { return strconv.FormatBool(bool(v)) }

// FieldValue is an arbitrary precision field element.
// A nil Int is treated as zero.
type FieldValue struct {
	Int *big.Int
}

func (FieldValue) irValue() {}

func (v FieldValue) String() string {
	if v.Int == nil {
		return "0"
	}
	return v.Int.String()
}

// ListValue is an ordered list of values for array types.
type ListValue []Value

func (ListValue) irValue() {}

func (v ListValue) String() string {
	parts := make([]string, len(v))
	for i, elem := range v {
		if elem == nil {
			parts[i] = "<nil>"
			continue
		}
		parts[i] = elem.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// NewField creates a FieldValue from an int64.
func NewField(n int64) FieldValue {
	return FieldValue{Int: big.NewInt(n)}
}

// NewFieldFromString creates a FieldValue from a decimal string.
// Returns false if s is not a valid base-10 integer.
func NewFieldFromString(s string) (FieldValue, bool) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return FieldValue{}, false
	}
	return FieldValue{Int: n}, true
}

// NewList creates a ListValue from values.
func NewList(vals ...Value) ListValue {
	return ListValue(vals)
}

// Ints is a shorthand for a ListValue of IntValues.
// Example: Ints(1, 2, 3)
func Ints(ns ...int64) ListValue {
	l := make(ListValue, len(ns))
	for i, n := range ns {
		l[i] = IntValue(n)
	}
	return l
}
