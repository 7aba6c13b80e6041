package ir

import (
	"fmt"
	"strconv"
)

// Type is a sealed interface describing the declared type of a circuit
// argument or return value.
// Only IntType, BoolType, FieldType, Visibility and Array implement this.
type Type interface {
	irType() // Sealed - only these types implement it
	String() string
}

// IntType is a 32-bit unsigned integer.
type IntType struct{}

func (IntType) irType() {}

func (IntType) String() string { return "int" }

// BoolType is a boolean.
type BoolType struct{}

func (BoolType) irType() {}

func (BoolType) String() string { return "bool" }

// FieldType is an element of the prime field defined by the session modulus.
type FieldType struct{}

func (FieldType) irType() {}

func (FieldType) String() string { return "field" }

// Mode is a visibility qualifier.
type Mode int

const (
	// Public values are disclosed to the verifier.
	Public Mode = iota
	// Private values are known to the prover only.
	Private
)

func (m Mode) String() string {
	switch m {
	case Public:
		return "Public"
	case Private:
		return "Private"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Visibility wraps exactly one inner type with a visibility qualifier.
type Visibility struct {
	Mode  Mode
	Inner Type
}

func (Visibility) irType() {}

func (v Visibility) String() string {
	return fmt.Sprintf("%s[%s]", v.Mode, typeString(v.Inner))
}

// Array is a fixed-length array. Len is a positive constant.
type Array struct {
	Elem Type
	Len  int
}

func (Array) irType() {}

func (a Array) String() string {
	return fmt.Sprintf("Array[%s, %d]", typeString(a.Elem), a.Len)
}

// typeString renders t, tolerating a nil (unannotated) type.
func typeString(t Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

// NewPublic wraps t as a public type.
func NewPublic(t Type) Visibility {
	return Visibility{Mode: Public, Inner: t}
}

// NewPrivate wraps t as a private type.
func NewPrivate(t Type) Visibility {
	return Visibility{Mode: Private, Inner: t}
}

// NewArray creates an array type of n elements of type elem.
func NewArray(elem Type, n int) Array {
	return Array{Elem: elem, Len: n}
}

// ContainsField reports whether t has a field-typed leaf, looking through
// visibility wrappers and arrays at any depth.
func ContainsField(t Type) bool {
	switch tt := t.(type) {
	case FieldType:
		return true
	case Visibility:
		return ContainsField(tt.Inner)
	case Array:
		return ContainsField(tt.Elem)
	default:
		return false
	}
}

// IsPrivate reports whether the outermost qualifier of t is Private.
// Nested qualifiers are not considered.
func IsPrivate(t Type) bool {
	v, ok := t.(Visibility)
	return ok && v.Mode == Private
}

// Unwrap strips every outer visibility wrapper from t.
func Unwrap(t Type) Type {
	for {
		v, ok := t.(Visibility)
		if !ok {
			return t
		}
		t = v.Inner
	}
}
