package ir

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// twoTo70 does not fit in 64 bits.
const twoTo70 = "1180591620717411303424"

func TestLiteralsDecode(t *testing.T) {
	big70, _ := new(big.Int).SetString(twoTo70, 10)
	negBig70 := new(big.Int).Neg(big70)

	tests := []struct {
		name     string
		yaml     string
		expected []any
	}{
		{"small ints stay int", "[1, -2, 0x10]", []any{1, -2, 16}},
		{"big literal", "[" + twoTo70 + "]", []any{big70}},
		{"negative big literal", "[-" + twoTo70 + "]", []any{negBig70}},
		{"quoted stays string", `["` + twoTo70 + `"]`, []any{twoTo70}},
		{"nested", "[[" + twoTo70 + ", 1], true]", []any{[]any{big70, 1}, true}},
		{"float untouched", "[1.5]", []any{1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Literals
			require.NoError(t, yaml.Unmarshal([]byte(tt.yaml), &got))
			assert.Equal(t, tt.expected, []any(got))
		})
	}
}

func TestLiteralsRejectsScalar(t *testing.T) {
	var got Literals
	err := yaml.Unmarshal([]byte("5"), &got)
	assert.ErrorContains(t, err, "expected a sequence")
}

func TestLiteralDecode(t *testing.T) {
	var doc struct {
		Return *Literal `yaml:"return"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("return: "+twoTo70+"\n"), &doc))
	require.NotNil(t, doc.Return)

	got, err := Coerce(doc.Return.Value, FieldType{})
	require.NoError(t, err)
	want, _ := NewFieldFromString(twoTo70)
	assert.Equal(t, want, got)
}

func TestCoerceAll(t *testing.T) {
	fn := &Function{Name: "f", Params: []Param{
		{Name: "x", Type: FieldType{}},
		{Name: "ok", Type: BoolType{}},
	}}

	var raw Literals
	require.NoError(t, yaml.Unmarshal([]byte("["+twoTo70+", true, 7]"), &raw))

	got, err := CoerceAll(fn, raw)
	require.NoError(t, err)
	want, _ := NewFieldFromString(twoTo70)
	assert.Equal(t, []Value{want, BoolValue(true), IntValue(7)}, got)
}

func TestCoerceAllErrorNames(t *testing.T) {
	fn := &Function{Name: "f", Params: []Param{{Name: "x", Type: IntType{}}}}

	tests := []struct {
		name    string
		raw     []any
		wantErr string
	}{
		{"param name", []any{"nope"}, "x:"},
		{"surplus index", []any{1, 1.5}, "args[1]:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CoerceAll(fn, tt.raw)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
