package encode

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/lorenzorota/zkpytoolkit/internal/ir"
	"github.com/lorenzorota/zkpytoolkit/internal/modulus"
)

// Problem is one value that would not encode faithfully under its type.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) Error() string {
	return p.Path + ": " + p.Message
}

// Int values outside this range lose information in the 32-bit encoding.
// Both signed and unsigned readings of a 32-bit word are accepted.
const (
	minInt = math.MinInt32
	maxInt = math.MaxUint32
)

// Check reports every argument value that Term would encode lossily or
// through the textual fallback. A nil mod skips the field range check.
//
// Check collects all problems instead of stopping at the first; an empty
// result means every argument encodes exactly.
func Check(args []ir.Argument, mod *modulus.Context) []Problem {
	var problems []Problem
	for _, a := range args {
		checkValue(a.Value, a.Type, a.Name, mod, &problems)
	}
	return problems
}

func checkValue(v ir.Value, t ir.Type, path string, mod *modulus.Context, problems *[]Problem) {
	report := func(format string, args ...any) {
		*problems = append(*problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if v == nil {
		report("missing value")
		return
	}

	switch tt := t.(type) {
	case nil:
		report("no type annotation; value %s is passed through as text", v)
	case ir.Visibility:
		checkValue(v, tt.Inner, path, mod, problems)
	case ir.IntType:
		iv, ok := v.(ir.IntValue)
		if !ok {
			report("expected int, got %s", v)
			return
		}
		if iv < minInt || iv > maxInt {
			report("int %d does not fit in 32 bits", int64(iv))
		}
	case ir.BoolType:
		if _, ok := v.(ir.BoolValue); !ok {
			report("expected bool, got %s", v)
		}
	case ir.FieldType:
		var n *big.Int
		switch fv := v.(type) {
		case ir.FieldValue:
			n = fv.Int
			if n == nil {
				n = new(big.Int)
			}
		case ir.IntValue:
			n = big.NewInt(int64(fv))
		default:
			report("expected field element, got %s", v)
			return
		}
		if mod != nil && !mod.Contains(n) {
			report("field element %s is outside [0, %s)", n, mod)
		}
	case ir.Array:
		list, ok := v.(ir.ListValue)
		if !ok {
			report("expected %s, got %s", tt, v)
			return
		}
		if len(list) != tt.Len {
			report("expected %d elements, got %d", tt.Len, len(list))
		}
		for i := 0; i < len(list) && i < tt.Len; i++ {
			checkValue(list[i], tt.Elem, path+"."+strconv.Itoa(i), mod, problems)
		}
	default:
		report("unsupported type %s", t)
	}
}
