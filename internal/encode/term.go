package encode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lorenzorota/zkpytoolkit/internal/ir"
)

// Term encodes v under the declared type t at the given path.
//
// Dispatch follows the type, never the value:
//   - Visibility: the wrapper is stripped and path is kept unchanged
//   - field: (<path> #f<decimal>)
//   - int: (<path> #x<8 hex digits>), truncated to 32 bits two's complement
//   - bool: (<path> true) or (<path> false)
//   - Array: one term per index 0..Len-1 at <path>.<i>, newline separated
//   - anything else, including a nil type or a value that does not match
//     its type: the value's default textual form
//
// Missing array elements are encoded from a nil value.
func Term(v ir.Value, t ir.Type, path string) string {
	switch tt := t.(type) {
	case ir.Visibility:
		return Term(v, tt.Inner, path)
	case ir.FieldType:
		switch fv := v.(type) {
		case ir.FieldValue:
			return "(" + path + " #f" + fv.String() + ")"
		case ir.IntValue:
			return "(" + path + " #f" + fv.String() + ")"
		}
	case ir.IntType:
		if iv, ok := v.(ir.IntValue); ok {
			return fmt.Sprintf("(%s #x%08x)", path, uint32(iv))
		}
	case ir.BoolType:
		if bv, ok := v.(ir.BoolValue); ok {
			if bv {
				return "(" + path + " true)"
			}
			return "(" + path + " false)"
		}
	case ir.Array:
		if list, ok := v.(ir.ListValue); ok {
			return arrayTerm(list, tt, path)
		}
	}
	return defaultText(v)
}

// arrayTerm encodes exactly a.Len elements in index order.
func arrayTerm(list ir.ListValue, a ir.Array, path string) string {
	parts := make([]string, a.Len)
	for i := 0; i < a.Len; i++ {
		var elem ir.Value
		if i < len(list) {
			elem = list[i]
		}
		parts[i] = Term(elem, a.Elem, path+"."+strconv.Itoa(i))
	}
	return strings.Join(parts, "\n")
}

// defaultText is the fallback rendering for untyped or mismatched values.
func defaultText(v ir.Value) string {
	if v == nil {
		return "<nil>"
	}
	return v.String()
}
