package ir

import (
	"fmt"
	"math"
	"math/big"
)

// Coerce converts decoded input data (YAML, JSON or plain Go values) into a
// Value, guided by the declared type t.
//
// Accepted inputs:
//   - int: any Go integer kind within int64 range
//   - field: any Go integer kind, *big.Int, big.Int or a decimal string
//   - bool: bool
//   - Array: []any (or []int, []int64, []bool, []string), element-wise
//   - nil t (unannotated): bool, integers, *big.Int and lists are converted
//     by their dynamic type
//
// Values that already implement Value are returned unchanged. Floats are
// always rejected. Array lengths are not checked here; see encode.Check.
func Coerce(raw any, t Type) (Value, error) {
	return coerce(raw, t, "$")
}

func coerce(raw any, t Type, path string) (Value, error) {
	if v, ok := raw.(Value); ok {
		return v, nil
	}

	switch tt := t.(type) {
	case Visibility:
		return coerce(raw, tt.Inner, path)
	case IntType:
		n, ok := toInt64(raw)
		if !ok {
			return nil, fmt.Errorf("%s: expected int, got %T", path, raw)
		}
		return IntValue(n), nil
	case BoolType:
		b, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%s: expected bool, got %T", path, raw)
		}
		return BoolValue(b), nil
	case FieldType:
		n, ok := toBigInt(raw)
		if !ok {
			return nil, fmt.Errorf("%s: expected field element, got %T", path, raw)
		}
		return FieldValue{Int: n}, nil
	case Array:
		items, ok := toList(raw)
		if !ok {
			return nil, fmt.Errorf("%s: expected list, got %T", path, raw)
		}
		list := make(ListValue, len(items))
		for i, item := range items {
			elem, err := coerce(item, tt.Elem, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			list[i] = elem
		}
		return list, nil
	case nil:
		return coerceUntyped(raw, path)
	default:
		return nil, fmt.Errorf("%s: unsupported type %T", path, t)
	}
}

// CoerceAll converts raw argument values by the matching parameter types of
// fn. Surplus values are converted without a type; Bind drops them later.
// Errors name the parameter.
func CoerceAll(fn *Function, raw []any) ([]Value, error) {
	values := make([]Value, len(raw))
	for i, r := range raw {
		var t Type
		name := fmt.Sprintf("args[%d]", i)
		if i < len(fn.Params) {
			t = fn.Params[i].Type
			name = fn.Params[i].Name
		}
		v, err := Coerce(r, t)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		values[i] = v
	}
	return values, nil
}

// coerceUntyped converts raw by its dynamic type when no annotation exists.
func coerceUntyped(raw any, path string) (Value, error) {
	switch val := raw.(type) {
	case bool:
		return BoolValue(val), nil
	case *big.Int, big.Int:
		n, _ := toBigInt(val)
		return FieldValue{Int: n}, nil
	}
	if n, ok := toInt64(raw); ok {
		return IntValue(n), nil
	}
	if items, ok := toList(raw); ok {
		list := make(ListValue, len(items))
		for i, item := range items {
			elem, err := coerceUntyped(item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			list[i] = elem
		}
		return list, nil
	}
	return nil, fmt.Errorf("%s: cannot convert %T without a type", path, raw)
}

func toInt64(raw any) (int64, bool) {
	switch n := raw.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func toBigInt(raw any) (*big.Int, bool) {
	switch n := raw.(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return new(big.Int).Set(n), true
	case big.Int:
		return new(big.Int).Set(&n), true
	case string:
		return new(big.Int).SetString(n, 10)
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	}
	if i, ok := toInt64(raw); ok {
		return big.NewInt(i), true
	}
	return nil, false
}

func toList(raw any) ([]any, bool) {
	switch l := raw.(type) {
	case []any:
		return l, true
	case []int:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]any, len(l))
		for i, n := range l {
			out[i] = n
		}
		return out, true
	case []bool:
		out := make([]any, len(l))
		for i, b := range l {
			out[i] = b
		}
		return out, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}
