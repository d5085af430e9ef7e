package vars

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ctyToNative converts an evaluated HCL value. Whole numbers that fit become
// int64, other numbers float64.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()

	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var i int64
		if err := gocty.FromCtyValue(v, &i); err == nil {
			return i, nil
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, fmt.Errorf("could not convert cty.Number to float64: %w", err)
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		list := make([]any, 0)
		it := v.ElementIterator()
		for it.Next() {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			list = append(list, native)
		}
		return list, nil

	case ty.IsObjectType() || ty.IsMapType():
		m := make(map[string]any)
		it := v.ElementIterator()
		for it.Next() {
			key, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("in attribute '%s': %w", key.AsString(), err)
			}
			m[key.AsString()] = native
		}
		return m, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}

func normalizeTable(table map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(table))
	for name, val := range table {
		n, err := normalize(val)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		out[name] = n
	}
	return out, nil
}

// normalize maps decoder-specific number and map types onto int64, float64
// and map[string]any. Other values pass through unchanged.
func normalize(v any) (any, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint:
		return normalizeUint(uint64(t)), nil
	case uint64:
		return normalizeUint(t), nil
	case float32:
		return float64(t), nil

	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", t, err)
		}
		return f, nil

	case *big.Int:
		if t.IsInt64() {
			return t.Int64(), nil
		}
		f, _ := new(big.Float).SetInt(t).Float64()
		return f, nil

	case *big.Float:
		if i, acc := t.Int64(); acc == big.Exact {
			return i, nil
		}
		f, _ := t.Float64()
		return f, nil

	case []any:
		out := make([]any, len(t))
		for i, elem := range t {
			n, err := normalize(elem)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil

	case map[string]any:
		return normalizeTable(t)

	case map[any]any:
		out := make(map[string]any, len(t))
		for k, elem := range t {
			n, err := normalize(elem)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(k)] = n
		}
		return out, nil
	}
	return v, nil
}

func normalizeUint(u uint64) any {
	if u <= 1<<63-1 {
		return int64(u)
	}
	return float64(u)
}
