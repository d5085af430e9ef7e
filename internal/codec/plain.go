package codec

import (
	"reflect"
	"strconv"
)

// PlainString returns the plain string form of a primitive value: text,
// boolean, integer or floating-point scalar, including named types with
// those underlying kinds. ok is false for anything else, which callers
// serialize with MarshalStructured instead.
//
// Floats use the shortest representation that round-trips ('g', -1).
// Booleans are "true" and "false", the same spelling they have in JSON.
func PlainString(v any) (s string, ok bool) {
	if v == nil {
		return "", false
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), true
	}
	return "", false
}
