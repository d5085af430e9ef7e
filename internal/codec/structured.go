package codec

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/roach88/hpp/internal/models"
)

// Fallback converts a value encoding/json cannot represent into one it can.
// It is called once per offending member; its result is serialized in place.
type Fallback func(v any) (any, error)

// StringFallback renders unsupported members with fmt's %v verb.
func StringFallback(v any) (any, error) {
	return fmt.Sprintf("%v", v), nil
}

const (
	// maxNesting bounds container depth so pointer cycles fail instead of
	// recursing forever.
	maxNesting = 1000

	// maxFallbackChain bounds how many times a fallback result may itself
	// need the fallback.
	maxFallbackChain = 8
)

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// MarshalStructured serializes v as JSON text.
//
// Differences from json.Marshal:
//  1. No HTML escaping (<, >, & stay literal; the text is pasted into HTML
//     and JavaScript sources)
//  2. Members json.Marshal rejects (funcs, channels, complex numbers,
//     NaN and Inf, maps with unsupported key types, structs containing any of
//     these) are passed to fallback and its result is serialized instead
//  3. Map keys are sorted
//
// Returns a CodeUnserializableValue error if a member is unsupported and
// fallback is nil, or if fallback fails.
func MarshalStructured(v any, fallback Fallback) (string, error) {
	m := &structuredMarshaler{fallback: fallback}
	if err := m.marshal(reflect.ValueOf(v), 0, 0); err != nil {
		return "", err
	}
	return m.buf.String(), nil
}

type structuredMarshaler struct {
	buf      bytes.Buffer
	fallback Fallback
}

func (m *structuredMarshaler) marshal(v reflect.Value, nesting, chain int) error {
	if nesting > maxNesting {
		return models.NewError(models.CodeUnserializableValue, "value nested deeper than %d levels (cyclic reference?)", maxNesting)
	}

	if !v.IsValid() {
		m.buf.WriteString("null")
		return nil
	}

	if implementsMarshaler(v) {
		if v.Kind() == reflect.Pointer && v.IsNil() {
			m.buf.WriteString("null")
			return nil
		}
		return m.encodeOrFallback(v, nesting, chain)
	}

	switch v.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return m.encode(v.Interface())

	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return m.useFallback(v, nesting, chain)
		}
		return m.encode(v.Interface())

	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			m.buf.WriteString("null")
			return nil
		}
		return m.marshal(v.Elem(), nesting+1, chain)

	case reflect.Slice:
		if v.IsNil() {
			m.buf.WriteString("null")
			return nil
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return m.encode(v.Bytes())
		}
		return m.marshalList(v, nesting, chain)

	case reflect.Array:
		return m.marshalList(v, nesting, chain)

	case reflect.Map:
		if v.IsNil() {
			m.buf.WriteString("null")
			return nil
		}
		return m.marshalMap(v, nesting, chain)

	case reflect.Struct:
		return m.encodeOrFallback(v, nesting, chain)

	default:
		// Chan, Func, Complex64, Complex128, UnsafePointer
		return m.useFallback(v, nesting, chain)
	}
}

func (m *structuredMarshaler) marshalList(v reflect.Value, nesting, chain int) error {
	m.buf.WriteByte('[')
	for i := 0; i < v.Len(); i++ {
		if i > 0 {
			m.buf.WriteByte(',')
		}
		if err := m.marshal(v.Index(i), nesting+1, chain); err != nil {
			return err
		}
	}
	m.buf.WriteByte(']')
	return nil
}

func (m *structuredMarshaler) marshalMap(v reflect.Value, nesting, chain int) error {
	type entry struct {
		key string
		val reflect.Value
	}

	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key, ok := mapKeyString(iter.Key())
		if !ok {
			return m.useFallback(v, nesting, chain)
		}
		entries = append(entries, entry{key: key, val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	m.buf.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			m.buf.WriteByte(',')
		}
		if err := m.encode(e.key); err != nil {
			return err
		}
		m.buf.WriteByte(':')
		if err := m.marshal(e.val, nesting+1, chain); err != nil {
			return err
		}
	}
	m.buf.WriteByte('}')
	return nil
}

// encodeOrFallback hands v to encoding/json and falls back if it is rejected.
func (m *structuredMarshaler) encodeOrFallback(v reflect.Value, nesting, chain int) error {
	data, err := encodeJSON(v.Interface())
	if err != nil {
		var typeErr *json.UnsupportedTypeError
		var valueErr *json.UnsupportedValueError
		if errors.As(err, &typeErr) || errors.As(err, &valueErr) {
			return m.useFallback(v, nesting, chain)
		}
		return models.NewError(models.CodeUnserializableValue, "encoding %s", v.Type()).Wrap(err)
	}
	m.buf.Write(data)
	return nil
}

func (m *structuredMarshaler) useFallback(v reflect.Value, nesting, chain int) error {
	if m.fallback == nil {
		return models.NewError(models.CodeUnserializableValue, "value of type %s is not serializable and no fallback is set", v.Type())
	}
	if chain >= maxFallbackChain {
		return models.NewError(models.CodeUnserializableValue, "fallback did not produce a serializable value for %s", v.Type())
	}

	replacement, err := m.fallback(v.Interface())
	if err != nil {
		return models.NewError(models.CodeUnserializableValue, "fallback failed for %s", v.Type()).Wrap(err)
	}
	return m.marshal(reflect.ValueOf(replacement), nesting+1, chain+1)
}

func (m *structuredMarshaler) encode(v any) error {
	data, err := encodeJSON(v)
	if err != nil {
		return models.NewError(models.CodeUnserializableValue, "encoding %T", v).Wrap(err)
	}
	m.buf.Write(data)
	return nil
}

// encodeJSON marshals v without HTML escaping and without the encoder's
// trailing newline.
func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func implementsMarshaler(v reflect.Value) bool {
	t := v.Type()
	if t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType) {
		return true
	}
	if v.CanAddr() {
		pt := reflect.PointerTo(t)
		return pt.Implements(jsonMarshalerType) || pt.Implements(textMarshalerType)
	}
	return false
}

// mapKeyString renders a map key the way encoding/json does for the key
// kinds it accepts.
func mapKeyString(k reflect.Value) (string, bool) {
	if k.Kind() == reflect.String {
		return k.String(), true
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		text, err := tm.MarshalText()
		if err != nil {
			return "", false
		}
		return string(text), true
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), true
	}
	return "", false
}
