// Package schema describes and enforces the shape of payloads crossing a
// pipeline stage boundary.
//
// A StageContract holds one or more Shapes. Validation works on the generic
// JSON form of a payload (maps, slices, scalars) so the same contract can
// check a typed Go value, a decoded JSON document, or raw bytes received
// from another process. Validation never mutates its input.
package schema

import (
	"fmt"
	"math"
	"reflect"
)

// Kind is the structural type a Shape requires.
type Kind int

const (
	// KindAny only requires presence.
	KindAny Kind = iota
	KindList
	KindDict
	KindString
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindList:
		return "list"
	case KindDict:
		return "dict"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Shape describes the required structure of a value.
type Shape struct {
	Kind Kind
	// Fields lists required keys of a dict, in declaration order.
	Fields []Field
	// Items is the element shape of a list; nil means elements are unchecked.
	Items *Shape
	// Range bounds an int, inclusive; nil means unbounded.
	Range *Range
}

// Field is a dict key and the shape of its value.
type Field struct {
	Name  string
	Shape Shape
	// Optional fields are checked only when present.
	Optional bool
}

// Range is an inclusive integer interval.
type Range struct {
	Min, Max int
}

// List returns a list shape whose elements match items.
func List(items Shape) Shape {
	return Shape{Kind: KindList, Items: &items}
}

// AnyList returns a list shape with unchecked elements.
func AnyList() Shape {
	return Shape{Kind: KindList}
}

// Dict returns a dict shape requiring the given fields.
func Dict(fields ...Field) Shape {
	return Shape{Kind: KindDict, Fields: fields}
}

// IntIn returns an int shape bounded to [min, max].
func IntIn(min, max int) Shape {
	return Shape{Kind: KindInt, Range: &Range{Min: min, Max: max}}
}

// String returns a string shape.
func String() Shape {
	return Shape{Kind: KindString}
}

// Req declares a required field whose value is only checked for presence.
func Req(name string) Field {
	return Field{Name: name}
}

// Typed declares a required field whose value must match s.
func Typed(name string, s Shape) Field {
	return Field{Name: name, Shape: s}
}

// Opt declares a field whose value must match s when present.
func Opt(name string, s Shape) Field {
	return Field{Name: name, Shape: s, Optional: true}
}

// Required declares several presence-only fields at once.
func Required(names ...string) []Field {
	fields := make([]Field, len(names))
	for i, n := range names {
		fields[i] = Req(n)
	}
	return fields
}

// kindName reports the structural kind of a generic value, using the same
// vocabulary as Kind.String plus "null", "bool" and "number" for non-integral numbers.
func kindName(v any) string {
	if v == nil {
		return "null"
	}
	switch x := v.(type) {
	case map[string]any:
		return "dict"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return "int"
		}
		return "number"
	case float32:
		return kindName(float64(x))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return "dict"
		}
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() != reflect.Uint8 {
			return "list"
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return "null"
		}
		return kindName(rv.Elem().Interface())
	}
	return rv.Kind().String()
}

// matches reports whether v satisfies the kind of s (not its contents).
func (s Shape) matches(v any) bool {
	if s.Kind == KindAny {
		return true
	}
	return kindName(v) == s.Kind.String()
}

// intValue extracts an integral value; ok is false for anything else.
func intValue(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return 0, false
		}
		return int(x), true
	case int:
		return x, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), true
	}
	return 0, false
}

// dictValue returns the entries of a dict-kinded value.
func dictValue(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// listValue returns the elements of a list-kinded value.
func listValue(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// emptyNils returns a copy of v in which every nil slice and map reachable
// through exported fields is replaced by an empty one, so it encodes as [] or {}
// rather than null. Nil pointers and interfaces stay nil.
func emptyNils(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return v
	}
	return fillEmpty(rv).Interface()
}

func fillEmpty(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return v
		}
		if v.IsNil() {
			return reflect.MakeSlice(v.Type(), 0, 0)
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(fillEmpty(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(fillEmpty(v.Index(i)))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.MakeMap(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), fillEmpty(iter.Value()))
		}
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			out.Field(i).Set(fillEmpty(v.Field(i)))
		}
		return out
	case reflect.Ptr:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(fillEmpty(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(fillEmpty(v.Elem()))
		return out
	}
	return v
}
