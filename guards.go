package mold

import (
	"reflect"
	"time"
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	mapStringAny = reflect.TypeFor[map[string]any]()
)

// timeProvider is satisfied by driver date types such as bson's DateTime.
type timeProvider interface {
	Time() time.Time
}

// isNullish reports whether v carries no value: untyped nil, a pointer chain
// ending in nil, or a nil map, slice, interface or func.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		return !indirect(rv).IsValid()
	case reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// asTime reports whether v is a date value and returns it.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case timeProvider:
		if isNullish(v) {
			return time.Time{}, false
		}
		return t.Time(), true
	}
	return time.Time{}, false
}

// asSequence returns the elements of any slice or array. Strings are not
// sequences.
func asSequence(v any) ([]any, bool) {
	switch s := v.(type) {
	case nil:
		return nil, false
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	}

	rv := indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return nil, false
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return nil, false
	}

	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// keyed returns v as a string-keyed map. Any map with string keys qualifies
// (bson.M, yaml documents), as does a struct value, which is flattened through
// its own schema so previously built instances can be fed back in.
func (e *Engine) keyed(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return m, m != nil
	}

	rv := indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return nil, false
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, true

	case reflect.Struct:
		if rv.Type() == timeType {
			return nil, false
		}
		if _, ok := rv.Interface().(timeProvider); ok {
			return nil, false
		}
		schema, err := e.schemas.get(rv.Type())
		if err != nil {
			return nil, false
		}
		return schema.flatten(rv), true
	}

	return nil, false
}

// indirect dereferences pointers and interfaces until it reaches a concrete
// value, returning the zero Value on nil.
func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}
