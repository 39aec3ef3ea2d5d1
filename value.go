package mold

import (
	"context"
	"math"
	"reflect"
)

// coerce converts raw to the field's type according to its tag. The bool
// result is false when raw could not be used and the field keeps its
// default. Errors only come from caller transforms in nested pipelines.
func (e *Engine) coerce(raw any, fi *FieldInfo, depth int) (reflect.Value, bool, error) {
	if fi.Tag == TagAny {
		return passThrough(raw, fi.Type)
	}
	if raw = deref(raw); raw == nil {
		return reflect.Value{}, false, nil
	}

	var (
		v   reflect.Value
		ok  = true
		err error
	)
	switch fi.Tag {
	case TagString:
		v = reflect.ValueOf(ToString(raw)).Convert(fi.base)
	case TagNumber:
		v = numberValue(raw, fi.base)
	case TagBoolean:
		v = reflect.ValueOf(ToBoolean(raw)).Convert(fi.base)
	case TagDate:
		v, ok = e.dateValue(raw)
	case TagObject:
		v, ok, err = e.coerceObject(raw, fi, depth)
	case TagArray:
		v, ok, err = e.coerceArray(raw, fi, depth)
	default:
		return reflect.Value{}, false, nil
	}
	if err != nil || !ok {
		return reflect.Value{}, false, err
	}

	if fi.Pointer {
		p := reflect.New(fi.base)
		p.Elem().Set(v)
		v = p
	}
	return v, true, nil
}

// numberValue parses raw into a numeric kind. Integers are taken exactly
// when possible; out-of-range results become 0.
func numberValue(raw any, rt reflect.Type) reflect.Value {
	out := reflect.New(rt).Elem()

	switch rt.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, exact := toInt64(raw)
		if !exact {
			f := math.Trunc(ToNumber(raw))
			if f < math.MinInt64 || f >= math.MaxInt64 {
				f = 0
			}
			i = int64(f)
		}
		if out.OverflowInt(i) {
			i = 0
		}
		out.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, exact := toUint64(raw)
		if !exact {
			u = 0
			if f := math.Trunc(ToNumber(raw)); f > 0 && f < math.MaxUint64 {
				u = uint64(f)
			}
		}
		if out.OverflowUint(u) {
			u = 0
		}
		out.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f := ToNumber(raw)
		if out.OverflowFloat(f) {
			f = 0
		}
		out.SetFloat(f)
	}

	return out
}

// dateValue parses raw, applying the engine's date policy on failure.
func (e *Engine) dateValue(raw any) (reflect.Value, bool) {
	if t, ok := ToDate(raw); ok {
		return reflect.ValueOf(t), true
	}
	switch e.datePolicy.fallback {
	case dateFallbackNow:
		return reflect.ValueOf(e.clock()), true
	case dateFallbackZero:
		return reflect.Zero(timeType), true
	case dateFallbackSentinel:
		return reflect.ValueOf(e.datePolicy.at), true
	}
	return reflect.Value{}, false
}

// coerceObject runs the nested pipeline for struct fields and coerces the
// entries of string-keyed map fields. Values of the exact field type are
// used as they are.
func (e *Engine) coerceObject(raw any, fi *FieldInfo, depth int) (reflect.Value, bool, error) {
	if depth >= e.maxDepth {
		emitDepthExceeded(context.Background(), fi.Name, depth)
		return reflect.Value{}, false, nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Type() == fi.base {
		return rv, true, nil
	}

	if fi.Nested != nil {
		if _, ok := e.keyed(raw); !ok {
			return reflect.Value{}, false, nil
		}
		v, _, err := e.build(fi.base, raw, nil, depth+1)
		if err != nil {
			return reflect.Value{}, false, err
		}
		return v, true, nil
	}

	src, ok := e.keyed(raw)
	if !ok {
		return reflect.Value{}, false, nil
	}
	if fi.base == mapStringAny {
		return reflect.ValueOf(src), true, nil
	}

	out := reflect.MakeMapWithSize(fi.base, len(src))
	for k, item := range src {
		ev, err := e.element(item, fi.Elem, entryDepth(fi.Elem, depth))
		if err != nil {
			return reflect.Value{}, false, err
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(fi.base.Key()), ev)
	}
	return out, true, nil
}

// coerceArray coerces every element of a sequence. Strings fill byte
// slices directly.
func (e *Engine) coerceArray(raw any, fi *FieldInfo, depth int) (reflect.Value, bool, error) {
	if depth >= e.maxDepth {
		emitDepthExceeded(context.Background(), fi.Name, depth)
		return reflect.Value{}, false, nil
	}

	if s, ok := raw.(string); ok {
		if fi.base.Kind() == reflect.Slice && fi.base.Elem().Kind() == reflect.Uint8 {
			return reflect.ValueOf([]byte(s)).Convert(fi.base), true, nil
		}
		return reflect.Value{}, false, nil
	}

	rv := reflect.ValueOf(raw)
	if rv.Type() == fi.base {
		return rv, true, nil
	}

	seq, ok := asSequence(raw)
	if !ok {
		return reflect.Value{}, false, nil
	}

	var out reflect.Value
	if fi.base.Kind() == reflect.Array {
		out = reflect.New(fi.base).Elem()
	} else {
		out = reflect.MakeSlice(fi.base, len(seq), len(seq))
	}

	for i, item := range seq {
		if i >= out.Len() {
			break
		}
		ev, err := e.element(item, fi.Elem, entryDepth(fi.Elem, depth))
		if err != nil {
			return reflect.Value{}, false, err
		}
		out.Index(i).Set(ev)
	}
	return out, true, nil
}

// element coerces one array or map entry, substituting the element type's
// default when the entry is nil or unusable.
func (e *Engine) element(item any, fi *FieldInfo, depth int) (reflect.Value, error) {
	if isNullish(item) {
		return newDefault(fi.Type), nil
	}
	v, ok, err := e.coerce(item, fi, depth)
	if err != nil {
		return reflect.Value{}, err
	}
	if !ok {
		return newDefault(fi.Type), nil
	}
	return v, nil
}

// entryDepth is the depth container entries are coerced at. Struct entries
// are charged once, when their own pipeline starts; other entries are a
// level deeper than the container.
func entryDepth(elem *FieldInfo, depth int) int {
	if elem.Nested != nil {
		return depth
	}
	return depth + 1
}

// passThrough keeps raw unchanged when it fits the field.
func passThrough(raw any, rt reflect.Type) (reflect.Value, bool, error) {
	if raw == nil {
		return reflect.Value{}, false, nil
	}
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(rt) {
		return rv, true, nil
	}
	if rv.Type().ConvertibleTo(rt) && rv.Kind() == rt.Kind() {
		return rv.Convert(rt), true, nil
	}
	return reflect.Value{}, false, nil
}

// deref unwraps pointers so scalars behind them coerce like values. A
// pointer chain ending in nil yields nil.
func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr {
		return v
	}
	if _, ok := v.(timeProvider); ok && !rv.IsNil() {
		return v
	}
	iv := indirect(rv)
	if !iv.IsValid() {
		return nil
	}
	return iv.Interface()
}
