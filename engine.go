package mold

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"time"
)

// DefaultMaxDepth bounds nested object and array recursion.
const DefaultMaxDepth = 32

type dateFallback int

const (
	dateFallbackDefault dateFallback = iota
	dateFallbackNow
	dateFallbackZero
	dateFallbackSentinel
)

// DatePolicy decides what an unparsable date becomes.
type DatePolicy struct {
	fallback dateFallback
	at       time.Time
}

// Date policies.
var (
	// DateDefault leaves the field at its schema default.
	DateDefault = DatePolicy{fallback: dateFallbackDefault}

	// DateNow substitutes the current time.
	DateNow = DatePolicy{fallback: dateFallbackNow}

	// DateZero substitutes the zero time.
	DateZero = DatePolicy{fallback: dateFallbackZero}
)

// DateSentinel substitutes a fixed marker time.
func DateSentinel(t time.Time) DatePolicy {
	return DatePolicy{fallback: dateFallbackSentinel, at: t}
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets how many nested levels are transformed before values
// fall back to their defaults. A nested struct costs one level whether it is
// reached through a field, a pointer, a slice element or a map value; slices
// and maps of other values cost one level per container. Values below 1 are
// ignored.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithDatePolicy sets the fallback for unparsable dates.
func WithDatePolicy(p DatePolicy) Option {
	return func(e *Engine) {
		e.datePolicy = p
	}
}

// WithClock replaces time.Now for DateNow.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.clock = now
		}
	}
}

// Engine transforms plain keyed data into typed struct instances.
// It owns a schema cache and the mapping tables; both are populated lazily
// and are safe for concurrent use.
type Engine struct {
	schemas  *schemaCache
	mappings *mappingTable

	maxDepth   int
	datePolicy DatePolicy
	clock      func() time.Time
}

// NewEngine creates an Engine with its own caches.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		schemas:    newSchemaCache(),
		mappings:   newMappingTable(),
		maxDepth:   DefaultMaxDepth,
		datePolicy: DateDefault,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var std = NewEngine()

// Default returns the process-wide engine used by the package functions.
func Default() *Engine {
	return std
}

// Reset clears the default engine's schemas and mappings.
// This is primarily useful for test isolation.
func Reset() {
	std.schemas.reset()
	std.mappings.reset()
}

// Schema returns the cached schema for a struct type, inferring it on first
// use.
func (e *Engine) Schema(rt reflect.Type) (*Schema, error) {
	return e.schemas.get(rt)
}

// Into populates dst, a non-nil pointer to a struct, from src. When m is nil
// the type's attached or registered mapping applies. On error dst is left
// unchanged.
func (e *Engine) Into(dst any, src any, m *Mapping) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return &ConfigError{Err: ErrInvalidTarget, Detail: fmt.Sprintf("%T", dst)}
	}
	rt := rv.Elem().Type()

	ctx := context.Background()
	start := time.Now()
	emitTransformStart(ctx, rt.Name())

	out, written, err := e.build(rt, src, m, 0)
	emitTransformComplete(ctx, rt.Name(), time.Since(start), written, err)
	if err != nil {
		return err
	}

	rv.Elem().Set(out)
	return nil
}

// IntoSlice populates dst, a non-nil pointer to a slice of structs, by
// transforming each element of the sequence src in order. The first error
// aborts the batch and leaves dst unchanged. A non-sequence src yields an
// empty slice.
func (e *Engine) IntoSlice(dst any, src any, m *Mapping) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Slice ||
		rv.Elem().Type().Elem().Kind() != reflect.Struct {
		return &ConfigError{Err: ErrInvalidTarget, Detail: fmt.Sprintf("%T", dst)}
	}
	st := rv.Elem().Type()
	et := st.Elem()

	ctx := context.Background()
	start := time.Now()

	seq, _ := asSequence(src)
	out := reflect.MakeSlice(st, len(seq), len(seq))
	for i, item := range seq {
		v, _, err := e.build(et, item, m, 0)
		if err != nil {
			err = &BatchError{Index: i, Err: err}
			emitBatchComplete(ctx, et.Name(), time.Since(start), i, err)
			return err
		}
		out.Index(i).Set(v)
	}

	emitBatchComplete(ctx, et.Name(), time.Since(start), len(seq), nil)
	rv.Elem().Set(out)
	return nil
}

// build runs the three-pass pipeline for one instance of rt.
func (e *Engine) build(rt reflect.Type, src any, call *Mapping, depth int) (reflect.Value, int, error) {
	inst := newDefault(rt)

	source, ok := e.keyed(src)
	if !ok {
		return inst, 0, nil
	}

	schema, err := e.schemas.get(rt)
	if err != nil {
		return reflect.Value{}, 0, err
	}
	proc, err := compile(e.mappings.resolve(rt, call), schema.TypeName)
	if err != nil {
		return reflect.Value{}, 0, err
	}

	w := &writer{
		engine:  e,
		schema:  schema,
		proc:    proc,
		inst:    inst,
		source:  source,
		depth:   depth,
		written: make(map[string]bool, len(schema.Fields)),
	}

	if err := w.sourceFields(); err != nil {
		return reflect.Value{}, 0, err
	}
	if err := w.computedFields(); err != nil {
		return reflect.Value{}, 0, err
	}
	if err := w.residualDefaults(); err != nil {
		return reflect.Value{}, 0, err
	}

	return inst, len(w.written), nil
}

// writer holds the state of one pipeline run.
type writer struct {
	engine  *Engine
	schema  *Schema
	proc    *processor
	inst    reflect.Value
	source  map[string]any
	depth   int
	written map[string]bool
}

// sourceFields is pass 1: every source key, in key order.
func (w *writer) sourceFields() error {
	keys := make([]string, 0, len(w.source))
	for k := range w.source {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var extra map[string]any
	for _, key := range keys {
		field := w.proc.target(key)
		fi, declared := w.schema.Field(field)
		if !declared {
			switch {
			case w.proc.includeUnmapped() && w.schema.extra != nil:
				if extra == nil {
					extra = make(map[string]any)
				}
				extra[key] = w.source[key]
			case w.proc.strict():
				emitKeyDropped(context.Background(), w.schema.TypeName, key)
			}
			continue
		}
		if !w.proc.reachable(field) {
			continue
		}
		if err := w.write(fi, w.source[key]); err != nil {
			return err
		}
	}

	if extra != nil {
		w.setExtra(extra)
	}
	return nil
}

// computedFields is pass 2.
func (w *writer) computedFields() error {
	for _, name := range w.proc.computed {
		fi, ok := w.schema.Field(name)
		if !ok {
			continue
		}
		if err := w.write(fi, nil); err != nil {
			return err
		}
	}
	return nil
}

// residualDefaults is pass 3: mapping defaults for fields never written.
func (w *writer) residualDefaults() error {
	for _, name := range w.proc.defaults() {
		if w.written[name] {
			continue
		}
		fi, ok := w.schema.Field(name)
		if !ok {
			continue
		}
		def, _ := w.proc.defaultFor(name)
		if err := w.assign(fi, def); err != nil {
			return err
		}
		w.written[name] = true
	}
	return nil
}

// write transforms, defaults and coerces raw into fi. A nil result leaves
// the field at its default.
func (w *writer) write(fi *FieldInfo, raw any) error {
	value, err := w.proc.apply(fi.Name, raw, w.source)
	if err != nil {
		return newTransformError(w.schema.TypeName, fi.Name, err)
	}
	if isNullish(value) {
		if def, ok := w.proc.defaultFor(fi.Name); ok {
			value = def
		}
	}
	if isNullish(value) {
		return nil
	}

	w.written[fi.Name] = true
	out, ok, err := w.engine.coerce(value, fi, w.depth)
	if err != nil {
		return err
	}
	if ok {
		w.inst.FieldByIndex(fi.Index).Set(out)
	}
	return nil
}

// assign sets a mapping default directly, converting only when the default
// is not assignable to the field.
func (w *writer) assign(fi *FieldInfo, def any) error {
	field := w.inst.FieldByIndex(fi.Index)
	rv := reflect.ValueOf(def)
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return nil
	}
	out, ok, err := w.engine.coerce(def, fi, w.depth)
	if err != nil {
		return err
	}
	if ok {
		field.Set(out)
	}
	return nil
}

// setExtra stores unmapped keys on the type's extra field, keeping entries
// the default instance already carried.
func (w *writer) setExtra(extra map[string]any) {
	field := w.inst.FieldByIndex(w.schema.extra)
	if existing, ok := field.Interface().(map[string]any); ok {
		for k, v := range existing {
			if _, set := extra[k]; !set {
				extra[k] = v
			}
		}
	}
	field.Set(reflect.ValueOf(extra))
}
