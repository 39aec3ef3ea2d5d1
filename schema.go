package mold

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"github.com/zoobzio/sentinel"
)

func init() {
	sentinel.Tag("mold")
}

// Tag classifies how a field's raw value is coerced.
type Tag string

// Field tags, inferred from the field's type and default value.
const (
	TagString  Tag = "string"
	TagNumber  Tag = "number"
	TagBoolean Tag = "boolean"
	TagDate    Tag = "date"
	TagObject  Tag = "object"
	TagArray   Tag = "array"
	TagAny     Tag = "any"
)

// Defaulter lets a type supply its default instance. Types that do not
// implement it default to their zero value.
type Defaulter[T any] interface {
	Default() T
}

// FieldInfo describes one target field (or the element of a slice or map
// field).
type FieldInfo struct {
	// Name is the external key the field is matched against:
	// the mold tag name, else the json tag name, else the Go field name.
	Name string

	// GoName is the struct field name.
	GoName string

	// Index is the reflect.Value.FieldByIndex access path.
	Index []int

	// Tag drives coercion.
	Tag Tag

	// Type is the Go type values are produced as. For interface fields
	// with a typed default this is the default's dynamic type.
	Type reflect.Type

	// Default is the value observed on the default instance at inference.
	// It is read-only; writes always start from a fresh default instance.
	Default reflect.Value

	// Pointer is set when Type is a pointer and values are allocated.
	Pointer bool

	// Nested is the schema of a struct (or pointer-to-struct) field.
	Nested *Schema

	// Elem describes slice, array and map elements.
	Elem *FieldInfo

	base reflect.Type
}

// Schema is the ordered field table of a struct type.
type Schema struct {
	Type     reflect.Type
	TypeName string
	Fields   []*FieldInfo

	byName map[string]*FieldInfo
	extra  []int
}

// Field returns the field declared under the external name.
func (s *Schema) Field(name string) (*FieldInfo, bool) {
	fi, ok := s.byName[name]
	return fi, ok
}

// HasExtra reports whether the type carries a field collecting unmapped keys.
func (s *Schema) HasExtra() bool {
	return s.extra != nil
}

// flatten reads a struct value back into plain keyed data.
func (s *Schema) flatten(rv reflect.Value) map[string]any {
	out := make(map[string]any, len(s.Fields))
	if s.extra != nil {
		if extra, ok := rv.FieldByIndex(s.extra).Interface().(map[string]any); ok {
			for k, v := range extra {
				out[k] = v
			}
		}
	}
	for _, fi := range s.Fields {
		out[fi.Name] = rv.FieldByIndex(fi.Index).Interface()
	}
	return out
}

// schemaCache memoizes schemas by type identity.
type schemaCache struct {
	mu      sync.RWMutex
	schemas map[reflect.Type]*Schema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{schemas: make(map[reflect.Type]*Schema)}
}

// get returns the cached schema for rt or infers it.
func (c *schemaCache) get(rt reflect.Type) (*Schema, error) {
	// Fast path: read-lock cache check
	c.mu.RLock()
	if cached, ok := c.schemas[rt]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	// Slow path: build and cache with write-lock
	c.mu.Lock()
	b := &schemaBuilder{cache: c.schemas, pending: make(map[reflect.Type]*Schema)}
	schema, err := b.build(rt)
	if err == nil {
		for t, s := range b.pending {
			c.schemas[t] = s
		}
	}
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}
	for _, s := range b.order {
		emitSchemaInferred(context.Background(), s.TypeName, len(s.Fields))
	}
	return schema, nil
}

func (c *schemaCache) has(rt reflect.Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.schemas[rt]
	return ok
}

func (c *schemaCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schemas = make(map[reflect.Type]*Schema)
}

// schemaBuilder infers one schema and every nested schema it reaches.
// Types under construction sit in pending so recursive types resolve to the
// schema being built.
type schemaBuilder struct {
	cache   map[reflect.Type]*Schema
	pending map[reflect.Type]*Schema
	order   []*Schema
}

func (b *schemaBuilder) build(rt reflect.Type) (*Schema, error) {
	if s, ok := b.cache[rt]; ok {
		return s, nil
	}
	if s, ok := b.pending[rt]; ok {
		return s, nil
	}
	if rt.Kind() != reflect.Struct || rt == timeType {
		return nil, &ConfigError{Err: ErrNotStruct, Type: rt.String()}
	}

	spec := scanType(rt)
	s := &Schema{
		Type:     rt,
		TypeName: typeName(rt, spec),
		byName:   make(map[string]*FieldInfo, len(spec.Fields)),
	}
	b.pending[rt] = s
	b.order = append(b.order, s)

	def := newDefault(rt)
	if err := b.collect(s, spec, def, nil); err != nil {
		delete(b.pending, rt)
		return nil, err
	}
	return s, nil
}

// collect adds the fields described by spec, flattening embedded structs.
func (b *schemaBuilder) collect(s *Schema, spec sentinel.Metadata, def reflect.Value, parentIndex []int) error {
	for _, field := range spec.Fields {
		fullIndex := append(append([]int{}, parentIndex...), field.Index...)
		sf := s.Type.FieldByIndex(fullIndex)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}

		name, opts := fieldName(sf)
		if name == "-" {
			continue
		}

		if opts.extra {
			if sf.Type == mapStringAny {
				s.extra = fullIndex
			}
			continue
		}

		// Embedded structs without an explicit name promote their fields
		if sf.Anonymous && !opts.named && sf.Type.Kind() == reflect.Struct && sf.Type != timeType {
			if err := b.collect(s, scanType(sf.Type), def, fullIndex); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		if _, dup := s.byName[name]; dup {
			continue
		}

		fi, err := b.info(sf.Type, def.FieldByIndex(fullIndex))
		if err != nil {
			return err
		}
		fi.Name = name
		fi.GoName = sf.Name
		fi.Index = fullIndex

		s.Fields = append(s.Fields, fi)
		s.byName[name] = fi
	}
	return nil
}

// info infers the coercion metadata for a value of type rt whose default is
// def (which may be the zero Value for elements).
func (b *schemaBuilder) info(rt reflect.Type, def reflect.Value) (*FieldInfo, error) {
	fi := &FieldInfo{Type: rt, Default: def, base: rt}

	// Interface fields take their tag from a typed default
	if rt.Kind() == reflect.Interface {
		fi.Tag = TagAny
		if def.IsValid() && !def.IsNil() {
			dyn := def.Elem().Type()
			if tag, ok := scalarTag(dyn); ok {
				fi.Tag = tag
				fi.Type = dyn
				fi.base = dyn
			}
		}
		return fi, nil
	}

	if rt.Kind() == reflect.Ptr {
		fi.Pointer = true
		fi.base = rt.Elem()
	}
	base := fi.base

	if tag, ok := scalarTag(base); ok {
		fi.Tag = tag
		return fi, nil
	}

	switch base.Kind() {
	case reflect.Struct:
		nested, err := b.build(base)
		if err != nil {
			return nil, err
		}
		fi.Tag = TagObject
		fi.Nested = nested

	case reflect.Map:
		if base.Key().Kind() != reflect.String {
			fi.Tag = TagAny
			break
		}
		elem, err := b.info(base.Elem(), reflect.Value{})
		if err != nil {
			return nil, err
		}
		fi.Tag = TagObject
		fi.Elem = elem

	case reflect.Slice, reflect.Array:
		elem, err := b.info(base.Elem(), reflect.Value{})
		if err != nil {
			return nil, err
		}
		fi.Tag = TagArray
		fi.Elem = elem

	default:
		fi.Tag = TagAny
	}

	if fi.Pointer && fi.Tag == TagAny {
		fi.Pointer = false
		fi.base = rt
	}
	return fi, nil
}

// scalarTag maps primitive kinds and time.Time to their tags.
func scalarTag(rt reflect.Type) (Tag, bool) {
	if rt == timeType {
		return TagDate, true
	}
	switch rt.Kind() {
	case reflect.String:
		return TagString, true
	case reflect.Bool:
		return TagBoolean, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return TagNumber, true
	}
	return "", false
}

// tagOptions are the flags parsed from a mold struct tag.
type tagOptions struct {
	named bool
	extra bool
}

// fieldName resolves a field's external key.
// Priority: mold:"name" > json:"name" > field name; "-" disables the field.
func fieldName(sf reflect.StructField) (string, tagOptions) {
	var opts tagOptions
	if mt, ok := sf.Tag.Lookup("mold"); ok {
		parts := strings.Split(mt, ",")
		for _, p := range parts[1:] {
			if strings.TrimSpace(p) == "extra" {
				opts.extra = true
			}
		}
		if name := strings.TrimSpace(parts[0]); name != "" {
			opts.named = true
			return name, opts
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		name := jt
		if i := strings.IndexByte(jt, ','); i >= 0 {
			name = jt[:i]
		}
		if name != "" {
			opts.named = true
			return name, opts
		}
	}
	return sf.Name, opts
}

// scanType returns sentinel metadata for rt, falling back to reflection for
// types sentinel has not scanned.
func scanType(rt reflect.Type) sentinel.Metadata {
	if spec, ok := sentinel.Lookup(rt.String()); ok && describes(spec, rt) {
		return spec
	}

	spec := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() && !sf.Anonymous {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		spec.Fields = append(spec.Fields, fm)
	}

	return spec
}

// describes reports whether spec was scanned from rt. Lookup keys carry the
// package name only, so same-named types from different import paths share
// a key; every field must match by index and type.
func describes(spec sentinel.Metadata, rt reflect.Type) bool {
	if len(spec.Fields) != rt.NumField() {
		return false
	}
	for _, f := range spec.Fields {
		if len(f.Index) != 1 || f.Index[0] >= rt.NumField() {
			return false
		}
		sf := rt.Field(f.Index[0])
		if sf.Name != f.Name || sf.Type != f.ReflectType {
			return false
		}
	}
	return true
}

func typeName(rt reflect.Type, spec sentinel.Metadata) string {
	if spec.TypeName != "" {
		return spec.TypeName
	}
	if rt.Name() != "" {
		return rt.Name()
	}
	return rt.String()
}

// newDefault constructs a fresh, settable default value of rt: the result of
// a Default method returning rt (value or pointer receiver), else the zero
// value.
func newDefault(rt reflect.Type) reflect.Value {
	if rt.Kind() == reflect.Ptr || rt.Kind() == reflect.Interface {
		return reflect.New(rt).Elem()
	}
	out := reflect.New(rt).Elem()
	if m, ok := rt.MethodByName("Default"); ok && isDefaultMethod(m, rt) {
		out.Set(reflect.Zero(rt).Method(m.Index).Call(nil)[0])
		return out
	}
	pt := reflect.PointerTo(rt)
	if m, ok := pt.MethodByName("Default"); ok && isDefaultMethod(m, rt) {
		out.Set(reflect.New(rt).Method(m.Index).Call(nil)[0])
	}
	return out
}

func isDefaultMethod(m reflect.Method, rt reflect.Type) bool {
	return m.Type.NumIn() == 1 && m.Type.NumOut() == 1 && m.Type.Out(0) == rt
}
