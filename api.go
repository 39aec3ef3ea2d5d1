// Package mold turns untyped keyed data into typed, defaulted Go structs.
//
// Plain data arrives from decoded request bodies, datastore rows and message
// payloads as map[string]any (or any string-keyed map). mold infers a schema
// for the target struct once, then runs every source through a three-pass
// pipeline: source keys, computed fields, residual defaults. Coercion never
// fails; values that cannot be used leave the field at its default.
//
// # Basic Usage
//
//	type User struct {
//	    ID       int64     `json:"id"`
//	    Name     string    `json:"name"`
//	    IsActive bool      `json:"isActive"`
//	    Joined   time.Time `json:"joined"`
//	}
//
//	user, err := mold.Transform[User](map[string]any{
//	    "id":       "42",
//	    "name":     "Ann",
//	    "isActive": "false",
//	})
//
// # Field Names
//
// A field is matched against the source by its external name:
//
//	mold:"name"    - explicit name
//	json:"name"    - used when no mold tag is present
//	mold:"-"       - field is never populated from the source
//	mold:",extra"  - map[string]any receiving unmapped keys
//
// # Defaults
//
// The default instance of a type is its zero value, or the result of its
// Default method when the type implements Defaulter:
//
//	func (User) Default() User { return User{IsActive: true} }
//
// # Mappings
//
// A Mapping renames keys, derives computed fields and supplies defaults:
//
//	m := mold.NewBuilder().
//	    KeyMapping("user_id", "id").
//	    Field("fullName", mold.FieldMapping{
//	        Computed: true,
//	        Expr:     `first + " " + last`,
//	    }).
//	    Build()
//
//	user, err := mold.TransformWith[User](row, m)
//
// The effective mapping for a transform is the call-site mapping, else a
// mapping attached with Attach (or declared by the type through
// MappingProvider), else a mapping registered with Configure. The first one
// found is used whole; combine mappings explicitly with Merge.
//
// # Coercion
//
// Each field is coerced by the tag inferred from its type:
//
//   - string: values are formatted; nil becomes ""
//   - number: numeric strings are parsed; anything unparsable becomes 0
//   - boolean: "true" and 1 are true, "false" and 0 are false
//   - date: RFC3339 and plain date strings, Unix milliseconds
//   - object: keyed data recurses through the nested type's pipeline
//   - array: every element is coerced by the element type
//   - any: passed through unchanged
//
// # Observability
//
// Engine events are emitted as capitan signals; see signals.go.
package mold

import (
	"reflect"

	"github.com/zoobzio/sentinel"
)

// Transform builds a T from src using T's attached or registered mapping.
// T must be a struct type. A src that is not keyed data yields T's default
// instance.
func Transform[T any](src any) (T, error) {
	return transformOn[T](std, src, nil)
}

// TransformWith builds a T from src using m in place of any attached or
// registered mapping.
func TransformWith[T any](src any, m Mapping) (T, error) {
	return transformOn[T](std, src, &m)
}

// TransformMany builds one T per element of src, in order. The first error
// aborts the batch and no partial result is returned.
func TransformMany[T any](src []any) ([]T, error) {
	return transformManyOn[T](std, src, nil)
}

// TransformManyWith is TransformMany using m for every element.
func TransformManyWith[T any](src []any, m Mapping) ([]T, error) {
	return transformManyOn[T](std, src, &m)
}

// TransformSlice is TransformMany for any sequence type, such as
// []map[string]any or a driver's array type. A src that is not a sequence
// yields an empty result.
func TransformSlice[T any](src any) ([]T, error) {
	return transformManyOn[T](std, src, nil)
}

// Configure registers m for T on the default engine.
func Configure[T any](m Mapping) {
	std.Register(reflect.TypeFor[T](), m)
}

// Attach binds m to T on the default engine and returns a handle that
// transforms with it.
func Attach[T any](m Mapping) Attached[T] {
	return AttachTo[T](std, m)
}

// AttachTo binds m to T on e.
func AttachTo[T any](e *Engine, m Mapping) Attached[T] {
	e.Attach(reflect.TypeFor[T](), m)
	return Attached[T]{engine: e}
}

// MappingFor returns the mapping attached to T on the default engine.
func MappingFor[T any]() (Mapping, bool) {
	return std.Attachment(reflect.TypeFor[T]())
}

// SchemaOf returns the inferred schema of T on the default engine.
func SchemaOf[T any]() (*Schema, error) {
	prepare[T](std)
	return std.Schema(reflect.TypeFor[T]())
}

// SchemaFor returns the inferred schema of rt on the default engine.
func SchemaFor(rt reflect.Type) (*Schema, error) {
	return std.Schema(rt)
}

// Attached is a target type with a mapping bound to it.
type Attached[T any] struct {
	engine *Engine
}

// Mapping returns the bound mapping.
func (a Attached[T]) Mapping() Mapping {
	m, _ := a.engine.Attachment(reflect.TypeFor[T]())
	return m
}

// Transform builds a T from src with the bound mapping.
func (a Attached[T]) Transform(src any) (T, error) {
	return transformOn[T](a.engine, src, nil)
}

// TransformMany builds one T per element of src with the bound mapping.
func (a Attached[T]) TransformMany(src any) ([]T, error) {
	return transformManyOn[T](a.engine, src, nil)
}

// On returns a transform function for T bound to e, for callers holding
// their own engine.
func On[T any](e *Engine) func(src any) (T, error) {
	return func(src any) (T, error) {
		return transformOn[T](e, src, nil)
	}
}

func transformOn[T any](e *Engine, src any, m *Mapping) (T, error) {
	var out T
	prepare[T](e)
	if err := e.Into(&out, src, m); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func transformManyOn[T any](e *Engine, src any, m *Mapping) ([]T, error) {
	var out []T
	prepare[T](e)
	if err := e.IntoSlice(&out, src, m); err != nil {
		return nil, err
	}
	return out, nil
}

// prepare registers T's metadata with sentinel before the first inference.
func prepare[T any](e *Engine) {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct || e.schemas.has(rt) {
		return
	}
	sentinel.Scan[T]()
}
