package mold

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/sentinel"
)

type schemaAddress struct {
	Street string `json:"street"`
	City   string `json:"city"`
}

type schemaBase struct {
	ID int `json:"id"`
}

type schemaUser struct {
	schemaBase
	Name     string            `json:"name"`
	Email    string            `mold:"email_address" json:"email"`
	Age      uint8             `json:"age"`
	Active   bool              `json:"active"`
	Joined   time.Time         `json:"joined"`
	Address  schemaAddress     `json:"address"`
	Previous *schemaAddress    `json:"previous"`
	Tags     []string          `json:"tags"`
	Labels   map[string]string `json:"labels"`
	Meta     any               `json:"meta"`
	Secret   string            `mold:"-"`
	Extra    map[string]any    `mold:",extra"`
	internal string
}

type schemaNode struct {
	Value    int          `json:"value"`
	Children []schemaNode `json:"children"`
	Next     *schemaNode  `json:"next"`
}

type schemaSetting struct {
	Value any `json:"value"`
}

func (schemaSetting) Default() schemaSetting { return schemaSetting{Value: 0} }

func TestSchemaInference(t *testing.T) {
	s, err := NewEngine().Schema(reflect.TypeFor[schemaUser]())
	if err != nil {
		t.Fatalf("Schema() error: %v", err)
	}

	want := map[string]Tag{
		"id":            TagNumber,
		"name":          TagString,
		"email_address": TagString,
		"age":           TagNumber,
		"active":        TagBoolean,
		"joined":        TagDate,
		"address":       TagObject,
		"previous":      TagObject,
		"tags":          TagArray,
		"labels":        TagObject,
		"meta":          TagAny,
	}
	if len(s.Fields) != len(want) {
		t.Errorf("len(Fields) = %d, want %d", len(s.Fields), len(want))
	}
	for name, tag := range want {
		fi, ok := s.Field(name)
		if !ok {
			t.Errorf("Field(%q) missing", name)
			continue
		}
		if fi.Tag != tag {
			t.Errorf("Field(%q).Tag = %q, want %q", name, fi.Tag, tag)
		}
	}

	for _, absent := range []string{"Secret", "internal", "email", "Extra"} {
		if _, ok := s.Field(absent); ok {
			t.Errorf("Field(%q) should not be declared", absent)
		}
	}

	if !s.HasExtra() {
		t.Error("HasExtra() = false, want true")
	}

	id, _ := s.Field("id")
	if !reflect.DeepEqual(id.Index, []int{0, 0}) {
		t.Errorf("embedded Index = %v, want [0 0]", id.Index)
	}

	prev, _ := s.Field("previous")
	if !prev.Pointer || prev.Nested == nil || prev.Nested.Type != reflect.TypeFor[schemaAddress]() {
		t.Errorf("previous = %+v, want pointer with nested schema", prev)
	}

	addr, _ := s.Field("address")
	if addr.Nested != prev.Nested {
		t.Error("nested schemas for the same type should be shared")
	}

	tags, _ := s.Field("tags")
	if tags.Elem == nil || tags.Elem.Tag != TagString {
		t.Errorf("tags.Elem = %+v, want string element", tags.Elem)
	}
}

func TestSchemaCached(t *testing.T) {
	e := NewEngine()
	rt := reflect.TypeFor[schemaUser]()

	s1, _ := e.Schema(rt)
	s2, _ := e.Schema(rt)
	if s1 != s2 {
		t.Error("Schema() should return the cached schema")
	}

	e.schemas.reset()
	s3, _ := e.Schema(rt)
	if s1 == s3 {
		t.Error("reset() should clear the cache")
	}
}

func TestSchemaConcurrent(t *testing.T) {
	e := NewEngine()
	rt := reflect.TypeFor[schemaNode]()

	var wg sync.WaitGroup
	results := make([]*Schema, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = e.Schema(rt)
		}(i)
	}
	wg.Wait()

	for i, s := range results {
		if s == nil || s != results[0] {
			t.Fatalf("result %d differs from first schema", i)
		}
	}
}

func TestSchemaRecursive(t *testing.T) {
	s, err := NewEngine().Schema(reflect.TypeFor[schemaNode]())
	if err != nil {
		t.Fatalf("Schema() error: %v", err)
	}

	children, _ := s.Field("children")
	if children.Elem == nil || children.Elem.Nested != s {
		t.Error("children elements should resolve to the enclosing schema")
	}
	next, _ := s.Field("next")
	if next.Nested != s {
		t.Error("next should resolve to the enclosing schema")
	}
}

func TestSchemaTypedDefault(t *testing.T) {
	s, err := NewEngine().Schema(reflect.TypeFor[schemaSetting]())
	if err != nil {
		t.Fatalf("Schema() error: %v", err)
	}

	fi, _ := s.Field("value")
	if fi.Tag != TagNumber || fi.Type != reflect.TypeFor[int]() {
		t.Errorf("value = %s %v, want number int", fi.Tag, fi.Type)
	}
}

func TestSchemaNotStruct(t *testing.T) {
	_, err := NewEngine().Schema(reflect.TypeFor[int]())
	if !errors.Is(err, ErrNotStruct) {
		t.Errorf("Schema(int) error = %v, want ErrNotStruct", err)
	}

	if _, err := SchemaFor(reflect.TypeFor[time.Time]()); !errors.Is(err, ErrNotStruct) {
		t.Errorf("SchemaFor(time.Time) error = %v, want ErrNotStruct", err)
	}
}

func TestNewDefault(t *testing.T) {
	v := newDefault(reflect.TypeFor[schemaSetting]())
	if got := v.Interface().(schemaSetting); got.Value != 0 {
		t.Errorf("newDefault() = %+v, want Default()", got)
	}
	if !v.CanSet() {
		t.Error("newDefault() should be settable")
	}

	if p := newDefault(reflect.TypeFor[*schemaNode]()); !p.IsNil() {
		t.Error("pointer defaults should be nil")
	}
}

func TestSchemaOf(t *testing.T) {
	t.Cleanup(Reset)

	s1, err := SchemaOf[schemaAddress]()
	if err != nil {
		t.Fatalf("SchemaOf() error: %v", err)
	}
	s2, _ := SchemaFor(reflect.TypeFor[schemaAddress]())
	if s1 != s2 {
		t.Error("SchemaOf and SchemaFor should share the cache")
	}
	if len(s1.Fields) != 2 {
		t.Errorf("len(Fields) = %d, want 2", len(s1.Fields))
	}
}

type schemaPoint struct {
	Street string
	City   string
}

func TestDescribes(t *testing.T) {
	rt := reflect.TypeFor[schemaPoint]()
	own := scanType(rt)
	if !describes(own, rt) {
		t.Fatal("describes() should accept metadata scanned from the type")
	}

	// Same name and field count, different field types
	other := sentinel.Metadata{
		TypeName: "schemaPoint",
		Fields: []sentinel.FieldMetadata{
			{Name: "Street", Index: []int{0}, ReflectType: reflect.TypeFor[int]()},
			{Name: "City", Index: []int{1}, ReflectType: reflect.TypeFor[string]()},
		},
	}
	if describes(other, rt) {
		t.Error("describes() should reject metadata with different field types")
	}

	renamed := sentinel.Metadata{
		Fields: []sentinel.FieldMetadata{
			{Name: "Line1", Index: []int{0}, ReflectType: reflect.TypeFor[string]()},
			{Name: "City", Index: []int{1}, ReflectType: reflect.TypeFor[string]()},
		},
	}
	if describes(renamed, rt) {
		t.Error("describes() should reject metadata with different field names")
	}

	if describes(sentinel.Metadata{}, rt) {
		t.Error("describes() should reject metadata with a different field count")
	}
}
