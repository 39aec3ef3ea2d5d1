package mold

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestMerge(t *testing.T) {
	upper := strings.ToUpper
	a := &Mapping{
		KeyMappings:   []KeyMapping{{From: "a", To: "x"}},
		FieldMappings: map[string]FieldMapping{"x": {Default: 1}, "y": {Default: 2}},
		Strict:        Bool(true),
	}
	b := &Mapping{
		KeyMappings:     []KeyMapping{{From: "b", To: "y"}},
		FieldMappings:   map[string]FieldMapping{"y": {Default: 3}},
		KeyTransform:    upper,
		IncludeUnmapped: Bool(true),
	}
	c := &Mapping{Strict: Bool(false)}

	got := Merge(a, nil, b, c)

	wantKeys := []KeyMapping{{From: "a", To: "x"}, {From: "b", To: "y"}}
	if !reflect.DeepEqual(got.KeyMappings, wantKeys) {
		t.Errorf("KeyMappings = %v, want %v", got.KeyMappings, wantKeys)
	}
	if got.FieldMappings["x"].Default != 1 || got.FieldMappings["y"].Default != 3 {
		t.Errorf("FieldMappings = %v", got.FieldMappings)
	}
	if got.KeyTransform == nil || got.KeyTransform("k") != "K" {
		t.Error("KeyTransform should come from the last mapping defining it")
	}
	if got.Strict == nil || *got.Strict {
		t.Error("Strict should be false, the last defined value")
	}
	if got.IncludeUnmapped == nil || !*got.IncludeUnmapped {
		t.Error("IncludeUnmapped should be true")
	}

	// Inputs are not aliased
	got.FieldMappings["x"] = FieldMapping{}
	if a.FieldMappings["x"].Default != 1 {
		t.Error("Merge() should not alias input field mappings")
	}
}

func TestMergeEmpty(t *testing.T) {
	got := Merge()
	if got.KeyMappings != nil || got.FieldMappings != nil || got.Strict != nil {
		t.Errorf("Merge() = %+v, want zero Mapping", got)
	}
}

func TestCompileTarget(t *testing.T) {
	m := &Mapping{
		KeyMappings: []KeyMapping{
			{From: "user_id", To: "id"},
			{From: "shared", To: "fromKeys"},
		},
		FieldMappings: map[string]FieldMapping{
			"fromField": {From: "shared"},
			"secret":    {Ignore: true},
			"fullName":  {Computed: true, From: "name"},
			"plain":     {Default: "x"},
		},
		KeyTransform: strings.ToLower,
	}

	p, err := compile(m, "T")
	if err != nil {
		t.Fatalf("compile() error: %v", err)
	}

	tests := map[string]string{
		"user_id": "id",
		"shared":  "fromField",
		"plain":   "plain",
		"NAME":    "name",
		"Other":   "other",
	}
	for key, want := range tests {
		if got := p.target(key); got != want {
			t.Errorf("target(%q) = %q, want %q", key, got, want)
		}
	}

	if p.reachable("secret") || p.reachable("fullName") {
		t.Error("ignored and computed fields should not be reachable")
	}
	if !p.reachable("plain") || !p.reachable("undeclared") {
		t.Error("other fields should be reachable")
	}

	if !reflect.DeepEqual(p.computed, []string{"fullName"}) {
		t.Errorf("computed = %v", p.computed)
	}
	if !reflect.DeepEqual(p.defaults(), []string{"plain"}) {
		t.Errorf("defaults() = %v", p.defaults())
	}
}

func TestCompileNil(t *testing.T) {
	p, err := compile(nil, "T")
	if err != nil {
		t.Fatalf("compile(nil) error: %v", err)
	}
	if p.target("Any_Key") != "Any_Key" {
		t.Error("nil mapping should resolve keys by identity")
	}
	if v, _ := p.apply("x", 5, nil); v != 5 {
		t.Errorf("apply() = %v, want 5", v)
	}
	if p.includeUnmapped() || p.strict() {
		t.Error("nil mapping flags should be false")
	}
}

func TestCompileFlags(t *testing.T) {
	p, _ := compile(&Mapping{IncludeUnmapped: Bool(true), Strict: Bool(true)}, "T")
	if p.includeUnmapped() {
		t.Error("strict mode should disable includeUnmapped")
	}
	if !p.strict() {
		t.Error("strict() = false, want true")
	}
}

func TestCompileInvalidExpr(t *testing.T) {
	_, err := compile(&Mapping{
		FieldMappings: map[string]FieldMapping{"total": {Expr: "price *"}},
	}, "Order")

	if !errors.Is(err, ErrInvalidExpr) {
		t.Fatalf("compile() error = %v, want ErrInvalidExpr", err)
	}
	var ce *ConfigError
	if !errors.As(err, &ce) || ce.Field != "total" || ce.Type != "Order" {
		t.Errorf("ConfigError = %+v", ce)
	}
}

func TestApply(t *testing.T) {
	boom := errors.New("boom")
	m := &Mapping{
		FieldMappings: map[string]FieldMapping{
			"double": {Expr: "value * 2"},
			"total":  {Computed: true, Expr: "price * qty"},
			"both":   {Expr: "1", Transform: func(any, map[string]any) (any, error) { return "fn", nil }},
			"fails":  {Transform: func(any, map[string]any) (any, error) { return nil, boom }},
		},
	}
	p, err := compile(m, "T")
	if err != nil {
		t.Fatalf("compile() error: %v", err)
	}
	src := map[string]any{"price": 2.5, "qty": 4}

	if v, err := p.apply("double", 21, src); err != nil || v != 42 {
		t.Errorf("apply(double) = %v, %v", v, err)
	}
	if v, err := p.apply("total", nil, src); err != nil || v != 10.0 {
		t.Errorf("apply(total) = %v, %v", v, err)
	}
	if v, _ := p.apply("both", nil, src); v != "fn" {
		t.Errorf("Transform should win over Expr, got %v", v)
	}
	if _, err := p.apply("fails", nil, src); !errors.Is(err, boom) {
		t.Errorf("apply(fails) error = %v", err)
	}
}

func TestBuilder(t *testing.T) {
	b := NewBuilder().
		KeyMapping("user_id", "id").
		Field("name", FieldMapping{Default: "anon"}).
		KeyTransform(strings.ToLower).
		Strict(true).
		IncludeUnmapped(false)

	m := b.Build()
	if len(m.KeyMappings) != 1 || m.KeyMappings[0] != (KeyMapping{From: "user_id", To: "id"}) {
		t.Errorf("KeyMappings = %v", m.KeyMappings)
	}
	if m.FieldMappings["name"].Default != "anon" {
		t.Errorf("FieldMappings = %v", m.FieldMappings)
	}
	if m.KeyTransform == nil || *m.Strict != true || *m.IncludeUnmapped != false {
		t.Errorf("flags = %+v", m)
	}

	// Later builder calls do not leak into built mappings
	b.Field("email", FieldMapping{}).KeyMapping("a", "b")
	if len(m.FieldMappings) != 1 || len(m.KeyMappings) != 1 {
		t.Error("Build() result should not share state with the builder")
	}
}
