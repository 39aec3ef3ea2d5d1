package mold

import (
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// KeyMapping renames a source key to a target field.
type KeyMapping struct {
	From string
	To   string
}

// FieldTransform derives a field value from its raw source value and the
// whole source object. Computed fields receive a nil value.
// A returned error aborts the transform.
type FieldTransform func(value any, source map[string]any) (any, error)

// FieldMapping customizes how one target field is populated.
type FieldMapping struct {
	// From names the source key feeding this field.
	From string

	// Ignore removes the field from source-key resolution entirely.
	// It can then only be populated as a computed field or by Default.
	Ignore bool

	// Transform is applied to the raw value before coercion.
	Transform FieldTransform

	// Expr is an expression evaluated when Transform is nil. Source keys are
	// available as variables, along with value (the raw value) and src
	// (the whole source object).
	Expr string

	// Default replaces a nil result and is assigned when the field is never
	// written.
	Default any

	// Computed marks a field with no source key, populated from the whole
	// source object after the source keys are processed.
	Computed bool
}

// Mapping configures a transformation. The zero Mapping is an identity
// mapping.
type Mapping struct {
	KeyMappings     []KeyMapping
	FieldMappings   map[string]FieldMapping
	KeyTransform    func(key string) string
	Strict          *bool
	IncludeUnmapped *bool
}

// Bool returns a pointer to b, for Mapping flag literals.
func Bool(b bool) *bool {
	return &b
}

// Merge combines mappings in argument order. Key mappings are concatenated,
// field mappings are shallow-merged with later arguments winning, and for
// KeyTransform, Strict and IncludeUnmapped the last defined value wins.
// Nil arguments are skipped.
func Merge(mappings ...*Mapping) Mapping {
	var result Mapping

	for _, m := range mappings {
		if m == nil {
			continue
		}

		if m.KeyMappings != nil {
			result.KeyMappings = append(result.KeyMappings, m.KeyMappings...)
		}

		if m.FieldMappings != nil {
			if result.FieldMappings == nil {
				result.FieldMappings = make(map[string]FieldMapping, len(m.FieldMappings))
			}
			for name, fm := range m.FieldMappings {
				result.FieldMappings[name] = fm
			}
		}

		if m.KeyTransform != nil {
			result.KeyTransform = m.KeyTransform
		}
		if m.Strict != nil {
			result.Strict = Bool(*m.Strict)
		}
		if m.IncludeUnmapped != nil {
			result.IncludeUnmapped = Bool(*m.IncludeUnmapped)
		}
	}

	return result
}

// programs caches compiled field expressions by source text.
var programs sync.Map // map[string]*vm.Program

func compileExpr(code string) (*vm.Program, error) {
	if cached, ok := programs.Load(code); ok {
		return cached.(*vm.Program), nil
	}
	prg, err := expr.Compile(code, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	actual, _ := programs.LoadOrStore(code, prg)
	return actual.(*vm.Program), nil
}

// processor is a Mapping compiled for one transform call.
type processor struct {
	mapping  *Mapping
	lookup   map[string]string
	ignored  map[string]bool
	computed []string
	programs map[string]*vm.Program
}

// compile builds the source-key table, computed-field list and expression
// programs for m. A nil mapping compiles to the identity mapping.
func compile(m *Mapping, typeName string) (*processor, error) {
	p := &processor{mapping: m}
	if m == nil {
		return p, nil
	}

	p.lookup = make(map[string]string, len(m.KeyMappings)+len(m.FieldMappings))

	names := make([]string, 0, len(m.FieldMappings))
	for name := range m.FieldMappings {
		names = append(names, name)
	}
	sort.Strings(names)

	// Field mappings without From resolve by identity
	for _, name := range names {
		fm := m.FieldMappings[name]
		if fm.Computed || fm.Ignore || fm.From != "" {
			continue
		}
		p.lookup[name] = name
	}

	for _, km := range m.KeyMappings {
		p.lookup[km.From] = km.To
	}

	// Explicit From overrides win over key mappings
	for _, name := range names {
		fm := m.FieldMappings[name]
		if fm.Computed || fm.Ignore || fm.From == "" {
			continue
		}
		p.lookup[fm.From] = name
	}

	for _, name := range names {
		fm := m.FieldMappings[name]
		if fm.Computed {
			p.computed = append(p.computed, name)
		} else if fm.Ignore {
			if p.ignored == nil {
				p.ignored = make(map[string]bool)
			}
			p.ignored[name] = true
		}

		if fm.Transform == nil && fm.Expr != "" {
			prg, err := compileExpr(fm.Expr)
			if err != nil {
				return nil, &ConfigError{Err: ErrInvalidExpr, Type: typeName, Field: name, Detail: fm.Expr, Cause: err}
			}
			if p.programs == nil {
				p.programs = make(map[string]*vm.Program)
			}
			p.programs[name] = prg
		}
	}

	return p, nil
}

// target resolves the field a source key populates.
func (p *processor) target(key string) string {
	if to, ok := p.lookup[key]; ok {
		return to
	}
	if p.mapping != nil && p.mapping.KeyTransform != nil {
		return p.mapping.KeyTransform(key)
	}
	return key
}

// reachable reports whether field may be written from a source key.
// Ignored and computed fields are excluded.
func (p *processor) reachable(field string) bool {
	if p.mapping == nil {
		return true
	}
	if p.ignored[field] {
		return false
	}
	fm, ok := p.mapping.FieldMappings[field]
	return !ok || !fm.Computed
}

// apply runs the field's transform or expression, or returns value as is.
func (p *processor) apply(field string, value any, source map[string]any) (any, error) {
	if p.mapping == nil {
		return value, nil
	}
	fm, ok := p.mapping.FieldMappings[field]
	if !ok {
		return value, nil
	}
	if fm.Transform != nil {
		return fm.Transform(value, source)
	}
	if prg, ok := p.programs[field]; ok {
		env := make(map[string]any, len(source)+2)
		for k, v := range source {
			env[k] = v
		}
		env["value"] = value
		env["src"] = source
		return expr.Run(prg, env)
	}
	return value, nil
}

// defaultFor returns the field mapping's default, if declared.
func (p *processor) defaultFor(field string) (any, bool) {
	if p.mapping == nil {
		return nil, false
	}
	fm, ok := p.mapping.FieldMappings[field]
	if !ok || fm.Default == nil {
		return nil, false
	}
	return fm.Default, true
}

// defaults returns fields carrying a default, in name order.
func (p *processor) defaults() []string {
	if p.mapping == nil {
		return nil
	}
	var names []string
	for name, fm := range p.mapping.FieldMappings {
		if fm.Default != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (p *processor) includeUnmapped() bool {
	return p.mapping != nil && p.mapping.IncludeUnmapped != nil && *p.mapping.IncludeUnmapped && !p.strict()
}

func (p *processor) strict() bool {
	return p.mapping != nil && p.mapping.Strict != nil && *p.mapping.Strict
}
