package mold

// Builder accumulates a Mapping fluently.
type Builder struct {
	m Mapping
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// KeyMapping renames the source key from to the target field to.
func (b *Builder) KeyMapping(from, to string) *Builder {
	b.m.KeyMappings = append(b.m.KeyMappings, KeyMapping{From: from, To: to})
	return b
}

// Field sets the field mapping for the target field name, replacing any
// earlier one.
func (b *Builder) Field(name string, fm FieldMapping) *Builder {
	if b.m.FieldMappings == nil {
		b.m.FieldMappings = make(map[string]FieldMapping)
	}
	b.m.FieldMappings[name] = fm
	return b
}

// KeyTransform sets the fallback applied to source keys without an
// explicit mapping.
func (b *Builder) KeyTransform(fn func(string) string) *Builder {
	b.m.KeyTransform = fn
	return b
}

// Strict enables or disables strict mode.
func (b *Builder) Strict(v bool) *Builder {
	b.m.Strict = Bool(v)
	return b
}

// IncludeUnmapped enables or disables capturing unmapped keys.
func (b *Builder) IncludeUnmapped(v bool) *Builder {
	b.m.IncludeUnmapped = Bool(v)
	return b
}

// Build returns the accumulated Mapping. The Builder may keep being used
// without affecting mappings already built.
func (b *Builder) Build() Mapping {
	return Merge(&b.m)
}

// ApplyTo builds the mapping and attaches it to T on the default engine.
func ApplyTo[T any](b *Builder) Attached[T] {
	return Attach[T](b.Build())
}
