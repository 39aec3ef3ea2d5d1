package mold

import (
	"reflect"
	"sync"
)

// MappingProvider is implemented by types that declare their own mapping.
// It is consulted after mappings attached with Attach.
type MappingProvider interface {
	MoldMapping() Mapping
}

// mappingTable holds registered and attached mappings by target type.
type mappingTable struct {
	mu         sync.RWMutex
	registered map[reflect.Type]Mapping
	attached   map[reflect.Type]Mapping
}

func newMappingTable() *mappingTable {
	return &mappingTable{
		registered: make(map[reflect.Type]Mapping),
		attached:   make(map[reflect.Type]Mapping),
	}
}

func (t *mappingTable) register(rt reflect.Type, m Mapping) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.registered[rt] = m
}

func (t *mappingTable) attach(rt reflect.Type, m Mapping) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attached[rt] = m
}

func (t *mappingTable) registeredFor(rt reflect.Type) (Mapping, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.registered[rt]
	return m, ok
}

// attachedFor returns the side-table entry for rt, else the type's own
// MoldMapping.
func (t *mappingTable) attachedFor(rt reflect.Type) (Mapping, bool) {
	t.mu.RLock()
	m, ok := t.attached[rt]
	t.mu.RUnlock()
	if ok {
		return m, true
	}

	if rt.Kind() == reflect.Struct {
		if p, ok := reflect.New(rt).Interface().(MappingProvider); ok {
			return p.MoldMapping(), true
		}
	}
	return Mapping{}, false
}

// resolve picks the effective mapping: call-site, else attached, else
// registered. The first one found is used whole.
func (t *mappingTable) resolve(rt reflect.Type, call *Mapping) *Mapping {
	if call != nil {
		return call
	}
	if m, ok := t.attachedFor(rt); ok {
		return &m
	}
	if m, ok := t.registeredFor(rt); ok {
		return &m
	}
	return nil
}

func (t *mappingTable) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.registered = make(map[reflect.Type]Mapping)
	t.attached = make(map[reflect.Type]Mapping)
}

// Register stores m as the registry mapping for rt, replacing any earlier
// registration.
func (e *Engine) Register(rt reflect.Type, m Mapping) {
	e.mappings.register(rt, m)
}

// Registered returns the registry mapping for rt.
func (e *Engine) Registered(rt reflect.Type) (Mapping, bool) {
	return e.mappings.registeredFor(rt)
}

// Attach binds m to rt. Attached mappings take precedence over registered
// ones.
func (e *Engine) Attach(rt reflect.Type, m Mapping) {
	e.mappings.attach(rt, m)
}

// Attachment returns the mapping attached to rt, including one the type
// declares through MappingProvider.
func (e *Engine) Attachment(rt reflect.Type) (Mapping, bool) {
	return e.mappings.attachedFor(rt)
}

// Resolve returns the mapping a transform into rt would use when no
// call-site mapping is given.
func (e *Engine) Resolve(rt reflect.Type) (Mapping, bool) {
	if m := e.mappings.resolve(rt, nil); m != nil {
		return *m, true
	}
	return Mapping{}, false
}
