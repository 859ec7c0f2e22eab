package spec

import (
	"fmt"
	"reflect"

	"github.com/vk/contentspec/internal/registry"
)

// Spawner is a typed object backed by a Spec.
type Spawner interface {
	Spec() *Spec
}

// Checker is implemented by spawners that can read every property they
// depend on. Running Check against a molding spec produces the type's full
// template.
type Checker interface {
	Check() error
}

// Factory builds a spawner over s.
type Factory func(s *Spec) Spawner

// Registry maps spawner type identifiers to factories.
type Registry = registry.Registry[Factory]

// NewRegistry returns an empty spawner registry.
func NewRegistry() *Registry {
	return registry.New[Factory]()
}

// RegisterSpawner registers the spawner type T under id.
func RegisterSpawner[T Spawner](r *Registry, id string, factory func(s *Spec) T, capabilities ...string) {
	r.Register(id, reflect.TypeFor[T](), func(s *Spec) Spawner { return factory(s) }, capabilities...)
}

// accepts reports whether e can fill a slot bound to capability and typed T.
func accepts[T Spawner](e *registry.Entry[Factory], capability string) bool {
	if capability != "" && !e.Implements(capability) {
		return false
	}
	return e.GoType.AssignableTo(reflect.TypeFor[T]())
}

// activate builds the spawner declared by s, or defaultType when s declares
// none.
func activate[T Spawner](s *Spec, capability, defaultType string) (T, error) {
	var zero T
	id, err := s.SpawnerID()
	if err != nil {
		return zero, err
	}
	if id == "" {
		id = defaultType
	}
	if id == "" {
		return zero, fmt.Errorf("%s declares no spawner type", s.ID())
	}
	e, err := s.store.registry.Lookup(id)
	if err != nil {
		return zero, err
	}
	if !accepts[T](e, capability) {
		return zero, fmt.Errorf("type %q cannot fill a slot bound to %q (%s)", id, capability, reflect.TypeFor[T]())
	}
	v, ok := e.Factory(s).(T)
	if !ok {
		return zero, fmt.Errorf("type %q did not produce a %s", id, reflect.TypeFor[T]())
	}
	return v, nil
}

// MoldingDefault builds a placeholder over s from the first registered type,
// by identifier, that can fill a slot bound to capability and typed T. It
// panics with a DefinitionError when no registered type qualifies.
func MoldingDefault[T Spawner](s *Spec, capability string) T {
	for _, e := range s.store.registry.Entries() {
		if !accepts[T](e, capability) {
			continue
		}
		if v, ok := e.Factory(s).(T); ok {
			return v
		}
	}
	definitionPanic("no registered type can fill a slot bound to %q (%s)", capability, reflect.TypeFor[T]())
	panic("unreachable")
}

// checkDefaultType panics unless id names a registered type that can fill a
// slot bound to capability and typed T.
func checkDefaultType[T Spawner](s *Spec, capability, id string) {
	if id == "" {
		return
	}
	e, err := s.store.registry.Lookup(id)
	if err != nil {
		definitionPanic("default type: %v", err)
	}
	if !accepts[T](e, capability) {
		definitionPanic("default type %q cannot fill a slot bound to %q (%s)", id, capability, reflect.TypeFor[T]())
	}
}
