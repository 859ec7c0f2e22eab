package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sort"
	"sync"
)

// ErrUnknownType is returned when an identifier has no registration.
var ErrUnknownType = errors.New("unknown type")

// Module is the interface that all modules must implement to be registered.
type Module[F any] interface {
	Register(r *Registry[F])
}

// Entry is one registered type.
type Entry[F any] struct {
	ID           string
	GoType       reflect.Type
	Factory      F
	Capabilities []string
}

// Implements reports whether the entry carries the capability tag.
func (e *Entry[F]) Implements(capability string) bool {
	return slices.Contains(e.Capabilities, capability)
}

// Registry holds the registered types of a single application instance.
type Registry[F any] struct {
	mu     sync.RWMutex
	byID   map[string]*Entry[F]
	byType map[reflect.Type]*Entry[F]
}

// New creates and initializes a new Registry instance.
func New[F any]() *Registry[F] {
	return &Registry[F]{
		byID:   make(map[string]*Entry[F]),
		byType: make(map[reflect.Type]*Entry[F]),
	}
}

// Load lets every module register its types.
func (r *Registry[F]) Load(modules ...Module[F]) {
	for _, m := range modules {
		m.Register(r)
	}
}

// Register adds a type under id. Registering the same id or Go type twice is
// a programming error and panics.
func (r *Registry[F]) Register(id string, goType reflect.Type, factory F, capabilities ...string) {
	if id == "" {
		panic("registry: type id must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; exists {
		panic(fmt.Sprintf("type with id '%s' already registered", id))
	}
	if prev, exists := r.byType[goType]; exists {
		panic(fmt.Sprintf("Go type '%s' already registered as '%s'", goType, prev.ID))
	}

	slog.Debug("Registering type.", "id", id, "go_type", goType.String(), "capabilities", capabilities)
	e := &Entry[F]{
		ID:           id,
		GoType:       goType,
		Factory:      factory,
		Capabilities: slices.Clone(capabilities),
	}
	r.byID[id] = e
	r.byType[goType] = e
}

// Lookup returns the entry registered under id.
func (r *Registry[F]) Lookup(id string) (*Entry[F], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, id)
	}
	return e, nil
}

// IDOf returns the identifier the dynamic type of v is registered under.
func (r *Registry[F]) IDOf(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byType[reflect.TypeOf(v)]
	if !ok {
		return "", false
	}
	return e.ID, true
}

// Entries returns every entry ordered by id.
func (r *Registry[F]) Entries() []*Entry[F] {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entry[F], 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
