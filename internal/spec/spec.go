package spec

import (
	"fmt"
	"strings"

	"github.com/vk/contentspec/internal/document"
	"github.com/vk/contentspec/internal/layer"
)

// Reserved scalar values.
const (
	Hidden = "__HIDDEN__"
	Held   = "__HELD__"
)

// Reserved keys of a spec body.
const (
	KeyProperties = "properties"
	KeyBase       = "base"
	KeySpawner    = "spawner"

	keyDictBody    = "DictBody"
	keyMoldingType = "MoldingType"
)

// Kind tags the region a Spec covers.
type Kind int

const (
	// KindRoot is a whole document file.
	KindRoot Kind = iota
	// KindChild is a typed spawner slot. Its body holds "spawner", "base"
	// and "properties" like a root does.
	KindChild
	// KindSubSpec is a plain nested namespace.
	KindSubSpec
	// KindNode is a namespace that never consults a base document.
	KindNode
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindChild:
		return "child"
	case KindSubSpec:
		return "subspec"
	case KindNode:
		return "node"
	default:
		return "unknown"
	}
}

// Spec is a view over one region of a document. Values are cheap to create
// and are never cached; a document change is visible through every Spec
// created before or after it.
type Spec struct {
	kind  Kind
	store *Store
	path  string
	// doc is set on roots only.
	doc    *document.Node
	parent *Spec
	// keys lead from the parent's properties to this spec's body.
	keys []string
	// capability constrains the types a child slot accepts.
	capability string
	capture    *capture
	// moldParent is where this spec's mold hangs from when it differs from
	// parent, as for dictionary entries read out of a base document.
	moldParent *Spec
}

// Kind reports which region the spec covers.
func (s *Spec) Kind() Kind { return s.kind }

// Path is the logical path of the document the spec belongs to.
func (s *Spec) Path() string { return s.path }

// Store returns the store the spec's document was fetched from.
func (s *Spec) Store() *Store { return s.store }

// Capability is the bound of a child slot and "" for other kinds.
func (s *Spec) Capability() string { return s.capability }

// IsMolding reports whether accesses through s are being recorded.
func (s *Spec) IsMolding() bool { return s.capture != nil }

// ID names the spec's properties region for diagnostics and cycle
// detection, e.g. "units/knight.spec[properties][stats]".
func (s *Spec) ID() string {
	var b strings.Builder
	s.writeID(&b)
	return b.String()
}

func (s *Spec) writeID(b *strings.Builder) {
	if s.kind == KindRoot {
		b.WriteString(s.path)
		b.WriteString("[" + KeyProperties + "]")
		return
	}
	s.parent.writeID(b)
	for _, k := range s.keys {
		b.WriteString("[" + k + "]")
	}
	if s.kind == KindChild {
		b.WriteString("[" + KeyProperties + "]")
	}
}

func (s *Spec) keyID(keys ...string) string {
	var b strings.Builder
	s.writeID(&b)
	for _, k := range keys {
		b.WriteString("[" + k + "]")
	}
	return b.String()
}

func (s *Spec) root() *Spec {
	for s.kind != KindRoot {
		s = s.parent
	}
	return s
}

func (s *Spec) derive(kind Kind, keys []string, capability string) *Spec {
	return &Spec{
		kind:       kind,
		store:      s.store,
		path:       s.path,
		parent:     s,
		keys:       keys,
		capability: capability,
		capture:    s.capture,
	}
}

// Child returns the typed spawner slot at key. Types activated from it must
// carry capability; "" accepts any registered type.
func (s *Spec) Child(key, capability string) *Spec {
	return s.derive(KindChild, []string{key}, capability)
}

// SubSpec returns the plain namespace at key.
func (s *Spec) SubSpec(key string) *Spec {
	return s.derive(KindSubSpec, []string{key}, "")
}

// node returns a base-less view at keys below s's properties. Its mold is
// recorded below moldParent.
func (s *Spec) node(moldParent *Spec, keys ...string) *Spec {
	n := s.derive(KindNode, keys, "")
	n.capture = moldParent.capture
	if moldParent != s {
		n.moldParent = moldParent
	}
	return n
}

// Body is the spec's raw region, including reserved keys such as "base".
// It is nil when the region does not exist and create is false.
func (s *Spec) Body(create bool) *document.Node {
	if s.kind == KindRoot {
		return s.doc
	}
	return descend(s.parent.Properties(create), s.keys, create)
}

// Properties is the mapping values are read from and written to. It is nil
// when the region does not exist and create is false.
func (s *Spec) Properties(create bool) *document.Node {
	body := s.Body(create)
	switch s.kind {
	case KindRoot, KindChild:
		return descend(body, []string{KeyProperties}, create)
	default:
		return body
	}
}

// slot returns the raw node this spec's body occupies in its parent, which
// may be a sentinel scalar.
func (s *Spec) slot() *document.Node {
	if s.kind == KindRoot {
		return s.doc
	}
	container := descend(s.parent.Properties(false), s.keys[:len(s.keys)-1], false)
	return lookup(container, s.keys[len(s.keys)-1])
}

// Base returns the spec consulted when a key is absent here. It is
// recomputed on every call and is nil when there is none.
func (s *Spec) Base() (*Spec, error) {
	switch s.kind {
	case KindRoot:
		return s.ownBase()
	case KindChild, KindSubSpec:
		if raw := s.slot(); raw.IsScalar() {
			// Hidden or held slots do not inherit.
			return nil, nil
		}
		if s.kind == KindChild {
			if b, err := s.ownBase(); b != nil || err != nil {
				return b, err
			}
		}
		pb, err := s.parent.Base()
		if err != nil || pb == nil {
			return nil, err
		}
		b := pb.derive(s.kind, s.keys, s.capability)
		b.capture = nil
		return b, nil
	default:
		return nil, nil
	}
}

// ownBase resolves the body's "base" key against the document's directory.
func (s *Spec) ownBase() (*Spec, error) {
	body := s.Body(false)
	raw := lookup(body, KeyBase)
	if raw == nil || !raw.IsScalar() || raw.Value() == "" {
		return nil, nil
	}
	p, err := layer.Join(s.path, raw.Value())
	if err != nil {
		return nil, fmt.Errorf("base of %s: %w", s.ID(), err)
	}
	b, err := s.store.Fetch(p, false)
	if err != nil {
		return nil, fmt.Errorf("base of %s: %w", s.ID(), err)
	}
	return b, nil
}

// SetBase points the spec at a base document, given as a logical path. An
// empty path removes the reference.
func (s *Spec) SetBase(p string) error {
	if s.kind != KindRoot && s.kind != KindChild {
		return fmt.Errorf("%s spec %s cannot have a base", s.kind, s.ID())
	}
	body := s.Body(true)
	if p == "" {
		deleteKey(body, KeyBase)
		s.touch()
		return nil
	}
	rel, err := relativePath(s.path, p)
	if err != nil {
		return err
	}
	setScalar(body, KeyBase, rel)
	s.touch()
	return nil
}

// SpawnerID returns the type identifier declared in the body, falling back
// to the base chain.
func (s *Spec) SpawnerID() (string, error) {
	var seen *visited
	for cur := s; cur != nil; {
		if raw := lookup(cur.Body(false), KeySpawner); raw.IsScalar() && raw.Value() != "" {
			return raw.Value(), nil
		}
		seen = seen.with(cur.ID())
		b, err := cur.Base()
		if err != nil {
			return "", err
		}
		if b != nil && seen.contains(b.ID()) {
			b = nil
		}
		cur = b
	}
	return "", nil
}

// touch marks the spec's document as modified.
func (s *Spec) touch() {
	if s.store != nil {
		s.store.markDirty(s.root())
	}
}

// state is the outcome of resolving one key.
type state int

const (
	stateAbsent state = iota
	statePresent
	stateHidden
	stateHeld
)

func classify(raw *document.Node) state {
	switch {
	case raw == nil:
		return stateAbsent
	case raw.IsScalar() && raw.Value() == Hidden:
		return stateHidden
	case raw.IsScalar() && raw.Value() == Held:
		return stateHeld
	default:
		return statePresent
	}
}

// resolve finds key in s or, when absent, along the base chain. owner is the
// spec the raw node was found in.
func (s *Spec) resolve(key string, seen *visited) (raw *document.Node, st state, owner *Spec, err error) {
	raw = lookup(s.Properties(false), key)
	if st = classify(raw); st != stateAbsent {
		return raw, st, s, nil
	}
	seen = seen.with(s.ID())
	base, err := s.Base()
	if err != nil {
		return nil, stateAbsent, nil, err
	}
	if base == nil || seen.contains(base.ID()) {
		return nil, stateAbsent, nil, nil
	}
	return base.resolve(key, seen)
}

// chain returns s followed by its base chain, stopping before any spec
// already seen.
func (s *Spec) chain() ([]*Spec, error) {
	var seen *visited
	var out []*Spec
	for cur := s; cur != nil && !seen.contains(cur.ID()); {
		out = append(out, cur)
		seen = seen.with(cur.ID())
		b, err := cur.Base()
		if err != nil {
			return out, err
		}
		cur = b
	}
	return out, nil
}

// Remove deletes key from the spec's own properties, exposing whatever the
// base provides.
func (s *Spec) Remove(key string) {
	if props := s.Properties(false); props != nil && deleteKey(props, key) {
		s.touch()
	}
}

// Hide marks key as absent regardless of the base.
func (s *Spec) Hide(key string) {
	setScalar(s.Properties(true), key, Hidden)
	s.touch()
}

// Hold marks key as existing but always yielding the reader's default.
func (s *Spec) Hold(key string) {
	setScalar(s.Properties(true), key, Held)
	s.touch()
}

// Keys lists the keys of the spec's own properties.
func (s *Spec) Keys() []string {
	props := s.Properties(false)
	if props == nil {
		return nil
	}
	props.Lock()
	defer props.Unlock()
	return props.Keys()
}

// String renders the spec's own properties.
func (s *Spec) String() string {
	props := s.Properties(false)
	if props == nil {
		return ""
	}
	props.Lock()
	defer props.Unlock()
	return props.String()
}

// Raw tree helpers. Each one holds the mapping's lock for a single
// operation only, so a walk never holds two locks at once.

func lookup(m *document.Node, key string) *document.Node {
	if !m.IsMapping() {
		return nil
	}
	m.Lock()
	defer m.Unlock()
	child, _ := m.Get(key)
	return child
}

func descend(m *document.Node, keys []string, create bool) *document.Node {
	for _, k := range keys {
		if m == nil {
			return nil
		}
		if create {
			m = ensureMapping(m, k)
			continue
		}
		child := lookup(m, k)
		if !child.IsMapping() {
			return nil
		}
		m = child
	}
	return m
}

func ensureMapping(m *document.Node, key string) *document.Node {
	m.Lock()
	defer m.Unlock()
	return m.EnsureMapping(key)
}

func setScalar(m *document.Node, key, value string) {
	m.Lock()
	defer m.Unlock()
	m.SetScalar(key, value)
}

func setNode(m *document.Node, key string, n *document.Node) {
	m.Lock()
	defer m.Unlock()
	m.Set(key, n)
}

func deleteKey(m *document.Node, key string) bool {
	m.Lock()
	defer m.Unlock()
	return m.Delete(key)
}

func keysOf(m *document.Node) []string {
	if !m.IsMapping() {
		return nil
	}
	m.Lock()
	defer m.Unlock()
	return m.Keys()
}
