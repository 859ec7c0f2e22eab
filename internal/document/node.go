package document

import (
	"fmt"
	"sort"
	"sync"
)

// Kind tags the variant held by a Node.
type Kind int

const (
	ScalarKind Kind = iota
	SequenceKind
	MappingKind
)

func (k Kind) String() string {
	switch k {
	case ScalarKind:
		return "scalar"
	case SequenceKind:
		return "sequence"
	case MappingKind:
		return "mapping"
	default:
		return "unknown"
	}
}

// Node is one element of a document tree.
type Node struct {
	mu sync.Mutex

	kind     Kind
	id       string
	value    string
	items    []*Node
	keys     []string
	children map[string]*Node
}

// NewMapping returns an empty mapping node with the given diagnostic ID.
func NewMapping(id string) *Node {
	return &Node{kind: MappingKind, id: id, children: make(map[string]*Node)}
}

// NewScalar returns a scalar node holding value.
func NewScalar(value string) *Node {
	return &Node{kind: ScalarKind, value: value}
}

// NewSequence returns a sequence node holding items.
func NewSequence(items ...*Node) *Node {
	return &Node{kind: SequenceKind, items: items}
}

// Lock acquires the node's exclusive lock.
func (n *Node) Lock() { n.mu.Lock() }

// Unlock releases the node's exclusive lock.
func (n *Node) Unlock() { n.mu.Unlock() }

func (n *Node) Kind() Kind { return n.kind }

// ID is a diagnostic name of the form "parent[key]".
func (n *Node) ID() string { return n.id }

// SetID renames the node for diagnostics.
func (n *Node) SetID(id string) { n.id = id }

func (n *Node) IsScalar() bool   { return n != nil && n.kind == ScalarKind }
func (n *Node) IsSequence() bool { return n != nil && n.kind == SequenceKind }
func (n *Node) IsMapping() bool  { return n != nil && n.kind == MappingKind }

// Value returns the text of a scalar node and "" for any other kind.
func (n *Node) Value() string {
	if n == nil || n.kind != ScalarKind {
		return ""
	}
	return n.value
}

// Items returns the children of a sequence node.
func (n *Node) Items() []*Node {
	if n == nil || n.kind != SequenceKind {
		return nil
	}
	out := make([]*Node, len(n.items))
	copy(out, n.items)
	return out
}

// Append adds an item to a sequence node.
func (n *Node) Append(item *Node) {
	n.mustBe(SequenceKind)
	n.items = append(n.items, item)
}

// Keys returns the keys of a mapping node in document order.
func (n *Node) Keys() []string {
	if n == nil || n.kind != MappingKind {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Len returns the number of children of a mapping or sequence node.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.kind {
	case MappingKind:
		return len(n.keys)
	case SequenceKind:
		return len(n.items)
	default:
		return 0
	}
}

// Get returns the child stored at key.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.kind != MappingKind {
		return nil, false
	}
	child, ok := n.children[key]
	return child, ok
}

// Has reports whether key is present in the mapping.
func (n *Node) Has(key string) bool {
	_, ok := n.Get(key)
	return ok
}

// Scalar returns the text of the scalar stored at key.
func (n *Node) Scalar(key string) (string, bool) {
	child, ok := n.Get(key)
	if !ok || !child.IsScalar() {
		return "", false
	}
	return child.value, true
}

// ScalarOr returns the text of the scalar stored at key, or def when the key
// is missing or holds a non-scalar.
func (n *Node) ScalarOr(key, def string) string {
	if v, ok := n.Scalar(key); ok {
		return v
	}
	return def
}

// Mapping returns the mapping stored at key.
func (n *Node) Mapping(key string) (*Node, bool) {
	child, ok := n.Get(key)
	if !ok || !child.IsMapping() {
		return nil, false
	}
	return child, true
}

// Sequence returns the sequence stored at key.
func (n *Node) Sequence(key string) (*Node, bool) {
	child, ok := n.Get(key)
	if !ok || !child.IsSequence() {
		return nil, false
	}
	return child, true
}

// Set stores child at key, keeping the key's position when it already exists.
func (n *Node) Set(key string, child *Node) {
	n.mustBe(MappingKind)
	if _, exists := n.children[key]; !exists {
		n.keys = append(n.keys, key)
	}
	if child.kind == MappingKind || child.id == "" {
		child.id = childID(n.id, key)
	}
	n.children[key] = child
}

// SetScalar stores a scalar at key.
func (n *Node) SetScalar(key, value string) {
	n.Set(key, NewScalar(value))
}

// EnsureMapping returns the mapping stored at key, creating it (and replacing
// any scalar or sequence stored there) when needed.
func (n *Node) EnsureMapping(key string) *Node {
	if child, ok := n.Mapping(key); ok {
		return child
	}
	child := NewMapping(childID(n.id, key))
	n.Set(key, child)
	return child
}

// Delete removes key from the mapping and reports whether it was present.
func (n *Node) Delete(key string) bool {
	n.mustBe(MappingKind)
	if _, ok := n.children[key]; !ok {
		return false
	}
	delete(n.children, key)
	for i, k := range n.keys {
		if k == key {
			n.keys = append(n.keys[:i], n.keys[i+1:]...)
			break
		}
	}
	return true
}

// SortKeys reorders the mapping's keys with less.
func (n *Node) SortKeys(less func(a, b string) bool) {
	n.mustBe(MappingKind)
	sort.SliceStable(n.keys, func(i, j int) bool { return less(n.keys[i], n.keys[j]) })
}

// Clone returns a deep copy of n rooted at id.
func (n *Node) Clone(id string) *Node {
	if n == nil {
		return nil
	}
	switch n.kind {
	case ScalarKind:
		return &Node{kind: ScalarKind, id: id, value: n.value}
	case SequenceKind:
		out := &Node{kind: SequenceKind, id: id}
		for i, item := range n.items {
			out.items = append(out.items, item.Clone(fmt.Sprintf("%s[%d]", id, i)))
		}
		return out
	default:
		out := NewMapping(id)
		for _, k := range n.keys {
			out.Set(k, n.children[k].Clone(childID(id, k)))
		}
		return out
	}
}

func (n *Node) mustBe(kind Kind) {
	if n == nil || n.kind != kind {
		panic(fmt.Sprintf("document: %s is not a %s", n.describe(), kind))
	}
}

func (n *Node) describe() string {
	if n == nil {
		return "nil node"
	}
	if n.id == "" {
		return n.kind.String()
	}
	return fmt.Sprintf("%s (%s)", n.id, n.kind)
}

func childID(parent, key string) string {
	return parent + "[" + key + "]"
}
