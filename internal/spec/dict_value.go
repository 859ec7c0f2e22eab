package spec

import (
	"fmt"

	"github.com/vk/contentspec/internal/document"
	"github.com/vk/contentspec/internal/spec/accesscode"
)

// entryAt locates one value of a collection.
type entryAt struct {
	// self is the spec the collection was read through. Writes and molds
	// land here.
	self *Spec
	// owner is the spec whose document holds the raw value.
	owner *Spec
	key   string
	// entry is the dictionary key, "" for list items.
	entry string
}

func (a entryAt) keys() []string {
	if a.entry == "" {
		return []string{a.key}
	}
	return []string{a.key, keyDictBody, a.entry}
}

func (a entryAt) moldEntry(code string) {
	if !a.self.IsMolding() || a.entry == "" {
		return
	}
	body := descend(a.self.moldProperties(), []string{a.key, keyDictBody}, true)
	setScalar(body, a.entry, code)
}

// valueCodec reads and writes the values of a collection. Scalar codecs
// are one variant; the others bind specs to the entry's location.
type valueCodec[V any] interface {
	code() string
	describe() string
	decode(raw *document.Node, at entryAt) (V, error)
	encode(v V, at entryAt) (*document.Node, error)
	mold(at entryAt)
	moldingDefault(at entryAt) V
}

type scalarValue[V any] struct {
	codec Codec[V]
}

func (c scalarValue[V]) code() string             { return Code(c.codec) }
func (c scalarValue[V]) describe() string         { return c.codec.Describe() }
func (c scalarValue[V]) mold(at entryAt)          { at.moldEntry(c.code()) }
func (c scalarValue[V]) moldingDefault(entryAt) V { return c.codec.MoldingDefault() }

func (c scalarValue[V]) decode(raw *document.Node, _ entryAt) (V, error) {
	text, err := scalarText(raw, c.codec.Describe())
	if err != nil {
		var zero V
		return zero, err
	}
	return c.codec.Decode(text)
}

func (c scalarValue[V]) encode(v V, _ entryAt) (*document.Node, error) {
	text, err := c.codec.Encode(v)
	if err != nil {
		return nil, err
	}
	return document.NewScalar(text), nil
}

type exteriorValue[T Spawner] struct {
	capability string
}

func (c exteriorValue[T]) code() string     { return accesscode.Encode("Exterior", c.capability) }
func (c exteriorValue[T]) describe() string { return "reference to " + describeBound[T](c.capability) }
func (c exteriorValue[T]) mold(at entryAt)  { at.moldEntry(c.code()) }

func (c exteriorValue[T]) decode(raw *document.Node, at entryAt) (T, error) {
	var zero T
	text, err := scalarText(raw, "relative path")
	if err != nil {
		return zero, err
	}
	target, err := pathCodec{from: at.owner.path}.Decode(text)
	if err != nil {
		return zero, err
	}
	s, err := at.self.store.Fetch(target, false)
	if err != nil {
		return zero, err
	}
	return activate[T](s, c.capability, "")
}

func (c exteriorValue[T]) encode(v T, at entryAt) (*document.Node, error) {
	rel, err := pathCodec{from: at.self.path}.Encode(v.Spec().Path())
	if err != nil {
		return nil, err
	}
	return document.NewScalar(rel), nil
}

func (c exteriorValue[T]) moldingDefault(at entryAt) T {
	return MoldingDefault[T](at.self.node(at.self, at.key), c.capability)
}

type interiorValue[T Spawner] struct {
	capability  string
	defaultType string
}

// child binds the entry to the reading spec, so an entry that only exists
// in a base document is inherited like any other child slot.
func (c interiorValue[T]) child(at entryAt) *Spec {
	return at.self.derive(KindChild, at.keys(), c.capability)
}

func (c interiorValue[T]) code() string {
	return accesscode.Encode("Interior", c.capability, c.defaultType)
}

func (c interiorValue[T]) describe() string { return describeBound[T](c.capability) }

func (c interiorValue[T]) decode(raw *document.Node, at entryAt) (T, error) {
	if !raw.IsMapping() {
		var zero T
		return zero, &ValidationError{Value: raw.Kind().String(), Type: c.describe(), Reason: "expected a mapping"}
	}
	return activate[T](c.child(at), c.capability, c.defaultType)
}

func (c interiorValue[T]) encode(v T, at entryAt) (*document.Node, error) {
	id, ok := at.self.store.registry.IDOf(v)
	if !ok {
		return nil, fmt.Errorf("%T is not a registered spawner type", v)
	}
	body := document.NewMapping(at.self.keyID(at.keys()...))
	body.SetScalar(KeySpawner, id)
	if props := v.Spec().Properties(false); props != nil {
		props.Lock()
		clone := props.Clone("")
		props.Unlock()
		body.Set(KeyProperties, clone)
	}
	return body, nil
}

func (c interiorValue[T]) mold(at entryAt) {
	if body := c.child(at).moldBody(); body != nil {
		setScalar(body, KeySpawner, c.code())
	}
}

func (c interiorValue[T]) moldingDefault(at entryAt) T {
	child := c.child(at)
	if c.defaultType != "" {
		if v, err := activate[T](child, c.capability, c.defaultType); err == nil {
			return v
		}
	}
	return MoldingDefault[T](child, c.capability)
}

type subSpecValue struct{}

func (subSpecValue) sub(at entryAt) *Spec {
	return at.self.derive(KindSubSpec, at.keys(), "")
}

func (subSpecValue) code() string     { return "SubSpec" }
func (subSpecValue) describe() string { return "namespace" }

func (c subSpecValue) decode(raw *document.Node, at entryAt) (*Spec, error) {
	if !raw.IsMapping() {
		return nil, &ValidationError{Value: raw.Kind().String(), Type: "namespace", Reason: "expected a mapping"}
	}
	return c.sub(at), nil
}

func (subSpecValue) encode(v *Spec, at entryAt) (*document.Node, error) {
	props := v.Properties(false)
	if props == nil {
		return document.NewMapping(at.self.keyID(at.keys()...)), nil
	}
	props.Lock()
	defer props.Unlock()
	return props.Clone(at.self.keyID(at.keys()...)), nil
}

func (c subSpecValue) mold(at entryAt)                 { c.sub(at).moldBody() }
func (c subSpecValue) moldingDefault(at entryAt) *Spec { return c.sub(at) }
