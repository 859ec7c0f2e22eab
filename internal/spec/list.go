package spec

import (
	"fmt"

	"github.com/vk/contentspec/internal/document"
	"github.com/vk/contentspec/internal/spec/accesscode"
)

// ListDefiner picks the element type of a list.
type ListDefiner struct {
	spec *Spec
}

// List starts a list declaration, e.g. s.List().Keyword().Get("tags").
func (s *Spec) List() ListDefiner { return ListDefiner{spec: s} }

// The methods below pick the element codec of the same name.
func (d ListDefiner) Int() ListIndexer[int]          { return ListOf(d.spec, IntCodec()) }
func (d ListDefiner) Double() ListIndexer[float64]   { return ListOf(d.spec, DoubleCodec()) }
func (d ListDefiner) Bool() ListIndexer[bool]        { return ListOf(d.spec, BoolCodec()) }
func (d ListDefiner) Keyword() ListIndexer[string]   { return ListOf(d.spec, KeywordCodec()) }
func (d ListDefiner) Text() ListIndexer[string]      { return ListOf(d.spec, TextCodec()) }
func (d ListDefiner) Int2() ListIndexer[[2]int]      { return ListOf(d.spec, Int2Codec()) }
func (d ListDefiner) Int3() ListIndexer[[3]int]      { return ListOf(d.spec, Int3Codec()) }
func (d ListDefiner) RangeTo(n int) ListIndexer[int] { return ListOf(d.spec, RangeCodec('[', 0, n, ')')) }

// Range elements are integers inside the interval open left, right close.
func (d ListDefiner) Range(open byte, left, right int, close byte) ListIndexer[int] {
	return ListOf(d.spec, RangeCodec(open, left, right, close))
}

// ListOf declares a list of scalars read through codec.
func ListOf[V any](s *Spec, codec Codec[V]) ListIndexer[V] {
	return ListIndexer[V]{spec: s, values: scalarValue[V]{codec: codec}}
}

// ListExterior declares a list of references to spawner documents.
func ListExterior[T Spawner](s *Spec, capability string) ListIndexer[T] {
	return ListIndexer[T]{spec: s, values: exteriorValue[T]{capability: capability}}
}

// ListIndexer exposes an ordered sequence stored at a key. Lists are not
// merged: the most derived document that defines the key supplies the
// whole list.
type ListIndexer[V any] struct {
	spec   *Spec
	values valueCodec[V]
}

func (x ListIndexer[V]) code() string {
	return accesscode.Encode("List", x.values.code())
}

func (x ListIndexer[V]) describe() string {
	return "list of " + x.values.describe()
}

// Get reads the list at key.
func (x ListIndexer[V]) Get(key string) ([]V, error) { return x.read(key, nil) }

// GetOr reads the list at key, yielding def when the key is undefined,
// hidden or held.
func (x ListIndexer[V]) GetOr(key string, def []V) ([]V, error) { return x.read(key, &def) }

func (x ListIndexer[V]) read(key string, def *[]V) ([]V, error) {
	return readOp[[]V]{
		spec:     x.spec,
		key:      key,
		describe: x.describe(),
		def:      def,
		decode: func(raw *document.Node, owner *Spec) ([]V, error) {
			if !raw.IsSequence() {
				return nil, &ValidationError{Value: raw.Kind().String(), Type: x.describe(), Reason: "expected a sequence"}
			}
			at := entryAt{self: x.spec, owner: owner, key: key}
			raw.Lock()
			items := raw.Items()
			raw.Unlock()
			out := make([]V, 0, len(items))
			for i, item := range items {
				v, err := x.values.decode(item, at)
				if err != nil {
					return nil, fmt.Errorf("item %d: %w", i, err)
				}
				out = append(out, v)
			}
			return out, nil
		},
		mold:           func() { x.spec.moldScalar(key, x.code()) },
		moldingDefault: func() []V { return nil },
	}.run()
}

// Set replaces the list at key in the spec's own properties.
func (x ListIndexer[V]) Set(key string, values []V) error {
	s := x.spec
	if s.IsMolding() {
		s.moldScalar(key, x.code())
	}
	at := entryAt{self: s, owner: s, key: key}
	seq := document.NewSequence()
	for i, v := range values {
		n, err := x.values.encode(v, at)
		if err != nil {
			return &AccessError{Path: s.keyID(key), Type: x.describe(), Err: fmt.Errorf("item %d: %w", i, err)}
		}
		seq.Append(n)
	}
	setNode(s.Properties(true), key, seq)
	s.touch()
	return nil
}

func (x ListIndexer[V]) Remove(key string) { x.spec.Remove(key) }
func (x ListIndexer[V]) Hide(key string)   { x.spec.Hide(key) }
func (x ListIndexer[V]) Hold(key string)   { x.spec.Hold(key) }
