package spec

import (
	"github.com/vk/contentspec/internal/document"
)

// readOp is the shape every indexed read shares: record the access when
// molding, resolve the key over the spec and its bases, then decode, fall
// back to the default or fail.
type readOp[T any] struct {
	spec     *Spec
	key      string
	describe string
	def      *T
	decode   func(raw *document.Node, owner *Spec) (T, error)
	// mold records the access; nil means nothing is recorded.
	mold func()
	// moldingDefault stands in for any value that cannot be read while
	// molding.
	moldingDefault func() T
}

func (op readOp[T]) run() (T, error) {
	s := op.spec
	if s.IsMolding() && op.mold != nil {
		op.mold()
	}
	v, err := op.resolve()
	if err == nil {
		return v, nil
	}
	if s.IsMolding() {
		return op.moldingDefault(), nil
	}
	var zero T
	return zero, &AccessError{Path: s.keyID(op.key), Type: op.describe, Err: err}
}

func (op readOp[T]) resolve() (T, error) {
	var zero T
	raw, st, owner, err := op.spec.resolve(op.key, nil)
	if err != nil {
		return zero, err
	}
	switch st {
	case statePresent:
		return op.decode(raw, owner)
	case stateHidden:
		if op.def != nil {
			return *op.def, nil
		}
		return zero, ErrHiddenKey
	case stateHeld:
		if op.def != nil {
			return *op.def, nil
		}
		return zero, ErrHeldKey
	default:
		if op.def != nil {
			return *op.def, nil
		}
		return zero, ErrKeyUndefined
	}
}

// scalarText returns the text of a scalar node or a validation error naming
// the node kind found instead.
func scalarText(raw *document.Node, describe string) (string, error) {
	if !raw.IsScalar() {
		return "", &ValidationError{Value: raw.Kind().String(), Type: describe, Reason: "expected a scalar"}
	}
	return raw.Value(), nil
}

// ScalarIndexer reads and writes single values through a Codec.
type ScalarIndexer[T any] struct {
	spec  *Spec
	codec Codec[T]
}

// Scalar returns an indexer over s's properties using codec.
func Scalar[T any](s *Spec, codec Codec[T]) ScalarIndexer[T] {
	return ScalarIndexer[T]{spec: s, codec: codec}
}

// Codec returns the indexer's codec.
func (x ScalarIndexer[T]) Codec() Codec[T] { return x.codec }

// Get reads key. It fails when the key is undefined, hidden or held.
func (x ScalarIndexer[T]) Get(key string) (T, error) {
	return x.read(key, nil, Code(x.codec))
}

// GetOr reads key, yielding def when the key is undefined, hidden or held.
// A def the codec cannot write is a definition error.
func (x ScalarIndexer[T]) GetOr(key string, def T) (T, error) {
	text, err := x.codec.Encode(def)
	if err != nil {
		definitionPanic("default for %s: %v", x.spec.keyID(key), err)
	}
	return x.read(key, &def, Code(x.codec, text))
}

// GetOrText is GetOr with the default given in document form. A default
// the codec rejects is a definition error.
func (x ScalarIndexer[T]) GetOrText(key, def string) (T, error) {
	v, err := x.codec.Decode(def)
	if err != nil {
		definitionPanic("default for %s: %v", x.spec.keyID(key), err)
	}
	return x.read(key, &v, Code(x.codec, def))
}

func (x ScalarIndexer[T]) read(key string, def *T, code string) (T, error) {
	return readOp[T]{
		spec:     x.spec,
		key:      key,
		describe: x.codec.Describe(),
		def:      def,
		decode: func(raw *document.Node, _ *Spec) (T, error) {
			text, err := scalarText(raw, x.codec.Describe())
			if err != nil {
				var zero T
				return zero, err
			}
			return x.codec.Decode(text)
		},
		mold:           func() { x.spec.moldScalar(key, code) },
		moldingDefault: x.codec.MoldingDefault,
	}.run()
}

// Set writes v at key in the spec's own properties.
func (x ScalarIndexer[T]) Set(key string, v T) error {
	if x.spec.IsMolding() {
		x.spec.moldScalar(key, Code(x.codec))
	}
	text, err := x.codec.Encode(v)
	if err != nil {
		return &AccessError{Path: x.spec.keyID(key), Type: x.codec.Describe(), Err: err}
	}
	setScalar(x.spec.Properties(true), key, text)
	x.spec.touch()
	return nil
}

// ExplicitDefault stores def at key so that the value no longer depends on
// the base.
func (x ScalarIndexer[T]) ExplicitDefault(key string, def T) error {
	return x.Set(key, def)
}

// Remove deletes key from the spec's own properties.
func (x ScalarIndexer[T]) Remove(key string) { x.spec.Remove(key) }

// Hide marks key as absent regardless of the base.
func (x ScalarIndexer[T]) Hide(key string) { x.spec.Hide(key) }

// Hold marks key as always yielding the reader's default.
func (x ScalarIndexer[T]) Hold(key string) { x.spec.Hold(key) }
