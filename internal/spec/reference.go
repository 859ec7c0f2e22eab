package spec

import (
	"fmt"
	"reflect"

	"github.com/vk/contentspec/internal/document"
	"github.com/vk/contentspec/internal/spec/accesscode"
)

func describeBound[T Spawner](capability string) string {
	if capability == "" {
		return reflect.TypeFor[T]().String()
	}
	return fmt.Sprintf("%s (%s)", reflect.TypeFor[T](), capability)
}

// ExteriorIndexer reads spawners stored in other documents. The value at a
// key is a path relative to the spec's document; the target document
// declares its own spawner type.
type ExteriorIndexer[T Spawner] struct {
	spec       *Spec
	capability string
}

// Exterior returns an indexer of spawners that must carry capability and be
// of type T.
func Exterior[T Spawner](s *Spec, capability string) ExteriorIndexer[T] {
	return ExteriorIndexer[T]{spec: s, capability: capability}
}

func (x ExteriorIndexer[T]) code() string {
	return accesscode.Encode("Exterior", x.capability)
}

// Get resolves key to the spawner of the referenced document.
func (x ExteriorIndexer[T]) Get(key string) (T, error) { return x.read(key, nil) }

// GetOr resolves key, yielding def when the key is undefined, hidden or held.
func (x ExteriorIndexer[T]) GetOr(key string, def T) (T, error) { return x.read(key, &def) }

func (x ExteriorIndexer[T]) read(key string, def *T) (T, error) {
	return readOp[T]{
		spec:     x.spec,
		key:      key,
		describe: "reference to " + describeBound[T](x.capability),
		def:      def,
		decode: func(raw *document.Node, owner *Spec) (T, error) {
			var zero T
			text, err := scalarText(raw, "relative path")
			if err != nil {
				return zero, err
			}
			// Paths are relative to the document the value was found in.
			target, err := pathCodec{from: owner.path}.Decode(text)
			if err != nil {
				return zero, err
			}
			s, err := x.spec.store.Fetch(target, false)
			if err != nil {
				return zero, err
			}
			return activate[T](s, x.capability, "")
		},
		mold: func() { x.spec.moldScalar(key, x.code()) },
		moldingDefault: func() T {
			return MoldingDefault[T](x.spec.node(x.spec, key), x.capability)
		},
	}.run()
}

// Set stores a reference to the document backing v.
func (x ExteriorIndexer[T]) Set(key string, v T) error {
	if x.spec.IsMolding() {
		x.spec.moldScalar(key, x.code())
	}
	return Scalar(x.spec, pathCodec{from: x.spec.path}).Set(key, v.Spec().Path())
}

func (x ExteriorIndexer[T]) Remove(key string) { x.spec.Remove(key) }
func (x ExteriorIndexer[T]) Hide(key string)   { x.spec.Hide(key) }
func (x ExteriorIndexer[T]) Hold(key string)   { x.spec.Hold(key) }

// ExteriorDirIndexer reads every spawner document inside a directory.
type ExteriorDirIndexer[T Spawner] struct {
	spec       *Spec
	capability string
}

// ExteriorDir returns an indexer of directories of spawner documents.
func ExteriorDir[T Spawner](s *Spec, capability string) ExteriorDirIndexer[T] {
	return ExteriorDirIndexer[T]{spec: s, capability: capability}
}

func (x ExteriorDirIndexer[T]) code() string {
	return accesscode.Encode("ExteriorDir", x.capability)
}

// Get lists the spawners of the directory at key, ordered by path.
// Documents that do not parse or whose type does not fit are skipped; a
// missing or empty directory yields an empty list.
func (x ExteriorDirIndexer[T]) Get(key string) ([]T, error) {
	return readOp[[]T]{
		spec:     x.spec,
		key:      key,
		describe: "directory of " + describeBound[T](x.capability),
		decode: func(raw *document.Node, owner *Spec) ([]T, error) {
			text, err := scalarText(raw, "relative path")
			if err != nil {
				return nil, err
			}
			dirPath, err := pathCodec{from: owner.path}.Decode(text)
			if err != nil {
				return nil, err
			}
			return x.list(dirPath)
		},
		mold:           func() { x.spec.moldScalar(key, x.code()) },
		moldingDefault: func() []T { return nil },
	}.run()
}

func (x ExteriorDirIndexer[T]) list(dirPath string) ([]T, error) {
	st := x.spec.store
	dir, err := st.stack.Dir(dirPath)
	if err != nil {
		return nil, err
	}
	files, err := dir.Files(st.pattern)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(files))
	for _, f := range files {
		s, err := st.Fetch(f.Rel, false)
		if err != nil {
			st.logger.Debug("Skipping unreadable document.", "path", f.Rel, "error", err)
			continue
		}
		v, err := activate[T](s, x.capability, "")
		if err != nil {
			st.logger.Debug("Skipping document of unsuitable type.", "path", f.Rel, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// Set stores the directory, given as a logical path.
func (x ExteriorDirIndexer[T]) Set(key, dirPath string) error {
	if x.spec.IsMolding() {
		x.spec.moldScalar(key, x.code())
	}
	return Scalar(x.spec, pathCodec{from: x.spec.path}).Set(key, dirPath)
}

func (x ExteriorDirIndexer[T]) Remove(key string) { x.spec.Remove(key) }
func (x ExteriorDirIndexer[T]) Hide(key string)   { x.spec.Hide(key) }
func (x ExteriorDirIndexer[T]) Hold(key string)   { x.spec.Hold(key) }

// InteriorIndexer reads spawners embedded in the spec's own document. The
// value at a key is a mapping holding "spawner" and "properties", like a
// root document.
type InteriorIndexer[T Spawner] struct {
	spec        *Spec
	capability  string
	defaultType string
}

// Interior returns an indexer of embedded spawners. defaultType, when not
// empty, is activated for slots that declare no type; it must be a
// registered type that fits the slot, or Interior panics with a
// DefinitionError.
func Interior[T Spawner](s *Spec, capability, defaultType string) InteriorIndexer[T] {
	checkDefaultType[T](s, capability, defaultType)
	return InteriorIndexer[T]{spec: s, capability: capability, defaultType: defaultType}
}

func (x InteriorIndexer[T]) code() string {
	return accesscode.Encode("Interior", x.capability, x.defaultType)
}

// Slot returns the child spec at key without activating it.
func (x InteriorIndexer[T]) Slot(key string) *Spec {
	return x.spec.Child(key, x.capability)
}

// Get activates the spawner at key. A slot present only in a base document
// is still bound to this spec, so its reads inherit from the base and its
// writes stay here.
func (x InteriorIndexer[T]) Get(key string) (T, error) { return x.read(key, nil) }

// GetOr activates the spawner at key, yielding def when the key is
// undefined, hidden or held.
func (x InteriorIndexer[T]) GetOr(key string, def T) (T, error) { return x.read(key, &def) }

func (x InteriorIndexer[T]) read(key string, def *T) (T, error) {
	slot := x.Slot(key)
	return readOp[T]{
		spec:     x.spec,
		key:      key,
		describe: describeBound[T](x.capability),
		def:      def,
		decode: func(raw *document.Node, _ *Spec) (T, error) {
			if !raw.IsMapping() {
				var zero T
				return zero, &ValidationError{Value: raw.Kind().String(), Type: describeBound[T](x.capability), Reason: "expected a mapping"}
			}
			return activate[T](slot, x.capability, x.defaultType)
		},
		mold: func() {
			setScalar(slot.moldBody(), KeySpawner, x.code())
		},
		moldingDefault: func() T {
			if x.defaultType != "" {
				if v, err := activate[T](slot, x.capability, x.defaultType); err == nil {
					return v
				}
			}
			return MoldingDefault[T](slot, x.capability)
		},
	}.run()
}

// Set copies v's properties into the slot at key and records v's type, so
// the value reads back as the same type even when a default type was used.
func (x InteriorIndexer[T]) Set(key string, v T) error {
	id, ok := x.spec.store.registry.IDOf(v)
	if !ok {
		return &AccessError{Path: x.spec.keyID(key), Type: describeBound[T](x.capability), Err: fmt.Errorf("%T is not a registered spawner type", v)}
	}
	if x.spec.IsMolding() {
		setScalar(x.Slot(key).moldBody(), KeySpawner, x.code())
	}

	slotID := x.spec.keyID(key)
	body := document.NewMapping(slotID)
	body.SetScalar(KeySpawner, id)
	if props := v.Spec().Properties(false); props != nil {
		props.Lock()
		clone := props.Clone(slotID + "[" + KeyProperties + "]")
		props.Unlock()
		body.Set(KeyProperties, clone)
	}
	setNode(x.spec.Properties(true), key, body)
	x.spec.touch()
	return nil
}

func (x InteriorIndexer[T]) Remove(key string) { x.spec.Remove(key) }
func (x InteriorIndexer[T]) Hide(key string)   { x.spec.Hide(key) }
func (x InteriorIndexer[T]) Hold(key string)   { x.spec.Hold(key) }

// SubSpecIndexer manages the presence of plain nested namespaces.
type SubSpecIndexer struct {
	spec *Spec
}

// SubSpecs returns an indexer of the spec's nested namespaces.
func (s *Spec) SubSpecs() SubSpecIndexer { return SubSpecIndexer{spec: s} }

// Get returns the namespace at key. Unlike Spec.SubSpec it fails when the
// key is undefined, hidden or held along the whole base chain.
func (x SubSpecIndexer) Get(key string) (*Spec, error) {
	sub := x.spec.SubSpec(key)
	return readOp[*Spec]{
		spec:     x.spec,
		key:      key,
		describe: "namespace",
		decode: func(raw *document.Node, _ *Spec) (*Spec, error) {
			if !raw.IsMapping() {
				return nil, &ValidationError{Value: raw.Kind().String(), Type: "namespace", Reason: "expected a mapping"}
			}
			return sub, nil
		},
		mold:           func() { sub.moldBody() },
		moldingDefault: func() *Spec { return sub },
	}.run()
}

func (x SubSpecIndexer) Remove(key string) { x.spec.Remove(key) }
func (x SubSpecIndexer) Hide(key string)   { x.spec.Hide(key) }
func (x SubSpecIndexer) Hold(key string)   { x.spec.Hold(key) }
