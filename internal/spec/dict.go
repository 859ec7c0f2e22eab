package spec

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"strings"

	"github.com/vk/contentspec/internal/document"
	"github.com/vk/contentspec/internal/spec/accesscode"
)

// KeyDefiner is the first step of declaring a dictionary: it picks the key
// type. See ValueDefiner for the second step.
type KeyDefiner struct {
	spec *Spec
}

// Dict starts a dictionary declaration, e.g.
//
//	s.Dict().LimitedKeyword(5).Range('[', 0, 10, ')').Get("dict")
func (s *Spec) Dict() KeyDefiner { return KeyDefiner{spec: s} }

// Int, Bool, Keyword and RangeTo pick the key codec of the same name.
func (d KeyDefiner) Int() ValueDefiner[int]          { return DictKeys(d.spec, IntCodec()) }
func (d KeyDefiner) Bool() ValueDefiner[bool]        { return DictKeys(d.spec, BoolCodec()) }
func (d KeyDefiner) Keyword() ValueDefiner[string]   { return DictKeys(d.spec, KeywordCodec()) }
func (d KeyDefiner) RangeTo(n int) ValueDefiner[int] { return DictKeys(d.spec, RangeCodec('[', 0, n, ')')) }

// LimitedKeyword keys are single-line strings of at most limit characters.
func (d KeyDefiner) LimitedKeyword(limit int) ValueDefiner[string] {
	return DictKeys(d.spec, LimitedKeywordCodec(limit))
}

// Range keys are integers inside the interval open left, right close.
func (d KeyDefiner) Range(open byte, left, right int, close byte) ValueDefiner[int] {
	return DictKeys(d.spec, RangeCodec(open, left, right, close))
}

// DictKeys starts a dictionary declaration with an arbitrary key codec.
func DictKeys[K comparable](s *Spec, keys Codec[K]) ValueDefiner[K] {
	return ValueDefiner[K]{spec: s, keys: keys}
}

// ValueDefiner is the second step of declaring a dictionary: it picks the
// value type and yields the indexer.
type ValueDefiner[K comparable] struct {
	spec *Spec
	keys Codec[K]
}

// The methods below pick the value codec of the same name. SubSpec values
// are nested property mappings read as specs.
func (d ValueDefiner[K]) Int() DictIndexer[K, int]            { return DictValues(d, IntCodec()) }
func (d ValueDefiner[K]) Double() DictIndexer[K, float64]     { return DictValues(d, DoubleCodec()) }
func (d ValueDefiner[K]) Bool() DictIndexer[K, bool]          { return DictValues(d, BoolCodec()) }
func (d ValueDefiner[K]) YesNo() DictIndexer[K, bool]         { return DictValues(d, YesNoCodec()) }
func (d ValueDefiner[K]) OnOff() DictIndexer[K, bool]         { return DictValues(d, OnOffCodec()) }
func (d ValueDefiner[K]) Int2() DictIndexer[K, [2]int]        { return DictValues(d, Int2Codec()) }
func (d ValueDefiner[K]) Int3() DictIndexer[K, [3]int]        { return DictValues(d, Int3Codec()) }
func (d ValueDefiner[K]) Double2() DictIndexer[K, [2]float64] { return DictValues(d, Double2Codec()) }
func (d ValueDefiner[K]) Double3() DictIndexer[K, [3]float64] { return DictValues(d, Double3Codec()) }
func (d ValueDefiner[K]) Keyword() DictIndexer[K, string]     { return DictValues(d, KeywordCodec()) }
func (d ValueDefiner[K]) Text() DictIndexer[K, string]        { return DictValues(d, TextCodec()) }
func (d ValueDefiner[K]) RangeTo(n int) DictIndexer[K, int]   { return d.Range('[', 0, n, ')') }
func (d ValueDefiner[K]) SubSpec() DictIndexer[K, *Spec]      { return newDict[K, *Spec](d, subSpecValue{}) }

// LimitedKeyword values are single-line strings of at most n characters.
func (d ValueDefiner[K]) LimitedKeyword(n int) DictIndexer[K, string] {
	return DictValues(d, LimitedKeywordCodec(n))
}

// Range values are integers inside the interval open left, right close.
func (d ValueDefiner[K]) Range(open byte, left, right int, close byte) DictIndexer[K, int] {
	return DictValues(d, RangeCodec(open, left, right, close))
}

// Interval values are numbers inside the interval open left, right close.
func (d ValueDefiner[K]) Interval(open byte, left, right float64, close byte) DictIndexer[K, float64] {
	return DictValues(d, IntervalCodec(open, left, right, close))
}

// DictValues finishes a dictionary declaration with scalar values read
// through codec.
func DictValues[K comparable, V any](d ValueDefiner[K], codec Codec[V]) DictIndexer[K, V] {
	return newDict[K, V](d, scalarValue[V]{codec: codec})
}

// DictExterior finishes a dictionary declaration whose values reference
// spawner documents.
func DictExterior[K comparable, T Spawner](d ValueDefiner[K], capability string) DictIndexer[K, T] {
	return newDict[K, T](d, exteriorValue[T]{capability: capability})
}

// DictInterior finishes a dictionary declaration whose values are embedded
// spawners. An unsuitable defaultType panics with a DefinitionError.
func DictInterior[K comparable, T Spawner](d ValueDefiner[K], capability, defaultType string) DictIndexer[K, T] {
	checkDefaultType[T](d.spec, capability, defaultType)
	return newDict[K, T](d, interiorValue[T]{capability: capability, defaultType: defaultType})
}

func newDict[K comparable, V any](d ValueDefiner[K], values valueCodec[V]) DictIndexer[K, V] {
	return DictIndexer[K, V]{spec: d.spec, keys: d.keys, values: values}
}

// Entries is the result of a dictionary read, ordered by the key codec.
type Entries[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// Len, Keys and Map report the entries; Keys is in key order and both
// return copies.
func (e Entries[K, V]) Len() int     { return len(e.keys) }
func (e Entries[K, V]) Keys() []K    { return slices.Clone(e.keys) }
func (e Entries[K, V]) Map() map[K]V { return maps.Clone(e.values) }

// Get returns the value at k.
func (e Entries[K, V]) Get(k K) (V, bool) {
	v, ok := e.values[k]
	return v, ok
}

// All yields the entries in key order.
func (e Entries[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range e.keys {
			if !yield(k, e.values[k]) {
				return
			}
		}
	}
}

// DictIndexer exposes a homogeneous map stored at a key. Each document
// stores its own entries under "<key>/DictBody"; reads merge them with the
// base chain, more derived entries winning.
type DictIndexer[K comparable, V any] struct {
	spec    *Spec
	keys    Codec[K]
	values  valueCodec[V]
	ensured []K
}

func (x DictIndexer[K, V]) code() string {
	return accesscode.Encode("Dict", Code(x.keys), x.values.code())
}

func (x DictIndexer[K, V]) describe() string {
	return fmt.Sprintf("dictionary of %s to %s", x.keys.Describe(), x.values.describe())
}

// EnsureKeys returns an indexer that always reports keys: GetOr fills them
// with its default and molding records them. A key the key codec cannot
// write panics with a DefinitionError.
func (x DictIndexer[K, V]) EnsureKeys(keys ...K) DictIndexer[K, V] {
	for _, k := range keys {
		if _, err := x.keys.Encode(k); err != nil {
			definitionPanic("cannot ensure key %v of %s: %v", k, x.describe(), err)
		}
	}
	x.ensured = append(slices.Clone(x.ensured), keys...)
	return x
}

// Get reads the dictionary at key. Hidden and held entries are skipped.
func (x DictIndexer[K, V]) Get(key string) (Entries[K, V], error) { return x.read(key, nil) }

// GetOr reads the dictionary at key, yielding def for held entries and for
// ensured keys that are missing. A dictionary that is undefined, hidden or
// held reads as empty.
func (x DictIndexer[K, V]) GetOr(key string, def V) (Entries[K, V], error) { return x.read(key, &def) }

func (x DictIndexer[K, V]) read(key string, def *V) (Entries[K, V], error) {
	s := x.spec
	if s.IsMolding() {
		x.moldSlot(key)
	}
	out, texts, err := x.collect(key, def)
	if err != nil {
		if s.IsMolding() {
			return x.moldingDefault(key), nil
		}
		var access *AccessError
		if errors.As(err, &access) {
			return Entries[K, V]{}, err
		}
		return Entries[K, V]{}, &AccessError{Path: s.keyID(key), Type: x.describe(), Err: err}
	}
	if s.IsMolding() {
		for _, text := range texts {
			x.values.mold(entryAt{self: s, owner: s, key: key, entry: text})
		}
		x.moldEnsured(key)
	}
	return out, nil
}

// rawEntry is one dictionary entry as stored in some document.
type rawEntry struct {
	text  string
	node  *document.Node
	owner *Spec
}

// rawDictEntries merges the dictionary entries stored at key along the base
// chain of s, more derived documents first. Sentinel entries are included.
// The state is that of the slot: absent when no document defines it, hidden
// or held when the first document that does holds a sentinel. A sentinel
// further down the chain cuts off what lies below it.
func rawDictEntries(s *Spec, key, describe string) ([]rawEntry, state, error) {
	chain, err := s.chain()
	if err != nil {
		return nil, stateAbsent, err
	}
	var out []rawEntry
	seen := make(map[string]bool)
	found := false
	for _, cur := range chain {
		raw := lookup(cur.Properties(false), key)
		switch st := classify(raw); st {
		case stateAbsent:
			continue
		case stateHidden, stateHeld:
			if found {
				return out, statePresent, nil
			}
			return nil, st, nil
		}
		if !raw.IsMapping() {
			return nil, stateAbsent, &ValidationError{Value: raw.Kind().String(), Type: describe, Reason: "expected a mapping"}
		}
		found = true

		body := lookup(raw, keyDictBody)
		if body == nil {
			continue
		}
		if !body.IsMapping() {
			return nil, stateAbsent, &ValidationError{Value: body.Kind().String(), Type: describe, Reason: "expected a mapping under " + keyDictBody}
		}
		for _, text := range keysOf(body) {
			if seen[text] {
				continue
			}
			seen[text] = true
			out = append(out, rawEntry{text: text, node: lookup(body, text), owner: cur})
		}
	}
	if !found {
		return nil, stateAbsent, nil
	}
	return out, statePresent, nil
}

// collect decodes the merged entries. texts are the document keys of the
// returned entries.
func (x DictIndexer[K, V]) collect(key string, def *V) (Entries[K, V], []string, error) {
	s := x.spec
	out := Entries[K, V]{values: make(map[K]V)}

	entries, st, err := rawDictEntries(s, key, x.describe())
	if err != nil {
		return out, nil, err
	}
	if st != statePresent {
		if def != nil {
			return x.withEnsured(out, def), nil, nil
		}
		switch st {
		case stateHidden:
			return out, nil, ErrHiddenKey
		case stateHeld:
			return out, nil, ErrHeldKey
		default:
			return out, nil, ErrKeyUndefined
		}
	}

	var texts []string
	for _, e := range entries {
		at := entryAt{self: s, owner: e.owner, key: key, entry: e.text}
		k, err := x.keys.Decode(e.text)
		if err != nil {
			return out, nil, &AccessError{Path: s.keyID(at.keys()...), Type: x.keys.Describe(), Err: err}
		}
		if _, dup := out.values[k]; dup {
			continue
		}
		var v V
		switch classify(e.node) {
		case stateHidden:
			continue
		case stateHeld:
			if def == nil {
				continue
			}
			v = *def
		default:
			v, err = x.values.decode(e.node, at)
			if err != nil {
				return out, nil, &AccessError{Path: s.keyID(at.keys()...), Type: x.values.describe(), Err: err}
			}
		}
		out.keys = append(out.keys, k)
		out.values[k] = v
		texts = append(texts, e.text)
	}

	if def != nil {
		return x.withEnsured(out, def), texts, nil
	}
	slices.SortStableFunc(out.keys, x.keys.Compare)
	return out, texts, nil
}

func (x DictIndexer[K, V]) withEnsured(out Entries[K, V], def *V) Entries[K, V] {
	for _, k := range x.ensured {
		if _, ok := out.values[k]; !ok {
			out.keys = append(out.keys, k)
			out.values[k] = *def
		}
	}
	slices.SortStableFunc(out.keys, x.keys.Compare)
	return out
}

func (x DictIndexer[K, V]) moldSlot(key string) {
	slot := x.spec.moldSlot(key)
	setScalar(slot, keyMoldingType, x.code())
	ensureMapping(slot, keyDictBody)
}

func (x DictIndexer[K, V]) moldEnsured(key string) {
	for _, k := range x.ensured {
		text, _ := x.keys.Encode(k)
		x.values.mold(entryAt{self: x.spec, owner: x.spec, key: key, entry: text})
	}
}

func (x DictIndexer[K, V]) moldingDefault(key string) Entries[K, V] {
	x.moldEnsured(key)
	out := Entries[K, V]{values: make(map[K]V)}
	for _, k := range x.ensured {
		if _, ok := out.values[k]; ok {
			continue
		}
		text, _ := x.keys.Encode(k)
		out.keys = append(out.keys, k)
		out.values[k] = x.values.moldingDefault(entryAt{self: x.spec, owner: x.spec, key: key, entry: text})
	}
	slices.SortStableFunc(out.keys, x.keys.Compare)
	return out
}

// effectiveTexts lists the document keys the dictionary currently exposes.
// A malformed stored dictionary exposes nothing, so Set can overwrite it.
func (x DictIndexer[K, V]) effectiveTexts(key string) ([]string, error) {
	entries, _, err := rawDictEntries(x.spec, key, x.describe())
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if classify(e.node) != stateHidden {
			out = append(out, e.text)
		}
	}
	return out, nil
}

// Set replaces the dictionary at key. Entries the old merged view exposed
// but m lacks are hidden rather than deleted, so base entries stay
// suppressed. Entries are written in key order.
func (x DictIndexer[K, V]) Set(key string, m map[K]V) error {
	s := x.spec
	if s.IsMolding() {
		x.moldSlot(key)
	}

	old, err := x.effectiveTexts(key)
	if err != nil {
		return &AccessError{Path: s.keyID(key), Type: x.describe(), Err: err}
	}

	nodes := make(map[string]*document.Node, len(m)+len(old))
	for k, v := range m {
		text, err := x.keys.Encode(k)
		if err != nil {
			return &AccessError{Path: s.keyID(key), Type: x.describe(), Err: &InvalidKeyError{Key: fmt.Sprint(k), Err: err}}
		}
		at := entryAt{self: s, owner: s, key: key, entry: text}
		n, err := x.values.encode(v, at)
		if err != nil {
			return &AccessError{Path: s.keyID(at.keys()...), Type: x.values.describe(), Err: err}
		}
		nodes[text] = n
		if s.IsMolding() {
			x.values.mold(at)
		}
	}
	for _, text := range old {
		if _, ok := nodes[text]; !ok {
			nodes[text] = document.NewScalar(Hidden)
		}
	}

	texts := slices.Collect(maps.Keys(nodes))
	slices.SortStableFunc(texts, x.compareTexts)

	slotID := s.keyID(key)
	body := document.NewMapping(slotID + "[" + keyDictBody + "]")
	for _, text := range texts {
		body.Set(text, nodes[text])
	}
	slot := document.NewMapping(slotID)
	slot.Set(keyDictBody, body)
	setNode(s.Properties(true), key, slot)
	s.touch()
	return nil
}

// compareTexts orders document keys by their decoded value, falling back to
// text order for keys the codec rejects.
func (x DictIndexer[K, V]) compareTexts(a, b string) int {
	ka, errA := x.keys.Decode(a)
	kb, errB := x.keys.Decode(b)
	if errA == nil && errB == nil {
		if c := x.keys.Compare(ka, kb); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

// Entry reads one entry of the dictionary at key.
func (x DictIndexer[K, V]) Entry(key string, k K) (V, error) {
	var zero V
	entries, err := x.Get(key)
	if err != nil {
		return zero, err
	}
	v, ok := entries.Get(k)
	if !ok {
		text, _ := x.keys.Encode(k)
		return zero, &AccessError{Path: x.spec.keyID(key, keyDictBody, text), Type: x.values.describe(), Err: ErrKeyUndefined}
	}
	return v, nil
}

// SetEntry writes one entry into the spec's own part of the dictionary,
// leaving the other entries to the merge.
func (x DictIndexer[K, V]) SetEntry(key string, k K, v V) error {
	s := x.spec
	text, err := x.entryText(key, k)
	if err != nil {
		return err
	}
	at := entryAt{self: s, owner: s, key: key, entry: text}
	if s.IsMolding() {
		x.moldSlot(key)
		x.values.mold(at)
	}
	n, err := x.values.encode(v, at)
	if err != nil {
		return &AccessError{Path: s.keyID(at.keys()...), Type: x.values.describe(), Err: err}
	}
	setNode(x.ownBody(key), text, n)
	s.touch()
	return nil
}

// RemoveEntry deletes one entry from the spec's own part of the
// dictionary, exposing the base's entry if any.
func (x DictIndexer[K, V]) RemoveEntry(key string, k K) error {
	text, err := x.entryText(key, k)
	if err != nil {
		return err
	}
	body := descend(x.spec.Properties(false), []string{key, keyDictBody}, false)
	if body != nil && deleteKey(body, text) {
		x.spec.touch()
	}
	return nil
}

// HideEntry suppresses one entry regardless of the base.
func (x DictIndexer[K, V]) HideEntry(key string, k K) error { return x.markEntry(key, k, Hidden) }

// HoldEntry makes one entry read as GetOr's default.
func (x DictIndexer[K, V]) HoldEntry(key string, k K) error { return x.markEntry(key, k, Held) }

func (x DictIndexer[K, V]) markEntry(key string, k K, sentinel string) error {
	text, err := x.entryText(key, k)
	if err != nil {
		return err
	}
	setScalar(x.ownBody(key), text, sentinel)
	x.spec.touch()
	return nil
}

func (x DictIndexer[K, V]) entryText(key string, k K) (string, error) {
	text, err := x.keys.Encode(k)
	if err != nil {
		return "", &AccessError{Path: x.spec.keyID(key), Type: x.describe(), Err: &InvalidKeyError{Key: fmt.Sprint(k), Err: err}}
	}
	return text, nil
}

// ownBody returns the spec's own entry mapping at key, replacing a sentinel
// stored there.
func (x DictIndexer[K, V]) ownBody(key string) *document.Node {
	return descend(x.spec.Properties(true), []string{key, keyDictBody}, true)
}

// Remove, Hide and Hold act on the whole dictionary slot like their
// ScalarIndexer counterparts.
func (x DictIndexer[K, V]) Remove(key string) { x.spec.Remove(key) }
func (x DictIndexer[K, V]) Hide(key string)   { x.spec.Hide(key) }
func (x DictIndexer[K, V]) Hold(key string)   { x.spec.Hold(key) }
