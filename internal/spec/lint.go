package spec

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/vk/contentspec/internal/document"
	"github.com/vk/contentspec/internal/spec/accesscode"
)

// Rule is a type-erased validator rebuilt from a molded access code. It
// lets templates check documents without the code that declared them.
type Rule struct {
	Code accesscode.Code
	// HasDefault reports whether the code carries a trailing default, so an
	// absent key is not an error.
	HasDefault bool

	validate   func(text string) error
	elem       *Rule
	keys       *Rule
	values     *Rule
	capability string
}

// CodecFromAccessCode parses code and rebuilds its validator. Codes whose
// parameters describe an invalid type, such as an empty range, are errors.
func CodecFromAccessCode(code string) (r Rule, err error) {
	c, err := accesscode.Parse(code)
	if err != nil {
		return Rule{}, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			var def *DefinitionError
			if e, ok := rec.(error); ok && errors.As(e, &def) {
				r, err = Rule{}, fmt.Errorf("access code %q: %w", code, def)
				return
			}
			panic(rec)
		}
	}()

	fixed, err := fixedParams(c)
	if err != nil {
		return Rule{}, fmt.Errorf("access code %q: %w", code, err)
	}
	if len(c.Params) > fixed+1 {
		return Rule{}, fmt.Errorf("%w: %q has %d parameters, expected at most %d", accesscode.ErrMalformed, code, len(c.Params), fixed+1)
	}
	r = Rule{Code: c, HasDefault: len(c.Params) == fixed+1}

	switch c.Kind {
	case "Int":
		r.validate = erase(IntCodec())
	case "Double":
		r.validate = erase(DoubleCodec())
	case "Bool":
		r.validate = erase(BoolCodec())
	case "YesNo":
		r.validate = erase(YesNoCodec())
	case "OnOff":
		r.validate = erase(OnOffCodec())
	case "Int2":
		r.validate = erase(Int2Codec())
	case "Int3":
		r.validate = erase(Int3Codec())
	case "Double2":
		r.validate = erase(Double2Codec())
	case "Double3":
		r.validate = erase(Double3Codec())
	case "Keyword":
		r.validate = erase(KeywordCodec())
	case "Text":
		r.validate = erase(TextCodec())
	case "Path":
		r.validate = erase(Codec[string](pathCodec{}))
	case "LimitedKeyword":
		limit, err := strconv.Atoi(c.Param(0))
		if err != nil {
			return Rule{}, fmt.Errorf("%w: bad limit in %q", accesscode.ErrMalformed, code)
		}
		r.validate = erase(LimitedKeywordCodec(limit))
	case "Range":
		open, left, right, close, err := bounds(c, strconv.Atoi)
		if err != nil {
			return Rule{}, fmt.Errorf("access code %q: %w", code, err)
		}
		r.validate = erase(RangeCodec(open, left, right, close))
	case "Interval":
		parse := func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }
		open, left, right, close, err := bounds(c, parse)
		if err != nil {
			return Rule{}, fmt.Errorf("access code %q: %w", code, err)
		}
		r.validate = erase(IntervalCodec(open, left, right, close))
	case "Choice":
		r.validate = erase(ChoiceCodec(c.Params[1:fixed], nil))
	case "Exterior", "ExteriorDir", "Interior":
		r.capability = c.Param(0)
	case "List":
		elem, err := CodecFromAccessCode(c.Param(0))
		if err != nil {
			return Rule{}, err
		}
		r.elem = &elem
	case "Dict":
		keys, err := CodecFromAccessCode(c.Param(0))
		if err != nil {
			return Rule{}, err
		}
		values, err := CodecFromAccessCode(c.Param(1))
		if err != nil {
			return Rule{}, err
		}
		r.keys, r.values = &keys, &values
	}
	return r, nil
}

// fixedParams is the number of parameters that define the code's type; one
// more is a default.
func fixedParams(c accesscode.Code) (int, error) {
	switch c.Kind {
	case "Int", "Double", "Bool", "YesNo", "OnOff", "Int2", "Int3", "Double2", "Double3",
		"Keyword", "Text", "Path", "SubSpec":
		return 0, nil
	case "LimitedKeyword", "Exterior", "ExteriorDir", "List":
		return 1, nil
	case "Dict", "Interior":
		return 2, nil
	case "Range", "Interval":
		return 4, nil
	case "Choice":
		n, err := strconv.Atoi(c.Param(0))
		if err != nil || n < 1 || len(c.Params) < 1+n {
			return 0, fmt.Errorf("%w: bad choice count", accesscode.ErrMalformed)
		}
		return 1 + n, nil
	default:
		return 0, fmt.Errorf("%w: unknown kind %q", accesscode.ErrMalformed, c.Kind)
	}
}

func bounds[N int | float64](c accesscode.Code, parse func(string) (N, error)) (open byte, left, right N, close byte, err error) {
	if len(c.Param(0)) != 1 || len(c.Param(3)) != 1 {
		return 0, 0, 0, 0, fmt.Errorf("%w: bad brackets", accesscode.ErrMalformed)
	}
	if left, err = parse(c.Param(1)); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%w: bad lower bound", accesscode.ErrMalformed)
	}
	if right, err = parse(c.Param(2)); err != nil {
		return 0, 0, 0, 0, fmt.Errorf("%w: bad upper bound", accesscode.ErrMalformed)
	}
	return c.Param(0)[0], left, right, c.Param(3)[0], nil
}

func erase[T any](c Codec[T]) func(string) error {
	return func(text string) error {
		_, err := c.Decode(text)
		return err
	}
}

// Scalar reports whether the rule validates single document values.
func (r Rule) Scalar() bool { return r.validate != nil }

// Default returns the trailing default of the code.
func (r Rule) Default() (string, bool) {
	if !r.HasDefault {
		return "", false
	}
	return r.Code.Params[len(r.Code.Params)-1], true
}

// Validate checks one scalar value. Rules of collections and references
// have no scalar form and reject every value.
func (r Rule) Validate(text string) error {
	if r.validate == nil {
		return fmt.Errorf("%s values are not scalars", r.Code.Kind)
	}
	return r.validate(text)
}

// Set validates text and writes it at key in the spec's own properties.
func (r Rule) Set(s *Spec, key, text string) error {
	if err := r.Validate(text); err != nil {
		return &AccessError{Path: s.keyID(key), Type: r.Code.String(), Err: err}
	}
	setScalar(s.Properties(true), key, text)
	s.touch()
	return nil
}

// check validates a present value found in owner.
func (r Rule) check(raw *document.Node, owner *Spec) error {
	switch r.Code.Kind {
	case "List":
		if !raw.IsSequence() {
			return &ValidationError{Value: raw.Kind().String(), Type: "list", Reason: "expected a sequence"}
		}
		raw.Lock()
		items := raw.Items()
		raw.Unlock()
		for i, item := range items {
			if err := r.elem.check(item, owner); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	case "Exterior":
		text, err := scalarText(raw, "relative path")
		if err != nil {
			return err
		}
		target, err := pathCodec{from: owner.path}.Decode(text)
		if err != nil {
			return err
		}
		s, err := owner.store.Fetch(target, false)
		if err != nil {
			return err
		}
		_, err = activate[Spawner](s, r.capability, "")
		return err
	case "Path", "ExteriorDir":
		text, err := scalarText(raw, "relative path")
		if err != nil {
			return err
		}
		_, err = pathCodec{from: owner.path}.Decode(text)
		return err
	case "Interior", "SubSpec", "Dict":
		if !raw.IsMapping() {
			return &ValidationError{Value: raw.Kind().String(), Type: r.Code.Kind, Reason: "expected a mapping"}
		}
		return nil
	}
	text, err := scalarText(raw, r.Code.Kind)
	if err != nil {
		return err
	}
	return r.validate(text)
}

// Issue is one problem Lint found.
type Issue struct {
	Path    string
	Message string
}

func (i Issue) String() string { return i.Path + ": " + i.Message }

// Lint checks the document of s against a template produced by molding.
// Every scalar key the template records must be present or have a
// default, every present value must match its access code, and embedded
// spawners are checked against the template of their actual type.
func Lint(template *document.Node, s *Spec) []Issue {
	l := &linter{store: s.store, templates: make(map[string]*document.Node)}
	l.root(template, s)
	return l.issues
}

type linter struct {
	store     *Store
	templates map[string]*document.Node
	issues    []Issue
}

func (l *linter) add(path, format string, args ...any) {
	l.issues = append(l.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (l *linter) root(template *document.Node, s *Spec) {
	if want, ok := scalarAt(template, KeySpawner); ok && want != "" {
		got, err := s.SpawnerID()
		switch {
		case err != nil:
			l.add(s.ID(), "%v", err)
		case got != want:
			l.add(s.ID(), "declares type %q, template is for %q", got, want)
		}
	}
	l.props(lookup(template, KeyProperties), s)
}

func (l *linter) props(tmpl *document.Node, s *Spec) {
	for _, key := range keysOf(tmpl) {
		t := lookup(tmpl, key)
		switch {
		case t.IsScalar():
			l.value(t.Value(), s, key)
		case t.IsMapping():
			if code, ok := scalarAt(t, keyMoldingType); ok {
				l.dict(code, t, s, key)
			} else if code, ok := scalarAt(t, KeySpawner); ok {
				l.interior(code, s, key)
			} else {
				l.subSpec(t, s, key)
			}
		}
	}
}

func (l *linter) rule(path, code string) (Rule, bool) {
	r, err := CodecFromAccessCode(code)
	if err != nil {
		l.add(path, "%v", err)
		return Rule{}, false
	}
	return r, true
}

func (l *linter) value(code string, s *Spec, key string) {
	path := s.keyID(key)
	r, ok := l.rule(path, code)
	if !ok {
		return
	}
	raw, st, owner, err := s.resolve(key, nil)
	if err != nil {
		l.add(path, "%v", err)
		return
	}
	switch st {
	case stateAbsent:
		// Only scalar codes record their default; other readers may
		// supply one in code.
		if r.Scalar() && !r.HasDefault {
			l.add(path, "missing %s", code)
		}
	case stateHidden, stateHeld:
		if r.Scalar() && !r.HasDefault {
			l.add(path, "%s is hidden or held and has no default", code)
		}
	default:
		if err := r.check(raw, owner); err != nil {
			l.add(path, "%v", err)
		}
	}
}

func (l *linter) dict(code string, tmpl *document.Node, s *Spec, key string) {
	path := s.keyID(key)
	r, ok := l.rule(path, code)
	if !ok {
		return
	}
	entries, _, err := rawDictEntries(s, key, code)
	if err != nil {
		l.add(path, "%v", err)
		return
	}
	tmplBody := lookup(tmpl, keyDictBody)
	for _, e := range entries {
		entryPath := s.keyID(key, keyDictBody, e.text)
		if err := r.keys.Validate(e.text); err != nil {
			l.add(entryPath, "invalid key: %v", err)
			continue
		}
		if classify(e.node) != statePresent {
			continue
		}
		if err := r.values.check(e.node, e.owner); err != nil {
			l.add(entryPath, "%v", err)
			continue
		}
		at := entryAt{self: s, owner: e.owner, key: key, entry: e.text}
		switch r.values.Code.Kind {
		case "Interior":
			l.spawner(interiorValue[Spawner]{capability: r.values.capability, defaultType: r.values.Code.Param(1)}.child(at), *r.values)
		case "SubSpec":
			if t := lookup(tmplBody, e.text); t.IsMapping() {
				l.props(t, subSpecValue{}.sub(at))
			}
		}
	}
}

func (l *linter) interior(code string, s *Spec, key string) {
	path := s.keyID(key)
	r, ok := l.rule(path, code)
	if !ok {
		return
	}
	raw, st, _, err := s.resolve(key, nil)
	if err != nil {
		l.add(path, "%v", err)
		return
	}
	if st != statePresent {
		return
	}
	if !raw.IsMapping() {
		l.add(path, "expected a mapping, found a %s", raw.Kind())
		return
	}
	l.spawner(s.Child(key, r.capability), r)
}

// spawner checks an embedded spawner against the template of its type.
func (l *linter) spawner(child *Spec, r Rule) {
	path := child.ID()
	id, err := child.SpawnerID()
	if err != nil {
		l.add(path, "%v", err)
		return
	}
	if id == "" {
		id = r.Code.Param(1)
	}
	if id == "" {
		l.add(path, "declares no spawner type")
		return
	}
	e, err := l.store.registry.Lookup(id)
	if err != nil {
		l.add(path, "%v", err)
		return
	}
	if r.capability != "" && !e.Implements(r.capability) {
		l.add(path, "type %q cannot fill a slot bound to %q", id, r.capability)
		return
	}
	tmpl, ok := l.templates[id]
	if !ok {
		tmpl, err = l.store.Mold(id)
		if err != nil {
			l.add(path, "%v", err)
			return
		}
		l.templates[id] = tmpl
	}
	l.props(lookup(tmpl, KeyProperties), child)
}

func (l *linter) subSpec(tmpl *document.Node, s *Spec, key string) {
	raw, st, _, err := s.resolve(key, nil)
	if err != nil {
		l.add(s.keyID(key), "%v", err)
		return
	}
	switch st {
	case stateHidden, stateHeld:
		return
	case statePresent:
		if !raw.IsMapping() {
			l.add(s.keyID(key), "expected a mapping, found a %s", raw.Kind())
			return
		}
	}
	l.props(tmpl, s.SubSpec(key))
}

func scalarAt(m *document.Node, key string) (string, bool) {
	raw := lookup(m, key)
	if !raw.IsScalar() {
		return "", false
	}
	return raw.Value(), true
}
