package spec

import (
	"fmt"

	"github.com/vk/contentspec/internal/document"
)

// capture collects the template document of one MoldSpec run. It is shared
// by every spec derived from the molding root and by nothing else.
type capture struct {
	root *document.Node
}

// MoldSpec runs action against a molding copy of the root spec s and
// returns the template it recorded. Reads inside action never fail: a value
// that cannot be read is replaced by the indexer's molding default.
// Definition errors still panic.
func (s *Spec) MoldSpec(action func(m *Spec)) (*document.Node, error) {
	if s.kind != KindRoot {
		return nil, fmt.Errorf("cannot mold %s spec %s: only root specs can be molded", s.kind, s.ID())
	}
	c := &capture{root: document.NewMapping(s.path)}
	m := *s
	m.capture = c
	action(&m)
	return c.root, nil
}

// moldBody is the template region mirroring Body.
func (s *Spec) moldBody() *document.Node {
	if s.capture == nil {
		return nil
	}
	if s.kind == KindRoot {
		return s.capture.root
	}
	anchor := s.parent
	if s.moldParent != nil {
		anchor = s.moldParent
	}
	return descend(anchor.moldProperties(), s.keys, true)
}

// moldProperties is the template region mirroring Properties.
func (s *Spec) moldProperties() *document.Node {
	body := s.moldBody()
	if body == nil {
		return nil
	}
	switch s.kind {
	case KindRoot, KindChild:
		return ensureMapping(body, KeyProperties)
	default:
		return body
	}
}

// moldScalar records code as the template value of key.
func (s *Spec) moldScalar(key, code string) {
	if mp := s.moldProperties(); mp != nil {
		setScalar(mp, key, code)
	}
}

// moldSlot returns the template mapping for key, creating it.
func (s *Spec) moldSlot(key string) *document.Node {
	mp := s.moldProperties()
	if mp == nil {
		return nil
	}
	return ensureMapping(mp, key)
}
