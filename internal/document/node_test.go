package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapping_SetGetDelete(t *testing.T) {
	m := NewMapping("root")

	m.SetScalar("b", "2")
	m.SetScalar("a", "1")
	m.SetScalar("b", "3") // Overwrite keeps position.

	assert.Equal(t, []string{"b", "a"}, m.Keys())
	v, ok := m.Scalar("b")
	require.True(t, ok)
	assert.Equal(t, "3", v)
	assert.Equal(t, "fallback", m.ScalarOr("missing", "fallback"))

	assert.True(t, m.Delete("b"))
	assert.False(t, m.Delete("b"))
	assert.Equal(t, []string{"a"}, m.Keys())
}

func TestMapping_EnsureMappingReplacesScalar(t *testing.T) {
	m := NewMapping("doc")
	m.SetScalar("props", "__HIDDEN__")

	props := m.EnsureMapping("props")

	require.True(t, props.IsMapping())
	assert.Equal(t, "doc[props]", props.ID())
	again := m.EnsureMapping("props")
	assert.Same(t, props, again)
}

func TestMapping_SortKeys(t *testing.T) {
	m := NewMapping("m")
	for _, k := range []string{"c", "a", "b"} {
		m.SetScalar(k, k)
	}

	m.SortKeys(func(a, b string) bool { return a < b })

	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())
}

func TestClone_IsDeep(t *testing.T) {
	src := NewMapping("src")
	src.EnsureMapping("inner").SetScalar("k", "v")
	src.Set("list", NewSequence(NewScalar("x")))

	dst := src.Clone("dst")
	inner, _ := dst.Mapping("inner")
	inner.SetScalar("k", "changed")

	orig, _ := src.Mapping("inner")
	assert.Equal(t, "v", orig.ScalarOr("k", ""))
	assert.Equal(t, "dst[inner]", inner.ID())
	list, ok := dst.Sequence("list")
	require.True(t, ok)
	assert.Equal(t, "x", list.Items()[0].Value())
}

func TestSet_OnScalarPanics(t *testing.T) {
	s := NewScalar("x")
	assert.Panics(t, func() { s.SetScalar("k", "v") })
}
