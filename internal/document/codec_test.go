package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Empty(t *testing.T) {
	for _, input := range []string{"", "   \n", "# only a comment\n"} {
		n, err := Parse("empty.spec", []byte(input))
		require.NoError(t, err)
		assert.True(t, n.IsMapping())
		assert.Equal(t, 0, n.Len())
	}
}

func TestParse_Tree(t *testing.T) {
	input := `
base: ../common.spec
spawner: unit
properties:
  health: 10
  hostile: yes
  tags:
    - a
    - b
  notes: |-
    first line
    [End Of Text]
`
	n, err := Parse("units/orc.spec", []byte(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"base", "spawner", "properties"}, n.Keys())
	props, ok := n.Mapping("properties")
	require.True(t, ok)
	assert.Equal(t, "units/orc.spec[properties]", props.ID())
	assert.Equal(t, "10", props.ScalarOr("health", ""))
	assert.Equal(t, "yes", props.ScalarOr("hostile", ""))
	tags, ok := props.Sequence("tags")
	require.True(t, ok)
	require.Len(t, tags.Items(), 2)
	assert.Equal(t, "b", tags.Items()[1].Value())
	assert.Equal(t, "first line\n[End Of Text]", props.ScalarOr("notes", ""))
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "sequence root", input: "- a\n- b\n"},
		{name: "scalar root", input: "just text"},
		{name: "duplicate key", input: "a: 1\na: 2\n"},
		{name: "broken syntax", input: "a: [1, 2\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("bad.spec", []byte(tc.input))
			require.Error(t, err)
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	// --- Arrange ---
	root := NewMapping("doc")
	props := root.EnsureMapping("properties")
	props.SetScalar("name", "Orc Chief")
	props.SetScalar("flag", "yes")
	props.SetScalar("weird", "- not a list")
	props.SetScalar("empty", "")
	props.SetScalar("text", "line one\nline two\n[End Of Text]")
	props.Set("seq", NewSequence(NewScalar("1"), NewScalar("2")))
	props.EnsureMapping("nested").SetScalar("k", "__HIDDEN__")

	// --- Act ---
	out, err := root.Marshal()
	require.NoError(t, err)
	back, err := Parse("doc", out)
	require.NoError(t, err)

	// --- Assert ---
	backProps, ok := back.Mapping("properties")
	require.True(t, ok)
	assert.Equal(t, props.Keys(), backProps.Keys())
	for _, k := range []string{"name", "flag", "weird", "empty", "text"} {
		assert.Equal(t, props.ScalarOr(k, "?"), backProps.ScalarOr(k, "!"), "key %s", k)
	}
	assert.Contains(t, string(out), "text: |-\n")
	nested, ok := backProps.Mapping("nested")
	require.True(t, ok)
	assert.Equal(t, "__HIDDEN__", nested.ScalarOr("k", ""))
}

func TestMarshal_EmptyMappingIsEmptyText(t *testing.T) {
	out, err := NewMapping("x").Marshal()
	require.NoError(t, err)
	assert.Empty(t, out)
}
