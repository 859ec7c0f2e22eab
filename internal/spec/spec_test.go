package spec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseDoc = `
properties:
  hp: 10
  speed: 3
  stats:
    str: 5
    dex: 6
`

const derivedDoc = `
base: base.spec
properties:
  hp: 20
  stats:
    str: 8
`

func TestScalar_ReadsOwnValueFirst(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{"base.spec": baseDoc, "derived.spec": derivedDoc})
	s := fetch(t, st, "derived.spec")

	// Act
	hp, err := s.Int().Get("hp")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 20, hp)
}

func TestScalar_FallsBackToBase(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{"base.spec": baseDoc, "derived.spec": derivedDoc})
	s := fetch(t, st, "derived.spec")

	// Act
	speed, err := s.Int().Get("speed")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, speed)
}

func TestSubSpec_InheritsPerKey(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{"base.spec": baseDoc, "derived.spec": derivedDoc})
	stats := fetch(t, st, "derived.spec").SubSpec("stats")

	// Act
	str, errStr := stats.Int().Get("str")
	dex, errDex := stats.Int().Get("dex")

	// Assert
	require.NoError(t, errStr)
	require.NoError(t, errDex)
	assert.Equal(t, 8, str)
	assert.Equal(t, 6, dex)
	assert.Equal(t, "derived.spec[properties][stats]", stats.ID())
}

func TestScalar_Sentinels(t *testing.T) {
	testCases := []struct {
		name    string
		key     string
		mutate  func(s *Spec)
		wantErr error
		wantOr  int
	}{
		{
			name:    "undefined",
			key:     "missing",
			mutate:  func(s *Spec) {},
			wantErr: ErrKeyUndefined,
			wantOr:  99,
		},
		{
			name:    "hidden shadows the base",
			key:     "speed",
			mutate:  func(s *Spec) { s.Int().Hide("speed") },
			wantErr: ErrHiddenKey,
			wantOr:  99,
		},
		{
			name:    "held yields the default",
			key:     "speed",
			mutate:  func(s *Spec) { s.Int().Hold("speed") },
			wantErr: ErrHeldKey,
			wantOr:  99,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			st, _ := newTestStore(t, map[string]string{"base.spec": baseDoc, "derived.spec": derivedDoc})
			s := fetch(t, st, "derived.spec")
			tc.mutate(s)
			key := tc.key

			// Act
			_, err := s.Int().Get(key)
			or, orErr := s.Int().GetOr(key, 99)

			// Assert
			require.ErrorIs(t, err, tc.wantErr)
			var access *AccessError
			require.True(t, errors.As(err, &access))
			assert.Equal(t, "derived.spec[properties]["+key+"]", access.Path)
			assert.Equal(t, "integer", access.Type)
			require.NoError(t, orErr)
			assert.Equal(t, tc.wantOr, or)
		})
	}
}

func TestScalar_RemoveExposesBase(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{"base.spec": baseDoc, "derived.spec": derivedDoc})
	s := fetch(t, st, "derived.spec")
	s.Int().Hide("speed")

	// Act
	s.Int().Remove("speed")
	speed, err := s.Int().Get("speed")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, speed)
}

func TestScalar_SetWritesOnlyOwnDocument(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{"base.spec": baseDoc, "derived.spec": derivedDoc})
	derived := fetch(t, st, "derived.spec")

	// Act
	require.NoError(t, derived.SubSpec("stats").Int().Set("dex", 1))

	// Assert
	base := fetch(t, st, "base.spec")
	dex, err := base.SubSpec("stats").Int().Get("dex")
	require.NoError(t, err)
	assert.Equal(t, 6, dex)
	assert.Equal(t, "1", rawAt(derived, "stats", "dex").Value())
	assert.ElementsMatch(t, []string{"derived.spec"}, st.Dirty())
}

func TestScalar_InvalidValue(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{"a.spec": "properties:\n  level: 10\n  name: \"x\"\n"})
	s := fetch(t, st, "a.spec")

	// Act
	_, err := s.RangeTo(10).Get("level")
	setErr := s.RangeTo(10).Set("level", 10)

	// Assert
	var invalid *ValidationError
	require.True(t, errors.As(err, &invalid))
	var access *AccessError
	require.True(t, errors.As(err, &access))
	assert.Equal(t, "a.spec[properties][level]", access.Path)
	assert.Equal(t, "integer in [0, 10)", access.Type)
	assert.Error(t, setErr)
}

func TestScalar_NonScalarValue(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{"a.spec": "properties:\n  hp:\n    nested: 1\n"})

	// Act
	_, err := fetch(t, st, "a.spec").Int().Get("hp")

	// Assert
	var invalid *ValidationError
	assert.True(t, errors.As(err, &invalid))
}

func TestText_Terminator(t *testing.T) {
	// Arrange
	doc := `
properties:
  lore: |
    first line
    second line
    [End Of Text]
  broken: |
    no terminator
`
	st, _ := newTestStore(t, map[string]string{"a.spec": doc})
	s := fetch(t, st, "a.spec")

	// Act
	lore, loreErr := s.Text().Get("lore")
	_, brokenErr := s.Text().Get("broken")

	// Assert
	require.NoError(t, loreErr)
	assert.Equal(t, "first line\nsecond line", lore)
	var invalid *ValidationError
	assert.True(t, errors.As(brokenErr, &invalid))
}

func TestScalar_GetOrRejectsBadDefault(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{"a.spec": ""})
	s := fetch(t, st, "a.spec")

	// Act & Assert
	requireDefinitionPanic(t, func() { _, _ = s.RangeTo(10).GetOr("level", 11) })
	requireDefinitionPanic(t, func() { _, _ = s.Int().GetOrText("hp", "many") })
}

func TestBase_CycleTerminates(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{
		"a.spec": "base: b.spec\nproperties:\n  x: 1\n",
		"b.spec": "base: a.spec\nproperties:\n  y: 2\n",
	})
	s := fetch(t, st, "a.spec")

	// Act
	y, yErr := s.Int().Get("y")
	_, missingErr := s.Int().Get("z")
	chain, chainErr := s.chain()

	// Assert
	require.NoError(t, yErr)
	assert.Equal(t, 2, y)
	assert.ErrorIs(t, missingErr, ErrKeyUndefined)
	require.NoError(t, chainErr)
	assert.Len(t, chain, 2)
}

func TestBase_MissingDocument(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{"a.spec": "base: gone.spec\n"})
	s := fetch(t, st, "a.spec")

	// Act
	_, err := s.Int().Get("hp")

	// Assert
	var access *AccessError
	require.True(t, errors.As(err, &access))
	assert.Contains(t, err.Error(), "gone.spec")
}

func TestSetBase_WritesRelativePath(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{
		"units/shared/base.spec": "properties:\n  hp: 7\n",
		"units/knight.spec":      "",
	})
	s := fetch(t, st, "units/knight.spec")

	// Act
	require.NoError(t, s.SetBase("units/shared/base.spec"))
	hp, err := s.Int().Get("hp")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 7, hp)
	assert.Equal(t, "shared/base.spec", lookup(s.Body(false), KeyBase).Value())
}

func TestSpec_PropertiesAutoVivify(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{"a.spec": ""})
	s := fetch(t, st, "a.spec")
	deep := s.SubSpec("a").SubSpec("b")

	// Act
	before := deep.Properties(false)
	require.NoError(t, deep.Keyword().Set("c", "d"))

	// Assert
	assert.Nil(t, before)
	assert.Equal(t, "d", rawAt(s, "a", "b", "c").Value())
}

func TestSubSpecs_Presence(t *testing.T) {
	// Arrange
	st, _ := newTestStore(t, map[string]string{"base.spec": baseDoc, "derived.spec": derivedDoc})
	s := fetch(t, st, "derived.spec")

	// Act
	_, missingErr := s.SubSpecs().Get("missing")
	s.SubSpecs().Hide("stats")
	_, hiddenErr := s.SubSpecs().Get("stats")
	_, hpErr := s.SubSpec("stats").Int().Get("dex")

	// Assert
	assert.ErrorIs(t, missingErr, ErrKeyUndefined)
	assert.ErrorIs(t, hiddenErr, ErrHiddenKey)
	assert.Error(t, hpErr, "a hidden namespace does not inherit")
}
