package registry

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sword struct{}
type shield struct{}

type factory func() any

type testModule struct{}

func (testModule) Register(r *Registry[factory]) {
	r.Register("item.sword", reflect.TypeFor[*sword](), func() any { return &sword{} }, "item", "weapon")
	r.Register("item.shield", reflect.TypeFor[*shield](), func() any { return &shield{} }, "item")
}

func TestRegistry_LookupAndIDOf(t *testing.T) {
	// Arrange
	r := New[factory]()
	r.Load(testModule{})

	// Act
	e, err := r.Lookup("item.sword")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "item.sword", e.ID)
	assert.IsType(t, &sword{}, e.Factory())
	assert.True(t, e.Implements("weapon"))
	assert.False(t, e.Implements("unit"))

	id, ok := r.IDOf(&shield{})
	assert.True(t, ok)
	assert.Equal(t, "item.shield", id)

	_, ok = r.IDOf(shield{})
	assert.False(t, ok, "value and pointer types are distinct registrations")
	_, ok = r.IDOf(nil)
	assert.False(t, ok)
}

func TestRegistry_LookupUnknown(t *testing.T) {
	r := New[factory]()

	_, err := r.Lookup("ghost")

	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestRegistry_EntriesSortedByID(t *testing.T) {
	r := New[factory]()
	r.Load(testModule{})

	entries := r.Entries()

	require.Len(t, entries, 2)
	assert.Equal(t, "item.shield", entries[0].ID)
	assert.Equal(t, "item.sword", entries[1].ID)
}

func TestRegistry_DuplicatesPanic(t *testing.T) {
	r := New[factory]()
	r.Load(testModule{})

	assert.Panics(t, func() {
		r.Register("item.sword", reflect.TypeFor[int](), nil)
	}, "duplicate id")
	assert.Panics(t, func() {
		r.Register("item.other", reflect.TypeFor[*sword](), nil)
	}, "duplicate Go type")
	assert.Panics(t, func() {
		r.Register("", reflect.TypeFor[string](), nil)
	}, "empty id")
}

func TestRegistry_Validate(t *testing.T) {
	r := New[factory]()
	r.Load(testModule{})

	err := r.Validate(context.Background(), func(e *Entry[factory]) error { return nil })
	require.NoError(t, err)

	err = r.Validate(context.Background(), func(e *Entry[factory]) error {
		if e.ID == "item.sword" {
			return errors.New("broken")
		}
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registry validation failed")
	assert.Contains(t, err.Error(), "type 'item.sword': broken")
}
