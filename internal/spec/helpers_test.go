package spec

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/contentspec/internal/document"
	"github.com/vk/contentspec/internal/layer"
)

// part is the slot type the reference tests bind to.
type part interface {
	Spawner
	Weight() (int, error)
}

type widget struct{ spec *Spec }

func newWidget(s *Spec) *widget { return &widget{spec: s} }

func (w *widget) Spec() *Spec          { return w.spec }
func (w *widget) Weight() (int, error) { return w.spec.Int().GetOr("weight", 1) }

func (w *widget) Check() error {
	if _, err := w.Weight(); err != nil {
		return err
	}
	_, err := w.spec.Keyword().Get("name")
	return err
}

type gadget struct{ spec *Spec }

func newGadget(s *Spec) *gadget { return &gadget{spec: s} }

func (g *gadget) Spec() *Spec          { return g.spec }
func (g *gadget) Weight() (int, error) { return g.spec.Int().GetOr("weight", 2) }

func (g *gadget) Check() error {
	if _, err := g.Weight(); err != nil {
		return err
	}
	_, err := Interior[part](g.spec, "part", "widget").GetOr("inner", nil)
	return err
}

// newTestStore writes files into a single-layer stack and returns a store
// reading from it together with the layer root.
func newTestStore(t *testing.T, files map[string]string) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	ctx := context.Background()
	stack, err := layer.NewStack(ctx, []*layer.Layer{{Name: "main", Root: root}})
	require.NoError(t, err)

	reg := NewRegistry()
	RegisterSpawner(reg, "widget", newWidget, "part")
	RegisterSpawner(reg, "gadget", newGadget, "part", "tool")

	st, err := NewStore(ctx, stack, reg)
	require.NoError(t, err)
	return st, root
}

func fetch(t *testing.T, st *Store, p string) *Spec {
	t.Helper()
	s, err := st.Fetch(p, false)
	require.NoError(t, err)
	return s
}

// rawAt walks own properties of s without consulting bases.
func rawAt(s *Spec, keys ...string) *document.Node {
	m := descend(s.Properties(false), keys[:len(keys)-1], false)
	return lookup(m, keys[len(keys)-1])
}

func requireDefinitionPanic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		t.Helper()
		rec := recover()
		require.NotNil(t, rec, "expected a definition panic")
		err, ok := rec.(error)
		require.True(t, ok, "panic value %v is not an error", rec)
		var def *DefinitionError
		require.True(t, errors.As(err, &def), "panic value %v is not a DefinitionError", rec)
	}()
	f()
}
