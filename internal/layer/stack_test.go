package layer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func names(layers []*Layer) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = l.Name
	}
	return out
}

func TestNewStack_PriorityOrder(t *testing.T) {
	// Arrange: "mod" is declared first but depends on "core", so it must
	// still outrank it. "extra" has no constraint and keeps declaration order.
	layers := []*Layer{
		{Name: "mod", Root: "/m", DependsOn: []string{"core"}},
		{Name: "core", Root: "/c"},
		{Name: "extra", Root: "/e"},
	}

	// Act
	stack, err := NewStack(context.Background(), layers)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"extra", "mod", "core"}, names(stack.Layers()))
}

func TestNewStack_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		layers  []*Layer
		opts    []Option
		wantErr error
	}{
		{
			name:    "missing dependency",
			layers:  []*Layer{{Name: "a", DependsOn: []string{"ghost"}}},
			wantErr: ErrMissingLayer,
		},
		{
			name: "cycle",
			layers: []*Layer{
				{Name: "a", DependsOn: []string{"b"}},
				{Name: "b", DependsOn: []string{"a"}},
			},
			wantErr: ErrCyclicLayers,
		},
		{
			name:    "self dependency",
			layers:  []*Layer{{Name: "a", DependsOn: []string{"a"}}},
			wantErr: ErrCyclicLayers,
		},
		{
			name:    "unknown save layer",
			layers:  []*Layer{{Name: "a"}},
			opts:    []Option{WithSaveLayer("b")},
			wantErr: ErrMissingLayer,
		},
		{
			name:    "read-only save layer",
			layers:  []*Layer{{Name: "a", ReadOnly: true}},
			opts:    []Option{WithSaveLayer("a")},
			wantErr: ErrReadOnly,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewStack(context.Background(), tc.layers, tc.opts...)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestNewStack_DuplicateName(t *testing.T) {
	_, err := NewStack(context.Background(), []*Layer{{Name: "a"}, {Name: "a"}})
	assert.ErrorContains(t, err, "declared more than once")
}

func newTwoLayerStack(t *testing.T, opts ...Option) (*Stack, string, string) {
	t.Helper()
	core, mod := t.TempDir(), t.TempDir()
	stack, err := NewStack(context.Background(), []*Layer{
		{Name: "core", Root: core, ReadOnly: true},
		{Name: "mod", Root: mod, DependsOn: []string{"core"}, Exclude: []string{"**/*.bak"}},
	}, opts...)
	require.NoError(t, err)
	return stack, core, mod
}

func TestStack_File(t *testing.T) {
	// Arrange
	stack, core, mod := newTwoLayerStack(t)
	write(t, core, "units/knight.spec", "core")
	write(t, core, "units/archer.spec", "core")
	write(t, mod, "units/knight.spec", "mod")
	write(t, core, "units/old.bak", "core")
	write(t, mod, "units/old.bak", "mod")

	// Act & Assert
	f, err := stack.File("units/knight.spec")
	require.NoError(t, err)
	assert.Equal(t, "mod", f.Layer.Name)
	assert.Equal(t, filepath.Join(mod, "units", "knight.spec"), f.Abs)

	f, err = stack.File("units/archer.spec")
	require.NoError(t, err)
	assert.Equal(t, "core", f.Layer.Name)

	f, err = stack.File("units/old.bak")
	require.NoError(t, err)
	assert.Equal(t, "core", f.Layer.Name, "excluded files are invisible in their layer")

	_, err = stack.File("units/ghost.spec")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = stack.File("units")
	assert.ErrorIs(t, err, ErrNotFound, "directories are not files")

	data, f, err := stack.ReadFile("units/knight.spec")
	require.NoError(t, err)
	assert.Equal(t, "mod", string(data))
	assert.Equal(t, "units/knight.spec", f.Rel)
}

func TestStack_WritePathAndWriteFile(t *testing.T) {
	stack, _, mod := newTwoLayerStack(t)

	assert.Equal(t, "mod", stack.SaveLayer().Name)

	f, err := stack.WriteFile("saves/slot1.spec", "", []byte("x: 1\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(mod, "saves", "slot1.spec"), f.Abs)
	data, err := os.ReadFile(f.Abs)
	require.NoError(t, err)
	assert.Equal(t, "x: 1\n", string(data))

	_, err = stack.WritePath("a.spec", "core")
	assert.ErrorIs(t, err, ErrReadOnly)

	_, err = stack.WritePath("a.spec", "ghost")
	assert.ErrorIs(t, err, ErrMissingLayer)

	_, err = stack.WritePath("../a.spec", "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestStack_SaveLayerAllReadOnly(t *testing.T) {
	stack, err := NewStack(context.Background(), []*Layer{{Name: "core", Root: t.TempDir(), ReadOnly: true}})
	require.NoError(t, err)

	assert.Nil(t, stack.SaveLayer())
	_, err = stack.WritePath("a.spec", "")
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestDir_Files(t *testing.T) {
	// Arrange
	stack, core, mod := newTwoLayerStack(t)
	write(t, core, "units/b.spec", "core")
	write(t, core, "units/a.spec", "core")
	write(t, mod, "units/b.spec", "mod")
	write(t, mod, "units/c.spec", "mod")
	write(t, mod, "units/c.txt", "mod")
	write(t, mod, "units/d.bak", "mod")
	write(t, mod, "units/nested/e.spec", "mod")

	// Act
	dir, err := stack.Dir("units")
	require.NoError(t, err)
	files, err := dir.Files("*.spec")

	// Assert
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "units/a.spec", files[0].Rel)
	assert.Equal(t, "core", files[0].Layer.Name)
	assert.Equal(t, "units/b.spec", files[1].Rel)
	assert.Equal(t, "mod", files[1].Layer.Name)
	assert.Equal(t, "units/c.spec", files[2].Rel)
}

func TestDir_FilesMissingDirectory(t *testing.T) {
	stack, _, _ := newTwoLayerStack(t)

	dir, err := stack.Dir("nowhere")
	require.NoError(t, err)
	files, err := dir.Files("*")

	require.NoError(t, err)
	assert.Empty(t, files)
}
