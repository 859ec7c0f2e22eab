package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestLoader(env ...string) *Loader {
	return &Loader{environ: func() []string { return env }}
}

func TestLoad_LayersAndSaveLayer(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	writeManifest(t, dir, "layers.hcl", `
save_layer = "save"

layer "core" {
  path      = "content/core"
  exclude   = ["**/*.bak"]
  read_only = true
}

layer "save" {
  path       = "${env.SAVE_ROOT}/slot1"
  depends_on = ["core"]
}
`)
	loader := newTestLoader("SAVE_ROOT=/var/saves", "EMPTY=")

	// Act
	model, err := loader.Load(context.Background(), dir)

	// Assert
	require.NoError(t, err)
	require.Len(t, model.Layers, 2)
	assert.Equal(t, "save", model.SaveLayer)

	absDir, _ := filepath.Abs(dir)
	core, ok := model.Layer("core")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(absDir, "content", "core"), core.Path)
	assert.Equal(t, []string{"**/*.bak"}, core.Exclude)
	assert.True(t, core.ReadOnly)

	save, ok := model.Layer("save")
	require.True(t, ok)
	assert.Equal(t, "/var/saves/slot1", save.Path)
	assert.Equal(t, []string{"core"}, save.DependsOn)
	assert.False(t, save.ReadOnly)
}

func TestLoad_ManifestDirVariable(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "m.hcl", `
layer "mods" {
  path = "${manifest_dir}/mods"
}
`)

	model, err := newTestLoader().Load(context.Background(), dir)

	require.NoError(t, err)
	absDir, _ := filepath.Abs(dir)
	assert.Equal(t, filepath.Join(absDir, "mods"), model.Layers[0].Path)
}

func TestLoad_MergesFilesAcrossDirectories(t *testing.T) {
	dir := t.TempDir()
	a := writeManifest(t, dir, "a.hcl", `layer "a" { path = "a" }`)
	writeManifest(t, dir, "nested/b.hcl", `layer "b" { path = "b" }`)
	writeManifest(t, dir, "notes.txt", `layer "ignored" { path = "x" }`)

	// The explicit file is also found by the walk; it must only load once.
	model, err := newTestLoader().Load(context.Background(), a, dir, filepath.Join(dir, "missing"))

	require.NoError(t, err)
	require.Len(t, model.Layers, 2)
	_, ok := model.Layer("ignored")
	assert.False(t, ok)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "syntax error",
			files:   map[string]string{"x.hcl": `layer "a" {`},
			wantErr: "failed to parse HCL file",
		},
		{
			name:    "unknown attribute",
			files:   map[string]string{"x.hcl": "layer \"a\" {\n  path  = \"a\"\n  color = \"red\"\n}\n"},
			wantErr: "failed to decode HCL file",
		},
		{
			name:    "missing path",
			files:   map[string]string{"x.hcl": `layer "a" {}`},
			wantErr: `layer "a": missing required argument "path"`,
		},
		{
			name:    "null path",
			files:   map[string]string{"x.hcl": `layer "a" { path = null }`},
			wantErr: `missing required argument "path"`,
		},
		{
			name:    "empty path",
			files:   map[string]string{"x.hcl": `layer "a" { path = "" }`},
			wantErr: "path must not be empty",
		},
		{
			name:    "duplicate layer",
			files:   map[string]string{"x.hcl": "layer \"a\" { path = \"a\" }\nlayer \"a\" { path = \"b\" }\n"},
			wantErr: `layer "a" is declared more than once`,
		},
		{
			name:    "self dependency",
			files:   map[string]string{"x.hcl": "layer \"a\" {\n  path       = \"a\"\n  depends_on = [\"a\"]\n}\n"},
			wantErr: "depends on itself",
		},
		{
			name: "save_layer twice",
			files: map[string]string{
				"x.hcl": `save_layer = "a"`,
				"y.hcl": `save_layer = "b"`,
			},
			wantErr: "save_layer declared in both",
		},
		{
			name:    "unknown env var",
			files:   map[string]string{"x.hcl": `layer "a" { path = env.NOPE }`},
			wantErr: "path",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tc.files {
				writeManifest(t, dir, name, content)
			}

			_, err := newTestLoader().Load(context.Background(), dir)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
