// Package testutil holds fixtures shared by package tests: temporary layer
// trees, stores over them and log capture.
package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/contentspec/internal/layer"
	"github.com/vk/contentspec/internal/registry"
	"github.com/vk/contentspec/internal/spec"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// WriteFiles creates files below root. Keys are slash-separated paths
// relative to root; parent directories are created as needed.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// NewStore writes files into a fresh single-layer tree and returns a store
// over it with the given modules registered, along with the layer root.
func NewStore(t *testing.T, files map[string]string, modules ...registry.Module[spec.Factory]) (*spec.Store, string) {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, files)

	ctx := context.Background()
	stack, err := layer.NewStack(ctx, []*layer.Layer{{Name: "main", Root: root}})
	require.NoError(t, err)

	reg := spec.NewRegistry()
	reg.Load(modules...)

	st, err := spec.NewStore(ctx, stack, reg)
	require.NoError(t, err)
	return st, root
}

// Fetch loads the root spec at p and fails the test on error.
func Fetch(t *testing.T, st *spec.Store, p string) *spec.Spec {
	t.Helper()
	s, err := st.Fetch(p, false)
	require.NoError(t, err)
	return s
}
