package layer

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReportsLogicalPaths(t *testing.T) {
	// Arrange
	stack, core, mod := newTwoLayerStack(t)
	require.NoError(t, os.MkdirAll(filepath.Join(core, "units"), 0o755))

	rec := &flushRecorder{}
	cfg := DefaultWatcherConfig()
	cfg.DebounceWindow = 20 * time.Millisecond
	w, err := NewWatcher(stack, cfg, rec.record)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	seen := func(rel string) bool {
		for _, batch := range rec.snapshot() {
			if slices.Contains(batch, rel) {
				return true
			}
		}
		return false
	}

	// Act
	write(t, core, "units/knight.spec", "a: 1\n")
	write(t, mod, "hero.spec", "a: 2\n")
	write(t, mod, ".hidden.spec", "a: 3\n")

	// Assert
	require.Eventually(t, func() bool { return seen("units/knight.spec") && seen("hero.spec") }, 5*time.Second, 10*time.Millisecond)
	assert.False(t, seen(".hidden.spec"))
}

func TestWatcher_PicksUpNewDirectories(t *testing.T) {
	stack, _, mod := newTwoLayerStack(t)

	rec := &flushRecorder{}
	cfg := DefaultWatcherConfig()
	cfg.DebounceWindow = 20 * time.Millisecond
	w, err := NewWatcher(stack, cfg, rec.record)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, os.MkdirAll(filepath.Join(mod, "items"), 0o755))
	// Give the watcher a moment to register the new directory.
	require.Eventually(t, func() bool {
		write(t, mod, "items/sword.spec", "a: 1\n")
		for _, batch := range rec.snapshot() {
			if slices.Contains(batch, "items/sword.spec") {
				return true
			}
		}
		return false
	}, 5*time.Second, 50*time.Millisecond)
}
