package app

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/contentspec/internal/hcl"
	"github.com/vk/contentspec/internal/registry"
	"github.com/vk/contentspec/internal/spec"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// SetupAppTest writes files below a temporary directory, which must include
// the manifest at cfg.ManifestPath relative to it, and creates an app over
// it. It returns the app, its log buffer and the directory.
func SetupAppTest(t *testing.T, cfg Config, files map[string]string, modules ...registry.Module[spec.Factory]) (*App, *SafeBuffer, string) {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}

	cfg.ManifestPath = filepath.Join(root, cfg.ManifestPath)
	cfg.LogLevel = "debug"
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = spec.DefaultCacheSize
	}
	validated, err := NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	testApp := NewApp(logBuffer, validated, hcl.NewLoader(), modules...)

	t.Cleanup(func() {
		if os.Getenv("SPECCTL_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer, root
}
