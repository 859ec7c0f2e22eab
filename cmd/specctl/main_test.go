package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/contentspec/internal/cli"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// Arrange: a manifest with a syntax error panics inside app.NewApp.
	dir := t.TempDir()
	path := filepath.Join(dir, "layers.hcl")
	require.NoError(t, os.WriteFile(path, []byte("layer \"core\" {\n  path = \n"), 0o600))
	var out, errOut bytes.Buffer

	// Act
	err := run(&out, &errOut, []string{"-m", path, "layers"})

	// Assert
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, err.Error(), "application startup panicked")
	assert.Contains(t, err.Error(), "failed to load layer manifest")
}

func TestRun_Help(t *testing.T) {
	t.Parallel()

	// Arrange
	var out, errOut bytes.Buffer

	// Act
	err := run(&out, &errOut, []string{"-h"})

	// Assert
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "mold")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// Arrange
	var out, errOut bytes.Buffer

	// Act
	err := run(&out, &errOut, []string{"--this-is-not-a-valid-flag"})

	// Assert
	var exitErr *cli.ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, err.Error(), "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	// Arrange
	dir := t.TempDir()
	manifest := filepath.Join(dir, "layers.hcl")
	require.NoError(t, os.WriteFile(manifest, []byte("layer \"main\" {\n  path = \"content\"\n}\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "content", "units"), 0o755))
	scout := []byte("spawner: unit\nproperties:\n  name: scout\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "content", "units", "scout.spec"), scout, 0o600))
	var out, errOut bytes.Buffer

	// Act
	missingErr := run(&out, &errOut, []string{"-m", manifest, "check", "units/scout.spec"})
	setErr := run(&out, &errOut, []string{"-m", manifest, "set", "units/scout.spec", "hp", "30", "--kind", "Range, [, 1, 10000, ]"})
	out.Reset()
	checkErr := run(&out, &errOut, []string{"-m", manifest, "check", "units/scout.spec"})

	// Assert
	var exitErr *cli.ExitError
	require.True(t, errors.As(missingErr, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
	require.NoError(t, setErr)
	require.NoError(t, checkErr, errOut.String())
	assert.Equal(t, "units/scout.spec: ok (unit)\n", out.String())
}
