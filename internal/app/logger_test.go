package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	// Arrange
	buf := &SafeBuffer{}
	logger := newLogger("warn", "json", buf)

	// Act
	logger.Info("Dropped.")
	logger.Warn("Kept.", "path", "a.spec")

	// Assert
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &record), buf.String())
	assert.Equal(t, "Kept.", record["msg"])
	assert.Equal(t, "specctl", record["app"])
	assert.Equal(t, "a.spec", record["path"])
}

func TestNewLogger_UnknownLevelIsInfo(t *testing.T) {
	// Arrange
	buf := &SafeBuffer{}
	logger := newLogger("loud", "text", buf)

	// Act
	logger.Debug("Dropped.")
	logger.Info("Kept.")

	// Assert
	assert.NotContains(t, buf.String(), "Dropped.")
	assert.Contains(t, buf.String(), "msg=Kept.")
}
