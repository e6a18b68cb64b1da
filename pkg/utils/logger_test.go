package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	logger, err := NewLogger(LoggerConfig{Level: "debug", OutputPath: path, Format: "json"})
	require.NoError(t, err)

	logger.Info("Bill generated")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"Bill generated"`)
	assert.Contains(t, string(content), `"timestamp"`)
}

func TestNewLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "loud", OutputPath: "stderr", Format: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(-1)) // debug
	assert.True(t, logger.Core().Enabled(0))   // info
}

func TestNewCLILogger(t *testing.T) {
	quiet, err := NewCLILogger(false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(0))

	verbose, err := NewCLILogger(true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(-1))
}
