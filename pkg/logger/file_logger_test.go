package logger_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nazarious-ucu/weather-voice-assistant/pkg/logger"
)

func TestNewFileLogger_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "http.log")

	l, err := logger.NewFileLogger(path)
	require.NoError(t, err)

	l.Info("outbound request")
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"outbound request"`)
}

func TestNewFileLogger_EmptyPathIsNop(t *testing.T) {
	l, err := logger.NewFileLogger("")
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestNewLogger_ConsoleOnly(t *testing.T) {
	l, err := logger.NewLogger("", "logger_test")
	require.NoError(t, err)
	l.Info().Msg("hello")
}
