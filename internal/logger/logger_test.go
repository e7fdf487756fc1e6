package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelAndJSON(t *testing.T) {
	var buf bytes.Buffer
	l, closer, err := New(Options{Level: "warn", Out: &buf})
	require.NoError(t, err)
	defer closer.Close()

	l.Info().Msg("hidden")
	l.Warn().Str("api", "geocoding").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"api":"geocoding"`)
	assert.Contains(t, buf.String(), `"message":"shown"`)
	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, _, err := New(Options{Level: "chatty", Out: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mapsctl.log")
	l, closer, err := New(Options{Level: "debug", File: path, MaxSizeMB: 1, Out: &bytes.Buffer{}})
	require.NoError(t, err)

	l.Debug().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
