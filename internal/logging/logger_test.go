package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rrens/sign-gateway/internal/config"
)

func TestUseConsole(t *testing.T) {
	assert.True(t, useConsole("", false))
	assert.False(t, useConsole("", true))
	assert.False(t, useConsole("json", false))
	assert.True(t, useConsole("console", true))
}

func TestSetup_Level(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	closer, err := Setup(config.LoggingConfig{Level: "warn"}, true)
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	closer, err = Setup(config.LoggingConfig{Level: "nonsense"}, true)
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestSetup_File(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	path := filepath.Join(t.TempDir(), "logs", "gateway.log")
	closer, err := Setup(config.LoggingConfig{Level: "info", Format: "json", File: path}, true)
	require.NoError(t, err)

	log.Info().Str("component", "test").Msg("hello rotated file")
	require.NoError(t, closer.Close())

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "gateway.*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello rotated file")
}
