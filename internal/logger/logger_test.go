package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/SergeiKhy/visitor-analytics/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collector.log")

	log, err := New(config.LogConfig{Level: "debug", File: path})
	require.NoError(t, err)

	log.Info("visit tracked")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visit tracked")
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log, err := New(config.LogConfig{Level: "loud"})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(-1)) // debug
	assert.True(t, log.Core().Enabled(0))   // info
}
