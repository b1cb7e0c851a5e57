package netsynth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultSettingsAreValid(t *testing.T) {
	settings := DefaultSettings()
	require.NoError(t, settings.Validate())
	assert.Equal(t, 5, settings.Sampling.Sources)
	assert.Equal(t, 2, settings.Sampling.Span)
	assert.Equal(t, 0.8, settings.Paths.BalanceThreshold)
	assert.Equal(t, 30.0, settings.RecoverySeconds)
}

func TestLoadSettingsWithoutFile(t *testing.T) {
	settings, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), settings)
}

func TestLoadSettingsFileThenEnv(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "netsynth.yaml")
	config := `
sampling:
  sources: 8
  span: 3
paths:
  max_simple_paths: 12
overload:
  high_pct: 300
recovery_seconds: 12.5
log:
  format: console
`
	require.NoError(t, os.WriteFile(filename, []byte(config), 0o644))
	t.Setenv("NETSYNTH_SAMPLING_SOURCES", "11")
	t.Setenv("NETSYNTH_LOG_LEVEL", "debug")

	settings, err := LoadSettings(filename)
	require.NoError(t, err)

	assert.Equal(t, 11, settings.Sampling.Sources)
	assert.Equal(t, 3, settings.Sampling.Span)
	assert.Equal(t, 12, settings.Paths.MaxSimplePaths)
	assert.Equal(t, 5, settings.Paths.HopCutoff)
	assert.Equal(t, 150.0, settings.Overload.MediumPct)
	assert.Equal(t, 300.0, settings.Overload.HighPct)
	assert.Equal(t, 12.5, settings.RecoverySeconds)
	assert.Equal(t, 45.0, settings.MultiRecoverySeconds)
	assert.Equal(t, "debug", settings.Log.Level)
	assert.Equal(t, "console", settings.Log.Format)
}

func TestLoadSettingsRejects(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSettings(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("overload:\n  medium_pct: 400\n"), 0o644))
	_, err = LoadSettings(bad)
	assert.Error(t, err, "medium above high")

	t.Setenv("NETSYNTH_LOG_LEVEL", "chatty")
	_, err = LoadSettings("")
	assert.Error(t, err)
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name  string
		alter func(*Settings)
	}{
		{"no sources", func(s *Settings) { s.Sampling.Sources = 0 }},
		{"threshold above one", func(s *Settings) { s.Paths.BalanceThreshold = 1.5 }},
		{"medium at average", func(s *Settings) { s.Overload.MediumPct = 100 }},
		{"no recovery time", func(s *Settings) { s.RecoverySeconds = 0 }},
		{"unknown format", func(s *Settings) { s.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			tt.alter(&settings)
			assert.Error(t, settings.Validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := NewLogger(LogSettings{Level: "warn", Format: format})
		require.NoError(t, err)
		assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	}
	_, err := NewLogger(LogSettings{Level: "loud", Format: "json"})
	assert.Error(t, err)
}
