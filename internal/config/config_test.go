package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refinery/internal/composer"
	"refinery/internal/scanner"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"REFINERY_MODE", "REFINERY_ARTIST", "REFINERY_LOG_LEVEL", "REFINERY_NUKE_METADATA"} {
		t.Setenv(k, "")
	}
}

func TestLoadJSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.json", `{
		"mode": "title-only",
		"artist": "Someone",
		"extensions": [".mp3"],
		"undoDepth": 3,
		"nukeMetadata": true,
		"journal": {"enabled": true, "logDirectory": "/tmp/j"}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, composer.ModeTitleOnly, cfg.ComposeMode())
	assert.Equal(t, "Someone", cfg.Artist)
	assert.Equal(t, []string{".mp3"}, cfg.Extensions)
	assert.Equal(t, 3, cfg.UndoDepth)
	assert.True(t, cfg.NukeMetadata)
	assert.Equal(t, "/tmp/j", cfg.Journal.LogDirectory)
	assert.NotZero(t, cfg.Journal.RotationSize)
	assert.NotNil(t, cfg.Watch)
	assert.Equal(t, ColorAuto, cfg.ColorMode)
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
mode: artist
extensions: [mp3, flac]
scanDepth: 1
watch:
  debounceMs: 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, composer.ModeArtist, cfg.ComposeMode())
	assert.Equal(t, 100, cfg.Watch.DebounceMs)
	assert.NotEmpty(t, cfg.Watch.IgnorePatterns)

	opts := cfg.ScanOptions()
	assert.Equal(t, 1, opts.MaxDepth)
	assert.Equal(t, []string{"mp3", "flac"}, opts.Extensions)
}

func TestLoadErrors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, FileNotFound, cfgErr.Type)

	_, err = Load(writeFile(t, "bad.json", "{"))
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, InvalidJSON, cfgErr.Type)

	_, err = Load(writeFile(t, "bad.yml", "mode: [unterminated"))
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, InvalidYAML, cfgErr.Type)

	_, err = Load(writeFile(t, "mode.json", `{"mode": "shuffle"}`))
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ValidationError, cfgErr.Type)

	_, err = Load(writeFile(t, "undo.json", `{"undoDepth": -1}`))
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, ValidationError, cfgErr.Type)
}

func TestLoadOrCreateDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadOrCreate(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)

	assert.Equal(t, string(composer.ModeArtist), cfg.Mode)
	assert.Equal(t, scanner.DefaultAudioExtensions, cfg.Extensions)
	assert.Equal(t, 0, cfg.UndoDepth)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, scanner.SymlinkPolicySkip, cfg.SymlinkPolicy)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, -1, cfg.ScanOptions().MaxDepth)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("REFINERY_MODE", "title")
	t.Setenv("REFINERY_ARTIST", "Env Artist")
	t.Setenv("REFINERY_LOG_LEVEL", "debug")
	t.Setenv("REFINERY_NUKE_METADATA", "true")

	cfg, err := Load(writeFile(t, "c.json", `{"mode": "artist", "logLevel": "info"}`))
	require.NoError(t, err)
	assert.Equal(t, composer.ModeTitleOnly, cfg.ComposeMode())
	assert.Equal(t, "Env Artist", cfg.Artist)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.NukeMetadata)
}

func TestEnvOverrideInvalidBool(t *testing.T) {
	clearEnv(t)
	t.Setenv("REFINERY_NUKE_METADATA", "sometimes")

	_, err := LoadOrCreate(filepath.Join(t.TempDir(), "none.json"))
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Error(), "NUKE_METADATA")
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	for _, name := range []string{"nested/config.json", "nested/config.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := Default()
			cfg.Artist = "Saved"
			cfg.UndoDepth = 2

			require.NoError(t, Save(cfg, path))
			loaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, "Saved", loaded.Artist)
			assert.Equal(t, 2, loaded.UndoDepth)
			assert.Equal(t, cfg.Journal.LogDirectory, loaded.Journal.LogDirectory)
		})
	}
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, "config.json", filepath.Base(DefaultPath()))
	assert.Equal(t, "refinery", filepath.Base(filepath.Dir(DefaultPath())))
}
