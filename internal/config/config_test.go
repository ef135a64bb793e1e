package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 600, cfg.Run.Frames)
	assert.Equal(t, 60, cfg.Run.TickHz)
	assert.Equal(t, "MenuScene", cfg.Scene.Initial)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Empty(t, cfg.Logging.File.Path)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basalt.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[run]
frames = 0
tick_hz = 30

[scene]
initial = "GameScene"

[logging]
level = "debug"

[logging.file]
path = "basalt.log"

[[input.presses]]
frame = 30
button = "START"

[[input.presses]]
frame = 45
button = "START"
release = true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Run.Frames)
	assert.Equal(t, 30, cfg.Run.TickHz)
	assert.Equal(t, "GameScene", cfg.Scene.Initial)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "basalt.log", cfg.Logging.File.Path)
	// untouched keys keep their defaults
	assert.Equal(t, "assets/prefabs.bslt", cfg.Assets.Catalog)
	assert.Equal(t, 50, cfg.Logging.File.MaxSizeMB)

	require.Len(t, cfg.Input.Presses, 2)
	assert.Equal(t, PressConfig{Frame: 30, Button: "START"}, cfg.Input.Presses[0])
	assert.Equal(t, PressConfig{Frame: 45, Button: "START", Release: true}, cfg.Input.Presses[1])
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[run`), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestTickPeriod(t *testing.T) {
	assert.Equal(t, time.Second/60, RunConfig{TickHz: 60}.TickPeriod())
	assert.Equal(t, time.Second/30, RunConfig{TickHz: 30}.TickPeriod())
	assert.Equal(t, time.Second/60, RunConfig{}.TickPeriod(), "zero rate clamps to 60")
}
