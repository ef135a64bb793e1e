package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Run     RunConfig     `toml:"run"`
	Assets  AssetsConfig  `toml:"assets"`
	Scene   SceneConfig   `toml:"scene"`
	Logging LoggingConfig `toml:"logging"`
	Input   InputConfig   `toml:"input"`
}

type RunConfig struct {
	Frames int `toml:"frames"`  // <= 0 runs until interrupted
	TickHz int `toml:"tick_hz"` // frame rate
}

type AssetsConfig struct {
	Catalog    string `toml:"catalog"`     // prefab container file
	ScriptsDir string `toml:"scripts_dir"` // lua behaviors, optional
}

type SceneConfig struct {
	Initial string `toml:"initial"` // graph name spawned at boot
}

type LoggingConfig struct {
	Level  string            `toml:"level"`
	Format string            `toml:"format"` // "json" or "console"
	File   LoggingFileConfig `toml:"file"`
}

type LoggingFileConfig struct {
	Path       string `toml:"path"` // empty = stderr only
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

type InputConfig struct {
	Presses []PressConfig `toml:"presses"`
}

// PressConfig is one scripted input event: the button reads as pressed on
// exactly that frame and held from then on, until a later event with
// release set lets go of it.
type PressConfig struct {
	Frame   int    `toml:"frame"`
	Button  string `toml:"button"`
	Release bool   `toml:"release"`
}

// TickPeriod converts tick_hz to a frame duration. A non-positive rate
// falls back to 60 Hz rather than dividing by zero.
func (r RunConfig) TickPeriod() time.Duration {
	hz := r.TickHz
	if hz <= 0 {
		hz = 60
	}
	return time.Second / time.Duration(hz)
}

// Load reads a TOML config over the defaults. A missing file is not an
// error: the defaults describe a runnable demo setup.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaults(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Run: RunConfig{
			Frames: 600,
			TickHz: 60,
		},
		Assets: AssetsConfig{
			Catalog:    "assets/prefabs.bslt",
			ScriptsDir: "scripts",
		},
		Scene: SceneConfig{
			Initial: "MenuScene",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File: LoggingFileConfig{
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 7,
			},
		},
	}
}
