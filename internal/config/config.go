// Package config loads operator defaults from an optional TOML file.
// Command-line flags always win; the file just saves retyping
// --musescore-cmd on systems where the binary is called musescore4.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds operator-tunable defaults
type Config struct {
	MuseScoreCmd string `toml:"musescore_cmd"`
	OutputDir    string `toml:"output_dir"`
	SampleRate   int    `toml:"sample_rate"`
	Python       string `toml:"python"`
}

// Default returns the built-in defaults
func Default() Config {
	return Config{
		MuseScoreCmd: "mscore",
		OutputDir:    "build",
		SampleRate:   22050,
	}
}

// DefaultPath is the conventional config file location
// (~/.config/music2score/config.toml on Linux).
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "music2score", "config.toml")
}

// Load reads the config file at path (DefaultPath when empty) on top of
// the built-in defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// normalize falls back to defaults for fields the file left empty or set
// to nonsense.
func (c *Config) normalize() {
	def := Default()
	if c.MuseScoreCmd == "" {
		c.MuseScoreCmd = def.MuseScoreCmd
	}
	if c.OutputDir == "" {
		c.OutputDir = def.OutputDir
	}
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}
}
