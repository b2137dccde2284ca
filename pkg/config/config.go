// Package config loads the command-line tool's settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"github.com/nwtools/wadtools/pkg/backup"
	"github.com/nwtools/wadtools/pkg/wad"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "wadtool.yaml"

// Config holds the tool's settings.
type Config struct {
	// IWADs lists the primary archive names searched for, in order, when
	// none is given on the command line.
	IWADs     []string `yaml:"iwads"`
	ChunkSize int      `yaml:"chunk_size"`
	InPlace   bool     `yaml:"in_place"`
	LogLevel  string   `yaml:"log_level"`
	Backup    Backup   `yaml:"backup"`
}

// Backup configures snapshots taken before compaction.
type Backup struct {
	Codec string `yaml:"codec"`
	Level int    `yaml:"level"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		IWADs:     []string{"DOOM2.WAD", "DOOM.WAD", "HERETIC.WAD"},
		ChunkSize: wad.DefaultChunkSize,
		LogLevel:  "info",
		Backup: Backup{
			Codec: "zstd",
			Level: backup.DefaultLevel,
		},
	}
}

// Load reads the file at path over the defaults. A missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings for validity.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	if _, err := backup.ParseCodec(c.Backup.Codec); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// FindIWAD returns the first configured primary archive present in dir.
func (c *Config) FindIWAD(dir string) (string, error) {
	for _, name := range c.IWADs {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("no primary archive found in %s (looked for %v)", dir, c.IWADs)
}
