// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads amlog settings from defaults, an optional YAML file,
// AMLOG_* environment variables and explicit overrides, in rising order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/poiesic/amlog/adif"
	"github.com/poiesic/amlog/storage"
)

const (
	// FileName is the config file looked up in the data directory.
	FileName = "amlog.yaml"

	// EnvPrefix prefixes environment overrides, e.g. AMLOG_FORMAT=sqlite.
	EnvPrefix = "AMLOG_"

	appDirName = "amlog"
)

// Config holds amlog settings.
type Config struct {
	// DataDir holds the log and its config file.
	// Default: $XDG_DATA_HOME/amlog, or ~/.local/share/amlog
	DataDir string `koanf:"data_dir"`

	// Format is the storage format name: json, sqlite, adif or badger.
	// Default: json
	Format string `koanf:"format"`

	// File is the storage path. Relative paths are resolved against DataDir.
	// Empty selects the format's default file name.
	File string `koanf:"file"`

	// LogLevel is one of debug, info, warn, error.
	// Default: info
	LogLevel string `koanf:"log_level"`

	// ImportPolicy decides what ADIF import does with invalid records:
	// skip or abort.
	// Default: skip
	ImportPolicy string `koanf:"import_policy"`

	// UndoDepth bounds how many deletions can be undone. Zero disables undo.
	// Default: 20
	UndoDepth int `koanf:"undo_depth"`

	source string
}

// DefaultDataDir returns the platform data directory for amlog.
func DefaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: cannot locate home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appDirName), nil
}

// DefaultConfig returns the built-in settings. DataDir is left empty if no
// home directory can be found.
func DefaultConfig() *Config {
	dataDir, _ := DefaultDataDir()
	return &Config{
		DataDir:      dataDir,
		Format:       storage.FormatJSON.String(),
		LogLevel:     "info",
		ImportPolicy: adif.SkipInvalid.String(),
		UndoDepth:    20,
	}
}

func (c *Config) toMap() map[string]any {
	return map[string]any{
		"data_dir":      c.DataDir,
		"format":        c.Format,
		"file":          c.File,
		"log_level":     c.LogLevel,
		"import_policy": c.ImportPolicy,
		"undo_depth":    c.UndoDepth,
	}
}

// Normalize puts the configuration in canonical form.
func (c *Config) Normalize() {
	c.DataDir = strings.TrimSpace(c.DataDir)
	c.Format = strings.ToLower(strings.TrimSpace(c.Format))
	c.File = strings.TrimSpace(c.File)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.ImportPolicy = strings.ToLower(strings.TrimSpace(c.ImportPolicy))
}

// Validate checks that the configuration is valid and complete.
// It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.DataDir == "" {
		return errors.New("config: data_dir is required")
	}
	if _, err := storage.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("config: format: %w", err)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	if _, err := adif.ParsePolicy(c.ImportPolicy); err != nil {
		return fmt.Errorf("config: import_policy: %w", err)
	}
	if c.UndoDepth < 0 {
		return errors.New("config: undo_depth must not be negative")
	}
	return nil
}

// StorageFormat returns the parsed Format.
func (c *Config) StorageFormat() (storage.Format, error) {
	return storage.ParseFormat(c.Format)
}

// Policy returns the parsed import policy.
func (c *Config) Policy() (adif.Policy, error) {
	return adif.ParsePolicy(c.ImportPolicy)
}

// SlogLevel returns the parsed log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	return ParseLogLevel(c.LogLevel)
}

// StoragePath returns where the log lives.
func (c *Config) StoragePath() (string, error) {
	format, err := c.StorageFormat()
	if err != nil {
		return "", err
	}
	return c.PathFor(format, c.File), nil
}

// PathFor resolves name for format: empty selects format's default file
// name and relative names are placed in DataDir.
func (c *Config) PathFor(format storage.Format, name string) string {
	if name == "" {
		name = format.DefaultFileName()
	}
	if name == ":memory:" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// EnsureDataDir creates DataDir if needed.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return storage.WrapIO("create data directory "+c.DataDir, err)
	}
	return nil
}

// Source returns the config file the settings were read from, if any.
func (c *Config) Source() string {
	return c.source
}

// ParseLogLevel maps debug, info, warn or error to a slog.Level.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

func envKey(s string) string {
	return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
}

// findConfigFile resolves data_dir from defaultDir and the given layers, in
// increasing precedence, and returns <data_dir>/amlog.yaml if it exists.
func findConfigFile(defaultDir string, layers ...koanf.Provider) (string, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(map[string]any{"data_dir": defaultDir}, "."), nil); err != nil {
		return "", fmt.Errorf("config: load defaults: %w", err)
	}
	for _, p := range layers {
		if err := k.Load(p, nil); err != nil {
			return "", fmt.Errorf("config: resolve data_dir: %w", err)
		}
	}
	dir := k.String("data_dir")
	if dir == "" {
		return "", nil
	}
	candidate := filepath.Join(dir, FileName)
	if _, err := os.Stat(candidate); err != nil {
		return "", nil
	}
	return candidate, nil
}

// Load builds the configuration.
//
// Precedence, highest first: overrides, AMLOG_* environment variables, the
// config file, defaults. cfgFile names the config file explicitly and must
// exist; when empty, <data_dir>/amlog.yaml is read if present. Keys in
// overrides use the koanf names, e.g. "format".
func Load(cfgFile string, overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(DefaultConfig().toMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	envProvider := env.Provider(EnvPrefix, ".", envKey)
	overrideProvider := confmap.Provider(overrides, ".")

	// 2. Config file. Its default location depends on data_dir, which the
	// environment or overrides may move.
	if cfgFile == "" {
		found, err := findConfigFile(k.String("data_dir"), envProvider, overrideProvider)
		if err != nil {
			return nil, err
		}
		cfgFile = found
	} else if _, err := os.Stat(cfgFile); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: error reading %s: %w", cfgFile, err)
		}
	}

	// 3. Environment
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load env vars: %w", err)
	}

	// 4. Overrides
	if len(overrides) > 0 {
		if err := k.Load(overrideProvider, nil); err != nil {
			return nil, fmt.Errorf("config: load overrides: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.source = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
