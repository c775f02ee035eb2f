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

package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/poiesic/amlog/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

// fatalError marks setup failures: the data directory or the store could
// not be made available.
type fatalError struct {
	err error
}

func (e *fatalError) Error() string { return e.err.Error() }
func (e *fatalError) Unwrap() error { return e.err }

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		var fatal *fatalError
		if errors.As(err, &fatal) {
			log.Fatalf("fatal: %v", err)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "amlog",
		Usage:     "Amateur radio contact log",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: <data-dir>/amlog.yaml)",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory holding the log",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Storage format (json, sqlite, adif, badger)",
			},
			&cli.StringFlag{
				Name:  "file",
				Usage: "Storage file, relative to the data directory unless absolute",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
			},
		},
		Before:   setup,
		Commands: commands(),
	}
}

// setup loads the configuration and installs the logger.
func setup(c *cli.Context) error {
	overrides := map[string]any{}
	for flag, key := range map[string]string{
		"data-dir":  "data_dir",
		"format":    "format",
		"file":      "file",
		"log-level": "log_level",
	} {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}

	cfg, err := config.Load(c.String("config"), overrides)
	if err != nil {
		return err
	}
	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg

	return setupLogger(c, cfg)
}

func setupLogger(c *cli.Context, cfg *config.Config) error {
	level, err := cfg.SlogLevel()
	if err != nil {
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", cfg.LogLevel)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if src := cfg.Source(); src != "" {
		logger.Debug("configuration loaded", "file", src)
	}
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata[configKey].(*config.Config)
}
