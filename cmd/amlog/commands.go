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
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/amlog"
	"github.com/poiesic/amlog/adif"
	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
	"github.com/urfave/cli/v2"
)

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "list",
			Usage:  "List logged contacts in storage order",
			Action: listCommand,
		},
		{
			Name:      "show",
			Usage:     "Show every field of one contact",
			ArgsUsage: "ID",
			Action:    showCommand,
		},
		{
			Name:   "add",
			Usage:  "Log a new contact",
			Flags:  entryFlags(true),
			Action: addCommand,
		},
		{
			Name:      "update",
			Usage:     "Change fields of an existing contact",
			ArgsUsage: "ID",
			Flags:     entryFlags(false),
			Action:    updateCommand,
		},
		{
			Name:      "delete",
			Usage:     "Delete a contact (undoable)",
			ArgsUsage: "ID",
			Action:    deleteCommand,
		},
		{
			Name:   "undo",
			Usage:  "Restore the most recently deleted contact",
			Action: undoCommand,
		},
		{
			Name:  "clear",
			Usage: "Delete every contact",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "yes",
					Usage: "Confirm deleting the whole log",
				},
			},
			Action: clearCommand,
		},
		{
			Name:      "import",
			Usage:     "Import contacts from an ADIF file (- for stdin)",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "policy",
					Usage: "What to do with invalid records (skip, abort)",
				},
				&cli.IntFlag{
					Name:  "workers",
					Usage: "Number of decode workers (default: one per CPU)",
				},
			},
			Action: importCommand,
		},
		{
			Name:  "export",
			Usage: "Export the log as ADIF",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Usage:   "Write to a file instead of stdout",
				},
			},
			Action: exportCommand,
		},
		{
			Name:  "migrate",
			Usage: "Move the log to another storage format",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "to",
					Usage:    "Target format (json, sqlite, adif, badger)",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "to-file",
					Usage: "Target file, relative to the data directory unless absolute",
				},
			},
			Action: migrateCommand,
		},
		{
			Name:   "info",
			Usage:  "Show where the log is stored",
			Action: infoCommand,
		},
	}
}

// openManager opens the configured store. Failing to create the data
// directory or to open the store is fatal; a store recovered from a corrupt
// file is reported and used.
func openManager(c *cli.Context, opts ...amlog.Option) (*amlog.Manager, error) {
	cfg := configFrom(c)
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, &fatalError{err}
	}

	format, err := cfg.StorageFormat()
	if err != nil {
		return nil, err
	}
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	opts = append([]amlog.Option{
		amlog.WithLogger(slog.Default()),
		amlog.WithDecodeOptions(adif.WithPolicy(policy)),
	}, opts...)

	m, err := amlog.NewManager(c.Context, format, path, opts...)
	if m == nil {
		return nil, &fatalError{fmt.Errorf("cannot open %s storage at %s: %w", format, path, err)}
	}
	if err != nil {
		fmt.Fprintf(c.App.ErrWriter, "warning: %v\n", err)
	}
	return m, nil
}

func requireID(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("%s: exactly one entry ID is required", c.Command.Name)
	}
	return strings.TrimSpace(c.Args().First()), nil
}

func listCommand(c *cli.Context) error {
	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	entries, err := m.ListEntries(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	renderEntries(c.App.Writer, entries)
	return nil
}

func showCommand(c *cli.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	entry, err := m.GetEntry(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to read entry: %w", err)
	}
	if entry == nil {
		return fmt.Errorf("entry %s: %w", id, storage.ErrNotFound)
	}
	renderEntry(c.App.Writer, *entry)
	return nil
}

func addCommand(c *cli.Context) error {
	entry := core.LogEntry{
		ID:        core.NewID(),
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	if err := applyEntryFlags(c, &entry); err != nil {
		return err
	}

	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.AddEntry(c.Context, entry); err != nil {
		return fmt.Errorf("failed to add entry: %w", err)
	}
	fmt.Fprintln(c.App.Writer, entry.ID)
	return nil
}

func updateCommand(c *cli.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	entry, err := m.GetEntry(c.Context, id)
	if err != nil {
		return fmt.Errorf("failed to read entry: %w", err)
	}
	if entry == nil {
		return fmt.Errorf("entry %s: %w", id, storage.ErrNotFound)
	}
	if err := applyEntryFlags(c, entry); err != nil {
		return err
	}
	if err := m.UpdateEntry(c.Context, *entry); err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	id, err := requireID(c)
	if err != nil {
		return err
	}
	cfg := configFrom(c)
	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	if cfg.UndoDepth == 0 {
		if err := m.DeleteEntry(c.Context, id); err != nil {
			return fmt.Errorf("failed to delete entry: %w", err)
		}
		return nil
	}

	undo, err := loadUndo(cfg)
	if err != nil {
		return err
	}
	view, err := m.ListEntries(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	index := slices.IndexFunc(view, func(e core.LogEntry) bool { return e.ID == id })
	if index < 0 {
		return fmt.Errorf("entry %s: %w", id, storage.ErrNotFound)
	}
	if _, err := undo.Delete(c.Context, m, view, index); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if err := saveUndo(cfg, undo); err != nil {
		slog.Warn("entry deleted but undo history not saved", "id", id, "err", err)
	}
	return nil
}

func undoCommand(c *cli.Context) error {
	cfg := configFrom(c)
	undo, err := loadUndo(cfg)
	if err != nil {
		return err
	}
	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	view, err := m.ListEntries(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	_, item, err := undo.Undo(c.Context, m, view)
	if err != nil {
		return fmt.Errorf("undo failed: %w", err)
	}
	if err := saveUndo(cfg, undo); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Restored %s (%s), deleted %s\n",
		item.Entry.Callsign, item.Entry.ID, item.DeletedAt.Format(time.RFC3339))
	return nil
}

func clearCommand(c *cli.Context) error {
	if !c.Bool("yes") {
		return errors.New("clear deletes every entry and cannot be undone; pass --yes to confirm")
	}
	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Clear(c.Context); err != nil {
		return fmt.Errorf("failed to clear log: %w", err)
	}
	return nil
}

func importCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("import: an ADIF file (or - for stdin) is required")
	}
	name := c.Args().First()

	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(c.App.Reader)
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return storage.WrapIO("read "+name, err)
	}

	var decodeOpts []adif.Option
	if c.IsSet("policy") {
		policy, err := adif.ParsePolicy(c.String("policy"))
		if err != nil {
			return err
		}
		decodeOpts = append(decodeOpts, adif.WithPolicy(policy))
	}
	if c.IsSet("workers") {
		decodeOpts = append(decodeOpts, adif.WithWorkers(c.Int("workers")))
	}

	m, err := openManager(c, amlog.WithDecodeOptions(decodeOpts...))
	if err != nil {
		return err
	}
	defer m.Close()

	result, err := m.ImportADIF(c.Context, string(data))
	if result != nil {
		for _, skipped := range result.Skipped {
			fmt.Fprintf(c.App.ErrWriter, "skipped %v\n", skipped)
		}
		fmt.Fprintf(c.App.Writer, "Imported %d entries, skipped %d\n", result.Imported, len(result.Skipped))
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	return nil
}

func exportCommand(c *cli.Context) error {
	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	out, err := m.ExportADIF(c.Context)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	if path := c.String("output"); path != "" {
		if err := storage.EnsureParentDir(path); err != nil {
			return err
		}
		return storage.WriteFileAtomic(path, []byte(out), 0644)
	}
	_, err = io.WriteString(c.App.Writer, out)
	return err
}

func migrateCommand(c *cli.Context) error {
	cfg := configFrom(c)
	format, err := storage.ParseFormat(c.String("to"))
	if err != nil {
		return err
	}
	path := cfg.PathFor(format, c.String("to-file"))

	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	from, fromPath := m.Format(), m.Path()
	if err := m.ChangeStorageFormat(c.Context, format, path); err != nil {
		var partial *amlog.MigrationError
		if errors.As(err, &partial) {
			fmt.Fprintf(c.App.ErrWriter, "%d of %d entries were copied to %s before the failure; %s is unchanged\n",
				partial.Replayed, partial.Total, path, fromPath)
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Migrated %s (%s) to %s (%s)\n", fromPath, from, path, format)
	fmt.Fprintf(c.App.Writer, "Set format: %s and file: %s in your configuration to keep using it\n", format, path)
	return nil
}

func infoCommand(c *cli.Context) error {
	cfg := configFrom(c)
	m, err := openManager(c)
	if err != nil {
		return err
	}
	defer m.Close()

	entries, err := m.ListEntries(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}
	undo, err := loadUndo(cfg)
	if err != nil {
		return err
	}

	source := cfg.Source()
	if source == "" {
		source = "(none)"
	}
	w := c.App.Writer
	fmt.Fprintf(w, "Config:   %s\n", source)
	fmt.Fprintf(w, "Data dir: %s\n", cfg.DataDir)
	fmt.Fprintf(w, "Format:   %s\n", m.Format())
	fmt.Fprintf(w, "Path:     %s\n", m.Path())
	fmt.Fprintf(w, "Entries:  %d\n", len(entries))
	fmt.Fprintf(w, "Undo:     %d of %d\n", undo.Len(), cfg.UndoDepth)
	return nil
}
