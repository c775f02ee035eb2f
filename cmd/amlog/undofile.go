package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/poiesic/amlog"
	"github.com/poiesic/amlog/config"
	"github.com/poiesic/amlog/core"
	"github.com/poiesic/amlog/storage"
)

const undoFileName = "undo.json"

func undoPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, undoFileName)
}

// loadUndo reads the deletions remembered by earlier runs. A missing file is
// an empty buffer.
func loadUndo(cfg *config.Config) (*amlog.UndoBuffer, error) {
	data, ok, err := storage.ReadFileIfExists(undoPath(cfg))
	if err != nil {
		return nil, err
	}
	var items []core.DeletedEntry
	if ok && !storage.IsBlank(data) {
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("%w: undo history %s: %w", storage.ErrParse, undoPath(cfg), err)
		}
	}
	return amlog.RestoreUndoBuffer(cfg.UndoDepth, items), nil
}

func saveUndo(cfg *config.Config, u *amlog.UndoBuffer) error {
	items := u.Items()
	if items == nil {
		items = []core.DeletedEntry{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: undo history: %w", storage.ErrParse, err)
	}
	return storage.WriteFileAtomic(undoPath(cfg), append(data, '\n'), 0644)
}
