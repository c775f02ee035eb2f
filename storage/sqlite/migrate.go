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

package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/amlog/storage"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its configuration in package globals.
var gooseMu sync.Mutex

// gooseLoggerAdapter adapts slog.Logger to goose.Logger.
type gooseLoggerAdapter struct {
	logger *slog.Logger
}

var _ goose.Logger = (*gooseLoggerAdapter)(nil)

func (gl *gooseLoggerAdapter) Printf(format string, v ...any) {
	gl.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (gl *gooseLoggerAdapter) Fatalf(format string, v ...any) {
	gl.logger.Error(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// migrate brings the schema up to date.
func migrate(db *sql.DB, logger *slog.Logger) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(&gooseLoggerAdapter{logger: logger})

	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("%w: set dialect: %w", storage.ErrMigration, err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrMigration, err)
	}
	return nil
}

// schemaVersion reports the applied migration version.
func schemaVersion(db *sql.DB) (int64, error) {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite"); err != nil {
		return 0, fmt.Errorf("%w: set dialect: %w", storage.ErrMigration, err)
	}
	return goose.GetDBVersion(db)
}
