// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package sqlitestore keeps records in a single SQLite file, for
// single-node deployments and the CLI.
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cardinalhq/settingsmanager/settings"
)

//go:embed schema.sql
var schemaSQL string

// Store is a settings.Storage backed by SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ settings.Storage = (*Store)(nil)
	_ settings.Deleter = (*Store)(nil)
	_ settings.Lister  = (*Store)(nil)
)

// Open creates or opens the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases from splitting per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) TryGet(ctx context.Context, key string, tenant uuid.UUID) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM settings WHERE key = ? AND tenant_id = ?",
		key, tenant.String()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) Put(ctx context.Context, key string, tenant uuid.UUID, value string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO settings (key, tenant_id, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (key, tenant_id)
DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, tenant.String(), value, s.now().UnixMilli())
	return err
}

func (s *Store) Delete(ctx context.Context, key string, tenant uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM settings WHERE key = ? AND tenant_id = ?",
		key, tenant.String())
	return err
}

func (s *Store) List(ctx context.Context, tenant uuid.UUID) ([]settings.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, value FROM settings WHERE tenant_id = ? ORDER BY key",
		tenant.String())
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []settings.Record
	for rows.Next() {
		rec := settings.Record{Tenant: tenant}
		if err := rows.Scan(&rec.Key, &rec.Value); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
