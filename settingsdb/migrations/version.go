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

package migrations

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/settingsmanager/migrations"
)

const dbName = "settingsdb"

// CheckVersion verifies that the settingsdb schema matches the embedded
// migrations. Behavior follows migrations.ResolveCheckOptions for the
// SETTINGSDB prefix, overridden by opts.
func CheckVersion(ctx context.Context, pool *pgxpool.Pool, opts ...migrations.CheckOption) error {
	o := migrations.ResolveCheckOptions("SETTINGSDB", opts...)
	if o.Mode == migrations.CheckModeSkip {
		slog.Debug("Migration version checking disabled", slog.String("database", dbName))
		return nil
	}

	err := waitForVersion(ctx, o, func() (uint, bool, error) {
		return currentVersion(pool)
	})
	if err != nil && o.Mode == migrations.CheckModeWarn {
		slog.Warn("Migration version mismatch, continuing",
			slog.String("database", dbName),
			slog.Any("error", err))
		return nil
	}
	return err
}

// LatestVersion returns the highest version among the embedded migrations.
func LatestVersion() (uint, error) {
	return latestVersion(migrationFiles)
}

func latestVersion(files fs.ReadDirFS) (uint, error) {
	entries, err := files.ReadDir(".")
	if err != nil {
		return 0, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var maxVersion uint
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		version, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			continue
		}
		maxVersion = max(maxVersion, uint(version))
	}

	if maxVersion == 0 {
		return 0, errors.New("no valid migration files found")
	}
	return maxVersion, nil
}

func currentVersion(pool *pgxpool.Pool) (uint, bool, error) {
	m, closeFn, err := newMigrate(pool)
	if err != nil {
		return 0, false, err
	}
	defer closeFn()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, dirty, nil
}

// waitForVersion polls current until it reports the latest embedded
// version, the timeout passes, or ctx ends.
func waitForVersion(ctx context.Context, o migrations.CheckOptions, current func() (uint, bool, error)) error {
	expected, err := LatestVersion()
	if err != nil {
		return fmt.Errorf("failed to extract expected migration version for %s: %w", dbName, err)
	}

	deadline := time.Now().Add(o.Timeout)
	ticker := time.NewTicker(o.RetryInterval)
	defer ticker.Stop()

	for {
		version, dirty, err := current()
		if err != nil {
			return fmt.Errorf("failed to get current migration version for %s: %w", dbName, err)
		}
		if dirty && !o.AllowDirty {
			return fmt.Errorf("database %s migration is in dirty state, please fix before proceeding", dbName)
		}

		switch {
		case version == expected:
			slog.Info("Migration version check passed",
				slog.String("database", dbName),
				slog.Uint64("version", uint64(version)))
			return nil
		case version > expected:
			return fmt.Errorf("database %s version %d is newer than expected version %d - you may need to update the application",
				dbName, version, expected)
		case time.Now().After(deadline):
			return fmt.Errorf("timeout waiting for %s migration to complete: current version %d, expected %d",
				dbName, version, expected)
		}

		slog.Info("Waiting for migrations to complete",
			slog.String("database", dbName),
			slog.Uint64("current_version", uint64(version)),
			slog.Uint64("expected_version", uint64(expected)))

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while waiting for %s migrations: %w", dbName, ctx.Err())
		case <-ticker.C:
		}
	}
}
