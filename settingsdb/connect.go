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

package settingsdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/settingsmanager/internal/dbopen"
	"github.com/cardinalhq/settingsmanager/migrations"
	settingsdbmigrations "github.com/cardinalhq/settingsmanager/settingsdb/migrations"
)

// EnvPrefix names the environment variables read by ConnectToSettingsDB.
const EnvPrefix = "SETTINGSDB"

// ConnectToSettingsDB opens a pool using the SETTINGSDB_* environment and
// checks that the schema is current.
func ConnectToSettingsDB(ctx context.Context, opts ...dbopen.Options) (*pgxpool.Pool, error) {
	connectionString, err := dbopen.GetDatabaseURLFromEnv(EnvPrefix)
	if err != nil {
		return nil, errors.Join(dbopen.ErrDatabaseNotConfigured, fmt.Errorf("failed to get SETTINGSDB connection string: %w", err))
	}
	return Connect(ctx, connectionString, opts...)
}

// Connect opens a pool for connectionString and checks the schema version.
func Connect(ctx context.Context, connectionString string, opts ...dbopen.Options) (*pgxpool.Pool, error) {
	pool, err := NewConnectionPool(ctx, connectionString)
	if err != nil {
		return nil, err
	}

	var checkOptions []migrations.CheckOption
	if len(opts) > 0 {
		checkOptions = opts[0].MigrationCheckOptions
	}

	if err := settingsdbmigrations.CheckVersion(ctx, pool, checkOptions...); err != nil {
		pool.Close()
		return nil, fmt.Errorf("SETTINGSDB migration version check failed: %w", err)
	}

	return pool, nil
}
