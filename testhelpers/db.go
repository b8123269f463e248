//go:build integration

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

// Package testhelpers creates throwaway Postgres databases for integration
// tests.
package testhelpers

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardinalhq/settingsmanager/settingsdb"
	settingsdbmigrations "github.com/cardinalhq/settingsmanager/settingsdb/migrations"
)

// SetupTestSettingsDB creates a clean settingsdb database with migrations
// applied. The database is dropped when the test finishes.
func SetupTestSettingsDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	dbName := fmt.Sprintf("test_settingsdb_%d_%d", time.Now().Unix(), rand.IntN(10000))

	basePool, err := pgxpool.New(ctx, connString(getEnvOrDefault("SETTINGSDB_DBNAME", "testing_settingsdb")))
	if err != nil {
		t.Fatalf("Failed to connect to base database: %v", err)
	}

	if _, err := basePool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", dbName)); err != nil {
		basePool.Close()
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}

	testPool, err := settingsdb.NewConnectionPool(ctx, connString(dbName))
	if err != nil {
		basePool.Close()
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	t.Cleanup(func() {
		testPool.Close()
		if _, err := basePool.Exec(context.Background(), fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)); err != nil {
			slog.Error("Failed to drop test database", slog.String("dbName", dbName), slog.Any("error", err))
		}
		basePool.Close()
	})

	if err := settingsdbmigrations.RunMigrationsUp(ctx, testPool); err != nil {
		t.Fatalf("Failed to run settingsdb migrations: %v", err)
	}

	return testPool
}

func connString(dbName string) string {
	u := &url.URL{
		Scheme: "postgresql",
		Host:   getEnvOrDefault("SETTINGSDB_HOST", "localhost") + ":" + getEnvOrDefault("SETTINGSDB_PORT", "5432"),
		Path:   dbName,
	}
	user := getEnvOrDefault("SETTINGSDB_USER", os.Getenv("USER"))
	if password := os.Getenv("SETTINGSDB_PASSWORD"); password != "" {
		u.User = url.UserPassword(user, password)
		u.RawQuery = "sslmode=disable"
	} else {
		u.User = url.User(user)
	}
	return u.String()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
