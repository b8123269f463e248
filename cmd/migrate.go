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

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsmanager/internal/dbopen"
	"github.com/cardinalhq/settingsmanager/settingsdb"
	settingsdbmigrations "github.com/cardinalhq/settingsmanager/settingsdb/migrations"
)

func newMigrateCmd() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run settingsdb migrations",
		Long:  `Applies the embedded settingsdb schema migrations to the database named by the SETTINGSDB_* environment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, doneFx, err := setupTelemetry(cmd.Context(), serviceName, false)
			if err != nil {
				return err
			}
			defer func() { _ = doneFx() }()

			ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()

			pool, err := settingsdb.ConnectToSettingsDB(ctx, dbopen.SkipMigrationCheck())
			if err != nil {
				return err
			}
			defer pool.Close()

			if checkOnly {
				if err := settingsdbmigrations.CheckVersion(ctx, pool, dbopen.WarnOnMigrationMismatch().MigrationCheckOptions...); err != nil {
					return err
				}
				latest, err := settingsdbmigrations.LatestVersion()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "settingsdb expects schema version %d\n", latest)
				return err
			}

			slog.Info("Running settingsdb migrations")
			if err := settingsdbmigrations.RunMigrationsUp(ctx, pool); err != nil {
				return fmt.Errorf("failed to migrate settingsdb: %w", err)
			}
			slog.Info("settingsdb migrations completed successfully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "report the schema version instead of migrating")
	return cmd
}
