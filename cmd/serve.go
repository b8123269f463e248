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
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsmanager/internal/adminapi"
	"github.com/cardinalhq/settingsmanager/internal/adminconfig"
	"github.com/cardinalhq/settingsmanager/internal/debugging"
	"github.com/cardinalhq/settingsmanager/internal/healthcheck"
	"github.com/cardinalhq/settingsmanager/internal/seed"
)

func newServeCmd() *cobra.Command {
	var seedFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin HTTP API",
		Long:  `Serves the admin API over the configured storage, with health probes on a separate port.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, doneFx, err := setupTelemetry(cmd.Context(), serviceName, cfg.Debug)
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}
			defer func() {
				if err := doneFx(); err != nil {
					slog.Error("Error shutting down telemetry", slog.Any("error", err))
				}
			}()

			debugging.RunPprof(ctx, cfg.Pprof)

			healthServer := healthcheck.NewServer(cfg.Health)
			go func() {
				if err := healthServer.Start(ctx); err != nil {
					slog.Error("Health check server stopped", slog.Any("error", err))
				}
			}()

			resolver, b, err := openResolver(ctx, cfg)
			if err != nil {
				healthServer.SetStatus(healthcheck.StatusUnhealthy)
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() {
				if err := b.Close(); err != nil {
					slog.Error("Error closing storage", slog.Any("error", err))
				}
			}()
			healthServer.AddReadinessCheck("storage", healthcheck.StorageCheck(b.storage))

			if seedFile != "" {
				summary, err := applySeedFile(ctx, cfg, resolver, seedFile, seed.Options{})
				slog.Info("Applied seed file",
					slog.String("path", seedFile),
					slog.Int("applied", summary.Applied),
					slog.Int("failed", summary.Failed))
				if err != nil {
					return fmt.Errorf("seed %s: %w", seedFile, err)
				}
			}

			auth, err := adminconfig.SetupAdminConfig(cfg.Admin.ConfigFile)
			if err != nil {
				return fmt.Errorf("failed to load admin config: %w", err)
			}

			server, err := adminapi.NewServer(cfg.Admin, resolver, auth)
			if err != nil {
				return err
			}

			healthServer.SetStatus(healthcheck.StatusHealthy)
			healthServer.SetReady(true)

			if err := server.Run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					slog.Info("Shutting down", slog.Any("error", err))
					return nil
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&seedFile, "seed", "", "apply this seed file before serving")
	return cmd
}
