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

	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsmanager/config"
	"github.com/cardinalhq/settingsmanager/internal/seed"
	"github.com/cardinalhq/settingsmanager/settings"
)

func newSeedCmd() *cobra.Command {
	var (
		dryRun      bool
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "seed <file>",
		Short: "Load records from a YAML seed file",
		Long: `Writes every record in the seed file. Fields listed under "encrypt" are
encrypted with the configured cipher before they are stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			return withResolver(cmd, func(ctx context.Context, r *settings.Resolver) error {
				summary, err := applySeedFile(ctx, cfg, r, args[0], seed.Options{
					Concurrency: concurrency,
					DryRun:      dryRun,
				})
				verb := "applied"
				if dryRun {
					verb = "validated"
				}
				if _, werr := fmt.Fprintf(cmd.OutOrStdout(), "%s %d records, %d failed\n", verb, summary.Applied, summary.Failed); werr != nil {
					return werr
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "encode records without writing them")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "parallel writes")
	return cmd
}

// applySeedFile loads path and writes it through r, encrypting with the
// configured cipher.
func applySeedFile(ctx context.Context, cfg *config.Config, r *settings.Resolver, path string, opts seed.Options) (seed.Summary, error) {
	file, err := seed.Load(path)
	if err != nil {
		return seed.Summary{}, err
	}
	cipher, err := cfg.Cipher.Build()
	if err != nil {
		return seed.Summary{}, err
	}
	opts.Cipher = cipher
	return seed.Apply(ctx, r, file, opts)
}
