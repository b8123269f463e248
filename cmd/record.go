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
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsmanager/settings"
)

var outputJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// withResolver loads configuration, sets up logging and storage, and runs
// fn with a resolver that is released afterwards.
func withResolver(cmd *cobra.Command, fn func(ctx context.Context, r *settings.Resolver) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, doneFx, err := setupTelemetry(cmd.Context(), serviceName, cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = doneFx() }()

	r, b, err := openResolver(ctx, cfg)
	if err != nil {
		return err
	}
	err = fn(ctx, r)
	return errors.Join(err, b.Close())
}

func tenantFlag(cmd *cobra.Command) (uuid.UUID, error) {
	value, _ := cmd.Flags().GetString("tenant")
	tenant, err := settings.ParseTenant(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid --tenant: %w", err)
	}
	return tenant, nil
}

func addTenantFlag(cmd *cobra.Command) {
	cmd.Flags().String("tenant", "global", "tenant id, or \"global\"")
}

func writeJSON(w io.Writer, v any) error {
	b, err := outputJSON.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

type recordOutput struct {
	Key      string              `json:"key"`
	TenantID string              `json:"tenant_id"`
	Fallback bool                `json:"fallback,omitempty"`
	Value    jsoniter.RawMessage `json:"value"`
}

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Read and write raw records",
	}
	cmd.AddCommand(
		newRecordGetCmd(),
		newRecordPutCmd(),
		newRecordDeleteCmd(),
		newRecordResolveCmd(),
		newRecordListCmd(),
	)
	return cmd
}

func newRecordGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the payload stored for a key and tenant, without fallback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := tenantFlag(cmd)
			if err != nil {
				return err
			}
			return withResolver(cmd, func(ctx context.Context, r *settings.Resolver) error {
				raw, ok, err := r.GetRaw(ctx, args[0], tenant)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no record for %q at tenant %s", args[0], tenant)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), raw)
				return err
			})
		},
	}
	addTenantFlag(cmd)
	return cmd
}

func readPayload(cmd *cobra.Command, args []string) (string, error) {
	file, _ := cmd.Flags().GetString("file")
	switch {
	case len(args) > 1 && file != "":
		return "", errors.New("give the payload as an argument or with --file, not both")
	case len(args) > 1:
		return args[1], nil
	case file == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		return strings.TrimSpace(string(b)), err
	case file != "":
		b, err := os.ReadFile(file)
		return strings.TrimSpace(string(b)), err
	default:
		return "", errors.New("missing payload")
	}
}

func newRecordPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <key> [payload]",
		Short: "Store a JSON payload for a key and tenant",
		Long: `Stores the payload as given. Encrypted fields must already be ciphertext;
use "seed" to encrypt plaintext fields on the way in.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := tenantFlag(cmd)
			if err != nil {
				return err
			}
			payload, err := readPayload(cmd, args)
			if err != nil {
				return err
			}
			return withResolver(cmd, func(ctx context.Context, r *settings.Resolver) error {
				return r.PutRaw(ctx, args[0], tenant, payload)
			})
		},
	}
	addTenantFlag(cmd)
	cmd.Flags().StringP("file", "f", "", "read the payload from a file, or - for stdin")
	return cmd
}

func newRecordDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete the record for a key and tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := tenantFlag(cmd)
			if err != nil {
				return err
			}
			return withResolver(cmd, func(ctx context.Context, r *settings.Resolver) error {
				return r.Delete(ctx, args[0], tenant)
			})
		},
	}
	addTenantFlag(cmd)
	return cmd
}

func newRecordResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <key>",
		Short: "Resolve a key for a tenant, falling back to the global default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant, err := tenantFlag(cmd)
			if err != nil {
				return err
			}
			return withResolver(cmd, func(ctx context.Context, r *settings.Resolver) error {
				res, err := r.ResolveRaw(ctx, args[0], tenant)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), recordOutput{
					Key:      args[0],
					TenantID: res.Tenant.String(),
					Fallback: res.Fallback() && !settings.IsGlobal(tenant),
					Value:    jsoniter.RawMessage(res.Payload),
				})
			})
		},
	}
	addTenantFlag(cmd)
	return cmd
}

func newRecordListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the records stored for a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tenant, err := tenantFlag(cmd)
			if err != nil {
				return err
			}
			return withResolver(cmd, func(ctx context.Context, r *settings.Resolver) error {
				records, err := r.List(ctx, tenant)
				if err != nil {
					return err
				}
				out := make([]recordOutput, 0, len(records))
				for _, rec := range records {
					out = append(out, recordOutput{
						Key:      rec.Key,
						TenantID: rec.Tenant.String(),
						Value:    jsoniter.RawMessage(rec.Value),
					})
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	addTenantFlag(cmd)
	return cmd
}
