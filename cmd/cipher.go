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
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/settingsmanager/ciphers"
	"github.com/cardinalhq/settingsmanager/settings"
)

func newCipherCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cipher",
		Short: "Generate keys and encrypt or decrypt field values",
	}

	var asHex bool
	keygen := &cobra.Command{
		Use:   "keygen",
		Short: "Print a new random key for cipher.key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := ciphers.GenerateKey()
			if err != nil {
				return err
			}
			encoded := ciphers.EncodeKey(key)
			if asHex {
				encoded = "hex:" + hex.EncodeToString(key)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return err
		},
	}
	keygen.Flags().BoolVar(&asHex, "hex", false, "print the key as hex:<hex>")

	encrypt := &cobra.Command{
		Use:   "encrypt <plaintext>",
		Short: "Encrypt a field value with the configured cipher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := configuredCipher(cmd)
			if err != nil {
				return err
			}
			out, err := c.Encrypt(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	decrypt := &cobra.Command{
		Use:   "decrypt <ciphertext>",
		Short: "Decrypt a field value with the configured cipher",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := configuredCipher(cmd)
			if err != nil {
				return err
			}
			out, err := c.Decrypt(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.AddCommand(keygen, encrypt, decrypt)
	return cmd
}

func configuredCipher(cmd *cobra.Command) (settings.Cipher, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	c, err := cfg.Cipher.Build()
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: set cipher.key or cipher.keys", settings.ErrCipherNotConfigured)
	}
	return c, nil
}
