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

package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/settingsmanager/ciphers"
	"github.com/cardinalhq/settingsmanager/settings"
)

// CipherConfig selects the field cipher. With neither Key nor Keys set the
// resolver runs without one and encrypted fields are rejected.
type CipherConfig struct {
	Algorithm string `mapstructure:"algorithm"`
	// Key is a single key in ciphers.ParseKey form.
	Key string `mapstructure:"key"`
	// Keys is a comma separated key ring, "id=key,id=key".
	Keys string `mapstructure:"keys"`
	// Primary names the ring key used for new ciphertext.
	Primary string `mapstructure:"primary"`
}

func (c CipherConfig) Enabled() bool {
	return c.Key != "" || c.Keys != ""
}

func (c CipherConfig) ring() (map[string]string, error) {
	out := map[string]string{}
	for _, entry := range strings.Split(c.Keys, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		id, key, ok := strings.Cut(entry, "=")
		if !ok || id == "" || key == "" {
			return nil, fmt.Errorf("cipher.keys entry %q is not id=key", entry)
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("cipher.keys lists %q twice", id)
		}
		out[id] = key
	}
	return out, nil
}

func (c CipherConfig) Validate() error {
	var errs *multierror.Error
	if c.Key != "" && c.Keys != "" {
		errs = multierror.Append(errs, errors.New("cipher.key and cipher.keys are mutually exclusive"))
	}
	if c.Keys != "" {
		ring, err := c.ring()
		if err != nil {
			errs = multierror.Append(errs, err)
		} else if _, ok := ring[c.Primary]; !ok {
			errs = multierror.Append(errs, fmt.Errorf("cipher.primary %q is not in cipher.keys", c.Primary))
		}
	}
	if c.Enabled() {
		if _, err := c.Build(); err != nil && errs == nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Build returns the configured cipher, or nil when none is configured.
func (c CipherConfig) Build() (settings.Cipher, error) {
	if c.Key != "" {
		key, err := ciphers.ParseKey(c.Key)
		if err != nil {
			return nil, fmt.Errorf("cipher.key: %w", err)
		}
		return ciphers.New(c.Algorithm, key)
	}
	if c.Keys == "" {
		return nil, nil
	}

	ring, err := c.ring()
	if err != nil {
		return nil, err
	}
	keys := make(map[string]settings.Cipher, len(ring))
	for id, encoded := range ring {
		key, err := ciphers.ParseKey(encoded)
		if err != nil {
			return nil, fmt.Errorf("cipher.keys %s: %w", id, err)
		}
		aead, err := ciphers.New(c.Algorithm, key)
		if err != nil {
			return nil, fmt.Errorf("cipher.keys %s: %w", id, err)
		}
		keys[id] = aead
	}
	return ciphers.NewKeyRing(c.Primary, keys)
}
