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

package ciphers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cardinalhq/settingsmanager/settings"
)

const keyIDSeparator = "$"

// KeyRing supports key rotation. Values are encrypted with the primary key
// and prefixed with its id; any key still in the ring can decrypt.
type KeyRing struct {
	primary string
	keys    map[string]settings.Cipher
}

var _ settings.Cipher = (*KeyRing)(nil)

// NewKeyRing builds a ring. primary must name one of keys. Key ids may not
// contain "$".
func NewKeyRing(primary string, keys map[string]settings.Cipher) (*KeyRing, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("key ring is empty")
	}
	ring := &KeyRing{primary: primary, keys: make(map[string]settings.Cipher, len(keys))}
	for id, c := range keys {
		if id == "" || strings.Contains(id, keyIDSeparator) {
			return nil, fmt.Errorf("invalid key id %q", id)
		}
		if c == nil {
			return nil, fmt.Errorf("key %q has no cipher", id)
		}
		ring.keys[id] = c
	}
	if _, ok := ring.keys[primary]; !ok {
		return nil, fmt.Errorf("primary key %q is not in the ring", primary)
	}
	return ring, nil
}

// Primary returns the id used for new ciphertext.
func (k *KeyRing) Primary() string {
	return k.primary
}

// IDs returns the key ids in the ring, sorted.
func (k *KeyRing) IDs() []string {
	ids := make([]string, 0, len(k.keys))
	for id := range k.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (k *KeyRing) Encrypt(plaintext string) (string, error) {
	ct, err := k.keys[k.primary].Encrypt(plaintext)
	if err != nil {
		return "", err
	}
	return k.primary + keyIDSeparator + ct, nil
}

func (k *KeyRing) Decrypt(ciphertext string) (string, error) {
	id, ct, ok := strings.Cut(ciphertext, keyIDSeparator)
	if !ok {
		return "", fmt.Errorf("ciphertext has no key id")
	}
	c, ok := k.keys[id]
	if !ok {
		return "", fmt.Errorf("unknown key id %q", id)
	}
	return c.Decrypt(ct)
}
