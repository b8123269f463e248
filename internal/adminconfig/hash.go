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

package adminconfig

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

const hashPrefix = "sha256:"

// HashAPIKey returns the form of apiKey that may be stored in the key file
// instead of the plaintext.
func HashAPIKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hashPrefix + hex.EncodeToString(h[:])
}

// matches compares a presented key with a configured one in constant time.
func matches(configured, presented string) bool {
	if presented == "" {
		return false
	}
	if want, ok := strings.CutPrefix(configured, hashPrefix); ok {
		got := HashAPIKey(presented)[len(hashPrefix):]
		return subtle.ConstantTimeCompare([]byte(strings.ToLower(want)), []byte(got)) == 1
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}
