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

// Package adminconfig loads the API keys accepted by the admin API.
package adminconfig

import (
	"context"
	"os"
	"slices"
)

// Scopes granted to an API key.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
)

type AdminAPIKey struct {
	Name string `json:"name" yaml:"name"`
	// Key is the plaintext key, or "sha256:<hex>" of it.
	Key         string   `json:"key" yaml:"key"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Scopes      []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// HasScope reports whether the key grants scope. Keys with no scopes
// listed grant read and write.
func (k *AdminAPIKey) HasScope(scope string) bool {
	if len(k.Scopes) == 0 {
		return true
	}
	return slices.Contains(k.Scopes, scope)
}

type AdminConfig struct {
	APIKeys []AdminAPIKey `json:"apikeys,omitempty" yaml:"apikeys,omitempty"`
	// AllowUnauthenticated opens the API when no keys are configured.
	AllowUnauthenticated bool `json:"allow_unauthenticated,omitempty" yaml:"allow_unauthenticated,omitempty"`
}

type AdminConfigProvider interface {
	ValidateAPIKey(ctx context.Context, apiKey string) (bool, error)
	GetAPIKeyInfo(ctx context.Context, apiKey string) (*AdminAPIKey, error)
}

// DefaultConfigPath is used when neither the argument nor
// ADMIN_CONFIG_FILE names a file.
const DefaultConfigPath = "/app/config/admin.yaml"

// SetupAdminConfig loads the key file from path, ADMIN_CONFIG_FILE or
// DefaultConfigPath, in that order. "env:NAME" reads the YAML from the
// NAME environment variable.
func SetupAdminConfig(path string) (AdminConfigProvider, error) {
	if path == "" {
		path = os.Getenv("ADMIN_CONFIG_FILE")
	}
	if path == "" {
		path = DefaultConfigPath
	}
	return NewFileProvider(path)
}
