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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownAPIKey is returned by GetAPIKeyInfo for keys not in the file.
var ErrUnknownAPIKey = errors.New("API key not found")

type fileProvider struct {
	config AdminConfig
}

var _ AdminConfigProvider = (*fileProvider)(nil)

// NewFileProvider reads filename, or the environment variable named after
// an "env:" prefix. A missing file yields a provider that rejects every key.
func NewFileProvider(filename string) (AdminConfigProvider, error) {
	if envVar, ok := strings.CutPrefix(filename, "env:"); ok {
		contents := os.Getenv(envVar)
		if contents == "" {
			return nil, fmt.Errorf("environment variable %s is not set", envVar)
		}
		return newFileProviderFromContents(filename, []byte(contents))
	}

	contents, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileProvider{}, nil
		}
		return nil, fmt.Errorf("failed to read admin config from file %s: %w", filename, err)
	}

	return newFileProviderFromContents(filename, contents)
}

// NewStaticProvider serves a fixed configuration.
func NewStaticProvider(config AdminConfig) AdminConfigProvider {
	return &fileProvider{config: config}
}

func newFileProviderFromContents(filename string, contents []byte) (AdminConfigProvider, error) {
	var config AdminConfig

	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(false)
	if err := dec.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal admin config from file %s: %w", filename, err)
	}

	for i, key := range config.APIKeys {
		if key.Key == "" {
			return nil, fmt.Errorf("admin config %s: apikeys[%d] (%s) has no key", filename, i, key.Name)
		}
	}

	return &fileProvider{config: config}, nil
}

func (p *fileProvider) ValidateAPIKey(ctx context.Context, apiKey string) (bool, error) {
	if len(p.config.APIKeys) == 0 {
		return p.config.AllowUnauthenticated, nil
	}
	return p.find(apiKey) != nil, nil
}

// GetAPIKeyInfo returns the name, description and scopes of apiKey. The
// key itself is never returned. With no keys configured and
// AllowUnauthenticated set, every caller is "anonymous" with full scope.
func (p *fileProvider) GetAPIKeyInfo(ctx context.Context, apiKey string) (*AdminAPIKey, error) {
	if len(p.config.APIKeys) == 0 && p.config.AllowUnauthenticated {
		return &AdminAPIKey{Name: "anonymous"}, nil
	}
	key := p.find(apiKey)
	if key == nil {
		return nil, ErrUnknownAPIKey
	}
	return &AdminAPIKey{
		Name:        key.Name,
		Description: key.Description,
		Scopes:      append([]string(nil), key.Scopes...),
	}, nil
}

func (p *fileProvider) find(apiKey string) *AdminAPIKey {
	var found *AdminAPIKey
	for i := range p.config.APIKeys {
		if matches(p.config.APIKeys[i].Key, apiKey) && found == nil {
			found = &p.config.APIKeys[i]
		}
	}
	return found
}
