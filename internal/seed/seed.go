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

// Package seed loads records from a YAML file and writes them through a
// Resolver. It is used to provision global defaults.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/cardinalhq/settingsmanager/settings"
)

// File is the on-disk seed format.
//
//	records:
//	  - key: github.com/acme/app.Limits
//	    tenant: global
//	    value:
//	      max_items: 100
//	      api_token: s3cr3t
//	    encrypt: [api_token]
type File struct {
	Records []Entry `yaml:"records"`
}

// Entry is one record. Exactly one of Value and JSON must be set.
type Entry struct {
	Key    string         `yaml:"key"`
	Tenant string         `yaml:"tenant"`
	Value  map[string]any `yaml:"value"`
	JSON   string         `yaml:"json"`

	// Encrypt names top-level fields of Value to encrypt before storing.
	// String fields are encrypted as-is, others as their JSON text.
	Encrypt []string `yaml:"encrypt"`
}

var json = jsoniter.Config{EscapeHTML: true, SortMapKeys: true}.Froze()

// Load reads a seed file from path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse decodes a seed file and checks every entry.
func Parse(r io.Reader) (*File, error) {
	var file File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	var result *multierror.Error
	for i, e := range file.Records {
		if err := e.validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("record %d: %w", i, err))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (e Entry) validate() error {
	var result *multierror.Error
	if strings.TrimSpace(e.Key) == "" {
		result = multierror.Append(result, errors.New("key is required"))
	}
	if _, err := e.tenant(); err != nil {
		result = multierror.Append(result, err)
	}
	switch {
	case e.Value == nil && e.JSON == "":
		result = multierror.Append(result, errors.New("one of value or json is required"))
	case e.Value != nil && e.JSON != "":
		result = multierror.Append(result, errors.New("value and json are mutually exclusive"))
	case e.JSON != "" && len(e.Encrypt) > 0:
		result = multierror.Append(result, errors.New("encrypt applies to value only"))
	}
	return result.ErrorOrNil()
}

func (e Entry) tenant() (uuid.UUID, error) {
	if e.Tenant == "" {
		return settings.GlobalTenantID, nil
	}
	return settings.ParseTenant(e.Tenant)
}

// payload renders the stored JSON for e.
func (e Entry) payload(cipher settings.Cipher) (string, error) {
	if e.JSON != "" {
		return e.JSON, nil
	}
	value := make(map[string]any, len(e.Value))
	for k, v := range e.Value {
		value[k] = v
	}
	for _, field := range e.Encrypt {
		v, ok := value[field]
		if !ok || v == nil {
			continue
		}
		if cipher == nil {
			return "", &settings.CipherConfigurationError{Key: e.Key, Field: field}
		}
		plaintext, isString := v.(string)
		if !isString {
			b, err := json.Marshal(v)
			if err != nil {
				return "", fmt.Errorf("field %s: %w", field, err)
			}
			plaintext = string(b)
		}
		ciphertext, err := cipher.Encrypt(plaintext)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", field, err)
		}
		value[field] = ciphertext
	}
	b, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Options tunes Apply.
type Options struct {
	// Cipher encrypts the fields listed in Entry.Encrypt.
	Cipher settings.Cipher
	// Concurrency bounds parallel writes. Zero means 4.
	Concurrency int
	// DryRun renders payloads without writing them.
	DryRun bool
}

// Summary reports what Apply did.
type Summary struct {
	Applied int
	Failed  int
}

// Apply writes every entry in file through r. All entries are attempted;
// failures are returned together.
func Apply(ctx context.Context, r *settings.Resolver, file *File, opts Options) (Summary, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}

	var (
		mu      sync.Mutex
		summary Summary
		result  *multierror.Error
	)
	fail := func(e Entry, err error) {
		mu.Lock()
		defer mu.Unlock()
		summary.Failed++
		result = multierror.Append(result, fmt.Errorf("%s@%s: %w", e.Key, e.Tenant, err))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, e := range file.Records {
		g.Go(func() error {
			tenant, err := e.tenant()
			if err != nil {
				fail(e, err)
				return nil
			}
			payload, err := e.payload(opts.Cipher)
			if err != nil {
				fail(e, err)
				return nil
			}
			if !opts.DryRun {
				if err := r.PutRaw(gctx, e.Key, tenant, payload); err != nil {
					fail(e, err)
					return nil
				}
			}
			mu.Lock()
			summary.Applied++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return summary, result.ErrorOrNil()
}
