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

package cloudstorage

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/cardinalhq/settingsmanager/settings"
)

const objectSuffix = ".json"

// Store is a settings.Storage over a Client. Each record is one object
// named <prefix>/<tenant>/<escaped key>.json.
type Store struct {
	client Client
	bucket string
	prefix string
}

var (
	_ settings.Storage = (*Store)(nil)
	_ settings.Deleter = (*Store)(nil)
	_ settings.Lister  = (*Store)(nil)
)

// NewStore keeps records in bucket under prefix. prefix may be empty.
func NewStore(client Client, bucket, prefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *Store) tenantPrefix(tenant uuid.UUID) string {
	if s.prefix == "" {
		return tenant.String() + "/"
	}
	return s.prefix + "/" + tenant.String() + "/"
}

// ObjectKey returns the object name used for (key, tenant).
func (s *Store) ObjectKey(key string, tenant uuid.UUID) string {
	return s.tenantPrefix(tenant) + url.PathEscape(key) + objectSuffix
}

func (s *Store) TryGet(ctx context.Context, key string, tenant uuid.UUID) (string, bool, error) {
	data, notFound, err := s.client.GetObject(ctx, s.bucket, s.ObjectKey(key, tenant))
	if err != nil || notFound {
		return "", false, err
	}
	return string(data), true, nil
}

func (s *Store) Put(ctx context.Context, key string, tenant uuid.UUID, value string) error {
	return s.client.PutObject(ctx, s.bucket, s.ObjectKey(key, tenant), []byte(value))
}

func (s *Store) Delete(ctx context.Context, key string, tenant uuid.UUID) error {
	return s.client.DeleteObject(ctx, s.bucket, s.ObjectKey(key, tenant))
}

// List reads every object under the tenant prefix. Objects deleted while
// listing are skipped.
func (s *Store) List(ctx context.Context, tenant uuid.UUID) ([]settings.Record, error) {
	prefix := s.tenantPrefix(tenant)
	names, err := s.client.ListObjects(ctx, s.bucket, prefix)
	if err != nil {
		return nil, err
	}

	var out []settings.Record
	for _, name := range names {
		escaped, ok := strings.CutSuffix(strings.TrimPrefix(name, prefix), objectSuffix)
		if !ok || strings.Contains(escaped, "/") {
			continue
		}
		key, err := url.PathUnescape(escaped)
		if err != nil {
			continue
		}
		data, notFound, err := s.client.GetObject(ctx, s.bucket, name)
		if err != nil {
			return nil, err
		}
		if notFound {
			continue
		}
		out = append(out, settings.Record{Key: key, Tenant: tenant, Value: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
