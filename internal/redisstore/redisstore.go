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

// Package redisstore keeps records in Redis, one hash per tenant.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cardinalhq/settingsmanager/settings"
)

// DefaultPrefix namespaces the tenant hashes.
const DefaultPrefix = "settings"

// Client is the subset of redis.Cmdable used by Store.
type Client interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// Store is a settings.Storage backed by Redis.
type Store struct {
	client Client
	prefix string
}

var (
	_ settings.Storage = (*Store)(nil)
	_ settings.Deleter = (*Store)(nil)
	_ settings.Lister  = (*Store)(nil)
)

// New wraps client. An empty prefix uses DefaultPrefix.
func New(client Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

// Dial connects to the Redis server named by url
// (redis://[user:pass@]host:port/db or rediss:// for TLS) and pings it.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (s *Store) hashKey(tenant uuid.UUID) string {
	return s.prefix + ":" + tenant.String()
}

func (s *Store) TryGet(ctx context.Context, key string, tenant uuid.UUID) (string, bool, error) {
	value, err := s.client.HGet(ctx, s.hashKey(tenant), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) Put(ctx context.Context, key string, tenant uuid.UUID, value string) error {
	return s.client.HSet(ctx, s.hashKey(tenant), key, value).Err()
}

func (s *Store) Delete(ctx context.Context, key string, tenant uuid.UUID) error {
	return s.client.HDel(ctx, s.hashKey(tenant), key).Err()
}

func (s *Store) List(ctx context.Context, tenant uuid.UUID) ([]settings.Record, error) {
	fields, err := s.client.HGetAll(ctx, s.hashKey(tenant)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]settings.Record, 0, len(fields))
	for k, v := range fields {
		out = append(out, settings.Record{Key: k, Tenant: tenant, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}
