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

package settingsdb

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/cardinalhq/settingsmanager/settings"
)

// Storage adapts a Querier to settings.Storage.
type Storage struct {
	q Querier
}

var (
	_ settings.Storage = (*Storage)(nil)
	_ settings.Deleter = (*Storage)(nil)
	_ settings.Lister  = (*Storage)(nil)
)

// NewStorage wraps q. Pass New(pool) for a pgx pool.
func NewStorage(q Querier) *Storage {
	return &Storage{q: q}
}

func (s *Storage) TryGet(ctx context.Context, key string, tenant uuid.UUID) (string, bool, error) {
	value, err := s.q.GetSetting(ctx, GetSettingParams{Key: key, TenantID: tenant})
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Storage) Put(ctx context.Context, key string, tenant uuid.UUID, value string) error {
	return s.q.UpsertSetting(ctx, UpsertSettingParams{
		Key:      key,
		TenantID: tenant,
		Value:    value,
	})
}

func (s *Storage) Delete(ctx context.Context, key string, tenant uuid.UUID) error {
	return s.q.DeleteSetting(ctx, DeleteSettingParams{Key: key, TenantID: tenant})
}

func (s *Storage) List(ctx context.Context, tenant uuid.UUID) ([]settings.Record, error) {
	rows, err := s.q.ListSettingsByTenant(ctx, tenant)
	if err != nil {
		return nil, err
	}
	out := make([]settings.Record, 0, len(rows))
	for _, row := range rows {
		out = append(out, settings.Record{
			Key:    row.Key,
			Tenant: row.TenantID,
			Value:  row.Value,
		})
	}
	return out, nil
}
