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

	"github.com/google/uuid"
)

const deleteSetting = `-- name: DeleteSetting :exec
DELETE FROM settings
WHERE key = $1 AND tenant_id = $2
`

type DeleteSettingParams struct {
	Key      string    `json:"key"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (q *Queries) DeleteSetting(ctx context.Context, arg DeleteSettingParams) error {
	_, err := q.db.Exec(ctx, deleteSetting, arg.Key, arg.TenantID)
	return err
}

const getSetting = `-- name: GetSetting :one
SELECT value
FROM settings
WHERE key = $1 AND tenant_id = $2
`

type GetSettingParams struct {
	Key      string    `json:"key"`
	TenantID uuid.UUID `json:"tenant_id"`
}

func (q *Queries) GetSetting(ctx context.Context, arg GetSettingParams) (string, error) {
	row := q.db.QueryRow(ctx, getSetting, arg.Key, arg.TenantID)
	var value string
	err := row.Scan(&value)
	return value, err
}

const listSettingsByTenant = `-- name: ListSettingsByTenant :many
SELECT key, tenant_id, value, updated_at
FROM settings
WHERE tenant_id = $1
ORDER BY key
`

func (q *Queries) ListSettingsByTenant(ctx context.Context, tenantID uuid.UUID) ([]Setting, error) {
	rows, err := q.db.Query(ctx, listSettingsByTenant, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Setting
	for rows.Next() {
		var i Setting
		if err := rows.Scan(
			&i.Key,
			&i.TenantID,
			&i.Value,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertSetting = `-- name: UpsertSetting :exec
INSERT INTO settings (key, tenant_id, value, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (key, tenant_id)
DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`

type UpsertSettingParams struct {
	Key      string    `json:"key"`
	TenantID uuid.UUID `json:"tenant_id"`
	Value    string    `json:"value"`
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) error {
	_, err := q.db.Exec(ctx, upsertSetting, arg.Key, arg.TenantID, arg.Value)
	return err
}
