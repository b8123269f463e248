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
	"context"

	"github.com/google/uuid"
)

type mapStorage struct {
	data map[string]string
}

func (m *mapStorage) TryGet(_ context.Context, key string, tenant uuid.UUID) (string, bool, error) {
	v, ok := m.data[tenant.String()+"/"+key]
	return v, ok, nil
}

func (m *mapStorage) Put(_ context.Context, key string, tenant uuid.UUID, value string) error {
	m.data[tenant.String()+"/"+key] = value
	return nil
}
