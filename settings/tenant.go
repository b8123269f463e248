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

package settings

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GlobalTenantID addresses the tenant-agnostic default scope. It is part of
// the storage format and must never change, or existing global records
// become unreachable.
var GlobalTenantID = uuid.MustParse("11111111-61c8-4a18-8fe5-40ec9851cfa1")

// GlobalAlias is accepted by ParseTenant in place of GlobalTenantID.
const GlobalAlias = "global"

// ParseTenant parses a tenant id as given on a command line or URL.
// The literal "global" maps to GlobalTenantID.
func ParseTenant(s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, GlobalAlias) {
		return GlobalTenantID, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid tenant id %q: %w", s, err)
	}
	return id, nil
}

// IsGlobal reports whether tenant is the global scope.
func IsGlobal(tenant uuid.UUID) bool {
	return tenant == GlobalTenantID
}
