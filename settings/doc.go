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

// Package settings resolves typed, tenant-scoped records.
//
// Records are stored as JSON text under (key, tenant), where the key is
// derived from the record's Go type. A record type opts into one or more
// kinds by embedding a marker:
//
//   - SettingRecord: per-tenant value with a required global default.
//     GetSettingOrDefault reads the tenant first and falls back to
//     GlobalTenantID.
//   - ConfigRecord: global only. GetConfig reads GlobalTenantID and fails
//     with a MissingGlobalDefaultError when nothing is provisioned.
//   - FeatureRecord: carries IsEnabled. IsFeatureEnabled reports false for
//     tenants with no stored record.
//
// A type may embed both SettingRecord and FeatureRecord. Embedding
// SettingRecord and ConfigRecord together makes the type satisfy neither
// constraint, so it cannot be used with any resolver operation.
//
// Struct fields tagged `settings:"encrypted"` are encrypted individually
// with the resolver's Cipher while the rest of the record keeps its normal
// JSON encoding:
//
//	type SMTP struct {
//		settings.SettingRecord
//		Host     string `json:"host"`
//		Password string `json:"password" settings:"encrypted"`
//	}
//
// The resolver holds no cache and no locks. Every call reads through to the
// Storage, and concurrency guarantees are those of the Storage and Cipher
// implementations it was constructed with.
package settings
