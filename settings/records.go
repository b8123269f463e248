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
	"context"

	"github.com/google/uuid"
)

// GetSetting returns the record stored for exactly this tenant. The bool is
// false when nothing is stored. There is no fallback.
func GetSetting[T Setting](ctx context.Context, r *Resolver, tenant uuid.UUID) (T, bool, error) {
	var zero T
	key := KeyOf[T]()
	raw, ok, err := r.load(ctx, key, tenant)
	if err != nil || !ok {
		return zero, false, err
	}
	var v T
	if err := r.decode(key, tenant, raw, &v); err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Resolution is a decoded record and the tenant whose record supplied it.
type Resolution[T any] struct {
	Value    T
	Tenant   uuid.UUID
	Fallback bool
}

// ResolveSetting is GetSettingOrDefault that also reports where the value
// came from.
func ResolveSetting[T Setting](ctx context.Context, r *Resolver, tenant uuid.UUID) (Resolution[T], error) {
	key := KeyOf[T]()
	raw, from, err := r.resolve(ctx, key, tenant)
	if err != nil {
		return Resolution[T]{}, err
	}
	var v T
	if err := r.decode(key, from, raw, &v); err != nil {
		return Resolution[T]{}, err
	}
	return Resolution[T]{Value: v, Tenant: from, Fallback: from == GlobalTenantID}, nil
}

// GetSettingOrDefault returns the tenant's record, or the global record
// when the tenant has none. Pass uuid.Nil to read the global record only.
// A missing global record is a *MissingGlobalDefaultError.
func GetSettingOrDefault[T Setting](ctx context.Context, r *Resolver, tenant uuid.UUID) (T, error) {
	res, err := ResolveSetting[T](ctx, r, tenant)
	return res.Value, err
}

// AddOrUpdateSetting stores value for tenant, replacing any existing record.
func AddOrUpdateSetting[T Setting](ctx context.Context, r *Resolver, value T, tenant uuid.UUID) error {
	return r.store(ctx, KeyOf[T](), tenant, value)
}

// IsFeatureEnabled reports the flag stored for tenant. Tenants with no
// record are disabled; the global record is not consulted.
func IsFeatureEnabled[T Feature](ctx context.Context, r *Resolver, tenant uuid.UUID) (bool, error) {
	return r.FeatureEnabled(ctx, KeyOf[T](), tenant)
}

// AddOrUpdateFeature stores value for tenant, replacing any existing record.
func AddOrUpdateFeature[T Feature](ctx context.Context, r *Resolver, value T, tenant uuid.UUID) error {
	return r.store(ctx, KeyOf[T](), tenant, value)
}

// GetConfig returns the global record for T, or a
// *MissingGlobalDefaultError when none is stored.
func GetConfig[T Config](ctx context.Context, r *Resolver) (T, error) {
	var zero T
	key := KeyOf[T]()
	raw, _, err := r.resolve(ctx, key, uuid.Nil)
	if err != nil {
		return zero, err
	}
	var v T
	if err := r.decode(key, GlobalTenantID, raw, &v); err != nil {
		return zero, err
	}
	return v, nil
}

// AddOrUpdateConfig stores value as the global record for T.
func AddOrUpdateConfig[T Config](ctx context.Context, r *Resolver, value T) error {
	return r.store(ctx, KeyOf[T](), GlobalTenantID, value)
}

// DeleteRecord removes the record for T at tenant. It fails with
// ErrDeleteUnsupported when the storage cannot delete.
func DeleteRecord[T any](ctx context.Context, r *Resolver, tenant uuid.UUID) error {
	return r.Delete(ctx, KeyOf[T](), tenant)
}
