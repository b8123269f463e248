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

type recordScope int

const (
	tenantScoped recordScope = iota
	globalScoped
)

// SettingRecord marks a type as a per-tenant setting. Embed it by value.
type SettingRecord struct{}

func (SettingRecord) scope() recordScope { return tenantScoped }
func (SettingRecord) settingRecord()     {}

// ConfigRecord marks a type as a global-only config. Embed it by value.
//
// SettingRecord and ConfigRecord both promote scope(), so a type that
// embeds both has an ambiguous method set and satisfies neither Setting
// nor Config.
type ConfigRecord struct{}

func (ConfigRecord) scope() recordScope { return globalScoped }
func (ConfigRecord) configRecord()      {}

// FeatureRecord marks a type as a feature flag. It may be combined with
// SettingRecord for a flag that also carries parameters.
type FeatureRecord struct {
	IsEnabled bool `json:"is_enabled"`
}

// Enabled reports the flag.
func (f FeatureRecord) Enabled() bool { return f.IsEnabled }

func (FeatureRecord) featureRecord() {}

// Setting is satisfied by types embedding SettingRecord.
type Setting interface {
	scope() recordScope
	settingRecord()
}

// Config is satisfied by types embedding ConfigRecord.
type Config interface {
	scope() recordScope
	configRecord()
}

// Feature is satisfied by types embedding FeatureRecord.
type Feature interface {
	Enabled() bool
	featureRecord()
}

// FeatureProjection is the minimal view of any stored feature record.
// Only is_enabled is read; other fields, encrypted or not, are skipped.
type FeatureProjection struct {
	IsEnabled bool `json:"is_enabled"`
}
