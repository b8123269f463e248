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
	"reflect"
)

// Keyed lets a record type pin its storage key, for example to keep
// existing data reachable after the type moves to another package.
// SettingsKey is called on a pointer to the zero value and must not
// depend on state.
type Keyed interface {
	SettingsKey() string
}

// KeyOf returns the storage key for T. By default this is the import path
// and name of T with pointers removed, e.g.
// "github.com/acme/app/mail.SMTPSettings". The result depends only on T.
func KeyOf[T any]() string {
	return keyOfType(reflect.TypeFor[T]())
}

func keyOfType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if k, ok := reflect.New(t).Interface().(Keyed); ok {
		return k.SettingsKey()
	}
	if t.Name() == "" {
		// Unnamed types have no stable identity beyond their shape.
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}
