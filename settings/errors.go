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
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrUninitialized is returned by every operation on a Resolver that was
	// not built with New.
	ErrUninitialized = errors.New("settings: resolver is not initialized")

	// ErrMissingGlobalDefault matches any *MissingGlobalDefaultError.
	ErrMissingGlobalDefault = errors.New("settings: global default is not provisioned")

	// ErrCipherNotConfigured matches any *CipherConfigurationError.
	ErrCipherNotConfigured = errors.New("settings: no cipher configured for encrypted field")

	// ErrDeleteUnsupported is returned by Delete when the storage does not
	// implement Deleter.
	ErrDeleteUnsupported = errors.New("settings: storage does not support delete")

	// ErrListUnsupported is returned by List when the storage does not
	// implement Lister.
	ErrListUnsupported = errors.New("settings: storage does not support listing")
)

// MissingGlobalDefaultError reports a setting or config with no record
// under GlobalTenantID. This is an operator error: the default has to be
// provisioned.
type MissingGlobalDefaultError struct {
	Key string
}

func (e *MissingGlobalDefaultError) Error() string {
	return fmt.Sprintf("settings: global default was not set for key %q", e.Key)
}

func (e *MissingGlobalDefaultError) Is(target error) bool {
	return target == ErrMissingGlobalDefault
}

// DecodeError reports a stored payload that could not be decoded into the
// requested type. Field is set when a single encrypted field failed.
type DecodeError struct {
	Key    string
	Tenant uuid.UUID
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("settings: decode %q for tenant %s, field %s: %v", e.Key, e.Tenant, e.Field, e.Err)
	}
	return fmt.Sprintf("settings: decode %q for tenant %s: %v", e.Key, e.Tenant, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a record that could not be encoded for storage.
type EncodeError struct {
	Key   string
	Field string
	Err   error
}

func (e *EncodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("settings: encode %q, field %s: %v", e.Key, e.Field, e.Err)
	}
	return fmt.Sprintf("settings: encode %q: %v", e.Key, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// CipherConfigurationError reports an encrypted field used on a resolver
// constructed without a Cipher. Plaintext is never written or accepted in
// its place.
type CipherConfigurationError struct {
	Key   string
	Field string
}

func (e *CipherConfigurationError) Error() string {
	return fmt.Sprintf("settings: field %s of %q is encrypted but no cipher is configured", e.Field, e.Key)
}

func (e *CipherConfigurationError) Is(target error) bool {
	return target == ErrCipherNotConfigured
}
