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

// Storage is a flat (key, tenant) -> payload mapping. Put must overwrite
// any existing payload. Implementations must be safe for concurrent use.
type Storage interface {
	// TryGet returns the stored payload and true, or "" and false when
	// nothing is stored for the pair.
	TryGet(ctx context.Context, key string, tenant uuid.UUID) (string, bool, error)
	Put(ctx context.Context, key string, tenant uuid.UUID, value string) error
}

// Deleter is implemented by storages that can remove a record.
// Deleting a missing record is not an error.
type Deleter interface {
	Delete(ctx context.Context, key string, tenant uuid.UUID) error
}

// Record is one stored payload.
type Record struct {
	Key    string
	Tenant uuid.UUID
	Value  string
}

// Lister is implemented by storages that can enumerate the records stored
// for a tenant. Records are ordered by key.
type Lister interface {
	List(ctx context.Context, tenant uuid.UUID) ([]Record, error)
}

// Cipher encrypts individual record fields. Decrypt(Encrypt(s)) must
// return s for any printable text. Implementations must be safe for
// concurrent use.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
