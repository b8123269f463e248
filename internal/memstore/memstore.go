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

// Package memstore is a process-local settings.Storage.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/cardinalhq/settingsmanager/settings"
)

type recordKey struct {
	key    string
	tenant uuid.UUID
}

// Store keeps payloads in a map guarded by a RWMutex.
type Store struct {
	mu   sync.RWMutex
	data map[recordKey]string
}

var (
	_ settings.Storage = (*Store)(nil)
	_ settings.Deleter = (*Store)(nil)
	_ settings.Lister  = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{data: make(map[recordKey]string)}
}

func (s *Store) TryGet(_ context.Context, key string, tenant uuid.UUID) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[recordKey{key, tenant}]
	return v, ok, nil
}

func (s *Store) Put(_ context.Context, key string, tenant uuid.UUID, value string) error {
	s.mu.Lock()
	s.data[recordKey{key, tenant}] = value
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string, tenant uuid.UUID) error {
	s.mu.Lock()
	delete(s.data, recordKey{key, tenant})
	s.mu.Unlock()
	return nil
}

// Seed stores records, replacing existing payloads for the same pair.
func (s *Store) Seed(records ...settings.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.data[recordKey{r.Key, r.Tenant}] = r.Value
	}
}

func (s *Store) List(_ context.Context, tenant uuid.UUID) ([]settings.Record, error) {
	s.mu.RLock()
	var out []settings.Record
	for k, v := range s.data {
		if k.tenant == tenant {
			out = append(out, settings.Record{Key: k.key, Tenant: k.tenant, Value: v})
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
