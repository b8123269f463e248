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

package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/settingsmanager/settings"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	tenant := uuid.New()

	_, ok, err := s.TryGet(ctx, "k", tenant)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "k", tenant, `{"a":1}`))
	require.NoError(t, s.Put(ctx, "k", tenant, `{"a":2}`))
	v, ok, err := s.TryGet(ctx, "k", tenant)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":2}`, v)

	_, ok, _ = s.TryGet(ctx, "k", uuid.New())
	assert.False(t, ok, "records are per tenant")

	require.NoError(t, s.Delete(ctx, "k", tenant))
	require.NoError(t, s.Delete(ctx, "k", tenant))
	assert.Equal(t, 0, s.Len())
}

func TestSeed(t *testing.T) {
	s := New()
	s.Seed(
		settings.Record{Key: "a", Tenant: settings.GlobalTenantID, Value: `{}`},
		settings.Record{Key: "b", Tenant: settings.GlobalTenantID, Value: `{"x":1}`},
		settings.Record{Key: "b", Tenant: settings.GlobalTenantID, Value: `{"x":2}`},
	)
	assert.Equal(t, 2, s.Len())

	v, ok, err := s.TryGet(context.Background(), "b", settings.GlobalTenantID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"x":2}`, v)

	list, err := s.List(context.Background(), settings.GlobalTenantID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Key)
	assert.Equal(t, "b", list[1].Key)

	list, err = s.List(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := New()
	tenant := uuid.New()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			assert.NoError(t, s.Put(ctx, key, tenant, "{}"))
			_, _, err := s.TryGet(ctx, key, tenant)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, s.Len())
}

type greeting struct {
	settings.SettingRecord
	Text string `json:"text"`
}

func TestWithResolver(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Seed(settings.Record{Key: settings.KeyOf[greeting](), Tenant: settings.GlobalTenantID, Value: `{"text":"hello"}`})

	r, err := settings.New(s)
	require.NoError(t, err)

	got, err := settings.GetSettingOrDefault[greeting](ctx, r, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text)

	require.NoError(t, settings.DeleteRecord[greeting](ctx, r, settings.GlobalTenantID))
	_, err = settings.GetSettingOrDefault[greeting](ctx, r, uuid.New())
	assert.ErrorIs(t, err, settings.ErrMissingGlobalDefault)
}
