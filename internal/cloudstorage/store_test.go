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

package cloudstorage

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/settingsmanager/settings"
)

func TestStoreObjectKey(t *testing.T) {
	tenant := uuid.MustParse("6f1c4a9e-0d55-4a55-9b7f-0c2a3c1b2e11")

	s := NewStore(NewFileClient(t.TempDir()), "bucket", "/settings/")
	assert.Equal(t,
		"settings/6f1c4a9e-0d55-4a55-9b7f-0c2a3c1b2e11/github.com%2Facme%2Fapp.Limits.json",
		s.ObjectKey("github.com/acme/app.Limits", tenant))

	s = NewStore(NewFileClient(t.TempDir()), "bucket", "")
	assert.Equal(t, "6f1c4a9e-0d55-4a55-9b7f-0c2a3c1b2e11/plain.json", s.ObjectKey("plain", tenant))
}

func TestStore(t *testing.T) {
	clients := map[string]Client{
		"file": NewFileClient(t.TempDir()),
		"s3":   &s3Client{api: newFakeS3(), provider: ProviderAWS},
	}

	for name, client := range clients {
		t.Run(name, func(t *testing.T) {
			ctx := t.Context()
			s := NewStore(client, "bucket", "settings")
			tenant := uuid.New()

			_, ok, err := s.TryGet(ctx, "a/b", tenant)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Put(ctx, "a/b", tenant, "1"))
			require.NoError(t, s.Put(ctx, "a/b", tenant, "2"))
			require.NoError(t, s.Put(ctx, "c d", tenant, "3"))
			require.NoError(t, s.Put(ctx, "a/b", settings.GlobalTenantID, "g"))

			v, ok, err := s.TryGet(ctx, "a/b", tenant)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "2", v)

			recs, err := s.List(ctx, tenant)
			require.NoError(t, err)
			assert.Equal(t, []settings.Record{
				{Key: "a/b", Tenant: tenant, Value: "2"},
				{Key: "c d", Tenant: tenant, Value: "3"},
			}, recs)

			require.NoError(t, s.Delete(ctx, "a/b", tenant))
			_, ok, err = s.TryGet(ctx, "a/b", tenant)
			require.NoError(t, err)
			assert.False(t, ok)

			v, ok, err = s.TryGet(ctx, "a/b", settings.GlobalTenantID)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "g", v)
		})
	}
}

func TestStoreListSkipsForeignObjects(t *testing.T) {
	ctx := t.Context()
	client := NewFileClient(t.TempDir())
	s := NewStore(client, "bucket", "")
	tenant := uuid.New()

	require.NoError(t, s.Put(ctx, "k", tenant, "1"))
	require.NoError(t, client.PutObject(ctx, "bucket", tenant.String()+"/notes.txt", []byte("x")))
	require.NoError(t, client.PutObject(ctx, "bucket", tenant.String()+"/nested/k.json", []byte("x")))

	recs, err := s.List(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "k", recs[0].Key)
}

type objectConfig struct {
	settings.ConfigRecord
	Endpoint string `json:"endpoint"`
}

func TestStoreWithResolver(t *testing.T) {
	ctx := t.Context()
	r, err := settings.New(NewStore(NewFileClient(t.TempDir()), "bucket", "cfg"))
	require.NoError(t, err)

	_, err = settings.GetConfig[objectConfig](ctx, r)
	assert.ErrorIs(t, err, settings.ErrMissingGlobalDefault)

	require.NoError(t, settings.AddOrUpdateConfig(ctx, r, objectConfig{Endpoint: "https://example.com"}))
	got, err := settings.GetConfig[objectConfig](ctx, r)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", got.Endpoint)
}
