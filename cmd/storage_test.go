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

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/settingsmanager/config"
	"github.com/cardinalhq/settingsmanager/internal/changefeed"
	"github.com/cardinalhq/settingsmanager/internal/cloudstorage"
	"github.com/cardinalhq/settingsmanager/internal/memstore"
	"github.com/cardinalhq/settingsmanager/internal/seed"
	"github.com/cardinalhq/settingsmanager/internal/storetel"
	"github.com/cardinalhq/settingsmanager/settings"
)

func TestOpenStorageLayers(t *testing.T) {
	ctx := t.Context()

	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.BackendMemory
	b, err := openStorage(ctx, cfg)
	require.NoError(t, err)
	tel, ok := b.storage.(*storetel.Storage)
	require.True(t, ok, "instrumented by default")
	assert.IsType(t, &memstore.Store{}, tel.Unwrap())
	require.NoError(t, b.Close())

	cfg.Storage.Instrument = false
	b, err = openStorage(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &memstore.Store{}, b.storage)

	cfg.Changefeed.Enabled = true
	b, err = openStorage(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &changefeed.Feed{}, b.storage)
	require.NoError(t, b.Close())
}

func TestOpenStorageObjectFile(t *testing.T) {
	ctx := t.Context()

	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.BackendObject
	cfg.Storage.Instrument = false
	cfg.Storage.Object = cloudstorage.Config{
		Provider: cloudstorage.ProviderFile,
		Root:     t.TempDir(),
		Bucket:   "settings",
		Prefix:   "v1",
	}
	b, err := openStorage(ctx, cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, b.Close()) }()
	require.IsType(t, &cloudstorage.Store{}, b.storage)

	tenant := uuid.New()
	require.NoError(t, b.storage.Put(ctx, "acme.Limits", tenant, `{"n":1}`))
	got, ok, err := b.storage.TryGet(ctx, "acme.Limits", tenant)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"n":1}`, got)
}

func TestOpenStorageUnknownBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "etcd"
	_, err := openStorage(t.Context(), cfg)
	assert.Error(t, err)
}

func TestOpenResolverCipher(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = config.BackendMemory

	r, b, err := openResolver(t.Context(), cfg)
	require.NoError(t, err)
	assert.False(t, r.HasCipher())
	require.NoError(t, b.Close())

	cfg.Cipher.Key = "hex:" + "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
	r, b, err = openResolver(t.Context(), cfg)
	require.NoError(t, err)
	assert.True(t, r.HasCipher())
	require.NoError(t, b.Close())

	cfg.Cipher.Key = "hex:zz"
	_, _, err = openResolver(t.Context(), cfg)
	assert.Error(t, err)
}

func TestBackendCloseOrder(t *testing.T) {
	var order []int
	b := &backend{storage: memstore.New()}
	b.onClose(func() error { order = append(order, 1); return nil })
	b.onClose(func() error { order = append(order, 2); return assert.AnError })
	assert.ErrorIs(t, b.Close(), assert.AnError)
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, b.Close(), "closers run once")
}

func TestApplySeedFile(t *testing.T) {
	ctx := t.Context()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
records:
  - key: acme.Mail
    value: {password: hunter2}
    encrypt: [password]
`), 0o600))

	r, err := settings.New(memstore.New())
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Cipher.Key = "not a key"
	_, err = applySeedFile(ctx, cfg, r, path, seed.Options{})
	require.Error(t, err, "a cipher that does not build stops the seed")
	_, ok, err := r.GetRaw(ctx, "acme.Mail", settings.GlobalTenantID)
	require.NoError(t, err)
	assert.False(t, ok)

	cfg.Cipher.Key = ""
	_, err = applySeedFile(ctx, cfg, r, path, seed.Options{})
	var cce *settings.CipherConfigurationError
	require.ErrorAs(t, err, &cce)

	_, err = applySeedFile(ctx, cfg, r, filepath.Join(t.TempDir(), "missing.yaml"), seed.Options{})
	require.Error(t, err)
}
