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
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("requires storage", func(t *testing.T) {
		r, err := New(nil)
		assert.Nil(t, r)
		assert.ErrorIs(t, err, ErrUninitialized)
	})

	t.Run("cipher is optional", func(t *testing.T) {
		r := newTestResolver(t, newMockStorage())
		assert.False(t, r.HasCipher())

		r = newTestResolver(t, newMockStorage(), WithCipher(&testCipher{}))
		assert.True(t, r.HasCipher())
	})
}

func TestUninitializedResolver(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()

	for name, r := range map[string]*Resolver{"nil": nil, "zero": {}} {
		t.Run(name, func(t *testing.T) {
			_, _, err := GetSetting[plainSetting](ctx, r, tenant)
			assert.ErrorIs(t, err, ErrUninitialized)

			_, err = GetSettingOrDefault[plainSetting](ctx, r, tenant)
			assert.ErrorIs(t, err, ErrUninitialized)

			assert.ErrorIs(t, AddOrUpdateSetting(ctx, r, plainSetting{}, tenant), ErrUninitialized)

			_, err = IsFeatureEnabled[betaFeature](ctx, r, tenant)
			assert.ErrorIs(t, err, ErrUninitialized)

			assert.ErrorIs(t, AddOrUpdateFeature(ctx, r, betaFeature{}, tenant), ErrUninitialized)

			_, err = GetConfig[mailConfig](ctx, r)
			assert.ErrorIs(t, err, ErrUninitialized)

			assert.ErrorIs(t, AddOrUpdateConfig(ctx, r, mailConfig{}), ErrUninitialized)
			assert.ErrorIs(t, r.PutRaw(ctx, "k", tenant, "{}"), ErrUninitialized)
			assert.ErrorIs(t, r.Delete(ctx, "k", tenant), ErrUninitialized)
		})
	}
}

func TestGetSetting(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()

	t.Run("absent", func(t *testing.T) {
		storage := newMockStorage()
		r := newTestResolver(t, storage)

		v, ok, err := GetSetting[plainSetting](ctx, r, tenant)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Zero(t, v)
		assert.Equal(t, int32(1), storage.gets.Load())
	})

	t.Run("does not fall back", func(t *testing.T) {
		storage := newMockStorage()
		r := newTestResolver(t, storage)
		require.NoError(t, AddOrUpdateSetting(ctx, r, plainSetting{Name: "global"}, GlobalTenantID))

		_, ok, err := GetSetting[plainSetting](ctx, r, tenant)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stored null is absent", func(t *testing.T) {
		storage := newMockStorage()
		storage.set(KeyOf[plainSetting](), tenant, "null")
		r := newTestResolver(t, storage)

		_, ok, err := GetSetting[plainSetting](ctx, r, tenant)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("corrupt payload is a decode error", func(t *testing.T) {
		storage := newMockStorage()
		storage.set(KeyOf[plainSetting](), tenant, `{"limit":"many"}`)
		r := newTestResolver(t, storage)

		_, ok, err := GetSetting[plainSetting](ctx, r, tenant)
		assert.False(t, ok)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, KeyOf[plainSetting](), de.Key)
		assert.Equal(t, tenant, de.Tenant)
	})

	t.Run("storage error propagates", func(t *testing.T) {
		boom := errors.New("connection reset")
		storage := newMockStorage()
		storage.getErr = boom
		r := newTestResolver(t, storage)

		_, _, err := GetSetting[plainSetting](ctx, r, tenant)
		assert.Same(t, boom, err)
	})

	t.Run("pointer record type", func(t *testing.T) {
		storage := newMockStorage()
		r := newTestResolver(t, storage)
		require.NoError(t, AddOrUpdateSetting(ctx, r, &plainSetting{Name: "p"}, tenant))

		v, ok, err := GetSetting[*plainSetting](ctx, r, tenant)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "p", v.Name)

		byValue, ok, err := GetSetting[plainSetting](ctx, r, tenant)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "p", byValue.Name)
	})
}

func TestGetSettingOrDefault(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	global := plainSetting{Name: "global", Limit: 1}
	specific := plainSetting{Name: "tenant", Limit: 2}

	t.Run("falls back to global", func(t *testing.T) {
		storage := newMockStorage()
		r := newTestResolver(t, storage)
		require.NoError(t, AddOrUpdateSetting(ctx, r, global, GlobalTenantID))

		v, err := GetSettingOrDefault[plainSetting](ctx, r, tenant)
		require.NoError(t, err)
		assert.Equal(t, global, v)
		assert.Equal(t, int32(2), storage.gets.Load())

		v, err = GetSettingOrDefault[plainSetting](ctx, r, uuid.Nil)
		require.NoError(t, err)
		assert.Equal(t, global, v)
		assert.Equal(t, int32(3), storage.gets.Load(), "no tenant reads global only")
	})

	t.Run("tenant wins over global", func(t *testing.T) {
		storage := newMockStorage()
		r := newTestResolver(t, storage)
		require.NoError(t, AddOrUpdateSetting(ctx, r, global, GlobalTenantID))
		require.NoError(t, AddOrUpdateSetting(ctx, r, specific, tenant))

		v, err := GetSettingOrDefault[plainSetting](ctx, r, tenant)
		require.NoError(t, err)
		assert.Equal(t, specific, v)
		assert.Equal(t, int32(1), storage.gets.Load())

		res, err := ResolveSetting[plainSetting](ctx, r, tenant)
		require.NoError(t, err)
		assert.Equal(t, tenant, res.Tenant)
		assert.False(t, res.Fallback)
	})

	t.Run("global tenant reads once", func(t *testing.T) {
		storage := newMockStorage()
		r := newTestResolver(t, storage)
		require.NoError(t, AddOrUpdateSetting(ctx, r, global, GlobalTenantID))

		res, err := ResolveSetting[plainSetting](ctx, r, GlobalTenantID)
		require.NoError(t, err)
		assert.Equal(t, global, res.Value)
		assert.True(t, res.Fallback)
		assert.Equal(t, int32(1), storage.gets.Load())
	})

	t.Run("missing global is fatal", func(t *testing.T) {
		r := newTestResolver(t, newMockStorage())

		_, err := GetSettingOrDefault[plainSetting](ctx, r, tenant)
		var mg *MissingGlobalDefaultError
		require.ErrorAs(t, err, &mg)
		assert.Equal(t, KeyOf[plainSetting](), mg.Key)
		assert.ErrorIs(t, err, ErrMissingGlobalDefault)

		_, err = GetSettingOrDefault[plainSetting](ctx, r, uuid.Nil)
		assert.ErrorIs(t, err, ErrMissingGlobalDefault)
	})

	t.Run("corrupt tenant record does not fall back", func(t *testing.T) {
		storage := newMockStorage()
		r := newTestResolver(t, storage)
		require.NoError(t, AddOrUpdateSetting(ctx, r, global, GlobalTenantID))
		storage.set(KeyOf[plainSetting](), tenant, `{"limit":`)

		_, err := GetSettingOrDefault[plainSetting](ctx, r, tenant)
		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, tenant, de.Tenant)
	})
}

func TestAddOrUpdateOverwrites(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	storage := newMockStorage()
	r := newTestResolver(t, storage)

	require.NoError(t, AddOrUpdateSetting(ctx, r, plainSetting{Name: "v1"}, tenant))
	require.NoError(t, AddOrUpdateSetting(ctx, r, plainSetting{Name: "v2"}, tenant))

	v, ok, err := GetSetting[plainSetting](ctx, r, tenant)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", v.Name)
	assert.Equal(t, int32(2), storage.puts.Load())
}

func TestAddOrUpdateErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("nil tenant", func(t *testing.T) {
		storage := newMockStorage()
		r := newTestResolver(t, storage)
		assert.ErrorIs(t, AddOrUpdateSetting(ctx, r, plainSetting{}, uuid.Nil), ErrNilTenant)
		assert.Equal(t, int32(0), storage.puts.Load())
	})

	t.Run("storage error propagates", func(t *testing.T) {
		boom := errors.New("disk full")
		storage := newMockStorage()
		storage.putErr = boom
		r := newTestResolver(t, storage)
		assert.ErrorIs(t, AddOrUpdateSetting(ctx, r, plainSetting{}, uuid.New()), boom)
	})

	t.Run("encode failure does not write", func(t *testing.T) {
		storage := newMockStorage()
		r := newTestResolver(t, storage)
		err := AddOrUpdateConfig(ctx, r, mailConfig{Password: "x"})
		assert.ErrorIs(t, err, ErrCipherNotConfigured)
		assert.Equal(t, int32(0), storage.puts.Load())
	})
}

func TestFeatures(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()

	t.Run("absent is disabled", func(t *testing.T) {
		r := newTestResolver(t, newMockStorage())
		enabled, err := IsFeatureEnabled[betaFeature](ctx, r, tenant)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("global record is not consulted", func(t *testing.T) {
		r := newTestResolver(t, newMockStorage())
		require.NoError(t, AddOrUpdateFeature(ctx, r, betaFeature{FeatureRecord{IsEnabled: true}}, GlobalTenantID))

		enabled, err := IsFeatureEnabled[betaFeature](ctx, r, tenant)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("enabled and disabled", func(t *testing.T) {
		r := newTestResolver(t, newMockStorage())
		require.NoError(t, AddOrUpdateFeature(ctx, r, betaFeature{FeatureRecord{IsEnabled: true}}, tenant))

		enabled, err := IsFeatureEnabled[betaFeature](ctx, r, tenant)
		require.NoError(t, err)
		assert.True(t, enabled)

		require.NoError(t, AddOrUpdateFeature(ctx, r, betaFeature{}, tenant))
		enabled, err = IsFeatureEnabled[betaFeature](ctx, r, tenant)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("malformed record propagates a decode error", func(t *testing.T) {
		storage := newMockStorage()
		storage.set(KeyOf[betaFeature](), tenant, `{"is_enabled":"yes"}`)
		r := newTestResolver(t, storage)

		enabled, err := IsFeatureEnabled[betaFeature](ctx, r, tenant)
		assert.False(t, enabled)
		var de *DecodeError
		assert.ErrorAs(t, err, &de)
	})

	t.Run("projection skips encrypted fields", func(t *testing.T) {
		storage := newMockStorage()
		writer := newTestResolver(t, storage, WithCipher(&testCipher{}))
		value := parameterizedFeature{FeatureRecord: FeatureRecord{IsEnabled: true}, Rollout: 50, Token: "t"}
		require.NoError(t, AddOrUpdateFeature(ctx, writer, value, tenant))

		reader := newTestResolver(t, storage)
		enabled, err := IsFeatureEnabled[parameterizedFeature](ctx, reader, tenant)
		require.NoError(t, err)
		assert.True(t, enabled)

		got, ok, err := GetSetting[parameterizedFeature](ctx, writer, tenant)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, value, got)
	})
}

func TestConfigs(t *testing.T) {
	ctx := context.Background()
	cipher := &testCipher{}
	storage := newMockStorage()
	r := newTestResolver(t, storage, WithCipher(cipher))

	_, err := GetConfig[mailConfig](ctx, r)
	var mg *MissingGlobalDefaultError
	require.ErrorAs(t, err, &mg)
	assert.Equal(t, KeyOf[mailConfig](), mg.Key)

	want := mailConfig{Host: "smtp.example.com", Port: 587, Password: "hunter2"}
	require.NoError(t, AddOrUpdateConfig(ctx, r, want))

	raw, ok := storage.raw(KeyOf[mailConfig](), GlobalTenantID)
	require.True(t, ok)
	assert.Contains(t, raw, `"password":"enc:aHVudGVyMg=="`)

	got, err := GetConfig[mailConfig](ctx, r)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRawOperations(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	storage := newMockStorage()
	r := newTestResolver(t, storage)

	t.Run("put validates JSON", func(t *testing.T) {
		var ee *EncodeError
		require.ErrorAs(t, r.PutRaw(ctx, "k", tenant, `{"a":`), &ee)
		assert.ErrorIs(t, r.PutRaw(ctx, "k", uuid.Nil, `{}`), ErrNilTenant)
		assert.Equal(t, int32(0), storage.puts.Load())
	})

	t.Run("resolve reports the answering tenant", func(t *testing.T) {
		require.NoError(t, r.PutRaw(ctx, "k", GlobalTenantID, `{"a":1}`))

		res, err := r.ResolveRaw(ctx, "k", tenant)
		require.NoError(t, err)
		assert.Equal(t, `{"a":1}`, res.Payload)
		assert.True(t, res.Fallback())

		require.NoError(t, r.PutRaw(ctx, "k", tenant, `{"a":2}`))
		res, err = r.ResolveRaw(ctx, "k", tenant)
		require.NoError(t, err)
		assert.Equal(t, tenant, res.Tenant)
		assert.False(t, res.Fallback())

		raw, ok, err := r.GetRaw(ctx, "k", tenant)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `{"a":2}`, raw)
	})

	t.Run("feature by key", func(t *testing.T) {
		require.NoError(t, r.PutRaw(ctx, "flag", tenant, `{"is_enabled":true,"other":"x"}`))
		enabled, err := r.FeatureEnabled(ctx, "flag", tenant)
		require.NoError(t, err)
		assert.True(t, enabled)
	})

	t.Run("delete and list unsupported", func(t *testing.T) {
		assert.ErrorIs(t, r.Delete(ctx, "k", tenant), ErrDeleteUnsupported)
		_, err := r.List(ctx, tenant)
		assert.ErrorIs(t, err, ErrListUnsupported)
	})
}

func TestDeleteRecord(t *testing.T) {
	ctx := context.Background()
	tenant := uuid.New()
	storage := deletingStorage{newMockStorage()}
	r := newTestResolver(t, storage)

	require.NoError(t, AddOrUpdateSetting(ctx, r, plainSetting{Name: "x"}, tenant))
	require.NoError(t, DeleteRecord[plainSetting](ctx, r, tenant))

	_, ok, err := GetSetting[plainSetting](ctx, r, tenant)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int32(1), storage.deletes.Load())
}

func TestGlobalExampleScenario(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	r := newTestResolver(t, storage, WithCipher(&testCipher{}))

	require.NoError(t, AddOrUpdateSetting(ctx, r, exampleSetting{
		SomeSetting:         "A",
		SomeEncryptedString: "secret",
	}, GlobalTenantID))

	got, err := GetSettingOrDefault[exampleSetting](ctx, r, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "A", got.SomeSetting)
	assert.Equal(t, "secret", got.SomeEncryptedString)
	assert.Nil(t, got.SomeEncryptedObject)

	raw, ok := storage.raw(KeyOf[exampleSetting](), GlobalTenantID)
	require.True(t, ok)
	assert.Contains(t, raw, `"some_setting":"A"`)
	assert.NotContains(t, raw, `"some_encrypted_string":"secret"`)
	assert.Contains(t, raw, `"some_encrypted_string":"enc:`)
}

func TestTwoResolversShareRecords(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	a := newTestResolver(t, storage)
	b := newTestResolver(t, storage)

	require.NoError(t, AddOrUpdateSetting(ctx, a, plainSetting{Name: "shared"}, GlobalTenantID))
	v, err := GetSettingOrDefault[plainSetting](ctx, b, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "shared", v.Name)
}

func TestConcurrentUse(t *testing.T) {
	ctx := context.Background()
	storage := newMockStorage()
	r := newTestResolver(t, storage, WithCipher(&testCipher{}))
	require.NoError(t, AddOrUpdateConfig(ctx, r, mailConfig{Host: "h", Password: "p"}))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tenant := uuid.New()
			assert.NoError(t, AddOrUpdateSetting(ctx, r, exampleSetting{SomeEncryptedString: tenant.String()}, tenant))
			got, err := GetSettingOrDefault[exampleSetting](ctx, r, tenant)
			assert.NoError(t, err)
			assert.Equal(t, tenant.String(), got.SomeEncryptedString)
			cfg, err := GetConfig[mailConfig](ctx, r)
			assert.NoError(t, err)
			assert.Equal(t, "p", cfg.Password)
		}()
	}
	wg.Wait()
}
