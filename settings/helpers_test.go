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
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type storageKey struct {
	key    string
	tenant uuid.UUID
}

// mockStorage is a map-backed Storage that counts calls.
type mockStorage struct {
	mu      sync.Mutex
	data    map[storageKey]string
	getErr  error
	putErr  error
	gets    atomic.Int32
	puts    atomic.Int32
	deletes atomic.Int32
}

func newMockStorage() *mockStorage {
	return &mockStorage{data: map[storageKey]string{}}
}

func (m *mockStorage) TryGet(_ context.Context, key string, tenant uuid.UUID) (string, bool, error) {
	m.gets.Add(1)
	if m.getErr != nil {
		return "", false, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[storageKey{key, tenant}]
	return v, ok, nil
}

func (m *mockStorage) Put(_ context.Context, key string, tenant uuid.UUID, value string) error {
	m.puts.Add(1)
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[storageKey{key, tenant}] = value
	return nil
}

func (m *mockStorage) raw(key string, tenant uuid.UUID) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[storageKey{key, tenant}]
	return v, ok
}

func (m *mockStorage) set(key string, tenant uuid.UUID, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[storageKey{key, tenant}] = value
}

// deletingStorage adds Deleter to mockStorage.
type deletingStorage struct {
	*mockStorage
}

func (d deletingStorage) Delete(_ context.Context, key string, tenant uuid.UUID) error {
	d.deletes.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.data, storageKey{key, tenant})
	return nil
}

var errBadCiphertext = errors.New("bad ciphertext")

// testCipher is deterministic so encoded payloads can be compared to
// golden files. It is not encryption.
type testCipher struct {
	encrypts atomic.Int32
	decrypts atomic.Int32
	fail     error
}

func (c *testCipher) Encrypt(plaintext string) (string, error) {
	c.encrypts.Add(1)
	if c.fail != nil {
		return "", c.fail
	}
	return "enc:" + base64.StdEncoding.EncodeToString([]byte(plaintext)), nil
}

func (c *testCipher) Decrypt(ciphertext string) (string, error) {
	c.decrypts.Add(1)
	if c.fail != nil {
		return "", c.fail
	}
	rest, ok := strings.CutPrefix(ciphertext, "enc:")
	if !ok {
		return "", errBadCiphertext
	}
	b, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return "", errBadCiphertext
	}
	return string(b), nil
}

type encryptedObject struct {
	SomeSetting string `json:"some_setting"`
}

type exampleSetting struct {
	SettingRecord
	SomeSetting             string           `json:"some_setting"`
	SomeSettingNotDefaulted *string          `json:"some_setting_not_defaulted,omitempty"`
	SomeInt                 *int             `json:"some_int,omitempty"`
	SomeEncryptedString     string           `json:"some_encrypted_string" settings:"encrypted"`
	SomeEncryptedObject     *encryptedObject `json:"some_encrypted_object" settings:"encrypted"`
}

type plainSetting struct {
	SettingRecord
	Name  string            `json:"name"`
	Limit int               `json:"limit"`
	Tags  map[string]string `json:"tags,omitempty"`
}

type mailConfig struct {
	ConfigRecord
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Password string `json:"password" settings:"encrypted"`
}

type betaFeature struct {
	FeatureRecord
}

// parameterizedFeature is both a setting and a feature.
type parameterizedFeature struct {
	SettingRecord
	FeatureRecord
	Rollout int    `json:"rollout"`
	Token   string `json:"token" settings:"encrypted"`
}

type pinnedSetting struct {
	SettingRecord
	Value string `json:"value"`
}

func (pinnedSetting) SettingsKey() string { return "legacy.PinnedSetting" }

func newTestResolver(t *testing.T, storage Storage, opts ...Option) *Resolver {
	t.Helper()
	r, err := New(storage, opts...)
	require.NoError(t, err)
	return r
}
