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
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level string

type allKinds struct {
	Str      string            `json:"str" settings:"encrypted"`
	Named    level             `json:"named" settings:"encrypted"`
	Int      int               `json:"int" settings:"encrypted"`
	Float    float64           `json:"float" settings:"encrypted"`
	Bool     bool              `json:"bool" settings:"encrypted"`
	Slice    []string          `json:"slice" settings:"encrypted"`
	Map      map[string]int    `json:"map" settings:"encrypted"`
	Ptr      *encryptedObject  `json:"ptr" settings:"encrypted"`
	Struct   encryptedObject   `json:"struct" settings:"encrypted"`
	Plain    string            `json:"plain"`
	Optional string            `json:"optional,omitempty" settings:"encrypted"`
	Nested   *nestedEncryption `json:"nested" settings:"encrypted"`
}

type nestedEncryption struct {
	Secret string `json:"secret" settings:"encrypted"`
}

type counted struct {
	Count int `json:"count" settings:"encrypted"`
}

func TestEncryptedFieldRoundTrip(t *testing.T) {
	cipher := &testCipher{}
	r := newTestResolver(t, newMockStorage(), WithCipher(cipher))

	in := allKinds{
		Str:    "is it secret? is it safe?",
		Named:  level("debug"),
		Int:    42,
		Float:  1.5,
		Bool:   true,
		Slice:  []string{"a", "b"},
		Map:    map[string]int{"x": 1, "y": 2},
		Ptr:    &encryptedObject{SomeSetting: "hi mom"},
		Struct: encryptedObject{SomeSetting: "inline"},
		Plain:  "visible",
		Nested: &nestedEncryption{Secret: "deep"},
	}

	payload, err := r.encode("k", in)
	require.NoError(t, err)
	assert.NotContains(t, payload, "is it secret")
	assert.NotContains(t, payload, "hi mom")
	assert.NotContains(t, payload, "deep")
	assert.Contains(t, payload, `"plain":"visible"`)
	assert.NotContains(t, payload, `"optional"`, "empty encrypted field honors omitempty")

	var out allKinds
	require.NoError(t, r.decode("k", GlobalTenantID, payload, &out))
	assert.Equal(t, in, out)
}

func TestEncryptedFieldStringIsVerbatim(t *testing.T) {
	cipher := &testCipher{}
	r := newTestResolver(t, newMockStorage(), WithCipher(cipher))

	payload, err := r.encode("k", counted{Count: 42})
	require.NoError(t, err)
	assert.Equal(t, `{"count":"enc:NDI="}`, payload)

	payload, err = r.encode("k", allKinds{Str: "A"})
	require.NoError(t, err)
	assert.Contains(t, payload, `"str":"enc:QQ=="`, "strings are encrypted without JSON quoting")
}

type optionalSecret struct {
	Token *string `json:"token" settings:"encrypted"`
	Level *level  `json:"level" settings:"encrypted"`
}

func TestEncryptedStringPointer(t *testing.T) {
	cipher := &testCipher{}
	r := newTestResolver(t, newMockStorage(), WithCipher(cipher))

	token := "A"
	lvl := level("debug")
	payload, err := r.encode("k", optionalSecret{Token: &token, Level: &lvl})
	require.NoError(t, err)
	assert.Contains(t, payload, `"token":"enc:QQ=="`, "string pointers are encrypted without JSON quoting")

	var out optionalSecret
	require.NoError(t, r.decode("k", GlobalTenantID, payload, &out))
	require.NotNil(t, out.Token)
	assert.Equal(t, "A", *out.Token)
	require.NotNil(t, out.Level)
	assert.Equal(t, level("debug"), *out.Level)

	payload, err = r.encode("k", optionalSecret{})
	require.NoError(t, err)
	assert.Equal(t, `{"token":null,"level":null}`, payload)

	out = optionalSecret{Token: &token}
	require.NoError(t, r.decode("k", GlobalTenantID, payload, &out))
	assert.Nil(t, out.Token)
	assert.Nil(t, out.Level)
}

func TestEncryptedFieldNull(t *testing.T) {
	t.Run("nil encodes as null without the cipher", func(t *testing.T) {
		cipher := &testCipher{}
		r := newTestResolver(t, newMockStorage(), WithCipher(cipher))

		payload, err := r.encode("k", exampleSetting{SomeSetting: "A", SomeEncryptedString: "s"})
		require.NoError(t, err)
		assert.Contains(t, payload, `"some_encrypted_object":null`)
		assert.Equal(t, int32(1), cipher.encrypts.Load())
	})

	t.Run("null decodes to zero value", func(t *testing.T) {
		cipher := &testCipher{}
		r := newTestResolver(t, newMockStorage(), WithCipher(cipher))

		out := allKinds{Ptr: &encryptedObject{SomeSetting: "stale"}, Int: 7}
		require.NoError(t, r.decode("k", GlobalTenantID, `{"ptr":null,"int":null,"str":null}`, &out))
		assert.Nil(t, out.Ptr)
		assert.Zero(t, out.Int)
		assert.Empty(t, out.Str)
		assert.Equal(t, int32(0), cipher.decrypts.Load())
	})

	t.Run("nil without a cipher is fine", func(t *testing.T) {
		r := newTestResolver(t, newMockStorage())
		_, err := r.encode("k", allKinds{})
		require.Error(t, err, "non-nil encrypted fields still need the cipher")

		payload, err := r.encode("k", struct {
			P *encryptedObject `json:"p" settings:"encrypted"`
		}{})
		require.NoError(t, err)
		assert.Equal(t, `{"p":null}`, payload)
	})
}

func TestEncryptedFieldErrors(t *testing.T) {
	tenant := uuid.New()

	t.Run("missing cipher on encode", func(t *testing.T) {
		r := newTestResolver(t, newMockStorage())
		_, err := r.encode("k", counted{Count: 1})

		var cce *CipherConfigurationError
		require.ErrorAs(t, err, &cce)
		assert.Equal(t, "Count", cce.Field)
		assert.Equal(t, "k", cce.Key)
		assert.ErrorIs(t, err, ErrCipherNotConfigured)
	})

	t.Run("missing cipher on decode", func(t *testing.T) {
		r := newTestResolver(t, newMockStorage())
		var out counted
		err := r.decode("k", tenant, `{"count":"enc:NDI="}`, &out)
		assert.ErrorIs(t, err, ErrCipherNotConfigured)
	})

	t.Run("missing cipher on pointer field", func(t *testing.T) {
		r := newTestResolver(t, newMockStorage())
		var out allKinds
		err := r.decode("k", tenant, `{"nested":"enc:e30="}`, &out)
		assert.ErrorIs(t, err, ErrCipherNotConfigured)
	})

	t.Run("decrypt failure", func(t *testing.T) {
		r := newTestResolver(t, newMockStorage(), WithCipher(&testCipher{}))
		var out counted
		err := r.decode("k", tenant, `{"count":"plaintext"}`, &out)

		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Count", de.Field)
		assert.Equal(t, tenant, de.Tenant)
		assert.ErrorIs(t, err, errBadCiphertext)
	})

	t.Run("decrypted text does not fit the field", func(t *testing.T) {
		cipher := &testCipher{}
		r := newTestResolver(t, newMockStorage(), WithCipher(cipher))
		ct, _ := cipher.Encrypt(`"not a number"`)
		var out counted
		err := r.decode("k", tenant, `{"count":"`+ct+`"}`, &out)

		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Count", de.Field)
	})

	t.Run("ciphertext is not a string", func(t *testing.T) {
		r := newTestResolver(t, newMockStorage(), WithCipher(&testCipher{}))
		var out counted
		err := r.decode("k", tenant, `{"count":42}`, &out)

		var de *DecodeError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "Count", de.Field)
	})

	t.Run("encrypt failure", func(t *testing.T) {
		boom := errors.New("kms unavailable")
		r := newTestResolver(t, newMockStorage(), WithCipher(&testCipher{fail: boom}))
		_, err := r.encode("k", counted{Count: 1})

		var ee *EncodeError
		require.ErrorAs(t, err, &ee)
		assert.Equal(t, "Count", ee.Field)
		assert.ErrorIs(t, err, boom)
	})
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	r := newTestResolver(t, newMockStorage())

	for _, payload := range []string{"", "   ", `{"name":`, `{"name":"a"} trailing`, `[1,2]`} {
		var out plainSetting
		err := r.decode("k", GlobalTenantID, payload, &out)
		var de *DecodeError
		assert.ErrorAs(t, err, &de, "payload %q", payload)
	}
}

func TestPlainRecordRoundTrip(t *testing.T) {
	r := newTestResolver(t, newMockStorage())

	in := plainSetting{Name: "n", Limit: 10, Tags: map[string]string{"b": "2", "a": "1"}}
	payload, err := r.encode("k", in)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"n","limit":10,"tags":{"a":"1","b":"2"}}`, payload)

	var out plainSetting
	require.NoError(t, r.decode("k", GlobalTenantID, payload, &out))
	assert.Equal(t, in, out)
}

func TestEncodedExampleSettingGolden(t *testing.T) {
	r := newTestResolver(t, newMockStorage(), WithCipher(&testCipher{}))

	payload, err := r.encode(KeyOf[exampleSetting](), exampleSetting{
		SomeSetting:         "A",
		SomeEncryptedString: "secret",
		SomeEncryptedObject: &encryptedObject{SomeSetting: "hi mom"},
	})
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "example_setting", []byte(payload))
}

func TestEncryptedTag(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{`settings:"encrypted"`, true},
		{`json:"x" settings:"encrypted"`, true},
		{`settings:"foo, encrypted"`, true},
		{`settings:"encrypt"`, false},
		{`json:"encrypted"`, false},
		{``, false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, encryptedTag(reflect.StructTag(tt.tag)))
		})
	}
}
