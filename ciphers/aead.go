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

// Package ciphers provides settings.Cipher implementations.
package ciphers

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/cardinalhq/settingsmanager/settings"
)

// Algorithm names accepted by New.
const (
	AlgorithmAESGCM            = "aes-gcm"
	AlgorithmXChaCha20Poly1305 = "xchacha20-poly1305"
)

// ErrDecrypt is returned for ciphertext that fails authentication. The
// underlying reason is not exposed.
var ErrDecrypt = errors.New("ciphers: decryption failed (wrong key or tampered data)")

// AEAD seals each value with a fresh random nonce. The ciphertext is the
// nonce followed by the sealed bytes, base64 encoded without padding.
type AEAD struct {
	name string
	aead cipher.AEAD
}

var _ settings.Cipher = (*AEAD)(nil)

// NewAESGCM returns AES-GCM with a 16, 24 or 32 byte key.
func NewAESGCM(key []byte) (*AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes key: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aes-gcm: %w", err)
	}
	return &AEAD{name: AlgorithmAESGCM, aead: gcm}, nil
}

// NewXChaCha20Poly1305 returns XChaCha20-Poly1305 with a 32 byte key.
func NewXChaCha20Poly1305(key []byte) (*AEAD, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("xchacha20-poly1305 key: %w", err)
	}
	return &AEAD{name: AlgorithmXChaCha20Poly1305, aead: aead}, nil
}

// New returns the named algorithm keyed with key.
func New(algorithm string, key []byte) (*AEAD, error) {
	switch strings.ToLower(algorithm) {
	case AlgorithmAESGCM, "aes", "":
		return NewAESGCM(key)
	case AlgorithmXChaCha20Poly1305, "xchacha":
		return NewXChaCha20Poly1305(key)
	default:
		return nil, fmt.Errorf("unknown cipher algorithm %q", algorithm)
	}
}

// Algorithm returns the algorithm name.
func (a *AEAD) Algorithm() string {
	return a.name
}

func (a *AEAD) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, a.aead.NonceSize(), a.aead.NonceSize()+len(plaintext)+a.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := a.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

func (a *AEAD) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.RawStdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("ciphertext encoding: %w", err)
	}
	ns := a.aead.NonceSize()
	if len(raw) < ns+a.aead.Overhead() {
		return "", errors.New("ciphertext too short")
	}
	plaintext, err := a.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}
