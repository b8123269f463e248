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
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/cardinalhq/settingsmanager/internal/logctx"
)

// ErrNilTenant is returned when a write names no tenant.
var ErrNilTenant = errors.New("settings: tenant id is required")

// Resolver reads and writes records through a Storage. Build one with New
// and share it; its fields never change after construction.
type Resolver struct {
	storage Storage
	codec   *fieldCodec
	logger  *slog.Logger
}

type options struct {
	cipher   Cipher
	encoding jsoniter.Config
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*options)

// WithCipher enables encrypted fields.
func WithCipher(c Cipher) Option {
	return func(o *options) { o.cipher = c }
}

// WithEncoding replaces the JSON settings used for whole records and for
// encrypted field plaintext. The default matches encoding/json.
func WithEncoding(cfg jsoniter.Config) Option {
	return func(o *options) { o.encoding = cfg }
}

// WithLogger sets the logger used when the context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New builds a Resolver over storage.
func New(storage Storage, opts ...Option) (*Resolver, error) {
	if storage == nil {
		return nil, fmt.Errorf("%w: storage is required", ErrUninitialized)
	}
	o := options{encoding: defaultEncoding}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return &Resolver{
		storage: storage,
		codec:   newFieldCodec(o.encoding, o.cipher),
		logger:  o.logger,
	}, nil
}

// HasCipher reports whether encrypted fields can be read and written.
func (r *Resolver) HasCipher() bool {
	return r != nil && r.codec != nil && r.codec.cipher != nil
}

func (r *Resolver) ready() error {
	if r == nil || r.storage == nil || r.codec == nil {
		return ErrUninitialized
	}
	return nil
}

func (r *Resolver) log(ctx context.Context) *slog.Logger {
	return logctx.FromContextOr(ctx, r.logger)
}

// load reads one payload. A stored JSON null counts as absent.
func (r *Resolver) load(ctx context.Context, key string, tenant uuid.UUID) (string, bool, error) {
	if err := r.ready(); err != nil {
		return "", false, err
	}
	raw, ok, err := r.storage.TryGet(ctx, key, tenant)
	if err != nil {
		return "", false, err
	}
	if !ok || strings.TrimSpace(raw) == "null" {
		return "", false, nil
	}
	return raw, true, nil
}

// resolve reads tenant and then the global scope. uuid.Nil skips the
// tenant read.
func (r *Resolver) resolve(ctx context.Context, key string, tenant uuid.UUID) (string, uuid.UUID, error) {
	if tenant != uuid.Nil && tenant != GlobalTenantID {
		raw, ok, err := r.load(ctx, key, tenant)
		if err != nil {
			return "", uuid.Nil, err
		}
		if ok {
			return raw, tenant, nil
		}
		r.log(ctx).Debug("No tenant record, using global default",
			slog.String("key", key),
			slog.String("tenant", tenant.String()))
	}
	raw, ok, err := r.load(ctx, key, GlobalTenantID)
	if err != nil {
		return "", uuid.Nil, err
	}
	if !ok {
		r.log(ctx).Warn("Global default is not provisioned", slog.String("key", key))
		return "", uuid.Nil, &MissingGlobalDefaultError{Key: key}
	}
	return raw, GlobalTenantID, nil
}

func (r *Resolver) decode(key string, tenant uuid.UUID, raw string, v any) error {
	err := r.codec.unmarshal(raw, v)
	if err == nil {
		return nil
	}
	var f *fieldFailure
	if errors.As(err, &f) {
		if f.missingCipher {
			return &CipherConfigurationError{Key: key, Field: f.field}
		}
		return &DecodeError{Key: key, Tenant: tenant, Field: f.field, Err: f.err}
	}
	return &DecodeError{Key: key, Tenant: tenant, Err: err}
}

func (r *Resolver) encode(key string, v any) (string, error) {
	out, err := r.codec.marshal(v)
	if err == nil {
		return out, nil
	}
	var f *fieldFailure
	if errors.As(err, &f) {
		if f.missingCipher {
			return "", &CipherConfigurationError{Key: key, Field: f.field}
		}
		return "", &EncodeError{Key: key, Field: f.field, Err: f.err}
	}
	return "", &EncodeError{Key: key, Err: err}
}

func (r *Resolver) store(ctx context.Context, key string, tenant uuid.UUID, v any) error {
	if err := r.ready(); err != nil {
		return err
	}
	if tenant == uuid.Nil {
		return ErrNilTenant
	}
	payload, err := r.encode(key, v)
	if err != nil {
		return err
	}
	return r.storage.Put(ctx, key, tenant, payload)
}

// GetRaw returns the payload stored for exactly (key, tenant).
func (r *Resolver) GetRaw(ctx context.Context, key string, tenant uuid.UUID) (string, bool, error) {
	return r.load(ctx, key, tenant)
}

// RawResolution is a payload and the tenant whose record supplied it.
type RawResolution struct {
	Payload string
	Tenant  uuid.UUID
}

// Fallback reports whether the global default answered.
func (rr RawResolution) Fallback() bool {
	return rr.Tenant == GlobalTenantID
}

// ResolveRaw applies setting resolution to key without decoding: the
// tenant's record, else the global one, else a MissingGlobalDefaultError.
func (r *Resolver) ResolveRaw(ctx context.Context, key string, tenant uuid.UUID) (RawResolution, error) {
	raw, from, err := r.resolve(ctx, key, tenant)
	if err != nil {
		return RawResolution{}, err
	}
	return RawResolution{Payload: raw, Tenant: from}, nil
}

// PutRaw stores payload after checking that it is well-formed JSON.
// Encrypted fields inside payload are stored as given.
func (r *Resolver) PutRaw(ctx context.Context, key string, tenant uuid.UUID, payload string) error {
	if err := r.ready(); err != nil {
		return err
	}
	if tenant == uuid.Nil {
		return ErrNilTenant
	}
	if !r.codec.api.Valid([]byte(payload)) {
		return &EncodeError{Key: key, Err: errors.New("payload is not valid JSON")}
	}
	return r.storage.Put(ctx, key, tenant, payload)
}

// FeatureEnabled reads the is_enabled flag of the record at (key, tenant).
// A missing record is disabled. A record that does not decode as a
// FeatureProjection is a DecodeError.
func (r *Resolver) FeatureEnabled(ctx context.Context, key string, tenant uuid.UUID) (bool, error) {
	raw, ok, err := r.load(ctx, key, tenant)
	if err != nil || !ok {
		return false, err
	}
	var p FeatureProjection
	if err := r.decode(key, tenant, raw, &p); err != nil {
		return false, err
	}
	return p.IsEnabled, nil
}

// Delete removes the record at (key, tenant) if the storage supports it.
func (r *Resolver) Delete(ctx context.Context, key string, tenant uuid.UUID) error {
	if err := r.ready(); err != nil {
		return err
	}
	d, ok := r.storage.(Deleter)
	if !ok {
		return ErrDeleteUnsupported
	}
	return d.Delete(ctx, key, tenant)
}

// List returns the raw records stored for tenant, without fallback.
func (r *Resolver) List(ctx context.Context, tenant uuid.UUID) ([]Record, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	l, ok := r.storage.(Lister)
	if !ok {
		return nil, ErrListUnsupported
	}
	return l.List(ctx, tenant)
}
