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
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cardinalhq/settingsmanager/config"
	"github.com/cardinalhq/settingsmanager/internal/changefeed"
	"github.com/cardinalhq/settingsmanager/internal/cloudstorage"
	"github.com/cardinalhq/settingsmanager/internal/dbopen"
	"github.com/cardinalhq/settingsmanager/internal/memstore"
	"github.com/cardinalhq/settingsmanager/internal/redisstore"
	"github.com/cardinalhq/settingsmanager/internal/sqlitestore"
	"github.com/cardinalhq/settingsmanager/internal/storetel"
	"github.com/cardinalhq/settingsmanager/settings"
	"github.com/cardinalhq/settingsmanager/settingsdb"
)

// backend is an opened Storage and the handles to release with it.
type backend struct {
	storage settings.Storage
	closers []func() error
}

func (b *backend) onClose(f func() error) {
	b.closers = append(b.closers, f)
}

// Close releases handles in reverse order of opening.
func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// openStorage builds the configured backend, then layers instrumentation
// and the change feed over it.
func openStorage(ctx context.Context, cfg *config.Config, dbOpts ...dbopen.Options) (*backend, error) {
	b := &backend{}

	switch cfg.Storage.Backend {
	case config.BackendMemory:
		slog.Warn("Using in-memory storage; records are lost on exit")
		b.storage = memstore.New()

	case config.BackendPostgres:
		pool, err := settingsdb.ConnectToSettingsDB(ctx, dbOpts...)
		if err != nil {
			return nil, err
		}
		b.onClose(func() error { pool.Close(); return nil })
		b.storage = settingsdb.NewStorage(settingsdb.New(pool))

	case config.BackendSQLite:
		store, err := sqlitestore.Open(ctx, cfg.Storage.SQLite.Path)
		if err != nil {
			return nil, err
		}
		b.onClose(store.Close)
		b.storage = store

	case config.BackendRedis:
		client, err := redisstore.Dial(ctx, cfg.Storage.Redis.URL)
		if err != nil {
			return nil, err
		}
		b.onClose(client.Close)
		b.storage = redisstore.New(client, cfg.Storage.Redis.Prefix)

	case config.BackendObject:
		client, err := cloudstorage.NewClient(ctx, cfg.Storage.Object)
		if err != nil {
			return nil, err
		}
		b.storage = cloudstorage.NewStore(client, cfg.Storage.Object.Bucket, cfg.Storage.Object.Prefix)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.Instrument {
		b.storage = storetel.Wrap(b.storage, cfg.Storage.Backend)
	}

	if cfg.Changefeed.Enabled {
		writer, err := changefeed.NewWriter(cfg.Changefeed)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("changefeed: %w", err)
		}
		feed := changefeed.New(b.storage, writer, cfg.Changefeed.WriteTimeout)
		b.onClose(feed.Close)
		b.storage = feed
	}

	slog.Info("Storage opened",
		slog.String("backend", cfg.Storage.Backend),
		slog.Bool("instrumented", cfg.Storage.Instrument),
		slog.Bool("changefeed", cfg.Changefeed.Enabled))
	return b, nil
}

// openResolver opens storage and builds a Resolver with the configured
// cipher.
func openResolver(ctx context.Context, cfg *config.Config) (*settings.Resolver, *backend, error) {
	cipher, err := cfg.Cipher.Build()
	if err != nil {
		return nil, nil, err
	}

	b, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []settings.Option{settings.WithLogger(slog.Default())}
	if cipher != nil {
		opts = append(opts, settings.WithCipher(cipher))
	}
	r, err := settings.New(b.storage, opts...)
	if err != nil {
		_ = b.Close()
		return nil, nil, err
	}
	return r, b, nil
}
