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

// Package changefeed wraps a settings.Storage and announces every
// successful write on a Kafka topic.
package changefeed

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/cardinalhq/settingsmanager/internal/idgen"
	"github.com/cardinalhq/settingsmanager/internal/logctx"
	"github.com/cardinalhq/settingsmanager/settings"
)

// Writer is the subset of *kafka.Writer used by Feed.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Feed is a settings.Storage decorator. Publishing failures are logged
// and counted but never fail the write that caused them.
type Feed struct {
	next    settings.Storage
	writer  Writer
	timeout time.Duration
	now     func() time.Time
	ids     func(time.Time) string
}

var (
	_ settings.Storage = (*Feed)(nil)
	_ settings.Deleter = (*Feed)(nil)
	_ settings.Lister  = (*Feed)(nil)
)

// New wraps next. timeout bounds each publish; zero means no bound beyond
// the caller's context.
func New(next settings.Storage, writer Writer, timeout time.Duration) *Feed {
	return &Feed{
		next:    next,
		writer:  writer,
		timeout: timeout,
		now:     time.Now,
		ids:     idgen.NewULIDGenerator().Make,
	}
}

func (f *Feed) TryGet(ctx context.Context, key string, tenant uuid.UUID) (string, bool, error) {
	return f.next.TryGet(ctx, key, tenant)
}

func (f *Feed) Put(ctx context.Context, key string, tenant uuid.UUID, value string) error {
	if err := f.next.Put(ctx, key, tenant, value); err != nil {
		return err
	}
	f.publish(ctx, f.event(key, tenant, OpPut))
	return nil
}

func (f *Feed) Delete(ctx context.Context, key string, tenant uuid.UUID) error {
	d, ok := f.next.(settings.Deleter)
	if !ok {
		return settings.ErrDeleteUnsupported
	}
	if err := d.Delete(ctx, key, tenant); err != nil {
		return err
	}
	f.publish(ctx, f.event(key, tenant, OpDelete))
	return nil
}

func (f *Feed) List(ctx context.Context, tenant uuid.UUID) ([]settings.Record, error) {
	l, ok := f.next.(settings.Lister)
	if !ok {
		return nil, settings.ErrListUnsupported
	}
	return l.List(ctx, tenant)
}

func (f *Feed) event(key string, tenant uuid.UUID, op Op) Event {
	at := f.now().UTC()
	return Event{ID: f.ids(at), Key: key, TenantID: tenant, Op: op, At: at}
}

// Close closes the writer.
func (f *Feed) Close() error {
	return f.writer.Close()
}

func (f *Feed) publish(ctx context.Context, e Event) {
	ctx = context.WithoutCancel(ctx)
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	msg, err := e.toKafkaMessage()
	if err == nil {
		err = f.writer.WriteMessages(ctx, msg)
	}
	recordPublish(ctx, e.Op, err)
	if err != nil {
		logctx.FromContext(ctx).Warn("Failed to publish change event",
			slog.String("key", e.Key),
			slog.String("tenant", e.TenantID.String()),
			slog.String("op", string(e.Op)),
			slog.Any("error", err))
	}
}
