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

// Package storetel adds OpenTelemetry spans and metrics to a
// settings.Storage.
package storetel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardinalhq/settingsmanager/settings"
)

const instrumentationName = "github.com/cardinalhq/settingsmanager/internal/storetel"

var (
	opCounter  metric.Int64Counter
	opDuration metric.Float64Histogram
)

func init() {
	meter := otel.Meter(instrumentationName)

	var err error
	opCounter, err = meter.Int64Counter(
		"settingsmanager.storage.operations",
		metric.WithDescription("Number of storage operations by backend, operation and outcome"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create storage.operations counter: %w", err))
	}

	opDuration, err = meter.Float64Histogram(
		"settingsmanager.storage.duration",
		metric.WithDescription("Storage operation latency"),
		metric.WithUnit("s"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create storage.duration histogram: %w", err))
	}
}

// Storage wraps a settings.Storage. Delete and List pass through when the
// wrapped storage supports them.
type Storage struct {
	next    settings.Storage
	backend string
}

var (
	_ settings.Storage = (*Storage)(nil)
	_ settings.Deleter = (*Storage)(nil)
	_ settings.Lister  = (*Storage)(nil)
)

// Wrap instruments next. backend names it in spans and metrics.
func Wrap(next settings.Storage, backend string) *Storage {
	return &Storage{next: next, backend: backend}
}

// Unwrap returns the wrapped storage.
func (s *Storage) Unwrap() settings.Storage {
	return s.next
}

func (s *Storage) start(ctx context.Context, op, key string, tenant uuid.UUID) (context.Context, trace.Span, func(outcome string, err error)) {
	attrs := []attribute.KeyValue{
		attribute.String("storage.backend", s.backend),
		attribute.String("tenant_id", tenant.String()),
	}
	if key != "" {
		attrs = append(attrs, attribute.String("settings.key", key))
	}
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "storage."+op, trace.WithAttributes(attrs...))
	started := time.Now()

	return ctx, span, func(outcome string, err error) {
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("outcome", outcome))
		span.End()

		metricAttrs := metric.WithAttributes(
			attribute.String("backend", s.backend),
			attribute.String("op", op),
			attribute.String("outcome", outcome),
		)
		opCounter.Add(ctx, 1, metricAttrs)
		opDuration.Record(ctx, time.Since(started).Seconds(), metricAttrs)
	}
}

func (s *Storage) TryGet(ctx context.Context, key string, tenant uuid.UUID) (string, bool, error) {
	ctx, _, done := s.start(ctx, "get", key, tenant)
	value, ok, err := s.next.TryGet(ctx, key, tenant)
	outcome := "hit"
	if !ok {
		outcome = "miss"
	}
	done(outcome, err)
	return value, ok, err
}

func (s *Storage) Put(ctx context.Context, key string, tenant uuid.UUID, value string) error {
	ctx, span, done := s.start(ctx, "put", key, tenant)
	span.SetAttributes(attribute.Int("settings.payload_bytes", len(value)))
	err := s.next.Put(ctx, key, tenant, value)
	done("ok", err)
	return err
}

func (s *Storage) Delete(ctx context.Context, key string, tenant uuid.UUID) error {
	d, ok := s.next.(settings.Deleter)
	if !ok {
		return settings.ErrDeleteUnsupported
	}
	ctx, _, done := s.start(ctx, "delete", key, tenant)
	err := d.Delete(ctx, key, tenant)
	done("ok", err)
	return err
}

func (s *Storage) List(ctx context.Context, tenant uuid.UUID) ([]settings.Record, error) {
	l, ok := s.next.(settings.Lister)
	if !ok {
		return nil, settings.ErrListUnsupported
	}
	ctx, span, done := s.start(ctx, "list", "", tenant)
	recs, err := l.List(ctx, tenant)
	span.SetAttributes(attribute.Int("settings.record_count", len(recs)))
	done("ok", err)
	return recs, err
}
