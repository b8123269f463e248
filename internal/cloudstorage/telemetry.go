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
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	objectErrors metric.Int64Counter
	getCount     metric.Int64Counter
	getBytes     metric.Int64Counter
	putCount     metric.Int64Counter
	putBytes     metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/settingsmanager/internal/cloudstorage")

	var err error
	objectErrors, err = meter.Int64Counter(
		"settingsmanager.objectstore.errors",
		metric.WithDescription("Number of failed object store calls"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create objectstore.errors counter: %w", err))
	}

	getCount, err = meter.Int64Counter(
		"settingsmanager.objectstore.get.count",
		metric.WithDescription("Number of objects read"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create get.count counter: %w", err))
	}

	getBytes, err = meter.Int64Counter(
		"settingsmanager.objectstore.get.bytes",
		metric.WithDescription("Bytes read from the object store"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create get.bytes counter: %w", err))
	}

	putCount, err = meter.Int64Counter(
		"settingsmanager.objectstore.put.count",
		metric.WithDescription("Number of objects written"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create put.count counter: %w", err))
	}

	putBytes, err = meter.Int64Counter(
		"settingsmanager.objectstore.put.bytes",
		metric.WithDescription("Bytes written to the object store"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create put.bytes counter: %w", err))
	}
}

func recordError(ctx context.Context, provider, op, reason string) {
	objectErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("op", op),
		attribute.String("reason", reason),
	))
}

func recordGet(ctx context.Context, provider string, size int) {
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	getCount.Add(ctx, 1, attrs)
	getBytes.Add(ctx, int64(size), attrs)
}

func recordPut(ctx context.Context, provider string, size int) {
	attrs := metric.WithAttributes(attribute.String("provider", provider))
	putCount.Add(ctx, 1, attrs)
	putBytes.Add(ctx, int64(size), attrs)
}
