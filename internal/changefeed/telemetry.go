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

package changefeed

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	eventsPublishedCounter otelmetric.Int64Counter
	eventsFailedCounter    otelmetric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/settingsmanager/internal/changefeed")

	var err error
	eventsPublishedCounter, err = meter.Int64Counter(
		"settingsmanager.changefeed.events.published",
		otelmetric.WithDescription("Number of change events written to Kafka"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create events.published counter: %w", err))
	}

	eventsFailedCounter, err = meter.Int64Counter(
		"settingsmanager.changefeed.events.failed",
		otelmetric.WithDescription("Number of change events that could not be written"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create events.failed counter: %w", err))
	}
}

func recordPublish(ctx context.Context, op Op, err error) {
	attrs := otelmetric.WithAttributes(attribute.String("op", string(op)))
	if err != nil {
		eventsFailedCounter.Add(ctx, 1, attrs)
		return
	}
	eventsPublishedCounter.Add(ctx, 1, attrs)
}
