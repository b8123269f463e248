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
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/cardinalhq/oteltools/pkg/telemetry"
	slogmulti "github.com/samber/slog-multi"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/instrumentation/host"
	iruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/cardinalhq/settingsmanager/internal/idgen"
)

// instanceID tags every log line from this process.
var instanceID = newInstanceID()

func newInstanceID() int64 {
	g, err := idgen.NewFlakeGenerator()
	if err != nil {
		return rand.Int64N(1 << 62)
	}
	return g.NextID()
}

func otelEnabled() bool {
	return os.Getenv("OTEL_SERVICE_NAME") != "" && os.Getenv("ENABLE_OTLP_TELEMETRY") == "true"
}

// setupTelemetry installs the default slog logger and, when OTLP export is
// enabled, the OpenTelemetry SDK with runtime and host metrics. The
// returned context ends on SIGINT or SIGTERM. Logs go to stderr so command
// output on stdout stays machine readable.
func setupTelemetry(ctx context.Context, servicename string, debug bool) (context.Context, func() error, error) {
	doneCtx, doneCancel := handleSignals(ctx)

	f := func() error {
		doneCancel()
		return nil
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug || os.Getenv("DEBUG") != "" {
		opts.Level = slog.LevelDebug
	}

	if !otelEnabled() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, opts)).With(
			slog.String("service", servicename),
			slog.Int64("instanceID", instanceID),
		))
		return doneCtx, f, nil
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(
		slog.NewJSONHandler(os.Stderr, opts),
		otelslog.NewHandler(servicename),
	)).With(
		slog.String("service", servicename),
		slog.Int64("instanceID", instanceID),
	))
	slog.Info("OpenTelemetry exporting enabled")

	otelShutdown, err := telemetry.SetupOTelSDK(doneCtx)
	if err != nil {
		doneCancel()
		return ctx, nil, fmt.Errorf("failed to setup OpenTelemetry SDK: %w", err)
	}

	if err := iruntime.Start(iruntime.WithMinimumReadMemStatsInterval(10 * time.Second)); err != nil {
		slog.Warn("Failed to start runtime metrics", slog.Any("error", err))
	}
	if err := host.Start(); err != nil {
		slog.Warn("Failed to start host metrics", slog.Any("error", err))
	}

	f = func() error {
		defer doneCancel()
		slog.Info("Shutting down OpenTelemetry SDK")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return otelShutdown(ctx)
	}
	return doneCtx, f, nil
}
