package main

import (
	"context"
	"log/slog"

	"pricewatch/internal/components/telemetry"
	"pricewatch/pkg/serviceutil"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	otel, err := telemetry.SetupFromEnv(ctx, "pricewatch")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		otel.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)
}
