package main

import (
	"context"
	"log/slog"

	"trolley-backend/lib/restyutil"
	"trolley-backend/lib/serviceutil"
	"trolley-backend/lib/telemetry"
	"trolley-backend/services/ingest"
)

func InitTelemetry(ctx context.Context, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	err := telemetry.SetupFromEnv(ctx, "trolley-server")
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		telemetry.Shutdown(context.Background())
	}()
	telemetry.InstrumentPerfStats(ctx)

	if !verbose {
		return
	}

	ingest.SetRestyInstrumentOutput(
		restyutil.NewFilesystemOutput(".dev/resty/ingest"),
	)
}
