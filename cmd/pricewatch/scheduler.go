package main

import (
	"context"
	"log/slog"
	"time"

	"pricewatch/internal/components/chrono"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/config"
	"pricewatch/internal/monitor"
)

// RunJob runs one monitoring cycle, failures are logged and the daemon keeps
// waiting for the next trigger.
func RunJob(ctx context.Context, job monitor.Job) {
	result, err := job.Run(ctx)
	if err != nil {
		slog.Error("monitoring cycle failed", "err", err)
		return
	}
	slog.Info("monitoring cycle completed", "changes", result.Changes, "notified", result.Notified)
}

func InitScheduler(cfg config.Config, location *time.Location, job monitor.Job, tel telemetry.API) (chrono.StandardCron, error) {
	cron := chrono.NewStandardCron(location, tel)
	err := cron.Cron(cfg.Schedule, func() {
		slog.Info("scheduled run")
		RunJob(context.Background(), job)
	})
	if err != nil {
		cron.Stop()
		return chrono.StandardCron{}, err
	}
	return cron, nil
}
