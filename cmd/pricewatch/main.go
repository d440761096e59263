package main

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"pricewatch/internal/app"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/config"
	"pricewatch/pkg/serviceutil"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "The config file to read.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)
	tel := telemetry.SlogAPI{}

	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	a, err := app.New(ctx, cfg, tel)
	if err != nil {
		serviceutil.Fatal("init app", err)
	}
	defer a.Close()

	notifiers := a.Notifiers()
	if len(notifiers) == 0 {
		slog.Warn("no notifier configured, changes will only be logged")
	}
	job := a.NewJob(notifiers)
	registry := a.NewRegistry(job)

	if cfg.RunOnStart {
		RunJob(ctx, job)
	}

	cron, err := InitScheduler(cfg, a.Time.Location(), job, tel)
	if err != nil {
		serviceutil.Fatal("init scheduler", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		select {
		case <-cron.Stop().Done():
		case <-stopCtx.Done():
			slog.Warn("gave up waiting for the running cycle")
		}
	}()

	InitTelegram(ctx, cfg.Telegram, a, registry, tel)
	InitApi(ctx, cfg.Api, registry, tel)

	slog.Info("price monitor started", "categories", len(cfg.Categories), "schedule", cfg.Schedule)
	<-ctx.Done()
	slog.Info("shutting down")
}
