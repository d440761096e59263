package main

import (
	"context"

	"pricewatch/internal/commands"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/config"
	"pricewatch/internal/httpapi"
	"pricewatch/pkg/serviceutil"
)

func InitApi(ctx context.Context, cfg *config.ApiConfig, registry *commands.Registry, tel telemetry.API) {
	if cfg == nil {
		return
	}

	router := httpapi.SetupRouter(
		httpapi.Options{Token: cfg.Token, Release: true},
		httpapi.NewHandler(registry, tel),
	)
	go func() {
		err := serviceutil.StartHttpServer(ctx, cfg.Listen, router)
		if err != nil {
			serviceutil.Fatal("serve http api", err)
		}
	}()
}
