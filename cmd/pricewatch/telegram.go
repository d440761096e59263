package main

import (
	"context"
	"log/slog"

	"pricewatch/internal/app"
	"pricewatch/internal/commands"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/config"
	"pricewatch/internal/telegram"
)

func InitTelegram(ctx context.Context, cfg config.TelegramConfig, a *app.App, registry *commands.Registry, tel telemetry.API) {
	if !cfg.Poll || a.Telegram == nil {
		return
	}

	allowed := cfg.AllowedChats
	if len(allowed) == 0 && cfg.ChatID != 0 {
		allowed = []int64{cfg.ChatID}
	}

	poller := telegram.NewPoller(*a.Telegram, registry, allowed, tel)
	go poller.Run(ctx)
	slog.Info("answering telegram commands", "allowed_chats", allowed)
}
