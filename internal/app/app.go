// Package app wires the configured components of the monitor together, it
// is shared by the daemon and the cli.
package app

import (
	"context"
	"fmt"
	"time"

	"pricewatch/internal/commands"
	"pricewatch/internal/components/chrono"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/config"
	"pricewatch/internal/monitor"
	"pricewatch/internal/notify"
	"pricewatch/internal/report"
	"pricewatch/internal/scrapers/woocommerce"
	"pricewatch/internal/store"
	"pricewatch/internal/telegram"
	"pricewatch/pkg/restyutil"
)

type App struct {
	Config    config.Config
	Time      chrono.StandardTime
	Store     store.Store
	Monitor   *monitor.Monitor
	Formatter report.Formatter
	// Telegram is nil when no bot token is configured.
	Telegram *telegram.Client

	tel telemetry.API
}

// OpenStore opens the configured snapshot store.
func OpenStore(cfg config.StoreConfig, tel telemetry.API) (store.Store, error) {
	switch cfg.Kind {
	case config.StoreSqlite:
		db, err := store.OpenDB(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store.NewSQLStore(db, tel), nil
	case config.StoreFile:
		return store.NewFileStore(cfg.Path, tel)
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Kind)
	}
}

// NewSource returns the scraper of the vendor category pages.
func NewSource(cfg config.HttpConfig, tel telemetry.API) (monitor.Source, error) {
	options := woocommerce.ClientOptions{
		UserAgent:        cfg.UserAgent,
		Timeout:          cfg.Timeout(),
		RatePerSecond:    cfg.RatePerSecond,
		BypassCloudflare: cfg.BypassCloudflare,
	}
	if cfg.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.DumpDir)
		if err != nil {
			return nil, fmt.Errorf("dump dir: %w", err)
		}
		options.Output = output
	}

	client := woocommerce.NewClient(options, tel)
	return woocommerce.NewScraper(client, woocommerce.NewExtractor(tel)), nil
}

// New opens the store and loads the snapshot into a new monitor.
func New(ctx context.Context, cfg config.Config, tel telemetry.API) (*App, error) {
	clock, err := chrono.NewStandardTime(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	source, err := NewSource(cfg.Http, tel)
	if err != nil {
		return nil, err
	}

	s, err := OpenStore(cfg.Store, tel)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	m, err := monitor.New(ctx, cfg.Categories, source, s, clock, tel)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	a := &App{
		Config:    cfg,
		Time:      clock,
		Store:     s,
		Monitor:   m,
		Formatter: report.NewFormatter(clock),
		tel:       tel,
	}
	if cfg.Telegram.Token != "" {
		client := telegram.NewClient(telegram.ClientOptions{
			Token:       cfg.Telegram.Token,
			PollTimeout: secondsDuration(cfg.Telegram.PollTimeoutSeconds),
		}, tel)
		a.Telegram = &client
	}
	return a, nil
}

// Notifiers returns every configured subscriber transport.
func (a *App) Notifiers() notify.Multi {
	var out notify.Multi
	if a.Telegram != nil && a.Config.Telegram.ChatID != 0 {
		out = append(out, telegram.NewNotifier(*a.Telegram, a.Config.Telegram.ChatID))
	}
	if a.Config.Email != nil {
		out = append(out, notify.NewEmail(*a.Config.Email))
	}
	return out
}

// NewJob returns the monitoring job sending its reports to `notifier`.
func (a *App) NewJob(notifier notify.Notifier) monitor.Job {
	return monitor.NewJob(a.Monitor, a.Formatter, notifier, a.tel)
}

// NewRegistry returns the command registry forcing cycles through `job`.
func (a *App) NewRegistry(job monitor.Job) *commands.Registry {
	bot := commands.NewBot(a.Monitor, job, a.Formatter, a.Time, a.Config.Schedule, a.tel)
	return bot.NewRegistry()
}

func (a *App) Close() error {
	return a.Store.Close()
}

func secondsDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
