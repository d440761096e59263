// Package config loads the configuration of the monitor from json5 files
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"pricewatch/internal/components/chrono"
	"pricewatch/internal/notify"
	"pricewatch/internal/product"
	"pricewatch/pkg/configutil"

	"github.com/subosito/gotenv"
)

const (
	StoreFile   = "file"
	StoreSqlite = "sqlite"
)

const DefaultSchedule = "0 9 * * *"

// DefaultCategories are the pages watched when the config does not list any.
var DefaultCategories = []product.Category{
	{Label: "cerdo", URL: "https://www.lareinacorrientes.com.ar/categoria-producto/carniceria/cerdo/"},
	{Label: "pollo", URL: "https://www.lareinacorrientes.com.ar/categoria-producto/carniceria/pollo/"},
}

type StoreConfig struct {
	// Kind is either "file" or "sqlite".
	Kind string `json:"kind"`
	// Path is the state directory for "file" and the database path or
	// libsql url for "sqlite".
	Path string `json:"path"`
}

type HttpConfig struct {
	TimeoutSeconds   int     `json:"timeout_seconds"`
	UserAgent        string  `json:"user_agent"`
	RatePerSecond    float64 `json:"rate_per_second"`
	BypassCloudflare bool    `json:"bypass_cloudflare"`
	// DumpDir, when set, keeps a copy of every fetched category page.
	DumpDir string `json:"dump_dir"`
}

func (c HttpConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
	// Poll enables answering commands sent to the bot.
	Poll bool `json:"poll"`
	// AllowedChats restricts the chats allowed to run commands, empty
	// allows every chat.
	AllowedChats       []int64 `json:"allowed_chats"`
	PollTimeoutSeconds int     `json:"poll_timeout_seconds"`
}

type ApiConfig struct {
	Listen string `json:"listen"`
	Token  string `json:"token"`
}

type Config struct {
	Categories []product.Category `json:"categories"`
	Schedule   string             `json:"schedule"`
	Timezone   string             `json:"timezone"`
	RunOnStart bool               `json:"run_on_start"`
	Store      StoreConfig        `json:"store"`
	Http       HttpConfig         `json:"http"`
	Telegram   TelegramConfig     `json:"telegram"`
	Email      *notify.SmtpConfig `json:"email"`
	Api        *ApiConfig         `json:"api"`
}

// Load reads `path` (merged with its .local variant), applies the .env file
// and the environment overrides, fills defaults and validates the result.
// A missing config file is not an error, the defaults and the environment
// may be enough to run.
func Load(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	err = gotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	err = cfg.applyEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if token, ok := lookup("BOT_TOKEN"); ok && token != "" {
		c.Telegram.Token = token
	}
	if chatID, ok := lookup("CHAT_ID"); ok && chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("parse CHAT_ID: %w", err)
		}
		c.Telegram.ChatID = id
	}
	return nil
}

func (c *Config) applyDefaults() {
	if len(c.Categories) == 0 {
		c.Categories = DefaultCategories
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.Timezone == "" {
		c.Timezone = chrono.DefaultTimezone
	}
	if c.Store.Kind == "" {
		c.Store.Kind = StoreFile
	}
	if c.Store.Path == "" {
		switch c.Store.Kind {
		case StoreSqlite:
			c.Store.Path = "pricewatch.db"
		default:
			c.Store.Path = "."
		}
	}
	if c.Http.TimeoutSeconds <= 0 {
		c.Http.TimeoutSeconds = 30
	}
}

// Validate checks every setting that would otherwise fail later, while
// the monitor is already running.
func (c Config) Validate() error {
	var errs []error

	seen := map[string]struct{}{}
	for _, category := range c.Categories {
		err := product.ValidateLabel(category.Label)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[category.Label]; dup {
			errs = append(errs, fmt.Errorf("category label %q is repeated", category.Label))
		}
		seen[category.Label] = struct{}{}
		if category.URL == "" {
			errs = append(errs, fmt.Errorf("category %q has no url", category.Label))
		}
	}

	err := chrono.ValidateSpec(c.Schedule)
	if err != nil {
		errs = append(errs, fmt.Errorf("schedule %q: %w", c.Schedule, err))
	}
	_, err = time.LoadLocation(c.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}

	switch c.Store.Kind {
	case StoreFile, StoreSqlite:
	default:
		errs = append(errs, fmt.Errorf("unknown store kind %q", c.Store.Kind))
	}

	if c.Telegram.Poll && c.Telegram.Token == "" {
		errs = append(errs, fmt.Errorf("telegram polling requires a token"))
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 && !c.Telegram.Poll {
		errs = append(errs, fmt.Errorf("telegram token is set but chat_id is missing"))
	}
	if c.Email != nil && (c.Email.Server == "" || len(c.Email.To) == 0) {
		errs = append(errs, fmt.Errorf("email notifier requires a server and at least one recipient"))
	}
	if c.Api != nil && c.Api.Listen == "" {
		errs = append(errs, fmt.Errorf("api requires a listen address"))
	}

	return errors.Join(errs...)
}
