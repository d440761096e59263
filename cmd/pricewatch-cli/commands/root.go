package commands

import (
	"context"
	"fmt"
	"os"

	"pricewatch/internal/app"
	"pricewatch/internal/components/telemetry"
	"pricewatch/internal/config"
	"pricewatch/pkg/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var configPath *string
var verbose *bool
var dumpDir *string

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The config file to read.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging.")
	dumpDir = rootCmd.PersistentFlags().String("dump", "", "Write every fetched category page into this directory.")
}

var rootCmd = &cobra.Command{
	Use:   "pricewatch-cli",
	Short: "pricewatch-cli runs and inspects the price monitor without the daemon.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openApp(ctx context.Context) *app.App {
	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if *dumpDir != "" {
		cfg.Http.DumpDir = *dumpDir
	}
	a, err := app.New(ctx, cfg, telemetry.SlogAPI{})
	if err != nil {
		serviceutil.Fatal("failed to initialize", err)
	}
	return a
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
