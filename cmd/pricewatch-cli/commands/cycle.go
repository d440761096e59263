package commands

import (
	"context"
	"fmt"

	"pricewatch/internal/notify"
	"pricewatch/pkg/htmlutil"
	"pricewatch/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var cycleNotify *bool

func init() {
	cycleNotify = cycleCmd.Flags().Bool("notify", false, "Also send the report to the configured notifiers.")
	rootCmd.AddCommand(cycleCmd)
}

var cycleCmd = &cobra.Command{
	Use:   "cycle [--notify]",
	Short: "Runs one monitoring cycle, persists it and prints the change report.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp(cmd.Context())
		defer a.Close()

		printer := notify.Func(func(ctx context.Context, text string) error {
			fmt.Println(htmlutil.StripTags(text))
			return nil
		})
		notifier := notify.Multi{printer}
		if *cycleNotify {
			notifier = append(notifier, a.Notifiers()...)
		}

		result, err := a.NewJob(notifier).Run(cmd.Context())
		if err != nil {
			serviceutil.Fatal("cycle failed", err)
		}
		if result.Changes == 0 {
			fmt.Println("sin cambios")
		}
	},
}
