package commands

import (
	"fmt"

	"pricewatch/internal/price"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(lastRunCmd)
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Prints every persisted product price.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp(cmd.Context())
		defer a.Close()

		snap := a.Monitor.Snapshot()
		t := newTable()
		t.AppendHeader(table.Row{"Category", "Product", "Last price"})
		for _, key := range snap.Keys() {
			amount, _ := snap.Get(key)
			t.AppendRow(table.Row{key.Category, key.Name.Raw(), price.FormatText(amount)})
		}
		t.AppendFooter(table.Row{"", "Total", snap.Len()})
		t.Render()
	},
}

var lastRunCmd = &cobra.Command{
	Use:   "lastrun",
	Short: "Prints when the last monitoring cycle completed.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := openApp(cmd.Context())
		defer a.Close()

		lastRun, ok, err := a.Monitor.LastRun(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("no cycle has completed yet")
			return nil
		}
		fmt.Println(lastRun.In(a.Time.Location()).Format("02/01/2006, 15:04:05"))
		return nil
	},
}
