package commands

import (
	"fmt"
	"os"

	"pricewatch/internal/price"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(pricesCmd)
}

var pricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "Extracts and prints the current prices of every category without touching the snapshot.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a := openApp(cmd.Context())
		defer a.Close()

		t := newTable()
		t.AppendHeader(table.Row{"Category", "Product", "Price", "Unit"})
		for _, listing := range a.Monitor.Listings(cmd.Context()) {
			if listing.Err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", listing.Category, listing.Err.Error())
				continue
			}
			for _, record := range listing.Records {
				t.AppendRow(table.Row{
					listing.Category,
					record.Name.Raw(),
					price.FormatText(record.Price),
					record.Unit.String(),
				})
			}
		}
		t.Render()
	},
}
