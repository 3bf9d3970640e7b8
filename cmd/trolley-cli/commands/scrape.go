package commands

import (
	"log/slog"
	"sort"

	"trolley-backend/lib/serviceutil"
	"trolley-backend/services/ingest"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [store]",
	Short: "Scrapes SaleFinder specials for one store, or every configured store.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		database, _ := openDatabase()
		defer database.Close()
		service := ingest.NewService(database, ingest.Hooks{})

		if len(args) == 1 {
			items, err := service.ScrapeStore(cmd.Context(), args[0])
			if err != nil {
				serviceutil.Fatal("scrape store", err)
			}
			slog.Info("scrape complete", "store", args[0], "items", items)
			return
		}

		results := service.ScrapeAllStores(cmd.Context())
		stores := make([]string, 0, len(results))
		for store := range results {
			stores = append(stores, store)
		}
		sort.Strings(stores)

		t := newTable()
		t.AppendHeader(table.Row{"Store", "Status", "Items", "Error"})
		for _, store := range stores {
			result := results[store]
			t.AppendRow(table.Row{store, result.Status, result.Items, result.Error})
		}
		t.Render()
	},
}
