package commands

import (
	"trolley-backend/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statusLimit *int

func init() {
	statusLimit = statusCmd.Flags().Int("limit", 20, "Scrape log rows to print.")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints recent scrape runs.",
	Run: func(cmd *cobra.Command, args []string) {
		database, qry := openDatabase()
		defer database.Close()

		logs, err := qry.ListScrapeLogs(cmd.Context(), int64(*statusLimit))
		if err != nil {
			serviceutil.Fatal("list scrape logs", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Started", "Store", "Status", "Items", "Error"})
		for _, row := range logs {
			t.AppendRow(table.Row{row.StartedAt, row.StoreName.String, row.Status, row.ItemsFound, row.ErrorMessage.String})
		}
		t.Render()
	},
}
