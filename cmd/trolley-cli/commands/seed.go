package commands

import (
	"log/slog"

	"trolley-backend/lib/serviceutil"
	"trolley-backend/services/catalog"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seeds the stores, category tree and key products. Safe to re-run.",
	Run: func(cmd *cobra.Command, args []string) {
		database, _ := openDatabase()
		defer database.Close()

		err := catalog.Seed(cmd.Context(), database)
		if err != nil {
			serviceutil.Fatal("seed catalog", err)
		}
		slog.Info("seed complete")
	},
}
