package commands

import (
	"fmt"
	"log/slog"
	"os"

	"trolley-backend/lib/serviceutil"
	"trolley-backend/services/ingest"

	"github.com/spf13/cobra"
)

var (
	offMaxPages  *int
	offStartPage *int
	storesAll    *bool
	storesPages  *int
	storesCats   *[]string
	freshPages   *int
	igaPerTerm   *int
)

func init() {
	offMaxPages = importOffCmd.Flags().Int("max-pages", 0, "Maximum pages to fetch (0 = no limit).")
	offStartPage = importOffCmd.Flags().Int("start-page", 1, "Page to resume from.")
	storesAll = importStoresCmd.Flags().Bool("all", false, "Walk every browse category instead of the staple set.")
	storesPages = importStoresCmd.Flags().Int("pages", 2, "Pages per category.")
	storesCats = importStoresCmd.Flags().StringSlice("categories", nil, "Category slugs to import (default: staple aisles).")
	freshPages = importFreshCmd.Flags().Int("max-pages", 0, "Pages per category (0 = service default).")
	igaPerTerm = importIgaCmd.Flags().Int("max-per-term", 0, "Products per search term (0 = service default).")

	importCmd.AddCommand(importCsvCmd)
	importCmd.AddCommand(importJsonCmd)
	importCmd.AddCommand(importOffCmd)
	importCmd.AddCommand(importStoresCmd)
	importCmd.AddCommand(importFreshCmd)
	importCmd.AddCommand(importIgaCmd)
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Imports prices from files, the store browse APIs or Open Food Facts.",
}

func printImportResult(result ingest.ImportResult) {
	slog.Info("import complete", "imported", result.Imported, "total_rows", result.TotalRows)
	for _, line := range result.Errors {
		fmt.Fprintln(os.Stderr, line)
	}
}

var importCsvCmd = &cobra.Command{
	Use:   "csv <file>",
	Short: "Imports prices from a CSV file.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("read file", err)
		}
		database, _ := openDatabase()
		defer database.Close()

		service := ingest.NewService(database, ingest.Hooks{})
		printImportResult(service.ImportPricesCSV(cmd.Context(), string(content)))
	},
}

var importJsonCmd = &cobra.Command{
	Use:   "json <file>",
	Short: "Imports prices from a JSON array file.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("read file", err)
		}
		database, _ := openDatabase()
		defer database.Close()

		service := ingest.NewService(database, ingest.Hooks{})
		printImportResult(service.ImportPricesJSON(cmd.Context(), content))
	},
}

var importOffCmd = &cobra.Command{
	Use:   "off [--max-pages N] [--start-page N]",
	Short: "Imports the Australian Open Food Facts catalog.",
	Run: func(cmd *cobra.Command, args []string) {
		database, _ := openDatabase()
		defer database.Close()

		service := ingest.NewService(database, ingest.Hooks{})
		result, err := service.ImportOpenFoodFacts(cmd.Context(), *offMaxPages, *offStartPage)
		if err != nil {
			serviceutil.Fatal("open food facts import", err)
		}
		slog.Info("import complete",
			"imported", result.Imported,
			"skipped", result.Skipped,
			"errors", result.Errors,
			"pages", result.PagesProcessed,
			"available", result.TotalAvailable,
		)
	},
}

var importStoresCmd = &cobra.Command{
	Use:   "stores [--all] [--pages N] [--categories slug,...]",
	Short: "Imports everyday prices from the Woolworths and Coles browse APIs.",
	Run: func(cmd *cobra.Command, args []string) {
		database, _ := openDatabase()
		defer database.Close()
		service := ingest.NewService(database, ingest.Hooks{})

		var summary ingest.ImportSummary
		if *storesAll {
			summary = service.ImportAllCategories(cmd.Context(), *storesPages)
		} else {
			summary = service.QuickImport(cmd.Context(), *storesCats, *storesPages)
		}
		slog.Info("import complete", "total", summary.Total)
		for slug, count := range summary.Woolworths {
			slog.Info("woolworths category", "category", slug, "imported", count)
		}
		for slug, count := range summary.Coles {
			slog.Info("coles category", "category", slug, "imported", count)
		}
	},
}

var importFreshCmd = &cobra.Command{
	Use:   "fresh [--max-pages N]",
	Short: "Imports today's produce and meat prices for Woolworths and Coles.",
	Run: func(cmd *cobra.Command, args []string) {
		database, _ := openDatabase()
		defer database.Close()

		service := ingest.NewService(database, ingest.Hooks{})
		result := service.ImportFreshFoods(cmd.Context(), *freshPages)
		slog.Info("fresh foods import complete",
			"total", result.Total,
			"woolworths_produce", result.Woolworths.Produce,
			"woolworths_meat", result.Woolworths.Meat,
			"coles_produce", result.Coles.Produce,
			"coles_meat", result.Coles.Meat,
		)
	},
}

var importIgaCmd = &cobra.Command{
	Use:   "iga [term...]",
	Short: "Imports IGA products by search term (default: the staple term list).",
	Run: func(cmd *cobra.Command, args []string) {
		database, _ := openDatabase()
		defer database.Close()

		service := ingest.NewService(database, ingest.Hooks{})
		imported, err := service.ImportIGAProducts(cmd.Context(), args, *igaPerTerm)
		if err != nil {
			serviceutil.Fatal("iga import", err)
		}
		slog.Info("iga import complete", "imported", imported)
	},
}
