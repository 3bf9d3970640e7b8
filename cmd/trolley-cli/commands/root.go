package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"trolley-backend/internal/db"
	"trolley-backend/lib/configutil"
	"trolley-backend/lib/serviceutil"
	"trolley-backend/pkg/migrations"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trolley-cli",
	Short: "trolley-cli drives the price dataset: scraping, imports and inspection.",
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Config mirrors the server's config file; only the database path
// matters here.
type Config struct {
	Database string `json:"database"`
}

func openDatabase() (*sql.DB, *db.Queries) {
	cfg, err := configutil.ReadRecursively[Config]("config.json5")
	if err != nil && !os.IsNotExist(err) {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Database == "" {
		cfg.Database = "data/trolley.db"
	}

	database, err := migrations.OpenAndMigrateDB(db.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	return database, db.New(database)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
