package db

import (
	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// Price sources, in increasing order of trust. Scraped catalogue data
// overrides user submissions when both exist for the same day.
const (
	SourceUser     = "user"
	SourceScraped  = "scraped"
	SourceImported = "imported"
)

// Scrape log statuses.
const (
	ScrapeRunning   = "running"
	ScrapeCompleted = "completed"
	ScrapeFailed    = "failed"
)

// Alert types.
const (
	AlertPriceBelow = "price_below"
	AlertPriceDrop  = "price_drop"
	AlertOnSpecial  = "on_special"
)
