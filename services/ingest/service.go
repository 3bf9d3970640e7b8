// Package ingest populates the price dataset: weekly catalogue
// scraping via SaleFinder, store product imports from the chains'
// browse APIs, Open Food Facts catalog imports, and manual CSV/JSON
// price loads. It also owns the schedule those jobs run on.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trolley-backend/internal/db"
	"trolley-backend/lib/money"
	"trolley-backend/lib/timezone"

	"github.com/go-resty/resty/v2"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/ingest")

var (
	ErrStoreNotFound      = errors.New("store not found")
	ErrStoreNotConfigured = errors.New("store not configured for salefinder")
	ErrUnknownParser      = errors.New("no catalogue parser for store")
	ErrUnknownCategory    = errors.New("unknown import category")
)

// Hooks let the server react to dataset changes without this package
// importing the read-side services.
type Hooks struct {
	SpecialsChanged func(ctx context.Context)
	PricesChanged   func(ctx context.Context)
}

type Service struct {
	db  *sql.DB
	sx  *sqlx.DB
	qry *db.Queries

	scraper      *SaleFinder
	parsers      []CatalogueParser
	importClient *resty.Client
	offClient    *resty.Client

	sched *schedulerState
	hooks Hooks
}

func NewService(database *sql.DB, hooks Hooks) Service {
	return Service{
		db:           database,
		sx:           sqlx.NewDb(database, "sqlite"),
		qry:          db.New(database),
		scraper:      NewSaleFinder(),
		parsers:      newCatalogueParsers(newScrapeClient("")),
		importClient: newImportClient(),
		offClient:    newOffClient(),
		sched:        &schedulerState{},
		hooks:        hooks,
	}
}

func (s Service) specialsChanged(ctx context.Context) {
	if s.hooks.SpecialsChanged != nil {
		s.hooks.SpecialsChanged(ctx)
	}
}

func (s Service) pricesChanged(ctx context.Context) {
	if s.hooks.PricesChanged != nil {
		s.hooks.PricesChanged(ctx)
	}
}

// ScrapeStore scrapes the current SaleFinder catalogue for one store
// and saves its items as specials. Every run gets a scrape_logs row;
// failures are recorded there before the error is returned.
func (s Service) ScrapeStore(ctx context.Context, storeSlug string) (int, error) {
	ctx, span := tracer.Start(ctx, "ScrapeStore")
	defer span.End()
	span.SetAttributes(attribute.String("store", storeSlug))

	fail := func(err error) (int, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	store, err := s.qry.GetStoreBySlug(ctx, storeSlug)
	if err == sql.ErrNoRows {
		return fail(fmt.Errorf("%w: %s", ErrStoreNotFound, storeSlug))
	} else if err != nil {
		return fail(err)
	}
	if _, ok := salefinderStores[storeSlug]; !ok {
		return fail(fmt.Errorf("%w: %s", ErrStoreNotConfigured, storeSlug))
	}

	scrapeLog, err := s.qry.CreateScrapeLog(ctx, db.CreateScrapeLogParams{
		StoreID:   sql.NullInt64{Int64: store.ID, Valid: true},
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fail(err)
	}

	saved, err := s.scrapeAndSave(ctx, store)
	completed := sql.NullString{String: time.Now().UTC().Format(time.RFC3339), Valid: true}
	if err != nil {
		logErr := s.qry.CompleteScrapeLog(ctx, db.CompleteScrapeLogParams{
			CompletedAt:  completed,
			Status:       "failed",
			ErrorMessage: sql.NullString{String: err.Error(), Valid: true},
			ID:           scrapeLog.ID,
		})
		if logErr != nil {
			slog.ErrorContext(ctx, "failed to record scrape failure", "store", storeSlug, "err", logErr)
		}
		return fail(err)
	}

	err = s.qry.CompleteScrapeLog(ctx, db.CompleteScrapeLogParams{
		CompletedAt: completed,
		ItemsFound:  int64(saved),
		Status:      "success",
		ID:          scrapeLog.ID,
	})
	if err != nil {
		return fail(err)
	}

	slog.InfoContext(ctx, "scrape complete", "store", storeSlug, "items", saved)
	s.specialsChanged(ctx)
	return saved, nil
}

func (s Service) scrapeAndSave(ctx context.Context, store db.Store) (int, error) {
	catalogues, err := s.scraper.DiscoverCatalogues(ctx, store.Slug)
	if err != nil {
		return 0, err
	}
	// Only the first catalogue is current; the rest are upcoming or
	// archived editions.
	if len(catalogues) > 1 {
		catalogues = catalogues[:1]
	}

	var items []ScrapedItem
	seen := map[string]bool{}
	for _, catalogue := range catalogues {
		if catalogue.Path == "" {
			continue
		}
		products, err := s.scraper.Products(ctx, catalogue.Path, 0)
		if err != nil {
			return 0, err
		}
		for _, p := range products {
			key := fmt.Sprintf("%s-%d", p.Name, p.PriceCents)
			if seen[key] {
				continue
			}
			seen[key] = true
			items = append(items, p)
		}
	}

	return s.saveScrapedSpecials(ctx, store, items)
}

// saveScrapedSpecials writes one run's specials in a single
// transaction, so a failed run leaves no half-saved catalogue behind.
func (s Service) saveScrapedSpecials(ctx context.Context, store db.Store, items []ScrapedItem) (int, error) {
	categoryIDs, err := s.categoryIDsBySlug(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	qry := s.qry.WithTx(tx)

	validFrom := timezone.Today()
	validTo := timezone.Date(timezone.Now().AddDate(0, 0, 7))
	scrapedAt := time.Now().UTC().Format(time.RFC3339)

	saved := 0
	seenIDs := map[string]bool{}
	for _, item := range items {
		if item.Name == "" || item.PriceCents <= 0 {
			continue
		}
		if item.StoreProductID != "" {
			if seenIDs[item.StoreProductID] {
				continue
			}
			seenIDs[item.StoreProductID] = true
		}

		var discount int64
		if item.WasPriceCents > item.PriceCents {
			discount = (item.WasPriceCents - item.PriceCents) * 100 / item.WasPriceCents
		}

		brand := ExtractBrand(item.Name)
		size := ExtractSize(item.Name)
		category := sql.NullString{}
		categoryID := sql.NullInt64{}
		if slug := CategorizeProduct(item.Name, brand); slug != "" {
			category = sql.NullString{String: slug, Valid: true}
			if id, ok := categoryIDs[slug]; ok {
				categoryID = sql.NullInt64{Int64: id, Valid: true}
			}
		}

		imageUrl := item.ImageUrl
		if imageUrl == "" && item.StoreProductID != "" {
			switch store.Slug {
			case "woolworths":
				imageUrl = woolworthsImageUrl(item.StoreProductID)
			case "coles":
				imageUrl = colesImageUrl(item.StoreProductID)
			}
		}

		params := db.UpsertSpecialParams{
			StoreID:         store.ID,
			Name:            item.Name,
			Brand:           sql.NullString{String: brand, Valid: brand != ""},
			Size:            sql.NullString{String: size, Valid: size != ""},
			Category:        category,
			CategoryID:      categoryID,
			PriceCents:      item.PriceCents,
			DiscountPercent: discount,
			StoreProductID:  sql.NullString{String: item.StoreProductID, Valid: item.StoreProductID != ""},
			ProductUrl:      sql.NullString{String: item.ProductUrl, Valid: item.ProductUrl != ""},
			ImageUrl:        sql.NullString{String: imageUrl, Valid: imageUrl != ""},
			ValidFrom:       validFrom,
			ValidTo:         validTo,
			ScrapedAt:       scrapedAt,
		}
		if item.WasPriceCents > 0 {
			params.WasPriceCents = sql.NullInt64{Int64: item.WasPriceCents, Valid: true}
		}
		if err := qry.UpsertSpecial(ctx, params); err != nil {
			slog.WarnContext(ctx, "failed to save special", "name", item.Name, "err", err)
			continue
		}
		saved++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return saved, nil
}

// ScrapeOutcome is one store's entry in a scrape-all run.
type ScrapeOutcome struct {
	Status string `json:"status"`
	Items  int    `json:"items,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ScrapeAllStores scrapes every SaleFinder-configured store. Failures
// are reported per store rather than aborting the run.
func (s Service) ScrapeAllStores(ctx context.Context) map[string]ScrapeOutcome {
	ctx, span := tracer.Start(ctx, "ScrapeAllStores")
	defer span.End()

	results := map[string]ScrapeOutcome{}
	for _, slug := range salefinderStoreSlugs {
		count, err := s.ScrapeStore(ctx, slug)
		if err != nil {
			slog.ErrorContext(ctx, "scrape failed", "store", slug, "err", err)
			results[slug] = ScrapeOutcome{Status: "failed", Error: err.Error()}
			continue
		}
		results[slug] = ScrapeOutcome{Status: "success", Items: count}
	}
	return results
}

// ClearExpiredSpecials deletes specials whose valid_to has passed and
// returns the number removed.
func (s Service) ClearExpiredSpecials(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "ClearExpiredSpecials")
	defer span.End()

	deleted, err := s.qry.DeleteExpiredSpecials(ctx, timezone.Today())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	if deleted > 0 {
		s.specialsChanged(ctx)
	}
	return deleted, nil
}

// ClearAllSpecials removes every special ahead of a full rescrape.
func (s Service) ClearAllSpecials(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "ClearAllSpecials")
	defer span.End()

	res, err := s.sx.ExecContext(ctx, `DELETE FROM specials`)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	s.specialsChanged(ctx)
	return deleted, nil
}

// DirectSpecial is one row in a direct specials import, typically
// produced by an external scraping run.
type DirectSpecial struct {
	StoreSlug       string  `json:"store_slug"`
	ProductName     string  `json:"product_name"`
	Brand           string  `json:"brand"`
	Size            string  `json:"size"`
	Category        string  `json:"category"`
	Price           float64 `json:"price"`
	WasPrice        float64 `json:"was_price"`
	DiscountPercent int64   `json:"discount_percent"`
	ImageUrl        string  `json:"image_url"`
}

type DirectImportResult struct {
	Message string `json:"message"`
	Created int    `json:"created"`
	Skipped int    `json:"skipped"`
}

// ImportSpecialsDirect inserts pre-scraped specials as-is, valid for
// a week from today. Rows naming unknown stores are skipped, not
// rejected.
func (s Service) ImportSpecialsDirect(ctx context.Context, items []DirectSpecial) (DirectImportResult, error) {
	ctx, span := tracer.Start(ctx, "ImportSpecialsDirect")
	defer span.End()
	span.SetAttributes(attribute.Int("items", len(items)))

	fail := func(err error) (DirectImportResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return DirectImportResult{}, err
	}

	stores, err := s.qry.ListStores(ctx)
	if err != nil {
		return fail(err)
	}
	storeIDs := map[string]int64{}
	for _, store := range stores {
		storeIDs[store.Slug] = store.ID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(err)
	}
	defer tx.Rollback()
	qry := s.qry.WithTx(tx)

	validFrom := timezone.Today()
	validTo := timezone.Date(timezone.Now().AddDate(0, 0, 7))
	scrapedAt := time.Now().UTC().Format(time.RFC3339)

	result := DirectImportResult{Message: "Specials imported"}
	for _, item := range items {
		storeID, ok := storeIDs[item.StoreSlug]
		if !ok || item.ProductName == "" || item.Price <= 0 {
			result.Skipped++
			continue
		}

		params := db.UpsertSpecialParams{
			StoreID:         storeID,
			Name:            item.ProductName,
			Brand:           sql.NullString{String: item.Brand, Valid: item.Brand != ""},
			Size:            sql.NullString{String: item.Size, Valid: item.Size != ""},
			Category:        sql.NullString{String: item.Category, Valid: item.Category != ""},
			PriceCents:      money.FromFloat(item.Price),
			DiscountPercent: item.DiscountPercent,
			ImageUrl:        sql.NullString{String: item.ImageUrl, Valid: item.ImageUrl != ""},
			ValidFrom:       validFrom,
			ValidTo:         validTo,
			ScrapedAt:       scrapedAt,
		}
		if item.WasPrice > 0 {
			params.WasPriceCents = sql.NullInt64{Int64: money.FromFloat(item.WasPrice), Valid: true}
		}
		if err := qry.UpsertSpecial(ctx, params); err != nil {
			return fail(err)
		}
		result.Created++
	}

	if err := tx.Commit(); err != nil {
		return fail(err)
	}
	s.specialsChanged(ctx)
	return result, nil
}

// ParserResult is one parser's entry in a catalogue run.
type ParserResult struct {
	Store   string `json:"store"`
	Fetched int    `json:"fetched"`
	Saved   int    `json:"saved"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// RunParser fetches one store's specials page and records the offers
// as price history against matched or newly created products.
func (s Service) RunParser(ctx context.Context, parser CatalogueParser) ParserResult {
	ctx, span := tracer.Start(ctx, "RunParser")
	defer span.End()
	span.SetAttributes(attribute.String("store", parser.StoreSlug()))

	result := ParserResult{Store: parser.StoreName()}

	specials, err := parser.FetchSpecials(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "catalogue parse failed", "store", parser.StoreSlug(), "err", err)
		result.Status = "error"
		result.Error = err.Error()
		return result
	}
	result.Fetched = len(specials)
	if len(specials) == 0 {
		result.Status = "no_data"
		return result
	}

	saved, err := s.saveCatalogueSpecials(ctx, parser.StoreSlug(), specials)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		result.Status = "error"
		result.Error = err.Error()
		return result
	}
	result.Saved = saved
	result.Status = "success"
	s.pricesChanged(ctx)
	return result
}

// RunAllParsers runs every registered catalogue parser.
func (s Service) RunAllParsers(ctx context.Context) []ParserResult {
	ctx, span := tracer.Start(ctx, "RunAllParsers")
	defer span.End()

	results := make([]ParserResult, 0, len(s.parsers))
	for _, parser := range s.parsers {
		results = append(results, s.RunParser(ctx, parser))
	}
	return results
}

// ParserInfo identifies a registered catalogue parser.
type ParserInfo struct {
	StoreSlug string `json:"store_slug"`
	StoreName string `json:"store_name"`
}

func (s Service) Parsers() []ParserInfo {
	infos := make([]ParserInfo, 0, len(s.parsers))
	for _, parser := range s.parsers {
		infos = append(infos, ParserInfo{StoreSlug: parser.StoreSlug(), StoreName: parser.StoreName()})
	}
	return infos
}

func (s Service) parserFor(storeSlug string) CatalogueParser {
	for _, parser := range s.parsers {
		if parser.StoreSlug() == storeSlug {
			return parser
		}
	}
	return nil
}

func (s Service) saveCatalogueSpecials(ctx context.Context, storeSlug string, specials []SpecialItem) (int, error) {
	store, err := s.qry.GetStoreBySlug(ctx, storeSlug)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrStoreNotFound, storeSlug)
	}

	saved := 0
	for _, special := range specials {
		if err := s.saveCatalogueSpecial(ctx, store.ID, special); err != nil {
			slog.ErrorContext(ctx, "error saving special", "name", special.Name, "err", err)
			continue
		}
		saved++
	}
	return saved, nil
}

func (s Service) saveCatalogueSpecial(ctx context.Context, storeID int64, special SpecialItem) error {
	product, matched, err := s.matchProduct(ctx, special.Name)
	if err != nil {
		return err
	}
	if !matched {
		product, err = s.qry.CreateProduct(ctx, db.CreateProductParams{
			Name:     special.Name,
			ImageUrl: sql.NullString{String: special.ImageUrl, Valid: special.ImageUrl != ""},
		})
		if err != nil {
			return err
		}
		slog.InfoContext(ctx, "created new product", "name", special.Name)
	}

	storeProduct, err := s.ensureStoreProduct(ctx, product.ID, storeID, storeProductSeed{
		Stockcode:  special.StoreProductID,
		Name:       special.Name,
		ProductUrl: special.ProductUrl,
		ImageUrl:   special.ImageUrl,
	})
	if err != nil {
		return err
	}

	params := db.InsertPriceParams{
		StoreProductID: storeProduct.ID,
		PriceCents:     special.PriceCents,
		IsSpecial:      true,
		SpecialType:    sql.NullString{String: special.SpecialType, Valid: special.SpecialType != ""},
		SpecialEnds:    sql.NullString{String: special.ValidTo, Valid: special.ValidTo != ""},
		Source:         "catalogue",
		RecordedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if special.WasPriceCents > 0 {
		params.WasPriceCents = sql.NullInt64{Int64: special.WasPriceCents, Valid: true}
	}
	if special.UnitPriceCents > 0 {
		params.UnitPriceCents = sql.NullInt64{Int64: special.UnitPriceCents, Valid: true}
	}
	_, err = s.qry.InsertPrice(ctx, params)
	return err
}

// matchProduct finds the product a scraped name refers to: exact name
// match first, then fuzzy matching against key products, where either
// name containing the other or two shared words counts as a match.
func (s Service) matchProduct(ctx context.Context, name string) (db.Product, bool, error) {
	product, err := s.qry.GetProductByName(ctx, name)
	if err == nil {
		return product, true, nil
	} else if err != sql.ErrNoRows {
		return db.Product{}, false, err
	}

	keyProducts, err := s.qry.ListKeyProducts(ctx)
	if err != nil {
		return db.Product{}, false, err
	}

	nameLower := strings.ToLower(name)
	nameWords := wordSet(nameLower)
	for _, kp := range keyProducts {
		kpLower := strings.ToLower(kp.Name)
		if strings.Contains(nameLower, kpLower) || strings.Contains(kpLower, nameLower) {
			return kp, true, nil
		}
		common := 0
		for word := range wordSet(kpLower) {
			if nameWords[word] {
				common++
			}
		}
		if common >= 2 {
			return kp, true, nil
		}
	}
	return db.Product{}, false, nil
}

func wordSet(s string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}

type storeProductSeed struct {
	Stockcode  string
	Name       string
	ProductUrl string
	ImageUrl   string
}

// ensureStoreProduct returns the store listing for a product,
// creating it on first sighting and otherwise refreshing last_seen_at
// and backfilling the image and product URL when they were missing.
func (s Service) ensureStoreProduct(ctx context.Context, productID, storeID int64, seed storeProductSeed) (db.StoreProduct, error) {
	now := sql.NullString{String: time.Now().UTC().Format(time.RFC3339), Valid: true}

	storeProduct, err := s.qry.GetStoreProduct(ctx, db.GetStoreProductParams{
		ProductID: productID,
		StoreID:   storeID,
	})
	if err == sql.ErrNoRows {
		return s.qry.CreateStoreProduct(ctx, db.CreateStoreProductParams{
			ProductID:        productID,
			StoreID:          storeID,
			StoreProductID:   sql.NullString{String: seed.Stockcode, Valid: seed.Stockcode != ""},
			StoreProductName: sql.NullString{String: seed.Name, Valid: seed.Name != ""},
			ProductUrl:       sql.NullString{String: seed.ProductUrl, Valid: seed.ProductUrl != ""},
			ImageUrl:         sql.NullString{String: seed.ImageUrl, Valid: seed.ImageUrl != ""},
			LastSeenAt:       now,
		})
	} else if err != nil {
		return db.StoreProduct{}, err
	}

	update := db.UpdateStoreProductParams{
		StoreProductName: storeProduct.StoreProductName,
		ProductUrl:       storeProduct.ProductUrl,
		ImageUrl:         storeProduct.ImageUrl,
		LastSeenAt:       now,
		ID:               storeProduct.ID,
	}
	if seed.ImageUrl != "" && !storeProduct.ImageUrl.Valid {
		update.ImageUrl = sql.NullString{String: seed.ImageUrl, Valid: true}
	}
	if seed.ProductUrl != "" && !storeProduct.ProductUrl.Valid {
		update.ProductUrl = sql.NullString{String: seed.ProductUrl, Valid: true}
	}
	if err := s.qry.UpdateStoreProduct(ctx, update); err != nil {
		return db.StoreProduct{}, err
	}
	storeProduct.ImageUrl = update.ImageUrl
	storeProduct.ProductUrl = update.ProductUrl
	storeProduct.LastSeenAt = update.LastSeenAt
	return storeProduct, nil
}

func (s Service) categoryIDsBySlug(ctx context.Context) (map[string]int64, error) {
	categories, err := s.qry.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]int64, len(categories))
	for _, category := range categories {
		ids[category.Slug] = category.ID
	}
	return ids, nil
}
