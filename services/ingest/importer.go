package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trolley-backend/internal/db"
	"trolley-backend/lib/money"
	"trolley-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Browse category ids from the Woolworths UI API.
var woolworthsCategories = []struct {
	Slug string
	ID   string
}{
	{"fruit-veg", "1-E5BEE36E"},
	{"meat-seafood", "1-39FD4627"},
	{"dairy-eggs-fridge", "1-9E8D69DD"},
	{"bakery", "1-3AB8FAC3"},
	{"pantry", "1-6CDACB9E"},
	{"drinks", "1-7A77C9BB"},
	{"freezer", "1-9E0B6B5E"},
	{"health-beauty", "1-BD48B32D"},
	{"household", "1-73E6E7E7"},
	{"baby", "1-AB47EB5E"},
	{"pet", "1-E05F9A56"},
}

var colesCategories = []string{
	"fruit-vegetables",
	"meat-seafood",
	"dairy-eggs-fridge",
	"bakery",
	"pantry",
	"drinks",
	"frozen",
	"health-beauty",
	"household",
	"baby",
	"pet",
}

func woolworthsCategoryID(slug string) (string, bool) {
	for _, c := range woolworthsCategories {
		if c.Slug == slug {
			return c.ID, true
		}
	}
	return "", false
}

func isColesCategory(slug string) bool {
	for _, c := range colesCategories {
		if c == slug {
			return true
		}
	}
	return false
}

// The chains file the same aisle under different slugs, and seed data
// under display names, so category resolution tries slug, alternate
// slug, then name before creating a fresh row.
var importCategoryNames = map[string]struct {
	Name     string
	AltSlugs []string
}{
	"fruit-veg":         {Name: "Fruit & Veg", AltSlugs: []string{"fruit-vegetables"}},
	"fruit-vegetables":  {Name: "Fruit & Veg", AltSlugs: []string{"fruit-veg"}},
	"meat-seafood":      {Name: "Poultry, Meat & Seafood"},
	"dairy-eggs-fridge": {Name: "Dairy, Eggs & Fridge"},
	"bakery":            {Name: "Bakery"},
	"pantry":            {Name: "Pantry"},
	"drinks":            {Name: "Drinks"},
	"freezer":           {Name: "Frozen", AltSlugs: []string{"frozen"}},
	"frozen":            {Name: "Frozen", AltSlugs: []string{"freezer"}},
	"health-beauty":     {Name: "Health & Beauty"},
	"household":         {Name: "Household"},
	"baby":              {Name: "Baby"},
	"pet":               {Name: "Pet"},
}

func (s Service) categoryForSlug(ctx context.Context, slug string) (sql.NullInt64, error) {
	category, err := s.qry.GetCategoryBySlug(ctx, slug)
	if err == nil {
		return sql.NullInt64{Int64: category.ID, Valid: true}, nil
	} else if err != sql.ErrNoRows {
		return sql.NullInt64{}, err
	}

	mapping, ok := importCategoryNames[slug]
	if !ok {
		mapping.Name = titleWords(strings.ReplaceAll(slug, "-", " "))
	}
	for _, alt := range mapping.AltSlugs {
		category, err := s.qry.GetCategoryBySlug(ctx, alt)
		if err == nil {
			return sql.NullInt64{Int64: category.ID, Valid: true}, nil
		} else if err != sql.ErrNoRows {
			return sql.NullInt64{}, err
		}
	}
	category, err = s.qry.GetCategoryByName(ctx, mapping.Name)
	if err == nil {
		return sql.NullInt64{Int64: category.ID, Valid: true}, nil
	} else if err != sql.ErrNoRows {
		return sql.NullInt64{}, err
	}

	category, err = s.qry.CreateCategory(ctx, db.CreateCategoryParams{
		Name: mapping.Name,
		Slug: slug,
	})
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: category.ID, Valid: true}, nil
}

// importedProduct is the normalized form every store importer reduces
// its API payload to before hitting the database.
type importedProduct struct {
	Name           string
	Brand          string
	Size           string
	Stockcode      string
	ImageUrl       string
	PriceCents     int64
	WasPriceCents  int64
	UnitPriceCents int64
	IsSpecial      bool
}

// saveImportedProduct records one product sighting: the canonical
// product row (matched by name or created), the per-store link, and a
// price history row with source "import".
func (s Service) saveImportedProduct(ctx context.Context, storeID int64, categoryID sql.NullInt64, item importedProduct) error {
	product, err := s.qry.GetProductByName(ctx, item.Name)
	if err == sql.ErrNoRows {
		product, err = s.qry.CreateProduct(ctx, db.CreateProductParams{
			Name:       item.Name,
			Brand:      sql.NullString{String: item.Brand, Valid: item.Brand != ""},
			CategoryID: categoryID,
			Size:       sql.NullString{String: item.Size, Valid: item.Size != ""},
			ImageUrl:   sql.NullString{String: item.ImageUrl, Valid: item.ImageUrl != ""},
		})
	}
	if err != nil {
		return err
	}

	storeProduct, err := s.ensureStoreProduct(ctx, product.ID, storeID, storeProductSeed{
		Stockcode: item.Stockcode,
		Name:      item.Name,
		ImageUrl:  item.ImageUrl,
	})
	if err != nil {
		return err
	}

	params := db.InsertPriceParams{
		StoreProductID: storeProduct.ID,
		PriceCents:     item.PriceCents,
		IsSpecial:      item.IsSpecial,
		Source:         "import",
		RecordedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if item.WasPriceCents > 0 {
		params.WasPriceCents = sql.NullInt64{Int64: item.WasPriceCents, Valid: true}
	}
	if item.UnitPriceCents > 0 {
		params.UnitPriceCents = sql.NullInt64{Int64: item.UnitPriceCents, Valid: true}
	}
	_, err = s.qry.InsertPrice(ctx, params)
	return err
}

type woolworthsBrowseResponse struct {
	Bundles []struct {
		Products []woolworthsApiProduct `json:"Products"`
	} `json:"Bundles"`
}

type woolworthsApiProduct struct {
	Name        string      `json:"Name"`
	DisplayName string      `json:"DisplayName"`
	Stockcode   json.Number `json:"Stockcode"`
	Price       *float64    `json:"Price"`
	WasPrice    *float64    `json:"WasPrice"`
	CupPrice    *float64    `json:"CupPrice"`
	CupMeasure  string      `json:"CupMeasure"`
	PackageSize string      `json:"PackageSize"`
	Brand       string      `json:"Brand"`
}

// ImportWoolworthsCategory pages through one Woolworths browse
// category and records every product with its current price. Returns
// the number of products imported.
func (s Service) ImportWoolworthsCategory(ctx context.Context, categorySlug string, maxPages int) (int, error) {
	ctx, span := tracer.Start(ctx, "ImportWoolworthsCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category", categorySlug))

	fail := func(err error) (int, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	store, err := s.qry.GetStoreBySlug(ctx, "woolworths")
	if err != nil {
		return fail(fmt.Errorf("%w: woolworths", ErrStoreNotFound))
	}
	categoryID, ok := woolworthsCategoryID(categorySlug)
	if !ok {
		return fail(fmt.Errorf("%w: %s", ErrUnknownCategory, categorySlug))
	}
	dbCategory, err := s.categoryForSlug(ctx, categorySlug)
	if err != nil {
		return fail(err)
	}

	if maxPages <= 0 {
		maxPages = 5
	}
	imported := 0

	for page := 1; page <= maxPages; page++ {
		res, err := s.importClient.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"categoryId":   categoryID,
				"pageNumber":   fmt.Sprint(page),
				"pageSize":     "36",
				"sortType":     "TraderRelevance",
				"url":          "/shop/browse/" + categorySlug,
				"location":     "",
				"formatObject": `{"name":""}`,
			}).
			Get("https://www.woolworths.com.au/apis/ui/browse/category")
		if err != nil {
			return fail(err)
		}
		if res.StatusCode() != 200 {
			break
		}

		var payload woolworthsBrowseResponse
		if err := json.Unmarshal(res.Body(), &payload); err != nil {
			return fail(err)
		}
		if len(payload.Bundles) == 0 {
			break
		}

		for _, bundle := range payload.Bundles {
			for _, prod := range bundle.Products {
				item, ok := normalizeWoolworthsProduct(prod)
				if !ok {
					continue
				}
				if err := s.saveImportedProduct(ctx, store.ID, dbCategory, item); err != nil {
					slog.DebugContext(ctx, "skipping woolworths product", "name", item.Name, "err", err)
					continue
				}
				imported++
			}
		}

		if page < maxPages {
			if err := sleepCtx(ctx, time.Second); err != nil {
				return fail(err)
			}
		}
	}

	return imported, nil
}

func normalizeWoolworthsProduct(prod woolworthsApiProduct) (importedProduct, bool) {
	name := prod.Name
	if name == "" {
		name = prod.DisplayName
	}
	if name == "" || prod.Price == nil || *prod.Price <= 0 {
		return importedProduct{}, false
	}

	stockcode := prod.Stockcode.String()
	if stockcode == "0" {
		stockcode = ""
	}
	item := importedProduct{
		Name:       name,
		Brand:      prod.Brand,
		Size:       prod.PackageSize,
		Stockcode:  stockcode,
		ImageUrl:   woolworthsImageUrl(stockcode),
		PriceCents: money.FromFloat(*prod.Price),
	}
	if prod.WasPrice != nil {
		item.IsSpecial = *prod.WasPrice > *prod.Price
		if *prod.WasPrice > 0 {
			item.WasPriceCents = money.FromFloat(*prod.WasPrice)
		}
	}
	if prod.CupPrice != nil && *prod.CupPrice > 0 {
		item.UnitPriceCents = money.FromFloat(*prod.CupPrice)
	}
	return item, true
}

// ImportColesCategory pages through a Coles browse category. Coles
// serves product data inside the page's __NEXT_DATA__ blob rather
// than a JSON API.
func (s Service) ImportColesCategory(ctx context.Context, categorySlug string, maxPages int) (int, error) {
	ctx, span := tracer.Start(ctx, "ImportColesCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category", categorySlug))

	fail := func(err error) (int, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	store, err := s.qry.GetStoreBySlug(ctx, "coles")
	if err != nil {
		return fail(fmt.Errorf("%w: coles", ErrStoreNotFound))
	}
	if !isColesCategory(categorySlug) {
		return fail(fmt.Errorf("%w: %s", ErrUnknownCategory, categorySlug))
	}
	dbCategory, err := s.categoryForSlug(ctx, categorySlug)
	if err != nil {
		return fail(err)
	}

	if maxPages <= 0 {
		maxPages = 5
	}
	imported := 0

	for page := 1; page <= maxPages; page++ {
		res, err := s.importClient.R().
			SetContext(ctx).
			SetQueryParam("page", fmt.Sprint(page)).
			Get("https://www.coles.com.au/browse/" + categorySlug)
		if err != nil {
			return fail(err)
		}
		if res.StatusCode() != 200 {
			break
		}

		products := extractColesBrowseProducts(res.Body())
		if len(products) == 0 {
			break
		}

		for _, prod := range products {
			item, ok := normalizeColesProduct(prod)
			if !ok {
				continue
			}
			if err := s.saveImportedProduct(ctx, store.ID, dbCategory, item); err != nil {
				slog.DebugContext(ctx, "skipping coles product", "name", item.Name, "err", err)
				continue
			}
			imported++
		}

		if page < maxPages {
			if err := sleepCtx(ctx, time.Second); err != nil {
				return fail(err)
			}
		}
	}

	return imported, nil
}

func extractColesBrowseProducts(body []byte) []jsonObject {
	doc, err := newDocument(body)
	if err != nil {
		return nil
	}
	raw := doc.Find("script#__NEXT_DATA__").First().Text()
	if raw == "" {
		return nil
	}
	var payload jsonObject
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	pageProps := payload.object("props").object("pageProps")
	if results := pageProps.object("searchResults").array("results"); len(results) > 0 {
		return results
	}
	if results := pageProps.object("initialState").object("search").array("results"); len(results) > 0 {
		return results
	}
	return pageProps.array("products")
}

func normalizeColesProduct(prod jsonObject) (importedProduct, bool) {
	name := prod.text("name", "description")
	pricing := prod.object("pricing")
	price := pricing.number("now", "price")
	if name == "" || price <= 0 {
		return importedProduct{}, false
	}

	productID := prod.text("id")
	item := importedProduct{
		Name:       name,
		Brand:      prod.text("brand"),
		Size:       prod.text("size", "packageSize"),
		Stockcode:  productID,
		ImageUrl:   colesImageUrl(productID),
		PriceCents: money.FromFloat(price),
	}
	if was := pricing.number("was", "comparable"); was > 0 {
		item.WasPriceCents = money.FromFloat(was)
		item.IsSpecial = was > price
	}
	if unit := pricing.object("unit").number("price"); unit > 0 {
		item.UnitPriceCents = money.FromFloat(unit)
	}
	return item, true
}

// Fresh produce and meat terms for the IGA storefront search, which
// has no browse-by-category API.
var igaSearchTerms = []string{
	"banana", "apple", "orange", "grape", "strawberry", "mango", "avocado",
	"potato", "onion", "carrot", "tomato", "lettuce", "broccoli", "capsicum",
	"cucumber", "spinach", "mushroom", "celery", "corn", "beans",
	"chicken", "beef", "lamb", "pork", "mince", "sausage", "steak",
	"salmon", "fish", "prawns",
}

// igaStoreID pins the Erskine Park IGA; the storefront API requires a
// concrete store for pricing.
const igaStoreID = "32600"

// ImportIGAProducts fetches products from the IGA storefront search
// API, one query per term, deduplicated across terms.
func (s Service) ImportIGAProducts(ctx context.Context, searchTerms []string, maxPerTerm int) (int, error) {
	ctx, span := tracer.Start(ctx, "ImportIGAProducts")
	defer span.End()

	fail := func(err error) (int, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	store, err := s.qry.GetStoreBySlug(ctx, "iga")
	if err != nil {
		return fail(fmt.Errorf("%w: iga", ErrStoreNotFound))
	}
	dbCategory, err := s.categoryForSlug(ctx, "fruit-veg")
	if err != nil {
		return fail(err)
	}

	if len(searchTerms) == 0 {
		searchTerms = igaSearchTerms
	}
	if maxPerTerm <= 0 {
		maxPerTerm = 50
	}

	imported := 0
	seen := map[string]bool{}

	for _, term := range searchTerms {
		res, err := s.importClient.R().
			SetContext(ctx).
			SetQueryParam("q", term).
			SetQueryParam("take", fmt.Sprint(maxPerTerm)).
			Get("https://www.igashop.com.au/api/storefront/stores/" + igaStoreID + "/search")
		if err != nil {
			return fail(err)
		}
		if res.StatusCode() != 200 {
			slog.WarnContext(ctx, "iga search failed", "term", term, "status", res.StatusCode())
			continue
		}

		var payload jsonObject
		if err := json.Unmarshal(res.Body(), &payload); err != nil {
			continue
		}

		for _, raw := range payload.array("items") {
			productID := raw.text("productId")
			if productID != "" && seen[productID] {
				continue
			}
			seen[productID] = true

			item, ok := normalizeIGAProduct(raw)
			if !ok {
				continue
			}
			if err := s.saveImportedProduct(ctx, store.ID, dbCategory, item); err != nil {
				slog.DebugContext(ctx, "skipping iga product", "name", item.Name, "err", err)
				continue
			}
			imported++
		}
	}

	if imported > 0 {
		s.pricesChanged(ctx)
	}
	return imported, nil
}

func normalizeIGAProduct(raw jsonObject) (importedProduct, bool) {
	name := raw.text("name")
	price := raw.number("priceNumeric")
	if name == "" || price <= 0 {
		return importedProduct{}, false
	}

	item := importedProduct{
		Name:       name,
		Brand:      raw.text("brand"),
		Stockcode:  raw.text("productId"),
		ImageUrl:   raw.object("image").text("default"),
		PriceCents: money.FromFloat(price),
		IsSpecial:  raw.text("priceSource") == "tpr",
	}
	// Unit prices come as display strings like "$4.90/kg".
	if perUnit := raw.text("pricePerUnit"); perUnit != "" {
		amount := strings.SplitN(strings.TrimPrefix(perUnit, "$"), "/", 2)[0]
		if cents, err := money.ParseDollars(amount); err == nil {
			item.UnitPriceCents = cents
		}
	}
	return item, true
}

// ImportSummary reports a multi-category import, keyed by category
// slug within each chain.
type ImportSummary struct {
	Woolworths map[string]int `json:"woolworths"`
	Coles      map[string]int `json:"coles"`
	Total      int            `json:"total"`
}

// ImportAllCategories walks every browse category on both major
// chains. Slow; meant for initial population rather than scheduled
// runs.
func (s Service) ImportAllCategories(ctx context.Context, maxPagesPerCategory int) ImportSummary {
	ctx, span := tracer.Start(ctx, "ImportAllCategories")
	defer span.End()

	summary := ImportSummary{
		Woolworths: map[string]int{},
		Coles:      map[string]int{},
	}
	for _, category := range woolworthsCategories {
		count, err := s.ImportWoolworthsCategory(ctx, category.Slug, maxPagesPerCategory)
		if err != nil {
			slog.ErrorContext(ctx, "woolworths category import failed", "category", category.Slug, "err", err)
		}
		summary.Woolworths[category.Slug] = count
		summary.Total += count
	}
	for _, slug := range colesCategories {
		count, err := s.ImportColesCategory(ctx, slug, maxPagesPerCategory)
		if err != nil {
			slog.ErrorContext(ctx, "coles category import failed", "category", slug, "err", err)
		}
		summary.Coles[slug] = count
		summary.Total += count
	}
	if summary.Total > 0 {
		s.pricesChanged(ctx)
	}
	return summary
}

// QuickImport populates the staple categories only. The default list
// covers the aisles the basket comparison leans on most.
func (s Service) QuickImport(ctx context.Context, categories []string, pages int) ImportSummary {
	ctx, span := tracer.Start(ctx, "QuickImport")
	defer span.End()

	if len(categories) == 0 {
		categories = []string{"dairy-eggs-fridge", "pantry", "drinks", "meat-seafood"}
	}
	if pages <= 0 {
		pages = 2
	}

	summary := ImportSummary{
		Woolworths: map[string]int{},
		Coles:      map[string]int{},
	}
	for _, slug := range categories {
		if _, ok := woolworthsCategoryID(slug); ok {
			count, err := s.ImportWoolworthsCategory(ctx, slug, pages)
			if err != nil {
				slog.ErrorContext(ctx, "woolworths category import failed", "category", slug, "err", err)
			}
			summary.Woolworths[slug] = count
			summary.Total += count
		}
		if isColesCategory(slug) {
			count, err := s.ImportColesCategory(ctx, slug, pages)
			if err != nil {
				slog.ErrorContext(ctx, "coles category import failed", "category", slug, "err", err)
			}
			summary.Coles[slug] = count
			summary.Total += count
		}
	}
	if summary.Total > 0 {
		s.pricesChanged(ctx)
	}
	return summary
}

// FreshFoodsResult reports the daily produce and meat import.
type FreshFoodsResult struct {
	Woolworths FreshFoodsStoreResult `json:"woolworths"`
	Coles      FreshFoodsStoreResult `json:"coles"`
	Total      int                   `json:"total"`
	Timestamp  string                `json:"timestamp"`
}

type FreshFoodsStoreResult struct {
	Produce int `json:"produce"`
	Meat    int `json:"meat"`
}

// ImportFreshFoods refreshes produce and meat prices for Woolworths
// and Coles. Fresh food prices move daily, unlike the weekly
// catalogue cycle, so this runs every morning. A failed leg logs and
// moves on rather than aborting the other chain's import.
func (s Service) ImportFreshFoods(ctx context.Context, maxPages int) FreshFoodsResult {
	ctx, span := tracer.Start(ctx, "ImportFreshFoods")
	defer span.End()

	if maxPages <= 0 {
		maxPages = 10
	}

	var result FreshFoodsResult
	legs := []struct {
		count *int
		run   func() (int, error)
	}{
		{&result.Woolworths.Produce, func() (int, error) { return s.ImportWoolworthsCategory(ctx, "fruit-veg", maxPages) }},
		{&result.Woolworths.Meat, func() (int, error) { return s.ImportWoolworthsCategory(ctx, "meat-seafood", maxPages) }},
		{&result.Coles.Produce, func() (int, error) { return s.ImportColesCategory(ctx, "fruit-vegetables", maxPages) }},
		{&result.Coles.Meat, func() (int, error) { return s.ImportColesCategory(ctx, "meat-seafood", maxPages) }},
	}
	for _, leg := range legs {
		count, err := leg.run()
		if err != nil {
			slog.ErrorContext(ctx, "fresh foods import leg failed", "err", err)
		}
		*leg.count = count
		result.Total += count
	}

	if result.Total > 0 {
		s.pricesChanged(ctx)
	}
	result.Timestamp = timezone.Now().Format(time.RFC3339)
	return result
}
