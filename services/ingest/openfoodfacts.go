package ingest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trolley-backend/internal/db"
	"trolley-backend/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Open Food Facts has ~68k Australian products with names, brands,
// barcodes and categories, but no prices. Importing them gives the
// crowdsourcing flow something to attach prices to.
const openFoodFactsAPI = "https://world.openfoodfacts.org/api/v2/search"

const openFoodFactsPageSize = 100

type offProduct struct {
	Code        string `json:"code"`
	ProductName string `json:"product_name"`
	Brands      string `json:"brands"`
	Categories  string `json:"categories"`
	Quantity    string `json:"quantity"`
	ImageUrl    string `json:"image_url"`
}

// OpenFoodFactsResult reports one import run.
type OpenFoodFactsResult struct {
	Imported       int   `json:"imported"`
	Skipped        int   `json:"skipped"`
	Errors         int   `json:"errors"`
	PagesProcessed int   `json:"pages_processed"`
	TotalAvailable int64 `json:"total_available"`
}

// OpenFoodFactsStatus summarizes how much of the catalog came from
// barcode-bearing sources.
type OpenFoodFactsStatus struct {
	TotalProducts     int64 `json:"total_products"`
	WithBarcode       int64 `json:"with_barcode"`
	WithBrand         int64 `json:"with_brand"`
	FromOpenFoodFacts int64 `json:"from_openfoodfacts"`
}

// ImportOpenFoodFacts pulls Australian products from the Open Food
// Facts API, starting at startPage. maxPages <= 0 imports everything
// available.
func (s Service) ImportOpenFoodFacts(ctx context.Context, maxPages, startPage int) (OpenFoodFactsResult, error) {
	ctx, span := tracer.Start(ctx, "ImportOpenFoodFacts")
	defer span.End()
	span.SetAttributes(
		attribute.Int("max_pages", maxPages),
		attribute.Int("start_page", startPage),
	)

	fail := func(err error) (OpenFoodFactsResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return OpenFoodFactsResult{}, err
	}

	if startPage <= 0 {
		startPage = 1
	}

	totalAvailable, err := s.openFoodFactsCount(ctx)
	if err != nil {
		return fail(fmt.Errorf("fetching product count: %w", err))
	}
	totalPages := int(totalAvailable/openFoodFactsPageSize) + 1
	if maxPages > 0 && startPage+maxPages-1 < totalPages {
		totalPages = startPage + maxPages - 1
	}

	result := OpenFoodFactsResult{TotalAvailable: totalAvailable}
	page := startPage

	for ; page <= totalPages; page++ {
		res, err := s.offClient.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"countries_tags": "en:australia",
				"page_size":      fmt.Sprint(openFoodFactsPageSize),
				"page":           fmt.Sprint(page),
				"fields":         "code,product_name,brands,categories,quantity,image_url",
			}).
			Get(openFoodFactsAPI)
		if err != nil {
			if ctx.Err() != nil {
				return fail(ctx.Err())
			}
			result.Errors++
			if err := sleepCtx(ctx, time.Second); err != nil {
				return fail(err)
			}
			continue
		}
		if res.StatusCode() != 200 {
			slog.ErrorContext(ctx, "open food facts page failed", "page", page, "status", res.StatusCode())
			result.Errors++
			continue
		}

		var payload struct {
			Products []offProduct `json:"products"`
		}
		if err := json.Unmarshal(res.Body(), &payload); err != nil {
			result.Errors++
			continue
		}
		if len(payload.Products) == 0 {
			break
		}

		for _, prod := range payload.Products {
			switch err := s.importOpenFoodFactsProduct(ctx, prod); err {
			case nil:
				result.Imported++
			case errSkipProduct:
				result.Skipped++
			default:
				result.Errors++
			}
		}

		slog.InfoContext(ctx, "open food facts page done",
			"page", page,
			"imported", result.Imported,
			"skipped", result.Skipped,
			"errors", result.Errors)

		if page < totalPages {
			if err := sleepCtx(ctx, 500*time.Millisecond); err != nil {
				return fail(err)
			}
		}
	}

	result.PagesProcessed = page - startPage
	return result, nil
}

func (s Service) openFoodFactsCount(ctx context.Context) (int64, error) {
	res, err := s.offClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"countries_tags": "en:australia",
			"page_size":      "1",
			"page":           "1",
			"fields":         "count",
		}).
		Get(openFoodFactsAPI)
	if err != nil {
		return 0, err
	}
	if res.StatusCode() != 200 {
		return 0, fmt.Errorf("count request: status %d", res.StatusCode())
	}
	var payload struct {
		Count int64 `json:"count"`
	}
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

var errSkipProduct = errors.New("product skipped")

func (s Service) importOpenFoodFactsProduct(ctx context.Context, prod offProduct) error {
	barcode := strings.TrimSpace(prod.Code)
	name := strings.TrimSpace(prod.ProductName)
	brand := strings.TrimSpace(prod.Brands)
	quantity := strings.TrimSpace(prod.Quantity)

	if len(name) < 2 {
		return errSkipProduct
	}

	if barcode != "" {
		_, err := s.qry.GetProductByBarcode(ctx, sql.NullString{String: barcode, Valid: true})
		if err == nil {
			return errSkipProduct
		} else if err != sql.ErrNoRows {
			return err
		}
	}
	if brand != "" {
		_, err := s.qry.GetProductByName(ctx, brand+" "+name)
		if err == nil {
			return errSkipProduct
		} else if err != sql.ErrNoRows {
			return err
		}
	}

	categoryID := sql.NullInt64{}
	if primary := parsePrimaryCategory(prod.Categories); primary != "" {
		var err error
		categoryID, err = s.openFoodFactsCategory(ctx, primary)
		if err != nil {
			return err
		}
	}

	// Brands names themselves are inconsistent, so fold the brand and
	// pack size into the product name unless they already appear.
	fullName := name
	if brand != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(brand)) {
		fullName = brand + " " + name
	}
	if quantity != "" && !strings.Contains(fullName, quantity) {
		fullName = fullName + " " + quantity
	}

	_, err := s.qry.CreateProduct(ctx, db.CreateProductParams{
		Name:       clip(fullName, 255),
		Brand:      sql.NullString{String: clip(brand, 100), Valid: brand != ""},
		Barcode:    sql.NullString{String: clip(barcode, 50), Valid: barcode != ""},
		CategoryID: categoryID,
		Size:       sql.NullString{String: clip(quantity, 50), Valid: quantity != ""},
		ImageUrl:   sql.NullString{String: clip(prod.ImageUrl, 500), Valid: prod.ImageUrl != ""},
	})
	return err
}

// parsePrimaryCategory extracts the first usable category from the
// comma-separated, language-prefixed list Open Food Facts serves,
// e.g. "en:plant-based-foods,en:breakfasts".
func parsePrimaryCategory(categories string) string {
	for _, part := range strings.Split(categories, ",") {
		part = strings.TrimSpace(part)
		if i := strings.LastIndex(part, ":"); i >= 0 {
			part = part[i+1:]
		}
		part = titleWords(strings.ReplaceAll(part, "-", " "))
		if len(part) > 2 {
			return part
		}
	}
	return ""
}

func (s Service) openFoodFactsCategory(ctx context.Context, name string) (sql.NullInt64, error) {
	slug := clip(textutil.Slugify(name), 100)

	category, err := s.qry.GetCategoryBySlug(ctx, slug)
	if err == sql.ErrNoRows {
		category, err = s.qry.CreateCategory(ctx, db.CreateCategoryParams{
			Name: clip(name, 100),
			Slug: slug,
		})
	}
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: category.ID, Valid: true}, nil
}

// OpenFoodFactsStatus reports catalog coverage counts.
func (s Service) OpenFoodFactsStatus(ctx context.Context) (OpenFoodFactsStatus, error) {
	ctx, span := tracer.Start(ctx, "OpenFoodFactsStatus")
	defer span.End()

	fail := func(err error) (OpenFoodFactsStatus, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return OpenFoodFactsStatus{}, err
	}

	var status OpenFoodFactsStatus
	if err := s.sx.GetContext(ctx, &status.TotalProducts, `SELECT count(*) FROM products`); err != nil {
		return fail(err)
	}
	if err := s.sx.GetContext(ctx, &status.WithBarcode, `SELECT count(*) FROM products WHERE barcode IS NOT NULL`); err != nil {
		return fail(err)
	}
	if err := s.sx.GetContext(ctx, &status.WithBrand, `SELECT count(*) FROM products WHERE brand IS NOT NULL`); err != nil {
		return fail(err)
	}
	// Barcodes only arrive through this import, so the count doubles
	// as its footprint.
	status.FromOpenFoodFacts = status.WithBarcode
	return status, nil
}

// clip truncates s to at most max runes.
func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
