package ingest

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"trolley-backend/internal/db"
	"trolley-backend/lib/money"
)

// ImportResult reports a manual price import. Errors carries one
// message per rejected row so the caller can fix and resubmit.
type ImportResult struct {
	Imported  int      `json:"imported"`
	Errors    []string `json:"errors"`
	TotalRows int      `json:"total_rows"`
}

type priceEntry struct {
	ProductName string
	StoreSlug   string
	Price       string
	WasPrice    string
	IsSpecial   bool
	SpecialType string
}

// ImportPricesCSV imports price rows from CSV content shaped like
// CSVTemplate. Bad rows are reported by line number, counting the
// header as line 1.
func (s Service) ImportPricesCSV(ctx context.Context, content string) ImportResult {
	ctx, span := tracer.Start(ctx, "ImportPricesCSV")
	defer span.End()

	result := ImportResult{Errors: []string{}}

	reader := csv.NewReader(strings.NewReader(content))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid CSV: %v", err))
		return result
	}
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	field := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			break
		}
		result.TotalRows++

		entry := priceEntry{
			ProductName: field(row, "product_name"),
			StoreSlug:   strings.ToLower(field(row, "store_slug")),
			Price:       field(row, "price"),
			WasPrice:    field(row, "was_price"),
			IsSpecial:   truthyString(field(row, "is_special")),
			SpecialType: field(row, "special_type"),
		}
		if err := s.importSinglePrice(ctx, entry); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", line, err))
			continue
		}
		result.Imported++
	}

	if result.Imported > 0 {
		s.pricesChanged(ctx)
	}
	return result
}

// ImportPricesJSON imports price rows from a JSON array, or a single
// object which is treated as a one-element array.
func (s Service) ImportPricesJSON(ctx context.Context, content []byte) ImportResult {
	ctx, span := tracer.Start(ctx, "ImportPricesJSON")
	defer span.End()

	result := ImportResult{Errors: []string{}}

	var rows []jsonObject
	if err := json.Unmarshal(content, &rows); err != nil {
		var single jsonObject
		if err := json.Unmarshal(content, &single); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
			return result
		}
		rows = []jsonObject{single}
	}
	result.TotalRows = len(rows)

	for idx, row := range rows {
		entry := priceEntry{
			ProductName: row.text("product_name"),
			StoreSlug:   strings.ToLower(row.text("store_slug")),
			Price:       row.text("price"),
			WasPrice:    row.text("was_price"),
			IsSpecial:   truthy(row["is_special"]),
			SpecialType: row.text("special_type"),
		}
		if err := s.importSinglePrice(ctx, entry); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Item %d: %v", idx, err))
			continue
		}
		result.Imported++
	}

	if result.Imported > 0 {
		s.pricesChanged(ctx)
	}
	return result
}

func (s Service) importSinglePrice(ctx context.Context, entry priceEntry) error {
	if entry.ProductName == "" {
		return fmt.Errorf("missing product_name")
	}
	if entry.StoreSlug == "" {
		return fmt.Errorf("missing store_slug")
	}
	if entry.Price == "" {
		return fmt.Errorf("missing price")
	}

	store, err := s.qry.GetStoreBySlug(ctx, entry.StoreSlug)
	if err == sql.ErrNoRows {
		return fmt.Errorf("unknown store: %s", entry.StoreSlug)
	} else if err != nil {
		return err
	}

	priceCents, err := money.ParseDollars(entry.Price)
	if err != nil || priceCents <= 0 {
		return fmt.Errorf("invalid price format: %s", entry.Price)
	}
	var wasPriceCents int64
	if entry.WasPrice != "" {
		wasPriceCents, err = money.ParseDollars(entry.WasPrice)
		if err != nil {
			return fmt.Errorf("invalid price format: %s", entry.WasPrice)
		}
	}

	product, matched, err := s.matchProduct(ctx, entry.ProductName)
	if err != nil {
		return err
	}
	if !matched {
		product, err = s.qry.CreateProduct(ctx, db.CreateProductParams{Name: entry.ProductName})
		if err != nil {
			return err
		}
	}

	storeProduct, err := s.ensureStoreProduct(ctx, product.ID, store.ID, storeProductSeed{Name: entry.ProductName})
	if err != nil {
		return err
	}

	params := db.InsertPriceParams{
		StoreProductID: storeProduct.ID,
		PriceCents:     priceCents,
		IsSpecial:      entry.IsSpecial,
		SpecialType:    sql.NullString{String: entry.SpecialType, Valid: entry.SpecialType != ""},
		Source:         "manual",
		RecordedAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if wasPriceCents > 0 {
		params.WasPriceCents = sql.NullInt64{Int64: wasPriceCents, Valid: true}
	}
	_, err = s.qry.InsertPrice(ctx, params)
	return err
}

func truthyString(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	}
	return false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return truthyString(t)
	case float64:
		return t != 0
	}
	return false
}

const csvTemplate = `product_name,store_slug,price,was_price,is_special,special_type
Full Cream Milk 2L,woolworths,4.50,5.00,true,half_price
Full Cream Milk 2L,coles,4.40,,false,
Full Cream Milk 2L,aldi,3.99,,false,
Eggs Dozen Free Range,woolworths,6.50,8.00,true,special
Eggs Dozen Free Range,coles,6.00,,false,
Bananas per kg,woolworths,3.50,,false,
Bananas per kg,coles,3.20,4.00,true,price_drop
`

// CSVTemplate returns example CSV content for the manual import
// endpoint.
func CSVTemplate() string {
	return csvTemplate
}

// TemplateRow is one example entry in the JSON import template.
type TemplateRow struct {
	ProductName string   `json:"product_name"`
	StoreSlug   string   `json:"store_slug"`
	Price       float64  `json:"price"`
	WasPrice    *float64 `json:"was_price"`
	IsSpecial   bool     `json:"is_special"`
	SpecialType *string  `json:"special_type"`
}

// JSONTemplate returns example rows for the JSON import endpoint.
func JSONTemplate() []TemplateRow {
	was := 5.00
	specialType := "half_price"
	return []TemplateRow{
		{
			ProductName: "Full Cream Milk 2L",
			StoreSlug:   "woolworths",
			Price:       4.50,
			WasPrice:    &was,
			IsSpecial:   true,
			SpecialType: &specialType,
		},
		{
			ProductName: "Full Cream Milk 2L",
			StoreSlug:   "coles",
			Price:       4.40,
		},
		{
			ProductName: "Full Cream Milk 2L",
			StoreSlug:   "aldi",
			Price:       3.99,
		},
	}
}
