package compare

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"trolley-backend/internal/db"
	"trolley-backend/lib/money"
	"trolley-backend/lib/timezone"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TypeSuggestion is a unique product type + size combination, used for
// "compare all brands of X" autocomplete.
type TypeSuggestion struct {
	ProductType     string  `json:"product_type"`
	Size            *string `json:"size"`
	SampleProductID int64   `json:"sample_product_id"`
	BrandCount      int     `json:"brand_count"`
	CategoryID      *int64  `json:"category_id"`
}

type suggestionRow struct {
	ID         int64          `db:"id"`
	Name       string         `db:"name"`
	Brand      sql.NullString `db:"brand"`
	Size       sql.NullString `db:"size"`
	CategoryID sql.NullInt64  `db:"category_id"`
}

// TypeSuggestions searches the catalog for product types rather than
// individual products, grouping by extracted type + size and ranking
// by how many brands carry it.
func (s Service) TypeSuggestions(ctx context.Context, search string, categoryID int64, limit int) ([]TypeSuggestion, error) {
	ctx, span := tracer.Start(ctx, "TypeSuggestions")
	defer span.End()
	span.SetAttributes(attribute.String("search", search))

	query := `SELECT id, name, brand, size, category_id FROM products
		WHERE (name LIKE ? OR brand LIKE ?)`
	like := "%" + search + "%"
	args := []interface{}{like, like}
	if categoryID > 0 {
		query += ` AND category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY id LIMIT 200`

	var products []suggestionRow
	if err := s.sx.SelectContext(ctx, &products, query, args...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	type group struct {
		suggestion TypeSuggestion
		brands     map[string]bool
	}
	var order []string
	groups := make(map[string]*group)

	for _, product := range products {
		productType := ExtractType(product.Name, product.Brand.String)
		key := NormalizeType(productType) + "|" + strings.ToLower(product.Size.String)

		g, ok := groups[key]
		if !ok {
			g = &group{
				suggestion: TypeSuggestion{
					ProductType:     productType,
					Size:            nullStr(product.Size),
					SampleProductID: product.ID,
					CategoryID:      nullInt(product.CategoryID),
				},
				brands: make(map[string]bool),
			}
			groups[key] = g
			order = append(order, key)
		}
		if product.Brand.Valid {
			g.brands[product.Brand.String] = true
		}
	}

	suggestions := make([]TypeSuggestion, 0, len(order))
	for _, key := range order {
		g := groups[key]
		g.suggestion.BrandCount = len(g.brands)
		suggestions = append(suggestions, g.suggestion)
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].BrandCount > suggestions[j].BrandCount
	})
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

type similarProductRow struct {
	ID         int64          `db:"id"`
	Name       string         `db:"name"`
	Brand      sql.NullString `db:"brand"`
	CategoryID sql.NullInt64  `db:"category_id"`
	Size       sql.NullString `db:"size"`
	ImageUrl   sql.NullString `db:"image_url"`
}

// findSimilarProducts returns catalog products whose extracted type
// matches, constrained to the same size and category when known.
func (s Service) findSimilarProducts(ctx context.Context, normalizedType string, size sql.NullString, categoryID sql.NullInt64) ([]similarProductRow, error) {
	if normalizedType == "" {
		return nil, nil
	}

	query := `SELECT id, name, brand, category_id, size, image_url FROM products WHERE 1=1`
	var args []interface{}
	if categoryID.Valid {
		query += ` AND category_id = ?`
		args = append(args, categoryID.Int64)
	}
	if size.Valid {
		query += ` AND size = ?`
		args = append(args, size.String)
	}
	query += ` ORDER BY id LIMIT 1000`

	var candidates []similarProductRow
	if err := s.sx.SelectContext(ctx, &candidates, query, args...); err != nil {
		return nil, err
	}

	var matching []similarProductRow
	for _, candidate := range candidates {
		candidateType := NormalizeType(ExtractType(candidate.Name, candidate.Brand.String))
		if normalizedType == candidateType || TypesMatch(normalizedType, candidateType) {
			matching = append(matching, candidate)
		}
		if len(matching) >= 50 {
			break
		}
	}
	return matching, nil
}

// BrandPriceInfo is one brand's take on a product type, with its price
// at every store carrying it.
type BrandPriceInfo struct {
	ProductID          int64        `json:"product_id"`
	Brand              *string      `json:"brand"`
	ProductName        string       `json:"product_name"`
	ImageUrl           *string      `json:"image_url"`
	StorePrices        []StorePrice `json:"store_prices"`
	CheapestPriceCents int64        `json:"cheapest_price_cents"`
	CheapestPrice      string       `json:"cheapest_price"`
	CheapestStore      *string      `json:"cheapest_store"`
}

type TypeComparison struct {
	ProductType          string           `json:"product_type"`
	Size                 *string          `json:"size"`
	CategoryID           *int64           `json:"category_id"`
	CategoryName         *string          `json:"category_name"`
	Brands               []BrandPriceInfo `json:"brands"`
	CheapestOverallCents *int64           `json:"cheapest_overall_cents"`
	CheapestOverall      *string          `json:"cheapest_overall"`
	CheapestBrand        *string          `json:"cheapest_brand"`
	CheapestStore        *string          `json:"cheapest_store"`
	TotalOptions         int              `json:"total_options"`
}

// CompareType lines up every brand of the reference product's type:
// "Dairy Farmers Full Cream Milk 2L" pulls in all other 2L full cream
// milks, each with prices across stores, cheapest brand first.
func (s Service) CompareType(ctx context.Context, productID int64) (TypeComparison, error) {
	ctx, span := tracer.Start(ctx, "CompareType")
	defer span.End()
	span.SetAttributes(attribute.Int64("product_id", productID))

	fail := func(err error) (TypeComparison, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return TypeComparison{}, err
	}

	product, err := s.qry.GetProduct(ctx, productID)
	if err != nil {
		return fail(err)
	}

	productType := ExtractType(product.Name, product.Brand.String)

	similar, err := s.findSimilarProducts(ctx, NormalizeType(productType), product.Size, product.CategoryID)
	if err != nil {
		return fail(err)
	}
	if len(similar) == 0 {
		similar = []similarProductRow{{
			ID:         product.ID,
			Name:       product.Name,
			Brand:      product.Brand,
			CategoryID: product.CategoryID,
			Size:       product.Size,
			ImageUrl:   product.ImageUrl,
		}}
	}

	comparison := TypeComparison{
		ProductType: productType,
		Size:        nullStr(product.Size),
		CategoryID:  nullInt(product.CategoryID),
		Brands:      []BrandPriceInfo{},
	}
	if product.CategoryID.Valid {
		category, err := s.qry.GetCategory(ctx, product.CategoryID.Int64)
		if err == nil {
			comparison.CategoryName = &category.Name
		}
	}

	for _, prod := range similar {
		prices, err := s.storePrices(ctx, prod.ID)
		if err != nil {
			return fail(err)
		}
		if len(prices) == 0 {
			continue
		}

		cheapestCents := prices[0].PriceCents
		cheapestStore := prices[0].StoreName
		for _, p := range prices[1:] {
			if p.PriceCents < cheapestCents {
				cheapestCents = p.PriceCents
				cheapestStore = p.StoreName
			}
		}

		comparison.Brands = append(comparison.Brands, BrandPriceInfo{
			ProductID:          prod.ID,
			Brand:              nullStr(prod.Brand),
			ProductName:        prod.Name,
			ImageUrl:           nullStr(prod.ImageUrl),
			StorePrices:        prices,
			CheapestPriceCents: cheapestCents,
			CheapestPrice:      money.FormatCents(cheapestCents),
			CheapestStore:      &cheapestStore,
		})
		comparison.TotalOptions += len(prices)

		if comparison.CheapestOverallCents == nil || cheapestCents < *comparison.CheapestOverallCents {
			cents := cheapestCents
			formatted := money.FormatCents(cents)
			brandName := prod.Name
			if prod.Brand.Valid {
				brandName = prod.Brand.String
			}
			store := cheapestStore
			comparison.CheapestOverallCents = &cents
			comparison.CheapestOverall = &formatted
			comparison.CheapestBrand = &brandName
			comparison.CheapestStore = &store
		}
	}

	sort.SliceStable(comparison.Brands, func(i, j int) bool {
		return comparison.Brands[i].CheapestPriceCents < comparison.Brands[j].CheapestPriceCents
	})
	return comparison, nil
}

// SpecialOffer is one store's current special in a matching result.
type SpecialOffer struct {
	SpecialID       int64   `json:"special_id"`
	Name            string  `json:"name"`
	StoreID         int64   `json:"store_id"`
	StoreName       string  `json:"store_name"`
	StoreSlug       string  `json:"store_slug"`
	PriceCents      int64   `json:"price_cents"`
	Price           string  `json:"price"`
	WasPriceCents   *int64  `json:"was_price_cents"`
	DiscountPercent int64   `json:"discount_percent"`
	UnitPrice       *string `json:"unit_price"`
	ImageUrl        *string `json:"image_url"`
	ProductUrl      *string `json:"product_url"`
	ValidTo         string  `json:"valid_to"`
}

type offerRow struct {
	ID              int64          `db:"id"`
	StoreID         int64          `db:"store_id"`
	Name            string         `db:"name"`
	Brand           sql.NullString `db:"brand"`
	Size            sql.NullString `db:"size"`
	CategoryID      sql.NullInt64  `db:"category_id"`
	PriceCents      int64          `db:"price_cents"`
	WasPriceCents   sql.NullInt64  `db:"was_price_cents"`
	DiscountPercent int64          `db:"discount_percent"`
	UnitPrice       sql.NullString `db:"unit_price"`
	ProductUrl      sql.NullString `db:"product_url"`
	ImageUrl        sql.NullString `db:"image_url"`
	ValidTo         string         `db:"valid_to"`
	StoreName       string         `db:"store_name"`
	StoreSlug       string         `db:"store_slug"`
}

const offerColumns = `sp.id, sp.store_id, sp.name, sp.brand, sp.size, sp.category_id,
	sp.price_cents, sp.was_price_cents, sp.discount_percent, sp.unit_price,
	sp.product_url, sp.image_url, sp.valid_to, s.name AS store_name, s.slug AS store_slug`

func (r offerRow) offer() SpecialOffer {
	return SpecialOffer{
		SpecialID:       r.ID,
		Name:            r.Name,
		StoreID:         r.StoreID,
		StoreName:       r.StoreName,
		StoreSlug:       r.StoreSlug,
		PriceCents:      r.PriceCents,
		Price:           money.FormatCents(r.PriceCents),
		WasPriceCents:   nullInt(r.WasPriceCents),
		DiscountPercent: r.DiscountPercent,
		UnitPrice:       nullStr(r.UnitPrice),
		ImageUrl:        nullStr(r.ImageUrl),
		ProductUrl:      nullStr(r.ProductUrl),
		ValidTo:         r.ValidTo,
	}
}

func offerFromSpecial(r db.GetSpecialRow) SpecialOffer {
	return SpecialOffer{
		SpecialID:       r.ID,
		Name:            r.Name,
		StoreID:         r.StoreID,
		StoreName:       r.StoreName,
		StoreSlug:       r.StoreSlug,
		PriceCents:      r.PriceCents,
		Price:           money.FormatCents(r.PriceCents),
		WasPriceCents:   nullInt(r.WasPriceCents),
		DiscountPercent: r.DiscountPercent,
		UnitPrice:       nullStr(r.UnitPrice),
		ImageUrl:        nullStr(r.ImageUrl),
		ProductUrl:      nullStr(r.ProductUrl),
		ValidTo:         r.ValidTo,
	}
}

// BrandMatchResult groups the same product found on special at
// multiple stores.
type BrandMatchResult struct {
	ProductName      string         `json:"product_name"`
	Brand            *string        `json:"brand"`
	Size             *string        `json:"size"`
	Stores           []SpecialOffer `json:"stores"`
	CheapestStore    *string        `json:"cheapest_store"`
	PriceSpreadCents *int64         `json:"price_spread_cents"`
	SavingsPotential *string        `json:"savings_potential"`
}

// BrandMatch finds identical products on special across stores. The
// same Tim Tams at Woolworths and Coles group together, showing where
// the packet is cheapest this week.
func (s Service) BrandMatch(ctx context.Context, search string) ([]BrandMatchResult, error) {
	ctx, span := tracer.Start(ctx, "BrandMatch")
	defer span.End()
	span.SetAttributes(attribute.String("search", search))

	query := `SELECT ` + offerColumns + `
		FROM specials sp
		JOIN stores s ON s.id = sp.store_id
		WHERE sp.valid_to >= ? AND (sp.name LIKE ? OR sp.brand LIKE ?)
		ORDER BY sp.name, sp.price_cents`
	like := "%" + search + "%"

	var rows []offerRow
	if err := s.sx.SelectContext(ctx, &rows, query, timezone.Today(), like, like); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var order []string
	groups := make(map[string][]offerRow)
	for _, row := range rows {
		key := NormalizeProductKey(row.Name, nullStr(row.Brand), nullStr(row.Size))
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	results := []BrandMatchResult{}
	for _, key := range order {
		group := groups[key]

		uniqueStores := make(map[int64]bool)
		for _, row := range group {
			uniqueStores[row.StoreID] = true
		}
		// A product at one store with a single offer has nothing to compare.
		if len(uniqueStores) < 2 && len(group) < 2 {
			continue
		}

		// Cheapest offer per store; rows are already price-ascending.
		var stores []SpecialOffer
		seen := make(map[int64]bool)
		for _, row := range group {
			if seen[row.StoreID] {
				continue
			}
			seen[row.StoreID] = true
			stores = append(stores, row.offer())
		}
		sort.SliceStable(stores, func(i, j int) bool {
			return stores[i].PriceCents < stores[j].PriceCents
		})

		result := BrandMatchResult{
			ProductName:   group[0].Name,
			Brand:         nullStr(group[0].Brand),
			Size:          nullStr(group[0].Size),
			Stores:        stores,
			CheapestStore: &stores[0].StoreName,
		}
		if len(stores) > 1 {
			spread := stores[len(stores)-1].PriceCents - stores[0].PriceCents
			formatted := money.FormatCents(spread)
			result.PriceSpreadCents = &spread
			result.SavingsPotential = &formatted
		}
		results = append(results, result)
	}

	// More stores carrying the product means a more useful match.
	sort.SliceStable(results, func(i, j int) bool {
		return len(results[i].Stores) > len(results[j].Stores)
	})
	if len(results) > 20 {
		results = results[:20]
	}
	return results, nil
}

type TypeMatchResult struct {
	ProductType        string         `json:"product_type"`
	CategoryID         *int64         `json:"category_id"`
	CategoryName       *string        `json:"category_name"`
	ReferenceProduct   SpecialOffer   `json:"reference_product"`
	SimilarProducts    []SpecialOffer `json:"similar_products"`
	CheapestSpecialID  int64          `json:"cheapest_special_id"`
	CheapestPriceCents int64          `json:"cheapest_price_cents"`
	CheapestPrice      string         `json:"cheapest_price"`
	TotalOptions       int            `json:"total_options"`
}

// TypeMatch finds specials of the same product type regardless of
// brand: given one 2L milk on special, every other 2L milk currently
// on special anywhere.
func (s Service) TypeMatch(ctx context.Context, specialID int64) (TypeMatchResult, error) {
	ctx, span := tracer.Start(ctx, "TypeMatch")
	defer span.End()
	span.SetAttributes(attribute.Int64("special_id", specialID))

	fail := func(err error) (TypeMatchResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return TypeMatchResult{}, err
	}

	reference, err := s.qry.GetSpecial(ctx, specialID)
	if err != nil {
		return fail(err)
	}

	productType := ExtractOfferType(reference.Name, reference.Brand.String)

	result := TypeMatchResult{
		ProductType:      productType,
		CategoryID:       nullInt(reference.CategoryID),
		ReferenceProduct: offerFromSpecial(reference),
		SimilarProducts:  []SpecialOffer{},
	}
	if reference.CategoryID.Valid {
		category, err := s.qry.GetCategory(ctx, reference.CategoryID.Int64)
		if err == nil {
			result.CategoryName = &category.Name
		}
	}

	query := `SELECT ` + offerColumns + `
		FROM specials sp
		JOIN stores s ON s.id = sp.store_id
		WHERE sp.valid_to >= ? AND sp.id != ?`
	args := []interface{}{timezone.Today(), specialID}
	if reference.CategoryID.Valid {
		query += ` AND sp.category_id = ?`
		args = append(args, reference.CategoryID.Int64)
	}
	if reference.Size.Valid {
		query += ` AND sp.size = ?`
		args = append(args, reference.Size.String)
	}
	query += ` ORDER BY sp.id`

	var candidates []offerRow
	if err := s.sx.SelectContext(ctx, &candidates, query, args...); err != nil {
		return fail(err)
	}

	for _, candidate := range candidates {
		candidateType := ExtractOfferType(candidate.Name, candidate.Brand.String)
		if SimilarType(productType, candidateType) {
			result.SimilarProducts = append(result.SimilarProducts, candidate.offer())
		}
	}
	sort.SliceStable(result.SimilarProducts, func(i, j int) bool {
		return result.SimilarProducts[i].PriceCents < result.SimilarProducts[j].PriceCents
	})

	cheapest := result.ReferenceProduct
	for _, offer := range result.SimilarProducts {
		if offer.PriceCents < cheapest.PriceCents {
			cheapest = offer
		}
	}
	result.CheapestSpecialID = cheapest.SpecialID
	result.CheapestPriceCents = cheapest.PriceCents
	result.CheapestPrice = money.FormatCents(cheapest.PriceCents)
	result.TotalOptions = len(result.SimilarProducts) + 1
	return result, nil
}

type BrandProductsResult struct {
	Brand              string         `json:"brand"`
	ReferenceProduct   SpecialOffer   `json:"reference_product"`
	BrandProducts      []SpecialOffer `json:"brand_products"`
	CheapestPriceCents int64          `json:"cheapest_price_cents"`
	CheapestPrice      string         `json:"cheapest_price"`
	TotalProducts      int            `json:"total_products"`
	StoresWithBrand    []string       `json:"stores_with_brand"`
}

// BrandProducts finds everything else from the reference special's
// brand currently on special at any store.
func (s Service) BrandProducts(ctx context.Context, specialID int64) (BrandProductsResult, error) {
	ctx, span := tracer.Start(ctx, "BrandProducts")
	defer span.End()
	span.SetAttributes(attribute.Int64("special_id", specialID))

	fail := func(err error) (BrandProductsResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return BrandProductsResult{}, err
	}

	reference, err := s.qry.GetSpecial(ctx, specialID)
	if err != nil {
		return fail(err)
	}

	brand := reference.Brand.String
	if brand == "" {
		brand = BrandFromName(reference.Name)
	}

	result := BrandProductsResult{
		ReferenceProduct:   offerFromSpecial(reference),
		BrandProducts:      []SpecialOffer{},
		CheapestPriceCents: reference.PriceCents,
		CheapestPrice:      money.FormatCents(reference.PriceCents),
		TotalProducts:      1,
		StoresWithBrand:    []string{reference.StoreName},
	}
	if brand == "" {
		result.Brand = "Unknown"
		return result, nil
	}
	result.Brand = brand

	query := `SELECT ` + offerColumns + `
		FROM specials sp
		JOIN stores s ON s.id = sp.store_id
		WHERE sp.valid_to >= ? AND lower(sp.brand) = lower(?)
		ORDER BY sp.price_cents`

	var rows []offerRow
	if err := s.sx.SelectContext(ctx, &rows, query, timezone.Today(), brand); err != nil {
		return fail(err)
	}

	storesWithBrand := map[string]bool{reference.StoreName: true}
	cheapestCents := reference.PriceCents
	for _, row := range rows {
		storesWithBrand[row.StoreName] = true
		if row.ID == reference.ID {
			continue
		}
		result.BrandProducts = append(result.BrandProducts, row.offer())
		if row.PriceCents < cheapestCents {
			cheapestCents = row.PriceCents
		}
	}

	result.CheapestPriceCents = cheapestCents
	result.CheapestPrice = money.FormatCents(cheapestCents)
	result.TotalProducts = len(result.BrandProducts) + 1
	result.StoresWithBrand = make([]string, 0, len(storesWithBrand))
	for name := range storesWithBrand {
		result.StoresWithBrand = append(result.StoresWithBrand, name)
	}
	sort.Strings(result.StoresWithBrand)
	return result, nil
}
