// Package staples serves the weekly-shop view of fresh food: fruit,
// vegetables, meat and seafood gathered from both current specials and
// everyday catalog prices, grouped by product name so the same item
// can be compared across stores.
package staples

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"trolley-backend/internal/db"
	"trolley-backend/lib/money"
	"trolley-backend/lib/timezone"
)

var tracer = otel.Tracer("services/staples")

type Service struct {
	sx  *sqlx.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		sx:  sqlx.NewDb(database, "sqlite"),
		qry: db.New(database),
	}
}

type StapleStorePrice struct {
	StoreID    int64   `json:"store_id"`
	StoreName  string  `json:"store_name"`
	StoreSlug  string  `json:"store_slug"`
	PriceCents int64   `json:"price_cents"`
	Price      string  `json:"price"`
	UnitPrice  *string `json:"unit_price,omitempty"`
	ImageUrl   *string `json:"image_url,omitempty"`
	ProductUrl *string `json:"product_url,omitempty"`
	IsSpecial  bool    `json:"is_special"`
}

type StapleProduct struct {
	ID              int64              `json:"id"`
	Name            string             `json:"name"`
	Category        string             `json:"category"`
	CategoryDisplay string             `json:"category_display"`
	Unit            *string            `json:"unit,omitempty"`
	ImageUrl        *string            `json:"image_url,omitempty"`
	Prices          []StapleStorePrice `json:"prices"`
	BestPrice       *StapleStorePrice  `json:"best_price,omitempty"`
	PriceRange      *string            `json:"price_range,omitempty"`
	SavingsCents    *int64             `json:"savings_cents,omitempty"`
}

type StaplesList struct {
	Products   []StapleProduct `json:"products"`
	Total      int64           `json:"total"`
	Categories []string        `json:"categories"`
	HasMore    bool            `json:"has_more"`
}

type StapleCategory struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Count int64  `json:"count"`
	Icon  string `json:"icon"`
}

type StapleCategories struct {
	Categories    []StapleCategory `json:"categories"`
	TotalProducts int64            `json:"total_products"`
}

type ListParams struct {
	Category string
	Store    string
	Search   string
	Sort     string
	Limit    int64
	Offset   int64
}

// resolveCategoryIDs maps every configured category and parent slug to
// its database id and builds, per staple bucket, the set of ids that
// bucket claims. Slugs missing from the catalog resolve to nothing.
func (service Service) resolveCategoryIDs(ctx context.Context) (stapleIDSets, []int64, error) {
	slugSet := map[string]bool{}
	for _, config := range stapleConfigs {
		for _, slug := range config.categorySlugs {
			slugSet[slug] = true
		}
		for _, slug := range config.parentSlugs {
			slugSet[slug] = true
		}
	}
	slugs := make([]string, 0, len(slugSet))
	for slug := range slugSet {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	query, args, err := sqlx.In(`SELECT id, slug FROM categories WHERE slug IN (?)`, slugs)
	if err != nil {
		return nil, nil, err
	}
	var rows []struct {
		ID   int64  `db:"id"`
		Slug string `db:"slug"`
	}
	if err := service.sx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, nil, err
	}
	idBySlug := map[string]int64{}
	for _, row := range rows {
		idBySlug[row.Slug] = row.ID
	}

	sets := stapleIDSets{}
	allSet := map[int64]bool{}
	for _, config := range stapleConfigs {
		ids := map[int64]bool{}
		for _, slug := range append(append([]string{}, config.categorySlugs...), config.parentSlugs...) {
			if id, ok := idBySlug[slug]; ok {
				ids[id] = true
				allSet[id] = true
			}
		}
		sets[config.slug] = ids
	}
	all := make([]int64, 0, len(allSet))
	for id := range allSet {
		all = append(all, id)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return sets, all, nil
}

type stapleSpecialRow struct {
	ID         int64          `db:"id"`
	StoreID    int64          `db:"store_id"`
	Name       string         `db:"name"`
	Brand      sql.NullString `db:"brand"`
	Size       sql.NullString `db:"size"`
	CategoryID sql.NullInt64  `db:"category_id"`
	PriceCents int64          `db:"price_cents"`
	UnitPrice  sql.NullString `db:"unit_price"`
	ProductUrl sql.NullString `db:"product_url"`
	ImageUrl   sql.NullString `db:"image_url"`
	StoreName  string         `db:"store_name"`
	StoreSlug  string         `db:"store_slug"`
}

// List merges current specials with everyday catalog prices into one
// staple listing. Specials are folded in first so a store's special
// price wins over its everyday price for the same product name.
func (service Service) List(ctx context.Context, params ListParams) (StaplesList, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()
	span.SetAttributes(
		attribute.String("category", params.Category),
		attribute.String("sort", params.Sort),
	)

	fail := func(err error) (StaplesList, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return StaplesList{}, err
	}

	idSets, allIDs, err := service.resolveCategoryIDs(ctx)
	if err != nil {
		return fail(err)
	}

	filterIDs := allIDs
	if params.Category != "" {
		for _, config := range stapleConfigs {
			if config.slug != params.Category {
				continue
			}
			filterIDs = nil
			for id := range idSets[config.slug] {
				filterIDs = append(filterIDs, id)
			}
			sort.Slice(filterIDs, func(i, j int) bool { return filterIDs[i] < filterIDs[j] })
		}
	}

	var storeFilter *int64
	if params.Store != "" {
		store, err := service.qry.GetStoreBySlug(ctx, params.Store)
		if err == nil {
			storeFilter = &store.ID
		} else if err != sql.ErrNoRows {
			return fail(err)
		}
	}

	order := []string{}
	products := map[string]*StapleProduct{}

	if err := service.mergeSpecials(ctx, params, filterIDs, idSets, storeFilter, &order, products); err != nil {
		return fail(err)
	}
	if err := service.mergeEveryday(ctx, params, allIDs, storeFilter, &order, products); err != nil {
		return fail(err)
	}

	list := make([]StapleProduct, 0, len(order))
	for _, key := range order {
		product := products[key]
		if len(product.Prices) == 0 {
			continue
		}
		sort.SliceStable(product.Prices, func(i, j int) bool {
			return product.Prices[i].PriceCents < product.Prices[j].PriceCents
		})
		best := product.Prices[0]
		product.BestPrice = &best
		if len(product.Prices) > 1 {
			minCents := product.Prices[0].PriceCents
			maxCents := product.Prices[len(product.Prices)-1].PriceCents
			priceRange := fmt.Sprintf("%s - %s", money.FormatCents(minCents), money.FormatCents(maxCents))
			product.PriceRange = &priceRange
			savings := maxCents - minCents
			product.SavingsCents = &savings
		}
		list = append(list, *product)
	}

	switch params.Sort {
	case "price_low":
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].BestPrice.PriceCents < list[j].BestPrice.PriceCents
		})
	case "price_high":
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].BestPrice.PriceCents > list[j].BestPrice.PriceCents
		})
	case "savings":
		savingsOf := func(p StapleProduct) int64 {
			if p.SavingsCents == nil {
				return 0
			}
			return *p.SavingsCents
		}
		sort.SliceStable(list, func(i, j int) bool {
			return savingsOf(list[i]) > savingsOf(list[j])
		})
	default:
		sort.SliceStable(list, func(i, j int) bool {
			return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
		})
	}

	total := int64(len(list))
	if params.Offset >= total {
		list = []StapleProduct{}
	} else {
		end := params.Offset + params.Limit
		if end > total {
			end = total
		}
		list = list[params.Offset:end]
	}
	hasMore := params.Offset+int64(len(list)) < total

	seen := map[string]bool{}
	categories := []string{}
	for _, product := range list {
		if !seen[product.Category] {
			seen[product.Category] = true
			categories = append(categories, product.Category)
		}
	}

	span.SetAttributes(attribute.Int("total", int(total)))
	return StaplesList{
		Products:   list,
		Total:      total,
		Categories: categories,
		HasMore:    hasMore,
	}, nil
}

func (service Service) mergeSpecials(
	ctx context.Context,
	params ListParams,
	filterIDs []int64,
	idSets stapleIDSets,
	storeFilter *int64,
	order *[]string,
	products map[string]*StapleProduct,
) error {
	query := `SELECT sp.id, sp.store_id, sp.name, sp.brand, sp.size, sp.category_id,
		sp.price_cents, sp.unit_price, sp.product_url, sp.image_url,
		s.name AS store_name, s.slug AS store_slug
		FROM specials sp
		JOIN stores s ON s.id = sp.store_id
		WHERE sp.valid_to >= ?`
	args := []interface{}{timezone.Today()}
	if len(filterIDs) > 0 {
		query += ` AND (sp.category_id IN (?) OR sp.category_id IS NULL)`
		args = append(args, filterIDs)
	}
	if storeFilter != nil {
		query += ` AND sp.store_id = ?`
		args = append(args, *storeFilter)
	}
	if params.Search != "" {
		query += ` AND (sp.name LIKE ? OR sp.brand LIKE ?)`
		pattern := "%" + params.Search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY sp.id`

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	var rows []stapleSpecialRow
	if err := service.sx.SelectContext(ctx, &rows, query, inArgs...); err != nil {
		return err
	}

	for _, row := range rows {
		slug, display, ok := categorizeOffer(row.Name, row.CategoryID.Int64, idSets)
		if !ok {
			continue
		}
		if params.Category != "" && slug != params.Category {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(row.Name))
		price := StapleStorePrice{
			StoreID:    row.StoreID,
			StoreName:  row.StoreName,
			StoreSlug:  row.StoreSlug,
			PriceCents: row.PriceCents,
			Price:      money.FormatCents(row.PriceCents),
			UnitPrice:  nullStr(row.UnitPrice),
			ImageUrl:   nullStr(row.ImageUrl),
			ProductUrl: nullStr(row.ProductUrl),
			IsSpecial:  true,
		}
		existing, found := products[key]
		if !found {
			*order = append(*order, key)
			products[key] = &StapleProduct{
				ID:              row.ID,
				Name:            row.Name,
				Category:        slug,
				CategoryDisplay: display,
				Unit:            nullStr(row.Size),
				ImageUrl:        nullStr(row.ImageUrl),
				Prices:          []StapleStorePrice{price},
			}
			continue
		}
		if !hasStore(existing.Prices, row.StoreID) {
			existing.Prices = append(existing.Prices, price)
		}
	}
	return nil
}

type everydayProductRow struct {
	ID       int64          `db:"id"`
	Name     string         `db:"name"`
	Brand    sql.NullString `db:"brand"`
	Size     sql.NullString `db:"size"`
	ImageUrl sql.NullString `db:"image_url"`
}

func (service Service) mergeEveryday(
	ctx context.Context,
	params ListParams,
	categoryIDs []int64,
	storeFilter *int64,
	order *[]string,
	products map[string]*StapleProduct,
) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	query := `SELECT id, name, brand, size, image_url FROM products WHERE category_id IN (?)`
	args := []interface{}{categoryIDs}
	if params.Search != "" {
		query += ` AND (name LIKE ? OR brand LIKE ?)`
		pattern := "%" + params.Search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY id`

	query, inArgs, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	var rows []everydayProductRow
	if err := service.sx.SelectContext(ctx, &rows, query, inArgs...); err != nil {
		return err
	}

	for _, row := range rows {
		slug, display, ok := categorizeName(row.Name)
		if !ok {
			continue
		}
		if params.Category != "" && slug != params.Category {
			continue
		}

		storeProducts, err := service.qry.ListStoreProductsForProduct(ctx, row.ID)
		if err != nil {
			return err
		}
		key := strings.ToLower(strings.TrimSpace(row.Name))
		for _, storeProduct := range storeProducts {
			if storeFilter != nil && storeProduct.StoreID != *storeFilter {
				continue
			}
			latest, err := service.qry.LatestPriceForStoreProduct(ctx, storeProduct.ID)
			if err == sql.ErrNoRows {
				continue
			} else if err != nil {
				return err
			}
			if latest.PriceCents == 0 {
				continue
			}

			imageUrl := storeProduct.ImageUrl
			if !imageUrl.Valid {
				imageUrl = row.ImageUrl
			}
			var unitPrice *string
			if latest.UnitPriceCents.Valid {
				formatted := money.FormatCents(latest.UnitPriceCents.Int64) + "/unit"
				unitPrice = &formatted
			}
			price := StapleStorePrice{
				StoreID:    storeProduct.StoreID,
				StoreName:  storeProduct.StoreName,
				StoreSlug:  storeProduct.StoreSlug,
				PriceCents: latest.PriceCents,
				Price:      money.FormatCents(latest.PriceCents),
				UnitPrice:  unitPrice,
				ImageUrl:   nullStr(imageUrl),
				ProductUrl: nullStr(storeProduct.ProductUrl),
				IsSpecial:  latest.IsSpecial,
			}
			existing, found := products[key]
			if !found {
				*order = append(*order, key)
				products[key] = &StapleProduct{
					ID:              row.ID,
					Name:            row.Name,
					Category:        slug,
					CategoryDisplay: display,
					Unit:            nullStr(row.Size),
					ImageUrl:        nullStr(imageUrl),
					Prices:          []StapleStorePrice{price},
				}
				continue
			}
			if !hasStore(existing.Prices, storeProduct.StoreID) {
				existing.Prices = append(existing.Prices, price)
			}
		}
	}
	return nil
}

func hasStore(prices []StapleStorePrice, storeID int64) bool {
	for _, price := range prices {
		if price.StoreID == storeID {
			return true
		}
	}
	return false
}

// Categories counts distinct product names per staple bucket across
// both specials and the everyday catalog.
func (service Service) Categories(ctx context.Context) (StapleCategories, error) {
	ctx, span := tracer.Start(ctx, "Categories")
	defer span.End()

	fail := func(err error) (StapleCategories, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return StapleCategories{}, err
	}

	idSets, allIDs, err := service.resolveCategoryIDs(ctx)
	if err != nil {
		return fail(err)
	}

	counts := map[string]map[string]bool{}
	for _, config := range stapleConfigs {
		counts[config.slug] = map[string]bool{}
	}

	if len(allIDs) > 0 {
		query, args, err := sqlx.In(
			`SELECT name, category_id FROM specials WHERE valid_to >= ? AND category_id IN (?)`,
			timezone.Today(), allIDs)
		if err != nil {
			return fail(err)
		}
		var specialRows []struct {
			Name       string        `db:"name"`
			CategoryID sql.NullInt64 `db:"category_id"`
		}
		if err := service.sx.SelectContext(ctx, &specialRows, query, args...); err != nil {
			return fail(err)
		}
		for _, row := range specialRows {
			if slug, _, ok := categorizeOffer(row.Name, row.CategoryID.Int64, idSets); ok {
				counts[slug][strings.ToLower(strings.TrimSpace(row.Name))] = true
			}
		}

		query, args, err = sqlx.In(
			`SELECT DISTINCT p.id, p.name FROM products p
			JOIN store_products spr ON spr.product_id = p.id
			JOIN prices pr ON pr.store_product_id = spr.id
			WHERE p.category_id IN (?) ORDER BY p.id`, allIDs)
		if err != nil {
			return fail(err)
		}
		var productRows []struct {
			ID   int64  `db:"id"`
			Name string `db:"name"`
		}
		if err := service.sx.SelectContext(ctx, &productRows, query, args...); err != nil {
			return fail(err)
		}
		for _, row := range productRows {
			if slug, _, ok := categorizeName(row.Name); ok {
				counts[slug][strings.ToLower(strings.TrimSpace(row.Name))] = true
			}
		}
	}

	result := StapleCategories{Categories: []StapleCategory{}}
	for _, config := range stapleConfigs {
		count := int64(len(counts[config.slug]))
		if count == 0 {
			continue
		}
		result.Categories = append(result.Categories, StapleCategory{
			Slug:  config.slug,
			Name:  config.name,
			Count: count,
			Icon:  config.icon,
		})
		result.TotalProducts += count
	}
	sort.SliceStable(result.Categories, func(i, j int) bool {
		return result.Categories[i].Count > result.Categories[j].Count
	})
	return result, nil
}

// Search is the list endpoint restricted to a name query.
func (service Service) Search(ctx context.Context, q string, limit int64) (StaplesList, error) {
	return service.List(ctx, ListParams{
		Sort:   "name",
		Search: q,
		Limit:  limit,
	})
}

// Get returns a single staple product by its specials-table id.
func (service Service) Get(ctx context.Context, id int64) (StapleProduct, error) {
	ctx, span := tracer.Start(ctx, "Get")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	fail := func(err error) (StapleProduct, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return StapleProduct{}, err
	}

	special, err := service.qry.GetSpecial(ctx, id)
	if err == sql.ErrNoRows {
		return StapleProduct{}, err
	} else if err != nil {
		return fail(err)
	}

	idSets, _, err := service.resolveCategoryIDs(ctx)
	if err != nil {
		return fail(err)
	}
	slug, display, ok := categorizeOffer(special.Name, special.CategoryID.Int64, idSets)
	if !ok {
		slug, display = "other", "Other"
	}

	price := StapleStorePrice{
		StoreID:    special.StoreID,
		StoreName:  special.StoreName,
		StoreSlug:  special.StoreSlug,
		PriceCents: special.PriceCents,
		Price:      money.FormatCents(special.PriceCents),
		UnitPrice:  nullStr(special.UnitPrice),
		ImageUrl:   nullStr(special.ImageUrl),
		ProductUrl: nullStr(special.ProductUrl),
		IsSpecial:  true,
	}
	return StapleProduct{
		ID:              special.ID,
		Name:            special.Name,
		Category:        slug,
		CategoryDisplay: display,
		Unit:            nullStr(special.Size),
		ImageUrl:        nullStr(special.ImageUrl),
		Prices:          []StapleStorePrice{price},
		BestPrice:       &price,
	}, nil
}

func nullStr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return &value.String
}
