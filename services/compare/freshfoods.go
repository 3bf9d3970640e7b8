package compare

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"trolley-backend/lib/money"
	"trolley-backend/lib/timezone"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Keyword nets for fresh produce and meat. Scraped specials are often
// uncategorized, so names are matched against these when the category
// gives no signal.
var produceKeywords = []string{
	"apple", "banana", "orange", "mango", "grape", "strawberry", "blueberry",
	"raspberry", "watermelon", "melon", "pear", "peach", "plum", "kiwi",
	"avocado", "lemon", "lime", "mandarin", "pineapple", "cherry", "nectarine",
	"potato", "onion", "carrot", "tomato", "lettuce", "broccoli", "capsicum",
	"cucumber", "spinach", "mushroom", "zucchini", "corn", "bean", "pea",
	"cauliflower", "celery", "garlic", "ginger", "chilli", "cabbage", "pumpkin",
	"sweet potato", "salad", "herb", "vegetable", "fruit",
}

var meatKeywords = []string{
	"chicken", "beef", "lamb", "pork", "mince", "steak", "roast", "chop",
	"sausage", "bacon", "thigh", "breast", "wing", "drumstick", "fillet",
	"cutlet", "rump", "scotch", "salmon", "prawn", "fish", "barramundi",
	"tuna", "snapper", "calamari", "seafood", "meat",
}

// Processed goods that keyword-match fresh terms ("chicken salt",
// "beef stock") but do not belong in a fresh food comparison.
var freshExclusions = []string{
	"frozen", "oven bake", "microwave", "heat & eat", "ready to cook",
	"schnitzel", "nugget", "crumbed", "battered", "coated", "breaded",
	"sauce", "paste", "powder", "seasoning", "stock", "marinade",
	"canned", "tinned", "preserved", "pickled", "jarred",
	"juice", "cordial", "soft drink", "wine", "beer", "cider",
	"yoghurt", "yogurt", "cheese", "milk", "cream", "butter", "ice cream",
	"chip", "crisp", "biscuit", "chocolate", "candy", "confectionery",
}

var produceCategorySlugs = []string{"fruit-veg", "fruit-vegetables", "fresh-fruit", "fresh-vegetables"}

var meatCategorySlugs = []string{"meat-seafood", "poultry-meat-seafood", "beef-veal", "chicken", "pork", "lamb", "seafood"}

func isFreshProduce(name string) bool {
	return matchesKeywords(name, produceKeywords)
}

func isFreshMeat(name string) bool {
	return matchesKeywords(name, meatKeywords)
}

func matchesKeywords(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, excl := range freshExclusions {
		if strings.Contains(lower, excl) {
			return false
		}
	}
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// FreshStorePrice is one store's price for a fresh food item.
type FreshStorePrice struct {
	StoreID    int64   `json:"store_id"`
	StoreName  string  `json:"store_name"`
	StoreSlug  string  `json:"store_slug"`
	PriceCents int64   `json:"price_cents"`
	Price      string  `json:"price"`
	UnitPrice  *string `json:"unit_price"`
	ImageUrl   *string `json:"image_url"`
	ProductUrl *string `json:"product_url"`
}

type FreshFoodItem struct {
	ProductID          int64             `json:"product_id"`
	ProductName        string            `json:"product_name"`
	Brand              *string           `json:"brand"`
	Size               *string           `json:"size"`
	Category           string            `json:"category"`
	Stores             []FreshStorePrice `json:"stores"`
	CheapestStore      *string           `json:"cheapest_store"`
	CheapestPriceCents int64             `json:"cheapest_price_cents"`
	CheapestPrice      string            `json:"cheapest_price"`
	PriceRange         *string           `json:"price_range"`
}

type FreshFoodsResult struct {
	Produce       []FreshFoodItem `json:"produce"`
	Meat          []FreshFoodItem `json:"meat"`
	TotalProducts int             `json:"total_products"`
	LastUpdated   *string         `json:"last_updated"`
}

// freshCategoryIDs collects category ids for a set of slugs, plus the
// children of the parent aisle when it exists.
func (s Service) freshCategoryIDs(ctx context.Context, slugs []string, parentSlug string) ([]int64, error) {
	query, args, err := sqlx.In(`SELECT id FROM categories WHERE slug IN (?)`, slugs)
	if err != nil {
		return nil, err
	}
	var ids []int64
	if err := s.sx.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, err
	}

	parent, err := s.qry.GetCategoryBySlug(ctx, parentSlug)
	if err == nil {
		ids = append(ids, parent.ID)
		children, err := s.qry.ListChildCategories(ctx, sql.NullInt64{Int64: parent.ID, Valid: true})
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			ids = append(ids, child.ID)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	seen := make(map[int64]bool, len(ids))
	deduped := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			deduped = append(deduped, id)
		}
	}
	return deduped, nil
}

type freshSpecialRow struct {
	ID         int64          `db:"id"`
	StoreID    int64          `db:"store_id"`
	Name       string         `db:"name"`
	Brand      sql.NullString `db:"brand"`
	Size       sql.NullString `db:"size"`
	PriceCents int64          `db:"price_cents"`
	UnitPrice  sql.NullString `db:"unit_price"`
	ProductUrl sql.NullString `db:"product_url"`
	ImageUrl   sql.NullString `db:"image_url"`
	StoreName  string         `db:"store_name"`
	StoreSlug  string         `db:"store_slug"`
}

// freshFromSpecials groups active specials by product name so the same
// item can be lined up across stores. Uncategorized specials are kept
// and filtered by keyword alone.
func (s Service) freshFromSpecials(ctx context.Context, categoryIDs []int64, category string, match func(string) bool, limit int) ([]FreshFoodItem, error) {
	query := `SELECT sp.id, sp.store_id, sp.name, sp.brand, sp.size, sp.price_cents,
		sp.unit_price, sp.product_url, sp.image_url, s.name AS store_name, s.slug AS store_slug
		FROM specials sp
		JOIN stores s ON s.id = sp.store_id
		WHERE sp.valid_to >= ?`
	args := []interface{}{timezone.Today()}
	if len(categoryIDs) > 0 {
		query += ` AND (sp.category_id IN (?) OR sp.category_id IS NULL)`
		args = append(args, categoryIDs)
	}
	query += ` ORDER BY sp.name, sp.price_cents`

	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	var rows []freshSpecialRow
	if err := s.sx.SelectContext(ctx, &rows, query, expanded...); err != nil {
		return nil, err
	}

	var order []string
	groups := make(map[string][]freshSpecialRow)
	for _, row := range rows {
		if !match(row.Name) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(row.Name))
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	var items []FreshFoodItem
	for _, key := range order {
		group := groups[key]

		// Rows arrive price-ascending, so the first row per store is
		// that store's cheapest offer.
		var stores []FreshStorePrice
		seenStores := make(map[int64]bool)
		for _, row := range group {
			if seenStores[row.StoreID] {
				continue
			}
			seenStores[row.StoreID] = true
			stores = append(stores, FreshStorePrice{
				StoreID:    row.StoreID,
				StoreName:  row.StoreName,
				StoreSlug:  row.StoreSlug,
				PriceCents: row.PriceCents,
				Price:      money.FormatCents(row.PriceCents),
				UnitPrice:  nullStr(row.UnitPrice),
				ImageUrl:   nullStr(row.ImageUrl),
				ProductUrl: nullStr(row.ProductUrl),
			})
		}
		if len(stores) == 0 {
			continue
		}

		first := group[0]
		items = append(items, freshItem(first.ID, first.Name, nullStr(first.Brand), nullStr(first.Size), category, stores))
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

type freshProductRow struct {
	ID       int64          `db:"id"`
	Name     string         `db:"name"`
	Brand    sql.NullString `db:"brand"`
	Size     sql.NullString `db:"size"`
	ImageUrl sql.NullString `db:"image_url"`
}

// freshFromProducts builds fresh food items from the catalog with each
// store's latest recorded price.
func (s Service) freshFromProducts(ctx context.Context, categoryIDs []int64, category string, limit int) ([]FreshFoodItem, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}

	// Over-fetch to survive the duplicate-name skip below.
	query, args, err := sqlx.In(
		`SELECT id, name, brand, size, image_url FROM products
		WHERE category_id IN (?) ORDER BY name LIMIT ?`,
		categoryIDs, limit*2)
	if err != nil {
		return nil, err
	}
	var products []freshProductRow
	if err := s.sx.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, err
	}

	var items []FreshFoodItem
	seenNames := make(map[string]bool)
	for _, product := range products {
		key := strings.ToLower(strings.TrimSpace(product.Name))
		if seenNames[key] {
			continue
		}
		seenNames[key] = true

		storeProducts, err := s.qry.ListStoreProductsForProduct(ctx, product.ID)
		if err != nil {
			return nil, err
		}

		var stores []FreshStorePrice
		for _, sp := range storeProducts {
			price, err := s.qry.LatestPriceForStoreProduct(ctx, sp.ID)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return nil, err
			}
			imageUrl := nullStr(sp.ImageUrl)
			if imageUrl == nil {
				imageUrl = nullStr(product.ImageUrl)
			}
			var unitPrice *string
			if price.UnitPriceCents.Valid {
				formatted := money.FormatCents(price.UnitPriceCents.Int64) + "/unit"
				unitPrice = &formatted
			}
			stores = append(stores, FreshStorePrice{
				StoreID:    sp.StoreID,
				StoreName:  sp.StoreName,
				StoreSlug:  sp.StoreSlug,
				PriceCents: price.PriceCents,
				Price:      money.FormatCents(price.PriceCents),
				UnitPrice:  unitPrice,
				ImageUrl:   imageUrl,
				ProductUrl: nullStr(sp.ProductUrl),
			})
		}
		if len(stores) == 0 {
			continue
		}

		items = append(items, freshItem(product.ID, product.Name, nullStr(product.Brand), nullStr(product.Size), category, stores))
		if len(items) >= limit {
			break
		}
	}
	return items, nil
}

func freshItem(id int64, name string, brand, size *string, category string, stores []FreshStorePrice) FreshFoodItem {
	minCents, maxCents := stores[0].PriceCents, stores[0].PriceCents
	cheapest := stores[0].StoreName
	for _, sp := range stores[1:] {
		if sp.PriceCents < minCents {
			minCents = sp.PriceCents
			cheapest = sp.StoreName
		}
		if sp.PriceCents > maxCents {
			maxCents = sp.PriceCents
		}
	}

	sortStoresByPrice(stores)

	item := FreshFoodItem{
		ProductID:          id,
		ProductName:        name,
		Brand:              brand,
		Size:               size,
		Category:           category,
		Stores:             stores,
		CheapestStore:      &cheapest,
		CheapestPriceCents: minCents,
		CheapestPrice:      money.FormatCents(minCents),
	}
	if minCents != maxCents {
		priceRange := fmt.Sprintf("%s - %s", money.FormatCents(minCents), money.FormatCents(maxCents))
		item.PriceRange = &priceRange
	}
	return item
}

func sortStoresByPrice(stores []FreshStorePrice) {
	sort.SliceStable(stores, func(i, j int) bool {
		return stores[i].PriceCents < stores[j].PriceCents
	})
}

// mergeFresh combines catalog and specials items, preferring catalog
// entries when both carry the same product name.
func mergeFresh(fromProducts, fromSpecials []FreshFoodItem, limit int) []FreshFoodItem {
	seen := make(map[string]bool, len(fromProducts))
	merged := make([]FreshFoodItem, 0, len(fromProducts)+len(fromSpecials))
	for _, item := range fromProducts {
		seen[strings.ToLower(strings.TrimSpace(item.ProductName))] = true
		merged = append(merged, item)
	}
	for _, item := range fromSpecials {
		key := strings.ToLower(strings.TrimSpace(item.ProductName))
		if !seen[key] {
			seen[key] = true
			merged = append(merged, item)
		}
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// FreshFoods compares produce and meat staples across stores, drawing
// from both the catalog and current specials. kind narrows the result
// to "produce" or "meat"; empty returns both.
func (s Service) FreshFoods(ctx context.Context, kind string, limit int) (FreshFoodsResult, error) {
	ctx, span := tracer.Start(ctx, "FreshFoods")
	defer span.End()
	span.SetAttributes(attribute.String("kind", kind), attribute.Int("limit", limit))

	result := FreshFoodsResult{
		Produce: []FreshFoodItem{},
		Meat:    []FreshFoodItem{},
	}

	fail := func(err error) (FreshFoodsResult, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return FreshFoodsResult{}, err
	}

	if kind == "" || kind == "produce" {
		ids, err := s.freshCategoryIDs(ctx, produceCategorySlugs, "fruit-veg")
		if err != nil {
			return fail(err)
		}
		fromProducts, err := s.freshFromProducts(ctx, ids, "produce", limit)
		if err != nil {
			return fail(err)
		}
		fromSpecials, err := s.freshFromSpecials(ctx, ids, "produce", isFreshProduce, limit)
		if err != nil {
			return fail(err)
		}
		result.Produce = mergeFresh(fromProducts, fromSpecials, limit)
	}

	if kind == "" || kind == "meat" {
		ids, err := s.freshCategoryIDs(ctx, meatCategorySlugs, "meat-seafood")
		if err != nil {
			return fail(err)
		}
		fromProducts, err := s.freshFromProducts(ctx, ids, "meat", limit)
		if err != nil {
			return fail(err)
		}
		fromSpecials, err := s.freshFromSpecials(ctx, ids, "meat", isFreshMeat, limit)
		if err != nil {
			return fail(err)
		}
		result.Meat = mergeFresh(fromProducts, fromSpecials, limit)
	}

	result.TotalProducts = len(result.Produce) + len(result.Meat)
	if last, err := s.qry.LastScrapedAt(ctx); err == nil && last != "" {
		result.LastUpdated = &last
	}
	return result, nil
}
