package specials

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"trolley-backend/internal/db"
	"trolley-backend/lib/cacheutil"
	"trolley-backend/lib/testutil"
	"trolley-backend/lib/timezone"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setup(t testing.TB) (Service, *db.Queries, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/specials",
		DbSchema: db.Schema,
	})
	return NewService(res.DB, cacheutil.Cache{}), db.New(res.DB), cleanup
}

type offer struct {
	store     int64
	name      string
	brand     string
	cents     int64
	was       int64
	discount  int64
	category  string
	catID     int64
	stockcode string
	validTo   string
	image     string
}

func insertOffer(t testing.TB, qry *db.Queries, o offer) {
	validTo := o.validTo
	if validTo == "" {
		validTo = timezone.Date(timezone.Now().AddDate(0, 0, 6))
	}
	params := db.UpsertSpecialParams{
		StoreID:         o.store,
		Name:            o.name,
		PriceCents:      o.cents,
		DiscountPercent: o.discount,
		ValidFrom:       timezone.Today(),
		ValidTo:         validTo,
		ScrapedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if o.brand != "" {
		params.Brand = sql.NullString{String: o.brand, Valid: true}
	}
	if o.was != 0 {
		params.WasPriceCents = sql.NullInt64{Int64: o.was, Valid: true}
	}
	if o.category != "" {
		params.Category = sql.NullString{String: o.category, Valid: true}
	}
	if o.catID != 0 {
		params.CategoryID = sql.NullInt64{Int64: o.catID, Valid: true}
	}
	if o.stockcode != "" {
		params.StoreProductID = sql.NullString{String: o.stockcode, Valid: true}
	}
	if o.image != "" {
		params.ImageUrl = sql.NullString{String: o.image, Valid: true}
	}
	err := qry.UpsertSpecial(context.Background(), params)
	require.NoError(t, err)
}

func seedStores(t testing.TB, qry *db.Queries) (db.Store, db.Store) {
	woolworths, err := qry.CreateStore(context.Background(), db.CreateStoreParams{Name: "Woolworths", Slug: "woolworths"})
	require.NoError(t, err)
	coles, err := qry.CreateStore(context.Background(), db.CreateStoreParams{Name: "Coles", Slug: "coles"})
	require.NoError(t, err)
	return woolworths, coles
}

func TestListFiltersAndPaging(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Tim Tams", brand: "Arnott's", cents: 250, was: 500, discount: 50, stockcode: "111"})
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Corn Flakes", brand: "Kellogg's", cents: 400, was: 500, discount: 20, stockcode: "222"})
	insertOffer(t, qry, offer{store: coles.ID, name: "Tasty Cheese", cents: 700, was: 1000, discount: 30, stockcode: "333"})
	// expired offers never surface
	insertOffer(t, qry, offer{store: coles.ID, name: "Old Stock", cents: 100, discount: 90, stockcode: "444",
		validTo: timezone.Date(timezone.Now().AddDate(0, 0, -2))})

	all, err := service.List(ctx, ListParams{Page: 1, Limit: 50})
	if err != nil {
		t.Fatal(err)
	}
	require.EqualValues(t, 3, all.Total)
	require.Len(t, all.Items, 3)
	require.False(t, all.HasMore)
	// default sort is steepest discount first
	require.Equal(t, "Tim Tams", all.Items[0].Name)
	require.Equal(t, "$2.50", all.Items[0].Price)
	require.Equal(t, "$5.00", *all.Items[0].WasPrice)

	byStore, err := service.List(ctx, ListParams{Store: "coles", Page: 1, Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 1, byStore.Total)
	require.Equal(t, "Tasty Cheese", byStore.Items[0].Name)

	cheap, err := service.List(ctx, ListParams{MinDiscount: 30, Page: 1, Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 2, cheap.Total)

	byName, err := service.List(ctx, ListParams{Sort: "name", Page: 1, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, "Corn Flakes", byName.Items[0].Name)
	require.True(t, byName.HasMore)

	page2, err := service.List(ctx, ListParams{Sort: "name", Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	require.Equal(t, "Tim Tams", page2.Items[0].Name)
	require.False(t, page2.HasMore)
}

func TestListTextSearch(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, _ := seedStores(t, qry)
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Choc Chip Cookies", brand: "Arnott's", cents: 300, discount: 25, stockcode: "1"})
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Lamington Cake", brand: "Balfours", cents: 450, discount: 10, stockcode: "2"})

	byName, err := service.List(ctx, ListParams{Search: "lamington", Page: 1, Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 1, byName.Total)

	byBrand, err := service.List(ctx, ListParams{Search: "arnott", Page: 1, Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 1, byBrand.Total)
	require.Equal(t, "Choc Chip Cookies", byBrand.Items[0].Name)
}

func TestSmartSearchMapsToCategory(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, _ := seedStores(t, qry)
	dairy, err := qry.CreateCategory(ctx, db.CreateCategoryParams{Name: "Dairy, Eggs & Fridge", Slug: "dairy-eggs-fridge", DisplayOrder: 1})
	require.NoError(t, err)
	milk, err := qry.CreateCategory(ctx, db.CreateCategoryParams{
		Name: "Milk", Slug: "milk", DisplayOrder: 1,
		ParentID: sql.NullInt64{Int64: dairy.ID, Valid: true},
	})
	require.NoError(t, err)

	insertOffer(t, qry, offer{store: woolworths.ID, name: "Lite White 2L", catID: milk.ID, cents: 320, discount: 20, stockcode: "1"})
	// name mentions milk but lives in another aisle
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Milk Chocolate Block", cents: 500, discount: 50, stockcode: "2"})

	result, err := service.List(ctx, ListParams{Search: "milk", Page: 1, Limit: 50})
	if err != nil {
		t.Fatal(err)
	}
	require.EqualValues(t, 1, result.Total)
	require.Equal(t, "Lite White 2L", result.Items[0].Name)

	// parent category id expands to its children
	byParent, err := service.List(ctx, ListParams{CategoryID: dairy.ID, Page: 1, Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 1, byParent.Total)

	// unmapped terms fall back to plain text matching
	text, err := service.List(ctx, ListParams{Search: "chocolate block", Page: 1, Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 1, text.Total)
	require.Equal(t, "Milk Chocolate Block", text.Items[0].Name)
}

func TestListV2Cursor(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, _ := seedStores(t, qry)
	for i := 0; i < 5; i++ {
		insertOffer(t, qry, offer{
			store:     woolworths.ID,
			name:      fmt.Sprintf("Item %d", i),
			cents:     int64(100 + i*50),
			discount:  int64(10 + i*10),
			stockcode: fmt.Sprintf("sku-%d", i),
		})
	}

	first, err := service.ListV2(ctx, ListV2Params{Sort: "discount", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	require.EqualValues(t, 5, first.Total)
	require.Len(t, first.Items, 2)
	require.True(t, first.HasMore)
	require.NotNil(t, first.Cursor)
	require.Equal(t, "Item 4", first.Items[0].Name)
	require.EqualValues(t, 50, first.Items[0].DiscountPercent)

	second, err := service.ListV2(ctx, ListV2Params{Sort: "discount", Limit: 2, Cursor: *first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.Equal(t, "Item 2", second.Items[0].Name)
	require.True(t, second.HasMore)

	third, err := service.ListV2(ctx, ListV2Params{Sort: "discount", Limit: 2, Cursor: *second.Cursor})
	require.NoError(t, err)
	require.Len(t, third.Items, 1)
	require.Equal(t, "Item 0", third.Items[0].Name)
	require.False(t, third.HasMore)
	require.Nil(t, third.Cursor)

	// price ascending keyset
	cheapest, err := service.ListV2(ctx, ListV2Params{Sort: "price", Limit: 3})
	require.NoError(t, err)
	require.Equal(t, "Item 0", cheapest.Items[0].Name)
	rest, err := service.ListV2(ctx, ListV2Params{Sort: "price", Limit: 3, Cursor: *cheapest.Cursor})
	require.NoError(t, err)
	require.Len(t, rest.Items, 2)
	require.Equal(t, "Item 3", rest.Items[0].Name)

	// garbage cursors restart from the top instead of failing
	restart, err := service.ListV2(ctx, ListV2Params{Sort: "discount", Limit: 2, Cursor: "not-a-cursor"})
	require.NoError(t, err)
	require.Equal(t, "Item 4", restart.Items[0].Name)
}

func TestStats(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Half Price Cola", cents: 150, was: 300, discount: 50, stockcode: "1", image: "https://cdn/img.jpg"})
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Small Saver", cents: 450, was: 500, discount: 10, stockcode: "2"})
	insertOffer(t, qry, offer{store: coles.ID, name: "Half Price Chips", cents: 200, was: 400, discount: 55, stockcode: "3"})

	stats, err := service.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.EqualValues(t, 3, stats.TotalSpecials)
	require.EqualValues(t, 2, stats.ByStore["woolworths"])
	require.EqualValues(t, 1, stats.ByStore["coles"])
	require.EqualValues(t, 2, stats.HalfPriceCount)
	require.EqualValues(t, 1, stats.ProductsWithImages)
	require.NotNil(t, stats.LastUpdated)
}

func TestCategoryTree(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, _ := seedStores(t, qry)
	drinks, err := qry.CreateCategory(ctx, db.CreateCategoryParams{Name: "Drinks", Slug: "drinks", DisplayOrder: 1})
	require.NoError(t, err)
	juice, err := qry.CreateCategory(ctx, db.CreateCategoryParams{
		Name: "Juice", Slug: "juice", DisplayOrder: 1,
		ParentID: sql.NullInt64{Int64: drinks.ID, Valid: true},
	})
	require.NoError(t, err)

	insertOffer(t, qry, offer{store: woolworths.ID, name: "Orange Juice", catID: juice.ID, cents: 300, discount: 25, stockcode: "1"})
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Mystery Item", cents: 100, discount: 10, stockcode: "2"})

	tree, err := service.CategoryTree(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, tree.Categories, 1)
	require.Equal(t, "Drinks", tree.Categories[0].Name)
	require.EqualValues(t, 1, tree.Categories[0].Count)
	require.Len(t, tree.Categories[0].Subcategories, 1)
	require.EqualValues(t, 1, tree.Categories[0].Subcategories[0].Count)
	require.EqualValues(t, 1, tree.TotalCategorized)
	require.EqualValues(t, 1, tree.TotalUncategorized)
}

func TestStoreCountsIncludeZero(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, _ := seedStores(t, qry)
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Something", cents: 100, discount: 10, stockcode: "1"})

	counts, err := service.StoreCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	require.EqualValues(t, 1, counts[0].SpecialsCount)
	require.EqualValues(t, 0, counts[1].SpecialsCount)
}

func TestClearExpired(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, _ := seedStores(t, qry)
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Current", cents: 100, discount: 10, stockcode: "1"})
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Expired", cents: 100, discount: 10, stockcode: "2",
		validTo: timezone.Date(timezone.Now().AddDate(0, 0, -1))})

	deleted, err := service.ClearExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	remaining, err := service.List(ctx, ListParams{Page: 1, Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 1, remaining.Total)
	require.Equal(t, "Current", remaining.Items[0].Name)
}

func TestGetSpecialNotFound(t *testing.T) {
	service, _, cleanup := setup(t)
	defer cleanup()

	_, err := service.GetSpecial(context.Background(), 12345)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUpsertReplacesSameOffer(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, _ := seedStores(t, qry)
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Twice Scraped", cents: 500, discount: 20, stockcode: "dup"})
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Twice Scraped", cents: 450, discount: 25, stockcode: "dup"})

	result, err := service.List(ctx, ListParams{Page: 1, Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Total)
	require.EqualValues(t, 450, result.Items[0].PriceCents)
	require.EqualValues(t, 25, result.Items[0].DiscountPercent)
}
