package staples

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"trolley-backend/internal/db"
	"trolley-backend/lib/testutil"
	"trolley-backend/lib/timezone"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setup(t testing.TB) (Service, *db.Queries, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/staples",
		DbSchema: db.Schema,
	})
	return NewService(res.DB), db.New(res.DB), cleanup
}

func seedStores(t testing.TB, qry *db.Queries) (db.Store, db.Store) {
	woolworths, err := qry.CreateStore(context.Background(), db.CreateStoreParams{Name: "Woolworths", Slug: "woolworths"})
	require.NoError(t, err)
	coles, err := qry.CreateStore(context.Background(), db.CreateStoreParams{Name: "Coles", Slug: "coles"})
	require.NoError(t, err)
	return woolworths, coles
}

func addCategory(t testing.TB, qry *db.Queries, name, slug string) db.Category {
	category, err := qry.CreateCategory(context.Background(), db.CreateCategoryParams{Name: name, Slug: slug})
	require.NoError(t, err)
	return category
}

func addProduct(t testing.TB, qry *db.Queries, name string, categoryID int64) db.Product {
	params := db.CreateProductParams{Name: name}
	if categoryID != 0 {
		params.CategoryID = sql.NullInt64{Int64: categoryID, Valid: true}
	}
	product, err := qry.CreateProduct(context.Background(), params)
	require.NoError(t, err)
	return product
}

func addPrice(t testing.TB, qry *db.Queries, productID, storeID, cents int64) {
	ctx := context.Background()
	storeProduct, err := qry.GetStoreProduct(ctx, db.GetStoreProductParams{ProductID: productID, StoreID: storeID})
	if errors.Is(err, sql.ErrNoRows) {
		storeProduct, err = qry.CreateStoreProduct(ctx, db.CreateStoreProductParams{ProductID: productID, StoreID: storeID})
	}
	require.NoError(t, err)
	_, err = qry.InsertPrice(ctx, db.InsertPriceParams{
		StoreProductID: storeProduct.ID,
		PriceCents:     cents,
		Source:         "scraper",
		RecordedAt:     time.Now().UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)
}

type offer struct {
	store int64
	name  string
	cents int64
	catID int64
}

func insertOffer(t testing.TB, qry *db.Queries, o offer) int64 {
	params := db.UpsertSpecialParams{
		StoreID:    o.store,
		Name:       o.name,
		PriceCents: o.cents,
		ValidFrom:  timezone.Today(),
		ValidTo:    timezone.Date(timezone.Now().AddDate(0, 0, 6)),
		ScrapedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if o.catID != 0 {
		params.CategoryID = sql.NullInt64{Int64: o.catID, Valid: true}
	}
	err := qry.UpsertSpecial(context.Background(), params)
	require.NoError(t, err)

	store, err := qry.GetStore(context.Background(), o.store)
	require.NoError(t, err)
	specials, err := qry.ListActiveSpecialsForStore(context.Background(), db.ListActiveSpecialsForStoreParams{
		ValidTo: timezone.Today(),
		Slug:    store.Slug,
	})
	require.NoError(t, err)
	for _, sp := range specials {
		if sp.Name == o.name {
			return sp.ID
		}
	}
	t.Fatalf("inserted special %q not found", o.name)
	return 0
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		name string
		slug string
		ok   bool
	}{
		{"Golden Delicious Apples", "fresh-fruit", true},
		{"Truss Tomatoes", "fresh-vegetables", true},
		{"Chicken Thigh Fillets", "fresh-meat", true},
		{"Atlantic Salmon Portions", "seafood", true},
		// "tea " carries a trailing space so steak survives the tea exclusion
		{"Porterhouse Steak", "fresh-meat", true},
		{"Frozen Peas", "", false},
		{"Steak Seasoning", "", false},
		{"Tim Tams", "", false},
	}
	for _, tc := range cases {
		slug, _, ok := categorizeName(tc.name)
		require.Equal(t, tc.ok, ok, tc.name)
		require.Equal(t, tc.slug, slug, tc.name)
	}

	// a category id match wins without any keyword in the name
	ids := stapleIDSets{"fresh-fruit": {7: true}}
	slug, display, ok := categorizeOffer("Mystery Box", 7, ids)
	require.True(t, ok)
	require.Equal(t, "fresh-fruit", slug)
	require.Equal(t, "Fresh Fruit", display)
}

func TestListMergesSpecialsAndEveryday(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	fruitVeg := addCategory(t, qry, "Fruit & Veg", "fruit-veg")

	bananas := addProduct(t, qry, "Bananas", fruitVeg.ID)
	addPrice(t, qry, bananas.ID, woolworths.ID, 390)
	addPrice(t, qry, bananas.ID, coles.ID, 420)

	// the special price replaces the everyday price for the same store
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Bananas", cents: 250})
	insertOffer(t, qry, offer{store: coles.ID, name: "Royal Gala Apples", cents: 350})
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Frozen Chicken Schnitzel", cents: 800})

	result, err := service.List(ctx, ListParams{Sort: "name", Limit: 50})
	if err != nil {
		t.Fatal(err)
	}
	require.EqualValues(t, 2, result.Total)
	require.False(t, result.HasMore)
	require.Equal(t, []string{"fresh-fruit"}, result.Categories)

	require.Equal(t, "Bananas", result.Products[0].Name)
	require.Equal(t, "Royal Gala Apples", result.Products[1].Name)

	merged := result.Products[0]
	require.Len(t, merged.Prices, 2)
	require.EqualValues(t, 250, merged.BestPrice.PriceCents)
	require.True(t, merged.BestPrice.IsSpecial)
	require.Equal(t, "woolworths", merged.BestPrice.StoreSlug)
	require.Equal(t, "$2.50 - $4.20", *merged.PriceRange)
	require.EqualValues(t, 170, *merged.SavingsCents)

	require.Nil(t, result.Products[1].PriceRange)
	require.Nil(t, result.Products[1].SavingsCents)

	bySavings, err := service.List(ctx, ListParams{Sort: "savings", Limit: 50})
	require.NoError(t, err)
	require.Equal(t, "Bananas", bySavings.Products[0].Name)
}

func TestListFilters(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	fruitVeg := addCategory(t, qry, "Fruit & Veg", "fruit-veg")

	bananas := addProduct(t, qry, "Bananas", fruitVeg.ID)
	addPrice(t, qry, bananas.ID, woolworths.ID, 390)
	addPrice(t, qry, bananas.ID, coles.ID, 420)
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Chicken Breast Fillets", cents: 1100})

	meatOnly, err := service.List(ctx, ListParams{Category: "fresh-meat", Sort: "name", Limit: 50})
	if err != nil {
		t.Fatal(err)
	}
	require.EqualValues(t, 1, meatOnly.Total)
	require.Equal(t, "Chicken Breast Fillets", meatOnly.Products[0].Name)
	require.Equal(t, []string{"fresh-meat"}, meatOnly.Categories)

	colesOnly, err := service.List(ctx, ListParams{Store: "coles", Sort: "name", Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 1, colesOnly.Total)
	require.Equal(t, "Bananas", colesOnly.Products[0].Name)
	require.Len(t, colesOnly.Products[0].Prices, 1)
	require.EqualValues(t, 420, colesOnly.Products[0].BestPrice.PriceCents)

	// unknown store slugs fall back to no store filter
	unknownStore, err := service.List(ctx, ListParams{Store: "aldi", Sort: "name", Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 2, unknownStore.Total)

	searched, err := service.List(ctx, ListParams{Search: "banana", Sort: "name", Limit: 50})
	require.NoError(t, err)
	require.EqualValues(t, 1, searched.Total)
	require.Equal(t, "Bananas", searched.Products[0].Name)
}

func TestListPagination(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Bananas", cents: 250})
	insertOffer(t, qry, offer{store: coles.ID, name: "Royal Gala Apples", cents: 350})
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Chicken Breast Fillets", cents: 1100})

	first, err := service.List(ctx, ListParams{Sort: "name", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	require.EqualValues(t, 3, first.Total)
	require.Len(t, first.Products, 2)
	require.True(t, first.HasMore)
	require.Equal(t, "Bananas", first.Products[0].Name)
	require.Equal(t, "Chicken Breast Fillets", first.Products[1].Name)

	second, err := service.List(ctx, ListParams{Sort: "name", Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, second.Products, 1)
	require.False(t, second.HasMore)
	require.Equal(t, "Royal Gala Apples", second.Products[0].Name)
}

func TestCategoriesCounts(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	fruitVeg := addCategory(t, qry, "Fruit & Veg", "fruit-veg")
	meatSeafood := addCategory(t, qry, "Poultry, Meat & Seafood", "meat-seafood")

	bananas := addProduct(t, qry, "Bananas", fruitVeg.ID)
	addPrice(t, qry, bananas.ID, woolworths.ID, 390)
	// products without a recorded price are not counted
	addProduct(t, qry, "Dragonfruit", fruitVeg.ID)

	insertOffer(t, qry, offer{store: coles.ID, name: "Royal Gala Apples", cents: 350, catID: fruitVeg.ID})
	insertOffer(t, qry, offer{store: coles.ID, name: "Lamb Chops", cents: 1500, catID: meatSeafood.ID})
	// uncategorized specials only surface in the listing, not the counts
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Mango Tray", cents: 900})

	result, err := service.Categories(ctx)
	if err != nil {
		t.Fatal(err)
	}
	require.EqualValues(t, 3, result.TotalProducts)
	require.Len(t, result.Categories, 2)
	require.Equal(t, "fresh-fruit", result.Categories[0].Slug)
	require.EqualValues(t, 2, result.Categories[0].Count)
	require.Equal(t, "🍎", result.Categories[0].Icon)
	require.Equal(t, "fresh-meat", result.Categories[1].Slug)
	require.EqualValues(t, 1, result.Categories[1].Count)
}

func TestGetStaple(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, _ := seedStores(t, qry)
	bananasID := insertOffer(t, qry, offer{store: woolworths.ID, name: "Bananas", cents: 250})
	timTamsID := insertOffer(t, qry, offer{store: woolworths.ID, name: "Tim Tams", cents: 300})

	bananas, err := service.Get(ctx, bananasID)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "fresh-fruit", bananas.Category)
	require.Equal(t, "Fresh Fruit", bananas.CategoryDisplay)
	require.Len(t, bananas.Prices, 1)
	require.Equal(t, "$2.50", bananas.BestPrice.Price)
	require.True(t, bananas.BestPrice.IsSpecial)

	// anything outside the staple buckets still resolves
	timTams, err := service.Get(ctx, timTamsID)
	require.NoError(t, err)
	require.Equal(t, "other", timTams.Category)
	require.Equal(t, "Other", timTams.CategoryDisplay)

	_, err = service.Get(ctx, 99999)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestBasketCompare(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	milkID := insertOffer(t, qry, offer{store: woolworths.ID, name: "Pauls Full Cream Milk", cents: 500})
	cheeseID := insertOffer(t, qry, offer{store: coles.ID, name: "Bega Tasty Cheese", cents: 450})

	result, err := service.BasketCompare(ctx, []BasketItem{
		{ProductID: milkID, ProductName: "Milk", Quantity: 2},
		{ProductID: cheeseID, ProductName: "Cheese", Quantity: 0},
		{ProductID: 99999, ProductName: "Ghost", Quantity: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, result.BasketTotals, 2)

	// Coles sorts first on total even though each store found one item
	require.Equal(t, "coles", result.BasketTotals[0].StoreSlug)
	require.EqualValues(t, 450, result.BasketTotals[0].TotalCents)
	require.EqualValues(t, 1, result.BasketTotals[0].ItemsAvailable)
	require.Equal(t, []string{"Pauls Full Cream Milk", "Ghost"}, result.BasketTotals[0].ItemsMissing)

	require.Equal(t, "woolworths", result.BasketTotals[1].StoreSlug)
	require.EqualValues(t, 1000, result.BasketTotals[1].TotalCents)
	require.Equal(t, "$10.00", result.BasketTotals[1].Total)
	require.Equal(t, []string{"Bega Tasty Cheese", "Ghost"}, result.BasketTotals[1].ItemsMissing)

	require.Equal(t, "Coles", *result.BestStore)
	require.EqualValues(t, 450, *result.BestTotalCents)
	require.Equal(t, "Save $5.50", *result.SavingsVsWorst)
	require.EqualValues(t, 550, *result.SavingsCents)
}

func TestBasketCompareAllMissing(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()

	seedStores(t, qry)
	result, err := service.BasketCompare(context.Background(), []BasketItem{
		{ProductID: 99999, ProductName: "Ghost", Quantity: 1},
	})
	require.NoError(t, err)
	require.Len(t, result.BasketTotals, 2)
	for _, total := range result.BasketTotals {
		require.EqualValues(t, 0, total.TotalCents)
		require.EqualValues(t, 0, total.ItemsAvailable)
		require.Equal(t, []string{"Ghost"}, total.ItemsMissing)
	}
	require.Nil(t, result.BestStore)
	require.Nil(t, result.SavingsVsWorst)
}
