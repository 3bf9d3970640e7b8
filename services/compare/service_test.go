package compare

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
		Name:     "services/compare",
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

func addProduct(t testing.TB, qry *db.Queries, name, brand, size string, categoryID int64) db.Product {
	params := db.CreateProductParams{Name: name}
	if brand != "" {
		params.Brand = sql.NullString{String: brand, Valid: true}
	}
	if size != "" {
		params.Size = sql.NullString{String: size, Valid: true}
	}
	if categoryID != 0 {
		params.CategoryID = sql.NullInt64{Int64: categoryID, Valid: true}
	}
	product, err := qry.CreateProduct(context.Background(), params)
	require.NoError(t, err)
	return product
}

// addPrice links a product to a store and records a price observation.
func addPrice(t testing.TB, qry *db.Queries, productID, storeID, cents int64, recordedAt string) {
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
		RecordedAt:     recordedAt,
	})
	require.NoError(t, err)
}

type offer struct {
	store    int64
	name     string
	brand    string
	size     string
	cents    int64
	discount int64
	catID    int64
	validTo  string
}

func insertOffer(t testing.TB, qry *db.Queries, o offer) int64 {
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
	if o.size != "" {
		params.Size = sql.NullString{String: o.size, Valid: true}
	}
	if o.catID != 0 {
		params.CategoryID = sql.NullInt64{Int64: o.catID, Valid: true}
	}
	err := qry.UpsertSpecial(context.Background(), params)
	require.NoError(t, err)

	// upsert does not return the row, so look it back up
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

func TestCompareProductAcrossStores(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	milk := addProduct(t, qry, "Full Cream Milk", "Dairy Farmers", "2L", 0)

	// stale observation must lose to the fresh one
	addPrice(t, qry, milk.ID, woolworths.ID, 900, "2025-01-01T00:00:00Z")
	addPrice(t, qry, milk.ID, woolworths.ID, 450, "2025-06-01T00:00:00Z")
	addPrice(t, qry, milk.ID, coles.ID, 520, "2025-06-01T00:00:00Z")

	comparison, err := service.CompareProduct(ctx, milk.ID)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Full Cream Milk", comparison.ProductName)
	require.Len(t, comparison.Stores, 2)
	require.Equal(t, "Woolworths", *comparison.CheapestStore)
	require.EqualValues(t, 70, *comparison.PriceDifferenceCents)

	for _, sp := range comparison.Stores {
		switch sp.StoreSlug {
		case "woolworths":
			require.EqualValues(t, 450, sp.PriceCents)
			require.Equal(t, "$4.50", sp.Price)
			require.Nil(t, sp.SavingsCents)
		case "coles":
			require.EqualValues(t, 520, sp.PriceCents)
			require.EqualValues(t, 70, *sp.SavingsCents)
		default:
			t.Fatalf("unexpected store %q", sp.StoreSlug)
		}
	}
}

func TestCompareProductNotFound(t *testing.T) {
	service, _, cleanup := setup(t)
	defer cleanup()

	_, err := service.CompareProduct(context.Background(), 99999)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCompareBasket(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	milk := addProduct(t, qry, "Full Cream Milk", "", "", 0)
	bread := addProduct(t, qry, "White Bread", "", "", 0)

	// Woolworths stocks the whole basket, Coles is missing the bread.
	// Coles' lower total must not win with an incomplete basket.
	addPrice(t, qry, milk.ID, woolworths.ID, 450, "2025-06-01T00:00:00Z")
	addPrice(t, qry, bread.ID, woolworths.ID, 300, "2025-06-01T00:00:00Z")
	addPrice(t, qry, milk.ID, coles.ID, 400, "2025-06-01T00:00:00Z")

	comparison, err := service.CompareBasket(ctx, []int64{milk.ID, bread.ID})
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, 2, comparison.BasketSize)
	require.Equal(t, "woolworths", comparison.CheapestStore)
	require.EqualValues(t, 750, comparison.CheapestTotalCents)
	require.Equal(t, "$7.50", comparison.CheapestTotal)

	wow := comparison.StoreTotals["woolworths"]
	require.Equal(t, 2, wow.ItemsFound)
	require.Empty(t, wow.ItemsMissing)

	col := comparison.StoreTotals["coles"]
	require.Equal(t, 1, col.ItemsFound)
	require.Equal(t, []string{"White Bread"}, col.ItemsMissing)
	require.EqualValues(t, 400, col.TotalCents)
}

func TestFreshFoods(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	produce, err := qry.CreateCategory(ctx, db.CreateCategoryParams{Name: "Fruit & Veg", Slug: "fruit-veg"})
	require.NoError(t, err)

	bananas := addProduct(t, qry, "Bananas", "", "1kg", produce.ID)
	addPrice(t, qry, bananas.ID, woolworths.ID, 390, "2025-06-01T00:00:00Z")
	addPrice(t, qry, bananas.ID, coles.ID, 420, "2025-06-01T00:00:00Z")

	// uncategorized specials join via keyword matching
	insertOffer(t, qry, offer{store: coles.ID, name: "Royal Gala Apples", cents: 350, discount: 30})
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Chicken Breast Fillets", cents: 1100, discount: 15})
	// processed items stay out even when a keyword matches
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Frozen Chicken Schnitzel", cents: 800, discount: 20})

	result, err := service.FreshFoods(ctx, "", 50)
	if err != nil {
		t.Fatal(err)
	}

	produceNames := make([]string, 0, len(result.Produce))
	for _, item := range result.Produce {
		produceNames = append(produceNames, item.ProductName)
	}
	require.Contains(t, produceNames, "Bananas")
	require.Contains(t, produceNames, "Royal Gala Apples")

	meatNames := make([]string, 0, len(result.Meat))
	for _, item := range result.Meat {
		meatNames = append(meatNames, item.ProductName)
	}
	require.Contains(t, meatNames, "Chicken Breast Fillets")
	require.NotContains(t, meatNames, "Frozen Chicken Schnitzel")
	require.Equal(t, len(result.Produce)+len(result.Meat), result.TotalProducts)

	// bananas is carried by both stores, so it compares with a range
	for _, item := range result.Produce {
		if item.ProductName != "Bananas" {
			continue
		}
		require.Len(t, item.Stores, 2)
		require.Equal(t, "Woolworths", *item.CheapestStore)
		require.Equal(t, "$3.90", item.CheapestPrice)
		require.Equal(t, "$3.90 - $4.20", *item.PriceRange)
	}

	produceOnly, err := service.FreshFoods(ctx, "produce", 50)
	require.NoError(t, err)
	require.NotEmpty(t, produceOnly.Produce)
	require.Empty(t, produceOnly.Meat)
}

func TestTypeSuggestions(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	addProduct(t, qry, "Dairy Farmers Full Cream Milk 2L", "Dairy Farmers", "2L", 0)
	addProduct(t, qry, "Pauls Full Cream Milk 2L", "Pauls", "2L", 0)
	addProduct(t, qry, "A2 Full Cream Milk 1L", "A2", "1L", 0)

	suggestions, err := service.TypeSuggestions(ctx, "milk", 0, 20)
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, suggestions, 2)
	// the 2L type is carried by two brands and ranks first
	require.Equal(t, "Full Cream Milk 2L", suggestions[0].ProductType)
	require.Equal(t, "2L", *suggestions[0].Size)
	require.Equal(t, 2, suggestions[0].BrandCount)
	require.Equal(t, 1, suggestions[1].BrandCount)
}

func TestCompareTypeRanksBrands(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	dairyFarmers := addProduct(t, qry, "Dairy Farmers Full Cream Milk 2L", "Dairy Farmers", "2L", 0)
	pauls := addProduct(t, qry, "Pauls Full Cream Milk 2L", "Pauls", "2L", 0)
	// same size but a different type must stay out
	choc := addProduct(t, qry, "Chocolate Flavoured Milkshake 2L", "OAK", "2L", 0)

	addPrice(t, qry, dairyFarmers.ID, woolworths.ID, 520, "2025-06-01T00:00:00Z")
	addPrice(t, qry, dairyFarmers.ID, coles.ID, 540, "2025-06-01T00:00:00Z")
	addPrice(t, qry, pauls.ID, woolworths.ID, 480, "2025-06-01T00:00:00Z")
	addPrice(t, qry, choc.ID, coles.ID, 300, "2025-06-01T00:00:00Z")

	comparison, err := service.CompareType(ctx, dairyFarmers.ID)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Full Cream Milk 2L", comparison.ProductType)
	require.Len(t, comparison.Brands, 2)
	require.Equal(t, "Pauls", *comparison.Brands[0].Brand)
	require.EqualValues(t, 480, comparison.Brands[0].CheapestPriceCents)
	require.Equal(t, "Pauls", *comparison.CheapestBrand)
	require.Equal(t, "Woolworths", *comparison.CheapestStore)
	require.Equal(t, 3, comparison.TotalOptions)
}

func TestBrandMatchGroupsAcrossStores(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Cadbury Dairy Milk", brand: "Cadbury", size: "180g", cents: 500, discount: 50})
	insertOffer(t, qry, offer{store: coles.ID, name: "Cadbury Dairy Milk", brand: "Cadbury", size: "180g", cents: 450, discount: 55})
	// single-store offers have nothing to compare against
	insertOffer(t, qry, offer{store: woolworths.ID, name: "Cadbury Twirl", brand: "Cadbury", size: "39g", cents: 120, discount: 40})

	results, err := service.BrandMatch(ctx, "cadbury")
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, results, 1)
	require.Equal(t, "Cadbury Dairy Milk", results[0].ProductName)
	require.Len(t, results[0].Stores, 2)
	require.Equal(t, "Coles", *results[0].CheapestStore)
	require.EqualValues(t, 50, *results[0].PriceSpreadCents)
	require.Equal(t, "$0.50", *results[0].SavingsPotential)
}

func TestTypeMatchFindsOtherBrands(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	refID := insertOffer(t, qry, offer{store: woolworths.ID, name: "Pauls Full Cream Milk", brand: "Pauls", size: "2L", cents: 500, discount: 20})
	insertOffer(t, qry, offer{store: coles.ID, name: "Dairy Farmers Full Cream Milk", brand: "Dairy Farmers", size: "2L", cents: 450, discount: 25})
	insertOffer(t, qry, offer{store: coles.ID, name: "Choc Chip Cookies", brand: "Arnott's", size: "2L", cents: 300, discount: 30})

	result, err := service.TypeMatch(ctx, refID)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Full Cream Milk", result.ProductType)
	require.Len(t, result.SimilarProducts, 1)
	require.Equal(t, "Coles", result.SimilarProducts[0].StoreName)
	require.EqualValues(t, 450, result.CheapestPriceCents)
	require.NotEqual(t, refID, result.CheapestSpecialID)
	require.Equal(t, 2, result.TotalOptions)
}

func TestBrandProducts(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	refID := insertOffer(t, qry, offer{store: woolworths.ID, name: "Cadbury Dairy Milk", brand: "Cadbury", size: "180g", cents: 500, discount: 50})
	insertOffer(t, qry, offer{store: coles.ID, name: "Cadbury Twirl", brand: "cadbury", size: "39g", cents: 120, discount: 40})
	insertOffer(t, qry, offer{store: coles.ID, name: "Tim Tams", brand: "Arnott's", size: "200g", cents: 250, discount: 50})

	result, err := service.BrandProducts(ctx, refID)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Cadbury", result.Brand)
	require.Len(t, result.BrandProducts, 1)
	require.Equal(t, "Cadbury Twirl", result.BrandProducts[0].Name)
	require.EqualValues(t, 120, result.CheapestPriceCents)
	require.Equal(t, 2, result.TotalProducts)
	require.Equal(t, []string{"Coles", "Woolworths"}, result.StoresWithBrand)
}

func TestBrandProductsWithoutBrand(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, _ := seedStores(t, qry)
	// single short word yields no brand guess
	refID := insertOffer(t, qry, offer{store: woolworths.ID, name: "Eggs", cents: 600, discount: 10})

	result, err := service.BrandProducts(ctx, refID)
	require.NoError(t, err)
	require.Equal(t, "Unknown", result.Brand)
	require.Empty(t, result.BrandProducts)
	require.Equal(t, 1, result.TotalProducts)
	require.Equal(t, []string{"Woolworths"}, result.StoresWithBrand)
}
