package catalog

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"trolley-backend/internal/db"
	"trolley-backend/lib/cacheutil"
	"trolley-backend/lib/testutil"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setup(t testing.TB) (Service, *db.Queries, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/catalog",
		DbSchema: db.Schema,
	})
	service := NewService(res.DB, cacheutil.Cache{})
	return service, db.New(res.DB), cleanup
}

func TestSeedIsIdempotent(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/catalog",
		DbSchema: db.Schema,
	})
	defer cleanup()
	qry := db.New(res.DB)
	ctx := context.Background()

	err := Seed(ctx, res.DB)
	if err != nil {
		t.Fatal(err)
	}
	err = Seed(ctx, res.DB)
	if err != nil {
		t.Fatal(err)
	}

	stores, err := qry.ListStores(ctx)
	require.NoError(t, err)
	require.Len(t, stores, 4)
	require.Equal(t, "woolworths", stores[0].Slug)

	parents, err := qry.ListParentCategories(ctx)
	require.NoError(t, err)
	require.Len(t, parents, 17)
	require.Equal(t, "Fruit & Veg", parents[0].Name)

	all, err := qry.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 125)

	key, err := qry.ListKeyProducts(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, key)
	for _, p := range key {
		require.True(t, p.IsKeyProduct)
	}
}

func TestListProductsFilters(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	category, err := qry.CreateCategory(ctx, db.CreateCategoryParams{Name: "Milk", Slug: "milk", DisplayOrder: 1})
	require.NoError(t, err)

	_, err = qry.CreateProduct(ctx, db.CreateProductParams{
		Name:       "Full Cream Milk",
		CategoryID: sql.NullInt64{Int64: category.ID, Valid: true},
	})
	require.NoError(t, err)
	_, err = qry.CreateProduct(ctx, db.CreateProductParams{
		Name:         "White Bread",
		IsKeyProduct: true,
	})
	require.NoError(t, err)

	all, err := service.ListProducts(ctx, ListProductsParams{Limit: 50})
	require.NoError(t, err)
	require.Len(t, all, 2)

	milk, err := service.ListProducts(ctx, ListProductsParams{Limit: 50, CategoryID: category.ID})
	require.NoError(t, err)
	require.Len(t, milk, 1)
	require.Equal(t, "Full Cream Milk", milk[0].Name)

	key, err := service.ListProducts(ctx, ListProductsParams{Limit: 50, KeyOnly: true})
	require.NoError(t, err)
	require.Len(t, key, 1)
	require.Equal(t, "White Bread", key[0].Name)
}

func TestSearchProducts(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	_, err := qry.CreateProduct(ctx, db.CreateProductParams{
		Name:  "Tasty Cheese Block",
		Brand: sql.NullString{String: "Bega", Valid: true},
	})
	require.NoError(t, err)
	_, err = qry.CreateProduct(ctx, db.CreateProductParams{Name: "Greek Yoghurt"})
	require.NoError(t, err)

	byName, err := service.SearchProducts(ctx, "cheese", 20)
	require.NoError(t, err)
	require.Len(t, byName, 1)

	byBrand, err := service.SearchProducts(ctx, "bega", 20)
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	require.Equal(t, "Tasty Cheese Block", byBrand[0].Name)

	none, err := service.SearchProducts(ctx, "vegemite", 20)
	require.NoError(t, err)
	require.Empty(t, none)
}

// seeds one product carried by two stores with a current price each,
// plus one stale price that must not surface.
func seedPricedProduct(t testing.TB, ctx context.Context, qry *db.Queries) db.Product {
	woolworths, err := qry.CreateStore(ctx, db.CreateStoreParams{Name: "Woolworths", Slug: "woolworths"})
	require.NoError(t, err)
	coles, err := qry.CreateStore(ctx, db.CreateStoreParams{Name: "Coles", Slug: "coles"})
	require.NoError(t, err)

	product, err := qry.CreateProduct(ctx, db.CreateProductParams{Name: "Full Cream Milk"})
	require.NoError(t, err)

	now := time.Now().UTC()
	for i, store := range []db.Store{woolworths, coles} {
		sp, err := qry.CreateStoreProduct(ctx, db.CreateStoreProductParams{
			ProductID: product.ID,
			StoreID:   store.ID,
		})
		require.NoError(t, err)

		// an old observation that should lose to the fresh one
		_, err = qry.InsertPrice(ctx, db.InsertPriceParams{
			StoreProductID: sp.ID,
			PriceCents:     900,
			Source:         db.SourceImported,
			RecordedAt:     now.Add(-48 * time.Hour).Format(time.RFC3339),
		})
		require.NoError(t, err)

		_, err = qry.InsertPrice(ctx, db.InsertPriceParams{
			StoreProductID: sp.ID,
			PriceCents:     int64(500 + i*100),
			IsSpecial:      i == 1,
			Source:         db.SourceImported,
			RecordedAt:     now.Format(time.RFC3339),
		})
		require.NoError(t, err)
	}
	return product
}

func TestListProductsWithPrices(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	product := seedPricedProduct(t, ctx, qry)

	result, err := service.ListProductsWithPrices(ctx, WithPricesParams{Limit: 50})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Equal(t, product.ID, result[0].ID)
	require.Len(t, result[0].Prices, 2)

	byStore := map[string]StorePriceInfo{}
	for _, p := range result[0].Prices {
		byStore[p.StoreSlug] = p
	}
	require.Equal(t, int64(500), byStore["woolworths"].PriceCents)
	require.Equal(t, "$5.00", byStore["woolworths"].Price)
	require.Equal(t, int64(600), byStore["coles"].PriceCents)
	require.True(t, byStore["coles"].IsSpecial)
}

func TestListProductsWithPricesSpecialsOnly(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	seedPricedProduct(t, ctx, qry)
	_, err := qry.CreateProduct(ctx, db.CreateProductParams{Name: "Unpriced Widget"})
	require.NoError(t, err)

	result, err := service.ListProductsWithPrices(ctx, WithPricesParams{Limit: 50, SpecialsOnly: true})
	require.NoError(t, err)
	require.Len(t, result, 1)
	require.Len(t, result[0].Prices, 1)
	require.Equal(t, "coles", result[0].Prices[0].StoreSlug)
}

func TestCreateAndGetProduct(t *testing.T) {
	service, _, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	created, err := service.CreateProduct(ctx, CreateProductParams{
		Name:  "Vegemite",
		Brand: "Bega",
		Size:  "380g",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := service.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Vegemite", got.Name)
	require.Equal(t, "Bega", *got.Brand)
	require.Equal(t, "380g", *got.Size)

	_, err = service.GetProduct(ctx, 99999)
	require.ErrorIs(t, err, sql.ErrNoRows)
}
