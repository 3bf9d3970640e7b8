package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"trolley-backend/internal/db"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func seedImportStores(t testing.TB, qry *db.Queries) {
	addStore(t, qry, "Woolworths", "woolworths")
	addStore(t, qry, "Coles", "coles")
	addStore(t, qry, "ALDI", "aldi")
}

func TestImportPricesCSV(t *testing.T) {
	var priceHookFired bool
	service, qry, cleanup := setupWithHooks(t, Hooks{
		PricesChanged: func(ctx context.Context) { priceHookFired = true },
	})
	defer cleanup()
	ctx := context.Background()
	seedImportStores(t, qry)

	// the template is the documented input format, so it must import clean
	result := service.ImportPricesCSV(ctx, CSVTemplate())
	require.Empty(t, result.Errors)
	require.Equal(t, 7, result.TotalRows)
	require.Equal(t, 7, result.Imported)
	require.True(t, priceHookFired)

	milk, err := qry.GetProductByName(ctx, "Full Cream Milk 2L")
	require.NoError(t, err)
	woolworths, err := qry.GetStoreBySlug(ctx, "woolworths")
	require.NoError(t, err)
	storeProduct, err := qry.GetStoreProduct(ctx, db.GetStoreProductParams{ProductID: milk.ID, StoreID: woolworths.ID})
	require.NoError(t, err)

	price, err := qry.LatestPriceForStoreProduct(ctx, storeProduct.ID)
	require.NoError(t, err)
	require.EqualValues(t, 450, price.PriceCents)
	require.EqualValues(t, 500, price.WasPriceCents.Int64)
	require.True(t, price.IsSpecial)
	require.Equal(t, "half_price", price.SpecialType.String)
	require.Equal(t, "manual", price.Source)
}

func TestImportPricesCSVErrors(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()
	seedImportStores(t, qry)

	content := "product_name,store_slug,price,was_price,is_special,special_type\n" +
		",woolworths,4.50,,,\n" +
		"Milk,costco,4.50,,,\n" +
		"Milk,woolworths,free,,,\n" +
		"Milk,woolworths,4.50,,,\n"
	result := service.ImportPricesCSV(ctx, content)
	require.Equal(t, 4, result.TotalRows)
	require.Equal(t, 1, result.Imported)
	require.Equal(t, []string{
		"Row 2: missing product_name",
		"Row 3: unknown store: costco",
		"Row 4: invalid price format: free",
	}, result.Errors)

	// header only
	result = service.ImportPricesCSV(ctx, "product_name,store_slug,price\n")
	require.Equal(t, 0, result.TotalRows)
	require.Empty(t, result.Errors)

	result = service.ImportPricesCSV(ctx, "\"unterminated")
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "Invalid CSV")
}

func TestImportPricesJSON(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()
	seedImportStores(t, qry)

	content, err := json.Marshal(JSONTemplate())
	require.NoError(t, err)
	result := service.ImportPricesJSON(ctx, content)
	require.Empty(t, result.Errors)
	require.Equal(t, 3, result.TotalRows)
	require.Equal(t, 3, result.Imported)

	// a bare object is accepted as a one-row import
	result = service.ImportPricesJSON(ctx, []byte(`{"product_name":"Sourdough Loaf","store_slug":"coles","price":"5.50","is_special":1}`))
	require.Empty(t, result.Errors)
	require.Equal(t, 1, result.Imported)

	bread, err := qry.GetProductByName(ctx, "Sourdough Loaf")
	require.NoError(t, err)
	coles, err := qry.GetStoreBySlug(ctx, "coles")
	require.NoError(t, err)
	storeProduct, err := qry.GetStoreProduct(ctx, db.GetStoreProductParams{ProductID: bread.ID, StoreID: coles.ID})
	require.NoError(t, err)
	price, err := qry.LatestPriceForStoreProduct(ctx, storeProduct.ID)
	require.NoError(t, err)
	require.EqualValues(t, 550, price.PriceCents)
	require.True(t, price.IsSpecial)

	result = service.ImportPricesJSON(ctx, []byte(`[{"store_slug":"coles","price":"2.00"}]`))
	require.Equal(t, []string{"Item 0: missing product_name"}, result.Errors)
	require.Equal(t, 0, result.Imported)

	result = service.ImportPricesJSON(ctx, []byte(`not json`))
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "Invalid JSON")
	require.Equal(t, 0, result.TotalRows)
}

func TestTruthy(t *testing.T) {
	require.True(t, truthyString("true"))
	require.True(t, truthyString("Yes"))
	require.True(t, truthyString("1"))
	require.False(t, truthyString("false"))
	require.False(t, truthyString(""))

	require.True(t, truthy(true))
	require.True(t, truthy("yes"))
	require.True(t, truthy(1.0))
	require.False(t, truthy(0.0))
	require.False(t, truthy(nil))
}

func TestTemplates(t *testing.T) {
	rows := JSONTemplate()
	require.Len(t, rows, 3)
	require.Equal(t, "Full Cream Milk 2L", rows[0].ProductName)
	require.NotNil(t, rows[0].WasPrice)
	require.True(t, rows[0].IsSpecial)
	require.Nil(t, rows[1].WasPrice)

	// every store slug in the CSV template must be a real seed store
	require.Contains(t, CSVTemplate(), "woolworths")
	require.Contains(t, CSVTemplate(), "coles")
	require.Contains(t, CSVTemplate(), "aldi")
}
