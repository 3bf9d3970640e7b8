package history

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"trolley-backend/internal/db"
	"trolley-backend/lib/testutil"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setup(t testing.TB) (Service, *db.Queries, func()) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/history",
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

func addProduct(t testing.TB, qry *db.Queries, name, brand string) db.Product {
	params := db.CreateProductParams{Name: name}
	if brand != "" {
		params.Brand = sql.NullString{String: brand, Valid: true}
	}
	product, err := qry.CreateProduct(context.Background(), params)
	require.NoError(t, err)
	return product
}

func addPriceAt(t testing.TB, qry *db.Queries, productID, storeID, cents int64, at time.Time, special bool) {
	ctx := context.Background()
	storeProduct, err := qry.GetStoreProduct(ctx, db.GetStoreProductParams{ProductID: productID, StoreID: storeID})
	if errors.Is(err, sql.ErrNoRows) {
		storeProduct, err = qry.CreateStoreProduct(ctx, db.CreateStoreProductParams{ProductID: productID, StoreID: storeID})
	}
	require.NoError(t, err)
	_, err = qry.InsertPrice(ctx, db.InsertPriceParams{
		StoreProductID: storeProduct.ID,
		PriceCents:     cents,
		IsSpecial:      special,
		Source:         "scraper",
		RecordedAt:     at.UTC().Format(time.RFC3339),
	})
	require.NoError(t, err)
}

// noon keeps observations clear of date boundaries when tests shift
// them by whole days and hours.
func noon() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).Add(12 * time.Hour)
}

func TestPriceHistory(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	milk := addProduct(t, qry, "Full Cream Milk", "Dairy Farmers")

	addPriceAt(t, qry, milk.ID, woolworths.ID, 500, noon().AddDate(0, 0, -10), true)
	addPriceAt(t, qry, milk.ID, woolworths.ID, 450, noon().AddDate(0, 0, -5), false)
	// ancient observation falls outside the window but still counts as
	// the store's current price
	addPriceAt(t, qry, milk.ID, coles.ID, 900, noon().AddDate(0, 0, -400), false)

	result, err := service.History(ctx, milk.ID, 90, nil)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Full Cream Milk", result.ProductName)
	require.Equal(t, "Dairy Farmers", *result.ProductBrand)
	require.Len(t, result.History, 2)
	require.EqualValues(t, 500, result.History[0].PriceCents)
	require.True(t, result.History[0].IsSpecial)
	require.Equal(t, "woolworths", result.History[0].StoreSlug)
	require.EqualValues(t, 450, result.History[1].PriceCents)
	require.Equal(t, "$4.50", result.History[1].Price)

	require.EqualValues(t, 450, *result.Stats.MinPriceCents)
	require.EqualValues(t, 500, *result.Stats.MaxPriceCents)
	require.EqualValues(t, 475, *result.Stats.AvgPriceCents)
	require.EqualValues(t, 2, result.Stats.PricePoints)
	require.EqualValues(t, 1, result.Stats.SpecialCount)
	require.EqualValues(t, 450, *result.Stats.CurrentMinCents)
	require.EqualValues(t, 900, *result.Stats.CurrentMaxCents)

	// store filter with nothing in the window leaves empty stats
	colesOnly, err := service.History(ctx, milk.ID, 90, &coles.ID)
	require.NoError(t, err)
	require.Empty(t, colesOnly.History)
	require.Nil(t, colesOnly.Stats.MinPriceCents)
	require.EqualValues(t, 0, colesOnly.Stats.PricePoints)

	_, err = service.History(ctx, 99999, 90, nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPriceSummary(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)

	milk := addProduct(t, qry, "Full Cream Milk", "")
	// an old special drops the 30-day low; the current price sits well
	// above it, so the trend reads as rising
	addPriceAt(t, qry, milk.ID, woolworths.ID, 400, noon().AddDate(0, 0, -20), true)
	addPriceAt(t, qry, milk.ID, woolworths.ID, 500, noon().AddDate(0, 0, -1), false)

	summary, err := service.Summary(ctx, milk.ID)
	if err != nil {
		t.Fatal(err)
	}
	require.EqualValues(t, 400, *summary.Min30dCents)
	require.EqualValues(t, 500, *summary.Max30dCents)
	require.EqualValues(t, 450, *summary.Avg30dCents)
	require.EqualValues(t, 500, *summary.CurrentMinCents)
	require.Equal(t, "up", summary.Trend)
	// only each store's newest observation can flag a special
	require.False(t, summary.HasSpecial)

	bread := addProduct(t, qry, "White Bread", "")
	addPriceAt(t, qry, bread.ID, coles.ID, 300, noon().AddDate(0, 0, -2), true)

	stable, err := service.Summary(ctx, bread.ID)
	require.NoError(t, err)
	require.Equal(t, "stable", stable.Trend)
	require.True(t, stable.HasSpecial)
	require.EqualValues(t, 300, *stable.CurrentMinCents)

	_, err = service.Summary(ctx, 99999)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestChartData(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	woolworths, coles := seedStores(t, qry)
	iga, err := qry.CreateStore(ctx, db.CreateStoreParams{Name: "IGA", Slug: "iga"})
	require.NoError(t, err)

	milk := addProduct(t, qry, "Full Cream Milk", "")
	twoDaysAgo := noon().AddDate(0, 0, -2)
	addPriceAt(t, qry, milk.ID, woolworths.ID, 450, twoDaysAgo, true)
	addPriceAt(t, qry, milk.ID, coles.ID, 500, twoDaysAgo, false)
	// a second observation on the same date replaces the price but the
	// special marker sticks
	addPriceAt(t, qry, milk.ID, woolworths.ID, 460, twoDaysAgo.Add(time.Hour), false)
	addPriceAt(t, qry, milk.ID, woolworths.ID, 400, noon().AddDate(0, 0, -1), false)

	chart, err := service.Chart(ctx, milk.ID, 90)
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "Full Cream Milk", chart.ProductName)
	require.Len(t, chart.Data, 2)

	first := chart.Data[0]
	require.EqualValues(t, 460, first.Prices["woolworths"])
	require.EqualValues(t, 500, first.Prices["coles"])
	require.True(t, first.Specials["woolworths"])
	require.NotContains(t, first.Specials, "coles")

	second := chart.Data[1]
	require.EqualValues(t, 400, second.Prices["woolworths"])
	require.NotContains(t, second.Prices, "coles")

	colors := map[string]string{}
	for _, store := range chart.Stores {
		colors[store.Slug] = store.Color
	}
	require.Equal(t, "#00A651", colors["woolworths"])
	require.Equal(t, "#E01A22", colors["coles"])
	require.Equal(t, "#666666", colors[iga.Slug])
}
