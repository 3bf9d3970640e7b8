package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"trolley-backend/internal/db"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestNormalizeWoolworthsProduct(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	item, ok := normalizeWoolworthsProduct(woolworthsApiProduct{
		Name:        "Helga's Wholemeal Bread 750g",
		Stockcode:   json.Number("123123"),
		Price:       f(4),
		WasPrice:    f(5.5),
		CupPrice:    f(0.53),
		CupMeasure:  "100g",
		PackageSize: "750g",
		Brand:       "Helga's",
	})
	require.True(t, ok)
	require.Equal(t, "Helga's Wholemeal Bread 750g", item.Name)
	require.Equal(t, "Helga's", item.Brand)
	require.Equal(t, "750g", item.Size)
	require.Equal(t, "123123", item.Stockcode)
	require.EqualValues(t, 400, item.PriceCents)
	require.EqualValues(t, 550, item.WasPriceCents)
	require.EqualValues(t, 53, item.UnitPriceCents)
	require.True(t, item.IsSpecial)

	// not on special when was price equals the shelf price
	item, ok = normalizeWoolworthsProduct(woolworthsApiProduct{
		DisplayName: "Bananas Each",
		Stockcode:   json.Number("0"),
		Price:       f(0.62),
		WasPrice:    f(0.62),
	})
	require.True(t, ok)
	require.Equal(t, "Bananas Each", item.Name)
	require.Equal(t, "", item.Stockcode)
	require.False(t, item.IsSpecial)

	_, ok = normalizeWoolworthsProduct(woolworthsApiProduct{Name: "Out Of Stock"})
	require.False(t, ok)
	_, ok = normalizeWoolworthsProduct(woolworthsApiProduct{Name: "Free", Price: f(0)})
	require.False(t, ok)
}

func TestNormalizeColesProduct(t *testing.T) {
	data := mustJSON(t, `{
		"id": "3141592",
		"description": "Coles Tasty Cheese Block 1kg",
		"brand": "Coles",
		"size": "1kg",
		"pricing": {"now": 9, "was": 11, "unit": {"price": 0.9}}
	}`)
	item, ok := normalizeColesProduct(data)
	require.True(t, ok)
	require.Equal(t, "Coles Tasty Cheese Block 1kg", item.Name)
	require.Equal(t, "Coles", item.Brand)
	require.Equal(t, "1kg", item.Size)
	require.Equal(t, "3141592", item.Stockcode)
	require.Equal(t, "https://productimages.coles.com.au/productimages/3/3141592.jpg", item.ImageUrl)
	require.EqualValues(t, 900, item.PriceCents)
	require.EqualValues(t, 1100, item.WasPriceCents)
	require.EqualValues(t, 90, item.UnitPriceCents)
	require.True(t, item.IsSpecial)

	_, ok = normalizeColesProduct(mustJSON(t, `{"name": "No Pricing"}`))
	require.False(t, ok)
}

func TestNormalizeIGAProduct(t *testing.T) {
	data := mustJSON(t, `{
		"productId": "7777",
		"name": "Cavendish Bananas",
		"priceNumeric": 3.9,
		"priceSource": "tpr",
		"pricePerUnit": "$3.90/kg",
		"image": {"default": "https://img.example/bananas.jpg"}
	}`)
	item, ok := normalizeIGAProduct(data)
	require.True(t, ok)
	require.Equal(t, "Cavendish Bananas", item.Name)
	require.Equal(t, "7777", item.Stockcode)
	require.Equal(t, "https://img.example/bananas.jpg", item.ImageUrl)
	require.EqualValues(t, 390, item.PriceCents)
	require.EqualValues(t, 390, item.UnitPriceCents)
	require.True(t, item.IsSpecial)

	item, ok = normalizeIGAProduct(mustJSON(t, `{"name": "Apples", "priceNumeric": 4.5, "priceSource": "regular"}`))
	require.True(t, ok)
	require.False(t, item.IsSpecial)
	require.EqualValues(t, 0, item.UnitPriceCents)

	_, ok = normalizeIGAProduct(mustJSON(t, `{"name": "No Price"}`))
	require.False(t, ok)
}

func TestExtractColesBrowseProducts(t *testing.T) {
	html := `<html><body>
		<script id="__NEXT_DATA__" type="application/json">
		{"props":{"pageProps":{"searchResults":{"results":[{"name":"A"},{"name":"B"}]}}}}
		</script>
		</body></html>`
	products := extractColesBrowseProducts([]byte(html))
	require.Len(t, products, 2)
	require.Equal(t, "A", products[0].text("name"))

	require.Empty(t, extractColesBrowseProducts([]byte(`<html><body></body></html>`)))
}

func TestCategoryForSlug(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	// seeded under the woolworths slug, requested under the coles one
	fruitVeg, err := qry.CreateCategory(ctx, db.CreateCategoryParams{Name: "Fruit & Veg", Slug: "fruit-veg"})
	require.NoError(t, err)
	id, err := service.categoryForSlug(ctx, "fruit-vegetables")
	require.NoError(t, err)
	require.Equal(t, fruitVeg.ID, id.Int64)

	// seed data uses display names with their own slugs
	meat, err := qry.CreateCategory(ctx, db.CreateCategoryParams{Name: "Poultry, Meat & Seafood", Slug: "meat-poultry-seafood"})
	require.NoError(t, err)
	id, err = service.categoryForSlug(ctx, "meat-seafood")
	require.NoError(t, err)
	require.Equal(t, meat.ID, id.Int64)

	// nothing matches, so the category is created
	id, err = service.categoryForSlug(ctx, "household")
	require.NoError(t, err)
	created, err := qry.GetCategoryBySlug(ctx, "household")
	require.NoError(t, err)
	require.Equal(t, created.ID, id.Int64)
	require.Equal(t, "Household", created.Name)

	// unmapped slugs get a title-cased name
	_, err = service.categoryForSlug(ctx, "specialty-aisle")
	require.NoError(t, err)
	specialty, err := qry.GetCategoryBySlug(ctx, "specialty-aisle")
	require.NoError(t, err)
	require.Equal(t, "Specialty Aisle", specialty.Name)
}

func TestSaveImportedProduct(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	store := addStore(t, qry, "Woolworths", "woolworths")
	category, err := service.categoryForSlug(ctx, "dairy-eggs-fridge")
	require.NoError(t, err)

	item := importedProduct{
		Name:          "Woolworths Free Range Eggs 12 Pack",
		Brand:         "Woolworths",
		Size:          "12 Pack",
		Stockcode:     "555",
		ImageUrl:      "https://img.example/eggs.jpg",
		PriceCents:    650,
		WasPriceCents: 800,
		IsSpecial:     true,
	}
	require.NoError(t, service.saveImportedProduct(ctx, store.ID, category, item))

	product, err := qry.GetProductByName(ctx, "Woolworths Free Range Eggs 12 Pack")
	require.NoError(t, err)
	require.Equal(t, "Woolworths", product.Brand.String)
	require.Equal(t, category.Int64, product.CategoryID.Int64)

	storeProduct, err := qry.GetStoreProduct(ctx, db.GetStoreProductParams{ProductID: product.ID, StoreID: store.ID})
	require.NoError(t, err)
	require.Equal(t, "555", storeProduct.StoreProductID.String)

	price, err := qry.LatestPriceForStoreProduct(ctx, storeProduct.ID)
	require.NoError(t, err)
	require.EqualValues(t, 650, price.PriceCents)
	require.EqualValues(t, 800, price.WasPriceCents.Int64)
	require.True(t, price.IsSpecial)
	require.Equal(t, "import", price.Source)

	// the next week's run reuses the product and appends a price
	item.PriceCents = 600
	item.WasPriceCents = 0
	item.IsSpecial = false
	require.NoError(t, service.saveImportedProduct(ctx, store.ID, category, item))

	price, err = qry.LatestPriceForStoreProduct(ctx, storeProduct.ID)
	require.NoError(t, err)
	require.EqualValues(t, 600, price.PriceCents)
	require.False(t, price.WasPriceCents.Valid)
	require.False(t, price.IsSpecial)
}

func TestWoolworthsCategoryTable(t *testing.T) {
	id, ok := woolworthsCategoryID("fruit-veg")
	require.True(t, ok)
	require.Equal(t, "1-E5BEE36E", id)

	_, ok = woolworthsCategoryID("liquor")
	require.False(t, ok)

	require.True(t, isColesCategory("fruit-vegetables"))
	require.False(t, isColesCategory("fruit-veg"))
}
