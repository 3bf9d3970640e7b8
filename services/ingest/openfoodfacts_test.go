package ingest

import (
	"context"
	"database/sql"
	"testing"

	"trolley-backend/internal/db"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestParsePrimaryCategory(t *testing.T) {
	cases := []struct{ in, want string }{
		{"en:breakfast-cereals, en:cereals", "Breakfast Cereals"},
		// too-short leading entries are skipped
		{"fr:x, en:snacks", "Snacks"},
		{"Chocolate bars", "Chocolate Bars"},
		{"", ""},
		{"en:ab", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, parsePrimaryCategory(tc.in), tc.in)
	}
}

func TestClip(t *testing.T) {
	require.Equal(t, "abc", clip("abcdef", 3))
	require.Equal(t, "ab", clip("ab", 5))
	// rune-safe, not byte-safe
	require.Equal(t, "ábcd", clip("ábcdé", 4))
}

func TestImportOpenFoodFactsProduct(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	err := service.importOpenFoodFactsProduct(ctx, offProduct{
		Code:        "9300601234567",
		ProductName: "Dairy Milk",
		Brands:      "Cadbury",
		Categories:  "en:chocolates",
		Quantity:    "180 g",
		ImageUrl:    "https://img.example/dairy-milk.jpg",
	})
	require.NoError(t, err)

	product, err := qry.GetProductByBarcode(ctx, sql.NullString{String: "9300601234567", Valid: true})
	require.NoError(t, err)
	// brand and quantity fold into the stored name
	require.Equal(t, "Cadbury Dairy Milk 180 g", product.Name)
	require.Equal(t, "Cadbury", product.Brand.String)
	require.True(t, product.CategoryID.Valid)

	category, err := qry.GetCategoryBySlug(ctx, "chocolates")
	require.NoError(t, err)
	require.Equal(t, "Chocolates", category.Name)
	require.Equal(t, category.ID, product.CategoryID.Int64)

	// the same barcode is not imported twice
	err = service.importOpenFoodFactsProduct(ctx, offProduct{Code: "9300601234567", ProductName: "Dairy Milk"})
	require.ErrorIs(t, err, errSkipProduct)

	// nor is a product whose brand-qualified name already exists
	_, err = qry.CreateProduct(ctx, db.CreateProductParams{Name: "Arnott's Tim Tam"})
	require.NoError(t, err)
	err = service.importOpenFoodFactsProduct(ctx, offProduct{ProductName: "Tim Tam", Brands: "Arnott's"})
	require.ErrorIs(t, err, errSkipProduct)

	err = service.importOpenFoodFactsProduct(ctx, offProduct{ProductName: "X"})
	require.ErrorIs(t, err, errSkipProduct)
}

func TestOpenFoodFactsStatus(t *testing.T) {
	service, qry, cleanup := setup(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, service.importOpenFoodFactsProduct(ctx, offProduct{
		Code:        "9312345678901",
		ProductName: "Vegemite",
		Brands:      "Bega",
		Quantity:    "560g",
	}))
	// a scraped product without a barcode
	_, err := qry.CreateProduct(ctx, db.CreateProductParams{Name: "Loose Bananas"})
	require.NoError(t, err)

	status, err := service.OpenFoodFactsStatus(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, status.TotalProducts)
	require.EqualValues(t, 1, status.WithBarcode)
	require.EqualValues(t, 1, status.WithBrand)
	require.EqualValues(t, 1, status.FromOpenFoodFacts)
}
