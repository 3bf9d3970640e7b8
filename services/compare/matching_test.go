package compare

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractType(t *testing.T) {
	cases := []struct {
		name  string
		brand string
		want  string
	}{
		{"Dairy Farmers Full Cream Milk 2L", "Dairy Farmers", "Full Cream Milk 2L"},
		{"Pauls Full Cream Milk 2L", "Pauls", "Full Cream Milk 2L"},
		{"Woolworths Butter Salted 500g", "Woolworths", "Butter Salted 500g"},
		{"Mainland Cheese", "mainland", "Cheese"},
		// stripping the brand must not leave an empty type
		{"Cadbury", "Cadbury", "Cadbury"},
		{"Smith's Crinkle Cut Chips", "", "Smith's Crinkle Cut Chips"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ExtractType(tc.name, tc.brand), tc.name)
	}
}

func TestExtractOfferType(t *testing.T) {
	cases := []struct {
		name  string
		brand string
		want  string
	}{
		{"Cadbury Dairy Milk Chocolate Block 180g", "Cadbury", "Dairy Milk Chocolate Block"},
		{"Coca-Cola Classic Soft Drink 10 Pack", "Coca-Cola", "Classic Soft Drink"},
		// brands can sit mid-name in scraped offers
		{"Chocolate Cadbury Block", "Cadbury", "Chocolate Block"},
		{"Pauls Full Cream Milk 2L", "Pauls", "Full Cream Milk"},
		{"Bananas", "", "Bananas"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ExtractOfferType(tc.name, tc.brand), tc.name)
	}
}

func TestNormalizeType(t *testing.T) {
	require.Equal(t, "fullcream milk", NormalizeType("Full Cream Milk"))
	require.Equal(t, "fullcream milk", NormalizeType("Full-Cream  Milk"))
	require.Equal(t, "freerange eggs 12 pack", NormalizeType("Free Range Eggs 12 Pack"))
	require.Equal(t, "extravirgin olive oil", NormalizeType("Extra Virgin Olive Oil"))
}

func TestTypesMatch(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"fullcream milk", "fullcream milk", true},
		// word order is irrelevant
		{"salted butter", "butter salted", true},
		// unit tokens and bare numbers carry no signal
		{"fullcream milk 2 l", "fullcream milk", true},
		{"fullcream milk", "skimmilk milk", false},
		{"", "milk", false},
		{"2 l", "fullcream milk", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, TypesMatch(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
	}
}

func TestSimilarType(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"Mango", "Mangoes", true},
		{"cherries", "cherry", true},
		{"Peaches", "peach", true},
		{"chicken breast", "chicken breast fillets", true},
		// one significant word in common is enough for short names
		{"Fresh Bananas", "Banana Smoothie", true},
		{"Chocolate Block", "Choc Chip Cookies", false},
		// a typo within Jaro-Winkler reach still matches
		{"zucchini", "zuchini", true},
		{"apple", "orange", false},
		{"", "milk", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, SimilarType(tc.a, tc.b), "%q vs %q", tc.a, tc.b)
	}
}

func TestBrandFromName(t *testing.T) {
	require.Equal(t, "Coca-Cola", BrandFromName("Coca-Cola Classic 10 Pack"))
	require.Equal(t, "Cadbury", BrandFromName("Cadbury Dairy Milk"))
	// too short to be a brand, or nothing after it
	require.Equal(t, "", BrandFromName("AB Juice"))
	require.Equal(t, "", BrandFromName("Milk"))
}

func TestNormalizeProductKey(t *testing.T) {
	brand := "Cadbury"
	size := "180g"
	require.Equal(t, "cadbury|dairy milk|180g", NormalizeProductKey("Dairy Milk", &brand, &size))
	require.Equal(t, "dairy milk", NormalizeProductKey("Dairy Milk", nil, nil))
	require.Equal(t, "cadbury|dairy milk", NormalizeProductKey(" Dairy Milk ", &brand, nil))
}
