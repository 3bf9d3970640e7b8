package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCategorizeProduct(t *testing.T) {
	cases := []struct {
		name  string
		brand string
		want  string
	}{
		// descriptor stripping keeps canned fish out of the sauce aisle
		{"John West Tuna In Tomato Sauce 95g", "", "canned-food"},
		{"Heinz Tomato Sauce 500ml", "Heinz", "sauces-condiments"},
		// meat-flavoured snacks are snacks
		{"Arnott's Shapes BBQ 175g", "", "biscuits"},
		{"Cadbury Dairy Milk Chocolate Block 180g", "Cadbury", "chocolate"},
		{"Nestle Milk Chocolate 200g", "", "chocolate"},
		{"Pauls Full Cream Milk 2L", "", "milk"},
		{"Beef Rump Steak 500g", "", "beef-veal"},
		{"Chicken Breast Fillets 1kg", "", "chicken"},
		{"Smith's Crinkle Cut Chips 170g", "", "chips-crisps"},
		// no subcategory claims these, so the parent table decides
		{"Stir Fry Vegetables", "", "international"},
		{"Kombucha 330ml", "", "drinks"},
		{"Mystery Widget", "", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CategorizeProduct(tc.name, tc.brand), tc.name)
	}
}

func TestCategorySuggestions(t *testing.T) {
	suggestions := CategorySuggestions("Cadbury Dairy Milk Chocolate", "")
	require.Equal(t, []string{"snacks-confectionery", "dairy-eggs-fridge"}, suggestions)

	require.Nil(t, CategorySuggestions("", ""))
}

func TestPrimaryProduct(t *testing.T) {
	cases := []struct{ in, want string }{
		{"tuna in tomato sauce", "tuna"},
		{"chicken with herbs & garlic", "chicken"},
		{"corn chips chilli flavoured", "corn chips"},
		{"beef 500g", "beef"},
		{"plain biscuits", "plain biscuits"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, primaryProduct(tc.in), tc.in)
	}
}
