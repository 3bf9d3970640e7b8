package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractBrand(t *testing.T) {
	cases := []struct{ name, want string }{
		{"Cadbury Dairy Milk 180g", "Cadbury"},
		{"Woolworths Free Range Eggs", "Woolworths"},
		{"ALDI Oat Milk 1L", "ALDI"},
		{"Macro Organic Eggs", "Macro"},
		// generic leading words are not brands
		{"fresh bananas", ""},
		{"2L Milk", ""},
		{"A2 Milk", ""},
		// punctuation disqualifies the proper-noun guess
		{"Arnott's Shapes", ""},
		{"", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ExtractBrand(tc.name), tc.name)
	}
}

func TestExtractSize(t *testing.T) {
	cases := []struct{ name, want string }{
		{"Full Cream Milk 2L", "2L"},
		{"Tim Tam Original 200g", "200g"},
		{"Jasmine Rice 1.5kg", "1.5kg"},
		{"Coke Zero 600ml", "600ml"},
		{"Free Range Eggs 12 Pack", "12 Pack"},
		{"Yoghurt Pouches 2 x 55", "2 x 55"},
		// unit letters that start a longer word are not sizes
		{"Helga's 5 Grain Loaf", ""},
		{"Milk 2 Litre", ""},
		{"Bananas", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ExtractSize(tc.name), tc.name)
	}
}
