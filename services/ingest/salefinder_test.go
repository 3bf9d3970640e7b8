package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestParseListPage(t *testing.T) {
	doc := mustDoc(t, `
		<html><body>
		<div class="item">
			<a class="item-image" data-itemid="87654321" data-itemname="Cadbury Dairy Milk 180g" href="#">
				<img src="https://salefinder.com.au/images/thumbs/87654321.jpg"/>
			</a>
			<span class="price">$2.50</span>
			<span class="savings">Was $5.00</span>
		</div>
		<div class="item">
			<a class="item-image" data-itemid="87654322" data-itemname="Token Item" href="#">
				<img src="https://salefinder.com.au/images/thumbs/87654322.jpg"/>
			</a>
			<span class="price">$0.00</span>
		</div>
		</body></html>`)

	// the zero-price tile is dropped; thumbnail urls are swapped for
	// the full-size CDN image
	diff := cmp.Diff([]ScrapedItem{{
		Name:           "Cadbury Dairy Milk 180g",
		PriceCents:     250,
		WasPriceCents:  500,
		ImageUrl:       "https://dduhxx0oznf63.cloudfront.net/images/products/87654321.jpg",
		StoreProductID: "87654321",
	}}, parseListPage(doc))
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestParseListPageFallback(t *testing.T) {
	doc := mustDoc(t, `
		<html><body>
		<div class="product-detail">
			<h1>Tim Tam Original 200g</h1>
			<div class="image-holder">
				<a href="/woolworths-catalogue/63026/nsw-metro/grocery/tim-tam-original/123456789/">
					<img src="" data-src="https://example.com/timtam.jpg"/>
				</a>
			</div>
			<div class="pricing">Half Price $3.00 Was $6.00</div>
		</div>
		<div class="product-detail">
			<h1>Bananas</h1>
			<div>
				<a href="/woolworths-catalogue/63026/nsw-metro/grocery/bananas/234567890/">
					<img src="/thumb.jpg"/>
				</a>
			</div>
			<div>$2.50 per kg, 2 for $4.00</div>
		</div>
		</body></html>`)

	items := parseListPage(doc)
	require.Len(t, items, 2)

	require.Equal(t, "Tim Tam Original 200g", items[0].Name)
	// the smallest dollar figure on the tile is the sale price
	require.EqualValues(t, 300, items[0].PriceCents)
	require.EqualValues(t, 600, items[0].WasPriceCents)
	require.Equal(t, "123456789", items[0].StoreProductID)
	require.Equal(t, "https://example.com/timtam.jpg", items[0].ImageUrl)

	require.Equal(t, "Bananas", items[1].Name)
	// unit-priced tiles beat the smallest-figure rule
	require.EqualValues(t, 250, items[1].PriceCents)
	require.EqualValues(t, 0, items[1].WasPriceCents)
	require.Equal(t, "234567890", items[1].StoreProductID)
}

func TestDetectTotalPages(t *testing.T) {
	doc := mustDoc(t, `
		<html><body>
		<a href="/woolworths-catalogue/x/63026/list?qs=2,,,,">2</a>
		<a href="/woolworths-catalogue/x/63026/list?qs=3,,,,">3</a>
		<a href="#">[31-45]</a>
		</body></html>`)
	require.Equal(t, 45, detectTotalPages(context.Background(), doc))

	require.Equal(t, 1, detectTotalPages(context.Background(), mustDoc(t, `<html><body></body></html>`)))
}

func TestParseJSONP(t *testing.T) {
	var payload struct {
		Content string `json:"content"`
	}
	err := parseJSONP([]byte(`jQuery123_456({"content": "<div>hi</div>"});`), &payload)
	require.NoError(t, err)
	require.Equal(t, "<div>hi</div>", payload.Content)

	// parens inside the JSON body must not confuse the unwrap
	err = parseJSONP([]byte(`cb({"content": "a(b)c"})`), &payload)
	require.NoError(t, err)
	require.Equal(t, "a(b)c", payload.Content)

	err = parseJSONP([]byte(`{"content": "plain"}`), &payload)
	require.NoError(t, err)
	require.Equal(t, "plain", payload.Content)

	require.Error(t, parseJSONP([]byte(`not json at all`), &payload))
}

func TestParsePriceCents(t *testing.T) {
	cases := []struct {
		text string
		want int64
	}{
		{"$4.50", 450},
		{"  $12.99 ", 1299},
		{"2", 200},
		{"$3", 300},
		{"Save big!", 0},
		{"", 0},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, parsePriceCents(tc.text), tc.text)
	}
}

func TestTitleWords(t *testing.T) {
	require.Equal(t, "Fruit Veg", titleWords("fruit veg"))
	require.Equal(t, "Coles Catalogue Nsw Metro", titleWords("coles catalogue nsw metro"))
	require.Equal(t, "", titleWords(""))
}
