package ingest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreImageUrls(t *testing.T) {
	require.Equal(t,
		"https://cdn0.woolworths.media/content/wowproductimages/large/888222.jpg",
		woolworthsImageUrl("888222"))
	// coles shards product images by the id's first character
	require.Equal(t,
		"https://productimages.coles.com.au/productimages/2/2351888.jpg",
		colesImageUrl("2351888"))
	require.Equal(t,
		"https://dm.apac.cms.aldi.cx/is/image/aldiprodapac/lettuce-iceberg-each",
		aldiImageUrl("lettuce-iceberg-each"))

	require.Equal(t, "", woolworthsImageUrl(""))
	require.Equal(t, "", colesImageUrl(""))
	require.Equal(t, "", aldiImageUrl(""))
}

func mustJSON(t *testing.T, raw string) jsonObject {
	t.Helper()
	var data jsonObject
	require.NoError(t, json.Unmarshal([]byte(raw), &data))
	return data
}

func TestParseWoolworthsProduct(t *testing.T) {
	data := mustJSON(t, `{"name":"Full Cream Milk 2L","price":4.5,"wasPrice":5,"stockcode":888222}`)
	item, ok := parseWoolworthsProduct(data)
	require.True(t, ok)
	require.Equal(t, "Full Cream Milk 2L", item.Name)
	require.EqualValues(t, 450, item.PriceCents)
	require.EqualValues(t, 500, item.WasPriceCents)
	require.Equal(t, "catalogue", item.SpecialType)
	require.Equal(t, "888222", item.StoreProductID)
	require.Equal(t, "https://cdn0.woolworths.media/content/wowproductimages/large/888222.jpg", item.ImageUrl)

	// page variants rename the fields
	item, ok = parseWoolworthsProduct(mustJSON(t, `{"displayName":"Bread","salePrice":3.2}`))
	require.True(t, ok)
	require.Equal(t, "Bread", item.Name)
	require.EqualValues(t, 320, item.PriceCents)

	_, ok = parseWoolworthsProduct(mustJSON(t, `{"name":"No Price"}`))
	require.False(t, ok)
	_, ok = parseWoolworthsProduct(mustJSON(t, `{"price":3.5}`))
	require.False(t, ok)
}

func TestParseColesProduct(t *testing.T) {
	data := mustJSON(t, `{
		"id": "2351888",
		"name": "Coca-Cola Classic 2L",
		"pricing": {"now": 3, "was": 4.4, "promotionType": "DOWNDOWN"}
	}`)
	item, ok := parseColesProduct(data)
	require.True(t, ok)
	require.Equal(t, "Coca-Cola Classic 2L", item.Name)
	require.EqualValues(t, 300, item.PriceCents)
	require.EqualValues(t, 440, item.WasPriceCents)
	require.Equal(t, "DOWNDOWN", item.SpecialType)
	require.Equal(t, "2351888", item.StoreProductID)
	require.Equal(t, "https://productimages.coles.com.au/productimages/2/2351888.jpg", item.ImageUrl)

	item, ok = parseColesProduct(mustJSON(t, `{"name":"Bread","pricing":{"price":2.5}}`))
	require.True(t, ok)
	require.Equal(t, "special", item.SpecialType)

	_, ok = parseColesProduct(mustJSON(t, `{"name":"Free Sample","pricing":{"now":0}}`))
	require.False(t, ok)
}

func TestColesNextProducts(t *testing.T) {
	payload := mustJSON(t, `{"props":{"pageProps":{"products":[{"name":"a"},{"name":"b"}]}}}`)
	require.Len(t, colesNextProducts(payload), 2)

	payload = mustJSON(t, `{"props":{"pageProps":{"initialData":{"products":[{"name":"a"}]}}}}`)
	require.Len(t, colesNextProducts(payload), 1)

	require.Empty(t, colesNextProducts(mustJSON(t, `{"props":{}}`)))
}
