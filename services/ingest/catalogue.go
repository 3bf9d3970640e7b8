package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"trolley-backend/lib/money"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// Store CDN image patterns, keyed by each chain's product identifier.

func woolworthsImageUrl(stockcode string) string {
	if stockcode == "" {
		return ""
	}
	return "https://cdn0.woolworths.media/content/wowproductimages/large/" + stockcode + ".jpg"
}

func colesImageUrl(productID string) string {
	if productID == "" {
		return ""
	}
	return fmt.Sprintf("https://productimages.coles.com.au/productimages/%c/%s.jpg", productID[0], productID)
}

func aldiImageUrl(productPath string) string {
	if productPath == "" {
		return ""
	}
	return "https://dm.apac.cms.aldi.cx/is/image/aldiprodapac/" + productPath
}

// SpecialItem is one offer lifted from a chain's own specials page,
// destined for the price history rather than the specials board.
type SpecialItem struct {
	Name           string
	PriceCents     int64
	WasPriceCents  int64
	UnitPriceCents int64
	SpecialType    string
	ValidTo        string
	ImageUrl       string
	ProductUrl     string
	StoreProductID string
}

// CatalogueParser fetches current specials directly from one chain's
// website. Each chain buries its product data differently, hence one
// parser per chain.
type CatalogueParser interface {
	StoreSlug() string
	StoreName() string
	FetchSpecials(ctx context.Context) ([]SpecialItem, error)
}

func newCatalogueParsers(client *resty.Client) []CatalogueParser {
	return []CatalogueParser{
		woolworthsParser{client},
		colesParser{client},
		aldiParser{client},
	}
}

func fetchPage(ctx context.Context, client *resty.Client, url string) (*goquery.Document, error) {
	res, err := client.R().
		SetContext(ctx).
		SetHeader("accept", "text/html,application/xhtml+xml").
		Get(url)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("%s returned status %d", url, res.StatusCode())
	}
	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

// woolworthsParser reads the Woolworths specials browse page. The
// page is a React app, so the product list lives in embedded JSON
// blobs with a tile fallback for server-rendered variants.
type woolworthsParser struct {
	client *resty.Client
}

func (woolworthsParser) StoreSlug() string { return "woolworths" }
func (woolworthsParser) StoreName() string { return "Woolworths" }

func (p woolworthsParser) FetchSpecials(ctx context.Context) ([]SpecialItem, error) {
	doc, err := fetchPage(ctx, p.client, "https://www.woolworths.com.au/shop/browse/specials")
	if err != nil {
		return nil, err
	}

	var specials []SpecialItem
	doc.Find(`script[type="application/json"]`).Each(func(_ int, sel *goquery.Selection) {
		var payload jsonObject
		if err := json.Unmarshal([]byte(sel.Text()), &payload); err != nil {
			return
		}
		for _, prod := range payload.array("products") {
			if item, ok := parseWoolworthsProduct(prod); ok {
				specials = append(specials, item)
			}
		}
	})

	doc.Find(`[data-testid="product-tile"]`).Each(func(_ int, tile *goquery.Selection) {
		name := strings.TrimSpace(tile.Find(`[class*="product-title"]`).First().Text())
		price := parsePriceCents(tile.Find(`[class*="price"]`).First().Text())
		if name == "" || price <= 0 {
			return
		}
		specials = append(specials, SpecialItem{
			Name:        name,
			PriceCents:  price,
			SpecialType: "catalogue",
		})
	})

	return specials, nil
}

func parseWoolworthsProduct(data jsonObject) (SpecialItem, bool) {
	name := data.text("name", "displayName", "Name")
	price := data.number("price", "salePrice", "Price")
	if name == "" || price <= 0 {
		return SpecialItem{}, false
	}

	stockcode := data.text("stockcode", "Stockcode")
	item := SpecialItem{
		Name:           name,
		PriceCents:     money.FromFloat(price),
		SpecialType:    "catalogue",
		StoreProductID: stockcode,
		ImageUrl:       woolworthsImageUrl(stockcode),
	}
	if was := data.number("wasPrice", "listPrice", "WasPrice"); was > 0 {
		item.WasPriceCents = money.FromFloat(was)
	}
	return item, true
}

// colesParser reads the Coles on-special page, which is a Next.js app
// shipping its product list inside the __NEXT_DATA__ script.
type colesParser struct {
	client *resty.Client
}

func (colesParser) StoreSlug() string { return "coles" }
func (colesParser) StoreName() string { return "Coles" }

func (p colesParser) FetchSpecials(ctx context.Context) ([]SpecialItem, error) {
	doc, err := fetchPage(ctx, p.client, "https://www.coles.com.au/on-special")
	if err != nil {
		return nil, err
	}

	var specials []SpecialItem
	if raw := doc.Find("script#__NEXT_DATA__").First().Text(); raw != "" {
		var payload jsonObject
		if err := json.Unmarshal([]byte(raw), &payload); err == nil {
			for _, prod := range colesNextProducts(payload) {
				if item, ok := parseColesProduct(prod); ok {
					specials = append(specials, item)
				}
			}
		}
	}

	doc.Find(`[data-testid="product-tile"]`).Each(func(_ int, tile *goquery.Selection) {
		name := strings.TrimSpace(tile.Find(`[class*="product-title"], [class*="product-name"]`).First().Text())
		price := parsePriceCents(tile.Find(`[class*="price-dollars"]`).First().Text())
		if name == "" || price <= 0 {
			return
		}
		specials = append(specials, SpecialItem{
			Name:        name,
			PriceCents:  price,
			SpecialType: "catalogue",
		})
	})

	return specials, nil
}

func colesNextProducts(payload jsonObject) []jsonObject {
	pageProps := payload.object("props").object("pageProps")
	if products := pageProps.array("products"); len(products) > 0 {
		return products
	}
	return pageProps.object("initialData").array("products")
}

func parseColesProduct(data jsonObject) (SpecialItem, bool) {
	name := data.text("name")
	if name == "" {
		name = strings.TrimSpace(data.text("brand") + " " + data.text("name"))
	}
	pricing := data.object("pricing")
	price := pricing.number("now", "price")
	if name == "" || price <= 0 {
		return SpecialItem{}, false
	}

	productID := data.text("id")
	specialType := pricing.text("promotionType")
	if specialType == "" {
		specialType = "special"
	}
	item := SpecialItem{
		Name:           strings.TrimSpace(name),
		PriceCents:     money.FromFloat(price),
		SpecialType:    specialType,
		StoreProductID: productID,
		ImageUrl:       colesImageUrl(productID),
	}
	if was := pricing.number("was", "comparable"); was > 0 {
		item.WasPriceCents = money.FromFloat(was)
	}
	return item, true
}

// aldiParser reads the ALDI Special Buys page: plain server-rendered
// product boxes plus ld+json Product blocks.
type aldiParser struct {
	client *resty.Client
}

func (aldiParser) StoreSlug() string { return "aldi" }
func (aldiParser) StoreName() string { return "ALDI" }

func (p aldiParser) FetchSpecials(ctx context.Context) ([]SpecialItem, error) {
	doc, err := fetchPage(ctx, p.client, "https://www.aldi.com.au/en/special-buys/")
	if err != nil {
		return nil, err
	}

	var specials []SpecialItem
	doc.Find(`.box--product, [class*="product-box"]`).Each(func(_ int, box *goquery.Selection) {
		name := strings.TrimSpace(box.Find(`.box--description__header, [class*="product-title"]`).First().Text())
		price := parsePriceCents(box.Find(`.box--price, [class*="price"]`).First().Text())
		if name == "" || price <= 0 {
			return
		}
		specials = append(specials, SpecialItem{
			Name:        name,
			PriceCents:  price,
			SpecialType: "special_buy",
		})
	})

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var data jsonObject
		if err := json.Unmarshal([]byte(sel.Text()), &data); err != nil {
			return
		}
		if data.text("@type") != "Product" {
			return
		}
		name := data.text("name")
		price := data.object("offers").number("price")
		if name == "" || price <= 0 {
			return
		}
		specials = append(specials, SpecialItem{
			Name:           name,
			PriceCents:     money.FromFloat(price),
			SpecialType:    "special_buy",
			StoreProductID: data.text("sku"),
		})
	})

	return specials, nil
}
