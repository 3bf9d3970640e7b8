package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"trolley-backend/lib/htmlutil"
	"trolley-backend/lib/money"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

const (
	salefinderSite  = "https://salefinder.com.au"
	salefinderEmbed = "https://embed.salefinder.com.au"

	// SaleFinder serves thumbnails on list pages; full-size product
	// shots live on this CloudFront bucket keyed by item id.
	salefinderImageCDN = "https://dduhxx0oznf63.cloudfront.net/images/products/"

	scraperUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

// salefinderStore holds the SaleFinder identifiers for one chain.
// Retailer and location ids come from the embed widget configuration
// on each chain's catalogue page.
type salefinderStore struct {
	RetailerID int
	LocationID int
	SitePath   string
}

// ALDI is not on SaleFinder (their catalogue page redirects to
// notfound), so ALDI specials come from the site parser instead.
// IGA locations vary by franchise, hence the zero location.
var salefinderStores = map[string]salefinderStore{
	"woolworths": {RetailerID: 126, LocationID: 4778, SitePath: "woolworths-catalogue"},
	"coles":      {RetailerID: 148, LocationID: 8245, SitePath: "coles-catalogue"},
	"iga":        {RetailerID: 183, LocationID: 0, SitePath: "iga-catalogue"},
}

var salefinderStoreSlugs = []string{"woolworths", "coles", "iga"}

// Catalogue identifies one published weekly catalogue. Path is the
// site path used for list scraping, e.g.
// "coles-catalogue/coles-catalogue-nsw-metro/63026".
type Catalogue struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

// CatalogueCategory is a page section within a catalogue.
type CatalogueCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ScrapedItem is one product tile lifted off a catalogue page.
type ScrapedItem struct {
	Name           string `json:"name"`
	PriceCents     int64  `json:"price_cents"`
	WasPriceCents  int64  `json:"was_price_cents,omitempty"`
	ImageUrl       string `json:"image_url,omitempty"`
	ProductUrl     string `json:"product_url,omitempty"`
	StoreProductID string `json:"store_product_id,omitempty"`
}

// SaleFinder scrapes weekly specials from the SaleFinder catalogue
// site and its embed API.
type SaleFinder struct {
	client *resty.Client
}

func NewSaleFinder() *SaleFinder {
	client := newScrapeClient(salefinderSite)
	client.SetHeader("accept", "application/json, text/javascript, */*")
	return &SaleFinder{client: client}
}

var fbCatalogueRegex = regexp.MustCompile(`salefinder\.com\.au%2F(\d{5,})`)

// DiscoverCatalogues finds the currently published catalogues for a
// store by scanning its SaleFinder landing page for catalogue links.
func (sf *SaleFinder) DiscoverCatalogues(ctx context.Context, storeSlug string) ([]Catalogue, error) {
	ctx, span := tracer.Start(ctx, "salefinder.DiscoverCatalogues")
	defer span.End()

	fail := func(err error) ([]Catalogue, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cfg, ok := salefinderStores[storeSlug]
	if !ok {
		return fail(fmt.Errorf("%w: %s", ErrStoreNotConfigured, storeSlug))
	}

	res, err := sf.client.R().SetContext(ctx).Get("/" + cfg.SitePath)
	if err != nil {
		return fail(err)
	}
	if res.StatusCode() != 200 {
		return fail(fmt.Errorf("catalogue page returned status %d", res.StatusCode()))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return fail(err)
	}

	linkRegex := regexp.MustCompile(`(` + regexp.QuoteMeta(cfg.SitePath) + `/[^/]+/(\d+))/`)

	var catalogues []Catalogue
	seen := map[int]bool{}
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		groups := linkRegex.FindStringSubmatch(href)
		if groups == nil {
			return
		}
		id, err := strconv.Atoi(groups[2])
		if err != nil || seen[id] {
			return
		}
		seen[id] = true

		path := groups[1]
		name := "Catalogue " + groups[2]
		if parts := strings.Split(path, "/"); len(parts) > 1 {
			name = titleWords(strings.ReplaceAll(parts[1], "-", " "))
		}
		catalogues = append(catalogues, Catalogue{ID: id, Name: name, Path: path})
	})

	// Facebook like buttons also embed the current catalogue id.
	doc.Find("iframe[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		groups := fbCatalogueRegex.FindStringSubmatch(src)
		if groups == nil {
			return
		}
		id, err := strconv.Atoi(groups[1])
		if err != nil || seen[id] {
			return
		}
		seen[id] = true
		catalogues = append(catalogues, Catalogue{ID: id, Name: "Current Catalogue"})
	})

	return catalogues, nil
}

// Products pages through a catalogue's list view and collects every
// product tile. maxPages caps the walk; 50 pages is roughly 600
// products.
func (sf *SaleFinder) Products(ctx context.Context, cataloguePath string, maxPages int) ([]ScrapedItem, error) {
	ctx, span := tracer.Start(ctx, "salefinder.Products")
	defer span.End()

	fail := func(err error) ([]ScrapedItem, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if maxPages <= 0 {
		maxPages = 50
	}
	baseUrl := "/" + cataloguePath + "/list"

	var all []ScrapedItem
	totalPages := 1
	for page := 1; page <= totalPages && page <= maxPages; page++ {
		url := baseUrl
		if page > 1 {
			url = fmt.Sprintf("%s?qs=%d,,,,", baseUrl, page)
		}

		res, err := sf.client.R().SetContext(ctx).Get(url)
		if err != nil {
			return fail(err)
		}
		if res.StatusCode() != 200 {
			break
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
		if err != nil {
			return fail(err)
		}

		items := parseListPage(doc)
		all = append(all, items...)

		if page == 1 {
			totalPages = detectTotalPages(ctx, doc)
		}
		if len(items) == 0 {
			break
		}

		if page < totalPages && page < maxPages {
			if err := sleepCtx(ctx, 500*time.Millisecond); err != nil {
				return fail(err)
			}
		}
	}

	return all, nil
}

// Categories fetches the navbar sections of a catalogue from the
// embed API, which wraps its JSON in a JSONP callback.
func (sf *SaleFinder) Categories(ctx context.Context, catalogueID, retailerID int) ([]CatalogueCategory, error) {
	ctx, span := tracer.Start(ctx, "salefinder.Categories")
	defer span.End()

	fail := func(err error) ([]CatalogueCategory, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	res, err := sf.client.R().
		SetContext(ctx).
		SetQueryParam("retailerId", strconv.Itoa(retailerID)).
		SetQueryParam("format", "json").
		Get(fmt.Sprintf("%s/catalogue/getNavbar/%d", salefinderEmbed, catalogueID))
	if err != nil {
		return fail(err)
	}
	if res.StatusCode() != 200 {
		return fail(fmt.Errorf("getNavbar returned status %d", res.StatusCode()))
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := parseJSONP(res.Body(), &payload); err != nil {
		return fail(err)
	}
	if payload.Content == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(payload.Content))
	if err != nil {
		return fail(err)
	}

	var categories []CatalogueCategory
	for _, node := range doc.Find("a[data-category-id]").Nodes {
		categories = append(categories, CatalogueCategory{
			ID:   htmlutil.GetAttr(node, "data-category-id"),
			Name: strings.TrimSpace(htmlutil.GetText(node)),
		})
	}
	return categories, nil
}

// parseJSONP unwraps "callback({...})" responses. Falls back to plain
// JSON when there is no callback wrapper.
func parseJSONP(body []byte, v any) error {
	text := bytes.TrimSpace(body)
	start := bytes.IndexByte(text, '(')
	end := bytes.LastIndexByte(text, ')')
	if start != -1 && end > start {
		if err := json.Unmarshal(text[start+1:end], v); err == nil {
			return nil
		}
	}
	return json.Unmarshal(text, v)
}

var (
	wasPriceRegex   = regexp.MustCompile(`Was\s*\$(\d+\.?\d*)`)
	unitPriceRegex  = regexp.MustCompile(`\$(\d+\.?\d*)\s*(?:each|kg|per)`)
	anyPriceRegex   = regexp.MustCompile(`\$(\d+\.?\d*)`)
	barePriceRegex  = regexp.MustCompile(`\$?(\d+\.?\d*)`)
	productIDRegex  = regexp.MustCompile(`/(\d{8,})/?$`)
	productUrlRegex = regexp.MustCompile(`/\d{5}/[^/]+/[^/]+/[^/]+/\d+/`)
	qsPageRegex     = regexp.MustCompile(`\?qs=(\d+)`)
	pageRangeRegex  = regexp.MustCompile(`\[(\d+)-(\d+)\]`)
)

func parseListPage(doc *goquery.Document) []ScrapedItem {
	var items []ScrapedItem

	// Tiles carry the item id and name as data attributes, with the
	// price in a sibling span.
	doc.Find("a.item-image[data-itemid]").Each(func(_ int, link *goquery.Selection) {
		itemID, _ := link.Attr("data-itemid")
		name, _ := link.Attr("data-itemname")

		parent := link.Closest("div")
		if parent.Length() == 0 {
			parent = link.Closest("li")
		}
		if parent.Length() == 0 {
			return
		}

		price := parsePriceCents(parent.Find("span.price").First().Text())

		var wasPrice int64
		if groups := wasPriceRegex.FindStringSubmatch(parent.Text()); groups != nil {
			wasPrice = parsePriceCents(groups[1])
		}

		imageUrl, _ := link.Find("img").First().Attr("src")
		if itemID != "" && strings.Contains(imageUrl, "thumbs") {
			imageUrl = salefinderImageCDN + itemID + ".jpg"
		}

		if name == "" || price <= 0 {
			return
		}
		items = append(items, ScrapedItem{
			Name:           name,
			PriceCents:     price,
			WasPriceCents:  wasPrice,
			ImageUrl:       imageUrl,
			StoreProductID: itemID,
		})
	})
	if len(items) > 0 {
		return items
	}

	// Fallback for the older page structure: product links follow a
	// /{catalogue}/{...}/{itemid}/ URL pattern with the name in an h1
	// somewhere up the tree.
	seen := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		if !productUrlRegex.MatchString(href) {
			return
		}
		groups := productIDRegex.FindStringSubmatch(strings.TrimSuffix(href, "/") + "/")
		if groups == nil {
			return
		}
		itemID := groups[1]
		if seen[itemID] {
			return
		}
		seen[itemID] = true

		container := link.Parent()
		for depth := 0; depth < 5 && container.Length() > 0; depth++ {
			if container.Find("h1").Length() > 0 {
				break
			}
			container = container.Parent()
		}
		if container.Length() == 0 {
			return
		}
		h1 := container.Find("h1").First()
		if h1.Length() == 0 {
			return
		}
		name := strings.TrimSpace(h1.Text())

		text := container.Text()
		var wasPrice int64
		if groups := wasPriceRegex.FindStringSubmatch(text); groups != nil {
			wasPrice = parsePriceCents(groups[1])
		}

		var price int64
		if groups := unitPriceRegex.FindStringSubmatch(text); groups != nil {
			price = parsePriceCents(groups[1])
		} else {
			// Smallest price on the tile is the sale price.
			for _, m := range anyPriceRegex.FindAllStringSubmatch(text, -1) {
				if p := parsePriceCents(m[1]); p > 0 && (price == 0 || p < price) {
					price = p
				}
			}
		}
		if name == "" || price <= 0 {
			return
		}

		imageUrl, ok := container.Find("img").First().Attr("src")
		if !ok || imageUrl == "" {
			imageUrl, _ = container.Find("img").First().Attr("data-src")
		}

		items = append(items, ScrapedItem{
			Name:           name,
			PriceCents:     price,
			WasPriceCents:  wasPrice,
			ImageUrl:       imageUrl,
			StoreProductID: itemID,
		})
	})

	return items
}

// detectTotalPages reads the pagination links ("?qs=N,,,," and
// "[X-Y]" range links) off the first list page.
func detectTotalPages(ctx context.Context, doc *goquery.Document) int {
	maxPage := 1
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find("a")) {
		if groups := qsPageRegex.FindStringSubmatch(anchor.Href); groups != nil {
			if n, err := strconv.Atoi(groups[1]); err == nil && n > maxPage {
				maxPage = n
			}
		}
		if groups := pageRangeRegex.FindStringSubmatch(anchor.Name); groups != nil {
			if n, err := strconv.Atoi(groups[2]); err == nil && n > maxPage {
				maxPage = n
			}
		}
	}
	return maxPage
}

func parsePriceCents(text string) int64 {
	groups := barePriceRegex.FindStringSubmatch(strings.TrimSpace(text))
	if groups == nil {
		return 0
	}
	cents, err := money.ParseDollars(groups[1])
	if err != nil {
		return 0
	}
	return cents
}

func titleWords(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		runes := []rune(f)
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}
