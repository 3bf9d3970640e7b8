package ingest

import (
	"bytes"
	"context"
	"net/http/cookiejar"
	"strconv"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"trolley-backend/lib/restyutil"
)

// newScrapeClient builds a resty client with the cloudflare bypass
// transport and a browser user agent, which the supermarket sites
// require before they will serve product data.
func newScrapeClient(baseUrl string) *resty.Client {
	client := resty.New()
	if baseUrl != "" {
		client.SetBaseURL(baseUrl)
	}
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", scraperUserAgent)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(time.Second * 30)
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	return client
}

// newImportClient builds the client for the chains' product APIs,
// which additionally check Accept-Language and Origin before serving
// JSON.
func newImportClient() *resty.Client {
	client := newScrapeClient("")
	client.SetHeaders(map[string]string{
		"accept":          "application/json, text/plain, */*",
		"accept-language": "en-AU,en;q=0.9",
		"origin":          "https://www.woolworths.com.au",
		"referer":         "https://www.woolworths.com.au/",
	})
	return client
}

// newOffClient builds the Open Food Facts client. No bypass transport
// here, their API is a plain public one.
func newOffClient() *resty.Client {
	client := resty.New().SetTimeout(time.Second * 30)
	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)
	return client
}

func newDocument(body []byte) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewReader(body))
}

// sleepCtx pauses between page fetches without outliving the request.
func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// jsonObject navigates the loosely shaped payloads embedded in store
// pages, where the same field goes by different names between page
// versions ("price" vs "salePrice" vs "Price").
type jsonObject map[string]any

func (o jsonObject) object(key string) jsonObject {
	m, _ := o[key].(map[string]any)
	return m
}

func (o jsonObject) array(key string) []jsonObject {
	raw, _ := o[key].([]any)
	var objects []jsonObject
	for _, item := range raw {
		if m, ok := item.(map[string]any); ok {
			objects = append(objects, m)
		}
	}
	return objects
}

// text returns the first non-empty string value among keys. Numeric
// values are formatted, which covers ids served as numbers.
func (o jsonObject) text(keys ...string) string {
	for _, k := range keys {
		switch v := o[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// number returns the first non-zero numeric value among keys.
func (o jsonObject) number(keys ...string) float64 {
	for _, k := range keys {
		switch v := o[k].(type) {
		case float64:
			if v != 0 {
				return v
			}
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil && f != 0 {
				return f
			}
		}
	}
	return 0
}
