// Package history serves historical price data for a product: the raw
// observation series, a 30-day summary with a trend signal, and
// per-store chart series. The full series and chart data are premium
// features; the summary is available to any signed-in user.
package history

import (
	"context"
	"database/sql"
	"math"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"trolley-backend/internal/db"
	"trolley-backend/lib/money"
)

var tracer = otel.Tracer("services/history")

type Service struct {
	sx  *sqlx.DB
	qry *db.Queries
}

func NewService(database *sql.DB) Service {
	return Service{
		sx:  sqlx.NewDb(database, "sqlite"),
		qry: db.New(database),
	}
}

type PricePoint struct {
	Date       string `json:"date"`
	PriceCents int64  `json:"price_cents"`
	Price      string `json:"price"`
	IsSpecial  bool   `json:"is_special"`
	StoreName  string `json:"store_name"`
	StoreSlug  string `json:"store_slug"`
}

type HistoryStats struct {
	MinPriceCents   *int64 `json:"min_price_cents"`
	MaxPriceCents   *int64 `json:"max_price_cents"`
	AvgPriceCents   *int64 `json:"avg_price_cents"`
	CurrentMinCents *int64 `json:"current_min_cents"`
	CurrentMaxCents *int64 `json:"current_max_cents"`
	PricePoints     int64  `json:"price_points"`
	SpecialCount    int64  `json:"special_count"`
}

type PriceHistory struct {
	ProductID    int64        `json:"product_id"`
	ProductName  string       `json:"product_name"`
	ProductBrand *string      `json:"product_brand,omitempty"`
	History      []PricePoint `json:"history"`
	Stats        HistoryStats `json:"stats"`
}

type PriceSummary struct {
	ProductID       int64  `json:"product_id"`
	CurrentMinCents *int64 `json:"current_min_cents"`
	CurrentMaxCents *int64 `json:"current_max_cents"`
	Avg30dCents     *int64 `json:"avg_30d_cents"`
	Min30dCents     *int64 `json:"min_30d_cents"`
	Max30dCents     *int64 `json:"max_30d_cents"`
	Trend           string `json:"trend"`
	HasSpecial      bool   `json:"has_special"`
}

type ChartPoint struct {
	Date     string           `json:"date"`
	Prices   map[string]int64 `json:"prices"`
	Specials map[string]bool  `json:"specials,omitempty"`
}

type ChartStore struct {
	Slug  string `json:"slug"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type ChartData struct {
	ProductName  string       `json:"product_name"`
	ProductBrand *string      `json:"product_brand,omitempty"`
	Data         []ChartPoint `json:"data"`
	Stores       []ChartStore `json:"stores"`
}

var storeColors = map[string]string{
	"woolworths": "#00A651",
	"coles":      "#E01A22",
	"aldi":       "#00448C",
}

func storeColor(slug string) string {
	if color, ok := storeColors[slug]; ok {
		return color
	}
	return "#666666"
}

type historyRow struct {
	PriceCents int64  `db:"price_cents"`
	IsSpecial  bool   `db:"is_special"`
	RecordedAt string `db:"recorded_at"`
	StoreID    int64  `db:"store_id"`
	StoreName  string `db:"store_name"`
	StoreSlug  string `db:"store_slug"`
}

type currentPriceRow struct {
	PriceCents int64 `db:"price_cents"`
	IsSpecial  bool  `db:"is_special"`
	StoreID    int64 `db:"store_id"`
}

func (service Service) observations(ctx context.Context, productID int64, since string, storeID *int64) ([]historyRow, error) {
	query := `SELECT pr.price_cents, pr.is_special, pr.recorded_at, sp.store_id,
		s.name AS store_name, s.slug AS store_slug
		FROM prices pr
		JOIN store_products sp ON sp.id = pr.store_product_id
		JOIN stores s ON s.id = sp.store_id
		WHERE sp.product_id = ? AND pr.recorded_at >= ?`
	args := []interface{}{productID, since}
	if storeID != nil {
		query += ` AND sp.store_id = ?`
		args = append(args, *storeID)
	}
	query += ` ORDER BY pr.recorded_at, pr.id`

	var rows []historyRow
	if err := service.sx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// currentPrices returns the most recent observation per store,
// regardless of any history window.
func (service Service) currentPrices(ctx context.Context, productID int64, since string) ([]currentPriceRow, error) {
	query := `SELECT pr.price_cents, pr.is_special, sp.store_id
		FROM prices pr
		JOIN store_products sp ON sp.id = pr.store_product_id
		WHERE sp.product_id = ?`
	args := []interface{}{productID}
	if since != "" {
		query += ` AND pr.recorded_at >= ?`
		args = append(args, since)
	}
	query += ` ORDER BY pr.recorded_at DESC, pr.id DESC`

	var rows []currentPriceRow
	if err := service.sx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	seen := map[int64]bool{}
	current := []currentPriceRow{}
	for _, row := range rows {
		if seen[row.StoreID] {
			continue
		}
		seen[row.StoreID] = true
		current = append(current, row)
	}
	return current, nil
}

func sinceDate(days int64) string {
	return time.Now().UTC().AddDate(0, 0, -int(days)).Format(time.RFC3339)
}

func dateOf(recordedAt string) string {
	if len(recordedAt) >= 10 {
		return recordedAt[:10]
	}
	return recordedAt
}

// History returns the raw price series for a product over the given
// window, with series-wide and current stats.
func (service Service) History(ctx context.Context, productID, days int64, storeID *int64) (PriceHistory, error) {
	ctx, span := tracer.Start(ctx, "History")
	defer span.End()
	span.SetAttributes(attribute.Int64("product_id", productID), attribute.Int64("days", days))

	fail := func(err error) (PriceHistory, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PriceHistory{}, err
	}

	product, err := service.qry.GetProduct(ctx, productID)
	if err == sql.ErrNoRows {
		return PriceHistory{}, err
	} else if err != nil {
		return fail(err)
	}

	rows, err := service.observations(ctx, productID, sinceDate(days), storeID)
	if err != nil {
		return fail(err)
	}

	history := make([]PricePoint, 0, len(rows))
	for _, row := range rows {
		history = append(history, PricePoint{
			Date:       dateOf(row.RecordedAt),
			PriceCents: row.PriceCents,
			Price:      money.FormatCents(row.PriceCents),
			IsSpecial:  row.IsSpecial,
			StoreName:  row.StoreName,
			StoreSlug:  row.StoreSlug,
		})
	}

	stats := HistoryStats{}
	if len(rows) > 0 {
		minCents, maxCents := rows[0].PriceCents, rows[0].PriceCents
		var sum, specials int64
		for _, row := range rows {
			if row.PriceCents < minCents {
				minCents = row.PriceCents
			}
			if row.PriceCents > maxCents {
				maxCents = row.PriceCents
			}
			sum += row.PriceCents
			if row.IsSpecial {
				specials++
			}
		}
		avg := int64(math.Round(float64(sum) / float64(len(rows))))
		stats.MinPriceCents = &minCents
		stats.MaxPriceCents = &maxCents
		stats.AvgPriceCents = &avg
		stats.PricePoints = int64(len(rows))
		stats.SpecialCount = specials

		current, err := service.currentPrices(ctx, productID, "")
		if err != nil {
			return fail(err)
		}
		stats.CurrentMinCents, stats.CurrentMaxCents = minMaxCents(current)
	}

	result := PriceHistory{
		ProductID:   product.ID,
		ProductName: product.Name,
		History:     history,
		Stats:       stats,
	}
	if product.Brand.Valid {
		result.ProductBrand = &product.Brand.String
	}
	span.SetAttributes(attribute.Int("points", len(history)))
	return result, nil
}

func minMaxCents(rows []currentPriceRow) (*int64, *int64) {
	if len(rows) == 0 {
		return nil, nil
	}
	minCents, maxCents := rows[0].PriceCents, rows[0].PriceCents
	for _, row := range rows[1:] {
		if row.PriceCents < minCents {
			minCents = row.PriceCents
		}
		if row.PriceCents > maxCents {
			maxCents = row.PriceCents
		}
	}
	return &minCents, &maxCents
}

// Summary gives 30-day stats and a trend signal without the raw
// series. The trend compares the current cheapest store against the
// 30-day low; has_special only looks at each store's newest price.
func (service Service) Summary(ctx context.Context, productID int64) (PriceSummary, error) {
	ctx, span := tracer.Start(ctx, "Summary")
	defer span.End()
	span.SetAttributes(attribute.Int64("product_id", productID))

	fail := func(err error) (PriceSummary, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PriceSummary{}, err
	}

	product, err := service.qry.GetProduct(ctx, productID)
	if err == sql.ErrNoRows {
		return PriceSummary{}, err
	} else if err != nil {
		return fail(err)
	}

	since := sinceDate(30)
	rows, err := service.observations(ctx, productID, since, nil)
	if err != nil {
		return fail(err)
	}

	summary := PriceSummary{ProductID: product.ID, Trend: "stable"}
	if len(rows) > 0 {
		minCents, maxCents := rows[0].PriceCents, rows[0].PriceCents
		var sum int64
		for _, row := range rows {
			if row.PriceCents < minCents {
				minCents = row.PriceCents
			}
			if row.PriceCents > maxCents {
				maxCents = row.PriceCents
			}
			sum += row.PriceCents
		}
		avg := int64(math.Round(float64(sum) / float64(len(rows))))
		summary.Min30dCents = &minCents
		summary.Max30dCents = &maxCents
		summary.Avg30dCents = &avg

		current, err := service.currentPrices(ctx, productID, since)
		if err != nil {
			return fail(err)
		}
		summary.CurrentMinCents, summary.CurrentMaxCents = minMaxCents(current)
		for _, row := range current {
			if row.IsSpecial {
				summary.HasSpecial = true
			}
		}
	}

	if summary.CurrentMinCents != nil && summary.Min30dCents != nil &&
		*summary.CurrentMinCents != 0 && *summary.Min30dCents != 0 {
		current, low := float64(*summary.CurrentMinCents), float64(*summary.Min30dCents)
		if current < low*0.95 {
			summary.Trend = "down"
		} else if current > low*1.05 {
			summary.Trend = "up"
		}
	}
	return summary, nil
}

// Chart aggregates observations per calendar date with one price per
// store, shaped for a multi-line price chart.
func (service Service) Chart(ctx context.Context, productID, days int64) (ChartData, error) {
	ctx, span := tracer.Start(ctx, "Chart")
	defer span.End()
	span.SetAttributes(attribute.Int64("product_id", productID), attribute.Int64("days", days))

	fail := func(err error) (ChartData, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ChartData{}, err
	}

	product, err := service.qry.GetProduct(ctx, productID)
	if err == sql.ErrNoRows {
		return ChartData{}, err
	} else if err != nil {
		return fail(err)
	}

	stores, err := service.qry.ListStores(ctx)
	if err != nil {
		return fail(err)
	}
	rows, err := service.observations(ctx, productID, sinceDate(days), nil)
	if err != nil {
		return fail(err)
	}

	points := map[string]*ChartPoint{}
	for _, row := range rows {
		date := dateOf(row.RecordedAt)
		point, ok := points[date]
		if !ok {
			point = &ChartPoint{Date: date, Prices: map[string]int64{}}
			points[date] = point
		}
		// later observations on the same date win
		point.Prices[row.StoreSlug] = row.PriceCents
		if row.IsSpecial {
			if point.Specials == nil {
				point.Specials = map[string]bool{}
			}
			point.Specials[row.StoreSlug] = true
		}
	}

	data := make([]ChartPoint, 0, len(points))
	for _, point := range points {
		data = append(data, *point)
	}
	sort.Slice(data, func(i, j int) bool { return data[i].Date < data[j].Date })

	storeInfo := make([]ChartStore, 0, len(stores))
	for _, store := range stores {
		storeInfo = append(storeInfo, ChartStore{
			Slug:  store.Slug,
			Name:  store.Name,
			Color: storeColor(store.Slug),
		})
	}

	result := ChartData{
		ProductName: product.Name,
		Data:        data,
		Stores:      storeInfo,
	}
	if product.Brand.Valid {
		result.ProductBrand = &product.Brand.String
	}
	return result, nil
}
