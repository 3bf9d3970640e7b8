package compare

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trolley-backend/internal/db"
	"trolley-backend/lib/money"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/compare")

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

func nullStr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}

// StorePrice is one store's latest observed price for a product.
type StorePrice struct {
	StoreID        int64  `json:"store_id"`
	StoreName      string `json:"store_name"`
	StoreSlug      string `json:"store_slug"`
	PriceCents     int64  `json:"price_cents"`
	Price          string `json:"price"`
	UnitPriceCents *int64 `json:"unit_price_cents"`
	IsSpecial      bool   `json:"is_special"`
	WasPriceCents  *int64 `json:"was_price_cents"`
	SavingsCents   *int64 `json:"savings_cents"`
}

type PriceComparison struct {
	ProductID            int64        `json:"product_id"`
	ProductName          string       `json:"product_name"`
	Stores               []StorePrice `json:"stores"`
	CheapestStore        *string      `json:"cheapest_store"`
	PriceDifferenceCents *int64       `json:"price_difference_cents"`
}

// storePrices resolves every store's latest price for one product.
func (s Service) storePrices(ctx context.Context, productID int64) ([]StorePrice, error) {
	storeProducts, err := s.qry.ListStoreProductsForProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	var prices []StorePrice
	for _, sp := range storeProducts {
		price, err := s.qry.LatestPriceForStoreProduct(ctx, sp.ID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		prices = append(prices, StorePrice{
			StoreID:        sp.StoreID,
			StoreName:      sp.StoreName,
			StoreSlug:      sp.StoreSlug,
			PriceCents:     price.PriceCents,
			Price:          money.FormatCents(price.PriceCents),
			UnitPriceCents: nullInt(price.UnitPriceCents),
			IsSpecial:      price.IsSpecial,
			WasPriceCents:  nullInt(price.WasPriceCents),
		})
	}
	return prices, nil
}

// CompareProduct lines up one product's price at every store carrying
// it, with savings relative to the cheapest.
func (s Service) CompareProduct(ctx context.Context, productID int64) (PriceComparison, error) {
	ctx, span := tracer.Start(ctx, "CompareProduct")
	defer span.End()
	span.SetAttributes(attribute.Int64("product_id", productID))

	product, err := s.qry.GetProduct(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PriceComparison{}, err
	}

	prices, err := s.storePrices(ctx, productID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PriceComparison{}, fmt.Errorf("resolve store prices: %w", err)
	}

	comparison := PriceComparison{
		ProductID:   productID,
		ProductName: product.Name,
		Stores:      prices,
	}
	if len(prices) == 0 {
		comparison.Stores = []StorePrice{}
		return comparison, nil
	}

	minCents, maxCents := prices[0].PriceCents, prices[0].PriceCents
	minStore := prices[0].StoreName
	for _, p := range prices[1:] {
		if p.PriceCents < minCents {
			minCents = p.PriceCents
			minStore = p.StoreName
		}
		if p.PriceCents > maxCents {
			maxCents = p.PriceCents
		}
	}
	if len(prices) > 1 {
		for i := range comparison.Stores {
			if diff := comparison.Stores[i].PriceCents - minCents; diff > 0 {
				comparison.Stores[i].SavingsCents = &diff
			}
		}
	}
	diff := maxCents - minCents
	comparison.CheapestStore = &minStore
	comparison.PriceDifferenceCents = &diff
	return comparison, nil
}

type BasketStoreTotal struct {
	StoreName    string   `json:"store_name"`
	TotalCents   int64    `json:"total_cents"`
	Total        string   `json:"total"`
	ItemsFound   int      `json:"items_found"`
	ItemsMissing []string `json:"items_missing"`
}

type BasketComparison struct {
	BasketSize         int                         `json:"basket_size"`
	StoreTotals        map[string]BasketStoreTotal `json:"store_totals"`
	CheapestStore      string                      `json:"cheapest_store"`
	CheapestTotalCents int64                       `json:"cheapest_total_cents"`
	CheapestTotal      string                      `json:"cheapest_total"`
	SavingsCents       int64                       `json:"savings_cents"`
}

// CompareBasket totals a list of products at every store. Only stores
// stocking the most basket items compete for cheapest, so a store
// missing half the basket cannot win on an artificially low total.
func (s Service) CompareBasket(ctx context.Context, productIDs []int64) (BasketComparison, error) {
	ctx, span := tracer.Start(ctx, "CompareBasket")
	defer span.End()
	span.SetAttributes(attribute.Int("basket_size", len(productIDs)))

	stores, err := s.qry.ListStores(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return BasketComparison{}, err
	}

	totals := make(map[string]*BasketStoreTotal, len(stores))
	for _, store := range stores {
		totals[store.Slug] = &BasketStoreTotal{
			StoreName:    store.Name,
			ItemsMissing: []string{},
		}
	}

	for _, productID := range productIDs {
		product, err := s.qry.GetProduct(ctx, productID)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return BasketComparison{}, err
		}

		prices, err := s.storePrices(ctx, productID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return BasketComparison{}, err
		}
		priced := make(map[string]int64, len(prices))
		for _, p := range prices {
			priced[p.StoreSlug] = p.PriceCents
		}

		for _, store := range stores {
			total := totals[store.Slug]
			if cents, ok := priced[store.Slug]; ok {
				total.TotalCents += cents
				total.ItemsFound++
			} else {
				total.ItemsMissing = append(total.ItemsMissing, product.Name)
			}
		}
	}

	comparison := BasketComparison{
		BasketSize:  len(productIDs),
		StoreTotals: make(map[string]BasketStoreTotal, len(totals)),
	}

	bestFound := 0
	for _, total := range totals {
		if total.ItemsFound > bestFound {
			bestFound = total.ItemsFound
		}
	}

	var cheapestSlug string
	var cheapestCents, dearestCents int64
	for _, store := range stores {
		total := totals[store.Slug]
		total.Total = money.FormatCents(total.TotalCents)
		comparison.StoreTotals[store.Slug] = *total

		if total.ItemsFound != bestFound || bestFound == 0 {
			continue
		}
		if cheapestSlug == "" || total.TotalCents < cheapestCents {
			cheapestSlug = store.Slug
			cheapestCents = total.TotalCents
		}
		if total.TotalCents > dearestCents {
			dearestCents = total.TotalCents
		}
	}

	if cheapestSlug != "" {
		comparison.CheapestStore = cheapestSlug
		comparison.CheapestTotalCents = cheapestCents
		comparison.CheapestTotal = money.FormatCents(cheapestCents)
		comparison.SavingsCents = dearestCents - cheapestCents
	}
	return comparison, nil
}
