package staples

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"trolley-backend/lib/money"
)

// BasketItem references an offer by its specials id. ProductName is
// echoed back in missing lists when the offer no longer exists.
type BasketItem struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int64  `json:"quantity"`
}

type BasketStoreTotal struct {
	StoreID        int64    `json:"store_id"`
	StoreName      string   `json:"store_name"`
	StoreSlug      string   `json:"store_slug"`
	TotalCents     int64    `json:"total_cents"`
	Total          string   `json:"total"`
	ItemsAvailable int64    `json:"items_available"`
	ItemsMissing   []string `json:"items_missing"`
}

type BasketComparison struct {
	BasketTotals   []BasketStoreTotal `json:"basket_totals"`
	BestStore      *string            `json:"best_store,omitempty"`
	BestTotal      *string            `json:"best_total,omitempty"`
	BestTotalCents *int64             `json:"best_total_cents,omitempty"`
	SavingsVsWorst *string            `json:"savings_vs_worst,omitempty"`
	SavingsCents   *int64             `json:"savings_cents,omitempty"`
}

// BasketCompare totals a basket of specials per store. Each special
// belongs to exactly one store, so every other store records it as
// missing; stores with no items at all sort behind stores with items
// regardless of total.
func (service Service) BasketCompare(ctx context.Context, items []BasketItem) (BasketComparison, error) {
	ctx, span := tracer.Start(ctx, "BasketCompare")
	defer span.End()
	span.SetAttributes(attribute.Int("items", len(items)))

	fail := func(err error) (BasketComparison, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return BasketComparison{}, err
	}

	stores, err := service.qry.ListStores(ctx)
	if err != nil {
		return fail(err)
	}

	totals := map[int64]*BasketStoreTotal{}
	for _, store := range stores {
		totals[store.ID] = &BasketStoreTotal{
			StoreID:      store.ID,
			StoreName:    store.Name,
			StoreSlug:    store.Slug,
			ItemsMissing: []string{},
		}
	}

	for _, item := range items {
		quantity := item.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		special, err := service.qry.GetSpecial(ctx, item.ProductID)
		if err == sql.ErrNoRows {
			for _, total := range totals {
				total.ItemsMissing = append(total.ItemsMissing, item.ProductName)
			}
			continue
		} else if err != nil {
			return fail(err)
		}

		if total, ok := totals[special.StoreID]; ok {
			total.TotalCents += special.PriceCents * quantity
			total.ItemsAvailable++
		}
		for storeID, total := range totals {
			if storeID != special.StoreID {
				total.ItemsMissing = append(total.ItemsMissing, special.Name)
			}
		}
	}

	basketTotals := make([]BasketStoreTotal, 0, len(stores))
	for _, store := range stores {
		total := totals[store.ID]
		total.Total = money.FormatCents(total.TotalCents)
		basketTotals = append(basketTotals, *total)
	}
	sort.SliceStable(basketTotals, func(i, j int) bool {
		iEmpty, jEmpty := basketTotals[i].ItemsAvailable == 0, basketTotals[j].ItemsAvailable == 0
		if iEmpty != jEmpty {
			return jEmpty
		}
		return basketTotals[i].TotalCents < basketTotals[j].TotalCents
	})

	result := BasketComparison{BasketTotals: basketTotals}
	valid := []BasketStoreTotal{}
	for _, total := range basketTotals {
		if total.ItemsAvailable > 0 {
			valid = append(valid, total)
		}
	}
	if len(valid) > 0 {
		best := valid[0]
		result.BestStore = &best.StoreName
		result.BestTotal = &best.Total
		result.BestTotalCents = &best.TotalCents
		if len(valid) > 1 {
			worst := valid[0]
			for _, total := range valid[1:] {
				if total.TotalCents > worst.TotalCents {
					worst = total
				}
			}
			if worst.TotalCents > best.TotalCents {
				savings := worst.TotalCents - best.TotalCents
				formatted := fmt.Sprintf("Save %s", money.FormatCents(savings))
				result.SavingsVsWorst = &formatted
				result.SavingsCents = &savings
			}
		}
	}
	return result, nil
}
