package specials

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"trolley-backend/lib/money"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/codes"
)

// ProductV2 is the flattened item shape of the keyset listing.
type ProductV2 struct {
	ID              int64   `json:"id"`
	Stockcode       string  `json:"stockcode"`
	Name            string  `json:"name"`
	Brand           *string `json:"brand"`
	Size            *string `json:"size"`
	Category        *string `json:"category"`
	ImageUrl        string  `json:"image_url"`
	ProductUrl      *string `json:"product_url"`
	StoreID         int64   `json:"store_id"`
	StoreName       string  `json:"store_name"`
	StoreSlug       string  `json:"store_slug"`
	Price           string  `json:"price"`
	PriceCents      int64   `json:"price_cents"`
	WasPrice        *string `json:"was_price"`
	WasPriceCents   *int64  `json:"was_price_cents"`
	DiscountPercent int64   `json:"discount_percent"`
	UnitPrice       *string `json:"unit_price"`
	ValidUntil      string  `json:"valid_until"`
}

func (r specialRow) productV2() ProductV2 {
	stockcode := strconv.FormatInt(r.ID, 10)
	if r.StoreProductID.Valid && r.StoreProductID.String != "" {
		stockcode = r.StoreProductID.String
	}
	item := ProductV2{
		ID:              r.ID,
		Stockcode:       stockcode,
		Name:            r.Name,
		Brand:           nullStr(r.Brand),
		Size:            nullStr(r.Size),
		Category:        nullStr(r.Category),
		ImageUrl:        r.ImageUrl.String,
		ProductUrl:      nullStr(r.ProductUrl),
		StoreID:         r.StoreID,
		StoreName:       r.StoreName,
		StoreSlug:       r.StoreSlug,
		Price:           money.FormatCents(r.PriceCents),
		PriceCents:      r.PriceCents,
		WasPriceCents:   nullInt(r.WasPriceCents),
		DiscountPercent: r.DiscountPercent,
		UnitPrice:       nullStr(r.UnitPrice),
		ValidUntil:      r.ValidTo,
	}
	if r.WasPriceCents.Valid {
		formatted := money.FormatCents(r.WasPriceCents.Int64)
		item.WasPrice = &formatted
	}
	return item
}

type ListV2Params struct {
	Store       string
	Category    string
	MinDiscount int64
	Search      string
	Sort        string
	Cursor      string
	Limit       int
}

type ListV2Result struct {
	Items   []ProductV2 `json:"items"`
	Total   int64       `json:"total"`
	Cursor  *string     `json:"cursor"`
	HasMore bool        `json:"has_more"`
}

// decodeCursor splits a "<sortval>:<id>" cursor at its last colon so
// sort values containing colons survive the round trip.
func decodeCursor(cursor string) (string, int64, bool) {
	idx := strings.LastIndex(cursor, ":")
	if idx < 0 {
		return "", 0, false
	}
	id, err := strconv.ParseInt(cursor[idx+1:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return cursor[:idx], id, true
}

// cursorCondition translates a cursor into the keyset predicate for the
// active sort. Malformed cursors are ignored and the listing restarts
// from the top.
func cursorCondition(sort, cursor string) (string, []interface{}) {
	value, id, ok := decodeCursor(cursor)
	if !ok {
		return "", nil
	}
	switch sort {
	case "price":
		cents, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return "", nil
		}
		return "(sp.price_cents > ? OR (sp.price_cents = ? AND sp.id > ?))",
			[]interface{}{cents, cents, id}
	case "name":
		return "(sp.name > ? OR (sp.name = ? AND sp.id > ?))",
			[]interface{}{value, value, id}
	default:
		discount, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return "", nil
		}
		return "(sp.discount_percent < ? OR (sp.discount_percent = ? AND sp.id > ?))",
			[]interface{}{discount, discount, id}
	}
}

func nextCursor(sort string, last specialRow) string {
	switch sort {
	case "price":
		return fmt.Sprintf("%d:%d", last.PriceCents, last.ID)
	case "name":
		return fmt.Sprintf("%s:%d", last.Name, last.ID)
	default:
		return fmt.Sprintf("%d:%d", last.DiscountPercent, last.ID)
	}
}

// ListV2 pages through specials with a keyset cursor instead of
// offsets, so deep pages stay as cheap as the first one.
func (s Service) ListV2(ctx context.Context, params ListV2Params) (ListV2Result, error) {
	ctx, span := tracer.Start(ctx, "ListV2")
	defer span.End()

	conds, args, err := s.buildFilter(ctx, ListParams{
		Store:       params.Store,
		Category:    params.Category,
		MinDiscount: params.MinDiscount,
		Search:      params.Search,
	}, false)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ListV2Result{}, err
	}

	total, err := s.countSpecials(ctx, conds, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ListV2Result{}, fmt.Errorf("count specials: %w", err)
	}

	if params.Cursor != "" {
		if cond, cursorArgs := cursorCondition(params.Sort, params.Cursor); cond != "" {
			conds = append(conds, cond)
			args = append(args, cursorArgs...)
		}
	}

	// fetch one extra row to learn whether another page exists
	query := fmt.Sprintf(
		"SELECT %s FROM specials sp JOIN stores s ON s.id = sp.store_id WHERE %s ORDER BY %s LIMIT ?",
		specialColumns, strings.Join(conds, " AND "), orderClause(params.Sort),
	)
	args = append(args, params.Limit+1)
	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ListV2Result{}, err
	}

	var rows []specialRow
	err = s.sx.SelectContext(ctx, &rows, query, expanded...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ListV2Result{}, fmt.Errorf("list specials: %w", err)
	}

	hasMore := len(rows) > params.Limit
	if hasMore {
		rows = rows[:params.Limit]
	}

	items := make([]ProductV2, len(rows))
	for i, r := range rows {
		items[i] = r.productV2()
	}

	result := ListV2Result{
		Items:   items,
		Total:   total,
		HasMore: hasMore,
	}
	if hasMore && len(rows) > 0 {
		cursor := nextCursor(params.Sort, rows[len(rows)-1])
		result.Cursor = &cursor
	}
	return result, nil
}

type PriceDetailV2 struct {
	Price           *string `json:"price"`
	WasPrice        *string `json:"was_price"`
	DiscountPercent int64   `json:"discount_percent"`
	ValidUntil      string  `json:"valid_until"`
}

type ProductDetailV2 struct {
	Product      ProductV2     `json:"product"`
	CurrentPrice PriceDetailV2 `json:"current_price"`
	PriceHistory []SpecialInfo `json:"price_history"`
}

// ProductV2 resolves one special into the v2 detail shape. The
// history list is empty, specials rows carry no link back to catalog
// products.
func (s Service) ProductV2(ctx context.Context, id int64) (ProductDetailV2, error) {
	ctx, span := tracer.Start(ctx, "ProductV2")
	defer span.End()

	row, err := s.qry.GetSpecial(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ProductDetailV2{}, err
	}

	item := specialRow(row).productV2()
	detail := ProductDetailV2{
		Product: item,
		CurrentPrice: PriceDetailV2{
			Price:           &item.Price,
			WasPrice:        item.WasPrice,
			DiscountPercent: item.DiscountPercent,
			ValidUntil:      row.ValidTo,
		},
		PriceHistory: []SpecialInfo{},
	}
	return detail, nil
}
