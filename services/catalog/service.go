package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"trolley-backend/internal/db"
	"trolley-backend/lib/cacheutil"
	"trolley-backend/lib/money"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/catalog")

type Service struct {
	sx    *sqlx.DB
	qry   *db.Queries
	cache cacheutil.Cache
}

func NewService(database *sql.DB, cache cacheutil.Cache) Service {
	return Service{
		sx:    sqlx.NewDb(database, "sqlite"),
		qry:   db.New(database),
		cache: cache,
	}
}

// ProductInfo is the public view of a product row.
type ProductInfo struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Brand        *string `json:"brand"`
	CategoryID   *int64  `json:"category_id"`
	Size         *string `json:"size"`
	Barcode      *string `json:"barcode"`
	ImageUrl     *string `json:"image_url"`
	IsKeyProduct bool    `json:"is_key_product"`
	CreatedAt    string  `json:"created_at"`
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

func productInfo(p db.Product) ProductInfo {
	return ProductInfo{
		ID:           p.ID,
		Name:         p.Name,
		Brand:        nullStr(p.Brand),
		CategoryID:   nullInt(p.CategoryID),
		Size:         nullStr(p.Size),
		Barcode:      nullStr(p.Barcode),
		ImageUrl:     nullStr(p.ImageUrl),
		IsKeyProduct: p.IsKeyProduct,
		CreatedAt:    p.CreatedAt,
	}
}

type StoreInfo struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	LogoUrl     *string `json:"logo_url"`
	SpecialsDay *string `json:"specials_day"`
}

func (s Service) ListStores(ctx context.Context) ([]StoreInfo, error) {
	ctx, span := tracer.Start(ctx, "ListStores")
	defer span.End()

	rows, err := s.qry.ListStores(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	stores := make([]StoreInfo, len(rows))
	for i, r := range rows {
		stores[i] = StoreInfo{
			ID:          r.ID,
			Name:        r.Name,
			Slug:        r.Slug,
			LogoUrl:     nullStr(r.LogoUrl),
			SpecialsDay: nullStr(r.SpecialsDay),
		}
	}
	return stores, nil
}

type ListProductsParams struct {
	Skip       int
	Limit      int
	CategoryID int64
	KeyOnly    bool
	Search     string
}

type productRow struct {
	ID           int64          `db:"id"`
	Name         string         `db:"name"`
	Brand        sql.NullString `db:"brand"`
	CategoryID   sql.NullInt64  `db:"category_id"`
	Size         sql.NullString `db:"size"`
	Barcode      sql.NullString `db:"barcode"`
	ImageUrl     sql.NullString `db:"image_url"`
	IsKeyProduct bool           `db:"is_key_product"`
	CreatedAt    string         `db:"created_at"`
	UpdatedAt    string         `db:"updated_at"`
}

func (r productRow) info() ProductInfo {
	return ProductInfo{
		ID:           r.ID,
		Name:         r.Name,
		Brand:        nullStr(r.Brand),
		CategoryID:   nullInt(r.CategoryID),
		Size:         nullStr(r.Size),
		Barcode:      nullStr(r.Barcode),
		ImageUrl:     nullStr(r.ImageUrl),
		IsKeyProduct: r.IsKeyProduct,
		CreatedAt:    r.CreatedAt,
	}
}

func (s Service) listProductRows(ctx context.Context, params ListProductsParams) ([]productRow, error) {
	query := `SELECT id, name, brand, category_id, size, barcode, image_url, is_key_product, created_at, updated_at FROM products`
	var conds []string
	var args []interface{}

	if params.CategoryID != 0 {
		conds = append(conds, "category_id = ?")
		args = append(args, params.CategoryID)
	}
	if params.KeyOnly {
		conds = append(conds, "is_key_product = 1")
	}
	if params.Search != "" {
		conds = append(conds, "(name LIKE ? OR brand LIKE ?)")
		pattern := "%" + params.Search + "%"
		args = append(args, pattern, pattern)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, params.Limit, params.Skip)

	var rows []productRow
	err := s.sx.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

func (s Service) ListProducts(ctx context.Context, params ListProductsParams) ([]ProductInfo, error) {
	ctx, span := tracer.Start(ctx, "ListProducts")
	defer span.End()

	rows, err := s.listProductRows(ctx, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	products := make([]ProductInfo, len(rows))
	for i, r := range rows {
		products[i] = r.info()
	}
	return products, nil
}

func (s Service) SearchProducts(ctx context.Context, q string, limit int) ([]ProductInfo, error) {
	ctx, span := tracer.Start(ctx, "SearchProducts")
	defer span.End()
	span.SetAttributes(attribute.String("q", q))

	pattern := "%" + q + "%"
	rows, err := s.qry.SearchProducts(ctx, db.SearchProductsParams{
		Name:  pattern,
		Brand: sql.NullString{String: pattern, Valid: true},
		Limit: int64(limit),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	products := make([]ProductInfo, len(rows))
	for i, r := range rows {
		products[i] = productInfo(r)
	}
	return products, nil
}

func (s Service) ListKeyProducts(ctx context.Context) ([]ProductInfo, error) {
	ctx, span := tracer.Start(ctx, "ListKeyProducts")
	defer span.End()

	rows, err := s.qry.ListKeyProducts(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	products := make([]ProductInfo, len(rows))
	for i, r := range rows {
		products[i] = productInfo(r)
	}
	return products, nil
}

func (s Service) GetProduct(ctx context.Context, id int64) (ProductInfo, error) {
	product, err := s.qry.GetProduct(ctx, id)
	if err != nil {
		return ProductInfo{}, err
	}
	return productInfo(product), nil
}

type CreateProductParams struct {
	Name       string `json:"name" binding:"required"`
	Brand      string `json:"brand"`
	CategoryID int64  `json:"category_id"`
	Size       string `json:"size"`
	Barcode    string `json:"barcode"`
	ImageUrl   string `json:"image_url"`
	KeyProduct bool   `json:"is_key_product"`
}

func (s Service) CreateProduct(ctx context.Context, params CreateProductParams) (ProductInfo, error) {
	ctx, span := tracer.Start(ctx, "CreateProduct")
	defer span.End()

	product, err := s.qry.CreateProduct(ctx, db.CreateProductParams{
		Name:         params.Name,
		Brand:        sql.NullString{String: params.Brand, Valid: params.Brand != ""},
		CategoryID:   sql.NullInt64{Int64: params.CategoryID, Valid: params.CategoryID != 0},
		Size:         sql.NullString{String: params.Size, Valid: params.Size != ""},
		Barcode:      sql.NullString{String: params.Barcode, Valid: params.Barcode != ""},
		ImageUrl:     sql.NullString{String: params.ImageUrl, Valid: params.ImageUrl != ""},
		IsKeyProduct: params.KeyProduct,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ProductInfo{}, err
	}
	return productInfo(product), nil
}

// StorePriceInfo is one store's latest price for a product.
type StorePriceInfo struct {
	StoreID        int64   `json:"store_id"`
	StoreName      string  `json:"store_name"`
	StoreSlug      string  `json:"store_slug"`
	PriceCents     int64   `json:"price_cents"`
	Price          string  `json:"price"`
	WasPriceCents  *int64  `json:"was_price_cents"`
	UnitPriceCents *int64  `json:"unit_price_cents"`
	IsSpecial      bool    `json:"is_special"`
	SpecialType    *string `json:"special_type"`
	RecordedAt     string  `json:"recorded_at"`
	ImageUrl       *string `json:"image_url"`
}

type ProductWithPrices struct {
	ProductInfo
	Prices []StorePriceInfo `json:"prices"`
}

type WithPricesParams struct {
	Skip         int
	Limit        int
	CategoryID   int64
	Search       string
	SpecialsOnly bool
}

type storeProductRow struct {
	ID        int64          `db:"id"`
	ProductID int64          `db:"product_id"`
	StoreID   int64          `db:"store_id"`
	ImageUrl  sql.NullString `db:"image_url"`
	StoreName string         `db:"store_name"`
	StoreSlug string         `db:"store_slug"`
}

type priceRow struct {
	ID             int64          `db:"id"`
	StoreProductID int64          `db:"store_product_id"`
	PriceCents     int64          `db:"price_cents"`
	WasPriceCents  sql.NullInt64  `db:"was_price_cents"`
	UnitPriceCents sql.NullInt64  `db:"unit_price_cents"`
	IsSpecial      bool           `db:"is_special"`
	SpecialType    sql.NullString `db:"special_type"`
	RecordedAt     string         `db:"recorded_at"`
}

// ListProductsWithPrices joins each matched product to every store's
// latest price recorded within the last 30 days.
func (s Service) ListProductsWithPrices(ctx context.Context, params WithPricesParams) ([]ProductWithPrices, error) {
	ctx, span := tracer.Start(ctx, "ListProductsWithPrices")
	defer span.End()

	products, err := s.listProductRows(ctx, ListProductsParams{
		Skip:       params.Skip,
		Limit:      params.Limit,
		CategoryID: params.CategoryID,
		Search:     params.Search,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(products) == 0 {
		return []ProductWithPrices{}, nil
	}

	productIDs := make([]int64, len(products))
	for i, p := range products {
		productIDs[i] = p.ID
	}

	priceMap, err := s.latestPricesByProduct(ctx, productIDs, params.SpecialsOnly)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var result []ProductWithPrices
	for _, p := range products {
		prices := priceMap[p.ID]
		if params.SpecialsOnly && len(prices) == 0 {
			continue
		}
		if prices == nil {
			prices = []StorePriceInfo{}
		}
		result = append(result, ProductWithPrices{ProductInfo: p.info(), Prices: prices})
	}
	return result, nil
}

// SearchProductsWithPrices is the search variant, ordered so products
// carried by the most stores come first.
func (s Service) SearchProductsWithPrices(ctx context.Context, q string, limit int) ([]ProductWithPrices, error) {
	ctx, span := tracer.Start(ctx, "SearchProductsWithPrices")
	defer span.End()
	span.SetAttributes(attribute.String("q", q))

	result, err := s.ListProductsWithPrices(ctx, WithPricesParams{Limit: limit, Search: q})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(result, func(i, j int) bool {
		if len(result[i].Prices) != len(result[j].Prices) {
			return len(result[i].Prices) > len(result[j].Prices)
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// latestPricesByProduct resolves the newest price per (product, store)
// pair recorded in the last 30 days, keyed by product id.
func (s Service) latestPricesByProduct(ctx context.Context, productIDs []int64, specialsOnly bool) (map[int64][]StorePriceInfo, error) {
	query, args, err := sqlx.In(`
		SELECT sp.id, sp.product_id, sp.store_id, sp.image_url, s.name AS store_name, s.slug AS store_slug
		FROM store_products sp
		JOIN stores s ON s.id = sp.store_id
		WHERE sp.product_id IN (?)`, productIDs)
	if err != nil {
		return nil, err
	}
	var storeProducts []storeProductRow
	err = s.sx.SelectContext(ctx, &storeProducts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load store products: %w", err)
	}
	if len(storeProducts) == 0 {
		return map[int64][]StorePriceInfo{}, nil
	}

	spIDs := make([]int64, len(storeProducts))
	for i, sp := range storeProducts {
		spIDs[i] = sp.ID
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339)
	priceQuery := `
		SELECT id, store_product_id, price_cents, was_price_cents, unit_price_cents, is_special, special_type, recorded_at
		FROM prices
		WHERE store_product_id IN (?) AND recorded_at >= ?`
	if specialsOnly {
		priceQuery += " AND is_special = 1"
	}
	priceQuery += " ORDER BY recorded_at DESC, id DESC"

	query, args, err = sqlx.In(priceQuery, spIDs, cutoff)
	if err != nil {
		return nil, err
	}
	var prices []priceRow
	err = s.sx.SelectContext(ctx, &prices, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}

	// rows are newest first, keep only the first per store product
	latest := make(map[int64]priceRow)
	for _, p := range prices {
		if _, seen := latest[p.StoreProductID]; !seen {
			latest[p.StoreProductID] = p
		}
	}

	result := make(map[int64][]StorePriceInfo)
	for _, sp := range storeProducts {
		price, ok := latest[sp.ID]
		if !ok {
			continue
		}
		result[sp.ProductID] = append(result[sp.ProductID], StorePriceInfo{
			StoreID:        sp.StoreID,
			StoreName:      sp.StoreName,
			StoreSlug:      sp.StoreSlug,
			PriceCents:     price.PriceCents,
			Price:          money.FormatCents(price.PriceCents),
			WasPriceCents:  nullInt(price.WasPriceCents),
			UnitPriceCents: nullInt(price.UnitPriceCents),
			IsSpecial:      price.IsSpecial,
			SpecialType:    nullStr(price.SpecialType),
			RecordedAt:     price.RecordedAt,
			ImageUrl:       nullStr(sp.ImageUrl),
		})
	}
	return result, nil
}
