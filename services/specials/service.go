package specials

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"trolley-backend/internal/db"
	"trolley-backend/lib/cacheutil"
	"trolley-backend/lib/money"
	"trolley-backend/lib/timezone"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/specials")

const specialColumns = `sp.id, sp.store_id, sp.name, sp.brand, sp.size, sp.category, sp.category_id,
	sp.price_cents, sp.was_price_cents, sp.discount_percent, sp.unit_price, sp.store_product_id,
	sp.product_url, sp.image_url, sp.valid_from, sp.valid_to, sp.scraped_at,
	s.name AS store_name, s.slug AS store_slug`

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

// SpecialInfo is the public view of one catalogue offer.
type SpecialInfo struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Brand           *string `json:"brand"`
	Size            *string `json:"size"`
	Category        *string `json:"category"`
	CategoryID      *int64  `json:"category_id"`
	PriceCents      int64   `json:"price_cents"`
	Price           string  `json:"price"`
	WasPriceCents   *int64  `json:"was_price_cents"`
	WasPrice        *string `json:"was_price"`
	DiscountPercent int64   `json:"discount_percent"`
	UnitPrice       *string `json:"unit_price"`
	StoreProductID  *string `json:"store_product_id"`
	ProductUrl      *string `json:"product_url"`
	ImageUrl        *string `json:"image_url"`
	ValidFrom       string  `json:"valid_from"`
	ValidTo         string  `json:"valid_to"`
	StoreID         int64   `json:"store_id"`
	StoreName       string  `json:"store_name"`
	StoreSlug       string  `json:"store_slug"`
	ScrapedAt       string  `json:"scraped_at"`
}

type specialRow struct {
	ID              int64          `db:"id"`
	StoreID         int64          `db:"store_id"`
	Name            string         `db:"name"`
	Brand           sql.NullString `db:"brand"`
	Size            sql.NullString `db:"size"`
	Category        sql.NullString `db:"category"`
	CategoryID      sql.NullInt64  `db:"category_id"`
	PriceCents      int64          `db:"price_cents"`
	WasPriceCents   sql.NullInt64  `db:"was_price_cents"`
	DiscountPercent int64          `db:"discount_percent"`
	UnitPrice       sql.NullString `db:"unit_price"`
	StoreProductID  sql.NullString `db:"store_product_id"`
	ProductUrl      sql.NullString `db:"product_url"`
	ImageUrl        sql.NullString `db:"image_url"`
	ValidFrom       string         `db:"valid_from"`
	ValidTo         string         `db:"valid_to"`
	ScrapedAt       string         `db:"scraped_at"`
	StoreName       string         `db:"store_name"`
	StoreSlug       string         `db:"store_slug"`
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

func (r specialRow) info() SpecialInfo {
	info := SpecialInfo{
		ID:              r.ID,
		Name:            r.Name,
		Brand:           nullStr(r.Brand),
		Size:            nullStr(r.Size),
		Category:        nullStr(r.Category),
		CategoryID:      nullInt(r.CategoryID),
		PriceCents:      r.PriceCents,
		Price:           money.FormatCents(r.PriceCents),
		WasPriceCents:   nullInt(r.WasPriceCents),
		DiscountPercent: r.DiscountPercent,
		UnitPrice:       nullStr(r.UnitPrice),
		StoreProductID:  nullStr(r.StoreProductID),
		ProductUrl:      nullStr(r.ProductUrl),
		ImageUrl:        nullStr(r.ImageUrl),
		ValidFrom:       r.ValidFrom,
		ValidTo:         r.ValidTo,
		StoreID:         r.StoreID,
		StoreName:       r.StoreName,
		StoreSlug:       r.StoreSlug,
		ScrapedAt:       r.ScrapedAt,
	}
	if r.WasPriceCents.Valid {
		formatted := money.FormatCents(r.WasPriceCents.Int64)
		info.WasPrice = &formatted
	}
	return info
}

func specialInfo(r db.GetSpecialRow) SpecialInfo {
	return specialRow(r).info()
}

type ListParams struct {
	Store       string
	Category    string
	CategoryID  int64
	MinDiscount int64
	Search      string
	Sort        string
	Page        int
	Limit       int
}

type ListResult struct {
	Items   []SpecialInfo `json:"items"`
	Total   int64         `json:"total"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
	HasMore bool          `json:"has_more"`
}

// buildFilter assembles the WHERE conditions shared by the offset and
// keyset listings. Slice args rely on a later sqlx.In expansion.
func (s Service) buildFilter(ctx context.Context, params ListParams, smartSearch bool) ([]string, []interface{}, error) {
	conds := []string{"sp.valid_to >= ?"}
	args := []interface{}{timezone.Today()}

	if params.Store != "" {
		conds = append(conds, "s.slug = ?")
		args = append(args, params.Store)
	}
	if params.Category != "" {
		conds = append(conds, "sp.category = ?")
		args = append(args, params.Category)
	}
	if params.CategoryID != 0 {
		ids, err := s.categoryFilterIDs(ctx, params.CategoryID)
		if err != nil {
			return nil, nil, err
		}
		conds = append(conds, "sp.category_id IN (?)")
		args = append(args, ids)
	}
	if params.MinDiscount > 0 {
		conds = append(conds, "sp.discount_percent >= ?")
		args = append(args, params.MinDiscount)
	}
	if params.Search != "" {
		textSearch := true
		if smartSearch && params.CategoryID == 0 {
			// a search like "milk" means the milk aisle, not products
			// with milk in the name
			if ids, ok, err := s.searchCategoryIDs(ctx, params.Search); err != nil {
				return nil, nil, err
			} else if ok {
				conds = append(conds, "sp.category_id IN (?)")
				args = append(args, ids)
				textSearch = false
			}
		}
		if textSearch {
			conds = append(conds, "(sp.name LIKE ? OR sp.brand LIKE ?)")
			pattern := "%" + params.Search + "%"
			args = append(args, pattern, pattern)
		}
	}
	return conds, args, nil
}

func orderClause(sort string) string {
	switch sort {
	case "price":
		return "sp.price_cents, sp.id"
	case "name":
		return "sp.name, sp.id"
	default:
		return "sp.discount_percent DESC, sp.id"
	}
}

func (s Service) countSpecials(ctx context.Context, conds []string, args []interface{}) (int64, error) {
	query := "SELECT COUNT(*) FROM specials sp JOIN stores s ON s.id = sp.store_id WHERE " +
		strings.Join(conds, " AND ")
	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		return 0, err
	}
	var total int64
	err = s.sx.GetContext(ctx, &total, query, expanded...)
	return total, err
}

// List serves the offset-paginated listing. Total is counted before
// pagination so clients can render page controls.
func (s Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()
	span.SetAttributes(
		attribute.String("store", params.Store),
		attribute.Int("page", params.Page),
	)

	conds, args, err := s.buildFilter(ctx, params, true)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ListResult{}, err
	}

	total, err := s.countSpecials(ctx, conds, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ListResult{}, fmt.Errorf("count specials: %w", err)
	}

	skip := (params.Page - 1) * params.Limit
	query := fmt.Sprintf(
		"SELECT %s FROM specials sp JOIN stores s ON s.id = sp.store_id WHERE %s ORDER BY %s LIMIT ? OFFSET ?",
		specialColumns, strings.Join(conds, " AND "), orderClause(params.Sort),
	)
	args = append(args, params.Limit, skip)
	query, expanded, err := sqlx.In(query, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ListResult{}, err
	}

	var rows []specialRow
	err = s.sx.SelectContext(ctx, &rows, query, expanded...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ListResult{}, fmt.Errorf("list specials: %w", err)
	}

	items := make([]SpecialInfo, len(rows))
	for i, r := range rows {
		items[i] = r.info()
	}
	return ListResult{
		Items:   items,
		Total:   total,
		Page:    params.Page,
		Limit:   params.Limit,
		HasMore: int64(skip+params.Limit) < total,
	}, nil
}

func (s Service) GetSpecial(ctx context.Context, id int64) (SpecialInfo, error) {
	row, err := s.qry.GetSpecial(ctx, id)
	if err != nil {
		return SpecialInfo{}, err
	}
	return specialInfo(row), nil
}

type Stats struct {
	TotalSpecials      int64            `json:"total_specials"`
	ByStore            map[string]int64 `json:"by_store"`
	HalfPriceCount     int64            `json:"half_price_count"`
	ProductsWithImages int64            `json:"products_with_images"`
	LastUpdated        *string          `json:"last_updated"`
}

func (s Service) Stats(ctx context.Context) (Stats, error) {
	ctx, span := tracer.Start(ctx, "Stats")
	defer span.End()

	today := timezone.Today()
	stats := Stats{ByStore: map[string]int64{}}

	var err error
	stats.TotalSpecials, err = s.qry.CountActiveSpecials(ctx, today)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Stats{}, err
	}

	byStore, err := s.qry.CountActiveSpecialsByStore(ctx, today)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Stats{}, err
	}
	for _, row := range byStore {
		stats.ByStore[row.Slug] = row.Count
	}

	stats.HalfPriceCount, err = s.qry.CountHalfPriceSpecials(ctx, today)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Stats{}, err
	}

	stats.ProductsWithImages, err = s.qry.CountSpecialsWithImages(ctx, today)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Stats{}, err
	}

	lastScraped, err := s.qry.LastScrapedAt(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Stats{}, err
	}
	if lastScraped != "" {
		stats.LastUpdated = &lastScraped
	}
	return stats, nil
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Categories lists the store-reported category strings with counts,
// most populated first.
func (s Service) Categories(ctx context.Context) ([]CategoryCount, error) {
	ctx, span := tracer.Start(ctx, "Categories")
	defer span.End()

	rows, err := s.qry.ListSpecialCategories(ctx, timezone.Today())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	counts := make([]CategoryCount, 0, len(rows))
	for _, row := range rows {
		if !row.Category.Valid {
			continue
		}
		counts = append(counts, CategoryCount{Name: row.Category.String, Count: row.Count})
	}
	return counts, nil
}

type SubcategoryCount struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int64  `json:"count"`
}

type CategoryTreeItem struct {
	ID            int64              `json:"id"`
	Name          string             `json:"name"`
	Slug          string             `json:"slug"`
	Icon          *string            `json:"icon"`
	Count         int64              `json:"count"`
	Subcategories []SubcategoryCount `json:"subcategories"`
}

type CategoryTree struct {
	Categories         []CategoryTreeItem `json:"categories"`
	TotalCategorized   int64              `json:"total_categorized"`
	TotalUncategorized int64              `json:"total_uncategorized"`
}

// CategoryTree renders the unified taxonomy with active special counts
// rolled up from subcategories into their parents.
func (s Service) CategoryTree(ctx context.Context) (CategoryTree, error) {
	ctx, span := tracer.Start(ctx, "CategoryTree")
	defer span.End()

	today := timezone.Today()

	parents, err := s.qry.ListParentCategories(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CategoryTree{}, err
	}

	counts, err := s.qry.CountActiveSpecialsByCategoryId(ctx, today)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CategoryTree{}, err
	}
	countMap := make(map[int64]int64, len(counts))
	var totalCategorized int64
	for _, row := range counts {
		if !row.CategoryID.Valid {
			continue
		}
		countMap[row.CategoryID.Int64] = row.Count
		totalCategorized += row.Count
	}

	uncategorized, err := s.qry.CountUncategorizedSpecials(ctx, today)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CategoryTree{}, err
	}

	tree := CategoryTree{
		Categories:         make([]CategoryTreeItem, 0, len(parents)),
		TotalCategorized:   totalCategorized,
		TotalUncategorized: uncategorized,
	}
	for _, parent := range parents {
		children, err := s.qry.ListChildCategories(ctx, sql.NullInt64{Int64: parent.ID, Valid: true})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return CategoryTree{}, err
		}

		item := CategoryTreeItem{
			ID:            parent.ID,
			Name:          parent.Name,
			Slug:          parent.Slug,
			Icon:          nullStr(parent.Icon),
			Count:         countMap[parent.ID],
			Subcategories: make([]SubcategoryCount, 0, len(children)),
		}
		for _, child := range children {
			count := countMap[child.ID]
			item.Count += count
			item.Subcategories = append(item.Subcategories, SubcategoryCount{
				ID:    child.ID,
				Name:  child.Name,
				Slug:  child.Slug,
				Count: count,
			})
		}
		tree.Categories = append(tree.Categories, item)
	}
	return tree, nil
}

type StoreSpecialsCount struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Slug          string  `json:"slug"`
	LogoUrl       *string `json:"logo_url"`
	SpecialsCount int64   `json:"specials_count"`
}

// StoreCounts lists every store with its active specials count, zero
// included.
func (s Service) StoreCounts(ctx context.Context) ([]StoreSpecialsCount, error) {
	ctx, span := tracer.Start(ctx, "StoreCounts")
	defer span.End()

	stores, err := s.qry.ListStores(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	counts, err := s.qry.CountActiveSpecialsByStore(ctx, timezone.Today())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	countMap := make(map[int64]int64, len(counts))
	for _, row := range counts {
		countMap[row.StoreID] = row.Count
	}

	result := make([]StoreSpecialsCount, len(stores))
	for i, store := range stores {
		result[i] = StoreSpecialsCount{
			ID:            store.ID,
			Name:          store.Name,
			Slug:          store.Slug,
			LogoUrl:       nullStr(store.LogoUrl),
			SpecialsCount: countMap[store.ID],
		}
	}
	return result, nil
}

type ScrapeLogInfo struct {
	ID           int64   `json:"id"`
	StoreID      *int64  `json:"store_id"`
	StoreName    *string `json:"store_name"`
	StartedAt    string  `json:"started_at"`
	CompletedAt  *string `json:"completed_at"`
	ItemsFound   int64   `json:"items_found"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message"`
}

func (s Service) ScrapeLogs(ctx context.Context, limit int64) ([]ScrapeLogInfo, error) {
	ctx, span := tracer.Start(ctx, "ScrapeLogs")
	defer span.End()

	rows, err := s.qry.ListScrapeLogs(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	logs := make([]ScrapeLogInfo, len(rows))
	for i, row := range rows {
		logs[i] = ScrapeLogInfo{
			ID:           row.ID,
			StoreID:      nullInt(row.StoreID),
			StoreName:    nullStr(row.StoreName),
			StartedAt:    row.StartedAt,
			CompletedAt:  nullStr(row.CompletedAt),
			ItemsFound:   row.ItemsFound,
			Status:       row.Status,
			ErrorMessage: nullStr(row.ErrorMessage),
		}
	}
	return logs, nil
}

// ClearExpired deletes every special whose window has closed and drops
// the stale cached listings.
func (s Service) ClearExpired(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "ClearExpired")
	defer span.End()

	deleted, err := s.qry.DeleteExpiredSpecials(ctx, timezone.Today())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int64("deleted", deleted))
	if deleted > 0 {
		s.InvalidateCache(ctx)
	}
	return deleted, nil
}

// InvalidateCache clears every cached specials response. Called after
// each ingest run and exposed on the admin API.
func (s Service) InvalidateCache(ctx context.Context) int {
	deleted := s.cache.Invalidate(ctx, "specials")
	deleted += s.cache.Invalidate(ctx, "stats")
	deleted += s.cache.Invalidate(ctx, "categories")
	return deleted
}
