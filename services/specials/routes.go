package specials

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"trolley-backend/lib/cacheutil"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the v1 offset API under /specials and the v2
// keyset API under /v2/specials. Admin endpoints sit behind the
// X-Admin-Key middleware built by the caller.
func (s Service) RegisterRoutes(r gin.IRouter, requireAdmin gin.HandlerFunc) {
	v1 := r.Group("/specials")
	v1.GET("", s.handleList)
	v1.GET("/stats", s.handleStats)
	v1.GET("/categories", s.handleCategories)
	v1.GET("/categories/tree", s.handleCategoryTree)
	v1.GET("/stores", s.handleStoreCounts)
	v1.GET("/scrape-logs", s.handleScrapeLogs)
	v1.GET("/:id", s.handleGetSpecial)
	v1.DELETE("/admin/clear-expired", requireAdmin, s.handleClearExpired)

	v2 := r.Group("/v2/specials")
	v2.GET("", s.handleListV2)
	v2.GET("/stats", s.handleStats)
	v2.GET("/categories", s.handleCategories)
	v2.GET("/stores", s.handleStoreCounts)
	v2.GET("/product/:id", s.handleProductV2)
	v2.POST("/admin/invalidate-cache", requireAdmin, s.handleInvalidateCache)
}

func intQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return value, true
}

func clampLimit(limit, max int) int {
	if limit <= 0 {
		return max
	}
	if limit > max {
		return max
	}
	return limit
}

// listQuery pulls the filters shared by both listing versions, or
// reports false after writing the error response.
func listQuery(c *gin.Context) (ListParams, bool) {
	var params ListParams
	params.Store = c.Query("store")
	params.Category = c.Query("category")
	params.Sort = c.DefaultQuery("sort", "discount")

	categoryID, ok := intQuery(c, "category_id", 0)
	if !ok {
		return params, false
	}
	params.CategoryID = int64(categoryID)

	minDiscount, ok := intQuery(c, "min_discount", 0)
	if !ok {
		return params, false
	}
	if minDiscount < 0 || minDiscount > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_discount must be between 0 and 100"})
		return params, false
	}
	params.MinDiscount = int64(minDiscount)

	params.Search = c.Query("search")
	if params.Search != "" && len(params.Search) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search term must be at least 2 characters"})
		return params, false
	}

	limit, ok := intQuery(c, "limit", 50)
	if !ok {
		return params, false
	}
	params.Limit = clampLimit(limit, 100)
	return params, true
}

func (s Service) handleList(c *gin.Context) {
	params, ok := listQuery(c)
	if !ok {
		return
	}
	page, ok := intQuery(c, "page", 1)
	if !ok {
		return
	}
	if page < 1 {
		page = 1
	}
	params.Page = page

	cacheKey := cacheutil.Key("specials", map[string]string{
		"v":            "1",
		"store":        params.Store,
		"category":     params.Category,
		"category_id":  strconv.FormatInt(params.CategoryID, 10),
		"min_discount": strconv.FormatInt(params.MinDiscount, 10),
		"search":       params.Search,
		"sort":         params.Sort,
		"page":         strconv.Itoa(params.Page),
		"limit":        strconv.Itoa(params.Limit),
	})
	var cached ListResult
	if s.cache.GetJSON(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	result, err := s.List(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list specials"})
		return
	}
	s.cache.SetJSON(c.Request.Context(), cacheKey, result, cacheutil.TTLShort)
	c.JSON(http.StatusOK, result)
}

func (s Service) handleListV2(c *gin.Context) {
	shared, ok := listQuery(c)
	if !ok {
		return
	}
	params := ListV2Params{
		Store:       shared.Store,
		Category:    shared.Category,
		MinDiscount: shared.MinDiscount,
		Search:      shared.Search,
		Sort:        shared.Sort,
		Cursor:      c.Query("cursor"),
		Limit:       shared.Limit,
	}

	cacheKey := cacheutil.Key("specials", map[string]string{
		"v":            "2",
		"store":        params.Store,
		"category":     params.Category,
		"min_discount": strconv.FormatInt(params.MinDiscount, 10),
		"search":       params.Search,
		"sort":         params.Sort,
		"cursor":       params.Cursor,
		"limit":        strconv.Itoa(params.Limit),
	})
	var cached ListV2Result
	if s.cache.GetJSON(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	result, err := s.ListV2(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list specials"})
		return
	}
	s.cache.SetJSON(c.Request.Context(), cacheKey, result, cacheutil.TTLShort)
	c.JSON(http.StatusOK, result)
}

func (s Service) handleStats(c *gin.Context) {
	cacheKey := "stats:specials"
	var cached Stats
	if s.cache.GetJSON(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	stats, err := s.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	s.cache.SetJSON(c.Request.Context(), cacheKey, stats, cacheutil.TTLMedium)
	c.JSON(http.StatusOK, stats)
}

func (s Service) handleCategories(c *gin.Context) {
	cacheKey := "categories:counts"
	var cached []CategoryCount
	if s.cache.GetJSON(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	categories, err := s.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load categories"})
		return
	}
	s.cache.SetJSON(c.Request.Context(), cacheKey, categories, cacheutil.TTLHour)
	c.JSON(http.StatusOK, categories)
}

func (s Service) handleCategoryTree(c *gin.Context) {
	cacheKey := "categories:tree"
	var cached CategoryTree
	if s.cache.GetJSON(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	tree, err := s.CategoryTree(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load category tree"})
		return
	}
	s.cache.SetJSON(c.Request.Context(), cacheKey, tree, cacheutil.TTLHour)
	c.JSON(http.StatusOK, tree)
}

func (s Service) handleStoreCounts(c *gin.Context) {
	stores, err := s.StoreCounts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stores"})
		return
	}
	c.JSON(http.StatusOK, stores)
}

func (s Service) handleScrapeLogs(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 20)
	if !ok {
		return
	}
	logs, err := s.ScrapeLogs(c.Request.Context(), int64(clampLimit(limit, 100)))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load scrape logs"})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (s Service) handleGetSpecial(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	special, err := s.GetSpecial(c.Request.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "special not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load special"})
		return
	}
	c.JSON(http.StatusOK, special)
}

func (s Service) handleProductV2(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	detail, err := s.ProductV2(c.Request.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load product"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s Service) handleClearExpired(c *gin.Context) {
	deleted, err := s.ClearExpired(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear expired specials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_count": deleted})
}

func (s Service) handleInvalidateCache(c *gin.Context) {
	s.InvalidateCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "cache invalidated"})
}
