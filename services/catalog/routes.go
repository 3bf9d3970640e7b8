package catalog

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"trolley-backend/lib/cacheutil"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts /stores and /products under r (the /api group).
func (s Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/stores", s.handleListStores)

	products := r.Group("/products")
	products.GET("", s.handleListProducts)
	products.GET("/search", s.handleSearchProducts)
	products.GET("/key", s.handleKeyProducts)
	products.GET("/with-prices", s.handleWithPrices)
	products.GET("/search-with-prices", s.handleSearchWithPrices)
	products.GET("/:id", s.handleGetProduct)
	products.POST("", s.handleCreateProduct)
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

func (s Service) handleListStores(c *gin.Context) {
	stores, err := s.ListStores(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list stores"})
		return
	}
	c.JSON(http.StatusOK, stores)
}

func (s Service) handleListProducts(c *gin.Context) {
	skip, ok := intQuery(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 50)
	if !ok {
		return
	}
	categoryID, ok := intQuery(c, "category_id", 0)
	if !ok {
		return
	}

	products, err := s.ListProducts(c.Request.Context(), ListProductsParams{
		Skip:       skip,
		Limit:      clampLimit(limit, 100),
		CategoryID: int64(categoryID),
		KeyOnly:    c.Query("key_only") == "true",
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s Service) handleSearchProducts(c *gin.Context) {
	q := c.Query("q")
	if len(q) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search term must be at least 2 characters"})
		return
	}
	limit, ok := intQuery(c, "limit", 20)
	if !ok {
		return
	}

	products, err := s.SearchProducts(c.Request.Context(), q, clampLimit(limit, 100))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s Service) handleKeyProducts(c *gin.Context) {
	products, err := s.ListKeyProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list key products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

func (s Service) handleWithPrices(c *gin.Context) {
	skip, ok := intQuery(c, "skip", 0)
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 50)
	if !ok {
		return
	}
	categoryID, ok := intQuery(c, "category_id", 0)
	if !ok {
		return
	}
	params := WithPricesParams{
		Skip:         skip,
		Limit:        clampLimit(limit, 100),
		CategoryID:   int64(categoryID),
		Search:       c.Query("search"),
		SpecialsOnly: c.Query("specials_only") == "true",
	}

	cacheKey := cacheutil.Key("products", map[string]string{
		"skip":          strconv.Itoa(params.Skip),
		"limit":         strconv.Itoa(params.Limit),
		"category_id":   strconv.FormatInt(params.CategoryID, 10),
		"search":        params.Search,
		"specials_only": strconv.FormatBool(params.SpecialsOnly),
	})
	var cached []ProductWithPrices
	if s.cache.GetJSON(c.Request.Context(), cacheKey, &cached) {
		c.JSON(http.StatusOK, cached)
		return
	}

	result, err := s.ListProductsWithPrices(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load prices"})
		return
	}
	s.cache.SetJSON(c.Request.Context(), cacheKey, result, cacheutil.TTLDay)
	c.JSON(http.StatusOK, result)
}

func (s Service) handleSearchWithPrices(c *gin.Context) {
	q := c.Query("q")
	if len(q) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search term must be at least 2 characters"})
		return
	}
	limit, ok := intQuery(c, "limit", 30)
	if !ok {
		return
	}

	result, err := s.SearchProductsWithPrices(c.Request.Context(), q, clampLimit(limit, 100))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s Service) handleGetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}
	product, err := s.GetProduct(c.Request.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load product"})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (s Service) handleCreateProduct(c *gin.Context) {
	var params CreateProductParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product, err := s.CreateProduct(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create product"})
		return
	}
	c.JSON(http.StatusOK, product)
}
