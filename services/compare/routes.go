package compare

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the comparison API under /compare. Static
// segments are registered alongside the :product_id parameter, which
// gin resolves with static-first priority.
func (s Service) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/compare")
	g.GET("/fresh-foods", s.handleFreshFoods)
	g.GET("/type/search", s.handleTypeSuggestions)
	g.GET("/type/:product_id", s.handleCompareType)
	g.GET("/specials/brand-match", s.handleBrandMatch)
	g.GET("/specials/type-match/:special_id", s.handleTypeMatch)
	g.GET("/specials/brand-products/:special_id", s.handleBrandProducts)
	g.GET("/:product_id", s.handleCompareProduct)
	g.POST("/basket", s.handleBasket)
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func limitQuery(c *gin.Context, fallback, max int) (int, bool) {
	raw := c.DefaultQuery("limit", strconv.Itoa(fallback))
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, false
	}
	if limit > max {
		limit = max
	}
	return limit, true
}

func (s Service) handleFreshFoods(c *gin.Context) {
	kind := c.Query("type")
	if kind != "" && kind != "produce" && kind != "meat" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be produce or meat"})
		return
	}
	limit, ok := limitQuery(c, 50, 100)
	if !ok {
		return
	}

	result, err := s.FreshFoods(c.Request.Context(), kind, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s Service) handleCompareProduct(c *gin.Context) {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}

	comparison, err := s.CompareProduct(c.Request.Context(), productID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, comparison)
}

func (s Service) handleBasket(c *gin.Context) {
	var body struct {
		ProductIDs []int64 `json:"product_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(body.ProductIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product_ids is required"})
		return
	}

	comparison, err := s.CompareBasket(c.Request.Context(), body.ProductIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, comparison)
}

func (s Service) handleTypeSuggestions(c *gin.Context) {
	q := c.Query("q")
	if len(q) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search term must be at least 2 characters"})
		return
	}
	var categoryID int64
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category_id"})
			return
		}
		categoryID = id
	}
	limit, ok := limitQuery(c, 20, 50)
	if !ok {
		return
	}

	suggestions, err := s.TypeSuggestions(c.Request.Context(), q, categoryID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

func (s Service) handleCompareType(c *gin.Context) {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}

	comparison, err := s.CompareType(c.Request.Context(), productID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, comparison)
}

func (s Service) handleBrandMatch(c *gin.Context) {
	search := c.Query("search")
	if len(search) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search term must be at least 2 characters"})
		return
	}

	results, err := s.BrandMatch(c.Request.Context(), search)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s Service) handleTypeMatch(c *gin.Context) {
	specialID, ok := paramID(c, "special_id")
	if !ok {
		return
	}

	result, err := s.TypeMatch(c.Request.Context(), specialID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "special not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s Service) handleBrandProducts(c *gin.Context) {
	specialID, ok := paramID(c, "special_id")
	if !ok {
		return
	}

	result, err := s.BrandProducts(c.Request.Context(), specialID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "special not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
