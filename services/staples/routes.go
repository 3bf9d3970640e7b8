package staples

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (service Service) RegisterRoutes(r gin.IRouter) {
	staples := r.Group("/staples")
	staples.GET("", service.handleList)
	staples.GET("/categories", service.handleCategories)
	staples.GET("/search", service.handleSearch)
	staples.GET("/:product_id", service.handleGet)
	staples.POST("/basket-compare", service.handleBasketCompare)
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func limitQuery(c *gin.Context, fallback, max int64) (int64, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return fallback, true
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit < 1 || limit > max {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, false
	}
	return limit, true
}

func (service Service) handleList(c *gin.Context) {
	search := c.Query("search")
	if search != "" && len(search) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search term must be at least 2 characters"})
		return
	}
	limit, ok := limitQuery(c, 50, 100)
	if !ok {
		return
	}
	offset, err := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	if err != nil || offset < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	result, err := service.List(c.Request.Context(), ListParams{
		Category: c.Query("category"),
		Store:    c.Query("store"),
		Search:   search,
		Sort:     c.DefaultQuery("sort", "name"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (service Service) handleCategories(c *gin.Context) {
	result, err := service.Categories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (service Service) handleSearch(c *gin.Context) {
	q := c.Query("q")
	if len(q) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "search term must be at least 2 characters"})
		return
	}
	limit, ok := limitQuery(c, 20, 50)
	if !ok {
		return
	}
	result, err := service.Search(c.Request.Context(), q, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (service Service) handleGet(c *gin.Context) {
	id, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	product, err := service.Get(c.Request.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

func (service Service) handleBasketCompare(c *gin.Context) {
	var body struct {
		Items []BasketItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(body.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "basket is empty"})
		return
	}
	result, err := service.BasketCompare(c.Request.Context(), body.Items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
