package history

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (service Service) RegisterRoutes(r gin.IRouter, requireAuth, requirePremium gin.HandlerFunc) {
	history := r.Group("/history")
	history.GET("/:product_id", requirePremium, service.handleHistory)
	history.GET("/:product_id/summary", requireAuth, service.handleSummary)
	history.GET("/:product_id/chart-data", requirePremium, service.handleChart)
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func daysQuery(c *gin.Context) (int64, bool) {
	days, err := strconv.ParseInt(c.DefaultQuery("days", "90"), 10, 64)
	if err != nil || days < 7 || days > 365 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be between 7 and 365"})
		return 0, false
	}
	return days, true
}

func (service Service) handleHistory(c *gin.Context) {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	days, ok := daysQuery(c)
	if !ok {
		return
	}
	var storeID *int64
	if raw := c.Query("store_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid store_id"})
			return
		}
		storeID = &id
	}

	result, err := service.History(c.Request.Context(), productID, days, storeID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (service Service) handleSummary(c *gin.Context) {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	result, err := service.Summary(c.Request.Context(), productID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (service Service) handleChart(c *gin.Context) {
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}
	days, ok := daysQuery(c)
	if !ok {
		return
	}
	result, err := service.Chart(c.Request.Context(), productID, days)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
