package submit

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trolley-backend/services/auth"
)

func (service Service) RegisterRoutes(r gin.IRouter, optionalUser, requireAuth gin.HandlerFunc) {
	submit := r.Group("/submit")
	submit.POST("/price", optionalUser, service.handleSubmitPrice)
	submit.POST("/verify/:price_id", requireAuth, service.handleVerifyPrice)
	submit.GET("/pending", service.handlePending)
}

func (service Service) handleSubmitPrice(c *gin.Context) {
	var submission PriceSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	var userID *int64
	if user, ok := auth.UserFromContext(c); ok {
		userID = &user.ID
	}

	price, err := service.SubmitPrice(c.Request.Context(), submission, userID)
	switch {
	case errors.Is(err, ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrProductNotFound), errors.Is(err, ErrStoreNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, price)
	}
}

func (service Service) handleVerifyPrice(c *gin.Context) {
	priceID, err := strconv.ParseInt(c.Param("price_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price_id"})
		return
	}
	var body struct {
		IsCorrect *bool `json:"is_correct"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.IsCorrect == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_correct is required"})
		return
	}
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	result, err := service.VerifyPrice(c.Request.Context(), priceID, user.ID, *body.IsCorrect)
	switch {
	case errors.Is(err, ErrPriceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAlreadyVerified), errors.Is(err, ErrOwnSubmission):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, result)
	}
}

func (service Service) handlePending(c *gin.Context) {
	limit := int64(20)
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	pending, err := service.Pending(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pending)
}
