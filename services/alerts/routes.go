package alerts

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trolley-backend/services/auth"
)

// RegisterRoutes mounts the alerts API. Alert management is premium;
// notifications and watch status only need a signed in user. The
// notification routes are static siblings of :alert_id, which gin
// matches ahead of the parameter.
func (service Service) RegisterRoutes(r gin.IRouter, requireAuth, requirePremium gin.HandlerFunc) {
	alerts := r.Group("/alerts")

	alerts.GET("/notifications", requireAuth, service.handleNotifications)
	alerts.GET("/notifications/count", requireAuth, service.handleUnreadCount)
	alerts.POST("/notifications/:notification_id/read", requireAuth, service.handleMarkRead)
	alerts.POST("/notifications/read-all", requireAuth, service.handleMarkAllRead)

	alerts.GET("/watch/:product_id", requireAuth, service.handleWatchStatus)
	alerts.POST("/watch/:product_id", requirePremium, service.handleWatch)

	alerts.GET("", requirePremium, service.handleList)
	alerts.POST("", requirePremium, service.handleCreate)
	alerts.GET("/:alert_id", requirePremium, service.handleGet)
	alerts.PATCH("/:alert_id", requirePremium, service.handleUpdate)
	alerts.DELETE("/:alert_id", requirePremium, service.handleDelete)
}

func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func boolQuery(c *gin.Context, name string, fallback bool) (bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return false, false
	}
	return value, true
}

func currentUser(c *gin.Context) (int64, bool) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return 0, false
	}
	return user.ID, true
}

func (service Service) handleList(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	activeOnly, ok := boolQuery(c, "active_only", true)
	if !ok {
		return
	}

	list, err := service.List(c.Request.Context(), userID, activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (service Service) handleCreate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req AlertCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	alert, err := service.Create(c.Request.Context(), userID, req)
	switch {
	case errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAlertExists), errors.Is(err, ErrInvalidAlertType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusCreated, alert)
	}
}

func (service Service) handleGet(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	alertID, ok := paramID(c, "alert_id")
	if !ok {
		return
	}

	alert, err := service.Get(c.Request.Context(), userID, alertID)
	if errors.Is(err, ErrAlertNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (service Service) handleUpdate(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	alertID, ok := paramID(c, "alert_id")
	if !ok {
		return
	}
	var patch AlertPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	alert, err := service.Update(c.Request.Context(), userID, alertID, patch)
	if errors.Is(err, ErrAlertNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (service Service) handleDelete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	alertID, ok := paramID(c, "alert_id")
	if !ok {
		return
	}

	err := service.Delete(c.Request.Context(), userID, alertID)
	if errors.Is(err, ErrAlertNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (service Service) handleWatch(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}

	state, err := service.Watch(c.Request.Context(), userID, productID)
	if errors.Is(err, ErrProductNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (service Service) handleWatchStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	productID, ok := paramID(c, "product_id")
	if !ok {
		return
	}

	status, err := service.CheckWatch(c.Request.Context(), userID, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (service Service) handleNotifications(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit < 1 || limit > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	unreadOnly, ok := boolQuery(c, "unread_only", false)
	if !ok {
		return
	}

	list, err := service.Notifications(c.Request.Context(), userID, limit, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (service Service) handleUnreadCount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func (service Service) handleMarkRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	notificationID, ok := paramID(c, "notification_id")
	if !ok {
		return
	}

	err := service.MarkRead(c.Request.Context(), userID, notificationID)
	if errors.Is(err, ErrNotificationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "read"})
}

func (service Service) handleMarkAllRead(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	err := service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "all_read"})
}
