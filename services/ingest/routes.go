package ingest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the ingest admin surface. Everything here
// mutates the dataset, so the whole group sits behind the admin key
// middleware.
func (s Service) RegisterRoutes(r gin.IRouter, requireAdmin gin.HandlerFunc) {
	admin := r.Group("/admin", requireAdmin)
	admin.GET("/scheduler/status", s.handleSchedulerStatus)
	admin.POST("/scheduler/start", s.handleSchedulerStart)
	admin.POST("/scheduler/stop", s.handleSchedulerStop)
	admin.POST("/catalogue/update", s.handleCatalogueUpdate)
	admin.GET("/catalogue/parsers", s.handleListParsers)
	admin.GET("/import/template/csv", s.handleCSVTemplate)
	admin.GET("/import/template/json", s.handleJSONTemplate)
	admin.POST("/import/csv", s.handleImportCSV)
	admin.POST("/import/json", s.handleImportJSON)
	admin.GET("/openfoodfacts/status", s.handleOpenFoodFactsStatus)
	admin.POST("/openfoodfacts/import", s.handleOpenFoodFactsImport)
	admin.POST("/scrape", s.handleScrape)
	admin.POST("/rescrape", s.handleRescrape)
	admin.POST("/import-specials", s.handleImportSpecials)
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

func (s Service) handleSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.SchedulerStatus())
}

func (s Service) handleSchedulerStart(c *gin.Context) {
	status := s.StartScheduler()
	c.JSON(http.StatusOK, gin.H{"message": "Scheduler started", "status": status})
}

func (s Service) handleSchedulerStop(c *gin.Context) {
	s.StopScheduler()
	c.JSON(http.StatusOK, gin.H{"message": "Scheduler stopped"})
}

func (s Service) handleCatalogueUpdate(c *gin.Context) {
	record, err := s.TriggerCatalogueUpdate(c.Request.Context(), c.Query("store"))
	if errors.Is(err, ErrUnknownParser) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalogue update failed"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s Service) handleListParsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"parsers": s.Parsers()})
}

func (s Service) handleCSVTemplate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"template":     CSVTemplate(),
		"instructions": "Upload a CSV file with columns: product_name, store_slug, price, was_price, is_special, special_type",
	})
}

func (s Service) handleJSONTemplate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"template":     JSONTemplate(),
		"instructions": "Submit a JSON array of price objects",
	})
}

func (s Service) handleImportCSV(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file must be a CSV"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read file"})
		return
	}

	c.JSON(http.StatusOK, s.ImportPricesCSV(c.Request.Context(), string(content)))
}

func (s Service) handleImportJSON(c *gin.Context) {
	var req struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Data) == 0 {
		req.Data = []byte("[]")
	}
	c.JSON(http.StatusOK, s.ImportPricesJSON(c.Request.Context(), req.Data))
}

func (s Service) handleOpenFoodFactsStatus(c *gin.Context) {
	status, err := s.OpenFoodFactsStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load import status"})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s Service) handleOpenFoodFactsImport(c *gin.Context) {
	maxPages, ok := intQuery(c, "max_pages", 10)
	if !ok {
		return
	}
	startPage, ok := intQuery(c, "start_page", 1)
	if !ok {
		return
	}

	result, err := s.ImportOpenFoodFacts(c.Request.Context(), maxPages, startPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s Service) handleScrape(c *gin.Context) {
	store := c.Query("store")
	if store == "" {
		results := s.ScrapeAllStores(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"status": "success", "results": results})
		return
	}

	count, err := s.ScrapeStore(c.Request.Context(), store)
	if errors.Is(err, ErrStoreNotFound) || errors.Is(err, ErrStoreNotConfigured) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scrape failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "store": store, "items_scraped": count})
}

func (s Service) handleRescrape(c *gin.Context) {
	cleared, err := s.ClearAllSpecials(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rescrape failed"})
		return
	}
	results := s.ScrapeAllStores(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "success", "cleared": cleared, "results": results})
}

func (s Service) handleImportSpecials(c *gin.Context) {
	var items []DirectSpecial
	if err := c.ShouldBindJSON(&items); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	result, err := s.ImportSpecialsDirect(c.Request.Context(), items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}
	c.JSON(http.StatusOK, result)
}
