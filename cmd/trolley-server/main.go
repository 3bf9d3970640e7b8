package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"

	"trolley-backend/internal/chrono"
	"trolley-backend/internal/db"
	"trolley-backend/lib/cacheutil"
	"trolley-backend/lib/configutil"
	"trolley-backend/lib/serviceutil"
	"trolley-backend/pkg/migrations"
	"trolley-backend/services/alerts"
	"trolley-backend/services/auth"
	"trolley-backend/services/catalog"
	"trolley-backend/services/compare"
	"trolley-backend/services/history"
	"trolley-backend/services/ingest"
	"trolley-backend/services/specials"
	"trolley-backend/services/staples"
	"trolley-backend/services/submit"

	"github.com/gin-gonic/gin"
)

const appName = "Trolley API"
const appVersion = "2.0.0"

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Config struct {
	Port     int    `json:"port"`
	Database string `json:"database"`
	// Auth carries the token secret and the admin key for /api/admin.
	Auth auth.Config `json:"auth"`
	// Redis is optional; an empty addr disables response caching.
	Redis             cacheutil.Config `json:"redis"`
	Smtp              SmtpConfig       `json:"smtp"`
	SchedulerDisabled bool             `json:"scheduler_disabled"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	initialScrape := flag.Bool("scrape", false, "Trigger a specials scrape immediately on run.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	InitTelemetry(ctx, *verbose)

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8000
	}
	if cfg.Database == "" {
		cfg.Database = "data/trolley.db"
	}

	database, err := migrations.OpenAndMigrateDB(db.Schema, cfg.Database)
	if err != nil {
		serviceutil.Fatal("open database", err)
	}
	err = catalog.Seed(ctx, database)
	if err != nil {
		serviceutil.Fatal("seed catalog", err)
	}

	cache := cacheutil.New(ctx, cfg.Redis)

	authService := auth.NewService(database, cfg.Auth)
	catalogService := catalog.NewService(database, cache)
	specialsService := specials.NewService(database, cache)
	compareService := compare.NewService(database)
	staplesService := staples.NewService(database)
	historyService := history.NewService(database)
	submitService := submit.NewService(database)
	alertsService := alerts.NewService(database, alerts.NewSmtpMailer(alerts.SmtpConfig(cfg.Smtp)))
	ingestService := ingest.NewService(database, ingest.Hooks{
		SpecialsChanged: func(ctx context.Context) {
			specialsService.InvalidateCache(ctx)
		},
		PricesChanged: func(ctx context.Context) {
			_, err := alertsService.CheckPrices(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "price alert check failed", "err", err)
			}
		},
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.GET("/", handleHealth)

	api := router.Group("/api")
	requireAdmin := auth.RequireAdminKey(cfg.Auth.AdminKey)
	authService.RegisterRoutes(api.Group("/auth"))
	catalogService.RegisterRoutes(api)
	specialsService.RegisterRoutes(api, requireAdmin)
	compareService.RegisterRoutes(api)
	staplesService.RegisterRoutes(api)
	historyService.RegisterRoutes(api, authService.RequireAuth(), authService.RequirePremium())
	submitService.RegisterRoutes(api, authService.OptionalUser(), authService.RequireAuth())
	alertsService.RegisterRoutes(api, authService.RequireAuth(), authService.RequirePremium())
	ingestService.RegisterRoutes(api, requireAdmin)

	if !cfg.SchedulerDisabled {
		err = ingestService.RegisterJobs(chrono.NewStandardCron())
		if err != nil {
			serviceutil.Fatal("register scheduler jobs", err)
		}
		ingestService.StartScheduler()
	}
	if *initialScrape {
		go func() {
			results := ingestService.ScrapeAllStores(ctx)
			for store, result := range results {
				slog.Info("initial scrape", "store", store, "status", result.Status)
			}
		}()
	}

	go serviceutil.StartHttpServer(cfg.Port, router)
	<-ctx.Done()
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Admin-Key, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"app":     appName,
		"version": appVersion,
	})
}
