package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/nineaccord/salesboard/internal/api/handlers"
	"github.com/nineaccord/salesboard/internal/api/middleware"
	"github.com/nineaccord/salesboard/internal/ingest"
	"github.com/nineaccord/salesboard/internal/service"
)

type Services struct {
	ReportService *service.ReportService
	Runner        *ingest.Runner
	Sessions      *middleware.Sessions

	// UpdateWaitTimeout bounds update-data?wait=true requests.
	UpdateWaitTimeout time.Duration
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger("/health"))
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := handlers.NewAuthHandler(services.Sessions)
	router.POST("/login", authHandler.Login)
	router.POST("/logout", authHandler.Logout)

	apiGroup := router.Group("/api")
	apiGroup.Use(services.Sessions.RequireSession())

	reportHandler := handlers.NewReportHandler(services.ReportService)
	apiGroup.GET("/brands", reportHandler.ListBrands)
	apiGroup.POST("/cache/clear", reportHandler.ClearCache)

	brandGroup := apiGroup.Group("/:brand")
	{
		brandGroup.GET("/data", reportHandler.GetWarehouseData)
		brandGroup.GET("/data/item", reportHandler.GetItemData)
		brandGroup.GET("/filters", reportHandler.GetFilters)
	}

	if services.Runner != nil {
		ingestHandler := handlers.NewIngestHandler(services.Runner, services.UpdateWaitTimeout)
		// GET is kept for clients of the old dashboard, which triggered updates with it.
		brandGroup.GET("/update-data", ingestHandler.TriggerUpdate)
		brandGroup.POST("/update-data", ingestHandler.TriggerUpdate)
		apiGroup.GET("/jobs/:id", ingestHandler.GetJob)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
