package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/nextbet/internal/api/handlers"
	"github.com/codyseavey/nextbet/internal/config"
	"github.com/codyseavey/nextbet/internal/live"
	"github.com/codyseavey/nextbet/internal/services"
)

func SetupRouter(cfg *config.Config, controller *services.AppController, imageStorageService *services.ImageStorageService, hub *live.Hub) *gin.Engine {
	router := gin.Default()
	router.Use(metricsMiddleware())

	frontendPath := cfg.Server.FrontendDistPath
	serveFrontend := frontendPath != "" && dirExists(frontendPath)

	// CORS configuration for the SPA dev server
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.AllowCredentials = false
	router.Use(cors.New(corsConfig))

	// Initialize handlers
	stateHandler := handlers.NewStateHandler(controller)
	analysisHandler := handlers.NewAnalysisHandler(controller, cfg.Uploads.MaxBytes)
	historyHandler := handlers.NewHistoryHandler(controller)
	goalHandler := handlers.NewGoalHandler(controller)
	authHandler := handlers.NewAuthHandler(controller)
	liveHandler := handlers.NewLiveHandler(hub, cfg.Server.CORSAllowedOrigins)

	limited := newRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst).middleware()

	// Serve archived uploads
	if imageStorageService != nil && imageStorageService.GetStorageDir() != "" {
		router.Static("/uploads", imageStorageService.GetStorageDir())
	}

	// API routes
	api := router.Group("/api")
	{
		api.GET("/state", stateHandler.GetState)
		api.PUT("/screen", stateHandler.Navigate)
		api.PUT("/bankroll", stateHandler.UpdateBankroll)
		api.PUT("/mode", stateHandler.SelectMode)
		api.PUT("/premium", stateHandler.SetPremium)

		api.POST("/upload", limited, analysisHandler.UploadImage)
		api.DELETE("/upload", analysisHandler.ClearUpload)
		api.POST("/analysis", limited, analysisHandler.RunAnalysis)
		api.POST("/analysis/outcome", analysisHandler.SubmitOutcome)

		history := api.Group("/history")
		{
			history.GET("", historyHandler.GetHistory)
			history.DELETE("", historyHandler.ClearHistory)
			history.DELETE("/:id", historyHandler.DeleteEntry)
		}

		goals := api.Group("/goals")
		{
			goals.GET("", goalHandler.GetGoals)
			goals.POST("/progress", goalHandler.RecordProgress)
			goals.POST("/reset", goalHandler.Reset)
		}

		// Live state feed over WebSocket
		api.GET("/live", liveHandler.Subscribe)

		auth := api.Group("/auth")
		{
			auth.GET("/session", authHandler.GetSession)
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/demo", authHandler.Demo)
			auth.POST("/logout", authHandler.Logout)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Serve frontend static files
	if serveFrontend {
		indexPath := filepath.Join(frontendPath, "index.html")

		router.Static("/assets", filepath.Join(frontendPath, "assets"))

		router.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})

		// SPA fallback - serve index.html for all non-API routes
		router.NoRoute(func(c *gin.Context) {
			if strings.HasPrefix(c.Request.URL.Path, "/api") {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			c.File(indexPath)
		})
	}

	return router
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
