package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scam-alert-service/config"
	"scam-alert-service/middleware"
	"scam-alert-service/service"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	log.SetLevelFromString(cfg.LogLevel)
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	svc, err := service.NewService(cfg)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	svc.Start()

	router := setupRouter(svc, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Starting HTTP server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	svc.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupRouter(svc *service.Service, cfg *config.Config) *gin.Engine {
	router := gin.Default()

	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := svc.GetHandlers()

	router.GET("/health", h.HealthCheck)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))
	{
		// Trend alerts
		api.GET("/alerts/trending", h.GetTrending)
		api.GET("/alerts/preferences", h.GetPreferences)
		api.POST("/alerts/subscribe", h.Subscribe)

		// Scam reports
		writeLimit := middleware.RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow)
		api.POST("/reports", writeLimit, h.SubmitReport)
		api.GET("/reports", h.GetMyReports)
		api.GET("/reports/:id", h.GetReportDetails)
		api.POST("/reports/:id/verify", writeLimit, h.VerifyReport)
	}

	return router
}
