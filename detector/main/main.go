package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"smartcheckout/detector/config"
	"smartcheckout/detector/service"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Set log level
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create service
	svc, err := service.NewService(cfg)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}

	// Start service
	if err := svc.Start(); err != nil {
		log.Fatalf("Failed to start service: %v", err)
	}

	// Setup HTTP server
	router := setupRouter(svc)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
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

	if err := svc.Stop(); err != nil {
		log.Errorf("Error stopping service: %v", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupRouter(svc *service.Service) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := svc.GetHandlers()

	// API routes
	api := router.Group("/api/v3")
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		// WebSocket endpoint for the detection feed
		api.GET("/detections/listen", h.ListenDetections)

		// Session control endpoints
		api.POST("/detections/start", h.StartDetection)
		api.POST("/detections/stop", h.StopDetection)

		// Observation ingest from the camera process
		api.POST("/detections", h.IngestObservations)

		// Frame ingest from the camera process
		api.POST("/frames", h.IngestFrame)

		// Product catalog endpoint
		api.GET("/catalog", h.GetCatalog)

		// Health check endpoint
		api.GET("/detections/health", h.HealthCheck)
	}

	// MJPEG stream for the dashboard video panel (no gzip on multipart)
	router.GET("/video_feed", h.VideoFeed)

	// Root health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "detector",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	return router
}
