package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/crewlink/relay/config"
	"github.com/crewlink/relay/internal/handlers"
	"github.com/crewlink/relay/internal/middleware"
	"github.com/crewlink/relay/internal/presence"
	"github.com/crewlink/relay/internal/relay"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Optional Redis presence mirror, for external reporting only
	var mirror *presence.Mirror
	if cfg.Redis.Addr != "" {
		m, err := presence.Dial(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		mirror = m
		defer mirror.Close()
		log.Println("Redis connection established")
	}

	rly := relay.New(mirror)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Global CORS middleware (runs before routing)
	router.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public status page
	router.GET("/", handlers.Status(rly))

	// WebSocket signaling endpoint
	router.GET("/ws", handlers.Signaling(rly))

	// Operator API (authenticated)
	apiGroup := router.Group("/api")
	{
		// Login endpoint (public)
		apiGroup.POST("/auth/login", handlers.Login(cfg))

		// Relay stats (requires JWT)
		apiGroup.GET("/stats", middleware.JWTAuth(cfg.JWTSecret), handlers.Stats(rly))

		// Room membership snapshot (requires JWT)
		apiGroup.GET("/rooms/:code", middleware.JWTAuth(cfg.JWTSecret), handlers.GetRoom(rly))
	}

	// Everything else is served from the static directory (game offsets)
	static := http.FileServer(http.Dir(cfg.StaticDir))
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		static.ServeHTTP(c.Writer, c.Request)
	})

	// Start server
	log.Printf("Server listening on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
