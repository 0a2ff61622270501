package main

import (
	"log"
	"time"

	"keep-notes-api/internal/config"
	"keep-notes-api/internal/database"
	"keep-notes-api/internal/handlers"
	"keep-notes-api/internal/middleware"
	"keep-notes-api/internal/repository"
	"keep-notes-api/pkg/auth"
	"keep-notes-api/pkg/cache"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	// Connect to database and run migrations
	db, err := database.NewMySQLConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.DBName); err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}

	// Optional Redis cache; a nil service degrades to no caching
	var cacheService *cache.Service
	if cfg.CacheEnabled {
		cacheService = cache.NewService(cache.Config{
			Host:       cfg.RedisHost,
			Port:       cfg.RedisPort,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			DefaultTTL: cfg.CacheTTL,
		})
		defer cacheService.Close()
	}

	// Session token validation against the shared secret
	tokens := auth.NewTokenManager(cfg.JWTSecret, 24*time.Hour)

	// Repositories and handlers
	noteRepo := repository.NewNoteRepository(db)
	tagRepo := repository.NewTagRepository(db)

	noteHandler := handlers.NewNoteHandler(noteRepo, cacheService)
	tagHandler := handlers.NewTagHandler(tagRepo, cacheService)

	// Setup Gin router
	r := gin.New()

	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "keep-notes-api",
		})
	})

	// Authenticated API routes
	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)))
	api.Use(middleware.AuthMiddleware(tokens))
	{
		notes := api.Group("/notes")
		{
			notes.GET("", noteHandler.GetNotes)
			notes.POST("", noteHandler.CreateNote)
			notes.GET("/:id", noteHandler.GetNote)
			notes.PATCH("/:id", noteHandler.UpdateNote)
			notes.DELETE("/:id", noteHandler.DeleteNote)
		}

		tags := api.Group("/tags")
		{
			tags.GET("", tagHandler.GetTags)
			tags.POST("", tagHandler.CreateTag)
			tags.PATCH("/:id", tagHandler.UpdateTag)
			tags.DELETE("/:id", tagHandler.DeleteTag)
		}
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
