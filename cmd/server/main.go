package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinote/clinote-backend/internal/auth"
	"github.com/clinote/clinote-backend/internal/cache"
	"github.com/clinote/clinote-backend/internal/config"
	"github.com/clinote/clinote-backend/internal/database"
	"github.com/clinote/clinote-backend/internal/handlers"
	"github.com/clinote/clinote-backend/internal/middleware"
	"github.com/clinote/clinote-backend/internal/notegen"
	"github.com/clinote/clinote-backend/internal/repository"
	"github.com/clinote/clinote-backend/internal/services"
	"github.com/clinote/clinote-backend/pkg/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Initialize logger
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting Clinote API")

	// Initialize store
	var store repository.Store
	if cfg.Database.Driver == "memory" {
		store = repository.NewMemoryStore()
		log.Warn().Msg("Using in-memory store, data will not survive restarts")
	} else {
		db, err := database.Connect(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
			LogLevel: cfg.Database.LogLevel,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer database.Close(db)
		store = repository.NewGormStore(db)
	}

	// Initialize cache
	var cacheImpl cache.Cache
	if cfg.Cache.Enabled && cfg.Cache.Type == "redis" {
		addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
		cacheImpl, err = cache.NewRedisCache(addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		log.Info().Msg("Redis cache initialized")
	} else if cfg.Cache.Enabled {
		cacheImpl = cache.NewMemoryCache()
		log.Info().Msg("Memory cache initialized")
	}

	// Initialize token manager
	tokens, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token manager")
	}

	// Initialize services
	authService := services.NewAuthService(store, tokens)
	encounterService := services.NewEncounterService(store)
	generator := notegen.NewGeminiGenerator(notegen.GeminiConfig{
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		Endpoint: cfg.AI.Endpoint,
		Timeout:  cfg.AI.Timeout,
	})
	noteService := services.NewNoteService(generator, cacheImpl, cfg.Cache.TTL)

	// Initialize handlers and router
	router := handlers.NewRouter(cfg, handlers.RouterDeps{
		Auth:       handlers.NewAuthHandler(authService),
		Encounters: handlers.NewEncounterHandler(encounterService),
		AI:         handlers.NewAIHandler(noteService),
		Health:     handlers.NewHealthHandler(store),
		Authn:      middleware.NewAuthenticator(tokens, store.Users()),
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
