package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/localnerve/pagesdb/internal/config"
	"github.com/localnerve/pagesdb/internal/database"
	"github.com/localnerve/pagesdb/internal/logging"
	"github.com/localnerve/pagesdb/internal/server"
	"github.com/localnerve/pagesdb/internal/services"
	"github.com/rs/zerolog/log"

	_ "github.com/localnerve/pagesdb/docs/api" // Swagger docs
)

// @title PagesDB API
// @version 1.0.0
// @description Page and snippet builder service with versioned content and multi-database support
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://github.com/localnerve/pagesdb
// @contact.email info@localnerve.com

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name cookie_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Setup("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	deps := server.Deps{
		Config:  cfg,
		DB:      db,
		AI:      services.NewAIService(cfg),
		Metrics: fiberprometheus.New("pagesdb"),
	}

	// Session cache is optional
	var cache services.SessionCache
	if cfg.RedisURL != "" {
		redisCache, err := services.NewRedisSessionCache(cfg.RedisURL, cfg.SessionCacheTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer redisCache.Close()
		cache = redisCache
		deps.Cache = redisCache
		log.Info().Dur("ttl", cfg.SessionCacheTTL).Msg("Session cache enabled")
	}

	// Authorizer is initialized on the first authenticated request
	deps.Validator = services.NewAuthenticator(cfg, cache)

	// Graceful shutdown. Cancelling ctx ends open AI streams.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	deps.Context = ctx

	app := server.New(deps)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	log.Info().Str("port", cfg.Port).Msg("Starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}

	log.Info().Msg("Server stopped")
}
