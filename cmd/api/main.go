package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/api"
	"github.com/plateful/backend/internal/database"
	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/router"
	"github.com/plateful/backend/internal/server"
	"github.com/plateful/backend/internal/service"
)

func main() {
	if !config.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Rate limiting is skipped when Redis is not configured.
	var rateLimiter *middleware.RateLimiter
	if cfg.RedisURL != "" || cfg.RedisHost != "" {
		redisClient, err := database.NewRedisClient(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		rateLimiter = middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
			Window:    time.Minute,
			Limit:     60,
			KeyPrefix: "ratelimit",
		})
	}

	// Image storage is optional as well; without S3 the submitted value is
	// stored as-is.
	var imageService *service.ImageService
	if s3Cfg, err := config.NewS3Config(context.Background()); err == nil {
		imageService = service.NewImageService(s3Cfg)
	} else {
		log.Warn().Err(err).Msg("S3 not configured, storing image payloads inline")
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	userService := service.NewUserService(db)
	recipeService := service.NewRecipeService(db)
	shoppingListService := service.NewShoppingListService(db)

	engine := router.SetupRouter(
		api.NewAuthHandler(authService),
		api.NewUserHandler(userService, authService, imageService),
		api.NewTagHandler(db),
		api.NewIngredientHandler(db, authService),
		api.NewRecipeHandler(recipeService, userService, shoppingListService, authService, imageService, cfg.BaseURL, rateLimiter),
	)

	srv := server.New(engine, cfg.ServerHost+":"+cfg.ServerPort)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server shutdown error")
	}
	log.Info().Msg("server stopped")
}
