package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	gormlogger "gorm.io/gorm/logger"

	"presentation-server/internal/config"
	"presentation-server/internal/domain/pipeline"
	"presentation-server/internal/domain/slideimage"
	"presentation-server/internal/infrastructure/database"
	"presentation-server/internal/infrastructure/imagegen"
	"presentation-server/internal/infrastructure/imagestore"
	"presentation-server/internal/infrastructure/logger"
	"presentation-server/internal/infrastructure/observability"
	"presentation-server/internal/infrastructure/provider"
	slideimagerepo "presentation-server/internal/infrastructure/repository/slideimage"
	"presentation-server/internal/interfaces/httpserver"
	"presentation-server/internal/interfaces/httpserver/handlers"
)

type Application struct {
	httpServer *httpserver.HttpServer
	log        zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, log zerolog.Logger) *Application {
	return &Application{
		httpServer: httpServer,
		log:        log,
	}
}

func (a *Application) Start(ctx context.Context) error {
	return a.httpServer.Run(ctx)
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	db, err := database.Connect(database.Config{
		DSN:             cfg.DatabaseURL,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		LogLevel:        gormlogger.Warn,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	if err := database.AutoMigrate(ctx, db, log); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	// Store backend served by this process.
	imageRepository := slideimagerepo.NewPostgresRepository(db)
	storeService := slideimage.NewService(imageRepository, cfg.MaxImageBytes, log)

	// Generation backend served by this process.
	var imageProvider pipeline.Generator
	if cfg.GeminiAPIKey != "" {
		imageProvider, err = provider.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiImageModel, log)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize gemini provider")
		}
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, generate-slide-image endpoint is disabled")
		imageProvider = provider.NewDisabled()
	}

	// The pipeline consumes both backends over their HTTP contracts, which
	// by default point back at this server.
	generatorClient := imagegen.NewClient(cfg.ImageGenURL, cfg.GenerationTimeout)
	storeClient := imagestore.NewClient(cfg.ImageStoreURL, 0)

	coordinator := pipeline.NewCoordinator(generatorClient, storeClient, pipeline.Config{
		Interval:          cfg.GenerationInterval,
		GenerationTimeout: cfg.GenerationTimeout,
		PersistRetryMax:   cfg.PersistRetryMax,
	}, log)

	handlerProvider := handlers.NewProvider(coordinator, storeService, imageProvider, log)
	httpServer := httpserver.New(cfg, log, handlerProvider)
	app := NewApplication(httpServer, log)

	if err := app.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("application stopped with error")
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
