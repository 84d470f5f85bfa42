// Command httpd serves the complaint classification API over a model
// bundle trained by cmd/trainer.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/grievassist/ml-service/internal/api"
	"github.com/grievassist/ml-service/internal/artifacts"
	"github.com/grievassist/ml-service/internal/config"
	"github.com/grievassist/ml-service/internal/database"
	"github.com/grievassist/ml-service/internal/logging"
	"github.com/grievassist/ml-service/internal/predictor"
	"github.com/grievassist/ml-service/internal/processor"
	"github.com/grievassist/ml-service/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Must("info").Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Must(cfg.Logging.Level)
	logger.Info("starting ml-service",
		"version", cfg.Service.Version,
		"port", cfg.Service.Port,
		"models_dir", cfg.Models.Dir,
	)

	// A missing required artifact is fatal; serving without a category
	// model would be lying to every caller.
	bundle, err := artifacts.Load(cfg.Models.Dir)
	if err != nil {
		logger.Error("failed to load model bundle", "dir", cfg.Models.Dir, "error", err)
		os.Exit(1)
	}
	logger.Info("model bundle loaded",
		"categories", len(bundle.Labels),
		"n_samples", bundle.Meta.NSamples,
		"has_priority", bundle.HasPriority(),
		"created_at", bundle.Meta.CreatedAt,
	)
	if !bundle.HasPriority() {
		logger.Warn("no priority model, serving in degraded mode")
	}

	tel := telemetry.NewProvider()

	var history *database.HistoryRepository
	if cfg.History.Enabled {
		db, dbErr := database.Open(cfg.History)
		if dbErr != nil {
			logger.Error("failed to open history database", "error", dbErr)
			os.Exit(1)
		}
		defer db.Close()

		history = database.NewHistoryRepository(db)
		if migrateErr := history.Migrate(context.Background()); migrateErr != nil {
			logger.Error("failed to migrate history schema", "error", migrateErr)
			os.Exit(1)
		}
		logger.Info("prediction history enabled", "driver", cfg.History.Driver)
	}

	p := predictor.New(bundle, cfg.Prediction, logger, tel)
	batch := processor.NewBatchProcessor(p, cfg.Service.Concurrency, logger, tel)
	limiter := processor.NewRateLimiter(cfg.Service.BatchRPS, cfg.Service.BatchRPS, logger)
	handler := api.NewHandler(p, batch, limiter, history, cfg, logger, tel)

	server := api.NewServer(api.ServerOptions{
		Port:  cfg.Service.Port,
		Debug: cfg.Service.Debug,
	}, logger, func(router *gin.Engine) {
		api.SetupRoutes(router, handler, tel, cfg.Auth.JWTSecret)
	})

	if err := server.RunWithGracefulShutdown(context.Background()); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}
