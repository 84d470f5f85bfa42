// Command trainer fits the model bundle from a labeled complaint CSV and
// writes the artifacts the httpd service loads at startup.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grievassist/ml-service/internal/artifacts"
	"github.com/grievassist/ml-service/internal/config"
	"github.com/grievassist/ml-service/internal/logging"
	"github.com/grievassist/ml-service/internal/training"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the config file")
	dataPath := flag.String("data", "complaints.csv", "path to the training CSV")
	outDir := flag.String("out", "", "output directory for artifacts (defaults to models dir from config)")
	seed := flag.Int64("seed", 42, "random seed for the isolation forest and holdout split")
	skipEval := flag.Bool("skip-eval", false, "skip the holdout evaluation")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Must("info").Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Must(cfg.Logging.Level)

	dir := *outDir
	if dir == "" {
		dir = cfg.Models.Dir
	}

	ds, err := training.LoadCSV(*dataPath)
	if err != nil {
		logger.Error("failed to load training data", "path", *dataPath, "error", err)
		os.Exit(1)
	}
	logger.Info("training data loaded",
		"samples", len(ds.Texts),
		"categories", len(ds.Labels),
		"has_priority", ds.HasPriority(),
	)

	if !*skipEval {
		report, evalErr := training.Evaluate(ds, *seed)
		if evalErr != nil {
			logger.Warn("holdout evaluation skipped", "error", evalErr)
		} else {
			fmt.Print(report.String())
		}
	}

	bundle, err := training.Train(ds, training.Options{ForestSeed: *seed}, logger)
	if err != nil {
		logger.Error("training failed", "error", err)
		os.Exit(1)
	}

	if err := artifacts.Save(dir, bundle); err != nil {
		logger.Error("failed to save artifacts", "dir", dir, "error", err)
		os.Exit(1)
	}
	logger.Info("artifacts written", "dir", dir, "has_priority", bundle.HasPriority())
}
