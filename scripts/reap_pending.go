// Command reap_pending fails itineraries that stayed pending past a cutoff,
// which happens when the process handling the request died before the model
// answered. Run it from cron or a Kubernetes CronJob.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	database "github.com/FACorreiaa/wanderplan/app/db"
	"github.com/FACorreiaa/wanderplan/config"
	"github.com/FACorreiaa/wanderplan/internal/api/itinerary"
)

func main() {
	olderThan := flag.Duration("older-than", 0, "fail itineraries pending for longer than this (default itinerary.pendingCutoff)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *olderThan <= 0 {
		*olderThan = cfg.Itinerary.PendingCutoff
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}
	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready, exiting.")
		os.Exit(1)
	}

	janitor := itinerary.NewJanitor(itinerary.NewRepository(pool, logger), logger)
	n, err := janitor.ReapStalePending(ctx, *olderThan)
	if err != nil {
		logger.Error("Reaping failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Done", slog.Int64("reaped", n), slog.Duration("older_than", *olderThan))
}
