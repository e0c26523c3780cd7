package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"gamechat-rag/catalog"
	"gamechat-rag/database"
	"gamechat-rag/services"
)

func main() {
	_ = godotenv.Load()

	var (
		path    = flag.String("file", "data/data.json", "Path to the card data file (.json, .yaml or .yml; a list or {\"items\": [...]})")
		dsn     = flag.String("dsn", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		timeout = flag.Duration("timeout", 2*time.Minute, "Overall timeout for the import")
		verbose = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	level := services.LogLevelInfo
	if *verbose {
		level = services.LogLevelDebug
	}
	logger := services.NewStructuredLogger(level, os.Stdout)
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	written, err := seed(ctx, *path, *dsn, logger)
	if err != nil {
		logger.Error("Card import failed", err, services.String("file", *path))
		os.Exit(1)
	}

	logger.Info("Card import completed", services.String("file", *path), services.Int("written", written))
}

func seed(ctx context.Context, path, dsn string, logger services.Logger) (int, error) {
	items, err := catalog.ReadItems(path)
	if err != nil {
		return 0, err
	}
	logger.Debug("Card file read", services.Int("items", len(items)))

	db, err := database.NewPostgresService(ctx, database.DefaultPostgresConfig(dsn))
	if err != nil {
		return 0, err
	}
	defer db.Close()

	repo := database.NewCardRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return 0, err
	}

	written, err := repo.UpsertItems(ctx, items)
	if err != nil {
		return written, fmt.Errorf("failed after %d cards: %w", written, err)
	}
	if skipped := len(items) - written; skipped > 0 {
		logger.Warn("Cards without an id were skipped", services.Int("skipped", skipped))
	}
	return written, nil
}
