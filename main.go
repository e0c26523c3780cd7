package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"gamechat-rag/config"
	"gamechat-rag/server"
	"gamechat-rag/services"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	logger := services.NewLoggerFromConfig(&services.LoggerConfig{
		Level:  services.ParseLogLevel(cfg.Logging.Level),
		Format: cfg.Logging.Format,
		Output: os.Stdout,
	})
	if syncer, ok := logger.(interface{ Sync() error }); ok {
		defer syncer.Sync()
	}

	for _, warning := range cfg.Warnings {
		logger.Warn("Configuration warning", services.String("warning", warning))
	}

	container, err := services.NewServiceFactory(cfg, logger).CreateServices(context.Background())
	if err != nil {
		logger.Error("Failed to create services", err)
		os.Exit(1)
	}
	defer container.Close()

	srv := server.NewServer(cfg, container)

	logger.Info("Game chat RAG backend starting",
		services.String("version", services.Version),
		services.Bool("fake_mode", cfg.RAG.UseFake),
		services.Strings("effect_namespaces", cfg.RAG.EffectNamespaces))
	if err := srv.Start(); err != nil {
		logger.Error("Server failed", err)
		os.Exit(1)
	}
}
