package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nature-catalyst/impact-intake/internal/auth"
	"github.com/nature-catalyst/impact-intake/internal/common"
	"github.com/nature-catalyst/impact-intake/internal/export"
	"github.com/nature-catalyst/impact-intake/internal/extract"
	"github.com/nature-catalyst/impact-intake/internal/intake"
	"github.com/nature-catalyst/impact-intake/internal/llm/openai"
	"github.com/nature-catalyst/impact-intake/internal/metrics"
	"github.com/nature-catalyst/impact-intake/internal/pipeline"
	"github.com/nature-catalyst/impact-intake/internal/repository"
	"github.com/nature-catalyst/impact-intake/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open project store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close project store", "error", err)
		}
	}()

	m := metrics.New()

	var docSvc extract.DocumentExtractor
	if cfg.Extractor.BaseURL != "" {
		docSvc = extract.NewHTTPDocumentExtractor(cfg.Extractor.BaseURL, cfg.Extractor.Timeout, logger)
	} else {
		logger.Warn("EXTRACTOR_URL not set; office formats fall back to byte-scan extraction")
	}

	validator := intake.NewValidator(logger)
	extractor := extract.NewExtractor(docSvc, extract.DefaultRetryPolicy(), logger)

	llmClient := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, logger)

	processor := pipeline.NewProcessor(validator, extractor, llmClient, m, logger)
	exporter := export.NewService(repo, logger)
	codes := auth.NewCodes(cfg.Access)

	srv := server.New(cfg.Server.Addr, processor, repo, exporter, codes, logger)
	if err := srv.Start(ctx, cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("stopped")
}

func openRepository(ctx context.Context, cfg *common.Config, logger *slog.Logger) (repository.ProjectRepository, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return repository.NewPostgresRepository(ctx, repository.PostgresConfig{
			DSN:         cfg.Store.PostgresDSN,
			MaxConns:    cfg.Store.MaxConns,
			DialTimeout: cfg.Store.DialTimeout,
		}, logger)
	case "sqlite":
		return repository.NewSQLiteRepository(ctx, cfg.Store.SQLitePath, logger)
	default:
		return repository.NewMemoryRepository(logger), nil
	}
}
