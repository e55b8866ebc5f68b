package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/nature-catalyst/impact-intake/internal/common"
	"github.com/nature-catalyst/impact-intake/internal/extract"
	"github.com/nature-catalyst/impact-intake/internal/intake"
	"github.com/nature-catalyst/impact-intake/internal/llm"
	"github.com/nature-catalyst/impact-intake/internal/llm/openai"
	"github.com/nature-catalyst/impact-intake/internal/pipeline"
)

// intake-extract runs the document pipeline on local files and prints the
// draft fields as JSON. Debugging aid for extraction and prompt changes
// without going through the HTTP surface.
func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: intake-extract <file> [file...]")
		os.Exit(2)
	}

	cfg := common.LoadConfig()

	var files []intake.File
	for _, path := range os.Args[1:] {
		path := path
		info, err := os.Stat(path)
		if err != nil {
			logger.Error("cannot stat file", "path", path, "error", err)
			os.Exit(1)
		}
		files = append(files, intake.File{
			Name: filepath.Base(path),
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		})
	}

	var docSvc extract.DocumentExtractor
	if cfg.Extractor.BaseURL != "" {
		docSvc = extract.NewHTTPDocumentExtractor(cfg.Extractor.BaseURL, cfg.Extractor.Timeout, logger)
	}

	var fields llm.FieldExtractor
	if cfg.LLM.APIKey != "" {
		fields = openai.NewClient(openai.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	} else {
		logger.Warn("OPENAI_API_KEY not set; printing corpus only")
		fields = corpusOnly{}
	}

	processor := pipeline.NewProcessor(
		intake.NewValidator(logger),
		extract.NewExtractor(docSvc, extract.DefaultRetryPolicy(), logger),
		fields,
		nil,
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	res, err := processor.Process(ctx, files, pipeline.Submission{
		ProjectName: getenv("PROJECT_NAME", "local-debug"),
		Sector:      getenv("PROJECT_SECTOR", "Other"),
		Country:     getenv("PROJECT_COUNTRY", "Not specified"),
	})
	if err != nil {
		logger.Error("pipeline failed", "error", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
}

// corpusOnly skips the model call so the tool still shows extraction output.
type corpusOnly struct{}

func (corpusOnly) ExtractFields(_ context.Context, req llm.ExtractRequest) (llm.ExtractResult, []byte, error) {
	return llm.ExtractResult{CorpusSample: llm.Sample(req.Corpus)}, nil, llm.ErrInsufficientText
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
