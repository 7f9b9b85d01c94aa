package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/pdf2sheet/internal/chunker"
	"github.com/joseph-ayodele/pdf2sheet/internal/common"
	"github.com/joseph-ayodele/pdf2sheet/internal/entity"
	"github.com/joseph-ayodele/pdf2sheet/internal/export"
	"github.com/joseph-ayodele/pdf2sheet/internal/llm"
	"github.com/joseph-ayodele/pdf2sheet/internal/llm/openai"
	"github.com/joseph-ayodele/pdf2sheet/internal/pdftext"
	"github.com/joseph-ayodele/pdf2sheet/internal/pipeline"
	"github.com/joseph-ayodele/pdf2sheet/internal/repository"
)

const (
	defaultInput  = "Data Input.pdf"
	defaultOutput = "Structured Output (GENERATED).xlsx"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	inPath := defaultInput
	outPath := defaultOutput
	if len(os.Args) > 1 {
		inPath = os.Args[1]
	}
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	if _, err := os.Stat(inPath); err != nil {
		logger.Error("input file not found", "path", inPath, "error", err)
		os.Exit(2)
	}

	runID := uuid.New()
	startedAt := time.Now()
	logger.Info("run.start",
		"run_id", runID.String(),
		"input", inPath,
		"output", outPath,
		"model", cfg.LLM.Model,
		"max_chunk_chars", cfg.Chunk.MaxChars,
		"workers", cfg.Pipeline.Workers,
	)

	pages, err := pdftext.ExtractPages(inPath)
	if err != nil {
		logger.Error("pdf extraction failed", "path", inPath, "error", err)
		os.Exit(1)
	}

	chunks := chunker.Split(pages, cfg.Chunk.MaxChars)
	logger.Info("run.chunked", "pages", len(pages), "chunks", len(chunks))

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		Retry: llm.RetryPolicy{
			MaxAttempts: cfg.LLM.MaxAttempts,
			BaseDelay:   cfg.LLM.RetryBaseDelay,
		},
	}, logger)

	proc := pipeline.NewProcessor(logger, pipeline.Config{Workers: cfg.Pipeline.Workers}, client)

	ctx := context.Background()
	rs := proc.Process(ctx, chunks, pages)

	if err := export.NewWriter(logger).WriteFile(rs, outPath); err != nil {
		logger.Error("spreadsheet write failed", "path", outPath, "error", err)
		os.Exit(1)
	}

	extracted, unstructured := rs.Counts()
	if cfg.LedgerPath != "" {
		recordRun(ctx, logger, cfg.LedgerPath, repository.Run{
			ID:           runID,
			InputPath:    inPath,
			OutputPath:   outPath,
			Model:        cfg.LLM.Model,
			Pages:        len(pages),
			Chunks:       len(chunks),
			Extracted:    extracted,
			Unstructured: unstructured,
			StartedAt:    startedAt,
			FinishedAt:   time.Now(),
		}, rs)
	}

	logger.Info("run.ok",
		"run_id", runID.String(),
		"output", outPath,
		"extracted", extracted,
		"unstructured", unstructured,
		"pages", len(pages),
		"elapsed_ms", time.Since(startedAt).Milliseconds(),
	)
}

// recordRun appends the run to the ledger. Ledger problems never fail the
// run; the spreadsheet is already on disk.
func recordRun(ctx context.Context, logger *slog.Logger, path string, run repository.Run, rs *entity.ResultSet) {
	ledger, err := repository.OpenLedger(path, logger)
	if err != nil {
		logger.Warn("run ledger unavailable", "path", path, "error", err)
		return
	}
	defer func() { _ = ledger.Close() }()

	if err := ledger.RecordRun(ctx, run, rs); err != nil {
		logger.Warn("run ledger write failed", "path", path, "error", err)
	}
}
