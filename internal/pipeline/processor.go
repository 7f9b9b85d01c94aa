// Package pipeline orchestrates per-chunk extraction and merges the results
// into a single ResultSet, degrading every chunk-level failure into an
// unstructured fallback row instead of aborting the run.
package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/pdf2sheet/internal/chunker"
	"github.com/joseph-ayodele/pdf2sheet/internal/entity"
	"github.com/joseph-ayodele/pdf2sheet/internal/llm"
	"github.com/joseph-ayodele/pdf2sheet/internal/pdftext"
)

// Config holds aggregation behavior flags.
type Config struct {
	Workers int // ≤1 means sequential processing
}

type Processor struct {
	logger    *slog.Logger
	cfg       Config
	extractor llm.RecordExtractor
}

func NewProcessor(logger *slog.Logger, cfg Config, extractor llm.RecordExtractor) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, cfg: cfg, extractor: extractor}
}

// chunkOutcome is the single contribution a chunk makes to the result set:
// either its extracted records or exactly one fallback, never both.
type chunkOutcome struct {
	records  []entity.ExtractedRecord
	fallback *entity.UnstructuredRecord
}

// Process runs extraction for every chunk and assembles the ResultSet.
// Structured entries land in chunk order regardless of worker completion
// order; raw pages are populated one row per input page, unconditionally.
func (p *Processor) Process(ctx context.Context, chunks []chunker.Chunk, pages []pdftext.Page) *entity.ResultSet {
	outcomes := make([]chunkOutcome, len(chunks))
	if p.cfg.Workers > 1 && len(chunks) > 1 {
		p.runPool(ctx, chunks, outcomes)
	} else {
		for i, ch := range chunks {
			outcomes[i] = p.processChunk(ctx, ch)
		}
	}

	rs := &entity.ResultSet{RawPages: make([]entity.RawPageRow, 0, len(pages))}
	for _, o := range outcomes {
		if o.fallback != nil {
			rs.Structured = append(rs.Structured, entity.StructuredEntry{Fallback: o.fallback})
			continue
		}
		for i := range o.records {
			rec := o.records[i]
			rs.Structured = append(rs.Structured, entity.StructuredEntry{Record: &rec})
		}
	}
	for _, pg := range pages {
		rs.RawPages = append(rs.RawPages, entity.RawPageRow{Page: pg.Number, Text: pg.Text})
	}

	extracted, unstructured := rs.Counts()
	p.logger.Info("pipeline.process.ok",
		"chunks", len(chunks),
		"pages", len(pages),
		"extracted", extracted,
		"unstructured", unstructured,
	)
	return rs
}

func (p *Processor) processChunk(ctx context.Context, ch chunker.Chunk) chunkOutcome {
	start := time.Now()

	raw, err := p.extractor.ExtractRecords(ctx, llm.ExtractRequest{
		ChunkIndex: ch.Index,
		StartPage:  ch.StartPage,
		EndPage:    ch.EndPage,
		Text:       ch.Text,
	})
	if err != nil {
		// No response was obtained; preserve the chunk text itself so the
		// fallback row is still lossless.
		p.logger.Warn("pipeline.chunk.provider_failed", "chunk_index", ch.Index, "error", err)
		return chunkOutcome{fallback: &entity.UnstructuredRecord{
			ChunkIndex:  ch.Index,
			RawResponse: ch.Text,
			Reason:      "provider error: " + err.Error(),
		}}
	}

	records, failure := llm.ParseRecords(ch.Index, raw)
	if failure != nil {
		p.logger.Warn("pipeline.chunk.parse_failed",
			"chunk_index", ch.Index,
			"reason", failure.Reason,
			"detail", failure.Detail,
		)
		return chunkOutcome{fallback: &entity.UnstructuredRecord{
			ChunkIndex:  ch.Index,
			RawResponse: raw,
			Reason:      failure.Summary(),
		}}
	}
	if len(records) == 0 {
		// A valid-but-empty reply still leaves one trace row for the chunk.
		p.logger.Info("pipeline.chunk.empty", "chunk_index", ch.Index)
		return chunkOutcome{fallback: &entity.UnstructuredRecord{
			ChunkIndex:  ch.Index,
			RawResponse: raw,
			Reason:      "empty extraction",
		}}
	}

	p.logger.Info("pipeline.chunk.ok",
		"chunk_index", ch.Index,
		"records", len(records),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return chunkOutcome{records: records}
}

// runPool processes chunks with a bounded worker pool. Each worker writes
// only its own outcome slot, so chunk order is preserved without locking.
func (p *Processor) runPool(ctx context.Context, chunks []chunker.Chunk, outcomes []chunkOutcome) {
	sem := make(chan struct{}, p.cfg.Workers)
	var wg sync.WaitGroup
	for i, ch := range chunks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, ch chunker.Chunk) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = p.processChunk(ctx, ch)
		}(i, ch)
	}
	wg.Wait()
}
