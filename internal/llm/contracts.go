package llm

import "context"

// ExtractRequest carries one chunk of document text to the model.
type ExtractRequest struct {
	ChunkIndex int
	StartPage  int
	EndPage    int
	Text       string
}

// RecordExtractor is the interface the pipeline depends on. It returns the
// model's raw reply; parsing and validation happen in the caller so a
// malformed reply can still be preserved verbatim.
type RecordExtractor interface {
	ExtractRecords(ctx context.Context, req ExtractRequest) (string, error)
}
