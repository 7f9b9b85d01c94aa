package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdf2sheet/internal/chunker"
	"github.com/joseph-ayodele/pdf2sheet/internal/common"
	"github.com/joseph-ayodele/pdf2sheet/internal/llm"
	"github.com/joseph-ayodele/pdf2sheet/internal/pdftext"
)

// fakeExtractor maps chunk index to a canned reply or error.
type fakeExtractor struct {
	mu        sync.Mutex
	responses map[int]string
	errs      map[int]error
	calls     int
}

func (f *fakeExtractor) ExtractRecords(_ context.Context, req llm.ExtractRequest) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if err := f.errs[req.ChunkIndex]; err != nil {
		return "", err
	}
	return f.responses[req.ChunkIndex], nil
}

func testChunks(texts ...string) []chunker.Chunk {
	chunks := make([]chunker.Chunk, len(texts))
	for i, txt := range texts {
		chunks[i] = chunker.Chunk{Index: i, StartPage: i + 1, EndPage: i + 1, Text: txt}
	}
	return chunks
}

func TestProcessOneFailedChunkAmongThree(t *testing.T) {
	chunks := testChunks("first chunk", "second chunk", "third chunk")
	pages := []pdftext.Page{{Number: 1, Text: "p1"}, {Number: 2, Text: "p2"}}

	ext := &fakeExtractor{
		responses: map[int]string{
			0: `[{"key":"A","value":"1"}]`,
			2: `[{"key":"B","value":"2"},{"key":"C","value":"3"}]`,
		},
		errs: map[int]error{
			1: fmt.Errorf("retries exhausted: %w", common.ErrProvider),
		},
	}

	rs := NewProcessor(nil, Config{}, ext).Process(context.Background(), chunks, pages)

	require.Len(t, rs.RawPages, 2)
	require.Len(t, rs.Structured, 4)

	require.NotNil(t, rs.Structured[0].Record)
	assert.Equal(t, "A", rs.Structured[0].Record.Key)

	fb := rs.Structured[1].Fallback
	require.NotNil(t, fb)
	assert.Equal(t, 1, fb.ChunkIndex)
	assert.Equal(t, "second chunk", fb.RawResponse, "chunk text preserved when no response was obtained")
	assert.Contains(t, fb.Reason, "provider error")

	require.NotNil(t, rs.Structured[2].Record)
	assert.Equal(t, "B", rs.Structured[2].Record.Key)
	require.NotNil(t, rs.Structured[3].Record)
	assert.Equal(t, "C", rs.Structured[3].Record.Key)

	extracted, unstructured := rs.Counts()
	assert.Equal(t, 3, extracted)
	assert.Equal(t, 1, unstructured)
}

func TestProcessParseFailureFallsBack(t *testing.T) {
	chunks := testChunks("only chunk")
	ext := &fakeExtractor{responses: map[int]string{0: "not json at all"}}

	rs := NewProcessor(nil, Config{}, ext).Process(context.Background(), chunks, nil)

	require.Len(t, rs.Structured, 1)
	fb := rs.Structured[0].Fallback
	require.NotNil(t, fb)
	assert.Equal(t, "not json at all", fb.RawResponse)
	assert.Contains(t, fb.Reason, "NotJSON")
}

func TestProcessEmptyReplyLeavesTraceRow(t *testing.T) {
	chunks := testChunks("only chunk")
	ext := &fakeExtractor{responses: map[int]string{0: "[]"}}

	rs := NewProcessor(nil, Config{}, ext).Process(context.Background(), chunks, nil)

	require.Len(t, rs.Structured, 1, "a chunk never contributes zero outcomes")
	fb := rs.Structured[0].Fallback
	require.NotNil(t, fb)
	assert.Equal(t, "empty extraction", fb.Reason)
}

func TestProcessRawPagesAlwaysFullyPopulated(t *testing.T) {
	pages := []pdftext.Page{
		{Number: 1, Text: "alpha"},
		{Number: 2, Text: ""},
		{Number: 3, Text: "gamma"},
	}

	rs := NewProcessor(nil, Config{}, &fakeExtractor{}).Process(context.Background(), nil, pages)

	assert.Empty(t, rs.Structured)
	require.Len(t, rs.RawPages, 3)
	assert.Equal(t, 2, rs.RawPages[1].Page)
	assert.Empty(t, rs.RawPages[1].Text)
}

func TestProcessWorkerPoolPreservesChunkOrder(t *testing.T) {
	const n = 8
	texts := make([]string, n)
	responses := make(map[int]string, n)
	for i := 0; i < n; i++ {
		texts[i] = fmt.Sprintf("chunk %d", i)
		responses[i] = fmt.Sprintf(`[{"key":"k%d","value":"v%d"}]`, i, i)
	}
	chunks := testChunks(texts...)

	sequential := NewProcessor(nil, Config{Workers: 1}, &fakeExtractor{responses: responses}).
		Process(context.Background(), chunks, nil)
	pooled := NewProcessor(nil, Config{Workers: 4}, &fakeExtractor{responses: responses}).
		Process(context.Background(), chunks, nil)

	require.Len(t, pooled.Structured, n)
	for i := 0; i < n; i++ {
		require.NotNil(t, pooled.Structured[i].Record)
		assert.Equal(t, fmt.Sprintf("k%d", i), pooled.Structured[i].Record.Key)
		assert.Equal(t, sequential.Structured[i].Record.Key, pooled.Structured[i].Record.Key)
	}
}

func TestProcessChunkOutcomeInvariant(t *testing.T) {
	// Every chunk contributes either ≥1 record or exactly one fallback.
	chunks := testChunks("a", "b", "c")
	ext := &fakeExtractor{
		responses: map[int]string{
			0: `[{"key":"x","value":"1"}]`,
			1: "garbage",
			2: "[]",
		},
	}

	rs := NewProcessor(nil, Config{}, ext).Process(context.Background(), chunks, nil)

	seen := map[int]int{}
	for _, e := range rs.Structured {
		switch {
		case e.Record != nil:
			seen[e.Record.ChunkIndex]++
		case e.Fallback != nil:
			seen[e.Fallback.ChunkIndex]++
		}
	}
	for i := range chunks {
		assert.GreaterOrEqual(t, seen[i], 1, "chunk %d contributed nothing", i)
	}
}
