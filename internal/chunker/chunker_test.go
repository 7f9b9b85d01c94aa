package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/pdf2sheet/internal/pdftext"
)

func TestSplitDeterministic(t *testing.T) {
	pages := []pdftext.Page{
		{Number: 1, Text: "Name: Alice\n\nRole: Engineer\n\n" + strings.Repeat("filler text ", 40)},
		{Number: 2, Text: "Budget: 1200\n\nOwner: Ops"},
	}

	first := Split(pages, 120)
	second := Split(pages, 120)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestSplitRespectsBudget(t *testing.T) {
	pages := []pdftext.Page{
		{Number: 1, Text: strings.Repeat("alpha beta gamma delta. ", 30)},
	}

	chunks := Split(pages, 100)
	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 100, "chunk %d over budget", i)
		assert.NotEmpty(t, ch.Text, "chunk %d empty", i)
		assert.Equal(t, i, ch.Index)
	}
}

func TestSplitEmptyDocument(t *testing.T) {
	pages := []pdftext.Page{
		{Number: 1, Text: ""},
		{Number: 2, Text: "   \n\n  "},
	}

	assert.Empty(t, Split(pages, 100))
}

func TestSplitMergesAcrossPages(t *testing.T) {
	pages := []pdftext.Page{
		{Number: 1, Text: "Total: 10"},
		{Number: 2, Text: ""},
		{Number: 3, Text: "Tax: 2"},
	}

	chunks := Split(pages, 1800)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Total: 10\n\nTax: 2", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].StartPage)
	assert.Equal(t, 3, chunks[0].EndPage)
}

func TestSplitForceSplitsOversizedParagraph(t *testing.T) {
	// No whitespace anywhere, so only hard cuts at the limit are possible.
	para := strings.Repeat("x", 120)
	pages := []pdftext.Page{{Number: 1, Text: para}}

	chunks := Split(pages, 50)
	require.Len(t, chunks, 3)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 50)
		assert.Equal(t, 1, ch.StartPage)
		assert.Equal(t, 1, ch.EndPage)
	}

	// Nothing may be dropped from the tail.
	var rebuilt strings.Builder
	for _, ch := range chunks {
		rebuilt.WriteString(ch.Text)
	}
	assert.Equal(t, para, rebuilt.String())
}

func TestSplitForceSplitPrefersWordBoundary(t *testing.T) {
	para := strings.TrimSpace(strings.Repeat("word ", 30)) // 149 chars
	pages := []pdftext.Page{{Number: 1, Text: para}}

	chunks := Split(pages, 50)
	require.Greater(t, len(chunks), 1)

	var parts []string
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 50)
		assert.True(t, strings.HasPrefix(ch.Text, "word"), "mid-word cut: %q", ch.Text)
		assert.True(t, strings.HasSuffix(ch.Text, "word"), "mid-word cut: %q", ch.Text)
		parts = append(parts, ch.Text)
	}
	assert.Equal(t, para, strings.Join(parts, " "))
}

func TestSplitStartsNewChunkWhenBudgetWouldOverflow(t *testing.T) {
	pages := []pdftext.Page{
		{Number: 1, Text: strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 40)},
	}

	chunks := Split(pages, 50)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 40), chunks[0].Text)
	assert.Equal(t, strings.Repeat("b", 40), chunks[1].Text)
}
