// Package chunker splits page text into ordered, size-bounded chunks at
// paragraph boundaries, keeping page provenance for every chunk.
package chunker

import (
	"strings"

	"github.com/joseph-ayodele/pdf2sheet/internal/pdftext"
)

// DefaultMaxChars is the chunk budget used when no override is configured.
const DefaultMaxChars = 1800

// Chunk is a contiguous slice of document text submitted to the model in one
// request. Text is never empty and, except for the oversized-paragraph
// force-split remainder handling, never exceeds the configured budget.
type Chunk struct {
	Index     int
	StartPage int
	EndPage   int
	Text      string
}

// Split concatenates page texts in page order and accumulates paragraphs
// into chunks of at most maxChars characters. Paragraphs longer than the
// budget are force-split, preferring a newline, sentence, or word boundary
// nearest the limit over a mid-word cut. Splitting is deterministic: the
// same pages and budget always produce identical chunk boundaries. A fully
// empty document yields zero chunks.
func Split(pages []pdftext.Page, maxChars int) []Chunk {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var chunks []Chunk
	var b strings.Builder
	startPage, endPage := 0, 0

	flush := func() {
		if b.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			StartPage: startPage,
			EndPage:   endPage,
			Text:      b.String(),
		})
		b.Reset()
	}

	for _, pg := range pages {
		for _, para := range paragraphs(pg.Text) {
			// An oversized paragraph is cut down until the remainder fits.
			// Each head becomes its own chunk; the loop always terminates
			// because every cut removes at least one character.
			for len(para) > maxChars {
				head, rest := splitOversized(para, maxChars)
				if head != "" {
					flush()
					startPage, endPage = pg.Number, pg.Number
					b.WriteString(head)
					flush()
				}
				para = rest
			}
			if para == "" {
				continue
			}

			switch {
			case b.Len() == 0:
				startPage, endPage = pg.Number, pg.Number
				b.WriteString(para)
			case b.Len()+2+len(para) <= maxChars:
				b.WriteString("\n\n")
				b.WriteString(para)
				endPage = pg.Number
			default:
				flush()
				startPage, endPage = pg.Number, pg.Number
				b.WriteString(para)
			}
		}
	}
	flush()
	return chunks
}

// paragraphs splits page text on blank lines, dropping empty segments.
func paragraphs(text string) []string {
	parts := strings.Split(text, "\n\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// splitOversized cuts s at the boundary closest to limit: the last newline
// in the window, else the last sentence end, else the last space, else a
// hard cut at limit. rest is always strictly shorter than s.
func splitOversized(s string, limit int) (head, rest string) {
	window := s[:limit]
	cut := limit
	if i := strings.LastIndexByte(window, '\n'); i > 0 {
		cut = i + 1
	} else if i := strings.LastIndex(window, ". "); i > 0 {
		cut = i + 2
	} else if i := strings.LastIndexByte(window, ' '); i > 0 {
		cut = i + 1
	}
	head = strings.TrimSpace(s[:cut])
	rest = strings.TrimSpace(s[cut:])
	return head, rest
}
