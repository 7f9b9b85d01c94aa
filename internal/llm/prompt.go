package llm

import (
	"fmt"
	"strings"
)

// BuildSystemPrompt composes the fixed extraction instructions: no invented
// data, strict JSON, original wording, array-of-records shape, and an empty
// array when the chunk has no key:value content.
func BuildSystemPrompt() string {
	parts := []string{
		"You are a reliable extractor. The input is a text chunk taken from a PDF.",
		"Identify all implicit or explicit key:value pairs present in the text.",
		"Preserve the original wording exactly; never paraphrase and never invent data that is not in the chunk.",
		`Return ONLY strictly valid JSON: an array of objects shaped as {"key": ..., "value": ..., "comment": ...}.`,
		"The comment field is optional context; use an empty string when there is nothing to add.",
		"If the chunk contains no discernible key:value content, return an empty array [] rather than inventing pairs.",
		"Do not wrap the JSON in markdown fences or prose.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt packages the chunk text with its provenance.
func BuildUserPrompt(req ExtractRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Chunk %d (pages %d-%d):\n\n", req.ChunkIndex, req.StartPage, req.EndPage)
	b.WriteString(req.Text)
	return b.String()
}
