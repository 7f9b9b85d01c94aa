package llm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/pdf2sheet/internal/entity"
)

// Reason classifies why a model reply could not be parsed into records.
type Reason string

const (
	// NotJSON means no valid JSON array was found in the reply.
	NotJSON Reason = "NotJSON"
	// WrongShape means the JSON decoded but is not an array of objects.
	WrongShape Reason = "WrongShape"
	// MissingField means an element lacks a usable key or value.
	MissingField Reason = "MissingField"
)

// ParseFailure is the tagged failure half of the parse result. It is a
// returned value, not a raised error; the aggregator turns it into an
// unstructured fallback row.
type ParseFailure struct {
	Reason Reason
	Detail string
}

// Summary renders the failure for the spreadsheet's Comments column.
func (f *ParseFailure) Summary() string {
	if f.Detail == "" {
		return string(f.Reason)
	}
	return string(f.Reason) + ": " + f.Detail
}

// ParseRecords locates and decodes a JSON array in the raw model reply and
// validates every element against the record schema. Models wrap JSON in
// prose or code fences; both are tolerated. An object with an "items" array
// is unwrapped. A valid empty array yields zero records and no failure. Any
// invalid element fails the whole chunk rather than being partially kept.
func ParseRecords(chunkIndex int, raw string) ([]entity.ExtractedRecord, *ParseFailure) {
	candidate := extractJSONCandidate(raw)

	var v any
	if err := json.Unmarshal([]byte(candidate), &v); err != nil {
		return nil, &ParseFailure{Reason: NotJSON, Detail: "no valid JSON array found"}
	}
	if m, ok := v.(map[string]any); ok {
		if items, ok := m["items"]; ok {
			v = items
		} else {
			// A bare object is treated as a single-element array.
			v = []any{m}
		}
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, &ParseFailure{Reason: WrongShape, Detail: "top-level JSON is not an array"}
	}

	schema, err := CompileSchema(recordElementSchema())
	if err != nil {
		return nil, &ParseFailure{Reason: WrongShape, Detail: "record schema: " + err.Error()}
	}

	records := make([]entity.ExtractedRecord, 0, len(arr))
	for i, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, &ParseFailure{Reason: WrongShape, Detail: fmt.Sprintf("element %d is not an object", i)}
		}
		if err := schema.Validate(el); err != nil {
			return nil, &ParseFailure{Reason: MissingField, Detail: fmt.Sprintf("element %d: %v", i, err)}
		}

		key, _ := obj["key"].(string)
		if strings.TrimSpace(key) == "" {
			return nil, &ParseFailure{Reason: MissingField, Detail: fmt.Sprintf("element %d: empty key", i)}
		}
		value, ok := coerceString(obj["value"])
		if !ok {
			return nil, &ParseFailure{Reason: MissingField, Detail: fmt.Sprintf("element %d: value is not string-coercible", i)}
		}

		comment, _ := obj["comment"].(string)
		if comment == "" {
			comment, _ = obj["comments"].(string)
		}

		records = append(records, entity.ExtractedRecord{
			Key:        key,
			Value:      value,
			Comment:    comment,
			ChunkIndex: chunkIndex,
		})
	}
	return records, nil
}

// extractJSONCandidate strips markdown fences and, if the remainder is still
// not valid JSON, falls back to the outermost bracketed span.
func extractJSONCandidate(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}
	if json.Valid([]byte(s)) {
		return s
	}
	if start := strings.IndexByte(s, '['); start >= 0 {
		if end := strings.LastIndexByte(s, ']'); end > start {
			return s[start : end+1]
		}
	}
	return s
}

// coerceString renders scalar JSON values as strings. Objects, arrays, and
// null are rejected; the source is schema-less but a value still has to be a
// printable scalar.
func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
