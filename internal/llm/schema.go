package llm

// BuildRecordArraySchema returns a JSON-Schema (draft 2020-12 subset) for the
// expected model reply: an array of {key, value, comment} objects. We embed
// it in the prompt and also use it locally to validate each element.
func BuildRecordArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": recordElementSchema(),
	}
}

// recordElementSchema constrains a single record. 'value' is intentionally
// untyped: the source is schema-less, so numbers and booleans are accepted
// and string-coerced after validation. Both 'comment' and 'comments' are
// tolerated; models use either spelling.
func recordElementSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"key":      map[string]any{"type": "string", "minLength": 1},
			"value":    map[string]any{},
			"comment":  map[string]any{"type": "string"},
			"comments": map[string]any{"type": "string"},
		},
		"required": []string{"key", "value"},
	}
}
