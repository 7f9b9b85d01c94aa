package entity

// ExtractedRecord is one inferred key:value pair from a chunk. ChunkIndex is
// internal provenance and is not surfaced in the spreadsheet.
type ExtractedRecord struct {
	Key        string `json:"key"`
	Value      string `json:"value"`
	Comment    string `json:"comment,omitempty"`
	ChunkIndex int    `json:"chunk_index"`
}

// UnstructuredRecord preserves the literal model response (or the chunk text
// when no response was obtained) for a chunk whose extraction failed.
type UnstructuredRecord struct {
	ChunkIndex  int    `json:"chunk_index"`
	RawResponse string `json:"raw_response"`
	Reason      string `json:"reason"`
}

// RawPageRow is one row of the full-coverage backup sheet.
type RawPageRow struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// StructuredEntry holds exactly one of Record or Fallback.
type StructuredEntry struct {
	Record   *ExtractedRecord
	Fallback *UnstructuredRecord
}

// ResultSet is the finalized in-memory output of a run, consumed once by the
// spreadsheet writer. Structured entries are in chunk order; RawPages has one
// row per input page regardless of extraction outcomes.
type ResultSet struct {
	Structured []StructuredEntry
	RawPages   []RawPageRow
}

// Counts returns the number of extracted and unstructured structured entries.
func (r *ResultSet) Counts() (extracted, unstructured int) {
	for _, e := range r.Structured {
		if e.Fallback != nil {
			unstructured++
		} else if e.Record != nil {
			extracted++
		}
	}
	return extracted, unstructured
}
