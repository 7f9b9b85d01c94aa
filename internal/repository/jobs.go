// Package repository persists an optional history of extraction runs and
// their per-chunk outcomes in a local SQLite database.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/pdf2sheet/internal/entity"
)

// Run summarizes one completed extraction run.
type Run struct {
	ID           uuid.UUID
	InputPath    string
	OutputPath   string
	Model        string
	Pages        int
	Chunks       int
	Extracted    int
	Unstructured int
	StartedAt    time.Time
	FinishedAt   time.Time
}

// ChunkOutcome is the ledger's view of what a chunk contributed.
type ChunkOutcome struct {
	ChunkIndex int
	Status     string // "extracted" or "unstructured"
	Records    int
	Reason     string
}

const (
	StatusExtracted    = "extracted"
	StatusUnstructured = "unstructured"
)

// RunLedger manages the run-history SQLite database.
type RunLedger struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenLedger opens or creates the ledger database at path, creating the
// schema if it does not exist.
func OpenLedger(path string, logger *slog.Logger) (*RunLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	l := &RunLedger{db: db, logger: logger}
	if err := l.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ledger schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *RunLedger) Close() error {
	return l.db.Close()
}

func (l *RunLedger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			input_path TEXT NOT NULL,
			output_path TEXT NOT NULL,
			model TEXT,
			pages INTEGER NOT NULL,
			chunks INTEGER NOT NULL,
			extracted INTEGER NOT NULL,
			unstructured INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS chunk_outcomes (
			run_id TEXT NOT NULL REFERENCES runs(id),
			chunk_index INTEGER NOT NULL,
			status TEXT NOT NULL,
			records INTEGER NOT NULL,
			reason TEXT,
			PRIMARY KEY (run_id, chunk_index)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_outcomes_run_id ON chunk_outcomes(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun inserts the run summary and one outcome row per chunk, derived
// from the result set's structured entries, in a single transaction.
func (l *RunLedger) RecordRun(ctx context.Context, run Run, rs *entity.ResultSet) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, output_path, model, pages, chunks, extracted, unstructured, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.InputPath, run.OutputPath, run.Model,
		run.Pages, run.Chunks, run.Extracted, run.Unstructured,
		run.StartedAt.UTC().Format(time.RFC3339), run.FinishedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, o := range outcomesFromResultSet(rs) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chunk_outcomes (run_id, chunk_index, status, records, reason)
			 VALUES (?, ?, ?, ?, ?)`,
			run.ID.String(), o.ChunkIndex, o.Status, o.Records, o.Reason,
		)
		if err != nil {
			return fmt.Errorf("insert chunk outcome %d: %w", o.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	l.logger.Info("ledger.run.recorded", "run_id", run.ID.String(), "chunks", run.Chunks)
	return nil
}

// LastRun returns the most recently finished run, or nil when empty.
func (l *RunLedger) LastRun(ctx context.Context) (*Run, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, input_path, output_path, model, pages, chunks, extracted, unstructured, started_at, finished_at
		 FROM runs ORDER BY finished_at DESC LIMIT 1`)

	var r Run
	var id, started, finished string
	err := row.Scan(&id, &r.InputPath, &r.OutputPath, &r.Model,
		&r.Pages, &r.Chunks, &r.Extracted, &r.Unstructured, &started, &finished)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query last run: %w", err)
	}
	if r.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse run id: %w", err)
	}
	if r.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
		return nil, fmt.Errorf("parse finished_at: %w", err)
	}
	return &r, nil
}

// ChunkOutcomes returns the recorded outcomes for a run in chunk order.
func (l *RunLedger) ChunkOutcomes(ctx context.Context, runID uuid.UUID) ([]ChunkOutcome, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT chunk_index, status, records, reason FROM chunk_outcomes
		 WHERE run_id = ? ORDER BY chunk_index`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("query chunk outcomes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ChunkOutcome
	for rows.Next() {
		var o ChunkOutcome
		if err := rows.Scan(&o.ChunkIndex, &o.Status, &o.Records, &o.Reason); err != nil {
			return nil, fmt.Errorf("scan chunk outcome: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// outcomesFromResultSet folds structured entries back into one ledger row
// per chunk, sorted by chunk index.
func outcomesFromResultSet(rs *entity.ResultSet) []ChunkOutcome {
	byChunk := make(map[int]*ChunkOutcome)
	for _, e := range rs.Structured {
		switch {
		case e.Fallback != nil:
			byChunk[e.Fallback.ChunkIndex] = &ChunkOutcome{
				ChunkIndex: e.Fallback.ChunkIndex,
				Status:     StatusUnstructured,
				Reason:     e.Fallback.Reason,
			}
		case e.Record != nil:
			o, ok := byChunk[e.Record.ChunkIndex]
			if !ok {
				o = &ChunkOutcome{ChunkIndex: e.Record.ChunkIndex, Status: StatusExtracted}
				byChunk[e.Record.ChunkIndex] = o
			}
			o.Records++
		}
	}

	out := make([]ChunkOutcome, 0, len(byChunk))
	for _, o := range byChunk {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out
}
