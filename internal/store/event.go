package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/ahabook/linguaflow/ent"
)

// sequenceCounter hands out the global sequence number shared by every
// event table. Each table has its own auto-increment IDs, so only this
// counter orders a turn event against the LLM call that scored it.
//
// The mutex serializes within the process; the RETURNING clause makes the
// increment atomic at the database level.
type sequenceCounter struct {
	mu sync.Mutex
	db *sql.DB
}

// newSequenceCounter creates a counter and ensures the tracking table exists.
func newSequenceCounter(db *sql.DB) (*sequenceCounter, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS global_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		next_val INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return nil, fmt.Errorf("create sequence table: %w", err)
	}

	_, err = db.Exec(`INSERT OR IGNORE INTO global_sequence (id, next_val) VALUES (1, 1)`)
	if err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}

	return &sequenceCounter{db: db}, nil
}

// Next atomically returns the next sequence number and increments the counter.
func (sc *sequenceCounter) Next(ctx context.Context) (int64, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var seq int64
	err := sc.db.QueryRowContext(ctx,
		`UPDATE global_sequence SET next_val = next_val + 1 WHERE id = 1 RETURNING next_val - 1`,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}

// Reset restarts the counter at 1.
func (sc *sequenceCounter) Reset(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if _, err := sc.db.ExecContext(ctx, `UPDATE global_sequence SET next_val = 1 WHERE id = 1`); err != nil {
		return fmt.Errorf("reset sequence: %w", err)
	}
	return nil
}

// eventRepo implements EventRepo backed by ent and the global sequence counter.
type eventRepo struct {
	client *ent.Client
	seq    *sequenceCounter
}

// eventFilters turns the sequence and time bounds of opts into selector
// predicates. Every event table shares these columns through the mixin.
func eventFilters(opts QueryOpts) []func(*entsql.Selector) {
	var ps []func(*entsql.Selector)
	if opts.After > 0 {
		ps = append(ps, entsql.FieldGT(fieldSequence, opts.After))
	}
	if opts.Before > 0 {
		ps = append(ps, entsql.FieldLT(fieldSequence, opts.Before))
	}
	if !opts.From.IsZero() {
		ps = append(ps, entsql.FieldGTE(fieldTimestamp, opts.From))
	}
	if !opts.To.IsZero() {
		ps = append(ps, entsql.FieldLTE(fieldTimestamp, opts.To))
	}
	return ps
}

const (
	fieldSequence  = "sequence"
	fieldTimestamp = "timestamp"
)
