package store

import (
	"context"
	"fmt"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// sequenceCounter hands out ranges of the global sequence shared by every
// record table. Each record kind lives in its own table, so per-table keys
// can't order a decision against the transaction it produced; the shared
// sequence can.
//
// The increment is a raw UPDATE ... RETURNING, which both SQLite and
// Postgres accept without placeholders. The mutex serializes within the
// process; RETURNING makes the increment atomic at the database level.
type sequenceCounter struct {
	mu      sync.Mutex
	dialect string
}

// newSequenceCounter seeds the counter row if it does not exist yet.
func newSequenceCounter(ctx context.Context, drv dialect.ExecQuerier, d string) (*sequenceCounter, error) {
	q, args := entsql.Dialect(d).
		Insert(tableSequence).
		Columns("id", "next_val").
		Values(1, 1).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()
	if err := drv.Exec(ctx, q, args, nil); err != nil {
		return nil, fmt.Errorf("seed sequence: %w", err)
	}
	return &sequenceCounter{dialect: d}, nil
}

// Reserve claims n consecutive sequence numbers and returns the first.
// It runs on conn so that a reservation rolls back with the records it numbers.
func (sc *sequenceCounter) Reserve(ctx context.Context, conn dialect.ExecQuerier, n int) (int64, error) {
	if n <= 0 {
		return 0, fmt.Errorf("reserve sequence: n=%d", n)
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()

	q := fmt.Sprintf("UPDATE %s SET next_val = next_val + %d WHERE id = 1 RETURNING next_val", tableSequence, n)
	var rows entsql.Rows
	if err := conn.Query(ctx, q, []any{}, &rows); err != nil {
		return 0, fmt.Errorf("reserve sequence: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, fmt.Errorf("reserve sequence: %w", err)
		}
		return 0, fmt.Errorf("reserve sequence: counter row missing")
	}
	var next int64
	if err := rows.Scan(&next); err != nil {
		return 0, fmt.Errorf("reserve sequence: %w", err)
	}
	return next - int64(n), nil
}
