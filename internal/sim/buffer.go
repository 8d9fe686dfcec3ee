package sim

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/motivsim/internal/metrics"
	"github.com/abhisek/motivsim/internal/store"
)

// DefaultFlushSize is the number of buffered records that triggers a flush.
const DefaultFlushSize = 1000

// Buffer collects one learner's records and writes them to the sink in
// batches. It is owned by a single learner and is not safe for concurrent
// use; the sink it flushes to must be.
type Buffer struct {
	sink    store.Sink
	max     int
	metrics *metrics.Metrics

	decisions    []store.DecisionData
	actions      []store.ActionData
	transactions []store.TransactionData
}

// NewBuffer returns a buffer that flushes once it holds max records.
// A non-positive max means DefaultFlushSize.
func NewBuffer(sink store.Sink, max int, m *metrics.Metrics) *Buffer {
	if max <= 0 {
		max = DefaultFlushSize
	}
	return &Buffer{sink: sink, max: max, metrics: m}
}

// Len returns the number of records waiting to be flushed.
func (b *Buffer) Len() int {
	return len(b.decisions) + len(b.actions) + len(b.transactions)
}

func (b *Buffer) AddDecision(ctx context.Context, d store.DecisionData) error {
	b.decisions = append(b.decisions, d)
	return b.maybeFlush(ctx)
}

func (b *Buffer) AddAction(ctx context.Context, a store.ActionData) error {
	b.actions = append(b.actions, a)
	return b.maybeFlush(ctx)
}

func (b *Buffer) AddTransaction(ctx context.Context, tx store.TransactionData) error {
	b.transactions = append(b.transactions, tx)
	return b.maybeFlush(ctx)
}

func (b *Buffer) maybeFlush(ctx context.Context) error {
	if b.Len() < b.max {
		return nil
	}
	return b.Flush(ctx)
}

// Flush writes everything buffered. Decisions go first so that the actions
// and transactions that follow them get later sequence numbers. A kind that
// fails to write stays buffered.
func (b *Buffer) Flush(ctx context.Context) error {
	var errs []error
	if n := len(b.decisions); n > 0 {
		err := b.sink.AppendDecisions(ctx, b.decisions)
		b.metrics.Flushed("decisions", n, err)
		if err == nil {
			b.decisions = b.decisions[:0]
		}
		errs = append(errs, wrapFlush("decisions", err))
	}
	if n := len(b.actions); n > 0 {
		err := b.sink.AppendActions(ctx, b.actions)
		b.metrics.Flushed("actions", n, err)
		if err == nil {
			b.actions = b.actions[:0]
		}
		errs = append(errs, wrapFlush("actions", err))
	}
	if n := len(b.transactions); n > 0 {
		err := b.sink.AppendTransactions(ctx, b.transactions)
		b.metrics.Flushed("transactions", n, err)
		if err == nil {
			b.transactions = b.transactions[:0]
		}
		errs = append(errs, wrapFlush("transactions", err))
	}
	return errors.Join(errs...)
}

func wrapFlush(kind string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("flush %s: %w", kind, err)
}
