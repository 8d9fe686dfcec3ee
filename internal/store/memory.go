package store

import (
	"context"
	"slices"
	"sync"
)

// MemorySink keeps every record in memory. Tests and dry runs use it.
type MemorySink struct {
	mu           sync.Mutex
	decisions    []DecisionData
	actions      []ActionData
	transactions []TransactionData
	sessions     []ClassSessionData
	students     []StudentData
	batches      []BatchData
	closed       bool
}

var _ Sink = (*MemorySink)(nil)

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) AppendDecisions(_ context.Context, recs []DecisionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, recs...)
	return nil
}

func (m *MemorySink) AppendActions(_ context.Context, recs []ActionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, recs...)
	return nil
}

func (m *MemorySink) AppendTransactions(_ context.Context, recs []TransactionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, recs...)
	return nil
}

func (m *MemorySink) AppendSessions(_ context.Context, recs []ClassSessionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, recs...)
	return nil
}

func (m *MemorySink) AppendStudents(_ context.Context, recs []StudentData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = append(m.students, recs...)
	return nil
}

func (m *MemorySink) AppendBatch(_ context.Context, rec BatchData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, rec)
	return nil
}

// Close marks the sink closed. Records stay readable.
func (m *MemorySink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MemorySink) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Decisions returns a copy of the stored decisions.
func (m *MemorySink) Decisions() []DecisionData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.decisions)
}

// Actions returns a copy of the stored actions.
func (m *MemorySink) Actions() []ActionData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.actions)
}

// Transactions returns a copy of the stored transactions.
func (m *MemorySink) Transactions() []TransactionData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.transactions)
}

// Sessions returns a copy of the stored class sessions.
func (m *MemorySink) Sessions() []ClassSessionData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sessions)
}

// Students returns a copy of the stored students.
func (m *MemorySink) Students() []StudentData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.students)
}

// Batches returns a copy of the stored batch records.
func (m *MemorySink) Batches() []BatchData {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.batches)
}
