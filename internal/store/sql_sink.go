package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"

	"github.com/abhisek/motivsim/internal/action"
)

// insertChunk bounds the rows per INSERT so wide tables stay under the
// driver's bind-parameter limit.
const insertChunk = 500

// AppendTransactions writes tutor transactions.
func (s *Store) AppendTransactions(ctx context.Context, recs []TransactionData) error {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		kcID, kcJSON := "", any(nil)
		if r.KC != nil {
			b, err := json.Marshal(r.KC)
			if err != nil {
				return fmt.Errorf("encode transaction %s kc: %w", r.ID, err)
			}
			kcID, kcJSON = r.KC.ID, string(b)
		}
		rows = append(rows, []any{
			r.ID, string(r.Kind), r.Time, r.StudentID, r.TutorID, r.SessionID,
			r.CurriculumID, r.UnitID, r.SectionID, r.ProblemID, r.StepID,
			kindText(r.Action), r.Outcome, r.Duration.Seconds(), kcID, kcJSON,
			r.PLt, r.PLt1, r.HintsUsed, r.HintsAvail, r.Attempt,
		})
	}
	return s.insert(ctx, TableTransactions, transactionColumns, rows)
}

// AppendDecisions writes learner decisions with their per-action EV breakdown.
func (s *Store) AppendDecisions(ctx context.Context, recs []DecisionData) error {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		opts, err := jsonText(r.Options)
		if err != nil {
			return fmt.Errorf("encode decision %s options: %w", r.ID, err)
		}
		kc, err := jsonText(r.KC)
		if err != nil {
			return fmt.Errorf("encode decision %s kc: %w", r.ID, err)
		}
		var se any
		if r.SelfEfficacy != nil {
			se = *r.SelfEfficacy
		}
		rows = append(rows, []any{
			r.ID, r.StudentID, r.Time, kindText(r.Choice), opts, r.ProblemID,
			r.StepID, r.KC.ID, kc, r.LearnerKnowledge, r.Attempt, r.HintsAvail,
			r.HintsUsed, r.OffTask, se,
		})
	}
	return s.insert(ctx, TableDecisions, decisionColumns, rows)
}

// AppendActions writes performed actions.
func (s *Store) AppendActions(ctx context.Context, recs []ActionData) error {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{
			r.ID, r.StudentID, r.DecisionID, r.Time, kindText(r.Kind),
			r.Duration.Seconds(), r.Correct,
		})
	}
	return s.insert(ctx, TableActions, actionColumns, rows)
}

// AppendSessions writes class sessions.
func (s *Store) AppendSessions(ctx context.Context, recs []ClassSessionData) error {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		ids, err := jsonText(nonNil(r.StudentIDs))
		if err != nil {
			return fmt.Errorf("encode session %s: %w", r.ID, err)
		}
		rows = append(rows, []any{r.ID, r.Start, r.End, ids})
	}
	return s.insert(ctx, TableSessions, sessionColumns, rows)
}

// AppendStudents writes learner configurations.
func (s *Store) AppendStudents(ctx context.Context, recs []StudentData) error {
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		spec := string(r.Spec)
		if spec == "" {
			spec = "{}"
		}
		rows = append(rows, []any{r.ID, r.Cognition, r.Decider, spec, r.CreatedAt})
	}
	return s.insert(ctx, TableStudents, studentColumns, rows)
}

// AppendBatch writes the run record.
func (s *Store) AppendBatch(ctx context.Context, rec BatchData) error {
	ids, err := jsonText(nonNil(rec.StudentIDs))
	if err != nil {
		return fmt.Errorf("encode batch %s: %w", rec.ID, err)
	}
	return s.insert(ctx, TableBatches, batchColumns, [][]any{{rec.ID, rec.RunTime, rec.Description, ids}})
}

// insert numbers rows from the global sequence and writes them in one
// transaction. Each row holds every column after seq, in table order.
func (s *Store) insert(ctx context.Context, table string, cols []*schema.Column, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("begin %s insert: %w", table, err)
	}
	if err := s.insertTx(ctx, tx, table, cols, rows); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s insert: %w", table, err)
	}
	return nil
}

func (s *Store) insertTx(ctx context.Context, tx dialect.Tx, table string, cols []*schema.Column, rows [][]any) error {
	first, err := s.seq.Reserve(ctx, tx, len(rows))
	if err != nil {
		return err
	}
	names := columnNames(cols)
	for start := 0; start < len(rows); start += insertChunk {
		end := min(start+insertChunk, len(rows))
		b := entsql.Dialect(s.dialect).Insert(table).Columns(names...)
		for i, row := range rows[start:end] {
			if len(row)+1 != len(names) {
				return fmt.Errorf("insert %s: row has %d values, want %d", table, len(row)+1, len(names))
			}
			b.Values(append([]any{first + int64(start+i)}, row...)...)
		}
		q, args := b.Query()
		if err := tx.Exec(ctx, q, args, nil); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	return nil
}

func kindText(k action.Kind) string {
	if !k.Valid() {
		return ""
	}
	return k.String()
}

func jsonText(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

// seconds converts a stored duration column back to a time.Duration.
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
