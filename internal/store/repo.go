package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/domain"
)

// QueryOpts configures record queries with filtering and pagination.
type QueryOpts struct {
	Limit     int       // max results (0 = unlimited)
	After     int64     // sequence > After
	StudentID string    // only this student ("" = all)
	From      time.Time // timestamp >= From
	To        time.Time // timestamp <= To
}

// StudentStats aggregates one student's tutor inputs.
type StudentStats struct {
	StudentID    string
	Transactions int
	Attempts     int
	Correct      int
	Hints        int
	Idle         int
	Time         time.Duration
}

// Accuracy is the share of graded inputs answered correctly.
func (s StudentStats) Accuracy() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Attempts)
}

// Transactions returns transactions in global sequence order.
func (s *Store) Transactions(ctx context.Context, opts QueryOpts) ([]TransactionData, error) {
	b := entsql.Dialect(s.dialect)
	t := b.Table(TableTransactions)
	sel := b.Select(columnNames(transactionColumns[1:])...).
		From(t).
		OrderBy(t.C("seq"))
	if p := opts.predicate(t); p != nil {
		sel.Where(p)
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	q, args := sel.Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []TransactionData
	for rows.Next() {
		var (
			r               TransactionData
			kind, act, kcID string
			kc              *string
			dur             float64
		)
		if err := rows.Scan(
			&r.ID, &kind, &r.Time, &r.StudentID, &r.TutorID, &r.SessionID,
			&r.CurriculumID, &r.UnitID, &r.SectionID, &r.ProblemID, &r.StepID,
			&act, &r.Outcome, &dur, &kcID, &kc,
			&r.PLt, &r.PLt1, &r.HintsUsed, &r.HintsAvail, &r.Attempt,
		); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		r.Kind = TxKind(kind)
		r.Duration = seconds(dur)
		if act != "" {
			k, err := action.ParseKind(act)
			if err != nil {
				return nil, fmt.Errorf("transaction %s: %w", r.ID, err)
			}
			r.Action = k
		}
		if kc != nil && *kc != "" {
			r.KC = new(domain.KC)
			if err := json.Unmarshal([]byte(*kc), r.KC); err != nil {
				return nil, fmt.Errorf("transaction %s kc: %w", r.ID, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats aggregates tutor inputs per student, ordered by student id.
func (s *Store) Stats(ctx context.Context, opts QueryOpts) ([]StudentStats, error) {
	b := entsql.Dialect(s.dialect)
	t := b.Table(TableTransactions)
	sel := b.Select(
		t.C("student_id"),
		entsql.As(entsql.Count("*"), "n"),
		entsql.As(sumWhen(`"action" IN ('attempt', 'guess')`), "attempts"),
		entsql.As(sumWhen(`"outcome" = 'correct'`), "correct"),
		entsql.As(sumWhen(`"action" = 'hint_request'`), "hints"),
		entsql.As(sumWhen(fmt.Sprintf(`"kind" = '%s'`, TxIdle)), "idle"),
		entsql.As(`COALESCE(SUM("duration_sec"), 0)`, "secs"),
	).
		From(t).
		GroupBy(t.C("student_id")).
		OrderBy(t.C("student_id"))
	if p := opts.predicate(t); p != nil {
		sel.Where(p)
	}
	q, args := sel.Query()

	var rows entsql.Rows
	if err := s.drv.Query(ctx, q, args, &rows); err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var out []StudentStats
	for rows.Next() {
		var (
			st   StudentStats
			secs float64
		)
		if err := rows.Scan(&st.StudentID, &st.Transactions, &st.Attempts, &st.Correct, &st.Hints, &st.Idle, &secs); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		st.Time = seconds(secs)
		out = append(out, st)
	}
	return out, rows.Err()
}

// Count returns the number of rows in each record table.
func (s *Store) Count(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(Tables)-1)
	for _, tbl := range Tables {
		if tbl.Name == tableSequence {
			continue
		}
		b := entsql.Dialect(s.dialect)
		q, args := b.Select(entsql.Count("*")).From(b.Table(tbl.Name)).Query()

		var rows entsql.Rows
		if err := s.drv.Query(ctx, q, args, &rows); err != nil {
			return nil, fmt.Errorf("count %s: %w", tbl.Name, err)
		}
		n, err := entsql.ScanInt(rows)
		rows.Close()
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", tbl.Name, err)
		}
		out[tbl.Name] = n
	}
	return out, nil
}

func (o QueryOpts) predicate(t *entsql.SelectTable) *entsql.Predicate {
	var ps []*entsql.Predicate
	if o.After > 0 {
		ps = append(ps, entsql.GT(t.C("seq"), o.After))
	}
	if o.StudentID != "" {
		ps = append(ps, entsql.EQ(t.C("student_id"), o.StudentID))
	}
	if !o.From.IsZero() {
		ps = append(ps, entsql.GTE(t.C("time"), o.From))
	}
	if !o.To.IsZero() {
		ps = append(ps, entsql.LTE(t.C("time"), o.To))
	}
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	}
	return entsql.And(ps...)
}

func sumWhen(cond string) string {
	return "COALESCE(SUM(CASE WHEN " + cond + " THEN 1 ELSE 0 END), 0)"
}
