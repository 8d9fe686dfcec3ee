package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/domain"
)

// TxKind distinguishes tutor transactions.
type TxKind string

const (
	TxTutorInput   TxKind = "tutor_input"
	TxSessionStart TxKind = "session_start"
	TxSessionEnd   TxKind = "session_end"
	TxIdle         TxKind = "idle"
)

// TransactionData is one tutor-side log entry. For tutor inputs it carries
// the step location, the KC snapshot and the mastery estimate before (PLt)
// and after (PLt1) the input.
type TransactionData struct {
	ID           string        `json:"id"`
	Kind         TxKind        `json:"kind"`
	Time         time.Time     `json:"time"`
	StudentID    string        `json:"student_id"`
	TutorID      string        `json:"tutor_id"`
	SessionID    string        `json:"session_id,omitempty"`
	CurriculumID string        `json:"curriculum_id,omitempty"`
	UnitID       string        `json:"unit_id,omitempty"`
	SectionID    string        `json:"section_id,omitempty"`
	ProblemID    string        `json:"problem_id,omitempty"`
	StepID       string        `json:"step_id,omitempty"`
	Action       action.Kind   `json:"action,omitempty"`
	Outcome      string        `json:"outcome,omitempty"`
	Duration     time.Duration `json:"duration"`
	KC           *domain.KC    `json:"kc,omitempty"`
	PLt          float64       `json:"plt"`
	PLt1         float64       `json:"plt1"`
	HintsUsed    int           `json:"hints_used"`
	HintsAvail   int           `json:"hints_avail"`
	Attempt      int           `json:"attempt"`
}

// ActionEV is the expectancy/value breakdown for one legal action.
type ActionEV struct {
	Kind       action.Kind `json:"kind"`
	Expectancy float64     `json:"expectancy"`
	Value      float64     `json:"value"`
	EV         float64     `json:"ev"`
	Prob       float64     `json:"prob"`
}

// DecisionData records a learner's choice and the context it was made in.
type DecisionData struct {
	ID               string      `json:"id"`
	StudentID        string      `json:"student_id"`
	Time             time.Time   `json:"time"`
	Choice           action.Kind `json:"choice"`
	Options          []ActionEV  `json:"options"`
	ProblemID        string      `json:"problem_id"`
	StepID           string      `json:"step_id"`
	KC               domain.KC   `json:"kc"`
	LearnerKnowledge float64     `json:"learner_knowledge"`
	Attempt          int         `json:"attempt"`
	HintsAvail       int         `json:"hints_avail"`
	HintsUsed        int         `json:"hints_used"`
	OffTask          bool        `json:"off_task"`
	SelfEfficacy     *float64    `json:"self_efficacy,omitempty"`
}

// ActionData records a performed action and the decision that produced it.
type ActionData struct {
	ID         string        `json:"id"`
	StudentID  string        `json:"student_id"`
	DecisionID string        `json:"decision_id"`
	Time       time.Time     `json:"time"`
	Kind       action.Kind   `json:"kind"`
	Duration   time.Duration `json:"duration"`
	Correct    bool          `json:"correct"`
}

// ClassSessionData records a scheduled class session and who attended.
type ClassSessionData struct {
	ID         string    `json:"id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	StudentIDs []string  `json:"student_ids"`
}

// StudentData persists a simulated learner's configuration.
type StudentData struct {
	ID        string          `json:"id"`
	Cognition string          `json:"cognition"`
	Decider   string          `json:"decider"`
	Spec      json.RawMessage `json:"spec"`
	CreatedAt time.Time       `json:"created_at"`
}

// BatchData describes one simulation run.
type BatchData struct {
	ID          string    `json:"id"`
	RunTime     time.Time `json:"run_time"`
	Description string    `json:"description"`
	StudentIDs  []string  `json:"student_ids"`
}

// Sink accepts simulation records. Each method appends; none of them read back.
// Implementations must be safe for concurrent use.
type Sink interface {
	AppendDecisions(ctx context.Context, recs []DecisionData) error
	AppendActions(ctx context.Context, recs []ActionData) error
	AppendTransactions(ctx context.Context, recs []TransactionData) error
	AppendSessions(ctx context.Context, recs []ClassSessionData) error
	AppendStudents(ctx context.Context, recs []StudentData) error
	AppendBatch(ctx context.Context, rec BatchData) error
	Close() error
}
