// Package action defines the closed vocabulary of learner actions and tutor feedback.
package action

import (
	"fmt"
	"time"
)

// Kind identifies a learner action.
type Kind int

const (
	Attempt Kind = iota + 1
	Guess
	HintRequest
	OffTask
	StopWork
	FailedAttempt
)

// Kinds lists every action kind in declaration order.
var Kinds = []Kind{Attempt, Guess, HintRequest, OffTask, StopWork, FailedAttempt}

var kindNames = map[Kind]string{
	Attempt:       "attempt",
	Guess:         "guess",
	HintRequest:   "hint_request",
	OffTask:       "off_task",
	StopWork:      "stop_work",
	FailedAttempt: "failed_attempt",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown action kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Diligent reports whether the action counts as on-task effort.
// Attempt and HintRequest are diligent; Guess and OffTask are not.
// StopWork and FailedAttempt are neither and report false.
func (k Kind) Diligent() bool {
	return k == Attempt || k == HintRequest
}

// Undiligent reports whether the action counts as avoiding effort.
func (k Kind) Undiligent() bool {
	return k == Guess || k == OffTask
}

// OnTask reports whether the action engages with the current step.
func (k Kind) OnTask() bool {
	return k == Attempt || k == Guess || k == HintRequest
}

// Graded reports whether the tutor evaluates the action for correctness.
func (k Kind) Graded() bool {
	return k == Attempt || k == Guess
}

// Action is a performed learner action. Correct is meaningful only for graded kinds.
type Action struct {
	Kind     Kind          `json:"kind"`
	Duration time.Duration `json:"duration"`
	Correct  bool          `json:"correct"`
}

// Outcome renders the transaction outcome label for a graded or hint action.
func (a Action) Outcome() string {
	switch a.Kind {
	case Attempt, Guess:
		if a.Correct {
			return "correct"
		}
		return "incorrect"
	case HintRequest:
		return "hint"
	default:
		return a.Kind.String()
	}
}
