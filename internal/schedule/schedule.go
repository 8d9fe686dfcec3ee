// Package schedule supplies class sessions for timed simulations.
package schedule

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Session is one class period.
type Session struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Length returns the session duration.
func (s Session) Length() time.Duration { return s.End.Sub(s.Start) }

// Provider yields class sessions in start order.
type Provider interface {
	// Next returns the first session that ends after t.
	Next(t time.Time) (Session, bool)
	// All returns every session.
	All() []Session
}

// Fixed serves a predetermined list of sessions.
type Fixed struct {
	sessions []Session
}

// NewFixed sorts sessions by start and rejects empty or overlapping ones.
func NewFixed(sessions []Session) (*Fixed, error) {
	ss := slices.Clone(sessions)
	slices.SortFunc(ss, func(a, b Session) int { return a.Start.Compare(b.Start) })
	for i, s := range ss {
		if !s.End.After(s.Start) {
			return nil, fmt.Errorf("session %d ends at or before its start", i)
		}
		if i > 0 && s.Start.Before(ss[i-1].End) {
			return nil, fmt.Errorf("session %d overlaps the previous one", i)
		}
		if ss[i].ID == "" {
			ss[i].ID = uuid.NewString()
		}
	}
	return &Fixed{sessions: ss}, nil
}

func (f *Fixed) Next(t time.Time) (Session, bool) {
	for _, s := range f.sessions {
		if s.End.After(t) {
			return s, true
		}
	}
	return Session{}, false
}

func (f *Fixed) All() []Session { return slices.Clone(f.sessions) }

// Interval describes regularly spaced sessions.
type Interval struct {
	First  time.Time
	Every  time.Duration
	Length time.Duration
	Count  int
	// Weekdays restricts sessions to these days; empty means every day.
	Weekdays []time.Weekday
}

// Build expands the interval into a fixed schedule.
func (iv Interval) Build() (*Fixed, error) {
	if iv.Count <= 0 {
		return nil, errors.New("session count must be positive")
	}
	if iv.Length <= 0 || iv.Every < iv.Length {
		return nil, fmt.Errorf("session length %v must be positive and no longer than the interval %v", iv.Length, iv.Every)
	}
	var out []Session
	start := iv.First
	// Bounded so an impossible weekday filter cannot spin forever.
	for tries := 0; len(out) < iv.Count && tries < iv.Count*7+7; tries++ {
		if len(iv.Weekdays) == 0 || slices.Contains(iv.Weekdays, start.Weekday()) {
			out = append(out, Session{ID: uuid.NewString(), Start: start, End: start.Add(iv.Length)})
		}
		start = start.Add(iv.Every)
	}
	if len(out) < iv.Count {
		return nil, fmt.Errorf("only %d of %d sessions fit the weekday filter", len(out), iv.Count)
	}
	return NewFixed(out)
}
