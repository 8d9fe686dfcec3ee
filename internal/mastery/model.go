package mastery

import (
	"fmt"
	"maps"

	"github.com/abhisek/motivsim/internal/domain"
)

// DefaultThreshold is the mastery probability at which a KC counts as mastered.
const DefaultThreshold = 0.9

// Change records a single BKT update for logging.
type Change struct {
	KCID    string
	Before  float64
	After   float64
	Applied bool // false when the KC was already past threshold
}

// Model is a tutor's per-KC mastery estimate under a mastery-learning policy.
// Once an estimate reaches the threshold it is frozen.
type Model struct {
	threshold float64
	p         map[string]float64
}

// NewModel initializes every KC's estimate to its pl0.
func NewModel(dom *domain.Domain, threshold float64) *Model {
	m := &Model{
		threshold: threshold,
		p:         make(map[string]float64, dom.Len()),
	}
	for _, kc := range dom.KCs() {
		m.p[kc.ID] = kc.PL0
	}
	return m
}

// Threshold returns the mastery threshold.
func (m *Model) Threshold() float64 { return m.threshold }

// Get returns the current estimate for a KC.
func (m *Model) Get(kcID string) float64 { return m.p[kcID] }

// IsMastered reports whether the KC's estimate has reached the threshold.
func (m *Model) IsMastered(kcID string) bool { return m.p[kcID] >= m.threshold }

// Update applies one piece of evidence to the KC's estimate.
// Estimates already at or above the threshold are left unchanged.
func (m *Model) Update(kc *domain.KC, correct bool) (Change, error) {
	before, ok := m.p[kc.ID]
	if !ok {
		return Change{}, fmt.Errorf("%w: kc %s not tracked", ErrOutOfRange, kc.ID)
	}
	ch := Change{KCID: kc.ID, Before: before, After: before}
	if before >= m.threshold {
		return ch, nil
	}
	after, err := Update(before, kc, correct)
	if err != nil {
		return ch, err
	}
	m.p[kc.ID] = after
	ch.After = after
	ch.Applied = true
	return ch, nil
}

// Snapshot returns a copy of all estimates.
func (m *Model) Snapshot() map[string]float64 {
	return maps.Clone(m.p)
}
