package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when a KC's parameters fall outside their valid range.
var ErrInvalidParams = errors.New("invalid kc parameters")

// KC is a knowledge component: an atomic skill with Bayesian Knowledge Tracing parameters.
// KCs are immutable once built and shared read-only by every learner and tutor.
type KC struct {
	ID       string `json:"id" yaml:"id"`
	DomainID string `json:"domain_id" yaml:"domain_id"`

	// PL0 is the prior probability that the skill is already mastered.
	PL0 float64 `json:"pl0" yaml:"pl0"`
	// PL0SD is the per-learner spread of initial mastery for continuous cognition models.
	// Zero means "use DefaultPL0SD".
	PL0SD float64 `json:"pl0_sd,omitempty" yaml:"pl0_sd,omitempty"`
	// PT is the probability of learning the skill at each practice opportunity.
	PT float64 `json:"pt" yaml:"pt"`
	// PS is the probability of slipping (answering wrong despite mastery).
	PS float64 `json:"ps" yaml:"ps"`
	// PG is the probability of guessing right without mastery.
	PG float64 `json:"pg" yaml:"pg"`

	// MTime and SDTime describe the step solve time in seconds.
	MTime  float64 `json:"m_time" yaml:"m_time"`
	SDTime float64 `json:"sd_time" yaml:"sd_time"`
}

// DefaultPL0SD is used when a KC does not carry its own initial mastery spread.
const DefaultPL0SD = 0.1

// InitialSD returns the spread used to sample a learner's starting skill level.
func (k *KC) InitialSD() float64 {
	if k.PL0SD > 0 {
		return k.PL0SD
	}
	return DefaultPL0SD
}

// Validate checks the KC's probability parameters.
// Slip and guess must be strictly inside (0,1) so the BKT posterior never divides by zero.
func (k *KC) Validate() error {
	switch {
	case k.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidParams)
	case k.PL0 < 0 || k.PL0 > 1:
		return fmt.Errorf("%w: kc %s pl0=%v not in [0,1]", ErrInvalidParams, k.ID, k.PL0)
	case k.PT <= 0 || k.PT > 1:
		return fmt.Errorf("%w: kc %s pt=%v not in (0,1]", ErrInvalidParams, k.ID, k.PT)
	case k.PS <= 0 || k.PS >= 1:
		return fmt.Errorf("%w: kc %s ps=%v not in (0,1)", ErrInvalidParams, k.ID, k.PS)
	case k.PG <= 0 || k.PG >= 1:
		return fmt.Errorf("%w: kc %s pg=%v not in (0,1)", ErrInvalidParams, k.ID, k.PG)
	case k.MTime < 0 || k.SDTime < 0:
		return fmt.Errorf("%w: kc %s has negative solve time", ErrInvalidParams, k.ID)
	}
	return nil
}
