package mastery

import (
	"errors"
	"fmt"

	"github.com/abhisek/motivsim/internal/domain"
)

// ErrOutOfRange is returned when a mastery estimate or KC parameter would make the
// BKT recurrence undefined.
var ErrOutOfRange = errors.New("bkt input out of range")

// Posterior returns P(mastered | evidence) for a single observation.
//
//	correct:   p(1-ps) / (p(1-ps) + (1-p)pg)
//	incorrect: p*ps    / (p*ps    + (1-p)(1-pg))
func Posterior(p float64, kc *domain.KC, correct bool) (float64, error) {
	if err := checkInputs(p, kc); err != nil {
		return 0, err
	}
	var num, den float64
	if correct {
		num = p * (1 - kc.PS)
		den = num + (1-p)*kc.PG
	} else {
		num = p * kc.PS
		den = num + (1-p)*(1-kc.PG)
	}
	if den == 0 {
		return 0, fmt.Errorf("%w: zero evidence denominator for kc %s", ErrOutOfRange, kc.ID)
	}
	return num / den, nil
}

// Transition applies the learning step: P(L_t+1) = P(L|e) + (1 - P(L|e)) * pt.
func Transition(pCond, pt float64) float64 {
	return clamp(pCond+(1-pCond)*pt, 0, 1)
}

// Update runs the full posterior-then-transition recurrence for one opportunity.
func Update(p float64, kc *domain.KC, correct bool) (float64, error) {
	pCond, err := Posterior(p, kc, correct)
	if err != nil {
		return 0, err
	}
	return Transition(pCond, kc.PT), nil
}

func checkInputs(p float64, kc *domain.KC) error {
	if kc == nil {
		return fmt.Errorf("%w: nil kc", ErrOutOfRange)
	}
	if p < 0 || p > 1 {
		return fmt.Errorf("%w: mastery %v for kc %s not in [0,1]", ErrOutOfRange, p, kc.ID)
	}
	if kc.PS <= 0 || kc.PS >= 1 || kc.PG <= 0 || kc.PG >= 1 || kc.PT <= 0 || kc.PT > 1 {
		return fmt.Errorf("%w: kc %s parameters ps=%v pg=%v pt=%v", ErrOutOfRange, kc.ID, kc.PS, kc.PG, kc.PT)
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
