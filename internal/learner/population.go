package learner

import (
	"fmt"
	"math/rand/v2"
)

// Population describes how to sample learner specs for a simulated class.
type Population struct {
	Cognition    string
	AbilityMin   float64
	AbilityMax   float64
	Decider      string
	RandomValues bool
	Values       Values
	Constructs   []string
	// Diligence factors are drawn from N(DiligenceMean, DiligenceSD).
	DiligenceMean float64
	DiligenceSD   float64
	Start         StartDelay
}

// DefaultPopulation returns binary-cognition learners with a plain EV decider.
func DefaultPopulation() Population {
	return Population{
		Cognition:     CognitionBinary,
		AbilityMin:    -1,
		AbilityMax:    1,
		Decider:       DeciderEV,
		Values:        DefaultValues(),
		DiligenceMean: 1.5,
		DiligenceSD:   0.3,
		Start:         DefaultStartDelay(),
	}
}

// Sample draws the per-learner parameters of one spec. Skills are left to
// the cognition factory, which samples them from the domain.
func (p Population) Sample(r *rand.Rand) (Spec, error) {
	spec := Spec{
		Cognition: CognitionSpec{Kind: p.Cognition},
		Decider:   DeciderSpec{Kind: p.Decider, Values: p.Values, Start: p.Start},
	}
	if p.Cognition == CognitionBias {
		mode := (p.AbilityMin + p.AbilityMax) / 2
		spec.Cognition.Ability = Triangular(r, p.AbilityMin, p.AbilityMax, mode)
	}
	if p.RandomValues {
		spec.Decider.Values = RandomValues(r)
	}
	for _, kind := range p.Constructs {
		var c Construct
		switch kind {
		case ConstructDiligence:
			c = RandomDiligence(r, p.DiligenceMean, p.DiligenceSD)
		case ConstructSelfEfficacy:
			c = RandomSelfEfficacy(r)
		case ConstructInterest:
			c = RandomInterest(r)
		default:
			return Spec{}, fmt.Errorf("construct %q: %w", kind, ErrUnknownKind)
		}
		spec.Decider.Constructs = append(spec.Decider.Constructs, c.Spec())
	}
	return spec, nil
}
