package learner

import (
	"fmt"
	"maps"
	"math/rand/v2"

	"github.com/abhisek/motivsim/internal/action"
	"github.com/abhisek/motivsim/internal/domain"
	"github.com/abhisek/motivsim/internal/turn"
)

// guessCorrect is the chance a blind guess is right.
const guessCorrect = 0.01

// Cognition models what a learner knows: whether an answer comes out right
// and how skill grows with practice.
type Cognition interface {
	// ProduceAnswer samples correctness for a graded action.
	ProduceAnswer(k action.Kind, ctx turn.Context) (bool, error)
	// PracticeSkill applies one practice opportunity. No-op once mastered.
	PracticeSkill(kc *domain.KC)
	Knowledge(kcID string) float64
	Mastered(kcID string) bool
	Spec() CognitionSpec
}

// BinaryCognition treats each skill as known or unknown.
type BinaryCognition struct {
	rng    *rand.Rand
	skills map[string]bool
}

// NewBinaryCognition knows each KC with probability pl0.
func NewBinaryCognition(dom *domain.Domain, r *rand.Rand) *BinaryCognition {
	c := &BinaryCognition{rng: r, skills: make(map[string]bool, dom.Len())}
	for _, kc := range dom.KCs() {
		c.skills[kc.ID] = bernoulli(r, kc.PL0)
	}
	return c
}

func (c *BinaryCognition) ProduceAnswer(k action.Kind, ctx turn.Context) (bool, error) {
	switch k {
	case action.Attempt:
		if c.skills[ctx.KC.ID] {
			return bernoulli(c.rng, 1-ctx.KC.PS), nil
		}
		return bernoulli(c.rng, hintedGuess(ctx)), nil
	case action.Guess:
		return bernoulli(c.rng, guessCorrect), nil
	default:
		return false, fmt.Errorf("produce answer for %v: not a graded action", k)
	}
}

func (c *BinaryCognition) PracticeSkill(kc *domain.KC) {
	if c.skills[kc.ID] {
		return
	}
	if bernoulli(c.rng, kc.PT) {
		c.skills[kc.ID] = true
	}
}

func (c *BinaryCognition) Knowledge(kcID string) float64 {
	if c.skills[kcID] {
		return 1
	}
	return 0
}

func (c *BinaryCognition) Mastered(kcID string) bool { return c.skills[kcID] }

func (c *BinaryCognition) Spec() CognitionSpec {
	skills := make(map[string]float64, len(c.skills))
	for id := range c.skills {
		skills[id] = c.Knowledge(id)
	}
	return CognitionSpec{Kind: CognitionBinary, Skills: skills}
}

// PCorrectCognition treats each skill as the probability of answering correctly.
// Practice adds the KC's pt, capped at 1; a skill of exactly 1 is mastered.
type PCorrectCognition struct {
	rng     *rand.Rand
	skills  map[string]float64
	ability float64
	biased  bool
}

// NewPCorrectCognition draws each skill from N(pl0, pl0_sd) restricted to [0,1].
func NewPCorrectCognition(dom *domain.Domain, r *rand.Rand) *PCorrectCognition {
	return newPCorrect(dom, r, 0, false)
}

// NewBiasCognition shifts every initial skill mean by ability*2*sd, so an
// ability of 1 starts two standard deviations above pl0.
func NewBiasCognition(dom *domain.Domain, r *rand.Rand, ability float64) (*PCorrectCognition, error) {
	if ability < -1 || ability > 1 {
		return nil, fmt.Errorf("ability %v not in [-1,1]", ability)
	}
	return newPCorrect(dom, r, ability, true), nil
}

func newPCorrect(dom *domain.Domain, r *rand.Rand, ability float64, biased bool) *PCorrectCognition {
	c := &PCorrectCognition{rng: r, skills: make(map[string]float64, dom.Len()), ability: ability, biased: biased}
	for _, kc := range dom.KCs() {
		sd := kc.InitialSD()
		c.skills[kc.ID] = boundedGauss(r, kc.PL0+ability*2*sd, sd, 0, 1)
	}
	return c
}

func (c *PCorrectCognition) ProduceAnswer(k action.Kind, ctx turn.Context) (bool, error) {
	switch k {
	case action.Attempt:
		skill := c.skills[ctx.KC.ID]
		if skill >= 1 {
			return bernoulli(c.rng, 1-ctx.KC.PS), nil
		}
		return bernoulli(c.rng, skill+(1-skill)*ctx.HintFraction()), nil
	case action.Guess:
		return bernoulli(c.rng, guessCorrect), nil
	default:
		return false, fmt.Errorf("produce answer for %v: not a graded action", k)
	}
}

func (c *PCorrectCognition) PracticeSkill(kc *domain.KC) {
	if c.Mastered(kc.ID) {
		return
	}
	c.skills[kc.ID] = min(c.skills[kc.ID]+kc.PT, 1)
}

func (c *PCorrectCognition) Knowledge(kcID string) float64 { return c.skills[kcID] }

func (c *PCorrectCognition) Mastered(kcID string) bool { return c.skills[kcID] >= 1 }

func (c *PCorrectCognition) Spec() CognitionSpec {
	spec := CognitionSpec{Kind: CognitionPCorrect, Skills: maps.Clone(c.skills)}
	if c.biased {
		spec.Kind = CognitionBias
		spec.Ability = c.ability
	}
	return spec
}

// hintedGuess interpolates from pg toward 1 as hints are used up.
func hintedGuess(ctx turn.Context) float64 {
	pg := ctx.KC.PG
	return pg + (1-pg)*ctx.HintFraction()
}
