package tutor

import (
	"errors"
	"fmt"
)

// SetNextUnit enters the first unvisited unit and descends into it. Units whose
// sections are all exhausted are skipped; ErrNoMoreUnits is returned when
// every unit has been visited.
func (t *Tutor) SetNextUnit() error {
	for _, u := range t.curric.Units() {
		if _, seen := t.completed[u.ID]; seen {
			continue
		}
		t.state.Unit = u
		t.state.Section = nil
		t.state.Problem = nil
		t.state.Step = nil
		t.completed[u.ID] = map[string]map[string]map[string]bool{}

		err := t.SetNextSection()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrExhausted) {
			return err
		}
		t.log.Debug("unit has nothing to practice", "tutor_id", t.ID, "unit_id", u.ID, "reason", err)
	}
	return ErrNoMoreUnits
}

// SetNextSection enters the first unvisited section of the current unit that
// yields a problem.
func (t *Tutor) SetNextSection() error {
	if t.state.Unit == nil {
		return fmt.Errorf("set next section: %w", ErrNotStarted)
	}
	unitDone := t.completed[t.state.Unit.ID]
	for _, s := range t.state.Unit.Sections {
		if _, seen := unitDone[s.ID]; seen {
			continue
		}
		t.state.Section = s
		t.state.Problem = nil
		t.state.Step = nil
		unitDone[s.ID] = map[string]map[string]bool{}

		err := t.SetNextProb()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrExhausted) {
			return err
		}
		t.log.Debug("section has nothing to practice", "tutor_id", t.ID, "section_id", s.ID, "reason", err)
	}
	return ErrNoMoreSections
}

// SetNextProb picks an unmastered KC of the current section uniformly at random
// and then a random unvisited problem that exercises it.
func (t *Tutor) SetNextProb() error {
	if t.state.Unit == nil || t.state.Section == nil {
		return fmt.Errorf("set next problem: %w", ErrNotStarted)
	}
	sect := t.state.Section

	unmastered := t.unmasteredKCs()
	if len(unmastered) == 0 {
		return ErrSectionMastered
	}
	target := unmastered[t.rng.IntN(len(unmastered))]

	sectDone := t.completed[t.state.Unit.ID][sect.ID]
	var candidates []int
	for i, p := range sect.Problems {
		if _, seen := sectDone[p.ID]; seen {
			continue
		}
		if p.HasKC(target) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		t.log.Debug("no problems left for target kc", "tutor_id", t.ID, "section_id", sect.ID, "kc", target)
		return ErrNoMoreProblems
	}
	prob := sect.Problems[candidates[t.rng.IntN(len(candidates))]]
	t.state.Problem = prob
	t.state.Step = nil
	sectDone[prob.ID] = map[string]bool{}
	t.log.Debug("selected problem", "tutor_id", t.ID, "problem_id", prob.ID, "target_kc", target,
		"unmastered", len(unmastered), "candidates", len(candidates))

	return t.SetNextStep()
}

// SetNextStep enters the first unvisited step of the current problem and
// resets the per-step counters.
func (t *Tutor) SetNextStep() error {
	if t.state.Problem == nil {
		return fmt.Errorf("set next step: %w", ErrNotStarted)
	}
	probDone := t.completed[t.state.Unit.ID][t.state.Section.ID][t.state.Problem.ID]
	for _, st := range t.state.Problem.Steps {
		if _, seen := probDone[st.ID]; seen {
			continue
		}
		t.state.Step = st
		t.state.HintsAvail = st.Hints
		t.state.HintsUsed = 0
		t.state.Attempt = 0
		probDone[st.ID] = false
		return nil
	}
	return ErrNoMoreSteps
}

// unmasteredKCs returns the current section's KCs below threshold, in section order.
func (t *Tutor) unmasteredKCs() []string {
	var out []string
	for _, kc := range t.state.Section.KCs {
		if !t.mastery.IsMastered(kc) {
			out = append(out, kc)
		}
	}
	return out
}

// updateState completes the current step and advances, widening scope only
// when the narrower one is exhausted.
func (t *Tutor) updateState() error {
	s := &t.state
	probDone := t.completed[s.Unit.ID][s.Section.ID][s.Problem.ID]
	probDone[s.Step.ID] = true

	for _, st := range s.Problem.Steps {
		if _, seen := probDone[st.ID]; !seen {
			return t.SetNextStep()
		}
	}

	advances := []struct {
		scope string
		next  func() error
	}{
		{"problem", t.SetNextProb},
		{"section", t.SetNextSection},
		{"unit", t.SetNextUnit},
	}
	for _, adv := range advances {
		err := adv.next()
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrExhausted) {
			return err
		}
		t.log.Debug("advance failed", "tutor_id", t.ID, "scope", adv.scope, "reason", err)
	}
	t.log.Debug("curriculum complete", "tutor_id", t.ID, "student_id", t.StudentID)
	s.Done = true
	return nil
}
