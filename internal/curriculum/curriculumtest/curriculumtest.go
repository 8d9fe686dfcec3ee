// Package curriculumtest builds small curricula for tests.
package curriculumtest

import (
	"fmt"
	"testing"

	"github.com/abhisek/motivsim/internal/curriculum"
	"github.com/abhisek/motivsim/internal/domain"
)

// KC returns a KC with the parameters used throughout the test suites.
func KC(id string, pl0 float64) *domain.KC {
	return &domain.KC{ID: id, PL0: pl0, PT: 0.2, PS: 0.1, PG: 0.3, MTime: 10, SDTime: 2}
}

// Layout describes a curriculum shape: Units[u][s] lists, for each problem of
// section s in unit u, the KC IDs of its steps in order.
type Layout struct {
	Hints int
	Units [][][][]string
}

// Build constructs a curriculum with deterministic IDs of the form
// u0, u0s1, u0s1p2, u0s1p2t0.
func Build(t testing.TB, kcs []*domain.KC, layout Layout) *curriculum.Curriculum {
	t.Helper()
	dom, err := domain.New("test-domain", kcs)
	if err != nil {
		t.Fatalf("build domain: %v", err)
	}
	var units []*curriculum.Unit
	for ui, sections := range layout.Units {
		u := &curriculum.Unit{ID: fmt.Sprintf("u%d", ui)}
		for si, problems := range sections {
			s := &curriculum.Section{ID: fmt.Sprintf("%ss%d", u.ID, si)}
			for pi, steps := range problems {
				p := &curriculum.Problem{ID: fmt.Sprintf("%sp%d", s.ID, pi)}
				for ti, kc := range steps {
					p.Steps = append(p.Steps, &curriculum.Step{
						ID:    fmt.Sprintf("%st%d", p.ID, ti),
						KC:    kc,
						Hints: layout.Hints,
					})
				}
				s.Problems = append(s.Problems, p)
			}
			u.Sections = append(u.Sections, s)
		}
		units = append(units, u)
	}
	c, err := curriculum.New("test-curriculum", dom, units)
	if err != nil {
		t.Fatalf("build curriculum: %v", err)
	}
	return c
}

// Single returns a one-unit, one-section, one-problem, one-step curriculum
// over a single KC.
func Single(t testing.TB, pl0 float64, hints int) *curriculum.Curriculum {
	t.Helper()
	return Build(t, []*domain.KC{KC("k", pl0)}, Layout{
		Hints: hints,
		Units: [][][][]string{{{{"k"}}}},
	})
}
