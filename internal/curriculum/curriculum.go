package curriculum

import (
	"fmt"

	"github.com/abhisek/motivsim/internal/domain"
	"github.com/google/uuid"
)

// Step is the smallest unit of practice. It exercises exactly one KC.
type Step struct {
	ID        string `json:"id,omitempty"`
	UnitID    string `json:"-"`
	SectionID string `json:"-"`
	ProblemID string `json:"-"`
	// KC is the ID of the single KC this step exercises.
	KC string `json:"kc"`
	// Hints is the number of hints the tutor can give on this step.
	Hints int `json:"hints"`
}

// Problem is an ordered list of steps. Steps are completed in declaration order.
type Problem struct {
	ID        string  `json:"id,omitempty"`
	UnitID    string  `json:"-"`
	SectionID string  `json:"-"`
	Steps     []*Step `json:"steps"`
	// KCs covered by the problem's steps, in first-seen order.
	KCs []string `json:"-"`

	kcSet map[string]bool
}

// HasKC reports whether any step of the problem exercises kcID.
func (p *Problem) HasKC(kcID string) bool {
	return p.kcSet[kcID]
}

// Section groups problems that practice a set of KCs.
type Section struct {
	ID       string     `json:"id,omitempty"`
	UnitID   string     `json:"-"`
	Problems []*Problem `json:"problems"`
	KCs      []string   `json:"-"`
}

// Unit groups sections.
type Unit struct {
	ID       string     `json:"id,omitempty"`
	Sections []*Section `json:"sections"`
	KCs      []string   `json:"-"`
}

// Curriculum is the read-only content graph a tutor sequences over.
// It is safe to share across goroutines once built.
type Curriculum struct {
	ID     string
	domain *domain.Domain
	units  []*Unit

	unitByID    map[string]*Unit
	sectionByID map[string]*Section
	problemByID map[string]*Problem
	stepByID    map[string]*Step
}

// New links the hierarchy, assigns missing IDs, aggregates covered KCs bottom-up,
// validates it against the domain, and builds lookup indices.
func New(id string, dom *domain.Domain, units []*Unit) (*Curriculum, error) {
	if dom == nil {
		return nil, fmt.Errorf("curriculum %s: nil domain", id)
	}
	if id == "" {
		id = uuid.NewString()
	}
	c := &Curriculum{
		ID:          id,
		domain:      dom,
		units:       units,
		unitByID:    make(map[string]*Unit),
		sectionByID: make(map[string]*Section),
		problemByID: make(map[string]*Problem),
		stepByID:    make(map[string]*Step),
	}
	c.link()
	if err := validate(c); err != nil {
		return nil, err
	}
	c.index()
	return c, nil
}

func (c *Curriculum) link() {
	for _, u := range c.units {
		if u.ID == "" {
			u.ID = uuid.NewString()
		}
		var unitKCs kcList
		for _, s := range u.Sections {
			if s.ID == "" {
				s.ID = uuid.NewString()
			}
			s.UnitID = u.ID
			var sectKCs kcList
			for _, p := range s.Problems {
				if p.ID == "" {
					p.ID = uuid.NewString()
				}
				p.UnitID, p.SectionID = u.ID, s.ID
				var probKCs kcList
				for _, st := range p.Steps {
					if st.ID == "" {
						st.ID = uuid.NewString()
					}
					st.UnitID, st.SectionID, st.ProblemID = u.ID, s.ID, p.ID
					probKCs.add(st.KC)
				}
				p.KCs = probKCs.ids
				p.kcSet = probKCs.seen
				sectKCs.add(p.KCs...)
			}
			s.KCs = sectKCs.ids
			unitKCs.add(s.KCs...)
		}
		u.KCs = unitKCs.ids
	}
}

func (c *Curriculum) index() {
	for _, u := range c.units {
		c.unitByID[u.ID] = u
		for _, s := range u.Sections {
			c.sectionByID[s.ID] = s
			for _, p := range s.Problems {
				c.problemByID[p.ID] = p
				for _, st := range p.Steps {
					c.stepByID[st.ID] = st
				}
			}
		}
	}
}

// Domain returns the domain the curriculum's KCs belong to.
func (c *Curriculum) Domain() *domain.Domain { return c.domain }

// Units returns units in curriculum order.
func (c *Curriculum) Units() []*Unit { return c.units }

// Unit returns the unit with the given ID.
func (c *Curriculum) Unit(id string) (*Unit, bool) {
	u, ok := c.unitByID[id]
	return u, ok
}

// Section returns the section with the given ID.
func (c *Curriculum) Section(id string) (*Section, bool) {
	s, ok := c.sectionByID[id]
	return s, ok
}

// Problem returns the problem with the given ID.
func (c *Curriculum) Problem(id string) (*Problem, bool) {
	p, ok := c.problemByID[id]
	return p, ok
}

// Step returns the step with the given ID.
func (c *Curriculum) Step(id string) (*Step, bool) {
	st, ok := c.stepByID[id]
	return st, ok
}

// KC resolves a KC ID against the curriculum's domain.
func (c *Curriculum) KC(id string) (*domain.KC, bool) {
	return c.domain.KC(id)
}

// Counts summarizes the size of the curriculum.
type Counts struct {
	Units    int
	Sections int
	Problems int
	Steps    int
	KCs      int
}

// Counts returns node totals per level.
func (c *Curriculum) Counts() Counts {
	return Counts{
		Units:    len(c.unitByID),
		Sections: len(c.sectionByID),
		Problems: len(c.problemByID),
		Steps:    len(c.stepByID),
		KCs:      c.domain.Len(),
	}
}

// kcList collects unique KC IDs preserving first-seen order.
type kcList struct {
	ids  []string
	seen map[string]bool
}

func (l *kcList) add(ids ...string) {
	if l.seen == nil {
		l.seen = make(map[string]bool)
	}
	for _, id := range ids {
		if id == "" || l.seen[id] {
			continue
		}
		l.seen[id] = true
		l.ids = append(l.ids, id)
	}
}
