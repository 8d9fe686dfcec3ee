package curriculum

import (
	"errors"
	"fmt"
	"strings"
)

// validate performs structural checks on a linked curriculum.
// Returns a combined error describing all problems found, or nil if valid.
func validate(c *Curriculum) error {
	var errs []string
	ids := make(map[string]string)

	claim := func(kind, id string) {
		if prev, dup := ids[id]; dup {
			errs = append(errs, fmt.Sprintf("duplicate id %q (%s and %s)", id, prev, kind))
			return
		}
		ids[id] = kind
	}

	for _, u := range c.units {
		claim("unit", u.ID)
		for _, s := range u.Sections {
			claim("section", s.ID)
			for _, p := range s.Problems {
				claim("problem", p.ID)
				if len(p.Steps) == 0 {
					errs = append(errs, fmt.Sprintf("problem %q has no steps", p.ID))
				}
				for _, st := range p.Steps {
					claim("step", st.ID)
					if st.KC == "" {
						errs = append(errs, fmt.Sprintf("step %q references no kc", st.ID))
					} else if _, ok := c.domain.KC(st.KC); !ok {
						errs = append(errs, fmt.Sprintf("step %q references unknown kc %q", st.ID, st.KC))
					}
					if st.Hints < 0 {
						errs = append(errs, fmt.Sprintf("step %q has negative hint budget %d", st.ID, st.Hints))
					}
				}
			}
		}
	}

	if len(errs) > 0 {
		return errors.New("curriculum validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
