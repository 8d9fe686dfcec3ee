package curriculum

import (
	"strings"
	"testing"

	"github.com/abhisek/motivsim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDomain(t *testing.T, ids ...string) *domain.Domain {
	t.Helper()
	var kcs []*domain.KC
	for _, id := range ids {
		kcs = append(kcs, &domain.KC{ID: id, PL0: 0.5, PT: 0.2, PS: 0.1, PG: 0.3, MTime: 10, SDTime: 2})
	}
	d, err := domain.New("d", kcs)
	require.NoError(t, err)
	return d
}

func TestLoadYAML(t *testing.T) {
	c, err := Load("testdata/fractions.yaml")
	require.NoError(t, err)

	assert.Equal(t, "fractions-demo", c.ID)
	assert.Equal(t, Counts{Units: 1, Sections: 2, Problems: 3, Steps: 5, KCs: 3}, c.Counts())

	sect, ok := c.Section("sec-equivalence")
	require.True(t, ok)
	assert.Equal(t, []string{"equiv-fractions", "compare-fractions"}, sect.KCs)
	assert.Equal(t, "unit-1", sect.UnitID)

	unit, ok := c.Unit("unit-1")
	require.True(t, ok)
	assert.Equal(t, []string{"equiv-fractions", "compare-fractions", "add-like-denoms"}, unit.KCs)

	step, ok := c.Step("step-3b")
	require.True(t, ok)
	assert.Equal(t, 0, step.Hints)
	assert.Equal(t, "prob-3", step.ProblemID)
	assert.Equal(t, "sec-addition", step.SectionID)

	prob, _ := c.Problem("prob-1")
	assert.True(t, prob.HasKC("compare-fractions"))
	assert.False(t, prob.HasKC("add-like-denoms"))

	kc, ok := c.KC("add-like-denoms")
	require.True(t, ok)
	assert.InDelta(t, 0.05, kc.InitialSD(), 1e-9)
}

func TestParseJSON(t *testing.T) {
	doc := `{
	  "domain": {"kcs": [{"id": "k", "pl0": 0.2, "pt": 0.1, "ps": 0.1, "pg": 0.2}]},
	  "units": [{"sections": [{"problems": [{"steps": [{"kc": "k", "hints": 1}]}]}]}]
	}`
	c, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)

	// IDs are generated when omitted.
	u := c.Units()[0]
	assert.NotEmpty(t, u.ID)
	st := u.Sections[0].Problems[0].Steps[0]
	assert.NotEmpty(t, st.ID)
	got, ok := c.Step(st.ID)
	require.True(t, ok)
	assert.Same(t, st, got)
}

func TestParse_SchemaRejectsBadParams(t *testing.T) {
	doc := `
domain:
  kcs:
    - {id: k, pl0: 0.2, pt: 0.1, ps: 1.0, pg: 0.2}
units: []
`
	_, err := Parse([]byte(doc), FormatYAML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation failed")
}

func TestParse_SchemaRejectsMissingSteps(t *testing.T) {
	doc := `{"domain": {"kcs": [{"id": "k", "pl0": 0.2, "pt": 0.1, "ps": 0.1, "pg": 0.2}]},
	  "units": [{"sections": [{"problems": [{"id": "p"}]}]}]}`
	_, err := Parse([]byte(doc), FormatJSON)
	require.Error(t, err)
}

func TestNew_ReportsStructuralProblems(t *testing.T) {
	d := testDomain(t, "a")
	units := []*Unit{{
		ID: "u",
		Sections: []*Section{{
			ID: "s",
			Problems: []*Problem{
				{ID: "p", Steps: []*Step{{ID: "x", KC: "missing"}, {ID: "x", KC: "a", Hints: -1}}},
				{ID: "empty"},
			},
		}},
	}}

	_, err := New("c", d, units)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		`step "x" references unknown kc "missing"`,
		`duplicate id "x"`,
		`negative hint budget -1`,
		`problem "empty" has no steps`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"c.json": FormatJSON,
		"c.JSON": FormatJSON,
		"c.yaml": FormatYAML,
		"c.yml":  FormatYAML,
		"c":      FormatYAML,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
