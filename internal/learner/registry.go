package learner

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/abhisek/motivsim/internal/domain"
)

// Registered module kinds.
const (
	CognitionBinary   = "binary"
	CognitionPCorrect = "pcorrect"
	CognitionBias     = "bias"

	DeciderEV          = "ev"
	DeciderDomainTuner = "domain_tuner"

	ConstructDiligence    = "diligence"
	ConstructSelfEfficacy = "self_efficacy"
	ConstructInterest     = "interest"
)

// ErrUnknownKind is returned for a spec naming an unregistered module.
var ErrUnknownKind = errors.New("unknown module kind")

// CognitionSpec is the serialized form of a Cognition.
// Skills, when present, overrides the sampled initial skills.
type CognitionSpec struct {
	Kind    string             `json:"kind" yaml:"kind"`
	Ability float64            `json:"ability,omitempty" yaml:"ability,omitempty"`
	Skills  map[string]float64 `json:"skills,omitempty" yaml:"skills,omitempty"`
}

// ConstructSpec is the serialized form of a Construct.
type ConstructSpec struct {
	Kind  string  `json:"kind" yaml:"kind"`
	Param float64 `json:"param" yaml:"param"`
}

// DeciderSpec is the serialized form of a Decider.
type DeciderSpec struct {
	Kind       string          `json:"kind" yaml:"kind"`
	Values     Values          `json:"values" yaml:"values"`
	Start      StartDelay      `json:"start" yaml:"start"`
	Constructs []ConstructSpec `json:"constructs,omitempty" yaml:"constructs,omitempty"`
}

// Spec is everything needed to rebuild a learner.
type Spec struct {
	Cognition CognitionSpec `json:"cognition"`
	Decider   DeciderSpec   `json:"decider"`
}

type (
	CognitionFactory func(spec CognitionSpec, dom *domain.Domain, r *rand.Rand) (Cognition, error)
	ConstructFactory func(spec ConstructSpec) (Construct, error)
	DeciderFactory   func(spec DeciderSpec, r *rand.Rand, constructs []Construct) (Decider, error)
)

// Registry maps serialized kind tags to module constructors.
type Registry struct {
	cognitions map[string]CognitionFactory
	constructs map[string]ConstructFactory
	deciders   map[string]DeciderFactory
}

// NewRegistry returns a registry with every built-in module registered.
func NewRegistry() *Registry {
	reg := &Registry{
		cognitions: map[string]CognitionFactory{},
		constructs: map[string]ConstructFactory{},
		deciders:   map[string]DeciderFactory{},
	}

	reg.RegisterCognition(CognitionBinary, func(spec CognitionSpec, dom *domain.Domain, r *rand.Rand) (Cognition, error) {
		c := NewBinaryCognition(dom, r)
		for id, v := range spec.Skills {
			c.skills[id] = v >= 1
		}
		return c, nil
	})
	reg.RegisterCognition(CognitionPCorrect, func(spec CognitionSpec, dom *domain.Domain, r *rand.Rand) (Cognition, error) {
		c := NewPCorrectCognition(dom, r)
		return c, restoreSkills(c, spec.Skills)
	})
	reg.RegisterCognition(CognitionBias, func(spec CognitionSpec, dom *domain.Domain, r *rand.Rand) (Cognition, error) {
		c, err := NewBiasCognition(dom, r, spec.Ability)
		if err != nil {
			return nil, err
		}
		return c, restoreSkills(c, spec.Skills)
	})

	reg.RegisterConstruct(ConstructDiligence, func(spec ConstructSpec) (Construct, error) {
		return NewDiligence(spec.Param)
	})
	reg.RegisterConstruct(ConstructSelfEfficacy, func(spec ConstructSpec) (Construct, error) {
		return NewSelfEfficacy(spec.Param), nil
	})
	reg.RegisterConstruct(ConstructInterest, func(spec ConstructSpec) (Construct, error) {
		return NewInterest(spec.Param)
	})

	reg.RegisterDecider(DeciderEV, func(spec DeciderSpec, r *rand.Rand, cs []Construct) (Decider, error) {
		return NewEVDecider(r, spec.Values, spec.Start, cs...), nil
	})
	reg.RegisterDecider(DeciderDomainTuner, func(spec DeciderSpec, r *rand.Rand, cs []Construct) (Decider, error) {
		if len(cs) > 0 {
			return nil, fmt.Errorf("%s decider takes no constructs", DeciderDomainTuner)
		}
		return NewDomainTuner(r, spec.Values, spec.Start), nil
	})
	return reg
}

func restoreSkills(c *PCorrectCognition, skills map[string]float64) error {
	for id, v := range skills {
		if v < 0 || v > 1 {
			return fmt.Errorf("skill %s=%v not in [0,1]", id, v)
		}
		c.skills[id] = v
	}
	return nil
}

func (reg *Registry) RegisterCognition(kind string, f CognitionFactory) { reg.cognitions[kind] = f }
func (reg *Registry) RegisterConstruct(kind string, f ConstructFactory) { reg.constructs[kind] = f }
func (reg *Registry) RegisterDecider(kind string, f DeciderFactory) { reg.deciders[kind] = f }

// Kinds lists the registered tags of each module family, sorted.
func (reg *Registry) Kinds() (cognitions, deciders, constructs []string) {
	return sortedKeys(reg.cognitions), sortedKeys(reg.deciders), sortedKeys(reg.constructs)
}

// Cognition builds a cognition module from its spec.
func (reg *Registry) Cognition(spec CognitionSpec, dom *domain.Domain, r *rand.Rand) (Cognition, error) {
	f, ok := reg.cognitions[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("cognition %q: %w", spec.Kind, ErrUnknownKind)
	}
	c, err := f(spec, dom, r)
	if err != nil {
		return nil, fmt.Errorf("build cognition %q: %w", spec.Kind, err)
	}
	return c, nil
}

// Decider builds a decider and its constructs from a spec.
func (reg *Registry) Decider(spec DeciderSpec, r *rand.Rand) (Decider, error) {
	f, ok := reg.deciders[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("decider %q: %w", spec.Kind, ErrUnknownKind)
	}
	var cs []Construct
	for _, cspec := range spec.Constructs {
		cf, ok := reg.constructs[cspec.Kind]
		if !ok {
			return nil, fmt.Errorf("construct %q: %w", cspec.Kind, ErrUnknownKind)
		}
		c, err := cf(cspec)
		if err != nil {
			return nil, fmt.Errorf("build construct %q: %w", cspec.Kind, err)
		}
		cs = append(cs, c)
	}
	d, err := f(spec, r, cs)
	if err != nil {
		return nil, fmt.Errorf("build decider %q: %w", spec.Kind, err)
	}
	return d, nil
}

// Learner rebuilds a learner from its spec.
func (reg *Registry) Learner(id string, spec Spec, dom *domain.Domain, r *rand.Rand, opts ...Option) (*Learner, error) {
	cog, err := reg.Cognition(spec.Cognition, dom, r)
	if err != nil {
		return nil, err
	}
	dec, err := reg.Decider(spec.Decider, r)
	if err != nil {
		return nil, err
	}
	return New(id, cog, dec, r, opts...), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
