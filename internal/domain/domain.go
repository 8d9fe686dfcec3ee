package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain is the set of KCs a curriculum draws on.
type Domain struct {
	ID   string
	kcs  []*KC
	byID map[string]*KC
}

// New builds a domain from the given KCs, validating each one.
// Returns a combined error describing every invalid or duplicate KC.
func New(id string, kcs []*KC) (*Domain, error) {
	d := &Domain{
		ID:   id,
		kcs:  make([]*KC, 0, len(kcs)),
		byID: make(map[string]*KC, len(kcs)),
	}

	var errs []string
	for _, kc := range kcs {
		if kc == nil {
			continue
		}
		if err := kc.Validate(); err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if _, dup := d.byID[kc.ID]; dup {
			errs = append(errs, fmt.Sprintf("duplicate kc id: %q", kc.ID))
			continue
		}
		if kc.DomainID == "" {
			kc.DomainID = id
		}
		d.kcs = append(d.kcs, kc)
		d.byID[kc.ID] = kc
	}

	if len(errs) > 0 {
		return nil, errors.New("domain validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return d, nil
}

// KC returns the KC with the given ID.
func (d *Domain) KC(id string) (*KC, bool) {
	kc, ok := d.byID[id]
	return kc, ok
}

// KCs returns all KCs in declaration order.
func (d *Domain) KCs() []*KC {
	return d.kcs
}

// Len returns the number of KCs.
func (d *Domain) Len() int {
	return len(d.kcs)
}
