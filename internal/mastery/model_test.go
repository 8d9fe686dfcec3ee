package mastery

import (
	"math/rand/v2"
	"testing"

	"github.com/abhisek/motivsim/internal/domain"
)

func testModel(t *testing.T, threshold float64) (*Model, *domain.KC) {
	t.Helper()
	kc := scenarioKC()
	d, err := domain.New("d", []*domain.KC{kc})
	if err != nil {
		t.Fatalf("domain: %v", err)
	}
	return NewModel(d, threshold), kc
}

func TestModel_InitializesFromPL0(t *testing.T) {
	m, kc := testModel(t, DefaultThreshold)
	if m.Get(kc.ID) != 0.5 {
		t.Errorf("Get = %f, want 0.5", m.Get(kc.ID))
	}
	if m.IsMastered(kc.ID) {
		t.Error("expected not mastered")
	}
}

func TestModel_UpdateRecordsChange(t *testing.T) {
	m, kc := testModel(t, DefaultThreshold)
	ch, err := m.Update(kc, true)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !ch.Applied || !almostEqual(ch.Before, 0.5) || !almostEqual(ch.After, 0.8) {
		t.Errorf("change = %+v, want applied 0.5 -> 0.8", ch)
	}
	if !almostEqual(m.Get(kc.ID), 0.8) {
		t.Errorf("Get = %f, want 0.8", m.Get(kc.ID))
	}
}

func TestModel_FreezesAtThreshold(t *testing.T) {
	m, kc := testModel(t, 0.75)
	if _, err := m.Update(kc, true); err != nil {
		t.Fatal(err)
	}
	if !m.IsMastered(kc.ID) {
		t.Fatalf("expected mastered at %f", m.Get(kc.ID))
	}
	frozen := m.Get(kc.ID)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		ch, err := m.Update(kc, rng.IntN(2) == 0)
		if err != nil {
			t.Fatal(err)
		}
		if ch.Applied {
			t.Fatal("update applied past threshold")
		}
		if m.Get(kc.ID) != frozen {
			t.Fatalf("mastery moved from %f to %f", frozen, m.Get(kc.ID))
		}
	}
}

func TestModel_UnknownKC(t *testing.T) {
	m, _ := testModel(t, DefaultThreshold)
	other := &domain.KC{ID: "other", PT: 0.2, PS: 0.1, PG: 0.3}
	if _, err := m.Update(other, true); err == nil {
		t.Error("expected error for untracked kc")
	}
}

func TestModel_SnapshotIsCopy(t *testing.T) {
	m, kc := testModel(t, DefaultThreshold)
	snap := m.Snapshot()
	snap[kc.ID] = 0.99
	if m.Get(kc.ID) != 0.5 {
		t.Error("snapshot aliases model state")
	}
}
