package domain

import (
	"errors"
	"strings"
	"testing"
)

func validKC(id string) *KC {
	return &KC{ID: id, PL0: 0.5, PT: 0.2, PS: 0.1, PG: 0.3, MTime: 10, SDTime: 2.5}
}

func TestKCValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*KC)
		wantErr bool
	}{
		{"valid", func(*KC) {}, false},
		{"pt of one", func(k *KC) { k.PT = 1 }, false},
		{"empty id", func(k *KC) { k.ID = "" }, true},
		{"pl0 above one", func(k *KC) { k.PL0 = 1.2 }, true},
		{"pt zero", func(k *KC) { k.PT = 0 }, true},
		{"slip of one", func(k *KC) { k.PS = 1 }, true},
		{"guess of zero", func(k *KC) { k.PG = 0 }, true},
		{"negative time", func(k *KC) { k.MTime = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kc := validKC("kc-1")
			tt.mutate(kc)
			err := kc.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidParams) {
					t.Errorf("Validate() = %v, want ErrInvalidParams", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestInitialSD(t *testing.T) {
	kc := validKC("a")
	if kc.InitialSD() != DefaultPL0SD {
		t.Errorf("InitialSD = %f, want default %f", kc.InitialSD(), DefaultPL0SD)
	}
	kc.PL0SD = 0.03
	if kc.InitialSD() != 0.03 {
		t.Errorf("InitialSD = %f, want 0.03", kc.InitialSD())
	}
}

func TestNewDomain(t *testing.T) {
	d, err := New("dom", []*KC{validKC("a"), validKC("b")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Len() != 2 {
		t.Errorf("Len = %d, want 2", d.Len())
	}
	kc, ok := d.KC("b")
	if !ok {
		t.Fatal("expected kc b")
	}
	if kc.DomainID != "dom" {
		t.Errorf("DomainID = %q, want dom", kc.DomainID)
	}
}

func TestNewDomain_RejectsDuplicatesAndInvalid(t *testing.T) {
	bad := validKC("c")
	bad.PG = 1
	_, err := New("dom", []*KC{validKC("a"), validKC("a"), bad})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, `duplicate kc id: "a"`) {
		t.Errorf("missing duplicate error in %q", msg)
	}
	if !strings.Contains(msg, "kc c pg=1") {
		t.Errorf("missing pg error in %q", msg)
	}
}
