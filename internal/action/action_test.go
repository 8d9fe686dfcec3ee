package action

import (
	"encoding/json"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Attempt, "attempt"},
		{Guess, "guess"},
		{HintRequest, "hint_request"},
		{OffTask, "off_task"},
		{StopWork, "stop_work"},
		{FailedAttempt, "failed_attempt"},
		{Kind(99), "kind(99)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", k, err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v", k, got)
		}
	}
	if _, err := ParseKind("nap"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestKindJSON(t *testing.T) {
	b, err := json.Marshal(Action{Kind: HintRequest})
	if err != nil {
		t.Fatal(err)
	}
	var a Action
	if err := json.Unmarshal(b, &a); err != nil {
		t.Fatal(err)
	}
	if a.Kind != HintRequest {
		t.Errorf("kind = %v, want hint_request", a.Kind)
	}
}

func TestDiligence(t *testing.T) {
	tests := []struct {
		kind       Kind
		diligent   bool
		undiligent bool
		onTask     bool
	}{
		{Attempt, true, false, true},
		{HintRequest, true, false, true},
		{Guess, false, true, true},
		{OffTask, false, true, false},
		{StopWork, false, false, false},
		{FailedAttempt, false, false, false},
	}
	for _, tt := range tests {
		if tt.kind.Diligent() != tt.diligent {
			t.Errorf("%v.Diligent() = %v", tt.kind, !tt.diligent)
		}
		if tt.kind.Undiligent() != tt.undiligent {
			t.Errorf("%v.Undiligent() = %v", tt.kind, !tt.undiligent)
		}
		if tt.kind.OnTask() != tt.onTask {
			t.Errorf("%v.OnTask() = %v", tt.kind, !tt.onTask)
		}
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		a    Action
		want string
	}{
		{Action{Kind: Attempt, Correct: true}, "correct"},
		{Action{Kind: Guess}, "incorrect"},
		{Action{Kind: HintRequest}, "hint"},
		{Action{Kind: OffTask}, "off_task"},
	}
	for _, tt := range tests {
		if got := tt.a.Outcome(); got != tt.want {
			t.Errorf("Outcome(%v) = %q, want %q", tt.a.Kind, got, tt.want)
		}
	}
}
