package model

import (
	"encoding/json"
	"testing"
)

func TestRunStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state RunState
		want  string
	}{
		{StateSearching, "SEARCHING"},
		{StatePaging, "PAGING"},
		{StateDone, "DONE"},
		{StateAborted, "ABORTED"},
		{StateInterrupted, "INTERRUPTED"},
		{RunState(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("RunState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestRunStateTerminal(t *testing.T) {
	t.Parallel()

	if StateSearching.Terminal() || StatePaging.Terminal() {
		t.Error("expected SEARCHING and PAGING to be non-terminal")
	}
	if !StateDone.Terminal() || !StateAborted.Terminal() || !StateInterrupted.Terminal() {
		t.Error("expected DONE, ABORTED and INTERRUPTED to be terminal")
	}
}

func TestParseRunState(t *testing.T) {
	t.Parallel()

	t.Run("round trips every state", func(t *testing.T) {
		t.Parallel()
		for _, s := range []RunState{StateSearching, StatePaging, StateDone, StateAborted, StateInterrupted} {
			got, err := ParseRunState(s.String())
			if err != nil {
				t.Fatalf("unexpected error for %s: %v", s, err)
			}
			if got != s {
				t.Errorf("expected %s, got %s", s, got)
			}
		}
	})

	t.Run("rejects unknown names", func(t *testing.T) {
		t.Parallel()
		if _, err := ParseRunState("FINISHED"); err == nil {
			t.Error("expected error for unknown state")
		}
	})
}

func TestRunStateJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(struct {
		State RunState `json:"state"`
	}{State: StateAborted})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"state":"ABORTED"}` {
		t.Errorf("unexpected JSON: %s", data)
	}
}
