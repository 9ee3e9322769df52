package plugin

import "testing"

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateUnregistered, "unregistered"},
		{StateRegistered, "registered"},
		{StateActive, "active"},
		{State(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestState_MarshalText(t *testing.T) {
	b, err := StateActive.MarshalText()
	if err != nil || string(b) != "active" {
		t.Errorf("MarshalText = %q, %v", b, err)
	}
	if _, err := State(-1).MarshalText(); err == nil {
		t.Error("unknown state should not marshal")
	}
}
