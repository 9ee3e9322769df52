package json

import (
	"bytes"
	"strings"
	"testing"
)

type testEnvelope struct {
	Kind    string `json:"kind" default:"plugin"`
	Version int    `json:"version" default:"1"`
	Enabled bool   `json:"enabled"`
}

func TestMarshalAppliesStructDefaults(t *testing.T) {
	env := &testEnvelope{Enabled: true}

	data, err := Marshal(env)
	if err != nil {
		t.Fatalf("Marshal returned error: %v", err)
	}
	if env.Kind != "plugin" || env.Version != 1 {
		t.Fatalf("defaults not applied: %+v", env)
	}
	if !strings.Contains(string(data), `"kind":"plugin"`) {
		t.Fatalf("encoded JSON missing default kind: %s", data)
	}
}

func TestMarshalMapSkipsDefaults(t *testing.T) {
	data, err := Marshal(map[string]any{"postsPerPage": 20})
	if err != nil {
		t.Fatalf("Marshal(map) returned error: %v", err)
	}
	if string(data) != `{"postsPerPage":20}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}

func TestUnmarshalKeepsExplicitValues(t *testing.T) {
	var env testEnvelope
	if err := Unmarshal([]byte(`{"kind":"theme","version":0}`), &env); err != nil {
		t.Fatalf("Unmarshal returned error: %v", err)
	}
	if env.Kind != "theme" {
		t.Fatalf("expected kind=theme, got %q", env.Kind)
	}
	if env.Version != 0 {
		t.Fatalf("explicit zero version should be preserved, got %d", env.Version)
	}
}

func TestEncoderDecoderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(&testEnvelope{Kind: "forum"}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	var got testEnvelope
	if err := NewDecoder(&buf).Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Kind != "forum" || got.Version != 1 {
		t.Fatalf("unexpected decoded value: %+v", got)
	}
}
