package plugin

import "testing"

type mockService struct {
	Name string
}

func TestServiceRegistry_RegisterAndResolve(t *testing.T) {
	sr := NewServiceRegistry()
	svc := &mockService{Name: "test"}

	if err := sr.Register("forum.settings", svc); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := Resolve[*mockService](sr, "forum.settings")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got.Name != "test" {
		t.Errorf("got Name=%q, want %q", got.Name, "test")
	}
}

func TestServiceRegistry_DuplicateRegisterFails(t *testing.T) {
	sr := NewServiceRegistry()
	svc := &mockService{Name: "a"}

	if err := sr.Register("key", svc); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}

	if err := sr.Register("key", svc); err == nil {
		t.Fatal("duplicate Register should fail")
	}
}

func TestServiceRegistry_ResolveNotFound(t *testing.T) {
	sr := NewServiceRegistry()

	_, err := Resolve[*mockService](sr, "nonexistent")
	if err == nil {
		t.Fatal("Resolve nonexistent should fail")
	}
}

func TestServiceRegistry_ResolveWrongType(t *testing.T) {
	sr := NewServiceRegistry()
	sr.Register("key", "a string, not a *mockService")

	_, err := Resolve[*mockService](sr, "key")
	if err == nil {
		t.Fatal("Resolve with wrong type should fail")
	}
}

func TestServiceRegistry_UnregisterAndDrop(t *testing.T) {
	sr := NewServiceRegistry()
	sr.Register(ServiceKey("forum", "settings"), "a")
	sr.Register(ServiceKey("forum", "stats"), "b")
	sr.Register(ServiceKey("blog", "settings"), "c")

	sr.Unregister("forum.stats")
	sr.Unregister("never.there")
	if sr.Has("forum.stats") {
		t.Error("Unregister should remove the key")
	}

	if n := sr.Drop("forum"); n != 1 {
		t.Errorf("Drop removed %d services, want 1", n)
	}
	if keys := sr.Keys(); len(keys) != 1 || keys[0] != "blog.settings" {
		t.Errorf("Keys = %v, want [blog.settings]", keys)
	}
}

func TestServiceRegistry_EmptyKey(t *testing.T) {
	if err := NewServiceRegistry().Register("", 1); err == nil {
		t.Fatal("empty key should be rejected")
	}
}

func TestServiceRegistry_Has(t *testing.T) {
	sr := NewServiceRegistry()
	sr.Register("exists", "yes")

	if !sr.Has("exists") {
		t.Error("Has should return true for existing key")
	}
	if sr.Has("nope") {
		t.Error("Has should return false for missing key")
	}
}

func TestServiceRegistry_Keys(t *testing.T) {
	sr := NewServiceRegistry()
	sr.Register("b.svc", "2")
	sr.Register("a.svc", "1")

	keys := sr.Keys()
	if len(keys) != 2 || keys[0] != "a.svc" {
		t.Fatalf("Keys = %v, want sorted [a.svc b.svc]", keys)
	}
}
