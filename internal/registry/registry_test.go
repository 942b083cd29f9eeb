package registry

import "testing"

func TestRegisterAndResolve(t *testing.T) {
	reg := New()
	loc := Location{AccessNodeID: "node-1", ConnID: 42}

	reg.Register(loc, "p1")
	reg.BindSession("p1", "abc12345")

	pid, ok := reg.ResolveParticipant(42)
	if !ok || pid != "p1" {
		t.Errorf("ResolveParticipant = %q/%v", pid, ok)
	}
	got, ok := reg.ConnectionOf("p1")
	if !ok || got != loc {
		t.Errorf("ConnectionOf = %+v/%v", got, ok)
	}
	sid, ok := reg.ResolveSession("p1")
	if !ok || sid != "abc12345" {
		t.Errorf("ResolveSession = %q/%v", sid, ok)
	}
	if reg.Count() != 1 {
		t.Errorf("Expected 1 tracked connection, got %d", reg.Count())
	}
}

func TestForgetClearsAllBindings(t *testing.T) {
	reg := New()
	reg.Register(Location{AccessNodeID: "node-1", ConnID: 42}, "p1")
	reg.BindSession("p1", "abc12345")

	reg.Forget(42)

	if _, ok := reg.ResolveParticipant(42); ok {
		t.Error("Connection still resolvable after Forget")
	}
	if _, ok := reg.ConnectionOf("p1"); ok {
		t.Error("Participant still resolvable after Forget")
	}
	if _, ok := reg.ResolveSession("p1"); ok {
		t.Error("Session binding survived Forget")
	}
}

func TestForgetIsIdempotent(t *testing.T) {
	reg := New()
	reg.Register(Location{AccessNodeID: "node-1", ConnID: 42}, "p1")

	reg.Forget(42)
	reg.Forget(42)
	reg.Forget(99)

	if reg.Count() != 0 {
		t.Errorf("Expected 0 tracked connections, got %d", reg.Count())
	}
}

func TestForgetParticipantDropsConnection(t *testing.T) {
	reg := New()
	reg.Register(Location{AccessNodeID: "node-1", ConnID: 42}, "p1")
	reg.BindSession("p1", "abc12345")

	reg.ForgetParticipant("p1")

	if _, ok := reg.ResolveParticipant(42); ok {
		t.Error("Connection still bound after ForgetParticipant")
	}
	if _, ok := reg.ResolveSession("p1"); ok {
		t.Error("Session binding survived ForgetParticipant")
	}
}

func TestRebindConnection(t *testing.T) {
	reg := New()
	reg.Register(Location{AccessNodeID: "node-1", ConnID: 42}, "p1")
	reg.Register(Location{AccessNodeID: "node-2", ConnID: 7}, "p1")

	loc, ok := reg.ConnectionOf("p1")
	if !ok || loc.AccessNodeID != "node-2" || loc.ConnID != 7 {
		t.Errorf("Expected rebind to node-2/7, got %+v", loc)
	}
}
