package agents

import (
	"math"
	"testing"
)

func newTestPeople(t *testing.T, n int) *People {
	t.Helper()
	p, err := NewPeople(n, Options{
		AgeDefault:    ConstFloat(30),
		FemaleDefault: ConstBool(false),
	})
	if err != nil {
		t.Fatalf("NewPeople: %v", err)
	}
	if err := p.InitVals(); err != nil {
		t.Fatalf("InitVals: %v", err)
	}
	return p
}

func TestNewPeople_CoreStates(t *testing.T) {
	p := newTestPeople(t, 10)
	if p.Len() != 10 || p.NIssued() != 10 {
		t.Fatalf("Len=%d NIssued=%d, want 10/10", p.Len(), p.NIssued())
	}
	if p.Alive.Count() != 10 {
		t.Fatalf("all agents should start alive")
	}
	if p.Age.At(3) != 30 {
		t.Fatalf("age default not applied: %v", p.Age.At(3))
	}
	if !math.IsNaN(p.TiDead.At(0)) {
		t.Fatalf("ti_dead should start at the NaN sentinel")
	}
	if p.Scale.At(0) != 1 {
		t.Fatalf("scale should default to 1")
	}
	// Slots mirror uids for the initial population.
	if p.Slot.At(7) != 7 {
		t.Fatalf("slot[7] = %d, want 7", p.Slot.At(7))
	}
}

func TestInitVals_RunsOnce(t *testing.T) {
	p := newTestPeople(t, 2)
	if err := p.InitVals(); err == nil {
		t.Fatalf("second InitVals should fail")
	}
}

func TestAddModule_NamespacesStates(t *testing.T) {
	p := newTestPeople(t, 4)
	inf := NewBoolArr("infected", nil)
	if err := p.AddModule("sir", []State{inf}, false); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	if _, ok := p.States["sir.infected"]; !ok {
		t.Fatalf("module state not namespaced")
	}
	if err := p.AddModule("sir", nil, false); err == nil {
		t.Fatalf("duplicate module should fail without force")
	}
	if err := p.AddModule("sir", nil, true); err != nil {
		t.Fatalf("force re-add: %v", err)
	}

	// Same state name in a different module coexists: registry is keyed by
	// identity, not name.
	inf2 := NewBoolArr("infected", nil)
	if err := p.AddModule("sis", []State{inf2}, false); err != nil {
		t.Fatalf("AddModule sis: %v", err)
	}
	if p.States["sir.infected"] == p.States["sis.infected"] {
		t.Fatalf("same-named module states must be distinct arrays")
	}
}

func TestGrow_LockStepAndMonotonicUIDs(t *testing.T) {
	p := newTestPeople(t, 5)
	extra := NewFloatArr("x", ConstFloat(2))
	if err := p.AddModule("m", []State{extra}, false); err != nil {
		t.Fatalf("AddModule: %v", err)
	}
	extra.Grow(p.UID.UIDs())

	newUIDs, err := p.Grow(3, nil)
	if err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if len(newUIDs) != 3 || newUIDs[0] != 5 || newUIDs[2] != 7 {
		t.Fatalf("new uids = %v, want [5 6 7]", newUIDs)
	}
	if p.Len() != 8 || p.NIssued() != 8 {
		t.Fatalf("Len=%d NIssued=%d, want 8/8", p.Len(), p.NIssued())
	}

	// Every registered array grew in lock-step.
	for name, st := range p.States {
		if st.LenUsed() != 8 {
			t.Fatalf("state %q lenUsed=%d, want 8", name, st.LenUsed())
		}
	}
	if extra.At(6) != 2 {
		t.Fatalf("module default not applied on growth: %v", extra.At(6))
	}

	if _, err := p.Grow(0, nil); err == nil {
		t.Fatalf("Grow(0, nil) should fail")
	}
	got, err := p.Grow(0, UIDs{})
	if err != nil || len(got) != 0 {
		t.Fatalf("Grow with explicit empty slots = %v, %v", got, err)
	}
}

func TestGrow_ExplicitSlots(t *testing.T) {
	p := newTestPeople(t, 2)
	newUIDs, err := p.Grow(0, UIDs{40, 41, 42})
	if err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if len(newUIDs) != 3 {
		t.Fatalf("new uids = %v", newUIDs)
	}
	if p.Slot.At(newUIDs[0]) != 40 || p.Slot.At(newUIDs[2]) != 42 {
		t.Fatalf("explicit slots not applied")
	}
	// uid keeps its own monotonic sequence regardless of slots.
	if newUIDs[0] != 2 {
		t.Fatalf("uid issue order broken: %v", newUIDs)
	}
}

func TestTwoPhaseDeath(t *testing.T) {
	p := newTestPeople(t, 6)

	p.RequestDeath(UIDs{1, 3}, 4)
	// Requests are visible but nothing is dead yet.
	if p.Alive.Count() != 6 {
		t.Fatalf("death requests must not flip alive")
	}
	// Requesting again in the same tick is idempotent.
	p.RequestDeath(UIDs{3}, 4)

	// A request scheduled in the future does not resolve now.
	p.RequestDeath(UIDs{5}, 9)

	deaths := p.ResolveDeaths(4)
	if len(deaths) != 2 {
		t.Fatalf("ResolveDeaths = %v, want 2 deaths", deaths)
	}
	if p.Alive.Count() != 4 {
		t.Fatalf("alive = %d, want 4", p.Alive.Count())
	}
	// Dead agents stay in the active list until removal.
	if p.Len() != 6 {
		t.Fatalf("Len = %d before RemoveDead, want 6", p.Len())
	}
	if p.Dead().Count() != 2 {
		t.Fatalf("Dead().Count() = %d, want 2", p.Dead().Count())
	}

	p.RemoveDead(nil)
	if p.Len() != 4 {
		t.Fatalf("Len = %d after RemoveDead, want 4", p.Len())
	}
	// Raw buffers never compact: dead uids still readable raw.
	if p.Alive.At(1) {
		t.Fatalf("raw read of dead agent should be false")
	}
	if p.NIssued() != 6 {
		t.Fatalf("NIssued must not shrink on removal")
	}

	// The future request resolves at its own tick.
	deaths = p.ResolveDeaths(9)
	if len(deaths) != 1 || deaths[0] != 5 {
		t.Fatalf("ResolveDeaths(9) = %v, want [5]", deaths)
	}
}

type recordingRemover struct{ got UIDs }

func (r *recordingRemover) RemoveUIDs(uids UIDs) { r.got = append(r.got, uids...) }

func TestRemoveDead_NotifiesRemovers(t *testing.T) {
	p := newTestPeople(t, 3)
	p.RequestDeath(UIDs{2}, 0)
	p.ResolveDeaths(0)

	rem := &recordingRemover{}
	p.RemoveDead([]UIDRemover{rem})
	if len(rem.got) != 1 || rem.got[0] != 2 {
		t.Fatalf("remover got %v, want [2]", rem.got)
	}

	// No dead agents: removers are not called.
	rem.got = nil
	p.RemoveDead([]UIDRemover{rem})
	if rem.got != nil {
		t.Fatalf("remover called with no deaths")
	}
}

func TestUpdatePost_AgesOnlyAlive(t *testing.T) {
	p := newTestPeople(t, 3)
	p.RequestDeath(UIDs{0}, 0)
	p.ResolveDeaths(0)

	p.UpdatePost(1.0)
	if p.Age.At(0) != 30 {
		t.Fatalf("dead agent aged: %v", p.Age.At(0))
	}
	if p.Age.At(1) != 31 {
		t.Fatalf("alive agent did not age: %v", p.Age.At(1))
	}
}

func TestScaleFlows(t *testing.T) {
	p := newTestPeople(t, 3)
	p.Scale.Set(UIDs{0, 1}, 2.5)
	if got := p.ScaleFlows(UIDs{0, 1, 2}); got != 6 {
		t.Fatalf("ScaleFlows = %v, want 6", got)
	}
}
