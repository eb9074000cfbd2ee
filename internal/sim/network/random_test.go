package network

import (
	"testing"

	"agentsim.dev/internal/sim/agents"
	"agentsim.dev/internal/sim/kernel"
)

func newNetSim(t *testing.T, seed int64, nContacts, nAgents int) (*kernel.Sim, *RandomNet) {
	t.Helper()
	net := NewRandomNet(nContacts)
	s := kernel.New(kernel.Config{
		Pars:     kernel.Pars{NAgents: nAgents, NPts: 5, Seed: seed},
		Networks: []kernel.Network{net},
	})
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s, net
}

func TestRandomNet_EdgeCount(t *testing.T) {
	s, net := newNetSim(t, 1, 3, 100)
	if err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	// Each round pairs floor(n/2) couples.
	if got := net.Len(); got != 3*50 {
		t.Fatalf("edges = %d, want 150", got)
	}
	for _, e := range net.Edges() {
		if e.P1 == e.P2 {
			t.Fatalf("self-contact %v", e)
		}
		if e.Beta != 1.0 {
			t.Fatalf("edge beta = %v, want 1", e.Beta)
		}
	}
}

func TestRandomNet_OddPopulationLeavesOneUnpaired(t *testing.T) {
	s, net := newNetSim(t, 2, 1, 7)
	if err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := net.Len(); got != 3 {
		t.Fatalf("edges = %d, want 3", got)
	}
}

func TestRandomNet_TooFewAgents(t *testing.T) {
	s, net := newNetSim(t, 3, 2, 1)
	if err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if net.Len() != 0 {
		t.Fatalf("a single agent cannot have contacts")
	}
}

func TestRandomNet_RemoveUIDs(t *testing.T) {
	s, net := newNetSim(t, 4, 2, 20)
	if err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	before := net.Len()
	net.RemoveUIDs(agents.UIDs{0, 1, 2})
	if net.Len() >= before {
		t.Fatalf("removal did not drop edges (%d -> %d)", before, net.Len())
	}
	for _, e := range net.Edges() {
		if e.P1 <= 2 || e.P2 <= 2 {
			t.Fatalf("edge %v still references a removed agent", e)
		}
	}

	// Removing nothing keeps the list intact.
	after := net.Len()
	net.RemoveUIDs(nil)
	if net.Len() != after {
		t.Fatalf("empty removal changed the edge list")
	}
}

func TestRandomNet_RewiresEachTickDeterministically(t *testing.T) {
	s1, n1 := newNetSim(t, 5, 1, 30)
	s2, n2 := newNetSim(t, 5, 1, 30)

	if err := s1.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	if err := s2.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	e1, e2 := n1.Edges(), n2.Edges()
	if len(e1) != len(e2) {
		t.Fatalf("edge counts differ")
	}
	for i := range e1 {
		if e1[i] != e2[i] {
			t.Fatalf("same seed produced different contact lists at %d", i)
		}
	}

	// The next tick reshuffles.
	prev := make([]Edge, len(e1))
	copy(prev, e1)
	if err := s1.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}
	sameAll := true
	for i, e := range n1.Edges() {
		if e != prev[i] {
			sameAll = false
			break
		}
	}
	if sameAll {
		t.Fatalf("contact list did not rewire across ticks")
	}
}
