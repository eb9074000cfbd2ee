// Package network provides contact networks: relational structures over
// agent identifiers that transmission operates on.
package network

import (
	"agentsim.dev/internal/sim/agents"
	"agentsim.dev/internal/sim/dist"
	"agentsim.dev/internal/sim/kernel"
)

// Edge is one undirected contact with a per-edge transmissibility weight.
type Edge struct {
	P1, P2 agents.UID
	Beta   float64
}

// EdgeLister is implemented by networks that expose their contact list;
// diseases transmit over it.
type EdgeLister interface {
	Edges() []Edge
}

// RandomNet pairs alive agents into NContacts contacts each per tick via a
// deterministic stream shuffle. Edges referencing dead agents are stripped
// by RemoveUIDs during the store's removal phase.
type RandomNet struct {
	kernel.Base
	NContacts int
	EdgeBeta  float64

	pair  *dist.Stream
	edges []Edge
}

func NewRandomNet(nContacts int) *RandomNet {
	if nContacts <= 0 {
		nContacts = 1
	}
	return &RandomNet{
		Base:      kernel.Base{ModName: "randomnet"},
		NContacts: nContacts,
		EdgeBeta:  1.0,
		pair:      dist.NewStream("randomnet_pairs"),
	}
}

func (n *RandomNet) Init(s *kernel.Sim) error {
	s.Dists.Register(n.pair)
	return nil
}

// Step regenerates the contact list among currently-alive agents. Runs
// after disease state updates so eligibility reflects this tick.
func (n *RandomNet) Step(s *kernel.Sim) error {
	alive := s.People.Alive.UIDs()
	n.edges = n.edges[:0]
	if len(alive) < 2 {
		return nil
	}
	for round := 0; round < n.NContacts; round++ {
		shuffled := make(agents.UIDs, len(alive))
		copy(shuffled, alive)
		n.pair.Shuffle(shuffled)
		for i := 0; i+1 < len(shuffled); i += 2 {
			n.edges = append(n.edges, Edge{P1: shuffled[i], P2: shuffled[i+1], Beta: n.EdgeBeta})
		}
	}
	return nil
}

func (n *RandomNet) Edges() []Edge { return n.edges }

// Len reports the current number of contacts.
func (n *RandomNet) Len() int { return len(n.edges) }

// RemoveUIDs drops every edge touching one of the given identifiers.
func (n *RandomNet) RemoveUIDs(uids agents.UIDs) {
	if len(uids) == 0 {
		return
	}
	drop := make(map[agents.UID]struct{}, len(uids))
	for _, u := range uids {
		drop[u] = struct{}{}
	}
	kept := n.edges[:0]
	for _, e := range n.edges {
		if _, ok := drop[e.P1]; ok {
			continue
		}
		if _, ok := drop[e.P2]; ok {
			continue
		}
		kept = append(kept, e)
	}
	n.edges = kept
}
