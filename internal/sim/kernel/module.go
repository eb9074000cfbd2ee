package kernel

import "agentsim.dev/internal/sim/agents"

// Module is the contract shared by every simulation module category. The
// kernel holds typed collections per category rather than inspecting
// attributes at runtime; a module belongs to a category by implementing
// that category's interface.
type Module interface {
	// Name is the namespace for the module's states and results.
	Name() string
	// Requires lists module names that must be present in the sim. Checked
	// at initialization, before any stepping occurs.
	Requires() []string
	// Init binds the module's states, streams, and results to the sim.
	Init(s *Sim) error
	// Finalize runs once after the simulation completes.
	Finalize(s *Sim) error
}

// Demographic modules create new agents and schedule non-disease deaths.
type Demographic interface {
	Module
	Step(s *Sim) error
}

// Disease modules carry autonomous state updates, transmission, death
// bookkeeping, and result recording, invoked in that order per tick.
type Disease interface {
	Module
	Step(s *Sim) error
	Transmit(s *Sim) error
	Die(s *Sim, uids agents.UIDs) error
	UpdateResults(s *Sim) error
}

// Network modules maintain contact structure between agents.
type Network interface {
	Module
	Step(s *Sim) error
	agents.UIDRemover
}

// Intervention modules may alter network structure or agent state.
type Intervention interface {
	Module
	Apply(s *Sim) error
}

// Analyzer modules run last each tick, observing the fully-resolved state
// including agents that died this tick.
type Analyzer interface {
	Module
	Apply(s *Sim) error
}

// Product is owned by an intervention (e.g. a vaccine) and bound by the
// kernel during initialization.
type Product interface {
	Init(s *Sim) error
	Administer(p *agents.People, uids agents.UIDs) error
}

// ProductHolder is implemented by interventions that own a product.
type ProductHolder interface {
	Product() Product
}

// Base provides the boilerplate half of the Module contract. Embed it and
// implement the category's phase methods.
type Base struct {
	ModName string
	Reqs    []string
}

func (b *Base) Name() string        { return b.ModName }
func (b *Base) Requires() []string  { return b.Reqs }
func (b *Base) Finalize(*Sim) error { return nil }
