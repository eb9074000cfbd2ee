package agents

import "fmt"

// UIDRemover is implemented by relational structures (contact networks)
// that hold identifiers directly and must drop dead agents when the store
// removes them.
type UIDRemover interface {
	RemoveUIDs(uids UIDs)
}

// Options configures the default-value policies of the core states whose
// defaults are sampled (age, sex). Nil fields fall back to sentinels.
type Options struct {
	AgeDefault    FloatDefault
	FemaleDefault BoolDefault
}

// People is the agent store: it owns the canonical uid and slot arrays, the
// authoritative active-identifier list, and a registry of every typed array
// attached anywhere in the simulation. All registered arrays are grown in
// lock-step, so their growth history is identical.
//
// Like the teacher's world state, People is single-threaded: all access
// must come from the simulation loop.
type People struct {
	UID  *IndexArr // all identifiers ever issued
	Slot *IndexArr // stable secondary identity for random-stream assignment

	auids UIDs // active identifiers; owned here, read by every array

	registry []State            // ordered for deterministic lock-step growth
	regSet   map[State]struct{} // keyed by identity to tolerate name collisions

	Alive  *BoolArr
	Female *BoolArr
	Age    *FloatArr
	TiDead *FloatArr // pending-death buffer: multiple writers, one resolver
	Scale  *FloatArr

	// States maps namespaced names ("sir.infected") and core names to the
	// registered arrays, for lookup by name.
	States  map[string]State
	modules map[string]bool

	initialized bool
}

// NewPeople builds a store for n agents plus the fixed core attribute set.
// Core states are created but not populated; call InitVals once any
// sampled defaults have been connected to their random streams.
func NewPeople(n int, opts Options) (*People, error) {
	if n < 0 {
		return nil, fmt.Errorf("people: invalid population size %d", n)
	}
	uids := Arange(0, UID(n))

	p := &People{
		regSet:  map[State]struct{}{},
		States:  map[string]State{},
		modules: map[string]bool{},
	}

	p.UID = NewIndexArr("uid")
	p.UID.growVals(uids, uids)
	p.UID.people = p
	p.UID.bound = true

	p.Slot = NewIndexArr("slot")
	p.Slot.growVals(uids, uids)
	p.Slot.people = p
	p.Slot.bound = true

	p.auids = Arange(0, UID(n))

	p.Alive = NewBoolArr("alive", ConstBool(true))
	p.Female = NewBoolArr("female", opts.FemaleDefault)
	p.Age = NewFloatArr("age", opts.AgeDefault)
	p.TiDead = NewFloatArr("ti_dead", nil) // NaN until a death is requested
	p.Scale = NewFloatArr("scale", ConstFloat(1.0))

	for _, st := range []State{p.Alive, p.Female, p.Age, p.TiDead, p.Scale} {
		if err := st.Bind(p); err != nil {
			return nil, err
		}
		p.States[st.Name()] = st
	}
	return p, nil
}

// register attaches a typed array for lock-step growth. Keyed by object
// identity, not name, so same-named states from different modules coexist.
func (p *People) register(s State) error {
	if _, ok := p.regSet[s]; ok {
		return fmt.Errorf("people: state %q already registered", s.Name())
	}
	p.regSet[s] = struct{}{}
	p.registry = append(p.registry, s)
	return nil
}

// AddModule namespaces and registers a module's typed arrays so they
// participate in uniform growth and removal. Fails if the module name
// collides with an existing attribute unless force is set.
func (p *People) AddModule(name string, states []State, force bool) error {
	if p.modules[name] && !force {
		return fmt.Errorf("people: module %q already added", name)
	}
	if _, ok := p.States[name]; ok && !force {
		return fmt.Errorf("people: module name %q collides with an existing state", name)
	}
	for _, st := range states {
		if err := st.Bind(p); err != nil {
			return err
		}
		p.States[name+"."+st.Name()] = st
	}
	p.modules[name] = true
	return nil
}

// InitVals populates every registered array that has not yet been grown to
// the current population, the final step of initialization. Defaults that
// sample from random streams must be connected before this call.
func (p *People) InitVals() error {
	if p.initialized {
		return fmt.Errorf("people: already initialized; construct a new store to re-run")
	}
	all := p.UID.UIDs()
	for _, st := range p.registry {
		if st.LenUsed() == 0 {
			st.Grow(all)
		}
	}
	p.initialized = true
	return nil
}

// Len reports the number of active agents.
func (p *People) Len() int { return len(p.auids) }

// NIssued reports the total number of identifiers ever issued.
func (p *People) NIssued() int { return p.UID.LenUsed() }

// AUIDs returns the authoritative active-identifier list. Callers must not
// mutate it; only the store writes it.
func (p *People) AUIDs() UIDs { return p.auids }

// Grow issues n new identifiers (or one per entry of newSlots), extends
// every registered array in lock-step, and appends the new identifiers to
// the active list. Returns the newly issued identifiers.
func (p *People) Grow(n int, newSlots UIDs) (UIDs, error) {
	if n == 0 && newSlots == nil {
		return nil, fmt.Errorf("people: must supply either a count or explicit slots")
	}
	if newSlots != nil {
		n = len(newSlots)
	}
	if n < 0 {
		return nil, fmt.Errorf("people: invalid growth count %d", n)
	}
	if n == 0 {
		return UIDs{}, nil
	}

	start := UID(p.UID.LenUsed())
	newUIDs := Arange(start, start+UID(n))
	p.UID.growVals(newUIDs, newUIDs)

	if newSlots == nil {
		newSlots = newUIDs
	}
	p.Slot.growVals(newUIDs, newSlots)

	for _, st := range p.registry {
		st.Grow(newUIDs)
	}

	p.auids = p.auids.Concat(newUIDs)
	return newUIDs, nil
}

// RequestDeath records that the given agents should die at tick ti. This is
// a request, not a removal: multiple modules may request death for the same
// agent in the same tick, each attributing its own cause in its own
// results, and the agent stays alive and active until ResolveDeaths runs.
func (p *People) RequestDeath(uids UIDs, ti int) {
	p.TiDead.Set(uids, float64(ti))
}

// ResolveDeaths flips alive to false for every agent whose recorded death
// time has arrived and returns them. The identifiers remain in the active
// list until RemoveDead, so result-recording code can still distinguish
// "died this tick" from "alive".
func (p *People) ResolveDeaths(ti int) UIDs {
	deaths := p.TiDead.Le(float64(ti)).UIDs()
	p.Alive.Set(deaths, false)
	return deaths
}

// RemoveDead strips dead agents from the supplied relational structures and
// then from the active list. Raw buffers are never compacted. This must be
// the last state mutation of the tick.
func (p *People) RemoveDead(removers []UIDRemover) {
	dead := p.Dead().UIDs()
	if len(dead) == 0 {
		return
	}
	for _, r := range removers {
		r.RemoveUIDs(dead)
	}
	p.auids = p.auids.Remove(dead)
}

// Dead is the inverse of the alive flag.
func (p *People) Dead() *BoolArr { return p.Alive.Not() }

// Male is the inverse of the female flag.
func (p *People) Male() *BoolArr { return p.Female.Not() }

// UpdatePost advances ages at the very end of the timestep.
func (p *People) UpdatePost(dt float64) {
	p.Age.AddAt(p.Alive.UIDs(), dt)
}

// ScaleFlows returns the summed scale factors for the given agents, the
// rescaled replacement for len(uids).
func (p *People) ScaleFlows(uids UIDs) float64 {
	var s float64
	for _, v := range p.Scale.Get(uids) {
		s += v
	}
	return s
}
