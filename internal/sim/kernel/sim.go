package kernel

import (
	"fmt"

	"agentsim.dev/internal/sim/agents"
	"agentsim.dev/internal/sim/dist"
)

// Pars are the kernel-level simulation parameters.
type Pars struct {
	Label    string
	NAgents  int
	NPts     int     // horizon: number of ticks to run
	DT       float64 // duration of one tick (model time units)
	Seed     int64
	PopScale float64 // rescaling factor applied to Scale-flagged results
}

// Config assembles a sim from parameters and per-category module lists.
// Module order within a category is preserved and modules may rely on it.
type Config struct {
	Pars          Pars
	Demographics  []Demographic
	Networks      []Network
	Diseases      []Disease
	Interventions []Intervention
	Analyzers     []Analyzer
}

// TickLogEntry summarizes one executed tick for persistence/streaming.
type TickLogEntry struct {
	Tick      int    `json:"tick"`
	NAlive    int    `json:"n_alive"`
	NewDeaths int    `json:"new_deaths"`
	Digest    string `json:"digest"`
}

// TickLogger receives one entry per executed tick (may be nil).
type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

// ValsIniter is an optional module hook run after all states have been
// populated, e.g. to seed initial infections.
type ValsIniter interface {
	InitVals(s *Sim) error
}

// Sim drives the fixed per-tick phase sequence over one agent store.
// Execution is single-threaded and synchronous: the phase ordering in Step
// is the sole mechanism preventing read/write races on the shared arrays.
type Sim struct {
	Pars Pars

	People *agents.People
	Dists  *dist.Container

	Demographics  []Demographic
	Networks      []Network
	Diseases      []Disease
	Interventions []Intervention
	Analyzers     []Analyzer

	Results *Results
	Summary map[string]float64
	// SummaryHow overrides summary reductions by exact result key.
	SummaryHow map[string]Reduction

	TI int // current tick, advances from 0 to Pars.NPts

	initialized  bool
	complete     bool
	resultsReady bool

	products   []Product
	tickLogger TickLogger

	nAlive    *Result
	newDeaths *Result
	cumDeaths *Result
}

// New builds an unconstructed sim; call Init before stepping.
func New(cfg Config) *Sim {
	pars := cfg.Pars
	if pars.DT == 0 {
		pars.DT = 1
	}
	if pars.PopScale == 0 {
		pars.PopScale = 1
	}
	return &Sim{
		Pars:          pars,
		Demographics:  cfg.Demographics,
		Networks:      cfg.Networks,
		Diseases:      cfg.Diseases,
		Interventions: cfg.Interventions,
		Analyzers:     cfg.Analyzers,
	}
}

// SetTickLogger installs an optional per-tick sink. Implemented in
// internal/persistence and internal/transport.
func (s *Sim) SetTickLogger(l TickLogger) { s.tickLogger = l }

func (s *Sim) Initialized() bool  { return s.initialized }
func (s *Sim) Complete() bool     { return s.complete }
func (s *Sim) ResultsReady() bool { return s.resultsReady }

// modules returns every module in category order: demographics, networks,
// diseases, interventions, analyzers.
func (s *Sim) modules() []Module {
	out := make([]Module, 0)
	for _, m := range s.Demographics {
		out = append(out, m)
	}
	for _, m := range s.Networks {
		out = append(out, m)
	}
	for _, m := range s.Diseases {
		out = append(out, m)
	}
	for _, m := range s.Interventions {
		out = append(out, m)
	}
	for _, m := range s.Analyzers {
		out = append(out, m)
	}
	return out
}

// Init binds every module to the agent store, binds intervention-owned
// products, and then initializes all random streams. Streams come last
// because some initial state values are drawn from module-local streams.
func (s *Sim) Init() error {
	if s.initialized {
		return alreadyRun("sim already initialized; construct a new sim to re-run")
	}
	if s.Pars.NAgents < 0 {
		return fmt.Errorf("sim: invalid population size %d", s.Pars.NAgents)
	}
	if s.Pars.NPts < 0 {
		return fmt.Errorf("sim: invalid horizon %d", s.Pars.NPts)
	}

	s.Dists = dist.NewContainer(s.Pars.Seed)

	// Core demographic defaults are sampled, so they are streams too.
	ageInit := dist.NewUniform("people_age_init", 0, 50)
	femaleInit := dist.NewBernoulli("people_female", 0.5)
	s.Dists.Register(ageInit.Stream, femaleInit.Stream)

	ppl, err := agents.NewPeople(s.Pars.NAgents, agents.Options{
		AgeDefault:    ageInit,
		FemaleDefault: femaleInit,
	})
	if err != nil {
		return err
	}
	s.People = ppl

	s.Results = NewResults()
	if s.nAlive, err = s.Results.Add("n_alive", s.Pars.NPts, true); err != nil {
		return err
	}
	if s.newDeaths, err = s.Results.Add("new_deaths", s.Pars.NPts, true); err != nil {
		return err
	}
	if s.cumDeaths, err = s.Results.Add("cum_deaths", s.Pars.NPts, true); err != nil {
		return err
	}

	// Dependency check before any module initialization so failures are
	// surfaced before any state is touched.
	present := map[string]bool{}
	for _, m := range s.modules() {
		present[m.Name()] = true
	}
	for _, m := range s.modules() {
		for _, req := range m.Requires() {
			if !present[req] {
				return &MissingModuleError{Module: m.Name(), Requires: req}
			}
		}
	}

	for _, m := range s.modules() {
		if err := m.Init(s); err != nil {
			return fmt.Errorf("init module %s: %w", m.Name(), err)
		}
	}

	// Bind intervention-owned products.
	for _, intv := range s.Interventions {
		if ph, ok := intv.(ProductHolder); ok {
			if prod := ph.Product(); prod != nil {
				if err := prod.Init(s); err != nil {
					return fmt.Errorf("init product of %s: %w", intv.Name(), err)
				}
				s.products = append(s.products, prod)
			}
		}
	}

	// All arrays and streams are registered; bind streams, then populate
	// initial values (which may draw from those streams).
	if err := s.Dists.Init(s.People); err != nil {
		return err
	}
	if err := s.People.InitVals(); err != nil {
		return err
	}
	for _, m := range s.modules() {
		if vi, ok := m.(ValsIniter); ok {
			if err := vi.InitVals(s); err != nil {
				return fmt.Errorf("init vals of %s: %w", m.Name(), err)
			}
		}
	}

	s.initialized = true
	s.complete = s.TI == s.Pars.NPts
	s.resultsReady = false
	return nil
}

// Step executes one tick. The phase order below is a hard contract: any
// reordering changes model semantics (e.g. running network updates before
// disease updates would make new infections blind to same-tick structural
// changes).
func (s *Sim) Step() error {
	if s.complete {
		return alreadyRun("simulation already complete at tick %d; construct a new sim to re-run", s.TI)
	}
	if !s.initialized {
		return fmt.Errorf("sim: step before initialization")
	}
	ti := s.TI

	// Advance random streams to the upcoming tick so draws are reproducible
	// across runs regardless of how many draws earlier ticks consumed.
	s.Dists.Jump(ti + 1)

	// Demographics create new agents and schedule non-disease deaths.
	for _, dem := range s.Demographics {
		if err := dem.Step(s); err != nil {
			return err
		}
	}

	// Autonomous disease state changes, applied to agents created above
	// within the same tick.
	for _, dis := range s.Diseases {
		if err := dis.Step(s); err != nil {
			return err
		}
	}

	// Network structure updates, after state changes so eligibility for
	// contacts reflects this tick.
	for _, net := range s.Networks {
		if err := net.Step(s); err != nil {
			return err
		}
	}

	// Interventions may customize the final network structure.
	for _, intv := range s.Interventions {
		if err := intv.Apply(s); err != nil {
			return err
		}
	}

	// Transmission over the finalized network/intervention state.
	for _, dis := range s.Diseases {
		if err := dis.Transmit(s); err != nil {
			return err
		}
	}

	// Resolve deaths (flips alive), then let each disease do its own death
	// bookkeeping while the dead are still in the active list.
	deaths := s.People.ResolveDeaths(ti)
	for _, dis := range s.Diseases {
		if err := dis.Die(s, deaths); err != nil {
			return err
		}
	}

	// Record results.
	s.updatePeopleResults(ti)
	for _, dis := range s.Diseases {
		if err := dis.UpdateResults(s); err != nil {
			return err
		}
	}

	// Analyzers run last so they observe the final state of the tick,
	// including agents that died this tick.
	for _, an := range s.Analyzers {
		if err := an.Apply(s); err != nil {
			return err
		}
	}

	// Physical removal is the final state mutation of the tick.
	removers := make([]agents.UIDRemover, 0, len(s.Networks))
	for _, net := range s.Networks {
		removers = append(removers, net)
	}
	s.People.RemoveDead(removers)
	if len(s.Demographics) > 0 {
		s.People.UpdatePost(s.Pars.DT)
	}

	if s.tickLogger != nil {
		_ = s.tickLogger.WriteTick(TickLogEntry{
			Tick:      ti,
			NAlive:    s.People.Len(),
			NewDeaths: int(s.newDeaths.Values[ti]),
			Digest:    s.Digest(),
		})
	}

	s.TI++
	if s.TI == s.Pars.NPts {
		s.complete = true
	}
	return nil
}

func (s *Sim) updatePeopleResults(ti int) {
	s.nAlive.Values[ti] = float64(s.People.Alive.Count())
	s.newDeaths.Values[ti] = float64(s.People.TiDead.Eq(float64(ti)).Count())
	prev := 0.0
	if ti > 0 {
		prev = s.cumDeaths.Values[ti-1]
	}
	s.cumDeaths.Values[ti] = prev + s.newDeaths.Values[ti]
}

// RunUntil steps repeatedly until the given tick. Fails if asked to run
// past the horizon, to a tick already reached, or when already complete.
func (s *Sim) RunUntil(until int) error {
	if !s.initialized {
		if err := s.Init(); err != nil {
			return err
		}
	}
	if s.complete {
		return alreadyRun("simulation is already complete; construct a new sim to re-run")
	}
	if until > s.Pars.NPts {
		return alreadyRun("requested to run until tick %d but the horizon is %d", until, s.Pars.NPts)
	}
	if s.TI >= until {
		return alreadyRun("simulation is at tick %d, requested to run until tick %d which has already been reached", s.TI, until)
	}
	for s.TI < until {
		if err := s.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the remaining ticks and finalizes the results.
func (s *Sim) Run() error {
	if !s.initialized {
		if err := s.Init(); err != nil {
			return err
		}
	}
	if s.Pars.NPts > 0 {
		if err := s.RunUntil(s.Pars.NPts); err != nil {
			return err
		}
	}
	if s.complete {
		return s.Finalize()
	}
	return nil
}

// Finalize rescales Scale-flagged results by the population scale exactly
// once, finalizes each module, and computes the reduced summary.
func (s *Sim) Finalize() error {
	if s.resultsReady {
		return alreadyRun("simulation has already been finalized")
	}
	s.Results.scaleAll(s.Pars.PopScale)
	for _, m := range s.modules() {
		if err := m.Finalize(s); err != nil {
			return fmt.Errorf("finalize module %s: %w", m.Name(), err)
		}
	}
	s.Summary = s.Results.Summarize(s.SummaryHow)
	s.resultsReady = true
	return nil
}

// Shrink returns a reduced copy with the agent store and stream container
// stripped, suitable for lightweight serialization of results/summary.
func (s *Sim) Shrink() *Sim {
	out := *s
	out.People = nil
	out.Dists = nil
	out.Demographics = nil
	out.Networks = nil
	out.Diseases = nil
	out.Interventions = nil
	out.Analyzers = nil
	out.products = nil
	out.tickLogger = nil
	return &out
}
