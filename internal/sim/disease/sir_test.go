package disease

import (
	"testing"

	"agentsim.dev/internal/sim/demog"
	"agentsim.dev/internal/sim/kernel"
	"agentsim.dev/internal/sim/network"
)

func newSIRSim(t *testing.T, seed int64, pars SIRPars, npts int) *kernel.Sim {
	t.Helper()
	s := kernel.New(kernel.Config{
		Pars:     kernel.Pars{NAgents: 200, NPts: npts, Seed: seed},
		Networks: []kernel.Network{network.NewRandomNet(3)},
		Diseases: []kernel.Disease{NewSIR(pars)},
	})
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	return s
}

func TestSIR_SeedsInitialInfections(t *testing.T) {
	pars := DefaultSIRPars()
	pars.InitPrev = 0.1
	s := newSIRSim(t, 1, pars, 1)

	d := s.Diseases[0].(*SIR)
	if d.Infected.Count() == 0 {
		t.Fatalf("init_prev=0.1 should seed infections")
	}
	if d.Susceptible.Count()+d.Infected.Count() != s.People.Len() {
		t.Fatalf("every agent starts susceptible or infected")
	}
	for _, u := range d.Infected.UIDs() {
		if d.TiInfected.At(u) != 0 {
			t.Fatalf("seeded infection should record ti_infected=0")
		}
	}
}

func TestSIR_EpidemicSpreadsAndConserves(t *testing.T) {
	pars := SIRPars{Beta: 0.3, InitPrev: 0.05, DurInfMean: 6, DurInfStd: 3, PDeath: 0.2}
	s := newSIRSim(t, 7, pars, 25)
	if err := s.RunUntil(25); err != nil {
		t.Fatalf("run: %v", err)
	}

	nAlive := s.Results.Get("n_alive").Values
	nSus := s.Results.Get("sir.n_susceptible").Values
	nInf := s.Results.Get("sir.n_infected").Values
	nRec := s.Results.Get("sir.n_recovered").Values
	cumInf := s.Results.Get("sir.cum_infections").Values
	cumDeaths := s.Results.Get("sir.cum_deaths").Values

	// Alive agents are partitioned into S, I, R every tick.
	for ti := range nAlive {
		if nSus[ti]+nInf[ti]+nRec[ti] != nAlive[ti] {
			t.Fatalf("tick %d: S+I+R=%v != n_alive=%v",
				ti, nSus[ti]+nInf[ti]+nRec[ti], nAlive[ti])
		}
	}

	// The epidemic spread beyond the seeds.
	if cumInf[len(cumInf)-1] <= 0 {
		t.Fatalf("no transmission occurred")
	}
	// Cumulative series are monotone.
	for ti := 1; ti < len(cumInf); ti++ {
		if cumInf[ti] < cumInf[ti-1] || cumDeaths[ti] < cumDeaths[ti-1] {
			t.Fatalf("cumulative series decreased at tick %d", ti)
		}
	}
	// With p_death=0.2 over 25 ticks some infections are fatal.
	if cumDeaths[len(cumDeaths)-1] == 0 {
		t.Fatalf("expected fatal outcomes")
	}
	// Disease deaths are mirrored in the store's death accounting.
	coreCum := s.Results.Get("cum_deaths").Values
	if coreCum[len(coreCum)-1] != cumDeaths[len(cumDeaths)-1] {
		t.Fatalf("store deaths %v != sir deaths %v",
			coreCum[len(coreCum)-1], cumDeaths[len(cumDeaths)-1])
	}
}

func TestSIR_Deterministic(t *testing.T) {
	pars := DefaultSIRPars()
	a := newSIRSim(t, 11, pars, 10)
	b := newSIRSim(t, 11, pars, 10)
	if err := a.RunUntil(10); err != nil {
		t.Fatalf("run a: %v", err)
	}
	if err := b.RunUntil(10); err != nil {
		t.Fatalf("run b: %v", err)
	}
	if a.Digest() != b.Digest() {
		t.Fatalf("same seed diverged")
	}

	c := newSIRSim(t, 12, pars, 10)
	if err := c.RunUntil(10); err != nil {
		t.Fatalf("run c: %v", err)
	}
	if a.Digest() == c.Digest() {
		t.Fatalf("different seeds should diverge")
	}
}

func TestDeath_SharedAgentAttributedPerCause(t *testing.T) {
	// Background mortality marks every agent on tick 0, and one of them also
	// has a fatal infection arriving the same tick. Each module counts its
	// own cause, and the store resolves and removes each agent exactly once.
	pars := SIRPars{Beta: 0, InitPrev: 1, DurInfMean: 10, DurInfStd: 2, PDeath: 0}
	s := kernel.New(kernel.Config{
		Pars:         kernel.Pars{NAgents: 20, NPts: 1, Seed: 1},
		Demographics: []kernel.Demographic{demog.NewDeaths(demog.DeathsPars{DeathRate: 1})},
		Diseases:     []kernel.Disease{NewSIR(pars)},
	})
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	d := s.Diseases[0].(*SIR)
	d.TiDead.SetAt(0, 0)

	if err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	if got := s.Results.Get("deaths.new_bg_deaths").Values[0]; got != 20 {
		t.Fatalf("new_bg_deaths[0]=%v, want 20", got)
	}
	if got := s.Results.Get("sir.new_deaths").Values[0]; got != 1 {
		t.Fatalf("sir.new_deaths[0]=%v, want 1", got)
	}
	// The store counts each dead agent once, whatever the cause mix.
	if got := s.Results.Get("new_deaths").Values[0]; got != 20 {
		t.Fatalf("new_deaths[0]=%v, want 20", got)
	}
	if s.People.Len() != 0 || s.People.NIssued() != 20 {
		t.Fatalf("Len=%d NIssued=%d after removal, want 0/20",
			s.People.Len(), s.People.NIssued())
	}
}

func TestSIR_ZeroBetaNeverTransmits(t *testing.T) {
	pars := SIRPars{Beta: 0, InitPrev: 0.1, DurInfMean: 3, DurInfStd: 1, PDeath: 0}
	s := newSIRSim(t, 3, pars, 15)
	if err := s.RunUntil(15); err != nil {
		t.Fatalf("run: %v", err)
	}
	for ti, v := range s.Results.Get("sir.new_infections").Values {
		if v != 0 {
			t.Fatalf("tick %d: beta=0 transmitted %v infections", ti, v)
		}
	}
	// All seeds eventually recover.
	nInf := s.Results.Get("sir.n_infected").Values
	if nInf[len(nInf)-1] != 0 {
		t.Fatalf("infections did not resolve: %v", nInf[len(nInf)-1])
	}
}
