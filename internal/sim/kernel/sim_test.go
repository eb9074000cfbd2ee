package kernel

import (
	"errors"
	"testing"

	"agentsim.dev/internal/sim/agents"
)

// phaseRecorder implements every category and appends one tag per phase
// call, so tests can assert the per-tick phase sequence.
type phaseRecorder struct {
	Base
	log *[]string
}

func (m *phaseRecorder) rec(tag string) { *m.log = append(*m.log, m.ModName+"."+tag) }

func (m *phaseRecorder) Init(s *Sim) error { m.rec("init"); return nil }

type recDemographic struct{ phaseRecorder }

func (m *recDemographic) Step(s *Sim) error { m.rec("step"); return nil }

type recNetwork struct{ phaseRecorder }

func (m *recNetwork) Step(s *Sim) error           { m.rec("step"); return nil }
func (m *recNetwork) RemoveUIDs(uids agents.UIDs) { m.rec("remove") }

type recDisease struct{ phaseRecorder }

func (m *recDisease) Step(s *Sim) error                  { m.rec("step"); return nil }
func (m *recDisease) Transmit(s *Sim) error              { m.rec("transmit"); return nil }
func (m *recDisease) Die(s *Sim, uids agents.UIDs) error { m.rec("die"); return nil }
func (m *recDisease) UpdateResults(s *Sim) error         { m.rec("results"); return nil }

type recIntervention struct{ phaseRecorder }

func (m *recIntervention) Apply(s *Sim) error { m.rec("apply"); return nil }

type recAnalyzer struct{ phaseRecorder }

func (m *recAnalyzer) Apply(s *Sim) error { m.rec("apply"); return nil }

func TestStep_PhaseOrdering(t *testing.T) {
	var log []string
	mk := func(name string) phaseRecorder {
		return phaseRecorder{Base: Base{ModName: name}, log: &log}
	}

	s := New(Config{
		Pars:          Pars{NAgents: 10, NPts: 1, Seed: 1},
		Demographics:  []Demographic{&recDemographic{mk("demog")}},
		Networks:      []Network{&recNetwork{mk("net")}},
		Diseases:      []Disease{&recDisease{mk("dis")}},
		Interventions: []Intervention{&recIntervention{mk("intv")}},
		Analyzers:     []Analyzer{&recAnalyzer{mk("an")}},
	})
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	log = log[:0]
	if err := s.Step(); err != nil {
		t.Fatalf("step: %v", err)
	}

	want := []string{
		"demog.step",
		"dis.step",
		"net.step",
		"intv.apply",
		"dis.transmit",
		"dis.die",
		"dis.results",
		"an.apply",
	}
	if len(log) != len(want) {
		t.Fatalf("phase log = %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("phase %d = %q, want %q (full: %v)", i, log[i], want[i], log)
		}
	}
}

func TestInit_MissingRequirement(t *testing.T) {
	var log []string
	dis := &recDisease{phaseRecorder{Base: Base{ModName: "sir", Reqs: []string{"ghost"}}, log: &log}}
	s := New(Config{
		Pars:     Pars{NAgents: 5, NPts: 1},
		Diseases: []Disease{dis},
	})
	err := s.Init()
	var missing *MissingModuleError
	if !errors.As(err, &missing) {
		t.Fatalf("Init error = %v, want MissingModuleError", err)
	}
	if missing.Module != "sir" || missing.Requires != "ghost" {
		t.Fatalf("MissingModuleError = %+v", missing)
	}
}

func TestInit_SatisfiedRequirement(t *testing.T) {
	var log []string
	net := &recNetwork{phaseRecorder{Base: Base{ModName: "randomnet"}, log: &log}}
	dis := &recDisease{phaseRecorder{Base: Base{ModName: "sir", Reqs: []string{"randomnet"}}, log: &log}}
	s := New(Config{
		Pars:     Pars{NAgents: 5, NPts: 1},
		Networks: []Network{net},
		Diseases: []Disease{dis},
	})
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
}

func TestZeroLengthRun(t *testing.T) {
	s := New(Config{Pars: Pars{NAgents: 5, NPts: 0}})
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !s.Complete() {
		t.Fatalf("a zero-horizon sim is complete at init")
	}

	var already *AlreadyRunError
	if err := s.Step(); !errors.As(err, &already) {
		t.Fatalf("Step on a complete sim = %v, want AlreadyRunError", err)
	}

	// Run on a zero-horizon sim still finalizes.
	s2 := New(Config{Pars: Pars{NAgents: 5, NPts: 0}})
	if err := s2.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !s2.ResultsReady() {
		t.Fatalf("zero-horizon run should produce a (trivial) summary")
	}
}

func TestRunUntil_ReentrancyErrors(t *testing.T) {
	s := New(Config{Pars: Pars{NAgents: 5, NPts: 3}})
	if err := s.RunUntil(2); err != nil {
		t.Fatalf("RunUntil(2): %v", err)
	}
	if s.TI != 2 {
		t.Fatalf("TI = %d, want 2", s.TI)
	}

	var already *AlreadyRunError
	if err := s.RunUntil(2); !errors.As(err, &already) {
		t.Fatalf("RunUntil to a reached tick = %v, want AlreadyRunError", err)
	}
	if err := s.RunUntil(1); !errors.As(err, &already) {
		t.Fatalf("RunUntil backwards = %v, want AlreadyRunError", err)
	}
	if err := s.RunUntil(9); !errors.As(err, &already) {
		t.Fatalf("RunUntil past horizon = %v, want AlreadyRunError", err)
	}

	if err := s.RunUntil(3); err != nil {
		t.Fatalf("RunUntil(3): %v", err)
	}
	if err := s.RunUntil(3); !errors.As(err, &already) {
		t.Fatalf("RunUntil on complete sim = %v, want AlreadyRunError", err)
	}
}

func TestInit_RunsOnce(t *testing.T) {
	s := New(Config{Pars: Pars{NAgents: 2, NPts: 1}})
	if err := s.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	var already *AlreadyRunError
	if err := s.Init(); !errors.As(err, &already) {
		t.Fatalf("second Init = %v, want AlreadyRunError", err)
	}
}

func TestFinalize_RunsOnce(t *testing.T) {
	s := New(Config{Pars: Pars{NAgents: 5, NPts: 2, PopScale: 10}})
	if err := s.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	// Scale-flagged core results were rescaled exactly once.
	if got := s.Results.Get("n_alive").Values[0]; got != 50 {
		t.Fatalf("n_alive[0] = %v, want 50 after pop-scale", got)
	}
	var already *AlreadyRunError
	if err := s.Finalize(); !errors.As(err, &already) {
		t.Fatalf("second Finalize = %v, want AlreadyRunError", err)
	}
}

func TestRun_Deterministic(t *testing.T) {
	run := func(seed int64) string {
		s := New(Config{Pars: Pars{NAgents: 50, NPts: 5, Seed: seed}})
		if err := s.Init(); err != nil {
			t.Fatalf("init: %v", err)
		}
		if err := s.RunUntil(5); err != nil {
			t.Fatalf("run: %v", err)
		}
		return s.Digest()
	}
	if run(42) != run(42) {
		t.Fatalf("same seed must reproduce the same state digest")
	}
	if run(42) == run(43) {
		t.Fatalf("different seeds should diverge")
	}
}

type capturingLogger struct{ entries []TickLogEntry }

func (l *capturingLogger) WriteTick(e TickLogEntry) error {
	l.entries = append(l.entries, e)
	return nil
}

func TestTickLogger_ReceivesEveryTick(t *testing.T) {
	s := New(Config{Pars: Pars{NAgents: 8, NPts: 3, Seed: 2}})
	sink := &capturingLogger{}
	s.SetTickLogger(sink)
	if err := s.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.entries) != 3 {
		t.Fatalf("logger got %d entries, want 3", len(sink.entries))
	}
	for i, e := range sink.entries {
		if e.Tick != i {
			t.Fatalf("entry %d has tick %d", i, e.Tick)
		}
		if e.Digest == "" {
			t.Fatalf("entry %d missing digest", i)
		}
		if e.NAlive != 8 {
			t.Fatalf("entry %d n_alive = %d, want 8 (no mortality configured)", i, e.NAlive)
		}
	}
}

func TestShrink_StripsHeavyState(t *testing.T) {
	s := New(Config{Pars: Pars{NAgents: 5, NPts: 1}})
	if err := s.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	sh := s.Shrink()
	if sh.People != nil || sh.Dists != nil {
		t.Fatalf("Shrink must drop the agent store and streams")
	}
	if sh.Results == nil || sh.Summary == nil {
		t.Fatalf("Shrink must keep results and summary")
	}
	if s.People == nil {
		t.Fatalf("Shrink must not mutate the original")
	}
}
