// Package analyzer provides read-only modules that observe the simulation
// after each tick is fully resolved.
package analyzer

import (
	"fmt"

	"agentsim.dev/internal/sim/agents"
	"agentsim.dev/internal/sim/kernel"
)

// Prevalence records the fraction of alive agents infected with the target
// disease each tick, and the mean age at death of agents that died. It runs
// after death resolution but before removal, so agents that died this tick
// are still observable.
type Prevalence struct {
	kernel.Base
	disease string

	infected *agents.BoolArr

	prevalence *kernel.Result
	deathAge   *kernel.Result
}

func NewPrevalence(disease string) *Prevalence {
	return &Prevalence{
		Base:    kernel.Base{ModName: "prevalence", Reqs: []string{disease}},
		disease: disease,
	}
}

func (a *Prevalence) Init(s *kernel.Sim) error {
	st, ok := s.People.States[a.disease+".infected"]
	if !ok {
		return fmt.Errorf("prevalence: disease %q has no infected state", a.disease)
	}
	infected, ok := st.(*agents.BoolArr)
	if !ok {
		return fmt.Errorf("prevalence: %s.infected is not a boolean state", a.disease)
	}
	a.infected = infected

	var err error
	npts := s.Pars.NPts
	if a.prevalence, err = s.Results.Add("prevalence."+a.disease, npts, false); err != nil {
		return err
	}
	if a.deathAge, err = s.Results.Add("prevalence.mean_age_at_death", npts, false); err != nil {
		return err
	}
	return nil
}

func (a *Prevalence) Apply(s *kernel.Sim) error {
	ti := s.TI

	nAlive := s.People.Alive.Count()
	if nAlive > 0 {
		a.prevalence.Values[ti] = float64(a.infected.Count()) / float64(nAlive)
	}

	// Dead agents are still in the active list at this phase.
	died := s.People.TiDead.Eq(float64(ti)).UIDs()
	if len(died) > 0 {
		var sum float64
		for _, age := range s.People.Age.Get(died) {
			sum += age
		}
		a.deathAge.Values[ti] = sum / float64(len(died))
	}
	return nil
}
