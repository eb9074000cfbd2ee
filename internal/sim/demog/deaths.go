package demog

import (
	"agentsim.dev/internal/sim/agents"
	"agentsim.dev/internal/sim/dist"
	"agentsim.dev/internal/sim/kernel"
)

// DeathsPars configure background mortality.
type DeathsPars struct {
	DeathRate float64 // probability of death per agent per model time unit
}

func DefaultDeathsPars() DeathsPars {
	return DeathsPars{DeathRate: 0.01}
}

// Deaths applies cause-independent background mortality. Deaths are only
// requested here; the store resolves and removes them later in the tick, so
// a disease can attribute the same agent's death to itself in the same tick.
type Deaths struct {
	kernel.Base
	pars DeathsPars

	pDeath *dist.Bernoulli

	newDeaths *kernel.Result
}

func NewDeaths(pars DeathsPars) *Deaths {
	return &Deaths{
		Base:   kernel.Base{ModName: "deaths"},
		pars:   pars,
		pDeath: dist.NewBernoulli("deaths_p", pars.DeathRate),
	}
}

func (d *Deaths) Init(s *kernel.Sim) error {
	s.Dists.Register(d.pDeath.Stream)
	var err error
	if d.newDeaths, err = s.Results.Add("deaths.new_bg_deaths", s.Pars.NPts, true); err != nil {
		return err
	}
	return nil
}

func (d *Deaths) Step(s *kernel.Sim) error {
	alive := s.People.Alive.UIDs()
	if len(alive) == 0 {
		return nil
	}
	p := d.pars.DeathRate * s.Pars.DT
	ps := make([]float64, len(alive))
	for i := range ps {
		ps[i] = p
	}
	mask := d.pDeath.DrawP(alive, ps)
	var marked agents.UIDs
	for i, hit := range mask {
		if hit {
			marked = append(marked, alive[i])
		}
	}
	if len(marked) > 0 {
		s.People.RequestDeath(marked, s.TI)
	}
	d.newDeaths.Values[s.TI] = float64(len(marked))
	return nil
}
