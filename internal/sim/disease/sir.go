package disease

import (
	"agentsim.dev/internal/sim/agents"
	"agentsim.dev/internal/sim/dist"
	"agentsim.dev/internal/sim/kernel"
)

// SIRPars configure the SIR reference disease.
type SIRPars struct {
	Beta       float64 // per-contact transmission probability
	InitPrev   float64 // initial prevalence
	DurInfMean float64 // mean infectious duration (model time units)
	DurInfStd  float64
	PDeath     float64 // probability an infection is fatal
}

// DefaultSIRPars mirrors the reference model's defaults.
func DefaultSIRPars() SIRPars {
	return SIRPars{Beta: 0.5, InitPrev: 0.01, DurInfMean: 6, DurInfStd: 3, PDeath: 0.01}
}

// SIR is a susceptible-infected-recovered disease with fatal outcomes.
// Deaths go through the store's request/resolve protocol so other modules
// can attribute their own outcomes in the same tick.
type SIR struct {
	infection

	Recovered   *agents.BoolArr
	TiRecovered *agents.FloatArr
	TiDead      *agents.FloatArr

	durInf *dist.LogNormal
	pDeath *dist.Bernoulli

	nRecovered *kernel.Result
	newDeaths  *kernel.Result
	cumDeaths  *kernel.Result
}

func NewSIR(pars SIRPars) *SIR {
	return &SIR{
		infection:   newInfection("sir", pars.Beta, pars.InitPrev),
		Recovered:   agents.NewBoolArr("recovered", nil),
		TiRecovered: agents.NewFloatArr("ti_recovered", nil),
		TiDead:      agents.NewFloatArr("ti_dead", nil),
		durInf:      dist.NewLogNormal("sir_dur_inf", pars.DurInfMean, pars.DurInfStd),
		pDeath:      dist.NewBernoulli("sir_p_death", pars.PDeath),
	}
}

func (d *SIR) Init(s *kernel.Sim) error {
	s.Dists.Register(d.durInf.Stream, d.pDeath.Stream)
	extra := []agents.State{d.Recovered, d.TiRecovered, d.TiDead}
	if err := d.initCommon(s, extra); err != nil {
		return err
	}
	var err error
	npts := s.Pars.NPts
	if d.nRecovered, err = s.Results.Add("sir.n_recovered", npts, true); err != nil {
		return err
	}
	if d.newDeaths, err = s.Results.Add("sir.new_deaths", npts, true); err != nil {
		return err
	}
	if d.cumDeaths, err = s.Results.Add("sir.cum_deaths", npts, true); err != nil {
		return err
	}
	return nil
}

// InitVals seeds the initial infections once all states are populated.
func (d *SIR) InitVals(s *kernel.Sim) error {
	seed := d.initPrev.Filter(s.People.AUIDs())
	d.setPrognoses(s, seed)
	return nil
}

// Step progresses infectious agents whose recovery or death time has
// arrived. Deaths are only requested here; the store resolves them later
// in the tick.
func (d *SIR) Step(s *kernel.Sim) error {
	ti := float64(s.TI)

	recovered := d.Infected.And(d.TiRecovered.Le(ti)).UIDs()
	d.Infected.Set(recovered, false)
	d.Recovered.Set(recovered, true)

	deaths := d.TiDead.Le(ti).UIDs()
	if len(deaths) > 0 {
		s.People.RequestDeath(deaths, s.TI)
	}
	return nil
}

func (d *SIR) Transmit(s *kernel.Sim) error {
	cases := d.newCases(s)
	if len(cases) > 0 {
		d.setPrognoses(s, cases)
		d.recordInfections(s, len(cases))
	}
	return nil
}

// setPrognoses infects the given agents and samples their outcome: the
// infectious duration, and whether the infection resolves or kills.
func (d *SIR) setPrognoses(s *kernel.Sim, uids agents.UIDs) {
	if len(uids) == 0 {
		return
	}
	ti := float64(s.TI)
	dt := s.Pars.DT

	d.Susceptible.Set(uids, false)
	d.Infected.Set(uids, true)
	d.TiInfected.Set(uids, ti)

	dur := d.durInf.Draw(uids)
	dies := d.pDeath.Draw(uids)
	for i, u := range uids {
		end := ti + dur[i]/dt
		if dies[i] {
			d.TiDead.SetAt(u, end)
		} else {
			d.TiRecovered.SetAt(u, end)
		}
	}
}

// Die records deaths attributable to this disease and clears disease flags
// for every agent that died this tick, regardless of cause.
func (d *SIR) Die(s *kernel.Sim, uids agents.UIDs) error {
	if len(uids) == 0 {
		return nil
	}
	ti := s.TI
	own := 0
	for _, u := range uids {
		if d.TiDead.At(u) <= float64(ti) {
			own++
		}
	}
	d.newDeaths.Values[ti] += float64(own)

	d.Susceptible.Set(uids, false)
	d.Infected.Set(uids, false)
	d.Recovered.Set(uids, false)
	return nil
}

func (d *SIR) UpdateResults(s *kernel.Sim) error {
	d.updateCommonResults(s)
	ti := s.TI
	d.nRecovered.Values[ti] = float64(d.Recovered.Count())
	prev := 0.0
	if ti > 0 {
		prev = d.cumDeaths.Values[ti-1]
	}
	d.cumDeaths.Values[ti] = prev + d.newDeaths.Values[ti]
	return nil
}
