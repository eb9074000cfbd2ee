package disease

import (
	"agentsim.dev/internal/sim/agents"
	"agentsim.dev/internal/sim/dist"
	"agentsim.dev/internal/sim/kernel"
)

// SISPars configure the SIS reference disease.
type SISPars struct {
	Beta       float64
	InitPrev   float64
	DurInfMean float64
	DurInfStd  float64
	Waning     float64 // immunity decay per model time unit
	ImmBoost   float64 // immunity gained per infection
}

func DefaultSISPars() SISPars {
	return SISPars{Beta: 0.05, InitPrev: 0.01, DurInfMean: 10, DurInfStd: 5, Waning: 0.05, ImmBoost: 1.0}
}

// SIS is a susceptible-infected-susceptible disease with waning immunity.
// There are no disease deaths; recovered agents return to susceptible with
// reduced susceptibility while immunity lasts.
type SIS struct {
	infection

	TiRecovered *agents.FloatArr
	Immunity    *agents.FloatArr

	pars   SISPars
	durInf *dist.LogNormal

	relSusRes *kernel.Result
}

func NewSIS(pars SISPars) *SIS {
	return &SIS{
		infection:   newInfection("sis", pars.Beta, pars.InitPrev),
		TiRecovered: agents.NewFloatArr("ti_recovered", nil),
		Immunity:    agents.NewFloatArr("immunity", agents.ConstFloat(0.0)),
		pars:        pars,
		durInf:      dist.NewLogNormal("sis_dur_inf", pars.DurInfMean, pars.DurInfStd),
	}
}

func (d *SIS) Init(s *kernel.Sim) error {
	s.Dists.Register(d.durInf.Stream)
	extra := []agents.State{d.TiRecovered, d.Immunity}
	if err := d.initCommon(s, extra); err != nil {
		return err
	}
	var err error
	if d.relSusRes, err = s.Results.Add("sis.rel_sus", s.Pars.NPts, false); err != nil {
		return err
	}
	return nil
}

func (d *SIS) InitVals(s *kernel.Sim) error {
	seed := d.initPrev.Filter(s.People.AUIDs())
	d.setPrognoses(s, seed)
	return nil
}

func (d *SIS) Step(s *kernel.Sim) error {
	ti := float64(s.TI)

	recovered := d.Infected.And(d.TiRecovered.Le(ti)).UIDs()
	d.Infected.Set(recovered, false)
	d.Susceptible.Set(recovered, true)

	d.updateImmunity(s)
	return nil
}

// updateImmunity decays immunity and keeps rel_sus in sync with it.
func (d *SIS) updateImmunity(s *kernel.Sim) {
	hasImm := d.Immunity.Gt(0).UIDs()
	decay := 1 - d.pars.Waning*s.Pars.DT
	if decay < 0 {
		decay = 0
	}
	for _, u := range hasImm {
		imm := d.Immunity.At(u) * decay
		d.Immunity.SetAt(u, imm)
		rs := 1 - imm
		if rs < 0 {
			rs = 0
		}
		d.RelSus.SetAt(u, rs)
	}
}

func (d *SIS) Transmit(s *kernel.Sim) error {
	cases := d.newCases(s)
	if len(cases) > 0 {
		d.setPrognoses(s, cases)
		d.recordInfections(s, len(cases))
	}
	return nil
}

func (d *SIS) setPrognoses(s *kernel.Sim, uids agents.UIDs) {
	if len(uids) == 0 {
		return
	}
	ti := float64(s.TI)
	dt := s.Pars.DT

	d.Susceptible.Set(uids, false)
	d.Infected.Set(uids, true)
	d.TiInfected.Set(uids, ti)
	d.Immunity.AddAt(uids, d.pars.ImmBoost)

	dur := d.durInf.Draw(uids)
	for i, u := range uids {
		d.TiRecovered.SetAt(u, ti+dur[i]/dt)
	}
}

// Die clears disease flags for agents killed by other modules this tick.
func (d *SIS) Die(s *kernel.Sim, uids agents.UIDs) error {
	d.Susceptible.Set(uids, false)
	d.Infected.Set(uids, false)
	return nil
}

func (d *SIS) UpdateResults(s *kernel.Sim) error {
	d.updateCommonResults(s)
	d.relSusRes.Values[s.TI] = d.RelSus.Mean()
	return nil
}
