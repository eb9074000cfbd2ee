// Package intervention provides modules that alter agent state mid-run,
// such as vaccination campaigns.
package intervention

import (
	"fmt"

	"agentsim.dev/internal/sim/agents"
	"agentsim.dev/internal/sim/dist"
	"agentsim.dev/internal/sim/kernel"
)

// VaccinePars configure a vaccination campaign.
type VaccinePars struct {
	Disease  string  // target disease module name, e.g. "sir"
	StartTI  int     // first tick the campaign is active
	Prob     float64 // per-tick vaccination probability for unvaccinated agents
	Efficacy float64 // fractional reduction of relative susceptibility
}

func DefaultVaccinePars() VaccinePars {
	return VaccinePars{Disease: "sir", StartTI: 0, Prob: 0.1, Efficacy: 0.9}
}

// VaxProduct applies a susceptibility reduction against one disease. It is
// owned by the Vaccine intervention and bound by the kernel so it can also
// be shared between campaigns.
type VaxProduct struct {
	Disease  string
	Efficacy float64

	relSus *agents.FloatArr
}

func NewVaxProduct(disease string, efficacy float64) *VaxProduct {
	return &VaxProduct{Disease: disease, Efficacy: efficacy}
}

// Init resolves the target disease's susceptibility array by its namespaced
// name. The disease module must already be bound.
func (v *VaxProduct) Init(s *kernel.Sim) error {
	st, ok := s.People.States[v.Disease+".rel_sus"]
	if !ok {
		return fmt.Errorf("vaccine: disease %q has no rel_sus state", v.Disease)
	}
	relSus, ok := st.(*agents.FloatArr)
	if !ok {
		return fmt.Errorf("vaccine: %s.rel_sus is not a float state", v.Disease)
	}
	v.relSus = relSus
	return nil
}

// Administer scales down the recipients' relative susceptibility.
func (v *VaxProduct) Administer(p *agents.People, uids agents.UIDs) error {
	factor := 1 - v.Efficacy
	if factor < 0 {
		factor = 0
	}
	for _, u := range uids {
		v.relSus.SetAt(u, v.relSus.At(u)*factor)
	}
	return nil
}

// Vaccine runs a rolling campaign: from StartTI on, each unvaccinated alive
// agent is vaccinated with probability Prob per tick.
type Vaccine struct {
	kernel.Base
	pars VaccinePars

	Vaccinated   *agents.BoolArr
	TiVaccinated *agents.FloatArr

	product *VaxProduct
	uptake  *dist.Bernoulli

	nVaccinated *kernel.Result
	newDoses    *kernel.Result
}

func NewVaccine(pars VaccinePars) *Vaccine {
	return &Vaccine{
		Base:         kernel.Base{ModName: "vaccine", Reqs: []string{pars.Disease}},
		pars:         pars,
		Vaccinated:   agents.NewBoolArr("vaccinated", nil),
		TiVaccinated: agents.NewFloatArr("ti_vaccinated", nil),
		product:      NewVaxProduct(pars.Disease, pars.Efficacy),
		uptake:       dist.NewBernoulli("vaccine_uptake", pars.Prob),
	}
}

// Product exposes the owned product for kernel binding.
func (v *Vaccine) Product() kernel.Product { return v.product }

func (v *Vaccine) Init(s *kernel.Sim) error {
	s.Dists.Register(v.uptake.Stream)
	states := []agents.State{v.Vaccinated, v.TiVaccinated}
	if err := s.People.AddModule(v.ModName, states, false); err != nil {
		return err
	}
	var err error
	npts := s.Pars.NPts
	if v.nVaccinated, err = s.Results.Add("vaccine.n_vaccinated", npts, true); err != nil {
		return err
	}
	if v.newDoses, err = s.Results.Add("vaccine.new_doses", npts, true); err != nil {
		return err
	}
	return nil
}

func (v *Vaccine) Apply(s *kernel.Sim) error {
	ti := s.TI
	if ti >= v.pars.StartTI {
		eligible := s.People.Alive.And(v.Vaccinated.Not()).UIDs()
		doses := v.uptake.Filter(eligible)
		if len(doses) > 0 {
			if err := v.product.Administer(s.People, doses); err != nil {
				return err
			}
			v.Vaccinated.Set(doses, true)
			v.TiVaccinated.Set(doses, float64(ti))
		}
		v.newDoses.Values[ti] = float64(len(doses))
	}
	v.nVaccinated.Values[ti] = float64(v.Vaccinated.Count())
	return nil
}
