// Package demog provides vital-dynamics modules: births and background
// mortality, independent of any disease.
package demog

import (
	"agentsim.dev/internal/sim/dist"
	"agentsim.dev/internal/sim/kernel"
)

// BirthsPars configure the birth process.
type BirthsPars struct {
	BirthRate float64 // expected births per agent per model time unit
}

func DefaultBirthsPars() BirthsPars {
	return BirthsPars{BirthRate: 0.02}
}

// Births adds new agents each tick. The expected count scales with the
// current alive population; the realized count is a Poisson draw so small
// populations still see integer births.
type Births struct {
	kernel.Base
	pars BirthsPars

	nBirths *dist.Poisson

	newBirths *kernel.Result
	cumBirths *kernel.Result
}

func NewBirths(pars BirthsPars) *Births {
	return &Births{
		Base:    kernel.Base{ModName: "births"},
		pars:    pars,
		nBirths: dist.NewPoisson("births_n", pars.BirthRate),
	}
}

func (b *Births) Init(s *kernel.Sim) error {
	s.Dists.Register(b.nBirths.Stream)
	var err error
	npts := s.Pars.NPts
	if b.newBirths, err = s.Results.Add("births.new_births", npts, true); err != nil {
		return err
	}
	if b.cumBirths, err = s.Results.Add("births.cum_births", npts, true); err != nil {
		return err
	}
	return nil
}

// Step issues the tick's newborns. New agents enter at age zero; every
// module state grows with them and holds its default value.
func (b *Births) Step(s *kernel.Sim) error {
	lam := b.pars.BirthRate * s.Pars.DT * float64(s.People.Len())
	n := b.nBirths.DrawOne(lam)
	if n > 0 {
		born, err := s.People.Grow(n, nil)
		if err != nil {
			return err
		}
		s.People.Age.Set(born, 0)
	}
	ti := s.TI
	b.newBirths.Values[ti] = float64(n)
	prev := 0.0
	if ti > 0 {
		prev = b.cumBirths.Values[ti-1]
	}
	b.cumBirths.Values[ti] = prev + float64(n)
	return nil
}
