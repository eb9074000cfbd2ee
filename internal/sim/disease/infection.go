// Package disease provides the reference SIR and SIS disease modules.
package disease

import (
	"agentsim.dev/internal/sim/agents"
	"agentsim.dev/internal/sim/dist"
	"agentsim.dev/internal/sim/kernel"
	"agentsim.dev/internal/sim/network"
)

// infection holds the states and plumbing shared by SIR and SIS:
// susceptibility/infection flags, relative susceptibility/transmissibility
// modifiers, the transmission stream, and the common result series.
type infection struct {
	kernel.Base
	Beta float64

	Susceptible *agents.BoolArr
	Infected    *agents.BoolArr
	TiInfected  *agents.FloatArr
	RelSus      *agents.FloatArr
	RelTrans    *agents.FloatArr

	initPrev *dist.Bernoulli
	trans    *dist.Bernoulli

	nSusceptible  *kernel.Result
	nInfected     *kernel.Result
	newInfections *kernel.Result
	cumInfections *kernel.Result
}

func newInfection(name string, beta, initPrev float64) infection {
	return infection{
		Base:        kernel.Base{ModName: name},
		Beta:        beta,
		Susceptible: agents.NewBoolArr("susceptible", agents.ConstBool(true)),
		Infected:    agents.NewBoolArr("infected", nil),
		TiInfected:  agents.NewFloatArr("ti_infected", nil),
		RelSus:      agents.NewFloatArr("rel_sus", agents.ConstFloat(1.0)),
		RelTrans:    agents.NewFloatArr("rel_trans", agents.ConstFloat(1.0)),
		initPrev:    dist.NewBernoulli(name+"_init_prev", initPrev),
		trans:       dist.NewBernoulli(name+"_trans", 0),
	}
}

func (inf *infection) states() []agents.State {
	return []agents.State{inf.Susceptible, inf.Infected, inf.TiInfected, inf.RelSus, inf.RelTrans}
}

// initCommon registers the shared states, streams, and results.
func (inf *infection) initCommon(s *kernel.Sim, extraStates []agents.State) error {
	s.Dists.Register(inf.initPrev.Stream, inf.trans.Stream)
	if err := s.People.AddModule(inf.ModName, append(inf.states(), extraStates...), false); err != nil {
		return err
	}
	var err error
	npts := s.Pars.NPts
	if inf.nSusceptible, err = s.Results.Add(inf.ModName+".n_susceptible", npts, true); err != nil {
		return err
	}
	if inf.nInfected, err = s.Results.Add(inf.ModName+".n_infected", npts, true); err != nil {
		return err
	}
	if inf.newInfections, err = s.Results.Add(inf.ModName+".new_infections", npts, true); err != nil {
		return err
	}
	if inf.cumInfections, err = s.Results.Add(inf.ModName+".cum_infections", npts, true); err != nil {
		return err
	}
	return nil
}

// newCases draws transmission over every edge-listing network. Contacts
// are evaluated in both directions; an edge transmits with probability
// beta * edge_beta * rel_trans[src] * rel_sus[dst].
func (inf *infection) newCases(s *kernel.Sim) agents.UIDs {
	var targets agents.UIDs
	var probs []float64
	for _, net := range s.Networks {
		el, ok := net.(network.EdgeLister)
		if !ok {
			continue
		}
		for _, e := range el.Edges() {
			for _, dir := range [2][2]agents.UID{{e.P1, e.P2}, {e.P2, e.P1}} {
				src, dst := dir[0], dir[1]
				if !inf.Infected.At(src) || !inf.Susceptible.At(dst) {
					continue
				}
				p := inf.Beta * e.Beta * inf.RelTrans.At(src) * inf.RelSus.At(dst)
				if p <= 0 {
					continue
				}
				targets = append(targets, dst)
				probs = append(probs, p)
			}
		}
	}
	if len(targets) == 0 {
		return nil
	}
	hits := inf.trans.DrawP(targets, probs)
	seen := make(map[agents.UID]struct{}, len(targets))
	out := make(agents.UIDs, 0, len(targets))
	for i, hit := range hits {
		if !hit {
			continue
		}
		u := targets[i]
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func (inf *infection) recordInfections(s *kernel.Sim, n int) {
	ti := s.TI
	inf.newInfections.Values[ti] += float64(n)
}

func (inf *infection) updateCommonResults(s *kernel.Sim) {
	ti := s.TI
	inf.nSusceptible.Values[ti] = float64(inf.Susceptible.Count())
	inf.nInfected.Values[ti] = float64(inf.Infected.Count())
	prev := 0.0
	if ti > 0 {
		prev = inf.cumInfections.Values[ti-1]
	}
	inf.cumInfections.Values[ti] = prev + inf.newInfections.Values[ti]
}
