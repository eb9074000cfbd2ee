package scenario

import (
	"fmt"

	"agentsim.dev/internal/sim/analyzer"
	"agentsim.dev/internal/sim/demog"
	"agentsim.dev/internal/sim/disease"
	"agentsim.dev/internal/sim/intervention"
	"agentsim.dev/internal/sim/kernel"
	"agentsim.dev/internal/sim/network"
)

// Build assembles an uninitialized simulation from a validated config.
func Build(cfg Config) (*kernel.Sim, error) {
	kc := kernel.Config{
		Pars: kernel.Pars{
			Label:    cfg.Label,
			NAgents:  cfg.NAgents,
			NPts:     cfg.NSteps,
			DT:       cfg.DT,
			Seed:     cfg.Seed,
			PopScale: cfg.PopScale,
		},
	}

	if cfg.Births.Enabled {
		kc.Demographics = append(kc.Demographics, demog.NewBirths(demog.BirthsPars{BirthRate: cfg.Births.BirthRate}))
	}
	if cfg.BgDeaths.Enabled {
		kc.Demographics = append(kc.Demographics, demog.NewDeaths(demog.DeathsPars{DeathRate: cfg.BgDeaths.DeathRate}))
	}

	for _, n := range cfg.Networks {
		switch n.Type {
		case "random":
			rn := network.NewRandomNet(n.NContacts)
			rn.EdgeBeta = n.EdgeBeta
			kc.Networks = append(kc.Networks, rn)
		default:
			return nil, fmt.Errorf("scenario: unknown network type %q", n.Type)
		}
	}

	for _, d := range cfg.Diseases {
		switch d.Type {
		case "sir":
			kc.Diseases = append(kc.Diseases, disease.NewSIR(disease.SIRPars{
				Beta:       d.Beta,
				InitPrev:   d.InitPrev,
				DurInfMean: d.DurInfMean,
				DurInfStd:  d.DurInfStd,
				PDeath:     d.PDeath,
			}))
		case "sis":
			kc.Diseases = append(kc.Diseases, disease.NewSIS(disease.SISPars{
				Beta:       d.Beta,
				InitPrev:   d.InitPrev,
				DurInfMean: d.DurInfMean,
				DurInfStd:  d.DurInfStd,
				Waning:     d.Waning,
				ImmBoost:   d.ImmBoost,
			}))
		default:
			return nil, fmt.Errorf("scenario: unknown disease type %q", d.Type)
		}
	}

	for _, iv := range cfg.Interventions {
		switch iv.Type {
		case "vaccine":
			kc.Interventions = append(kc.Interventions, intervention.NewVaccine(intervention.VaccinePars{
				Disease:  iv.Disease,
				StartTI:  iv.StartTI,
				Prob:     iv.Prob,
				Efficacy: iv.Efficacy,
			}))
		default:
			return nil, fmt.Errorf("scenario: unknown intervention type %q", iv.Type)
		}
	}

	for _, a := range cfg.Analyzers {
		switch a.Type {
		case "prevalence":
			kc.Analyzers = append(kc.Analyzers, analyzer.NewPrevalence(a.Disease))
		default:
			return nil, fmt.Errorf("scenario: unknown analyzer type %q", a.Type)
		}
	}

	return kernel.New(kc), nil
}
