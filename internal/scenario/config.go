// Package scenario loads simulation scenarios from YAML and assembles runnable
// simulations from them.
package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Label    string  `yaml:"label"`
	NAgents  int     `yaml:"n_agents"`
	NSteps   int     `yaml:"n_steps"`
	DT       float64 `yaml:"dt"`
	Seed     int64   `yaml:"seed"`
	PopScale float64 `yaml:"pop_scale"`

	Births   BirthsSpec   `yaml:"births"`
	BgDeaths BgDeathsSpec `yaml:"bg_deaths"`

	Networks      []NetworkSpec      `yaml:"networks,omitempty"`
	Diseases      []DiseaseSpec      `yaml:"diseases,omitempty"`
	Interventions []InterventionSpec `yaml:"interventions,omitempty"`
	Analyzers     []AnalyzerSpec     `yaml:"analyzers,omitempty"`
}

type BirthsSpec struct {
	Enabled   bool    `yaml:"enabled"`
	BirthRate float64 `yaml:"birth_rate"`
}

type BgDeathsSpec struct {
	Enabled   bool    `yaml:"enabled"`
	DeathRate float64 `yaml:"death_rate"`
}

type NetworkSpec struct {
	Type      string  `yaml:"type"`
	NContacts int     `yaml:"n_contacts"`
	EdgeBeta  float64 `yaml:"edge_beta"`
}

type DiseaseSpec struct {
	Type       string  `yaml:"type"`
	Beta       float64 `yaml:"beta"`
	InitPrev   float64 `yaml:"init_prev"`
	DurInfMean float64 `yaml:"dur_inf_mean"`
	DurInfStd  float64 `yaml:"dur_inf_std"`
	PDeath     float64 `yaml:"p_death"`
	Waning     float64 `yaml:"waning"`
	ImmBoost   float64 `yaml:"imm_boost"`
}

type InterventionSpec struct {
	Type     string  `yaml:"type"`
	Disease  string  `yaml:"disease"`
	StartTI  int     `yaml:"start_ti"`
	Prob     float64 `yaml:"prob"`
	Efficacy float64 `yaml:"efficacy"`
}

type AnalyzerSpec struct {
	Type    string `yaml:"type"`
	Disease string `yaml:"disease"`
}

// Load reads a scenario file. An empty path yields the built-in baseline
// scenario. The document is checked against the embedded JSON schema before
// decoding, then normalized and validated.
func Load(path string) (Config, error) {
	cfg := defaults()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := validateSchema(b); err != nil {
		return cfg, fmt.Errorf("scenario.yaml: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("scenario.yaml: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("scenario.yaml: %w", err)
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Label:    "baseline",
		NAgents:  1000,
		NSteps:   50,
		DT:       1.0,
		Seed:     1,
		PopScale: 1.0,
		Births:   BirthsSpec{Enabled: true, BirthRate: 0.02},
		BgDeaths: BgDeathsSpec{Enabled: true, DeathRate: 0.01},
		Networks: []NetworkSpec{
			{Type: "random", NContacts: 4, EdgeBeta: 1.0},
		},
		Diseases: []DiseaseSpec{
			{Type: "sir", Beta: 0.1, InitPrev: 0.01, DurInfMean: 6, DurInfStd: 3, PDeath: 0.01},
		},
		Analyzers: []AnalyzerSpec{
			{Type: "prevalence", Disease: "sir"},
		},
	}
}

func (c *Config) Normalize() {
	if c == nil {
		return
	}
	if strings.TrimSpace(c.Label) == "" {
		c.Label = "sim"
	}
	if c.DT <= 0 {
		c.DT = 1.0
	}
	if c.PopScale <= 0 {
		c.PopScale = 1.0
	}
	for i := range c.Networks {
		if c.Networks[i].NContacts <= 0 {
			c.Networks[i].NContacts = 1
		}
		if c.Networks[i].EdgeBeta <= 0 {
			c.Networks[i].EdgeBeta = 1.0
		}
	}
	for i := range c.Diseases {
		d := &c.Diseases[i]
		if d.DurInfMean <= 0 {
			d.DurInfMean = 6
		}
		if d.DurInfStd <= 0 {
			d.DurInfStd = d.DurInfMean / 2
		}
	}
	for i := range c.Interventions {
		if c.Interventions[i].Efficacy <= 0 {
			c.Interventions[i].Efficacy = 0.9
		}
	}
}

func (c Config) Validate() error {
	if c.NAgents < 0 {
		return fmt.Errorf("n_agents must be >= 0")
	}
	if c.NSteps < 0 {
		return fmt.Errorf("n_steps must be >= 0")
	}
	if c.Births.Enabled && c.Births.BirthRate < 0 {
		return fmt.Errorf("births.birth_rate must be >= 0")
	}
	if c.BgDeaths.Enabled && (c.BgDeaths.DeathRate < 0 || c.BgDeaths.DeathRate > 1) {
		return fmt.Errorf("bg_deaths.death_rate must be in [0, 1]")
	}
	for i, n := range c.Networks {
		if n.Type != "random" {
			return fmt.Errorf("networks[%d]: unknown type %q", i, n.Type)
		}
	}
	diseases := map[string]bool{}
	for i, d := range c.Diseases {
		switch d.Type {
		case "sir", "sis":
		default:
			return fmt.Errorf("diseases[%d]: unknown type %q", i, d.Type)
		}
		if diseases[d.Type] {
			return fmt.Errorf("diseases[%d]: duplicate type %q", i, d.Type)
		}
		diseases[d.Type] = true
		if d.Beta < 0 || d.Beta > 1 {
			return fmt.Errorf("diseases[%d]: beta must be in [0, 1]", i)
		}
		if d.InitPrev < 0 || d.InitPrev > 1 {
			return fmt.Errorf("diseases[%d]: init_prev must be in [0, 1]", i)
		}
	}
	for i, iv := range c.Interventions {
		if iv.Type != "vaccine" {
			return fmt.Errorf("interventions[%d]: unknown type %q", i, iv.Type)
		}
		if !diseases[iv.Disease] {
			return fmt.Errorf("interventions[%d]: disease %q not found in diseases", i, iv.Disease)
		}
		if iv.Prob < 0 || iv.Prob > 1 {
			return fmt.Errorf("interventions[%d]: prob must be in [0, 1]", i)
		}
	}
	for i, a := range c.Analyzers {
		if a.Type != "prevalence" {
			return fmt.Errorf("analyzers[%d]: unknown type %q", i, a.Type)
		}
		if !diseases[a.Disease] {
			return fmt.Errorf("analyzers[%d]: disease %q not found in diseases", i, a.Disease)
		}
	}
	return nil
}
