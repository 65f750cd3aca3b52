package profile

import (
	"github.com/truffle-roll/truffle/internal/cashflow"
	"github.com/truffle-roll/truffle/internal/contracts"
)

// Profile describes a roll-over run. Omitted settings keep the value of
// the layer below (environment defaults).
type Profile struct {
	Name        string   `yaml:"name" json:"name"`
	Mode        string   `yaml:"mode" json:"mode"` // flow | base | sparse, empty keeps the default
	TickValue   *float64 `yaml:"tick_value,omitempty" json:"tick_value,omitempty"`
	Basis       *float64 `yaml:"basis,omitempty" json:"basis,omitempty"`
	Output      Output   `yaml:"output" json:"output"`
	Cut         Cut      `yaml:"cut" json:"cut"`
	ActiveYears int      `yaml:"active_years" json:"active_years"` // 0 keeps the default
}

// Output selects the printed columns of a roll-over. Leaving both unset
// keeps the columns of the layer below.
type Output struct {
	Cumulative  bool `yaml:"cumulative" json:"cumulative"`
	Incremental bool `yaml:"incremental" json:"incremental"`
}

// Cut controls cut printing
type Cut struct {
	Absolute bool    `yaml:"absolute" json:"absolute"`
	Numeric  bool    `yaml:"numeric" json:"numeric"`
	Lever    float64 `yaml:"lever" json:"lever"` // 0 means 1
	Round    bool    `yaml:"round" json:"round"`
}

// Apply overlays the settings present in the profile onto cfg
func (p *Profile) Apply(cfg cashflow.Config) (cashflow.Config, error) {
	if p.Mode != "" {
		mode, err := cashflow.ParseMode(p.Mode)
		if err != nil {
			return cfg, ValidationError{"mode", err.Error()}
		}
		cfg.Mode = mode
	}
	if p.TickValue != nil {
		cfg.TickValue = *p.TickValue
	}
	if p.Basis != nil {
		cfg.Basis = *p.Basis
	}
	if p.Output.Cumulative || p.Output.Incremental {
		cfg.Cumulative = p.Output.Cumulative
		cfg.Incremental = p.Output.Incremental
	}
	return cfg, nil
}

// PrintOptions converts the cut section into printing options
func (p *Profile) PrintOptions() contracts.PrintOptions {
	return contracts.PrintOptions{
		Absolute: p.Cut.Absolute,
		Numeric:  p.Cut.Numeric,
		Lever:    p.Cut.Lever,
		Round:    p.Cut.Round,
	}
}

// Years returns active_years, or def when the profile leaves it out
func (p *Profile) Years(def int) int {
	if p.ActiveYears == 0 {
		return def
	}
	return p.ActiveYears
}
