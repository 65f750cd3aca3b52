package profile

import (
	"fmt"
	"math"

	"github.com/truffle-roll/truffle/internal/cashflow"
	"github.com/truffle-roll/truffle/internal/trod"
)

// ValidationError rejects a profile
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning flags a legal but doubtful setting
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(p *Profile) error {
	if p.Name == "" {
		return ValidationError{"name", "required"}
	}
	if _, err := cashflow.ParseMode(p.Mode); err != nil {
		return ValidationError{"mode", "must be flow, base or sparse"}
	}
	if p.TickValue != nil {
		if err := validateFinite(*p.TickValue, "tick_value"); err != nil {
			return err
		}
	}
	if p.Basis != nil {
		if err := validateFinite(*p.Basis, "basis"); err != nil {
			return err
		}
	}

	if err := validateFinite(p.Cut.Lever, "cut.lever"); err != nil {
		return err
	}
	if p.Cut.Lever < 0 {
		return ValidationError{"cut.lever", "must be >= 0"}
	}

	if p.ActiveYears < 0 || p.ActiveYears > trod.MaxYears {
		return ValidationError{"active_years", fmt.Sprintf("must be in range [0, %d]", trod.MaxYears)}
	}
	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(p *Profile) []Warning {
	var warnings []Warning

	mode, _ := cashflow.ParseMode(p.Mode)
	basis := 0.0
	if p.Basis != nil {
		basis = *p.Basis
	}
	if mode == cashflow.Base && basis == 0 {
		warnings = append(warnings, Warning{
			Code:    "ZERO_BASIS",
			Message: "base mode without basis values the full quote every tick",
		})
	}
	if mode != cashflow.Base && basis != 0 {
		warnings = append(warnings, Warning{
			Code:    "UNUSED_BASIS",
			Message: fmt.Sprintf("basis only offsets the cumulative column in %s mode", mode),
		})
	}
	if p.Cut.Round && (p.Cut.Lever == 0 || p.Cut.Lever == 1) {
		warnings = append(warnings, Warning{
			Code:    "ROUND_UNLEVERED",
			Message: "rounding unlevered weights turns curves into steps",
		})
	}

	return warnings
}

func validateFinite(v float64, field string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ValidationError{field, "must be a finite number"}
	}
	return nil
}
