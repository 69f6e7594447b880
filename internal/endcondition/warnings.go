package endcondition

import "cosmos-backend/internal/universe"

// Severity is the operator-facing urgency of a Warning.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Warning is a non-fatal signal that a universe is approaching an end
// condition, emitted at the thresholds in §7.
type Warning struct {
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	Recommendation string   `json:"recommendation"`
}

// Warnings evaluates every configurable threshold and returns the warnings
// currently in effect; unlike Check, this never mutates the universe.
func Warnings(u *universe.Universe, opts Options) []Warning {
	mod := opts.DifficultyModifier
	if mod <= 0 {
		mod = 1.0
	}
	s := &u.CurrentState
	warnings := make([]Warning, 0)

	instabilityThreshold := 0.05 / mod
	if s.StabilityIndex >= instabilityThreshold && s.StabilityIndex < instabilityThreshold*3 {
		warnings = append(warnings, Warning{
			Type:           "stability_approaching_critical",
			Severity:       SeverityHigh,
			Message:        "stability index is within 3x of the instability-collapse threshold",
			Recommendation: "resolve active anomalies to restore stability before it collapses",
		})
	}

	heatDeathThreshold := 200 / mod
	if s.AgeGyr() > heatDeathThreshold*0.8 {
		warnings = append(warnings, Warning{
			Type:           "approaching_heat_death",
			Severity:       SeverityMedium,
			Message:        "universe age has passed 80% of the heat-death age threshold",
			Recommendation: "expect heat-death termination as the energy budget continues to decay",
		})
	}

	if s.Entropy > 1.5e15 {
		warnings = append(warnings, Warning{
			Type:           "entropy_elevated",
			Severity:       SeverityMedium,
			Message:        "entropy has exceeded 1.5e15, approaching the maximum-entropy threshold",
			Recommendation: "resolving anomalies that reduce entropy will delay maximum-entropy termination",
		})
	}

	if s.EnergyBudget < 0.15 {
		warnings = append(warnings, Warning{
			Type:           "energy_budget_low",
			Severity:       SeverityHigh,
			Message:        "energy budget has fallen below 0.15",
			Recommendation: "resolve anomalies to replenish the energy budget",
		})
	}

	if s.ScaleFactor > 1e8 {
		warnings = append(warnings, Warning{
			Type:           "scale_factor_elevated",
			Severity:       SeverityCritical,
			Message:        "scale factor has exceeded 1e8, approaching the big-rip threshold",
			Recommendation: "expansion-boosting anomalies should be resolved immediately",
		})
	}

	return warnings
}
