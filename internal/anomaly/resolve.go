package anomaly

import (
	"time"

	"cosmos-backend/internal/errors"
	"cosmos-backend/internal/mathx"
	"cosmos-backend/internal/universe"
)

// ResolutionResult summarizes the effect of resolving one anomaly.
type ResolutionResult struct {
	AnomalyID      string
	StabilityBoost float64
	EntropyReduced float64
	EnergyGranted  float64
}

// Resolve marks the anomaly identified by id as resolved and applies its
// restorative effects: §4.3.5. Returns NotFoundError if id matches no anomaly
// and a BusinessRuleError if the anomaly is already resolved.
func Resolve(u *universe.Universe, id string, now time.Time) (ResolutionResult, error) {
	idx := u.FindAnomaly(id)
	if idx < 0 {
		return ResolutionResult{}, errors.ErrAnomalyNotFound
	}
	a := &u.Anomalies[idx]
	if a.Resolved {
		return ResolutionResult{}, errors.ErrAnomalyAlreadyDone
	}

	stabilityBoost := 0.015 * a.Severity
	entropyReduction := 3e6 * a.Severity
	energyGranted := 0.002 * a.Severity

	s := &u.CurrentState
	s.StabilityIndex = mathx.Clamp(s.StabilityIndex+stabilityBoost, 0, 1)
	s.Entropy = mathx.Clamp(s.Entropy-entropyReduction, 0, 1e16)
	s.EnergyBudget = mathx.Clamp(s.EnergyBudget+energyGranted, 0, 1)

	a.Resolved = true
	a.ResolvedAt = &now

	u.Metrics.PlayerInterventions++
	u.Metrics.AnomaliesResolved++
	recomputeResolutionRate(u)
	u.Touch()

	return ResolutionResult{
		AnomalyID:      id,
		StabilityBoost: stabilityBoost,
		EntropyReduced: entropyReduction,
		EnergyGranted:  energyGranted,
	}, nil
}

func recomputeResolutionRate(u *universe.Universe) {
	total := len(u.Anomalies)
	if total == 0 {
		u.Metrics.AnomalyResolutionRate = 0
		return
	}
	u.Metrics.AnomalyResolutionRate = float64(u.Metrics.AnomaliesResolved) / float64(total)
}

// Cleanup removes resolved anomalies older than keepRecent, returning the
// number removed and the number remaining.
func Cleanup(u *universe.Universe, now time.Time, keepRecent time.Duration) (removed, remaining int) {
	removed = u.EvictStaleResolvedAnomalies(now, keepRecent)
	remaining = len(u.Anomalies)
	if removed > 0 {
		u.Touch()
	}
	return removed, remaining
}
