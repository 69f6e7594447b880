// Package predictor produces a side-effect-free heuristic forecast of a
// universe's near-term trajectory: no module in this package ever mutates
// the universe it reads.
package predictor

import (
	"math"
	"sort"

	"cosmos-backend/internal/anomaly"
	"cosmos-backend/internal/universe"
)

// Options carries the difficulty-derived knobs the forecast scales by.
type Options struct {
	DifficultyModifier      float64
	AnomalyProbabilityScale float64
}

// StabilityForecast is the predicted near-term change in stabilityIndex.
type StabilityForecast struct {
	CurrentIndex   float64 `json:"currentIndex"`
	PredictedDelta float64 `json:"predictedDelta"`
	Trend          string  `json:"trend"`
}

// AnomalyForecast is the predicted likelihood of a new anomaly next tick.
type AnomalyForecast struct {
	Probability float64  `json:"probability"`
	LikelyTypes []string `json:"likelyTypes"`
}

// EndConditionRisk scores one termination predicate's proximity.
type EndConditionRisk struct {
	Condition   string  `json:"condition"`
	RiskScore   float64 `json:"riskScore"`   // 0..1, higher is closer to triggering
	StepsToRisk int     `json:"stepsToRisk"` // -1 when not estimable
}

// LifeTrend reports the direction of the life-evolution metrics.
type LifeTrend struct {
	LifeBearingPlanetsTrend string `json:"lifeBearingPlanetsTrend"`
	CivilizationTrend       string `json:"civilizationTrend"`
}

// Report is the full heuristic forecast returned by Predict.
type Report struct {
	Stability      StabilityForecast  `json:"stability"`
	Anomaly        AnomalyForecast    `json:"anomaly"`
	EndConditions  []EndConditionRisk `json:"endConditions"`
	Life           LifeTrend          `json:"life"`
	OverallRisk    float64            `json:"overallRisk"`
	ActionPriority []string           `json:"actionPriority"`
}

// Predict builds a Report from u's current state. It never mutates u.
func Predict(u *universe.Universe, opts Options) Report {
	mod := opts.DifficultyModifier
	if mod <= 0 {
		mod = 1.0
	}
	probScale := opts.AnomalyProbabilityScale
	if probScale <= 0 {
		probScale = 1.0
	}

	stability := predictStability(u)
	anomalyForecast := predictAnomaly(u, probScale)
	endRisks := predictEndConditions(u, mod)
	life := predictLifeTrend(u)

	endRiskScore := 0.0
	for _, r := range endRisks {
		if r.RiskScore > endRiskScore {
			endRiskScore = r.RiskScore
		}
	}

	overall := 0.4*stabilityRiskComponent(stability) + 0.3*anomalyForecast.Probability + 0.3*endRiskScore

	return Report{
		Stability:      stability,
		Anomaly:        anomalyForecast,
		EndConditions:  endRisks,
		Life:           life,
		OverallRisk:    overall,
		ActionPriority: actionPriority(stability, anomalyForecast, endRisks),
	}
}

func stabilityRiskComponent(s StabilityForecast) float64 {
	risk := (1 - s.CurrentIndex) + math.Max(0, -s.PredictedDelta)*5
	return math.Min(1, math.Max(0, risk))
}

// predictStability extrapolates the stability-history trend and penalizes
// unresolved anomalies, universe age, and accumulated entropy.
func predictStability(u *universe.Universe) StabilityForecast {
	s := &u.CurrentState
	trendPerTick := u.StabilityTrend()

	unresolved := u.UnresolvedAnomalyCount()
	anomalyPenalty := 0.01 * float64(unresolved)
	agePenalty := 0.0005 * s.AgeGyr()
	entropyPenalty := s.Entropy / 1e16 * 0.05

	delta := trendPerTick - anomalyPenalty - agePenalty - entropyPenalty

	trend := "stable"
	switch {
	case delta > 0.002:
		trend = "improving"
	case delta < -0.002:
		trend = "declining"
	}

	return StabilityForecast{
		CurrentIndex:   s.StabilityIndex,
		PredictedDelta: delta,
		Trend:          trend,
	}
}

// predictAnomaly mirrors the generator's activity-scaled base probability
// and names the types whose spawn condition currently holds.
func predictAnomaly(u *universe.Universe, probScale float64) AnomalyForecast {
	s := &u.CurrentState
	observable := u.Constants.ObservableGalaxies
	activity := math.Min(1, s.GalaxyCount/math.Max(1, observable))
	ageBonus := math.Min(0.2, s.AgeGyr()*0.01)
	probability := math.Min(1, probScale*activity+ageBonus)

	return AnomalyForecast{
		Probability: probability,
		LikelyTypes: anomaly.LikelyTypes(s, s.AgeGyr()),
	}
}

// predictEndConditions scores each ordered termination predicate by how
// close its governing state is to the threshold that would trigger it.
func predictEndConditions(u *universe.Universe, mod float64) []EndConditionRisk {
	s := &u.CurrentState
	risks := []EndConditionRisk{
		{
			Condition: "instability-collapse",
			RiskScore: proximity(0.05/mod, s.StabilityIndex, true),
		},
		{
			Condition: "heat-death",
			RiskScore: math.Min(
				proximity(200/mod, s.AgeGyr(), false),
				proximity(0.05, s.EnergyBudget, true),
			),
		},
		{
			Condition: "stellar-death",
			RiskScore: math.Min(
				proximity(80, s.AgeGyr(), false),
				proximity(0.08, s.EnergyBudget, true),
			),
		},
		{
			Condition: "big-rip",
			RiskScore: proximity(1e9, s.ScaleFactor, false),
		},
		{
			Condition: "big-crunch",
			RiskScore: proximity(1e-8, s.ScaleFactor, true),
		},
		{
			Condition: "maximum-entropy",
			RiskScore: math.Min(
				proximity(2e15, s.Entropy, false),
				proximity(0.02, s.EnergyBudget, true),
			),
		},
	}

	for i := range risks {
		risks[i].StepsToRisk = stepsToRisk(risks[i].RiskScore)
	}
	return risks
}

// proximity scores how close value is to threshold on a 0..1 scale.
// belowIsRiskier=true means risk rises as value falls toward threshold from
// above; false means risk rises as value climbs toward threshold from below.
func proximity(threshold, value float64, belowIsRiskier bool) float64 {
	if threshold == 0 {
		return 0
	}
	ratio := value / threshold
	if belowIsRiskier {
		if ratio >= 3 {
			return 0
		}
		if ratio <= 1 {
			return 1
		}
		return 1 - (ratio-1)/2
	}
	if ratio <= 1.0/3 {
		return 0
	}
	if ratio >= 1 {
		return 1
	}
	return (ratio - 1.0/3) / (2.0 / 3)
}

func stepsToRisk(riskScore float64) int {
	if riskScore >= 0.999 {
		return 0
	}
	if riskScore <= 0 {
		return -1
	}
	return int(math.Round((1 - riskScore) * 100))
}

func predictLifeTrend(u *universe.Universe) LifeTrend {
	s := &u.CurrentState
	planetsTrend := "flat"
	if s.LifeBearingPlanetsCount > 0 && s.Metallicity > 0.05 {
		planetsTrend = "growing"
	}

	active := u.ActiveCivilizationCount()
	civTrend := "flat"
	switch {
	case active > s.CivilizationCount/2 && active > 0:
		civTrend = "growing"
	case active == 0 && s.CivilizationCount > 0:
		civTrend = "declining"
	}

	return LifeTrend{
		LifeBearingPlanetsTrend: planetsTrend,
		CivilizationTrend:       civTrend,
	}
}

// actionPriority lists recommended actions: a stabilizing action when the
// stability trend is declining, an anomaly-response action when the anomaly
// probability exceeds 0.5, then one mitigation per end condition whose risk
// score exceeds 0.6, highest risk first.
func actionPriority(stability StabilityForecast, anom AnomalyForecast, endRisks []EndConditionRisk) []string {
	actions := make([]string, 0)

	if stability.Trend == "declining" {
		actions = append(actions, "resolve_anomalies_to_stabilize")
	}
	if anom.Probability > 0.5 {
		actions = append(actions, "prepare_for_anomaly_response")
	}

	sorted := make([]EndConditionRisk, len(endRisks))
	copy(sorted, endRisks)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RiskScore > sorted[j].RiskScore })
	for _, r := range sorted {
		if r.RiskScore > 0.6 {
			actions = append(actions, "mitigate_"+toSnake(r.Condition))
		}
	}

	if len(actions) == 0 {
		actions = append(actions, "no_action_needed")
	}
	return actions
}

func toSnake(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '-' {
			out = append(out, '_')
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
