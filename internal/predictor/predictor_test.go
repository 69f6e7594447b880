package predictor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cosmos-backend/internal/predictor"
	"cosmos-backend/internal/universe"
)

func newUniverse() *universe.Universe {
	return universe.New("owner", "Test", "predict-seed", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})
}

func TestPredictIsSideEffectFree(t *testing.T) {
	u := newUniverse()
	u.CurrentState.StabilityIndex = 0.8
	before := *u

	_ = predictor.Predict(u, predictor.Options{DifficultyModifier: 1.0})

	assert.Equal(t, before.CurrentState, u.CurrentState)
	assert.Equal(t, before.Anomalies, u.Anomalies)
	assert.Equal(t, before.Civilizations, u.Civilizations)
}

func TestOverallRiskStaysWithinUnitRange(t *testing.T) {
	u := newUniverse()
	u.CurrentState.StabilityIndex = 1.0
	u.CurrentState.EnergyBudget = 1.0
	u.CurrentState.ScaleFactor = 1.0

	report := predictor.Predict(u, predictor.Options{DifficultyModifier: 1.0, AnomalyProbabilityScale: 0})

	assert.GreaterOrEqual(t, report.OverallRisk, 0.0)
	assert.LessOrEqual(t, report.OverallRisk, 1.0)
}

func TestEndConditionRiskRisesNearThreshold(t *testing.T) {
	u := newUniverse()
	u.CurrentState.ScaleFactor = 9e8 // close to the 1e9 big-rip threshold

	report := predictor.Predict(u, predictor.Options{DifficultyModifier: 1.0})

	var bigRip predictor.EndConditionRisk
	for _, r := range report.EndConditions {
		if r.Condition == "big-rip" {
			bigRip = r
		}
	}
	assert.Greater(t, bigRip.RiskScore, 0.5)
}

func TestAnomalyForecastListsLikelyTypes(t *testing.T) {
	u := newUniverse()
	u.CurrentState.BlackHoleCount = 1e6
	u.CurrentState.Age = 6e9

	report := predictor.Predict(u, predictor.Options{DifficultyModifier: 1.0, AnomalyProbabilityScale: 1.0})

	assert.Contains(t, report.Anomaly.LikelyTypes, "blackHoleMerger")
}

func TestActionPriorityNeverEmpty(t *testing.T) {
	u := newUniverse()

	report := predictor.Predict(u, predictor.Options{DifficultyModifier: 1.0})

	assert.NotEmpty(t, report.ActionPriority)
}
