package physics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cosmos-backend/internal/physics"
	"cosmos-backend/internal/universe"
)

func newTestUniverse(seed string) *universe.Universe {
	return universe.New("owner", "Test", seed, universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})
}

func TestScenario1TenTicksReionization(t *testing.T) {
	u := newTestUniverse("S1")
	eng := physics.New(u, physics.Options{TimeStepYears: 5e7, DifficultyModifier: 1.0, ObservableGalaxies: u.Constants.ObservableGalaxies})

	for i := 0; i < 10; i++ {
		eng.Expansion()
		eng.Structure()
		eng.Life()
		eng.RecomputeStability(0, 0)
	}

	assert.InDelta(t, 0.5, u.CurrentState.AgeGyr(), 1e-9)
	assert.Equal(t, universe.PhaseReionization, u.CurrentState.CosmicPhase)
	assert.Greater(t, u.CurrentState.StabilityIndex, 0.5)
}

func TestScenario2HundredTicksFirstGalaxy(t *testing.T) {
	u := newTestUniverse("S2")
	u.Difficulty = universe.DifficultyIntermediate
	eng := physics.New(u, physics.Options{TimeStepYears: 5e7, DifficultyModifier: 1.0, ObservableGalaxies: u.Constants.ObservableGalaxies})

	for i := 0; i < 100; i++ {
		eng.Expansion()
		eng.Structure()
		eng.Life()
		eng.RecomputeStability(0, 0)
	}

	assert.True(t, u.HasMilestone("firstGalaxy"))
	assert.GreaterOrEqual(t, u.CurrentState.GalaxyCount, 100.0)
}

func TestDeterminismAcrossIdenticalRuns(t *testing.T) {
	u1 := newTestUniverse("S-det")
	u2 := newTestUniverse("S-det")

	e1 := physics.New(u1, physics.Options{TimeStepYears: 5e7, DifficultyModifier: 1.0, ObservableGalaxies: u1.Constants.ObservableGalaxies})
	e2 := physics.New(u2, physics.Options{TimeStepYears: 5e7, DifficultyModifier: 1.0, ObservableGalaxies: u2.Constants.ObservableGalaxies})

	for i := 0; i < 50; i++ {
		e1.Expansion()
		e1.Structure()
		e1.Life()
		e1.RecomputeStability(0, 0)

		e2.Expansion()
		e2.Structure()
		e2.Life()
		e2.RecomputeStability(0, 0)
	}

	assert.Equal(t, u1.CurrentState, u2.CurrentState)
}

func TestAgeIsMonotonicallyIncreasing(t *testing.T) {
	u := newTestUniverse("S-mono")
	eng := physics.New(u, physics.Options{TimeStepYears: 1e7, DifficultyModifier: 1.0, ObservableGalaxies: u.Constants.ObservableGalaxies})

	prev := u.CurrentState.Age
	for i := 0; i < 20; i++ {
		eng.Expansion()
		assert.Greater(t, u.CurrentState.Age, prev)
		prev = u.CurrentState.Age
	}
}

func TestScaleFactorStaysWithinBounds(t *testing.T) {
	u := newTestUniverse("S-bounds")
	eng := physics.New(u, physics.Options{TimeStepYears: 1e9, DifficultyModifier: 1.0, ObservableGalaxies: u.Constants.ObservableGalaxies})

	for i := 0; i < 200; i++ {
		eng.Expansion()
		assert.GreaterOrEqual(t, u.CurrentState.ScaleFactor, universe.ScaleFactorMin)
		assert.LessOrEqual(t, u.CurrentState.ScaleFactor, universe.ScaleFactorMax)
	}
}
