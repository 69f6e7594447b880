package universe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cosmos-backend/internal/universe"
)

func TestMilestoneFiresOnce(t *testing.T) {
	u := universe.New("owner", "Test", "seed", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})

	assert.True(t, u.SetMilestone("firstGalaxy"))
	assert.False(t, u.SetMilestone("firstGalaxy"))
	assert.True(t, u.HasMilestone("firstGalaxy"))
}

func TestAppendEventEvictsOldest500PastCap(t *testing.T) {
	u := universe.New("owner", "Test", "seed", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})

	for i := 0; i < universe.MaxSignificantEvents; i++ {
		u.AppendEvent(universe.SignificantEvent{Type: "tick"})
	}
	assert.Len(t, u.SignificantEvents, universe.MaxSignificantEvents)

	u.AppendEvent(universe.SignificantEvent{Type: "overflow"})
	assert.Len(t, u.SignificantEvents, universe.MaxSignificantEvents-universe.SignificantEventEvictN+1)
	assert.Equal(t, "overflow", u.SignificantEvents[len(u.SignificantEvents)-1].Type)
}

func TestPushStabilityCapsAtRingSize(t *testing.T) {
	u := universe.New("owner", "Test", "seed", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})

	for i := 0; i < universe.StabilityHistoryCap+10; i++ {
		u.PushStability(float64(i))
	}
	assert.Len(t, u.StabilityHistory, universe.StabilityHistoryCap)
	assert.Equal(t, float64(universe.StabilityHistoryCap+9), u.StabilityHistory[len(u.StabilityHistory)-1])
}

func TestCullExtinctCivilizationsKeepsMostRecent100(t *testing.T) {
	u := universe.New("owner", "Test", "seed", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})

	for i := 0; i < 150; i++ {
		u.Civilizations = append(u.Civilizations, universe.Civilization{
			ID:             "civ",
			Extinct:        true,
			ExtinctionDate: float64(i),
		})
	}
	u.Civilizations = append(u.Civilizations, universe.Civilization{ID: "alive"})

	u.CullExtinctCivilizations()

	extinctCount := 0
	for _, c := range u.Civilizations {
		if c.Extinct {
			extinctCount++
			assert.GreaterOrEqual(t, c.ExtinctionDate, float64(50))
		}
	}
	assert.Equal(t, universe.MaxRetainedExtinctCivs, extinctCount)
	assert.Equal(t, 1, u.ActiveCivilizationCount())
}

func TestEvictStaleResolvedAnomalies(t *testing.T) {
	u := universe.New("owner", "Test", "seed", universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})
	old := time.Now().Add(-10 * time.Minute)
	u.Anomalies = []universe.Anomaly{
		{ID: "stale", Resolved: true, ResolvedAt: &old},
		{ID: "fresh", Resolved: false},
	}

	removed := u.EvictStaleResolvedAnomalies(time.Now(), 5*time.Minute)
	assert.Equal(t, 1, removed)
	assert.Len(t, u.Anomalies, 1)
	assert.Equal(t, "fresh", u.Anomalies[0].ID)
}
