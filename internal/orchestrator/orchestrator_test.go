package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmos-backend/internal/errors"
	"cosmos-backend/internal/orchestrator"
	"cosmos-backend/internal/universe"
)

func newUniverse(seed string) *universe.Universe {
	return universe.New("owner", "Test", seed, universe.DifficultyBeginner, universe.DefaultConstants(), universe.InitialConditions{})
}

func fixedNow() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

func TestRunRejectsEndedUniverse(t *testing.T) {
	u := newUniverse("orch-ended")
	u.Status = universe.StatusEnded

	_, err := orchestrator.Run(context.Background(), u, 10, orchestrator.Options{Now: fixedNow})

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUniverseEnded)
}

func TestRunClampsStepsToMaximum(t *testing.T) {
	u := newUniverse("orch-clamp")

	report, err := orchestrator.Run(context.Background(), u, 1000, orchestrator.Options{Now: fixedNow})

	require.NoError(t, err)
	assert.LessOrEqual(t, report.TicksRun, 100)
}

func TestRunClampsStepsToMinimumOne(t *testing.T) {
	u := newUniverse("orch-min")

	report, err := orchestrator.Run(context.Background(), u, 0, orchestrator.Options{Now: fixedNow})

	require.NoError(t, err)
	assert.Equal(t, 1, report.TicksRun)
}

func TestRunAdvancesAgeAndReturnsReport(t *testing.T) {
	u := newUniverse("orch-advance")

	report, err := orchestrator.Run(context.Background(), u, 10, orchestrator.Options{Now: fixedNow})

	require.NoError(t, err)
	assert.Greater(t, u.CurrentState.Age, 0.0)
	assert.Equal(t, u, report.Universe)
	assert.NotNil(t, report.Predictions.EndConditions)
}

func TestRunIsDeterministicAcrossIdenticalUniverses(t *testing.T) {
	u1 := newUniverse("orch-det")
	u2 := newUniverse("orch-det")

	r1, err1 := orchestrator.Run(context.Background(), u1, 20, orchestrator.Options{Now: fixedNow})
	r2, err2 := orchestrator.Run(context.Background(), u2, 20, orchestrator.Options{Now: fixedNow})

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, u1.CurrentState, u2.CurrentState)
	assert.Equal(t, r1.TicksRun, r2.TicksRun)
}

func TestRunRespectsCancellationBetweenTicks(t *testing.T) {
	u := newUniverse("orch-cancel")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orchestrator.Run(ctx, u, 10, orchestrator.Options{Now: fixedNow})

	require.Error(t, err)
}

func TestRunStopsAtFirstEndCondition(t *testing.T) {
	u := newUniverse("orch-end")
	u.CurrentState.ScaleFactor = 2e9

	report, err := orchestrator.Run(context.Background(), u, 10, orchestrator.Options{Now: fixedNow})

	require.NoError(t, err)
	assert.True(t, report.EndStatus.Ended)
	assert.Equal(t, "big-rip", report.EndStatus.Condition)
	assert.Equal(t, 1, report.TicksRun)
	assert.Equal(t, universe.StatusEnded, u.Status)
}
