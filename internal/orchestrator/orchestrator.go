// Package orchestrator sequences the per-tick simulation pipeline: physics
// expansion, structure and life updates, anomaly generation and decay,
// stability recomputation, and end-condition checking, in the fixed order
// §5 requires. A Run call is the atomic unit of simulation: no partial
// results are ever returned mid-run.
package orchestrator

import (
	"context"
	"time"

	"cosmos-backend/internal/anomaly"
	"cosmos-backend/internal/civilization"
	"cosmos-backend/internal/endcondition"
	"cosmos-backend/internal/errors"
	"cosmos-backend/internal/physics"
	"cosmos-backend/internal/predictor"
	"cosmos-backend/internal/rng"
	"cosmos-backend/internal/universe"
)

const maxStepsPerRun = 100

// Options carries per-call inputs that do not come from the difficulty tier:
// the player position anomalies are placed around and an optional clock.
// The run parameters themselves are always resolved from universe.Difficulty.
type Options struct {
	PlayerPosition universe.Location
	Now            func() time.Time
}

// Report is returned at the end of a successful Run.
type Report struct {
	Stats            physics.Statistics
	StabilityHistory []float64
	EndStatus        endcondition.Result
	Warnings         []endcondition.Warning
	Predictions      predictor.Report
	CreatedAnomalies []universe.Anomaly
	TicksRun         int
	Universe         *universe.Universe
}

// Run executes requestedSteps ticks (clamped to [1, 100]) of u's simulation
// pipeline, checking ctx for cancellation between ticks only, and returns a
// full report. It never persists; the caller owns load/persist around Run.
func Run(ctx context.Context, u *universe.Universe, requestedSteps int, opts Options) (Report, error) {
	if u.Status == universe.StatusEnded {
		return Report{}, errors.ErrUniverseEnded
	}

	steps := requestedSteps
	if steps > maxStepsPerRun {
		steps = maxStepsPerRun
	}
	if steps < 1 {
		steps = 1
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	diffOpts := universe.ResolveDifficultyOptions(u.Difficulty)
	observableGalaxies := u.Constants.ObservableGalaxies * diffOpts.ObservableGalaxiesMultiplier

	physOpts := physics.Options{
		TimeStepYears:      diffOpts.TimeStepYears,
		DifficultyModifier: diffOpts.DifficultyModifier,
		ObservableGalaxies: observableGalaxies,
	}
	anomalyOpts := anomaly.Options{
		AnomalyProbabilityScale: diffOpts.AnomalyProbabilityScale,
		MaxAnomalyPerStep:       diffOpts.MaxAnomalyPerStep,
		PlayerPosition:          opts.PlayerPosition,
	}
	endOpts := endcondition.Options{DifficultyModifier: diffOpts.DifficultyModifier}

	baseStream := rng.New(u.Seed)
	anomalyStream := rng.Derive(u.Seed, "anomaly")

	phys := physics.New(u, physOpts)
	anomGen := anomaly.New(u, anomalyOpts, anomalyStream)
	civMgr := civilization.New(u, civilization.Options{}, baseStream)

	var created []universe.Anomaly
	var endResult endcondition.Result
	ticksRun := 0

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return Report{}, errors.Wrap(errors.KindInternal, "simulation run cancelled between ticks", ctx.Err())
		default:
		}

		tickTime := now()

		phys.Expansion()
		phys.Structure()
		phys.Life()

		civMgr.Spawn(phys.LifeBearingGateOpen())
		civMgr.Evolve(physOpts.TimeStepYears)

		spawned := anomGen.Generate(tickTime)
		created = append(created, spawned...)
		anomGen.Decay()

		phys.RecomputeStability(u.UnresolvedAnomalyCount(), len(u.Anomalies))

		u.Metrics.TicksSimulated++
		civMgr.MaybeCull(u.Metrics.TicksSimulated)

		endResult = endcondition.Check(u, endOpts)
		ticksRun++
		if endResult.Ended {
			break
		}
	}

	report := predictor.Predict(u, predictor.Options{
		DifficultyModifier:      diffOpts.DifficultyModifier,
		AnomalyProbabilityScale: diffOpts.AnomalyProbabilityScale,
	})

	return Report{
		Stats:            phys.GetStatistics(),
		StabilityHistory: phys.GetStabilityHistory(),
		EndStatus:        endResult,
		Warnings:         endcondition.Warnings(u, endOpts),
		Predictions:      report,
		CreatedAnomalies: created,
		TicksRun:         ticksRun,
		Universe:         u,
	}, nil
}
