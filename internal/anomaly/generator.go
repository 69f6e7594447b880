// Package anomaly generates, applies, decays, and resolves the discrete
// stochastic perturbations layered on top of a universe's continuous
// physics state.
package anomaly

import (
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"cosmos-backend/internal/mathx"
	"cosmos-backend/internal/rng"
	"cosmos-backend/internal/universe"
)

const chunkSize = 1000.0
const staleResolvedWindow = 5 * time.Minute

// Options configures a single orchestrator run's anomaly generation.
type Options struct {
	AnomalyProbabilityScale float64
	MaxAnomalyPerStep       int
	PlayerPosition          universe.Location
}

// Generator is the stateless-between-ticks anomaly engine; it carries its own
// `_anomaly`-suffixed stream so its draws never perturb the physics stream's
// position.
type Generator struct {
	u      *universe.Universe
	opts   Options
	stream *rng.Stream
}

// New builds a Generator bound to u, drawing from stream (expected to be
// derived as rng.Derive(seed, "anomaly")).
func New(u *universe.Universe, opts Options, stream *rng.Stream) *Generator {
	if opts.MaxAnomalyPerStep <= 0 {
		opts.MaxAnomalyPerStep = 3
	}
	if opts.AnomalyProbabilityScale <= 0 {
		opts.AnomalyProbabilityScale = 1.0
	}
	return &Generator{u: u, opts: opts, stream: stream}
}

// Generate runs the generation algorithm for one tick: autoCleanup, the cap
// check, the per-type probability roll, and — for every spawned anomaly —
// immediate effect application and event recording. Returns the anomalies
// created this tick.
func (g *Generator) Generate(now time.Time) []universe.Anomaly {
	if len(g.u.Anomalies) >= universe.MaxAnomalies {
		g.u.EvictStaleResolvedAnomalies(now, staleResolvedWindow)
	}
	if len(g.u.Anomalies) >= universe.MaxAnomalies {
		return nil
	}

	s := &g.u.CurrentState
	ageGyr := s.AgeGyr()
	observable := g.u.Constants.ObservableGalaxies
	activity := math.Min(1, s.GalaxyCount/math.Max(1, observable))
	baseProb := g.opts.AnomalyProbabilityScale * activity

	created := make([]universe.Anomaly, 0)
	for _, spec := range table {
		if len(created) >= g.opts.MaxAnomalyPerStep {
			break
		}
		if !spec.Condition(s, ageGyr) {
			continue
		}
		r := g.stream.Float64()
		if r >= spec.BaseP*baseProb*10000 {
			continue
		}

		a := g.spawn(spec, now)
		g.applyEffects(&a)
		g.u.Anomalies = append(g.u.Anomalies, a)
		g.u.Metrics.AnomaliesGenerated++
		created = append(created, a)

		g.u.AppendEvent(universe.SignificantEvent{
			Timestamp:   now,
			Age:         s.Age,
			AgeGyr:      formatAgeGyr(ageGyr),
			Type:        "anomaly_generated",
			Description: a.Description,
			Effects:     a.EffectsRaw,
		})
	}

	if len(created) > 0 {
		g.u.Touch()
	}
	return created
}

func (g *Generator) spawn(spec typeSpec, now time.Time) universe.Anomaly {
	severity := float64(1 + int(g.stream.Float64()*3))

	theta := g.stream.Angle()
	d := g.stream.Range(1, 4)
	pos := g.opts.PlayerPosition
	loc := universe.Location{
		X: pos.X + math.Cos(theta)*d*chunkSize,
		Y: pos.Y + math.Sin(theta)*d*chunkSize,
		Z: pos.Z + g.stream.Range(-5e3, 5e3),
	}

	return universe.Anomaly{
		ID:          uuid.NewString(),
		Type:        spec.Type,
		Category:    spec.Category,
		Severity:    severity,
		Timestamp:   g.u.CurrentState.Age,
		Resolved:    false,
		EffectsRaw:  spec.Effects(severity),
		Location:    loc,
		Radius:      1000 * severity,
		Description: spec.Description,
		DecayRate:   0.001 * g.stream.Float64(),
	}
}

// applyEffects applies an anomaly's declarative effect map once, at
// generation time. Unknown keys are ignored, never failing the tick.
func (g *Generator) applyEffects(a *universe.Anomaly) {
	s := &g.u.CurrentState
	for key, v := range a.EffectsRaw {
		switch key {
		case "stability":
			s.StabilityIndex = mathx.Clamp(s.StabilityIndex+v, 0, 1)
		case "entropy":
			s.Entropy = mathx.Clamp(s.Entropy+v, 0, 1e16)
		case "expansionBoost":
			s.ExpansionRate += v
		case "scaleFactorBump":
			s.ScaleFactor = mathx.Clamp(s.ScaleFactor+v, universe.ScaleFactorMin, universe.ScaleFactorMax)
		case "metallicity":
			s.Metallicity = mathx.Clamp(s.Metallicity+v, 0, 1)
		case "starCount":
			s.StarCount = mathx.Max0(s.StarCount + v)
		case "blackHoleCount":
			s.BlackHoleCount = mathx.Max0(s.BlackHoleCount + v)
		case "galaxyCount":
			s.GalaxyCount = mathx.Max0(s.GalaxyCount + v)
		case "habitable":
			s.HabitableSystemsCount = mathx.Max0(s.HabitableSystemsCount + v)
		default:
			// unknown effect key: ignored by design, never fails the tick
		}
	}
}

// Decay rolls each unresolved anomaly's decay chance once per tick: §4.3.4.
func (g *Generator) Decay() {
	for i := range g.u.Anomalies {
		a := &g.u.Anomalies[i]
		if a.Resolved || a.DecayRate <= 0 {
			continue
		}
		r := g.stream.Float64()
		if r < a.DecayRate && a.Severity > 1 {
			a.Severity -= 0.1
			g.u.CurrentState.StabilityIndex = mathx.Clamp(g.u.CurrentState.StabilityIndex+0.001, 0, 1)
		}
	}
}

// formatAgeGyr renders ageGyr to 3 decimal places, matching the
// SignificantEvent.AgeGyr wire field's documented precision.
func formatAgeGyr(ageGyr float64) string {
	return strconv.FormatFloat(ageGyr, 'f', 3, 64)
}
