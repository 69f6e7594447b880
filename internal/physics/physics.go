// Package physics advances a universe's continuous state: expansion,
// structure formation, life emergence, and the composite stability index.
// Every formula here is grounded in the cosmological model the orchestrator
// drives one fixed-order tick at a time; nothing here owns persistence or
// scheduling.
package physics

import (
	"math"

	"cosmos-backend/internal/mathx"
	"cosmos-backend/internal/universe"
)

const (
	mpcToYears = 3.08567758128e19 // km per Mpc, paired with the seconds-per-year factor below
	secPerYear = 3.15576e7
	omegaR     = 0.0001
)

// Options configures a single simulation run; difficulty-derived values are
// resolved once by the orchestrator and held constant for the run's duration.
type Options struct {
	TimeStepYears      float64
	DifficultyModifier float64
	ObservableGalaxies float64 // constants.ObservableGalaxies after the difficulty multiplier
}

// Engine advances CurrentState in place and tracks the stability ring buffer
// on the Universe it was constructed with.
type Engine struct {
	u    *universe.Universe
	opts Options
}

// New builds an Engine bound to u for the duration of one orchestrator run.
func New(u *universe.Universe, opts Options) *Engine {
	if opts.TimeStepYears <= 0 {
		opts.TimeStepYears = 1e7
	}
	if opts.DifficultyModifier <= 0 {
		opts.DifficultyModifier = 1.0
	}
	if opts.ObservableGalaxies <= 0 {
		opts.ObservableGalaxies = u.Constants.ObservableGalaxies
	}
	return &Engine{u: u, opts: opts}
}

// Expansion performs the per-tick Friedmann expansion update: §4.2.1.
func (e *Engine) Expansion() {
	s := &e.u.CurrentState
	dt := e.opts.TimeStepYears
	c := e.u.Constants

	s.Age += dt

	h0Internal := (c.H0KmSMpc / mpcToYears) * secPerYear
	omegaM := c.DarkMatterDensity + c.MatterDensity
	a := s.ScaleFactor
	hEff := h0Internal * math.Sqrt(mathx.Max0(omegaM/cube(a)+omegaR/quart(a)+c.DarkEnergyDensity))

	s.ScaleFactor = mathx.Clamp(s.ScaleFactor*math.Exp(mathx.Clamp(hEff*dt, -0.1, 0.1)), universe.ScaleFactorMin, universe.ScaleFactorMax)
	s.ExpansionRate = hEff * mpcToYears / secPerYear

	s.Temperature = mathx.Clamp(c.InitialTemperature/s.ScaleFactor, 0.01, 100*c.InitialTemperature)
	s.Entropy = mathx.Clamp(s.Entropy+math.Log(math.Max(1, cube(s.ScaleFactor)))*1e5*(dt/1e8), 0, 1e16)
	s.EnergyBudget = mathx.Clamp(s.EnergyBudget-5e-13*dt, 0, 1)

	s.CosmicPhase = cosmicPhaseFor(s.AgeGyr())
}

func cosmicPhaseFor(ageGyr float64) universe.CosmicPhase {
	switch {
	case ageGyr < 0.1:
		return universe.PhaseDarkAges
	case ageGyr < 1:
		return universe.PhaseReionization
	case ageGyr < 5:
		return universe.PhaseGalaxyFormation
	case ageGyr < 10:
		return universe.PhaseStellarPeak
	case ageGyr < 50:
		return universe.PhaseGradualDecline
	case ageGyr < 100:
		return universe.PhaseTwilightEra
	default:
		return universe.PhaseDegenerateEra
	}
}

// Structure performs galaxy, star, stellar-evolution, and black-hole updates:
// §4.2.2. Returns the milestone names newly set this call.
func (e *Engine) Structure() []string {
	s := &e.u.CurrentState
	dt := e.opts.TimeStepYears
	c := e.u.Constants
	ageGyr := s.AgeGyr()
	k := e.opts.ObservableGalaxies
	var fired []string

	r := (0.15 / 1e9) * (1 + 2*math.Exp(-square((ageGyr-5)/3)))
	if ageGyr > 0.1 && ageGyr < 2.5 && s.GalaxyCount < 1000 {
		s.GalaxyCount += 2000 * math.Exp(-square((ageGyr-0.5)/0.7)) * (dt / 1e7)
	} else if s.GalaxyCount > 0 {
		s.GalaxyCount += r * s.GalaxyCount * (1 - s.GalaxyCount/k) * dt
	}
	if ageGyr > 1.0 && s.GalaxyCount < 100 {
		s.GalaxyCount += 100
	}
	s.GalaxyCount = mathx.Clamp(s.GalaxyCount, 0, 1.5*k)
	if s.GalaxyCount >= 1 && e.u.SetMilestone("firstGalaxy") {
		fired = append(fired, "firstGalaxy")
	}

	starsTarget := s.GalaxyCount * c.AverageStarsPerGalaxy
	s.StarCount += (starsTarget - s.StarCount) * 0.003 * (1 + 0.5*s.Metallicity) * math.Exp(-ageGyr/10) * (dt / 1e7)
	if ageGyr > 0.5 && s.GalaxyCount > 10 && s.StarCount < 1e6 {
		s.StarCount += 1e6
	}
	if s.StarCount >= 1 && e.u.SetMilestone("firstStar") {
		fired = append(fired, "firstStar")
	}

	deathRate := s.StarCount * 1e-11 * dt
	s.StellarGenerations = math.Min(10, s.StellarGenerations+deathRate/(c.AverageStarsPerGalaxy*10))
	s.Metallicity = mathx.Clamp(s.Metallicity+deathRate*1e-14, 0, 1)
	if s.Metallicity > 0.1 && e.u.SetMilestone("stellarPopulationI") {
		fired = append(fired, "stellarPopulationI")
	}

	s.BlackHoleCount += s.StarCount * 1e-4 * 0.1 * (dt / 1e9)

	return fired
}

// Life performs the life-emergence update: §4.2.3. Returns the milestone
// names newly set this call. Civilization spawning itself is delegated to
// package civilization, gated on the same ageGyr/lifeBearingPlanetsCount
// thresholds this method exposes via LifeBearingGateOpen.
func (e *Engine) Life() []string {
	s := &e.u.CurrentState
	dt := e.opts.TimeStepYears
	ageGyr := s.AgeGyr()
	var fired []string

	if ageGyr < 1 || s.Metallicity < 0.01 {
		return fired
	}

	metallicityFactor := mathx.Clamp(s.Metallicity/0.3, 0, 1)
	s.HabitableSystemsCount = s.StarCount * (0.001 + metallicityFactor*math.Min(1, (ageGyr-1)/3)*0.015)

	if ageGyr > 3 && s.HabitableSystemsCount > 100 {
		ageFactor := mathx.Clamp((ageGyr-3)/5, 0, 1)
		tempSuitability := math.Exp(-square((s.Temperature - 2.725) / 5))
		s.LifeBearingPlanetsCount += s.HabitableSystemsCount * 1e-8 * ageFactor * metallicityFactor * tempSuitability * (dt / 1e8)
		if s.LifeBearingPlanetsCount >= 1 && e.u.SetMilestone("firstLife") {
			fired = append(fired, "firstLife")
		}
		if s.LifeBearingPlanetsCount > 1000 && e.u.SetMilestone("complexLifeEra") {
			fired = append(fired, "complexLifeEra")
		}
	}

	return fired
}

// LifeBearingGateOpen reports whether civilization spawning may occur this
// tick, per §4.2.3's "ageGyr > 5 ∧ lifeBearingPlanetsCount > 1000" gate.
func (e *Engine) LifeBearingGateOpen() bool {
	s := &e.u.CurrentState
	return s.AgeGyr() > 5 && s.LifeBearingPlanetsCount > 1000
}

// RecomputeStability recomputes the composite stability index and pushes it
// onto the ring buffer: §4.2.4. unresolvedAnomalies/totalAnomalies come from
// the anomaly package's bookkeeping on this universe.
func (e *Engine) RecomputeStability(unresolvedAnomalies, totalAnomalies int) float64 {
	s := &e.u.CurrentState
	c := e.u.Constants
	ageGyr := s.AgeGyr()
	k := e.opts.ObservableGalaxies

	entropyFactor := mathx.Max0(1 - math.Pow(s.Entropy/3e14, 0.7))

	galaxyFactor := math.Min(1, s.GalaxyCount/math.Max(1, k*math.Min(ageGyr/13.8, 1)*0.3))
	starFactor := math.Min(1, s.StarCount/math.Max(1, s.GalaxyCount*c.AverageStarsPerGalaxy*0.5))
	structureFactor := (galaxyFactor + starFactor) / 2

	omegaM := c.DarkMatterDensity + c.MatterDensity
	f := c.DarkEnergyDensity / (omegaM/cube(s.ScaleFactor) + c.DarkEnergyDensity)
	var darkEnergyFactor float64
	if f < 0.95 {
		darkEnergyFactor = 1.0
	} else {
		darkEnergyFactor = mathx.Max0(1 - square((f-0.95)/0.05))
	}

	temperatureFactor := math.Exp(-square((s.Temperature - 2.725) / 5))

	anomalyFactor := mathx.Max0(1 - math.Min(float64(unresolvedAnomalies)*0.008, 0.35) - math.Min(float64(totalAnomalies)*0.0015, 0.25))

	raw := 0.15*entropyFactor + 0.25*structureFactor + 0.15*darkEnergyFactor +
		0.15*temperatureFactor + 0.20*anomalyFactor + 0.10*s.EnergyBudget

	stability := mathx.Clamp(raw*(0.6+0.4/e.opts.DifficultyModifier), 0, 1)
	s.StabilityIndex = stability
	e.u.PushStability(stability)

	e.recomputeDerivedMetrics(unresolvedAnomalies)

	return stability
}

// recomputeDerivedMetrics fills the metrics subrecord's composite indices.
// These three indices are not pinned to a literal published formula; they are
// defined here as internally-consistent heuristics over the same state the
// stability decomposition already reads.
func (e *Engine) recomputeDerivedMetrics(unresolvedAnomalies int) {
	s := &e.u.CurrentState
	m := &e.u.Metrics

	m.ComplexityIndex = mathx.Clamp(
		math.Log10(math.Max(1, s.StarCount))/20+s.Metallicity*0.3+math.Min(1, float64(s.CivilizationCount)/100.0)*0.3,
		0, 1,
	)

	lifePotential := 0.0
	if s.HabitableSystemsCount > 0 {
		lifePotential = s.LifeBearingPlanetsCount / math.Max(1, s.HabitableSystemsCount*0.01)
	}
	m.LifePotentialIndex = mathx.Clamp(lifePotential, 0, 1)

	m.CosmicHealth = mathx.Clamp(
		s.StabilityIndex*0.5+s.EnergyBudget*0.3+(1-math.Min(1, float64(unresolvedAnomalies)/50.0))*0.2,
		0, 1,
	)
}

// Statistics is a read-only snapshot used by the HTTP stats endpoint.
type Statistics struct {
	AgeGyr            float64
	CosmicPhase       universe.CosmicPhase
	StabilityIndex    float64
	StabilityTrend    float64
	ComplexityIndex   float64
	LifePotentialIndex float64
	CosmicHealth      float64
}

// GetStatistics returns a snapshot of the derived statistics.
func (e *Engine) GetStatistics() Statistics {
	s := &e.u.CurrentState
	return Statistics{
		AgeGyr:             s.AgeGyr(),
		CosmicPhase:        s.CosmicPhase,
		StabilityIndex:     s.StabilityIndex,
		StabilityTrend:     e.u.StabilityTrend(),
		ComplexityIndex:    e.u.Metrics.ComplexityIndex,
		LifePotentialIndex: e.u.Metrics.LifePotentialIndex,
		CosmicHealth:       e.u.Metrics.CosmicHealth,
	}
}

// GetStabilityHistory returns the ring buffer contents in chronological order.
func (e *Engine) GetStabilityHistory() []float64 {
	return append([]float64(nil), e.u.StabilityHistory...)
}

func cube(x float64) float64   { return x * x * x }
func quart(x float64) float64  { return x * x * x * x }
func square(x float64) float64 { return x * x }
