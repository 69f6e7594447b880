// Package civilization spawns, evolves, and extincts the population of
// civilizations embedded in a universe's life-evolution path.
package civilization

import (
	"math"

	"github.com/google/uuid"

	"cosmos-backend/internal/mathx"
	"cosmos-backend/internal/rng"
	"cosmos-backend/internal/universe"
)

// Options configures one orchestrator run's civilization dynamics.
type Options struct {
	CullInterval int64 // ticks between culling passes, default 10
}

// Manager evolves the Civilizations slice on the bound Universe. It draws
// from the universe's base (unsuffixed) seed stream rather than a derived
// sub-stream of its own.
type Manager struct {
	u      *universe.Universe
	opts   Options
	stream *rng.Stream
}

// New builds a Manager bound to u.
func New(u *universe.Universe, opts Options, stream *rng.Stream) *Manager {
	if opts.CullInterval <= 0 {
		opts.CullInterval = 10
	}
	return &Manager{u: u, opts: opts, stream: stream}
}

// Spawn adds new civilizations when the life-bearing gate is open: §4.4.
// gateOpen should be physics.Engine.LifeBearingGateOpen() for this tick.
func (m *Manager) Spawn(gateOpen bool) int {
	if !gateOpen {
		return 0
	}
	s := &m.u.CurrentState

	expected := math.Floor(s.LifeBearingPlanetsCount * 1e-7 * (1 + 0.5*s.Metallicity))
	activeCount := m.u.ActiveCivilizationCount()
	n := int(math.Min(math.Min(expected-float64(s.CivilizationCount), float64(universe.MaxActiveCivilizations-activeCount)), 10))
	if n <= 0 {
		return 0
	}

	for i := 0; i < n; i++ {
		m.u.Civilizations = append(m.u.Civilizations, m.spawnOne(s.AgeGyr()))
	}
	s.CivilizationCount = len(m.u.Civilizations)
	m.u.Metrics.CivilizationsSpawned += int64(n)
	m.u.Touch()
	return n
}

func (m *Manager) spawnOne(ageGyr float64) universe.Civilization {
	civType := universe.CivType0
	if ageGyr >= 8 {
		r := m.stream.Float64()
		switch {
		case r < 0.98:
			civType = universe.CivType0
		case r < 0.998:
			civType = universe.CivType1
		case r < 0.9998:
			civType = universe.CivType2
		default:
			civType = universe.CivType3
		}
	}

	return universe.Civilization{
		ID:                uuid.NewString(),
		Type:              civType,
		CreatedAt:         m.u.CurrentState.Age,
		DevelopmentLevel:  m.stream.Float64(),
		Technology:        m.stream.Float64() * 10,
		Stability:         0.5 + m.stream.Float64()*0.5,
		Population:        m.stream.Range(1e6, 1e9+1e6),
		ResourceDepletion: 0,
		Warlikeness:       m.stream.Float64(),
	}
}

// Evolve advances every non-extinct civilization by one tick: §4.4's
// aging/technology/stability update, type promotion, extinction roll, and
// the rare catastrophic "great filter" event.
func (m *Manager) Evolve(dt float64) {
	s := &m.u.CurrentState
	for i := range m.u.Civilizations {
		c := &m.u.Civilizations[i]
		if c.Extinct {
			continue
		}

		c.Age += dt
		techGrowth := 0.01 * (dt / 1e8) * (1 + c.DevelopmentLevel)
		c.Technology = math.Min(100, c.Technology+techGrowth)
		c.ResourceDepletion = mathx.Clamp(c.ResourceDepletion+techGrowth*0.005, 0, 1)

		m.promote(c)

		c.Stability = mathx.Clamp(c.Stability+m.stream.NormFloat64()*0.01-0.02*c.ResourceDepletion-0.01*c.Warlikeness, 0, 1)

		if m.rollExtinction(c, s.StabilityIndex) {
			c.Extinct = true
			c.ExtinctionDate = s.Age
			c.ExtinctionAge = c.Age
			c.ExtinctionCause = extinctionCause(c)
			m.u.Metrics.CivilizationsExtinct++
		}
	}

	m.maybeCatastrophe()
}

func (m *Manager) promote(c *universe.Civilization) {
	switch c.Type {
	case universe.CivType0:
		if c.Technology >= 20 && m.stream.Float64() < 1e-3 {
			c.Type = universe.CivType1
		}
	case universe.CivType1:
		if c.Technology >= 50 && m.stream.Float64() < 1e-4 {
			c.Type = universe.CivType2
		}
	case universe.CivType2:
		if c.Technology >= 80 && m.stream.Float64() < 1e-5 {
			c.Type = universe.CivType3
		}
	}
}

func (m *Manager) rollExtinction(c *universe.Civilization, cosmicStability float64) bool {
	risk := 1e-5

	switch {
	case c.Stability < 0.1:
		risk *= (1 - c.Stability) * 100
	case c.Stability < 0.3:
		risk *= (1 - c.Stability) * 50
	}
	if c.ResourceDepletion > 0.8 {
		risk *= 20
	}
	if c.Warlikeness > 0.8 {
		risk *= 10
	}
	switch c.Type {
	case universe.CivType0:
		risk *= 5
	case universe.CivType3:
		risk *= 0.1
	}
	if cosmicStability < 0.5 {
		risk *= (1 - cosmicStability) * 3
	}
	if c.Age < 10e6 {
		risk *= 2
	} else if c.Age > 1e9 {
		risk *= 1.5
	}
	risk = math.Min(risk, 0.5)

	return m.stream.Float64() < risk
}

func extinctionCause(c *universe.Civilization) string {
	switch {
	case c.Stability < 0.1:
		return "stability_collapse"
	case c.ResourceDepletion > 0.8:
		return "resource_exhaustion"
	case c.Warlikeness > 0.8:
		return "self_destruction"
	default:
		return "natural_decline"
	}
}

// maybeCatastrophe applies the rare great-filter mass extinction: §4.4.
func (m *Manager) maybeCatastrophe() {
	if m.u.HasMilestone("greatFilter") {
		return
	}
	if m.stream.Float64() >= 1e-6 {
		return
	}

	active := make([]int, 0)
	for i := range m.u.Civilizations {
		if !m.u.Civilizations[i].Extinct {
			active = append(active, i)
		}
	}
	if len(active) == 0 {
		return
	}

	killCount := int(math.Floor(float64(len(active)) * (0.5 + m.stream.Float64()*0.4)))
	s := &m.u.CurrentState
	for i := 0; i < killCount && i < len(active); i++ {
		c := &m.u.Civilizations[active[i]]
		c.Extinct = true
		c.ExtinctionDate = s.Age
		c.ExtinctionAge = c.Age
		c.ExtinctionCause = "great_filter"
		m.u.Metrics.CivilizationsExtinct++
	}
	m.u.SetMilestone("greatFilter")
	m.u.AppendEvent(universe.SignificantEvent{
		Age:         s.Age,
		Type:        "great_filter",
		Description: "A catastrophic event has wiped out a large fraction of civilizations.",
	})
}

// MaybeCull culls extinct civilizations every CullInterval ticks: §4.4.
func (m *Manager) MaybeCull(ticksSimulated int64) {
	if m.opts.CullInterval <= 0 {
		return
	}
	if ticksSimulated%m.opts.CullInterval == 0 {
		m.u.CullExtinctCivilizations()
		m.u.CurrentState.CivilizationCount = len(m.u.Civilizations)
	}
}
