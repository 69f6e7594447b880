// Package universe defines the persisted Universe aggregate and the bounded
// collections that back it. Field names and the `_scaleFactor` underscore
// prefix are part of the wire/storage contract and must not be renamed.
package universe

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Difficulty gates the tuning constants applied to a universe's simulation.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Status is the lifecycle state of a universe.
type Status string

const (
	StatusRunning Status = "running"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
)

// CosmicPhase labels the broad cosmological era implied by a universe's age.
type CosmicPhase string

const (
	PhaseDarkAges         CosmicPhase = "dark_ages"
	PhaseReionization     CosmicPhase = "reionization"
	PhaseGalaxyFormation  CosmicPhase = "galaxy_formation"
	PhaseStellarPeak      CosmicPhase = "stellar_peak"
	PhaseGradualDecline   CosmicPhase = "gradual_decline"
	PhaseTwilightEra      CosmicPhase = "twilight_era"
	PhaseDegenerateEra    CosmicPhase = "degenerate_era"
)

const (
	MaxAnomalies            = 200
	MaxActiveCivilizations  = 500
	MaxRetainedExtinctCivs  = 100
	MaxSignificantEvents    = 2000
	SignificantEventEvictN  = 500
	StabilityHistoryCap     = 100
	ScaleFactorMin          = 1e-10
	ScaleFactorMax          = 1e10
)

// Constants holds the physical parameters that seed a universe's expansion
// and structure formation. These are fixed at creation (aside from explicit
// operator overrides for test scenarios) and read by the physics engine.
type Constants struct {
	H0KmSMpc              float64 `json:"h0KmSMpc" bson:"h0KmSMpc"`
	MatterDensity         float64 `json:"matterDensity" bson:"matterDensity"`
	DarkMatterDensity     float64 `json:"darkMatterDensity" bson:"darkMatterDensity"`
	DarkEnergyDensity     float64 `json:"darkEnergyDensity" bson:"darkEnergyDensity"`
	InitialTemperature    float64 `json:"initialTemperature" bson:"initialTemperature"`
	ObservableGalaxies    float64 `json:"observableGalaxies" bson:"observableGalaxies"`
	AverageStarsPerGalaxy float64 `json:"averageStarsPerGalaxy" bson:"averageStarsPerGalaxy"`
}

// DefaultConstants returns the standard cosmological parameters used when a
// universe is created without explicit overrides.
func DefaultConstants() Constants {
	return Constants{
		H0KmSMpc:              67.4,
		MatterDensity:         0.0486,
		DarkMatterDensity:     0.2589,
		DarkEnergyDensity:     0.6911,
		InitialTemperature:    2.725,
		ObservableGalaxies:    2e12,
		AverageStarsPerGalaxy: 1e11,
	}
}

// InitialConditions captures the state a universe is seeded with at t=0.
type InitialConditions struct {
	ScaleFactor float64 `json:"scaleFactor" bson:"scaleFactor"`
	Age         float64 `json:"age" bson:"age"`
}

// CurrentState is the continuously-evolving value subrecord advanced by the
// physics engine each tick.
type CurrentState struct {
	Age                      float64     `json:"age" bson:"age"`
	ScaleFactor              float64     `json:"_scaleFactor" bson:"_scaleFactor"`
	ExpansionRate            float64     `json:"expansionRate" bson:"expansionRate"`
	Temperature              float64     `json:"temperature" bson:"temperature"`
	Entropy                  float64     `json:"entropy" bson:"entropy"`
	StabilityIndex           float64     `json:"stabilityIndex" bson:"stabilityIndex"`
	GalaxyCount              float64     `json:"galaxyCount" bson:"galaxyCount"`
	StarCount                float64     `json:"starCount" bson:"starCount"`
	BlackHoleCount           float64     `json:"blackHoleCount" bson:"blackHoleCount"`
	HabitableSystemsCount    float64     `json:"habitableSystemsCount" bson:"habitableSystemsCount"`
	LifeBearingPlanetsCount  float64     `json:"lifeBearingPlanetsCount" bson:"lifeBearingPlanetsCount"`
	CivilizationCount        int         `json:"civilizationCount" bson:"civilizationCount"`
	Metallicity              float64     `json:"metallicity" bson:"metallicity"`
	CosmicPhase              CosmicPhase `json:"cosmicPhase" bson:"cosmicPhase"`
	StellarGenerations       float64     `json:"stellarGenerations" bson:"stellarGenerations"`
	EnergyBudget             float64     `json:"energyBudget" bson:"energyBudget"`
}

// AgeGyr returns the universe's age in gigayears.
func (s *CurrentState) AgeGyr() float64 {
	return s.Age / 1e9
}

// AnomalyCategory is the broad classification of an Anomaly's origin.
type AnomalyCategory string

const (
	CategoryGravitational  AnomalyCategory = "gravitational"
	CategoryCosmological   AnomalyCategory = "cosmological"
	CategoryStellar        AnomalyCategory = "stellar"
	CategoryQuantum        AnomalyCategory = "quantum"
	CategoryStructural     AnomalyCategory = "structural"
	CategoryElectromagnetic AnomalyCategory = "electromagnetic"
)

// AnomalyType enumerates the closed set of anomaly kinds the generator knows
// about. Represented as a tagged variant (a string enum with a side table of
// metadata in package anomaly) rather than a type hierarchy, so the
// determinism audit trail stays a flat, serializable record.
type AnomalyType string

const (
	AnomalyBlackHoleMerger    AnomalyType = "blackHoleMerger"
	AnomalyDarkEnergySurge    AnomalyType = "darkEnergySurge"
	AnomalySupernovaChain     AnomalyType = "supernovaChain"
	AnomalyQuantumFluctuation AnomalyType = "quantumFluctuation"
	AnomalyGalacticCollision  AnomalyType = "galacticCollision"
	AnomalyCosmicVoid         AnomalyType = "cosmicVoid"
	AnomalyMagneticReversal   AnomalyType = "magneticReversal"
	AnomalyDarkMatterClump    AnomalyType = "darkMatterClump"
)

// Location is a point in the universe's coordinate space, used only to give
// anomalies a plausible place of origin near the observer.
type Location struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	Z float64 `json:"z" bson:"z"`
}

// Anomaly is a discrete stochastic perturbation generated during a tick.
type Anomaly struct {
	ID          string                 `json:"id" bson:"id"`
	Type        AnomalyType            `json:"type" bson:"type"`
	Category    AnomalyCategory        `json:"category" bson:"category"`
	Severity    float64                `json:"severity" bson:"severity"`
	Timestamp   float64                `json:"timestamp" bson:"timestamp"`
	Resolved    bool                   `json:"resolved" bson:"resolved"`
	ResolvedAt  *time.Time             `json:"resolvedAt,omitempty" bson:"resolvedAt,omitempty"`
	EffectsRaw  map[string]float64     `json:"effectsRaw" bson:"effectsRaw"`
	Location    Location               `json:"location" bson:"location"`
	Radius      float64                `json:"radius" bson:"radius"`
	Description string                 `json:"description" bson:"description"`
	DecayRate   float64                `json:"decayRate" bson:"decayRate"`
}

// CivilizationType is the Kardashev-inspired development tier of a civilization.
type CivilizationType string

const (
	CivType0 CivilizationType = "Type0"
	CivType1 CivilizationType = "Type1"
	CivType2 CivilizationType = "Type2"
	CivType3 CivilizationType = "Type3"
)

// Civilization is one demographic entity evolving within a universe.
type Civilization struct {
	ID                string            `json:"id" bson:"id"`
	Type              CivilizationType  `json:"type" bson:"type"`
	CreatedAt         float64           `json:"createdAt" bson:"createdAt"`
	Age               float64           `json:"age" bson:"age"`
	DevelopmentLevel  float64           `json:"developmentLevel" bson:"developmentLevel"`
	Technology        float64           `json:"technology" bson:"technology"`
	Stability         float64           `json:"stability" bson:"stability"`
	Population        float64           `json:"population" bson:"population"`
	ResourceDepletion float64           `json:"resourceDepletion" bson:"resourceDepletion"`
	Warlikeness       float64           `json:"warlikeness" bson:"warlikeness"`
	Extinct           bool              `json:"extinct" bson:"extinct"`
	ExtinctionDate     float64          `json:"extinctionDate,omitempty" bson:"extinctionDate,omitempty"`
	ExtinctionAge      float64          `json:"extinctionAge,omitempty" bson:"extinctionAge,omitempty"`
	ExtinctionCause    string           `json:"extinctionCause,omitempty" bson:"extinctionCause,omitempty"`
}

// SignificantEvent is an append-only audit record of something noteworthy
// that happened during a tick.
type SignificantEvent struct {
	Timestamp   time.Time          `json:"timestamp" bson:"timestamp"`
	Age         float64            `json:"age" bson:"age"`
	AgeGyr      string             `json:"ageGyr" bson:"ageGyr"`
	Type        string             `json:"type" bson:"type"`
	Description string             `json:"description" bson:"description"`
	Effects     map[string]float64 `json:"effects,omitempty" bson:"effects,omitempty"`
}

// Metrics accumulates counters describing a universe's simulation history.
type Metrics struct {
	TicksSimulated          int64   `json:"ticksSimulated" bson:"ticksSimulated"`
	AnomaliesGenerated      int64   `json:"anomaliesGenerated" bson:"anomaliesGenerated"`
	AnomaliesResolved       int64   `json:"anomaliesResolved" bson:"anomaliesResolved"`
	PlayerInterventions     int64   `json:"playerInterventions" bson:"playerInterventions"`
	AnomalyResolutionRate   float64 `json:"anomalyResolutionRate" bson:"anomalyResolutionRate"`
	CivilizationsSpawned    int64   `json:"civilizationsSpawned" bson:"civilizationsSpawned"`
	CivilizationsExtinct    int64   `json:"civilizationsExtinct" bson:"civilizationsExtinct"`
	ComplexityIndex         float64 `json:"complexityIndex" bson:"complexityIndex"`
	LifePotentialIndex      float64 `json:"lifePotentialIndex" bson:"lifePotentialIndex"`
	CosmicHealth            float64 `json:"cosmicHealth" bson:"cosmicHealth"`
}

// Universe is the root persisted aggregate.
type Universe struct {
	ID                string               `json:"id" bson:"_id"`
	OwnerID           string               `json:"ownerId" bson:"ownerId"`
	Name              string               `json:"name" bson:"name"`
	Seed              string               `json:"seed" bson:"seed"`
	Difficulty        Difficulty           `json:"difficulty" bson:"difficulty"`
	Constants         Constants            `json:"constants" bson:"constants"`
	InitialConditions InitialConditions    `json:"initialConditions" bson:"initialConditions"`
	CurrentState      CurrentState         `json:"currentState" bson:"currentState"`
	Anomalies         []Anomaly            `json:"anomalies" bson:"anomalies"`
	Civilizations     []Civilization       `json:"civilizations" bson:"civilizations"`
	SignificantEvents []SignificantEvent   `json:"significantEvents" bson:"significantEvents"`
	Milestones        map[string]bool      `json:"milestones" bson:"milestones"`
	Metrics           Metrics              `json:"metrics" bson:"metrics"`
	Status            Status               `json:"status" bson:"status"`
	EndCondition       string              `json:"endCondition,omitempty" bson:"endCondition,omitempty"`
	EndReason          string              `json:"endReason,omitempty" bson:"endReason,omitempty"`
	FinalAge           float64             `json:"finalAge,omitempty" bson:"finalAge,omitempty"`
	StabilityHistory  []float64            `json:"stabilityHistory" bson:"stabilityHistory"`
	Version           int64                `json:"version" bson:"version"`
	CreatedAt         time.Time            `json:"createdAt" bson:"createdAt"`
	LastModified      time.Time            `json:"lastModified" bson:"lastModified"`
}

// New constructs a fresh universe owned by ownerID. An empty seed is replaced
// by a random UUID and a zero ic.ScaleFactor by 1.0; constants and the other
// initial conditions are used as given. The universe starts fully stable.
func New(ownerID, name, seed string, difficulty Difficulty, constants Constants, ic InitialConditions) *Universe {
	if seed == "" {
		seed = uuid.NewString()
	}
	scaleFactor := ic.ScaleFactor
	if scaleFactor == 0 {
		scaleFactor = 1.0
	}
	now := time.Now()
	u := &Universe{
		ID:                uuid.NewString(),
		OwnerID:           ownerID,
		Name:              name,
		Seed:              seed,
		Difficulty:        difficulty,
		Constants:         constants,
		InitialConditions: ic,
		CurrentState: CurrentState{
			Age:            ic.Age,
			ScaleFactor:    scaleFactor,
			Temperature:    constants.InitialTemperature,
			EnergyBudget:   1.0,
			StabilityIndex: 1.0,
			CosmicPhase:    PhaseDarkAges,
		},
		Anomalies:         make([]Anomaly, 0),
		Civilizations:     make([]Civilization, 0),
		SignificantEvents: make([]SignificantEvent, 0),
		Milestones:        make(map[string]bool),
		StabilityHistory:  make([]float64, 0, StabilityHistoryCap),
		Status:            StatusRunning,
		Version:           0,
		CreatedAt:         now,
		LastModified:      now,
	}
	return u
}

// Touch stamps LastModified; callers invoke it on every mutation.
func (u *Universe) Touch() {
	u.LastModified = time.Now()
}

// SetMilestone flips a milestone flag false->true exactly once; subsequent
// calls are no-ops, matching the one-shot-achievement invariant.
func (u *Universe) SetMilestone(name string) bool {
	if u.Milestones == nil {
		u.Milestones = make(map[string]bool)
	}
	if u.Milestones[name] {
		return false
	}
	u.Milestones[name] = true
	return true
}

// HasMilestone reports whether a milestone has already fired.
func (u *Universe) HasMilestone(name string) bool {
	return u.Milestones[name]
}

// AppendEvent records a significant event, evicting the oldest 500 in one
// operation once the list exceeds its 2000-entry cap (amortized FIFO).
func (u *Universe) AppendEvent(e SignificantEvent) {
	u.SignificantEvents = append(u.SignificantEvents, e)
	if len(u.SignificantEvents) > MaxSignificantEvents {
		u.SignificantEvents = append([]SignificantEvent(nil), u.SignificantEvents[SignificantEventEvictN:]...)
	}
}

// PushStability appends to the fixed-capacity stability-history ring,
// dropping the oldest sample once at capacity.
func (u *Universe) PushStability(v float64) {
	u.StabilityHistory = append(u.StabilityHistory, v)
	if len(u.StabilityHistory) > StabilityHistoryCap {
		u.StabilityHistory = u.StabilityHistory[len(u.StabilityHistory)-StabilityHistoryCap:]
	}
}

// StabilityTrend is mean(last 10) - mean(prior 10); zero when insufficient
// history exists.
func (u *Universe) StabilityTrend() float64 {
	h := u.StabilityHistory
	if len(h) < 20 {
		return 0
	}
	last10 := h[len(h)-10:]
	prior10 := h[len(h)-20 : len(h)-10]
	return mean(last10) - mean(prior10)
}

// MeanLast returns the mean of the last n stability-history samples (or
// fewer if history is shorter).
func (u *Universe) MeanLast(n int) float64 {
	h := u.StabilityHistory
	if len(h) == 0 {
		return 0
	}
	if n > len(h) {
		n = len(h)
	}
	return mean(h[len(h)-n:])
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// ActiveCivilizationCount returns the count of non-extinct civilizations.
func (u *Universe) ActiveCivilizationCount() int {
	n := 0
	for i := range u.Civilizations {
		if !u.Civilizations[i].Extinct {
			n++
		}
	}
	return n
}

// CullExtinctCivilizations retains every non-extinct civilization plus only
// the 100 most-recently-extinct records, discarding older extinctions.
func (u *Universe) CullExtinctCivilizations() {
	active := make([]Civilization, 0, len(u.Civilizations))
	extinct := make([]Civilization, 0)
	for _, c := range u.Civilizations {
		if c.Extinct {
			extinct = append(extinct, c)
		} else {
			active = append(active, c)
		}
	}
	if len(extinct) <= MaxRetainedExtinctCivs {
		u.Civilizations = append(active, extinct...)
		return
	}
	sort.Slice(extinct, func(i, j int) bool {
		return extinct[i].ExtinctionDate > extinct[j].ExtinctionDate
	})
	u.Civilizations = append(active, extinct[:MaxRetainedExtinctCivs]...)
}
