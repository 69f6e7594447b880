package universe

// DifficultyOptions are the per-run tuning knobs derived from a universe's
// Difficulty: §4.7 step 2.
type DifficultyOptions struct {
	TimeStepYears                float64
	DifficultyModifier           float64
	AnomalyProbabilityScale      float64
	MaxAnomalyPerStep            int
	ObservableGalaxiesMultiplier float64
}

// ResolveDifficultyOptions maps a Difficulty to its DifficultyOptions. Unknown
// values fall back to Beginner, the most forgiving tier.
func ResolveDifficultyOptions(d Difficulty) DifficultyOptions {
	switch d {
	case DifficultyIntermediate:
		return DifficultyOptions{
			TimeStepYears:                2e7,
			DifficultyModifier:           1.0,
			AnomalyProbabilityScale:      1.0,
			MaxAnomalyPerStep:            3,
			ObservableGalaxiesMultiplier: 1.0,
		}
	case DifficultyAdvanced:
		return DifficultyOptions{
			TimeStepYears:                1e7,
			DifficultyModifier:           1.3,
			AnomalyProbabilityScale:      1.5,
			MaxAnomalyPerStep:            5,
			ObservableGalaxiesMultiplier: 1.5,
		}
	default:
		return DifficultyOptions{
			TimeStepYears:                5e7,
			DifficultyModifier:           0.8,
			AnomalyProbabilityScale:      0.6,
			MaxAnomalyPerStep:            2,
			ObservableGalaxiesMultiplier: 0.5,
		}
	}
}
