// Package mathx collects the small numeric helpers shared by the simulation
// kernel's formula-heavy packages (physics, anomaly, civilization,
// endcondition, predictor). None of these have a natural third-party home —
// they are arithmetic one-liners over float64, not a domain a math library
// package in the corpus addresses.
package mathx

// Clamp restricts v to [min, max].
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Max0 returns v if positive, else 0.
func Max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
