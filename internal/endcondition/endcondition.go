// Package endcondition evaluates universe-termination predicates and emits
// non-fatal warnings as thresholds are approached.
package endcondition

import (
	"time"

	"cosmos-backend/internal/universe"
)

// Options carries the difficulty-derived modifier the thresholds scale by.
type Options struct {
	DifficultyModifier float64
}

// Result reports whether a universe ended this tick and, if so, why.
type Result struct {
	Ended     bool
	Condition string
	Reason    string
}

// predicate is one ordered, named termination check.
type predicate struct {
	name  string
	check func(s *universe.CurrentState, u *universe.Universe, mod float64) (bool, string)
}

var predicates = []predicate{
	{
		name: "instability-collapse",
		check: func(s *universe.CurrentState, u *universe.Universe, mod float64) (bool, string) {
			if s.StabilityIndex < 0.05/mod && u.MeanLast(10) < 0.10/mod {
				return true, "stability index collapsed below the survivable threshold"
			}
			return false, ""
		},
	},
	{
		name: "heat-death",
		check: func(s *universe.CurrentState, u *universe.Universe, mod float64) (bool, string) {
			if s.AgeGyr() > 200/mod && s.EnergyBudget < 0.05 {
				return true, "usable energy budget exhausted as the universe approaches heat death"
			}
			return false, ""
		},
	},
	{
		name: "stellar-death",
		check: func(s *universe.CurrentState, u *universe.Universe, mod float64) (bool, string) {
			if s.AgeGyr() > 80 && s.StarCount < 1e4 && s.EnergyBudget < 0.08 {
				return true, "stellar populations have died out and energy reserves are depleted"
			}
			return false, ""
		},
	},
	{
		name: "big-rip",
		check: func(s *universe.CurrentState, u *universe.Universe, mod float64) (bool, string) {
			if s.ScaleFactor > 1e9 {
				return true, "runaway expansion has torn the universe's structure apart"
			}
			return false, ""
		},
	},
	{
		name: "big-crunch",
		check: func(s *universe.CurrentState, u *universe.Universe, mod float64) (bool, string) {
			if s.ScaleFactor < 1e-8 {
				return true, "the universe has recollapsed to a singularity"
			}
			return false, ""
		},
	},
	{
		name: "maximum-entropy",
		check: func(s *universe.CurrentState, u *universe.Universe, mod float64) (bool, string) {
			if s.Entropy > 2e15 && s.EnergyBudget < 0.02 {
				return true, "entropy has reached its maximum with no usable energy remaining"
			}
			return false, ""
		},
	},
}

// Check evaluates the ordered predicate chain; the first match terminates.
// On a match, the universe's lifecycle fields are updated and a
// `universe_end` event is appended.
func Check(u *universe.Universe, opts Options) Result {
	result := evaluate(u, opts)
	if !result.Ended {
		return result
	}
	u.Status = universe.StatusEnded
	u.EndCondition = result.Condition
	u.EndReason = result.Reason
	u.FinalAge = u.CurrentState.Age
	u.AppendEvent(universe.SignificantEvent{
		Timestamp:   time.Now(),
		Age:         u.CurrentState.Age,
		Type:        "universe_end",
		Description: result.Reason,
		Effects:     map[string]float64{},
	})
	u.Touch()
	return result
}

// Peek evaluates the same ordered predicate chain as Check but never
// mutates u, for read-only callers (e.g. a status-reporting endpoint) that
// must not flip a universe's lifecycle state as a side effect of a GET.
func Peek(u *universe.Universe, opts Options) Result {
	return evaluate(u, opts)
}

func evaluate(u *universe.Universe, opts Options) Result {
	mod := opts.DifficultyModifier
	if mod <= 0 {
		mod = 1.0
	}
	s := &u.CurrentState

	for _, p := range predicates {
		if ended, reason := p.check(s, u, mod); ended {
			return Result{Ended: true, Condition: p.name, Reason: reason}
		}
	}
	return Result{}
}
