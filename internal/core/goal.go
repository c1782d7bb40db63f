package core

import "math"

// Progress describes how far a goal is from its target.
type Progress struct {
	Ratio   float64 // current/target*100, unclamped
	Percent int     // Ratio rounded for display
	Width   int     // bar width, clamped to [0,100]
	Valid   bool    // false when the target is not positive
}

// Progress computes the goal's progress. A non-positive target is reported as
// invalid with 0% everywhere.
func (g SavingsGoal) Progress() Progress {
	return GoalProgress(g.CurrentAmount, g.TargetAmount)
}

func GoalProgress(current, target Money) Progress {
	if target.Cents <= 0 {
		return Progress{}
	}
	ratio := float64(current.Cents) / float64(target.Cents) * 100
	percent := roundPercent(ratio)
	return Progress{
		Ratio:   ratio,
		Percent: percent,
		Width:   clampPercent(percent),
		Valid:   true,
	}
}

// Remaining is how much is still missing, never negative.
func (g SavingsGoal) Remaining() Money {
	if g.CurrentAmount.Cents >= g.TargetAmount.Cents {
		return Money{}
	}
	return g.TargetAmount.Sub(g.CurrentAmount)
}

func roundPercent(v float64) int {
	return int(math.Round(v))
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
