package gmath

import "math"

// RisePct returns the percentage rise of price above ref: 100 * (price - ref) / ref.
// The bool is false when ref is not strictly positive, in which case the
// percentage is meaningless and the caller must skip the evaluation step.
func RisePct(ref, price float64) (float64, bool) {
	if ref <= 0 || math.IsNaN(ref) || math.IsInf(ref, 0) {
		return 0, false
	}
	return (price - ref) / ref * 100, true
}

// FallPct returns the percentage fall of price below ref: 100 * (ref - price) / ref.
func FallPct(ref, price float64) (float64, bool) {
	if ref <= 0 || math.IsNaN(ref) || math.IsInf(ref, 0) {
		return 0, false
	}
	return (ref - price) / ref * 100, true
}

// FloorMultiple returns how many whole steps fit into pct, never less than 1.
// A non-positive step disables scaling and yields 1.
func FloorMultiple(pct, step float64) float64 {
	if step <= 0 {
		return 1
	}
	m := math.Floor(pct / step)
	if m < 1 {
		return 1
	}
	return m
}

// CeilMultiple returns the number of steps covering pct, rounded up, never less than 1.
func CeilMultiple(pct, step float64) float64 {
	if step <= 0 {
		return 1
	}
	m := math.Ceil(pct / step)
	if m < 1 {
		return 1
	}
	return m
}
