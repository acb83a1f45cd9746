package core

import "math"

// Summary is the overall spend picture across a subscription collection.
// Totals cover Active subscriptions only; everything that is not Active
// counts as paused (complement, not a separate filter).
type Summary struct {
	MonthlyTotal float64 `json:"monthlyTotal"`
	YearlyTotal  float64 `json:"yearlyTotal"`
	ActiveCount  int     `json:"activeCount"`
	PausedCount  int     `json:"pausedCount"`
	TotalCount   int     `json:"totalCount"`
}

// Summarize folds normalized contributions across the collection. Totals are
// rounded half-up to 2 decimals once, at the final sum, not per item. An empty
// input yields the zero summary.
func Summarize(subs []Subscription) Summary {
	var s Summary
	var monthly, yearly float64
	for _, sub := range subs {
		s.TotalCount++
		if sub.Status != StatusActive {
			continue
		}
		s.ActiveCount++
		m, y := Normalize(sub.Amount, sub.BillingCycle)
		monthly += m
		yearly += y
	}
	s.PausedCount = s.TotalCount - s.ActiveCount
	s.MonthlyTotal = round2(monthly)
	s.YearlyTotal = round2(yearly)
	return s
}

// round2 rounds half-up to 2 decimals. Totals are non-negative, so
// math.Round's half-away-from-zero is exactly half-up here.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
