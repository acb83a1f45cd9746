// This file implements billing-cycle normalization: re-expressing a per-cycle
// charge as equivalent monthly and yearly figures so that subscriptions with
// different cadences can be aggregated together.

package core

// weeksPerMonth approximates the average number of weeks in a month (52/12).
// The approximation is deliberate: weekly charges land on varying days, so an
// exact per-month figure does not exist.
const weeksPerMonth = 4.33

// CycleRates holds the multipliers that convert one billing-cycle charge into
// its monthly and yearly contributions.
type CycleRates struct {
	PerMonth float64
	PerYear  float64
}

// cycleRates maps billing cycles to their normalization rates.
// This registry enables O(1) lookup and easy extension for new cycles.
var cycleRates = map[BillingCycle]CycleRates{
	Weekly:    {PerMonth: weeksPerMonth, PerYear: 52},
	Monthly:   {PerMonth: 1, PerYear: 12},
	Quarterly: {PerMonth: 1.0 / 3, PerYear: 4},
	Yearly:    {PerMonth: 1.0 / 12, PerYear: 1},
}

// RatesFor returns the normalization rates for a billing cycle. Unrecognized
// cycles fall back to the Monthly rates so that new or malformed cycle strings
// never break aggregation.
func RatesFor(cycle BillingCycle) CycleRates {
	if r, ok := cycleRates[cycle]; ok {
		return r
	}
	return cycleRates[Monthly]
}

// Normalize converts a per-cycle amount into its monthly-equivalent and
// yearly-equivalent contributions. Pure function of its two inputs.
func Normalize(amount Money, cycle BillingCycle) (monthly, yearly float64) {
	r := RatesFor(cycle)
	v := amount.Float64()
	return v * r.PerMonth, v * r.PerYear
}
