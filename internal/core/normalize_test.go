package core

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		cents       int64
		cycle       BillingCycle
		wantMonthly float64
		wantYearly  float64
	}{
		{
			name:        "weekly uses the 4.33 weeks-per-month approximation",
			cents:       1000,
			cycle:       Weekly,
			wantMonthly: 43.30,
			wantYearly:  520,
		},
		{
			name:        "monthly is identity per month",
			cents:       3000,
			cycle:       Monthly,
			wantMonthly: 30,
			wantYearly:  360,
		},
		{
			name:        "quarterly spreads over three months",
			cents:       9000,
			cycle:       Quarterly,
			wantMonthly: 30,
			wantYearly:  360,
		},
		{
			name:        "yearly spreads over twelve months",
			cents:       12000,
			cycle:       Yearly,
			wantMonthly: 10,
			wantYearly:  120,
		},
		{
			name:        "unrecognized cycle falls back to monthly",
			cents:       10000,
			cycle:       BillingCycle("Fortnightly"),
			wantMonthly: 100,
			wantYearly:  1200,
		},
		{
			name:        "empty cycle falls back to monthly",
			cents:       500,
			cycle:       BillingCycle(""),
			wantMonthly: 5,
			wantYearly:  60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			monthly, yearly := Normalize(Money{Cents: tt.cents}, tt.cycle)
			if !approxEqual(monthly, tt.wantMonthly) {
				t.Errorf("Normalize() monthly = %v, want %v", monthly, tt.wantMonthly)
			}
			if !approxEqual(yearly, tt.wantYearly) {
				t.Errorf("Normalize() yearly = %v, want %v", yearly, tt.wantYearly)
			}
		})
	}
}

// The yearly figure divided by 12 should match the monthly figure exactly for
// Monthly, Quarterly and Yearly. Weekly differs because 4.33 only
// approximates 52/12; the drift stays under one percent.
func TestNormalize_YearlyMonthlyConsistency(t *testing.T) {
	amount := Money{Cents: 9999}

	for _, cycle := range []BillingCycle{Monthly, Quarterly, Yearly} {
		monthly, yearly := Normalize(amount, cycle)
		if !approxEqual(yearly/12, monthly) {
			t.Errorf("cycle %s: yearly/12 = %v, want %v", cycle, yearly/12, monthly)
		}
	}

	monthly, yearly := Normalize(amount, Weekly)
	if rel := math.Abs(yearly/12-monthly) / monthly; rel > 0.01 {
		t.Errorf("weekly drift %v exceeds 1%%", rel)
	}
}

func TestRatesFor_UnknownCycleMatchesMonthly(t *testing.T) {
	if RatesFor(BillingCycle("Biweekly")) != RatesFor(Monthly) {
		t.Error("RatesFor() unknown cycle should fall back to monthly rates")
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
