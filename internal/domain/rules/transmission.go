// Package rules contains the pure calculation logic for the daily update.
// This package is PURE and must NOT import any infrastructure packages.
//
// Every ratio is computed in float64. Counts, populations and commuting flows
// are promoted before division so small fractions never truncate to zero.
package rules

import (
	"math"

	"github.com/ljavorsk/IMS-project/internal/domain/epidemic"
)

// InfectedFraction is the local prevalence I[d] / population[d].
func InfectedFraction(st *epidemic.State, d int) float64 {
	return float64(st.I[d]) / float64(st.Population(d))
}

// SusceptibleFraction is s[d] / population[d]. The denominator is the static
// population, so this is not a true proportion once s+I+r has drifted.
func SusceptibleFraction(st *epidemic.State, d int) float64 {
	return float64(st.S[d]) / float64(st.Population(d))
}

// Inflow is the number of people commuting into region d each day.
func Inflow(st *epidemic.State, d int) int {
	total := 0
	for i := range st.Commuting {
		if i != d {
			total += st.Commuting[i][d]
		}
	}
	return total
}

// Outflow is the number of people commuting out of region d each day.
func Outflow(st *epidemic.State, d int) int {
	total := 0
	for i, v := range st.Commuting[d] {
		if i != d {
			total += v
		}
	}
	return total
}

// EffectivePopulation is the resident denominator population - inflow + outflow.
func EffectivePopulation(st *epidemic.State, d int) int {
	return st.Population(d) - Inflow(st, d) + Outflow(st, d)
}

// MixingPressure is the exposure the outbound commuters of d accumulate from
// the infected fractions of every destination.
func MixingPressure(st *epidemic.State, p epidemic.Params, d int) float64 {
	total := 0.0
	for i, v := range st.Commuting[d] {
		if i != d {
			total += float64(v) * InfectedFraction(st, i) * p.Beta
		}
	}
	return total
}

// CrossRegionInfectionPressure approximates infection acquired elsewhere and
// brought back home to d.
func CrossRegionInfectionPressure(st *epidemic.State, p epidemic.Params, d int) (float64, error) {
	v, err := NewView(st, p)
	if err != nil {
		return 0, err
	}
	return v.CrossRegionInfectionPressure(d), nil
}

// NextSusceptible computes tomorrow's susceptible count for region d.
func NextSusceptible(st *epidemic.State, p epidemic.Params, d int) (int, error) {
	step, err := next(st, p, d)
	if err != nil {
		return 0, err
	}
	return step.S, nil
}

// NextInfected computes tomorrow's infected count for region d.
func NextInfected(st *epidemic.State, p epidemic.Params, d int) (int, error) {
	step, err := next(st, p, d)
	if err != nil {
		return 0, err
	}
	return step.I, nil
}

// RecoveredIncrement adds the classic local recovery GAMMA*I to r. The sum is
// truncated toward zero when stored back as a count.
func RecoveredIncrement(r, infected int, p epidemic.Params) int {
	return int(float64(r) + p.Gamma*float64(infected))
}

func next(st *epidemic.State, p epidemic.Params, d int) (Step, error) {
	v, err := NewView(st, p)
	if err != nil {
		return Step{}, err
	}
	return v.Next(d)
}

// round matches the reference rounding: nearest, halves away from zero.
func round(x float64) int {
	return int(math.Round(x))
}
