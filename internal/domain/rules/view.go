package rules

import (
	"math"

	"github.com/ljavorsk/IMS-project/internal/domain/epidemic"
)

// Step is the next-day outcome for one region.
type Step struct {
	S int
	I int
	R int

	// Unrounded values, kept for diagnostics.
	RawS float64
	RawI float64
}

// View caches the supporting quantities of one immutable snapshot.
// It must not outlive the day it was built for: the caller commits the new
// compartments only after every region has been computed from the same View.
type View struct {
	st *epidemic.State
	p  epidemic.Params

	x       []float64 // infected fraction
	y       []float64 // susceptible fraction
	inflow  []float64
	outflow []float64
	mixing  []float64
	eff     []float64 // population - inflow + outflow
}

// NewView validates the denominators of every region and precomputes the
// per-region quantities. A zero population or effective population yields
// ErrDegenerateRegion instead of NaN/Inf further down.
func NewView(st *epidemic.State, p epidemic.Params) (*View, error) {
	n := st.Len()
	v := &View{
		st:      st,
		p:       p,
		x:       make([]float64, n),
		y:       make([]float64, n),
		inflow:  make([]float64, n),
		outflow: make([]float64, n),
		mixing:  make([]float64, n),
		eff:     make([]float64, n),
	}

	for d := 0; d < n; d++ {
		pop := st.Population(d)
		if pop == 0 {
			return nil, &epidemic.RegionError{Region: d, Code: st.Regions[d].Code,
				Quantity: epidemic.QuantityPopulation, Value: 0, Err: epidemic.ErrDegenerateRegion}
		}
		in, out := Inflow(st, d), Outflow(st, d)
		eff := pop - in + out
		if eff == 0 {
			return nil, &epidemic.RegionError{Region: d, Code: st.Regions[d].Code,
				Quantity: epidemic.QuantityEffectivePopulation, Value: 0, Err: epidemic.ErrDegenerateRegion}
		}
		v.x[d] = InfectedFraction(st, d)
		v.y[d] = SusceptibleFraction(st, d)
		v.inflow[d] = float64(in)
		v.outflow[d] = float64(out)
		v.eff[d] = float64(eff)
	}

	// Mixing needs every infected fraction first.
	for d := 0; d < n; d++ {
		total := 0.0
		for i, m := range st.Commuting[d] {
			if i != d {
				total += float64(m) * v.x[i] * p.Beta
			}
		}
		v.mixing[d] = total
	}
	return v, nil
}

// MixingPressure returns the cached mixing pressure of d.
func (v *View) MixingPressure(d int) float64 {
	return v.mixing[d]
}

// EffectivePopulation returns the cached effective denominator of d.
func (v *View) EffectivePopulation(d int) float64 {
	return v.eff[d]
}

// CrossRegionInfectionPressure sums, over every other region i, the excess
// infected count of i after netting out inbound commuters, scaled by BETA,
// plus i's own mixing pressure, weighted by the commuters from i into d and
// normalized by i's effective population.
func (v *View) CrossRegionInfectionPressure(d int) float64 {
	total := 0.0
	for i := range v.st.Commuting {
		if i == d {
			continue
		}
		excess := float64(v.st.I[i]) - v.x[i]*v.inflow[i]
		pressure := excess*v.p.Beta + v.mixing[i]
		total += float64(v.st.Commuting[i][d]) * pressure / v.eff[i]
	}
	return total
}

// commuterTerms returns the two ALFA-weighted contributions shared by the
// susceptible and infected updates.
func (v *View) commuterTerms(d int) (home, away float64) {
	s := float64(v.st.S[d])
	inf := float64(v.st.I[d])
	weight := v.p.Alfa * (1 - v.p.Theta)

	home = weight * (((s - v.y[d]*v.inflow[d]) *
		(v.mixing[d] + (inf-v.x[d]*v.inflow[d])*v.p.Beta)) / v.eff[d])
	away = weight * v.y[d] * v.CrossRegionInfectionPressure(d)
	return home, away
}

// Next computes region d's next-day compartments from the snapshot.
func (v *View) Next(d int) (Step, error) {
	s := float64(v.st.S[d])
	inf := float64(v.st.I[d])
	pop := float64(v.st.Population(d))

	local := v.p.Theta * s * inf * v.p.Beta / pop
	home, away := v.commuterTerms(d)

	nowS := s - local
	nowS -= home
	nowS -= away

	nowI := inf + local - v.p.Gamma*inf
	nowI += home
	nowI += away

	code := v.st.Regions[d].Code
	if !representable(nowS) {
		return Step{}, &epidemic.RegionError{Region: d, Code: code,
			Quantity: epidemic.QuantitySusceptible, Value: nowS, Err: epidemic.ErrDegenerateRegion}
	}
	if !representable(nowI) {
		return Step{}, &epidemic.RegionError{Region: d, Code: code,
			Quantity: epidemic.QuantityInfected, Value: nowI, Err: epidemic.ErrDegenerateRegion}
	}

	return Step{
		S:    round(nowS),
		I:    round(nowI),
		R:    RecoveredIncrement(v.st.R[d], v.st.I[d], v.p),
		RawS: nowS,
		RawI: nowI,
	}, nil
}

// maxCount is the largest magnitude a float64 holds as an exact integer.
const maxCount = 1 << 53

// representable rejects NaN, Inf and magnitudes that no longer round to an
// exact count.
func representable(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && math.Abs(x) <= maxCount
}
