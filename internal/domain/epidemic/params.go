// Package epidemic defines the model state of the commuter-coupled regional epidemic.
// This package is PURE and must NOT import any infrastructure packages.
package epidemic

// Params are the epidemiological constants shared by every region and every day.
type Params struct {
	Beta  float64 `json:"beta" yaml:"beta"`   // transmission rate per contact
	Gamma float64 `json:"gamma" yaml:"gamma"` // fraction of infected recovering per day
	Theta float64 `json:"theta" yaml:"theta"` // scale of the local transmission term
	Alfa  float64 `json:"alfa" yaml:"alfa"`   // weight of commuter-mediated transmission, <0, 1>
}

// ReferenceParams are the constants of the Slovak reference run.
func ReferenceParams() Params {
	return Params{
		Beta:  0.03405,
		Gamma: 0.01775,
		Theta: 16,
		Alfa:  0.9,
	}
}

// R0 is the basic reproduction number. It is reported only, the update never reads it.
func (p Params) R0() float64 {
	if p.Gamma == 0 {
		return 0
	}
	return p.Beta / p.Gamma
}

// ThetaInRange reports whether Theta behaves as a rate.
// Outside [0,1] the local term dominates (Theta > 1) or the commuter terms
// change sign (1-Theta < 0). Such values are kept as configured.
func (p Params) ThetaInRange() bool {
	return p.Theta >= 0 && p.Theta <= 1
}
