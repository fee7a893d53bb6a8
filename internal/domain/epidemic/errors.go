package epidemic

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSeed is returned when seed infected+recovered exceed a region's population.
	ErrInvalidSeed = errors.New("invalid seed")

	// ErrDegenerateRegion is returned when a denominator used by the update is zero
	// or the update produces a non-finite value.
	ErrDegenerateRegion = errors.New("degenerate region")

	// ErrNegativeCompartment is returned when a computed compartment count drops below zero.
	ErrNegativeCompartment = errors.New("negative compartment")

	// ErrInvalidScenario covers structural problems with the static inputs.
	ErrInvalidScenario = errors.New("invalid scenario")
)

// Quantity names the value that failed inside a RegionError.
type Quantity string

const (
	QuantitySusceptible         Quantity = "susceptible"
	QuantityInfected            Quantity = "infected"
	QuantityRecovered           Quantity = "recovered"
	QuantityPopulation          Quantity = "population"
	QuantityEffectivePopulation Quantity = "effective_population"
	QuantityCommuting           Quantity = "commuting"
)

// RegionError reports which region and which quantity broke a model boundary.
type RegionError struct {
	Region   int
	Code     string
	Quantity Quantity
	Value    float64
	Err      error
}

func (e *RegionError) Error() string {
	name := e.Code
	if name == "" {
		name = fmt.Sprintf("#%d", e.Region)
	}
	return fmt.Sprintf("region %s: %s = %g: %v", name, e.Quantity, e.Value, e.Err)
}

func (e *RegionError) Unwrap() error {
	return e.Err
}
