package epidemic

import "fmt"

// Region is one geographic unit with a fixed population.
type Region struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	Population int    `json:"population"`
}

// Totals is the sum of every compartment across all regions.
type Totals struct {
	Susceptible int `json:"susceptible"`
	Infected    int `json:"infected"`
	Recovered   int `json:"recovered"`
}

// State holds the static inputs and the mutable per-region compartments.
// Regions and Commuting never change after NewState; S, I and R are
// overwritten once per simulated day.
type State struct {
	Regions   []Region
	Commuting [][]int // Commuting[i][j] people travel from region i to region j each day

	S []int
	I []int
	R []int
}

// NewState seeds the compartments: I = seedInfected, R = seedRecovered,
// S = population - I - R. A seed larger than the population is rejected.
func NewState(regions []Region, commuting [][]int, seedInfected, seedRecovered []int) (*State, error) {
	n := len(regions)
	if n == 0 {
		return nil, fmt.Errorf("%w: no regions", ErrInvalidScenario)
	}
	if len(seedInfected) != n || len(seedRecovered) != n {
		return nil, fmt.Errorf("%w: %d regions but %d infected and %d recovered seeds",
			ErrInvalidScenario, n, len(seedInfected), len(seedRecovered))
	}
	if err := validateCommuting(regions, commuting); err != nil {
		return nil, err
	}

	st := &State{
		Regions:   append([]Region(nil), regions...),
		Commuting: make([][]int, n),
		S:         make([]int, n),
		I:         make([]int, n),
		R:         make([]int, n),
	}
	for i, row := range commuting {
		st.Commuting[i] = append([]int(nil), row...)
	}

	for d, reg := range regions {
		if reg.Population <= 0 {
			return nil, &RegionError{Region: d, Code: reg.Code, Quantity: QuantityPopulation,
				Value: float64(reg.Population), Err: ErrInvalidScenario}
		}
		if seedInfected[d] < 0 {
			return nil, &RegionError{Region: d, Code: reg.Code, Quantity: QuantityInfected,
				Value: float64(seedInfected[d]), Err: ErrInvalidSeed}
		}
		if seedRecovered[d] < 0 {
			return nil, &RegionError{Region: d, Code: reg.Code, Quantity: QuantityRecovered,
				Value: float64(seedRecovered[d]), Err: ErrInvalidSeed}
		}
		s := reg.Population - seedInfected[d] - seedRecovered[d]
		if s < 0 {
			return nil, &RegionError{Region: d, Code: reg.Code, Quantity: QuantitySusceptible,
				Value: float64(s), Err: ErrInvalidSeed}
		}
		st.I[d] = seedInfected[d]
		st.R[d] = seedRecovered[d]
		st.S[d] = s
	}
	return st, nil
}

// validateCommuting requires a square, non-negative matrix with a zero diagonal.
func validateCommuting(regions []Region, m [][]int) error {
	n := len(regions)
	if len(m) != n {
		return fmt.Errorf("%w: commuting matrix has %d rows, want %d", ErrInvalidScenario, len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return fmt.Errorf("%w: commuting row %d has %d columns, want %d", ErrInvalidScenario, i, len(row), n)
		}
		for j, v := range row {
			if v < 0 {
				return &RegionError{Region: i, Code: regions[i].Code, Quantity: QuantityCommuting,
					Value: float64(v), Err: fmt.Errorf("%w: negative flow to region %d", ErrInvalidScenario, j)}
			}
			if i == j && v != 0 {
				return &RegionError{Region: i, Code: regions[i].Code, Quantity: QuantityCommuting,
					Value: float64(v), Err: fmt.Errorf("%w: self-loop on the diagonal", ErrInvalidScenario)}
			}
		}
	}
	return nil
}

// Len returns the number of regions.
func (s *State) Len() int {
	return len(s.Regions)
}

// Population returns the static population of region d.
func (s *State) Population(d int) int {
	return s.Regions[d].Population
}

// DailyTotals sums S, I and R across all regions. Used for reporting only.
func (s *State) DailyTotals() Totals {
	var t Totals
	for d := range s.Regions {
		t.Susceptible += s.S[d]
		t.Infected += s.I[d]
		t.Recovered += s.R[d]
	}
	return t
}

// Clone copies the compartments. Regions and Commuting are shared since they
// are never mutated.
func (s *State) Clone() *State {
	return &State{
		Regions:   s.Regions,
		Commuting: s.Commuting,
		S:         append([]int(nil), s.S...),
		I:         append([]int(nil), s.I...),
		R:         append([]int(nil), s.R...),
	}
}
