package epidemic

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoRegions() []Region {
	return []Region{
		{Code: "A", Name: "Alpha", Population: 1000},
		{Code: "B", Name: "Beta", Population: 500},
	}
}

func TestNewStateSeedsSusceptible(t *testing.T) {
	st, err := NewState(twoRegions(), [][]int{{0, 10}, {20, 0}}, []int{10, 5}, []int{40, 0})
	require.NoError(t, err)

	assert.Equal(t, []int{950, 495}, st.S)
	assert.Equal(t, []int{10, 5}, st.I)
	assert.Equal(t, []int{40, 0}, st.R)
	assert.Equal(t, Totals{Susceptible: 1445, Infected: 15, Recovered: 40}, st.DailyTotals())
}

func TestNewStateRejectsInvalidSeed(t *testing.T) {
	_, err := NewState(twoRegions(), [][]int{{0, 0}, {0, 0}}, []int{10, 400}, []int{0, 101})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSeed))

	var regionErr *RegionError
	require.True(t, errors.As(err, &regionErr))
	assert.Equal(t, 1, regionErr.Region)
	assert.Equal(t, "B", regionErr.Code)
	assert.Equal(t, QuantitySusceptible, regionErr.Quantity)
	assert.Equal(t, -1.0, regionErr.Value)
}

func TestNewStateRejectsNegativeSeed(t *testing.T) {
	_, err := NewState(twoRegions(), [][]int{{0, 0}, {0, 0}}, []int{-1, 0}, []int{0, 0})
	assert.ErrorIs(t, err, ErrInvalidSeed)
}

func TestNewStateRejectsSelfLoop(t *testing.T) {
	_, err := NewState(twoRegions(), [][]int{{5, 0}, {0, 0}}, []int{1, 1}, []int{0, 0})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidScenario)

	var regionErr *RegionError
	require.True(t, errors.As(err, &regionErr))
	assert.Equal(t, QuantityCommuting, regionErr.Quantity)
	assert.Contains(t, err.Error(), "self-loop")
}

func TestNewStateRejectsMalformedInputs(t *testing.T) {
	tests := []struct {
		name      string
		regions   []Region
		commuting [][]int
		infected  []int
		recovered []int
	}{
		{"no regions", nil, nil, nil, nil},
		{"short matrix", twoRegions(), [][]int{{0, 0}}, []int{1, 1}, []int{0, 0}},
		{"ragged row", twoRegions(), [][]int{{0, 0}, {0}}, []int{1, 1}, []int{0, 0}},
		{"negative flow", twoRegions(), [][]int{{0, -3}, {0, 0}}, []int{1, 1}, []int{0, 0}},
		{"seed length", twoRegions(), [][]int{{0, 0}, {0, 0}}, []int{1}, []int{0, 0}},
		{"zero population", []Region{{Code: "Z"}}, [][]int{{0}}, []int{0}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewState(tt.regions, tt.commuting, tt.infected, tt.recovered)
			assert.ErrorIs(t, err, ErrInvalidScenario)
		})
	}
}

func TestCloneIsIndependent(t *testing.T) {
	st, err := NewState(twoRegions(), [][]int{{0, 0}, {0, 0}}, []int{1, 2}, []int{0, 0})
	require.NoError(t, err)

	c := st.Clone()
	c.I[0] = 99
	assert.Equal(t, 1, st.I[0])
	assert.Equal(t, st.Regions, c.Regions)
}

func TestParams(t *testing.T) {
	p := ReferenceParams()
	assert.InDelta(t, 1.918, p.R0(), 0.001)
	assert.False(t, p.ThetaInRange())
	assert.True(t, Params{Theta: 0.4}.ThetaInRange())
	assert.Zero(t, Params{Beta: 1}.R0())
}

func TestRegionErrorMessage(t *testing.T) {
	err := &RegionError{Region: 7, Code: "KE", Quantity: QuantityInfected, Value: -41, Err: ErrNegativeCompartment}
	assert.Equal(t, "region KE: infected = -41: negative compartment", err.Error())

	anon := &RegionError{Region: 2, Quantity: QuantityRecovered, Value: -1, Err: ErrNegativeCompartment}
	assert.Contains(t, anon.Error(), "region #2")
}
