package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljavorsk/IMS-project/internal/domain/epidemic"
)

const tinyScenario = `
name: tiny
days: 3
params: {beta: 0.2, gamma: 0.1, theta: 0.5, alfa: 0.5}
regions:
  - {code: A, population: 1000, seed_infected: 10, seed_recovered: 0}
  - {code: B, population: 2000, seed_infected: 0, seed_recovered: 5}
commuting:
  - [0, 50]
  - [20, 0]
`

func TestReference(t *testing.T) {
	sc, err := Reference()
	require.NoError(t, err)

	assert.Equal(t, "slovakia", sc.Name)
	assert.Equal(t, 61, sc.Days)
	assert.Equal(t, 5, sc.ReportEvery)
	assert.Equal(t, 56, sc.InitialNewCases)
	assert.Equal(t, "abort", sc.NegativePolicy)
	require.Len(t, sc.Regions, 8)
	assert.Equal(t, "BA", sc.Regions[0].Code)
	assert.Equal(t, "Banska Bystrica", sc.Regions[5].Name)
	assert.Equal(t, 83400, sc.Commuting[7][6])
	assert.Equal(t, epidemic.ReferenceParams(), sc.EpidemicParams())

	st, err := sc.State()
	require.NoError(t, err)
	assert.Equal(t, 668941, st.S[0])
}

func TestParseDefaults(t *testing.T) {
	sc, err := Parse([]byte(tinyScenario))
	require.NoError(t, err)
	assert.Equal(t, "abort", sc.NegativePolicy)
	assert.Zero(t, sc.ReportEvery)

	st, err := sc.State()
	require.NoError(t, err)
	assert.Equal(t, []int{990, 1995}, st.S)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"unknown key", tinyScenario + "gama: 0.1\n", epidemic.ErrInvalidScenario},
		{"bad policy", tinyScenario + "negative_policy: clamp\n", epidemic.ErrInvalidScenario},
		{"alfa above one", `
name: x
days: 1
params: {beta: 0.2, gamma: 0.1, theta: 0, alfa: 1.5}
regions: [{code: A, population: 10, seed_infected: 1, seed_recovered: 0}]
commuting: [[0]]
`, epidemic.ErrInvalidScenario},
		{"negative flow", `
name: x
days: 1
params: {beta: 0.2, gamma: 0.1, theta: 0, alfa: 0}
regions:
  - {code: A, population: 10, seed_infected: 1, seed_recovered: 0}
  - {code: B, population: 10, seed_infected: 1, seed_recovered: 0}
commuting: [[0, -1], [0, 0]]
`, epidemic.ErrInvalidScenario},
		{"self loop", `
name: x
days: 1
params: {beta: 0.2, gamma: 0.1, theta: 0, alfa: 0}
regions: [{code: A, population: 10, seed_infected: 1, seed_recovered: 0}]
commuting: [[3]]
`, epidemic.ErrInvalidScenario},
		{"seed too large", `
name: x
days: 1
params: {beta: 0.2, gamma: 0.1, theta: 0, alfa: 0}
regions: [{code: A, population: 10, seed_infected: 6, seed_recovered: 5}]
commuting: [[0]]
`, epidemic.ErrInvalidSeed},
		{"duplicate code", `
name: x
days: 1
params: {beta: 0.2, gamma: 0.1, theta: 0, alfa: 0}
regions:
  - {code: A, population: 10, seed_infected: 1, seed_recovered: 0}
  - {code: A, population: 10, seed_infected: 1, seed_recovered: 0}
commuting: [[0, 0], [0, 0]]
`, epidemic.ErrInvalidScenario},
		{"missing regions", "name: x\ndays: 1\ncommuting: [[0]]\n", epidemic.ErrInvalidScenario},
		{"not yaml", "{{{", epidemic.ErrInvalidScenario},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLoadAndMarshalRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.yaml")
	require.NoError(t, os.WriteFile(path, []byte(tinyScenario), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)

	out, err := sc.Marshal()
	require.NoError(t, err)
	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, sc, again)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestReferenceYAMLIsACopy(t *testing.T) {
	raw := ReferenceYAML()
	raw[0] = 'X'
	_, err := Reference()
	assert.NoError(t, err)
}
