// Package config loads simulation scenarios: regions, commuting matrix,
// epidemiological constants and the run cadence.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ljavorsk/IMS-project/internal/domain/epidemic"
)

//go:embed scenarios/slovakia.yaml
var referenceYAML []byte

var scenarioValidate = validator.New()

// Scenario is one loadable simulation setup.
type Scenario struct {
	Name            string         `json:"name" yaml:"name" validate:"required"`
	Days            int            `json:"days" yaml:"days" validate:"gte=1"`
	ReportEvery     int            `json:"report_every" yaml:"report_every" validate:"gte=0"`
	InitialNewCases int            `json:"initial_new_cases" yaml:"initial_new_cases" validate:"gte=0"`
	NegativePolicy  string         `json:"negative_policy" yaml:"negative_policy" validate:"omitempty,oneof=abort allow"`
	Params          ParamsConfig   `json:"params" yaml:"params"`
	Regions         []RegionConfig `json:"regions" yaml:"regions" validate:"required,min=1,dive"`
	Commuting       [][]int        `json:"commuting" yaml:"commuting" validate:"required,dive,dive,gte=0"`
}

// ParamsConfig mirrors epidemic.Params with validation rules.
// Theta is not bounded, see epidemic.Params.ThetaInRange.
type ParamsConfig struct {
	Beta  float64 `json:"beta" yaml:"beta" validate:"gte=0"`
	Gamma float64 `json:"gamma" yaml:"gamma" validate:"gte=0,lte=1"`
	Theta float64 `json:"theta" yaml:"theta"`
	Alfa  float64 `json:"alfa" yaml:"alfa" validate:"gte=0,lte=1"`
}

// RegionConfig is one row of the region table.
type RegionConfig struct {
	Code          string `json:"code" yaml:"code" validate:"required"`
	Name          string `json:"name" yaml:"name"`
	Population    int    `json:"population" yaml:"population" validate:"gt=0"`
	SeedInfected  int    `json:"seed_infected" yaml:"seed_infected" validate:"gte=0"`
	SeedRecovered int    `json:"seed_recovered" yaml:"seed_recovered" validate:"gte=0"`
}

// Reference returns the embedded eight-region Slovak scenario.
func Reference() (*Scenario, error) {
	return Parse(referenceYAML)
}

// ReferenceYAML returns the raw embedded reference scenario.
func ReferenceYAML() []byte {
	return append([]byte(nil), referenceYAML...)
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes YAML (JSON is valid YAML) and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%w: %v", epidemic.ErrInvalidScenario, err)
	}
	if sc.NegativePolicy == "" {
		sc.NegativePolicy = "abort"
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate runs the struct rules and the cross-field checks.
func (sc *Scenario) Validate() error {
	if err := scenarioValidate.Struct(sc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", epidemic.ErrInvalidScenario, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", epidemic.ErrInvalidScenario, err)
	}

	seen := make(map[string]bool, len(sc.Regions))
	for _, r := range sc.Regions {
		if seen[r.Code] {
			return fmt.Errorf("%w: duplicate region code %q", epidemic.ErrInvalidScenario, r.Code)
		}
		seen[r.Code] = true
	}

	// Matrix shape, diagonal and seeds are checked by the model itself.
	_, err := sc.State()
	return err
}

// EpidemicParams converts the constants.
func (sc *Scenario) EpidemicParams() epidemic.Params {
	return epidemic.Params{
		Beta:  sc.Params.Beta,
		Gamma: sc.Params.Gamma,
		Theta: sc.Params.Theta,
		Alfa:  sc.Params.Alfa,
	}
}

// State builds a freshly seeded model state.
func (sc *Scenario) State() (*epidemic.State, error) {
	regions := make([]epidemic.Region, len(sc.Regions))
	infected := make([]int, len(sc.Regions))
	recovered := make([]int, len(sc.Regions))
	for i, r := range sc.Regions {
		regions[i] = epidemic.Region{Code: r.Code, Name: r.Name, Population: r.Population}
		infected[i] = r.SeedInfected
		recovered[i] = r.SeedRecovered
	}
	return epidemic.NewState(regions, sc.Commuting, infected, recovered)
}

// Marshal renders the scenario back to YAML.
func (sc *Scenario) Marshal() ([]byte, error) {
	return yaml.Marshal(sc)
}
