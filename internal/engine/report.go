package engine

import "github.com/ljavorsk/IMS-project/internal/domain/epidemic"

// RegionCounts is one region's compartments on a given day.
type RegionCounts struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Susceptible int    `json:"susceptible"`
	Infected    int    `json:"infected"`
	Recovered   int    `json:"recovered"`
}

// DayReport is what the reporting collaborators receive once per day.
type DayReport struct {
	RunID    string          `json:"run_id"`
	Day      int             `json:"day"`
	Totals   epidemic.Totals `json:"totals"`
	NewCases int             `json:"new_cases"` // ΣI after - ΣI before the day that led here
	Regions  []RegionCounts  `json:"regions"`
}

// Reporter renders or stores day reports.
type Reporter interface {
	Report(DayReport) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(DayReport) error

func (f ReporterFunc) Report(r DayReport) error {
	return f(r)
}

// RunInfo is the payload of RUN_STARTED.
type RunInfo struct {
	RunID    string          `json:"run_id"`
	Scenario string          `json:"scenario"`
	Regions  int             `json:"regions"`
	Days     int             `json:"days"`
	Params   epidemic.Params `json:"params"`
	R0       float64         `json:"r0"`
	Initial  DayReport       `json:"initial"` // the report of the day the run starts from
}

// RunOutcome is the payload of RUN_COMPLETED and RUN_ABORTED.
type RunOutcome struct {
	RunID   string          `json:"run_id"`
	Day     int             `json:"day"`
	Totals  epidemic.Totals `json:"totals"`
	Error   string          `json:"error,omitempty"`
	Stopped bool            `json:"stopped,omitempty"` // ended by ErrRunStopped, not by a failure
}
