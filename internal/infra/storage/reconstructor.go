package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// Reconstructor rebuilds run summaries from the stored reports and events.
// Used by the history command and for auditing finished runs.
type Reconstructor struct {
	reports ReportRepository
	events  EventRepository
}

// NewReconstructor creates a new run reconstructor.
func NewReconstructor(reports ReportRepository, events EventRepository) *Reconstructor {
	return &Reconstructor{reports: reports, events: events}
}

// RunSummary condenses one run's stored day reports.
type RunSummary struct {
	RunID         string `json:"run_id"`
	DaysRecorded  int    `json:"days_recorded"`
	FirstDay      int    `json:"first_day"`
	LastDay       int    `json:"last_day"`
	PeakInfected  int    `json:"peak_infected"`
	PeakDay       int    `json:"peak_day"`
	TotalNewCases int    `json:"total_new_cases"` // excludes the seeded day-0 figure
	Final         DayRecord
}

// Summarize walks the run's day reports in order.
func (r *Reconstructor) Summarize(ctx context.Context, runID string) (*RunSummary, error) {
	records, err := r.reports.GetReports(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reports for run: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no reports for %s", ErrRunNotFound, runID)
	}

	sum := &RunSummary{
		RunID:        runID,
		DaysRecorded: len(records),
		FirstDay:     records[0].Day,
		PeakInfected: -1,
	}
	for _, rec := range records {
		if rec.Infected > sum.PeakInfected {
			sum.PeakInfected = rec.Infected
			sum.PeakDay = rec.Day
		}
		if rec.Day > 0 {
			sum.TotalNewCases += rec.NewCases
		}
	}
	sum.Final = records[len(records)-1]
	sum.LastDay = sum.Final.Day
	return sum, nil
}

// RecapEvent is a simplified event line for the history view.
type RecapEvent struct {
	Day       int    `json:"day"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"`
	Impact    string `json:"impact"` // "NEGATIVE", "NEUTRAL"
}

// GenerateRecap lists the notable events of a run from sinceDay onwards.
// Routine DAY_ADVANCED entries are skipped.
func (r *Reconstructor) GenerateRecap(ctx context.Context, runID string, sinceDay int) ([]RecapEvent, error) {
	all, err := r.events.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	var recap []RecapEvent
	for _, e := range all {
		if e.Day < sinceDay || e.EventType == "DAY_ADVANCED" {
			continue
		}
		recap = append(recap, RecapEvent{
			Day:       e.Day,
			EventType: e.EventType,
			Summary:   r.summarizeEvent(e),
			Impact:    r.determineImpact(e),
		})
	}
	return recap, nil
}

func (r *Reconstructor) summarizeEvent(e EventRecord) string {
	var payload map[string]interface{}
	_ = json.Unmarshal(e.Payload, &payload)

	switch e.EventType {
	case "RUN_STARTED":
		return fmt.Sprintf("Run started with %v regions for %v days.", payload["regions"], payload["days"])
	case "NEGATIVE_COMPARTMENT":
		return fmt.Sprintf("Region %s: %v dropped to %v.", e.Region, payload["quantity"], payload["value"])
	case "RUN_ABORTED":
		if stopped(payload) {
			return fmt.Sprintf("Run stopped at day %d.", e.Day)
		}
		return fmt.Sprintf("Run aborted at day %d: %v", e.Day, payload["error"])
	case "RUN_COMPLETED":
		return fmt.Sprintf("Run completed at day %d.", e.Day)
	default:
		return e.EventType
	}
}

func (r *Reconstructor) determineImpact(e EventRecord) string {
	switch e.EventType {
	case "NEGATIVE_COMPARTMENT":
		return "NEGATIVE"
	case "RUN_ABORTED":
		var payload map[string]interface{}
		_ = json.Unmarshal(e.Payload, &payload)
		if stopped(payload) {
			return "NEUTRAL"
		}
		return "NEGATIVE"
	default:
		return "NEUTRAL"
	}
}

func stopped(payload map[string]interface{}) bool {
	s, _ := payload["stopped"].(bool)
	return s
}
