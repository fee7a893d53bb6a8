package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ljavorsk/IMS-project/internal/engine"
	"github.com/ljavorsk/IMS-project/internal/events"
	"github.com/ljavorsk/IMS-project/internal/platform/logger"
	"github.com/ljavorsk/IMS-project/internal/platform/metrics"
)

// Recorder translates simulation events into storage rows. It implements
// events.EventPersister: every event goes to the ledger, run boundaries
// update the runs table and committed days land in day_reports.
type Recorder struct {
	runs    RunRepository
	reports ReportRepository
	events  EventRepository
}

// NewRecorder wires the three repositories.
func NewRecorder(runs RunRepository, reports ReportRepository, evts EventRepository) *Recorder {
	return &Recorder{runs: runs, reports: reports, events: evts}
}

// Append implements events.EventPersister.
func (rc *Recorder) Append(event events.SimEvent) error {
	ctx := context.Background()

	// The run row must exist before reports reference it.
	if err := rc.project(ctx, event); err != nil {
		return err
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return rc.events.Append(ctx, EventRecord{
		ID:        event.ID,
		RunID:     event.RunID,
		Timestamp: event.Timestamp,
		EventType: string(event.Type),
		Region:    event.Region,
		Payload:   payload,
		Day:       event.Day,
	})
}

func (rc *Recorder) project(ctx context.Context, event events.SimEvent) error {
	switch event.Type {
	case events.EventTypeRunStarted:
		info, ok := event.Payload.(engine.RunInfo)
		if !ok {
			return fmt.Errorf("unexpected %s payload %T", event.Type, event.Payload)
		}
		params, err := json.Marshal(info.Params)
		if err != nil {
			return err
		}
		if err := rc.runs.CreateRun(ctx, RunRecord{
			ID:         info.RunID,
			Scenario:   info.Scenario,
			Regions:    info.Regions,
			Days:       info.Days,
			ParamsJSON: string(params),
			StartedAt:  event.Timestamp,
		}); err != nil {
			return err
		}
		return rc.reports.AppendReport(ctx, DayRecordFrom(info.Initial))

	case events.EventTypeDayAdvanced:
		report, ok := event.Payload.(engine.DayReport)
		if !ok {
			return fmt.Errorf("unexpected %s payload %T", event.Type, event.Payload)
		}
		return rc.reports.AppendReport(ctx, DayRecordFrom(report))

	case events.EventTypeRunCompleted, events.EventTypeRunAborted:
		outcome, ok := event.Payload.(engine.RunOutcome)
		if !ok {
			return fmt.Errorf("unexpected %s payload %T", event.Type, event.Payload)
		}
		status := RunStatusCompleted
		switch {
		case outcome.Stopped:
			status = RunStatusStopped
		case event.Type == events.EventTypeRunAborted:
			status = RunStatusAborted
		}
		return rc.runs.FinishRun(ctx, outcome.RunID, status, outcome.Day, outcome.Error)
	}
	return nil
}

// PersistFailureHandler returns an events.EventLog error callback that logs
// the failed event and counts it as a report write error.
func PersistFailureHandler(log *logger.Logger, m *metrics.Collector) func(events.SimEvent, error) {
	return func(e events.SimEvent, err error) {
		log.Errorf("Failed to persist %s (run %s, day %d): %v", e.Type, e.RunID, e.Day, err)
		m.RecordReportWriteError()
	}
}

// DayRecordFrom converts an engine day report.
func DayRecordFrom(r engine.DayReport) DayRecord {
	rows := make([]RegionRow, len(r.Regions))
	for i, reg := range r.Regions {
		rows[i] = RegionRow{
			Code:        reg.Code,
			Susceptible: reg.Susceptible,
			Infected:    reg.Infected,
			Recovered:   reg.Recovered,
		}
	}
	return DayRecord{
		RunID:       r.RunID,
		Day:         r.Day,
		Susceptible: r.Totals.Susceptible,
		Infected:    r.Totals.Infected,
		Recovered:   r.Totals.Recovered,
		NewCases:    r.NewCases,
		Regions:     rows,
	}
}
