package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/ljavorsk/IMS-project/internal/events"
)

// Run is the driver loop. For each of the given days it hands the current
// report to the reporter and then advances one day. The first failure aborts
// the run; the state stays at the last committed day.
func (e *Engine) Run(ctx context.Context, days int, reporter Reporter) error {
	if days < 1 {
		return fmt.Errorf("run needs at least one day, got %d", days)
	}
	e.begin(days)

	for i := 0; i < days; i++ {
		if err := ctx.Err(); err != nil {
			e.finish(err)
			return err
		}
		if reporter != nil {
			if err := reporter.Report(e.Report()); err != nil {
				err = fmt.Errorf("report day %d: %w", e.Day(), err)
				e.finish(err)
				return err
			}
		}
		if _, err := e.AdvanceDay(ctx); err != nil {
			e.finish(err)
			return err
		}
	}

	e.finish(nil)
	return nil
}

func (e *Engine) begin(days int) {
	info := RunInfo{
		RunID:    e.opts.RunID,
		Scenario: e.opts.Scenario,
		Regions:  e.state.Len(),
		Days:     days,
		Params:   e.params,
		R0:       e.params.R0(),
		Initial:  e.Report(),
	}
	e.eventLog.Append(events.SimEvent{
		Type:    events.EventTypeRunStarted,
		RunID:   e.opts.RunID,
		Payload: info,
		Day:     e.Day(),
	})
	e.logger.Event(string(events.EventTypeRunStarted), "engine",
		fmt.Sprintf("run %s: %d regions, %d days, R0=%.2f", e.opts.RunID, info.Regions, days, info.R0))
}

func (e *Engine) finish(err error) {
	report := e.Report()
	outcome := RunOutcome{
		RunID:  e.opts.RunID,
		Day:    report.Day,
		Totals: report.Totals,
	}
	eventType := events.EventTypeRunCompleted
	if err != nil {
		eventType = events.EventTypeRunAborted
		outcome.Error = err.Error()
		outcome.Stopped = errors.Is(err, ErrRunStopped)
	}
	e.eventLog.Append(events.SimEvent{
		Type:    eventType,
		RunID:   e.opts.RunID,
		Payload: outcome,
		Day:     report.Day,
	})
	e.logger.Event(string(eventType), "engine", fmt.Sprintf("run %s stopped at day %d", e.opts.RunID, report.Day))
}
