package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ljavorsk/IMS-project/internal/domain/epidemic"
	"github.com/ljavorsk/IMS-project/internal/domain/rules"
	"github.com/ljavorsk/IMS-project/internal/events"
	"github.com/ljavorsk/IMS-project/internal/platform/logger"
	"github.com/ljavorsk/IMS-project/internal/platform/metrics"
)

// NegativePolicy decides what happens when a computed compartment drops below zero.
type NegativePolicy string

const (
	// NegativeAbort rejects the day and leaves the state untouched.
	NegativeAbort NegativePolicy = "abort"
	// NegativeAllow keeps the negative count, logs it and emits an event.
	NegativeAllow NegativePolicy = "allow"
)

// Options configure a single run.
type Options struct {
	RunID           string
	Scenario        string
	Workers         int // 1 or less computes regions sequentially
	NegativePolicy  NegativePolicy
	InitialNewCases int // reported as day 0's new cases
}

// Engine owns the model state of one run and advances it one day at a time.
type Engine struct {
	mu       sync.RWMutex
	state    *epidemic.State
	params   epidemic.Params
	opts     Options
	day      int
	newCases int
	advanced int           // days committed by this engine
	busy     time.Duration // time spent in committed days

	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector
}

// NewEngine wires the engine to its state and collaborators. A nil event log
// or collector is replaced by a private one.
func NewEngine(state *epidemic.State, params epidemic.Params, opts Options,
	eventLog *events.EventLog, log *logger.Logger, m *metrics.Collector) *Engine {
	if opts.NegativePolicy == "" {
		opts.NegativePolicy = NegativeAbort
	}
	if eventLog == nil {
		eventLog = events.NewEventLog(nil)
	}
	if log == nil {
		log = logger.Discard()
	}
	if m == nil {
		m = metrics.New()
	}
	if !params.ThetaInRange() {
		log.Warnf("theta=%g is outside [0,1]: local transmission is scaled by %g and commuter terms by %g",
			params.Theta, params.Theta, 1-params.Theta)
	}

	return &Engine{
		state:    state,
		params:   params,
		opts:     opts,
		newCases: opts.InitialNewCases,
		eventLog: eventLog,
		logger:   log,
		metrics:  m,
	}
}

// Params returns the epidemiological constants of the run.
func (e *Engine) Params() epidemic.Params {
	return e.params
}

// RunID returns the identifier the run's events are tagged with.
func (e *Engine) RunID() string {
	return e.opts.RunID
}

// Day returns the number of days committed so far.
func (e *Engine) Day() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.day
}

// Snapshot returns a copy of the current compartments.
func (e *Engine) Snapshot() *epidemic.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.Clone()
}

// DayTiming returns how many days this engine committed and the time spent
// computing them.
func (e *Engine) DayTiming() (int, time.Duration) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.advanced, e.busy
}

// Report returns the current day's totals and per-region counts.
func (e *Engine) Report() DayReport {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.reportLocked()
}

func (e *Engine) reportLocked() DayReport {
	regions := make([]RegionCounts, e.state.Len())
	for d, reg := range e.state.Regions {
		regions[d] = RegionCounts{
			Code:        reg.Code,
			Name:        reg.Name,
			Susceptible: e.state.S[d],
			Infected:    e.state.I[d],
			Recovered:   e.state.R[d],
		}
	}
	return DayReport{
		RunID:    e.opts.RunID,
		Day:      e.day,
		Totals:   e.state.DailyTotals(),
		NewCases: e.newCases,
		Regions:  regions,
	}
}

// AdvanceDay computes every region's next-day compartments from the current
// snapshot and commits them together. On error nothing is committed and the
// day counter does not move.
func (e *Engine) AdvanceDay(ctx context.Context) (DayReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	start := time.Now()
	next, err := e.compute(ctx)
	if err == nil {
		err = e.checkNegatives(next)
	}
	if err != nil {
		e.recordFailure(err)
		return DayReport{}, fmt.Errorf("advance day %d: %w", e.day, err)
	}

	before := e.state.DailyTotals().Infected
	e.state.S, e.state.I, e.state.R = next.S, next.I, next.R
	e.day++
	e.newCases = e.state.DailyTotals().Infected - before

	elapsed := time.Since(start)
	e.advanced++
	e.busy += elapsed

	report := e.reportLocked()
	e.metrics.RecordDay(elapsed,
		report.Totals.Susceptible, report.Totals.Infected, report.Totals.Recovered, report.NewCases)
	e.eventLog.Append(events.SimEvent{
		Type:    events.EventTypeDayAdvanced,
		RunID:   e.opts.RunID,
		Payload: report,
		Day:     e.day,
	})
	return report, nil
}

// compute fills a scratch state. Region results are written to their own
// index, so the parallel path produces exactly the sequential result.
func (e *Engine) compute(ctx context.Context) (*epidemic.State, error) {
	view, err := rules.NewView(e.state, e.params)
	if err != nil {
		return nil, err
	}

	n := e.state.Len()
	next := &epidemic.State{
		Regions:   e.state.Regions,
		Commuting: e.state.Commuting,
		S:         make([]int, n),
		I:         make([]int, n),
		R:         make([]int, n),
	}
	errs := make([]error, n)
	step := func(d int) {
		st, err := view.Next(d)
		if err != nil {
			errs[d] = err
			return
		}
		next.S[d], next.I[d], next.R[d] = st.S, st.I, st.R
	}

	if e.opts.Workers <= 1 {
		for d := 0; d < n; d++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			step(d)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.opts.Workers)
		for d := 0; d < n; d++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				step(d)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	// Report the lowest failing region regardless of scheduling.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return next, nil
}

func (e *Engine) checkNegatives(next *epidemic.State) error {
	for d, reg := range next.Regions {
		checks := []struct {
			q epidemic.Quantity
			v int
		}{
			{epidemic.QuantitySusceptible, next.S[d]},
			{epidemic.QuantityInfected, next.I[d]},
			{epidemic.QuantityRecovered, next.R[d]},
		}
		for _, c := range checks {
			if c.v >= 0 {
				continue
			}
			regionErr := &epidemic.RegionError{Region: d, Code: reg.Code, Quantity: c.q,
				Value: float64(c.v), Err: epidemic.ErrNegativeCompartment}
			if e.opts.NegativePolicy != NegativeAllow {
				return regionErr
			}
			e.logger.Warnf("day %d: keeping %v", e.day+1, regionErr)
			e.metrics.RecordNegativeTolerated()
			e.eventLog.Append(events.SimEvent{
				Type:    events.EventTypeNegativeCompartment,
				RunID:   e.opts.RunID,
				Region:  reg.Code,
				Payload: map[string]interface{}{"quantity": string(c.q), "value": c.v},
				Day:     e.day + 1,
			})
		}
	}
	return nil
}

func (e *Engine) recordFailure(err error) {
	kind := "other"
	switch {
	case errors.Is(err, epidemic.ErrNegativeCompartment):
		kind = "negative_compartment"
	case errors.Is(err, epidemic.ErrDegenerateRegion):
		kind = "degenerate_region"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		kind = "canceled"
	}
	e.metrics.RecordStepError(kind)
	e.logger.Errorf("day %d not committed: %v", e.day, err)
}
