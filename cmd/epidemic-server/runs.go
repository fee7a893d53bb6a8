package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ljavorsk/IMS-project/internal/config"
	"github.com/ljavorsk/IMS-project/internal/engine"
	"github.com/ljavorsk/IMS-project/internal/events"
	"github.com/ljavorsk/IMS-project/internal/network"
	"github.com/ljavorsk/IMS-project/internal/platform/logger"
	"github.com/ljavorsk/IMS-project/internal/platform/metrics"
	"github.com/ljavorsk/IMS-project/internal/platform/optimization"
)

// liveRuns drives one ticking run at a time. All runs share the event log,
// so the hub and the recorder see every run's events in order.
type liveRuns struct {
	mu       sync.Mutex
	scenario *config.Scenario
	interval time.Duration
	tuning   *optimization.Config

	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector

	baseCtx context.Context
	current *engine.Engine
	ticker  *engine.Ticker
	done    chan struct{}

	// committed days and compute time of finished runs
	days int
	busy time.Duration
}

func newLiveRuns(ctx context.Context, sc *config.Scenario, interval time.Duration, tuning *optimization.Config,
	eventLog *events.EventLog, log *logger.Logger, m *metrics.Collector) *liveRuns {
	return &liveRuns{
		scenario: sc,
		interval: interval,
		tuning:   tuning,
		eventLog: eventLog,
		logger:   log,
		metrics:  m,
		baseCtx:  ctx,
	}
}

func (lr *liveRuns) active() bool {
	if lr.done == nil {
		return false
	}
	select {
	case <-lr.done:
		return false
	default:
		return true
	}
}

// Start implements network.RunController.
func (lr *liveRuns) Start() (string, error) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.active() {
		return "", network.ErrRunActive
	}

	state, err := lr.scenario.State()
	if err != nil {
		return "", err
	}
	runID := uuid.NewString()
	eng := engine.NewEngine(state, lr.scenario.EpidemicParams(), engine.Options{
		RunID:           runID,
		Scenario:        lr.scenario.Name,
		Workers:         lr.tuning.WorkersFor(state.Len()),
		NegativePolicy:  engine.NegativePolicy(lr.scenario.NegativePolicy),
		InitialNewCases: lr.scenario.InitialNewCases,
	}, lr.eventLog, lr.logger, lr.metrics)

	tk := engine.NewTicker(eng, lr.interval, lr.scenario.Days, lr.logger)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := tk.Start(lr.baseCtx); err != nil {
			lr.logger.Warnf("run %s ended: %v", runID, err)
		}
		days, busy := eng.DayTiming()
		lr.mu.Lock()
		lr.days += days
		lr.busy += busy
		lr.mu.Unlock()
	}()

	lr.current, lr.ticker, lr.done = eng, tk, done
	return runID, nil
}

// Stop implements network.RunController. It waits for the ticker to exit.
func (lr *liveRuns) Stop() error {
	lr.mu.Lock()
	if !lr.active() {
		lr.mu.Unlock()
		return network.ErrNoActiveRun
	}
	tk, done := lr.ticker, lr.done
	lr.mu.Unlock()

	tk.Stop()
	<-done
	return nil
}

// State implements network.RunController.
func (lr *liveRuns) State() (engine.DayReport, bool) {
	lr.mu.Lock()
	eng := lr.current
	lr.mu.Unlock()
	if eng == nil {
		return engine.DayReport{}, false
	}
	return eng.Report(), true
}

// averageDayLatency is the mean compute time per committed day over every
// finished run.
func (lr *liveRuns) averageDayLatency() time.Duration {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	if lr.days == 0 {
		return 0
	}
	return lr.busy / time.Duration(lr.days)
}

// recommendations analyzes the observed day latency and dropped viewers.
func (lr *liveRuns) recommendations(dropped int) *optimization.Recommendations {
	avg := lr.averageDayLatency()
	return optimization.Analyze(float64(avg.Microseconds())/1000, dropped)
}

// Wait blocks until the active run, if any, has finished.
func (lr *liveRuns) Wait() {
	lr.mu.Lock()
	done := lr.done
	lr.mu.Unlock()
	if done != nil {
		<-done
	}
}
