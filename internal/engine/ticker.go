package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ljavorsk/IMS-project/internal/platform/logger"
)

// DefaultTickRate is how often the server advances one simulated day.
const DefaultTickRate = 2 * time.Second

// ErrRunStopped ends a run that was stopped before its horizon.
var ErrRunStopped = errors.New("run stopped")

// Ticker paces an Engine in real time for live viewers.
// It does NOT render anything - subscribers read DAY_ADVANCED events.
type Ticker struct {
	engine   *Engine
	logger   *logger.Logger
	interval time.Duration
	horizon  int // stop once this many days are committed

	stopOnce sync.Once
	stopChan chan struct{}
}

// NewTicker creates a ticker advancing eng every interval until horizon days.
func NewTicker(eng *Engine, interval time.Duration, horizon int, log *logger.Logger) *Ticker {
	if interval <= 0 {
		interval = DefaultTickRate
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Ticker{
		engine:   eng,
		logger:   log,
		interval: interval,
		horizon:  horizon,
		stopChan: make(chan struct{}),
	}
}

// Start runs the loop until the horizon, an error, Stop or ctx. Call in a goroutine.
func (t *Ticker) Start(ctx context.Context) error {
	t.logger.Infof("Ticker started: one day every %s, horizon %d days", t.interval, t.horizon)
	t.engine.begin(t.horizon)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if t.engine.Day() >= t.horizon {
			t.engine.finish(nil)
			return nil
		}
		select {
		case <-ctx.Done():
			t.logger.Info("Ticker stopped by context.")
			t.engine.finish(ctx.Err())
			return ctx.Err()
		case <-t.stopChan:
			t.logger.Info("Ticker stopped manually.")
			t.engine.finish(ErrRunStopped)
			return nil
		case <-ticker.C:
			if _, err := t.engine.AdvanceDay(ctx); err != nil {
				t.engine.finish(err)
				return err
			}
		}
	}
}

// Stop ends the run at the current day with RUN_ABORTED. Safe to call more
// than once.
func (t *Ticker) Stop() {
	t.stopOnce.Do(func() { close(t.stopChan) })
}
