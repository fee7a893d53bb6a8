package network

import (
	"errors"
	"net/http"

	"github.com/ljavorsk/IMS-project/internal/engine"
	"github.com/ljavorsk/IMS-project/internal/platform/logger"
)

var (
	// ErrRunActive is returned by Start while a run is still ticking.
	ErrRunActive = errors.New("a run is already active")
	// ErrNoActiveRun is returned by Stop when nothing is running.
	ErrNoActiveRun = errors.New("no active run")
)

// RunController starts, stops and inspects the live run.
type RunController interface {
	Start() (runID string, err error)
	Stop() error
	// State returns the latest report; false before the first run.
	State() (engine.DayReport, bool)
}

// ControlHandler exposes a RunController over HTTP.
type ControlHandler struct {
	ctl    RunController
	logger *logger.Logger
}

// NewControlHandler creates the run control endpoints.
func NewControlHandler(ctl RunController, log *logger.Logger) *ControlHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &ControlHandler{ctl: ctl, logger: log}
}

// HandleState returns the current day report.
// GET /api/state
func (ch *ControlHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	report, ok := ch.ctl.State()
	if !ok {
		jsonError(w, "No run started yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleStart starts a new run.
// POST /api/run/start
func (ch *ControlHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	runID, err := ch.ctl.Start()
	if err != nil {
		ch.respondErr(w, err)
		return
	}
	ch.logger.Event("RUN_START_REQUEST", r.RemoteAddr, "run "+runID)
	writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID, "status": "started"})
}

// HandleStop stops the active run.
// POST /api/run/stop
func (ch *ControlHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := ch.ctl.Stop(); err != nil {
		ch.respondErr(w, err)
		return
	}
	ch.logger.Event("RUN_STOP_REQUEST", r.RemoteAddr, "stopped")
	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (ch *ControlHandler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRunActive), errors.Is(err, ErrNoActiveRun):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		ch.logger.Errorf("run control failed: %v", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

// RegisterRoutes sets up the control API routes.
func (ch *ControlHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/state", ch.HandleState)
	mux.HandleFunc("/api/run/start", ch.HandleStart)
	mux.HandleFunc("/api/run/stop", ch.HandleStop)
}
