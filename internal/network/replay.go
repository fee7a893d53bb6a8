package network

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ljavorsk/IMS-project/internal/events"
	"github.com/ljavorsk/IMS-project/internal/platform/logger"
)

// ReplayHandler serves the in-memory event history over HTTP.
type ReplayHandler struct {
	eventLog *events.EventLog
	logger   *logger.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(el *events.EventLog, log *logger.Logger) *ReplayHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &ReplayHandler{
		eventLog: el,
		logger:   log,
	}
}

// ReplayResponse is the API response for a replay query.
type ReplayResponse struct {
	TotalEvents int               `json:"total_events"`
	GeneratedAt string            `json:"generated_at"`
	Events      []events.SimEvent `json:"events"`
}

// HandleReplay returns the event history.
// GET /api/events?run_id=X&day=N&type=DAY_ADVANCED&since=K
// day and since are mutually exclusive.
func (rh *ReplayHandler) HandleReplay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	runID := q.Get("run_id")
	eventType := q.Get("type")

	day, hasDay := -1, q.Get("day") != ""
	if hasDay {
		var err error
		if day, err = strconv.Atoi(q.Get("day")); err != nil {
			jsonError(w, "Invalid day", http.StatusBadRequest)
			return
		}
	}
	since := 0
	if s := q.Get("since"); s != "" {
		var err error
		if since, err = strconv.Atoi(s); err != nil || since < 0 {
			jsonError(w, "Invalid since", http.StatusBadRequest)
			return
		}
	}

	if hasDay && since > 0 {
		jsonError(w, "day and since cannot be combined", http.StatusBadRequest)
		return
	}
	source := rh.eventLog.Since(since)
	if hasDay {
		source = rh.eventLog.GetByDay(day)
	}

	filtered := make([]events.SimEvent, 0)
	for _, e := range source {
		if runID != "" && e.RunID != runID {
			continue
		}
		if eventType != "" && string(e.Type) != eventType {
			continue
		}
		filtered = append(filtered, e)
	}

	writeJSON(w, http.StatusOK, ReplayResponse{
		TotalEvents: len(filtered),
		GeneratedAt: time.Now().Format(time.RFC3339),
		Events:      filtered,
	})
}

// HandleStats returns event counts per type.
// GET /api/events/stats
func (rh *ReplayHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all := rh.eventLog.Replay()
	stats := map[string]int{"total_events": len(all)}
	for _, e := range all {
		stats[string(e.Type)]++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"generated_at": time.Now().Format(time.RFC3339),
		"stats":        stats,
	})
}

// RegisterRoutes sets up the replay API routes.
func (rh *ReplayHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/events", rh.HandleReplay)
	mux.HandleFunc("/api/events/stats", rh.HandleStats)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// jsonError sends an error response.
func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
