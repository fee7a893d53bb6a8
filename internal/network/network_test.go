package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljavorsk/IMS-project/internal/engine"
	"github.com/ljavorsk/IMS-project/internal/events"
)

func TestHubStreamsEventsToClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub(nil, nil, nil)
	go hub.Run(ctx)
	log := events.NewEventLog(nil)
	hub.StartEventPoller(ctx, log, 10*time.Millisecond)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	log.Append(events.SimEvent{Type: events.EventTypeDayAdvanced, RunID: "r1", Day: 1})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got events.SimEvent
	require.NoError(t, json.Unmarshal([]byte(strings.Split(string(msg), "\n")[0]), &got))
	assert.Equal(t, events.EventTypeDayAdvanced, got.Type)
	assert.Equal(t, "r1", got.RunID)
	assert.NotEmpty(t, got.ID)

	conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestClientsDoNotBlockOnStoppedHub(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, nil, nil)
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := &Client{hub: hub, send: make(chan []byte, 1)}
	finished := make(chan bool)
	go func() {
		registered := c.Register()
		c.leave()
		finished <- registered
	}()

	select {
	case registered := <-finished:
		assert.False(t, registered)
	case <-time.After(time.Second):
		t.Fatal("client blocked on a stopped hub")
	}
}

func TestReplayFilters(t *testing.T) {
	log := events.NewEventLog(nil)
	log.Append(events.SimEvent{Type: events.EventTypeRunStarted, RunID: "a"})
	log.Append(events.SimEvent{Type: events.EventTypeDayAdvanced, RunID: "a", Day: 1})
	log.Append(events.SimEvent{Type: events.EventTypeDayAdvanced, RunID: "b", Day: 1})
	log.Append(events.SimEvent{Type: events.EventTypeDayAdvanced, RunID: "a", Day: 2})

	mux := http.NewServeMux()
	NewReplayHandler(log, nil).RegisterRoutes(mux)

	get := func(url string) (*httptest.ResponseRecorder, ReplayResponse) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))
		var resp ReplayResponse
		if rec.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		}
		return rec, resp
	}

	_, resp := get("/api/events?run_id=a&type=DAY_ADVANCED")
	assert.Equal(t, 2, resp.TotalEvents)

	_, resp = get("/api/events?day=1")
	assert.Equal(t, 2, resp.TotalEvents)

	_, resp = get("/api/events?since=3")
	require.Equal(t, 1, resp.TotalEvents)
	assert.Equal(t, 2, resp.Events[0].Day)

	_, resp = get("/api/events?day=2&run_id=a")
	require.Equal(t, 1, resp.TotalEvents)
	assert.Equal(t, events.EventTypeDayAdvanced, resp.Events[0].Type)

	rec, _ := get("/api/events?day=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = get("/api/events?day=1&since=2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"DAY_ADVANCED":3`)
}

type fakeController struct {
	running bool
	report  *engine.DayReport
}

func (f *fakeController) Start() (string, error) {
	if f.running {
		return "", ErrRunActive
	}
	f.running = true
	f.report = &engine.DayReport{RunID: "run-1"}
	return "run-1", nil
}

func (f *fakeController) Stop() error {
	if !f.running {
		return ErrNoActiveRun
	}
	f.running = false
	return nil
}

func (f *fakeController) State() (engine.DayReport, bool) {
	if f.report == nil {
		return engine.DayReport{}, false
	}
	return *f.report, true
}

func TestControlHandler(t *testing.T) {
	mux := http.NewServeMux()
	NewControlHandler(&fakeController{}, nil).RegisterRoutes(mux)

	do := func(method, url string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(method, url, nil))
		return rec
	}

	assert.Equal(t, http.StatusNotFound, do(http.MethodGet, "/api/state").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(http.MethodGet, "/api/run/start").Code)
	assert.Equal(t, http.StatusConflict, do(http.MethodPost, "/api/run/stop").Code)

	rec := do(http.MethodPost, "/api/run/start")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "run-1")
	assert.Equal(t, http.StatusConflict, do(http.MethodPost, "/api/run/start").Code)

	rec = do(http.MethodGet, "/api/state")
	require.Equal(t, http.StatusOK, rec.Code)
	var report engine.DayReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)

	assert.Equal(t, http.StatusOK, do(http.MethodPost, "/api/run/stop").Code)
}
