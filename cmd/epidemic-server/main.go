// Package main is the live epidemic server: it paces a run in real time,
// streams every committed day over WebSocket and records it in SQLite.
// NO model logic belongs here.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ljavorsk/IMS-project/internal/config"
	"github.com/ljavorsk/IMS-project/internal/engine"
	"github.com/ljavorsk/IMS-project/internal/events"
	"github.com/ljavorsk/IMS-project/internal/infra/storage"
	"github.com/ljavorsk/IMS-project/internal/network"
	"github.com/ljavorsk/IMS-project/internal/platform/logger"
	"github.com/ljavorsk/IMS-project/internal/platform/metrics"
	"github.com/ljavorsk/IMS-project/internal/platform/optimization"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	scenarioPath := flag.String("scenario", "", "scenario YAML file (default: embedded reference)")
	dbPath := flag.String("db", "data/epidemic.db", "SQLite file for runs, reports and events")
	tick := flag.Duration("tick", engine.DefaultTickRate, "wall time per simulated day")
	profile := flag.String("profile", "default", "tuning profile: default, stress or low")
	autostart := flag.Bool("autostart", false, "start a run immediately")
	flag.Parse()

	appLogger := logger.NewLogger()
	appLogger.Info("Starting epidemic server...")

	sc, err := loadScenario(*scenarioPath)
	if err != nil {
		appLogger.Errorf("Failed to load scenario: %v", err)
		os.Exit(2)
	}

	tuning := tuningProfile(*profile)
	collector := metrics.Get()

	appLogger.Info("Bootstrapping Database...")
	db, err := storage.InitSQLite(*dbPath, tuning)
	if err != nil {
		appLogger.Errorf("Failed to initialize SQLite: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	runRepo := storage.NewSQLiteRunRepository(db)
	recorder := storage.NewRecorder(runRepo, storage.NewSQLiteReportRepository(db), storage.NewSQLiteEventRepository(db))

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLogSize(recorder, tuning.EventBuffer)
	eventLog.OnPersistError(storage.PersistFailureHandler(appLogger, collector))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(tuning, appLogger, collector)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog, network.DefaultPollInterval)

	runs := newLiveRuns(ctx, sc, *tick, tuning, eventLog, appLogger, collector)
	if *autostart {
		if runID, err := runs.Start(); err != nil {
			appLogger.Errorf("Autostart failed: %v", err)
		} else {
			appLogger.Infof("Autostarted run %s", runID)
		}
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           newMux(hub, runs, eventLog, collector, appLogger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		appLogger.Infof("HTTP API & WS Server listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Errorf("Server failed: %v", err)
			cancel()
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}

	appLogger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Errorf("HTTP shutdown: %v", err)
	}
	cancel()
	runs.Wait()

	rec := runs.recommendations(hub.Dropped())
	for _, note := range rec.Notes {
		appLogger.Warn(note)
	}
	if len(rec.Notes) > 0 {
		next := optimization.ApplyRecommendations(tuning, rec)
		appLogger.Infof("Suggested tuning: %d region workers, broadcast buffer %d, client buffer %d",
			next.RegionWorkers, next.BroadcastBuffer, next.ClientSendBuffer)
	}
}

func newMux(hub *network.Hub, runs network.RunController, eventLog *events.EventLog,
	collector *metrics.Collector, log *logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		network.ServeWS(hub, w, r)
	})
	mux.Handle("/metrics", collector.Handler())
	network.NewControlHandler(runs, log).RegisterRoutes(mux)
	network.NewReplayHandler(eventLog, log).RegisterRoutes(mux)
	return mux
}

func loadScenario(path string) (*config.Scenario, error) {
	if path == "" {
		return config.Reference()
	}
	return config.Load(path)
}

func tuningProfile(name string) *optimization.Config {
	switch name {
	case "stress":
		return optimization.StressTestConfig()
	case "low":
		return optimization.LowResourceConfig()
	default:
		return optimization.DefaultConfig()
	}
}
