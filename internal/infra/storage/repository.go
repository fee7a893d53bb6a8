// Package storage provides the persistence layer for simulation runs.
// It implements the repository pattern so the engine stays free of SQL.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run statuses.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusAborted   = "ABORTED"
	RunStatusStopped   = "STOPPED"
)

// RunRecord is one simulation run.
type RunRecord struct {
	ID         string    `json:"id" db:"id"`
	Scenario   string    `json:"scenario" db:"scenario"`
	Regions    int       `json:"regions" db:"regions"`
	Days       int       `json:"days" db:"days"`
	ParamsJSON string    `json:"params" db:"params"`
	Status     string    `json:"status" db:"status"`
	Error      string    `json:"error,omitempty" db:"error"`
	FinalDay   int       `json:"final_day" db:"final_day"`
	StartedAt  time.Time `json:"started_at" db:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" db:"finished_at"`
}

// RegionRow is one region's compartments inside a stored day report.
type RegionRow struct {
	Code        string `json:"code"`
	Susceptible int    `json:"s"`
	Infected    int    `json:"i"`
	Recovered   int    `json:"r"`
}

// DayRecord mirrors the engine's day report for persistence.
// The engine does NOT import this type; the recorder translates.
type DayRecord struct {
	RunID       string      `json:"run_id" db:"run_id"`
	Day         int         `json:"day" db:"day"`
	Susceptible int         `json:"susceptible" db:"susceptible"`
	Infected    int         `json:"infected" db:"infected"`
	Recovered   int         `json:"recovered" db:"recovered"`
	NewCases    int         `json:"new_cases" db:"new_cases"`
	Regions     []RegionRow `json:"regions" db:"regions"`
}

// EventRecord is a stored simulation event. Payload is kept as raw JSON.
type EventRecord struct {
	ID        string          `json:"id" db:"id"`
	RunID     string          `json:"run_id" db:"run_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	EventType string          `json:"event_type" db:"event_type"`
	Region    string          `json:"region,omitempty" db:"region"`
	Payload   json.RawMessage `json:"payload" db:"payload"`
	Day       int             `json:"day" db:"day"`
}

// RunRepository stores run metadata.
type RunRepository interface {
	CreateRun(ctx context.Context, run RunRecord) error
	// FinishRun records the terminal status and the last committed day.
	FinishRun(ctx context.Context, runID, status string, finalDay int, errMsg string) error
	GetRun(ctx context.Context, runID string) (*RunRecord, error)
	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// ReportRepository stores per-day reports.
type ReportRepository interface {
	AppendReport(ctx context.Context, rec DayRecord) error
	GetReports(ctx context.Context, runID string) ([]DayRecord, error)
}

// EventRepository is the immutable event ledger.
type EventRepository interface {
	Append(ctx context.Context, event EventRecord) error
	GetByRunID(ctx context.Context, runID string) ([]EventRecord, error)
}
