package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Fixed width so that text order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// SQLiteRunRepository implements RunRepository for SQLite.
type SQLiteRunRepository struct {
	db *sql.DB
}

func NewSQLiteRunRepository(db *sql.DB) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: db}
}

func (r *SQLiteRunRepository) CreateRun(ctx context.Context, run RunRecord) error {
	if run.Status == "" {
		run.Status = RunStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.ParamsJSON == "" {
		run.ParamsJSON = "{}"
	}
	query := `
		INSERT INTO runs (id, scenario, regions, days, params, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.Scenario, run.Regions, run.Days, run.ParamsJSON, run.Status, formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}
	return nil
}

func (r *SQLiteRunRepository) FinishRun(ctx context.Context, runID, status string, finalDay int, errMsg string) error {
	query := `UPDATE runs SET status = ?, final_day = ?, error = ?, finished_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, status, finalDay, errMsg, formatTime(time.Now()), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `id, scenario, regions, days, params, status, error, final_day, started_at, finished_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var run RunRecord
	var started, finished string
	if err := row.Scan(&run.ID, &run.Scenario, &run.Regions, &run.Days, &run.ParamsJSON,
		&run.Status, &run.Error, &run.FinalDay, &started, &finished); err != nil {
		return nil, err
	}
	var err error
	if run.StartedAt, err = parseTime(started); err != nil {
		return nil, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *SQLiteRunRepository) GetRun(ctx context.Context, runID string) (*RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	run, err := scanRun(r.db.QueryRowContext(ctx, query, runID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	return run, nil
}

func (r *SQLiteRunRepository) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// ---------------------------------------------------------
// SQLiteReportRepository
// ---------------------------------------------------------

type SQLiteReportRepository struct {
	db *sql.DB
}

func NewSQLiteReportRepository(db *sql.DB) *SQLiteReportRepository {
	return &SQLiteReportRepository{db: db}
}

func (r *SQLiteReportRepository) AppendReport(ctx context.Context, rec DayRecord) error {
	regions, err := json.Marshal(rec.Regions)
	if err != nil {
		return fmt.Errorf("failed to marshal regions: %w", err)
	}
	query := `
		INSERT INTO day_reports (run_id, day, susceptible, infected, recovered, new_cases, regions)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, day) DO UPDATE SET
			susceptible=excluded.susceptible,
			infected=excluded.infected,
			recovered=excluded.recovered,
			new_cases=excluded.new_cases,
			regions=excluded.regions
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.RunID, rec.Day, rec.Susceptible, rec.Infected, rec.Recovered, rec.NewCases, string(regions),
	)
	if err != nil {
		return fmt.Errorf("failed to append report: %w", err)
	}
	return nil
}

func (r *SQLiteReportRepository) GetReports(ctx context.Context, runID string) ([]DayRecord, error) {
	query := `SELECT run_id, day, susceptible, infected, recovered, new_cases, regions FROM day_reports WHERE run_id = ? ORDER BY day ASC`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []DayRecord
	for rows.Next() {
		var rec DayRecord
		var regions string
		if err := rows.Scan(&rec.RunID, &rec.Day, &rec.Susceptible, &rec.Infected,
			&rec.Recovered, &rec.NewCases, &regions); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(regions), &rec.Regions); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ---------------------------------------------------------
// SQLiteEventRepository
// ---------------------------------------------------------

type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event EventRecord) error {
	payload := string(event.Payload)
	if payload == "" {
		payload = "null"
	}
	query := `
		INSERT INTO events (id, run_id, timestamp, event_type, region, payload, day)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.RunID, formatTime(event.Timestamp), event.EventType, event.Region, payload, event.Day,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// GetByRunID returns a run's events in append order.
func (r *SQLiteEventRepository) GetByRunID(ctx context.Context, runID string) ([]EventRecord, error) {
	query := `SELECT id, run_id, timestamp, event_type, region, payload, day FROM events WHERE run_id = ? ORDER BY seq ASC`
	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []EventRecord
	for rows.Next() {
		var e EventRecord
		var ts, payload string
		if err := rows.Scan(&e.ID, &e.RunID, &ts, &e.EventType, &e.Region, &payload, &e.Day); err != nil {
			return nil, err
		}
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		e.Payload = json.RawMessage(payload)
		events = append(events, e)
	}
	return events, rows.Err()
}
