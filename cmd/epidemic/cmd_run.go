package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ljavorsk/IMS-project/internal/domain/epidemic"
	"github.com/ljavorsk/IMS-project/internal/engine"
	"github.com/ljavorsk/IMS-project/internal/events"
	"github.com/ljavorsk/IMS-project/internal/infra/storage"
	"github.com/ljavorsk/IMS-project/internal/platform/logger"
	"github.com/ljavorsk/IMS-project/internal/platform/metrics"
	"github.com/ljavorsk/IMS-project/internal/platform/optimization"
	"github.com/ljavorsk/IMS-project/internal/report"
)

type runFlags struct {
	scenario       string
	days           int
	reportEvery    int
	format         string
	db             string
	workers        int
	negativePolicy string
	quiet          bool
	humanize       bool
}

func newRunCmd() *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a scenario and report every day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulation(ctx, cmd, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.scenario, "scenario", "", "scenario YAML file (default: embedded reference)")
	fl.IntVar(&f.days, "days", 0, "number of reported days (default: from scenario)")
	fl.IntVar(&f.reportEvery, "report-every", -1, "per-region table cadence in days, 0 disables (default: from scenario)")
	fl.StringVar(&f.format, "format", "table", "output format: table, line or json")
	fl.StringVar(&f.db, "db", "", "SQLite file to record the run in")
	fl.IntVar(&f.workers, "workers", 0, "goroutines computing regions (default: tuned to scenario size)")
	fl.StringVar(&f.negativePolicy, "negative-policy", "", "abort or allow (default: from scenario)")
	fl.BoolVar(&f.quiet, "quiet", false, "suppress log output")
	fl.BoolVar(&f.humanize, "humanize", false, "print counts with thousands separators")
	return cmd
}

func runSimulation(ctx context.Context, cmd *cobra.Command, f *runFlags) error {
	out := cmd.OutOrStdout()
	appLogger := logger.New(cmd.ErrOrStderr(), cmd.ErrOrStderr())
	if f.quiet {
		appLogger = logger.Discard()
	}

	sc, err := loadScenario(f.scenario)
	if err != nil {
		return err
	}
	if f.days > 0 {
		sc.Days = f.days
	}
	if f.reportEvery >= 0 {
		sc.ReportEvery = f.reportEvery
	}
	if f.negativePolicy != "" {
		sc.NegativePolicy = f.negativePolicy
	}
	policy := engine.NegativePolicy(sc.NegativePolicy)
	if policy != engine.NegativeAbort && policy != engine.NegativeAllow {
		return fmt.Errorf("%w: unknown negative policy %q", errUsage, sc.NegativePolicy)
	}

	opts := report.Options{Styled: isTerminal(out), Humanize: f.humanize}
	var reporter engine.Reporter
	switch f.format {
	case "table":
		reporter = report.NewTable(out, sc.ReportEvery, opts)
	case "line":
		reporter = report.NewLine(out, opts)
	case "json":
		reporter = report.NewJSON(out)
	default:
		return fmt.Errorf("%w: unknown format %q", errUsage, f.format)
	}

	state, err := sc.State()
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	collector := metrics.New()
	tuning := optimization.DefaultConfig()
	workers := f.workers
	if workers <= 0 {
		workers = tuning.WorkersFor(state.Len())
	}

	var persister events.EventPersister
	if f.db != "" {
		store, err := openStore(f.db, tuning)
		if err != nil {
			return err
		}
		defer store.Close()
		persister = store.recorder
	}
	eventLog := events.NewEventLogSize(persister, tuning.EventBuffer)
	eventLog.OnPersistError(storage.PersistFailureHandler(appLogger, collector))

	runID := uuid.NewString()
	eng := engine.NewEngine(state, sc.EpidemicParams(), engine.Options{
		RunID:           runID,
		Scenario:        sc.Name,
		Workers:         workers,
		NegativePolicy:  policy,
		InitialNewCases: sc.InitialNewCases,
	}, eventLog, appLogger, collector)

	if f.format != "json" {
		if err := report.WriteHeader(out, sc.Name, state.Len(), sc.Days, sc.EpidemicParams(), opts); err != nil {
			return err
		}
	}

	appLogger.Infof("run %s: %d regions, %d workers, policy %s", runID, state.Len(), workers, policy)
	err = eng.Run(ctx, sc.Days, report.Counted(reporter, collector))
	if err != nil {
		if errors.Is(err, epidemic.ErrNegativeCompartment) {
			return fmt.Errorf("%w (rerun with --negative-policy allow to keep negative counts)", err)
		}
		return err
	}
	appLogger.Infof("run %s completed after %d days", runID, eng.Day())
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

type store struct {
	db       *sql.DB
	runs     *storage.SQLiteRunRepository
	reports  *storage.SQLiteReportRepository
	events   *storage.SQLiteEventRepository
	recorder *storage.Recorder
}

func openStore(path string, tuning *optimization.Config) (*store, error) {
	db, err := storage.InitSQLite(path, tuning)
	if err != nil {
		return nil, err
	}
	s := &store{
		db:      db,
		runs:    storage.NewSQLiteRunRepository(db),
		reports: storage.NewSQLiteReportRepository(db),
		events:  storage.NewSQLiteEventRepository(db),
	}
	s.recorder = storage.NewRecorder(s.runs, s.reports, s.events)
	return s, nil
}

func (s *store) Close() error {
	return s.db.Close()
}
