package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ljavorsk/IMS-project/internal/infra/storage"
	"github.com/ljavorsk/IMS-project/internal/platform/optimization"
)

func newHistoryCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
		since  int
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or summarize one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(dbPath); err != nil {
				return fmt.Errorf("%w: %v", errUsage, err)
			}
			st, err := openStore(dbPath, optimization.LowResourceConfig())
			if err != nil {
				return err
			}
			defer st.Close()

			if len(args) == 0 {
				return listRuns(cmd, st, limit)
			}
			return summarizeRun(cmd, st, args[0], since)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "epidemic.db", "SQLite file written by run --db")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	cmd.Flags().IntVar(&since, "since", 0, "first day of the event recap")
	return cmd
}

func listRuns(cmd *cobra.Command, st *store, limit int) error {
	runs, err := st.runs.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs recorded")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %-10s %-9s day %d/%d  started %s\n",
			r.ID, r.Scenario, r.Status, r.FinalDay, r.Days, humanize.Time(r.StartedAt))
	}
	return nil
}

func summarizeRun(cmd *cobra.Command, st *store, runID string, since int) error {
	ctx := cmd.Context()
	run, err := st.runs.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	rec := storage.NewReconstructor(st.reports, st.events)
	sum, err := rec.Summarize(ctx, runID)
	if err != nil {
		return err
	}
	recap, err := rec.GenerateRecap(ctx, runID, since)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	title := lipgloss.NewStyle().Bold(isTerminal(out))
	fmt.Fprintln(out, title.Render("Run "+run.ID))
	fmt.Fprintf(out, "scenario:    %s (%d regions)\n", run.Scenario, run.Regions)
	fmt.Fprintf(out, "status:      %s at day %d of %d\n", run.Status, run.FinalDay, run.Days)
	if run.Error != "" {
		fmt.Fprintf(out, "error:       %s\n", run.Error)
	}
	fmt.Fprintf(out, "params:      %s\n", run.ParamsJSON)
	fmt.Fprintf(out, "recorded:    days %d..%d (%d reports)\n", sum.FirstDay, sum.LastDay, sum.DaysRecorded)
	fmt.Fprintf(out, "peak:        %s infected on day %d\n", humanize.Comma(int64(sum.PeakInfected)), sum.PeakDay)
	fmt.Fprintf(out, "new cases:   %s\n", humanize.Comma(int64(sum.TotalNewCases)))
	fmt.Fprintf(out, "final:       I=%s S=%s R=%s\n",
		humanize.Comma(int64(sum.Final.Infected)),
		humanize.Comma(int64(sum.Final.Susceptible)),
		humanize.Comma(int64(sum.Final.Recovered)))

	for _, e := range recap {
		fmt.Fprintf(out, "  day %3d  %-8s %s\n", e.Day, e.Impact, e.Summary)
	}
	return nil
}
