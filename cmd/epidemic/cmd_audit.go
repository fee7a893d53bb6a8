package main

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ljavorsk/IMS-project/internal/config"
	"github.com/ljavorsk/IMS-project/internal/domain/epidemic"
	"github.com/ljavorsk/IMS-project/internal/engine"
	"github.com/ljavorsk/IMS-project/internal/platform/optimization"
)

// auditResult is one named model check.
type auditResult struct {
	Name   string
	Passed bool
	Detail string
}

func newAuditCmd() *cobra.Command {
	var scenarioPath string
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run model self-checks on a scenario",
		Long: `audit replays the scenario under controlled conditions and checks that
runs are deterministic, that parallel and sequential stepping agree, that a
region without commuters follows the single-region recurrence, and that
without transmission the compartments only drift by rounding.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := loadScenario(scenarioPath)
			if err != nil {
				return err
			}
			results, avgLatency := runAudit(cmd.Context(), sc)

			out := cmd.OutOrStdout()
			styled := isTerminal(out)
			ok := lipgloss.NewStyle().Foreground(lipgloss.Color("#2CD7C7"))
			bad := lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
			if !styled {
				ok, bad = lipgloss.NewStyle(), lipgloss.NewStyle()
			}

			failed := 0
			for _, r := range results {
				mark := ok.Render("PASS")
				if !r.Passed {
					mark = bad.Render("FAIL")
					failed++
				}
				fmt.Fprintf(out, "%s  %-22s %s\n", mark, r.Name, r.Detail)
			}

			rec := optimization.Analyze(float64(avgLatency.Microseconds())/1000, 0)
			fmt.Fprintf(out, "average day latency: %s\n", avgLatency)
			for _, note := range rec.Notes {
				fmt.Fprintf(out, "note: %s\n", note)
			}
			tuning := optimization.ApplyRecommendations(optimization.DefaultConfig(), rec)
			fmt.Fprintf(out, "tuning: region workers %d, broadcast buffer %d, client buffer %d\n",
				tuning.RegionWorkers, tuning.BroadcastBuffer, tuning.ClientSendBuffer)

			if failed > 0 {
				return fmt.Errorf("%d of %d audit checks failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "scenario YAML file (default: embedded reference)")
	return cmd
}

func runAudit(ctx context.Context, sc *config.Scenario) ([]auditResult, time.Duration) {
	days := sc.Days - 1
	if days < 1 {
		days = 1
	}

	var results []auditResult

	a := replay(ctx, sc, sc.EpidemicParams(), 1, days)
	b := replay(ctx, sc, sc.EpidemicParams(), 1, days)
	results = append(results, compareReplays("determinism", a, b))

	p := replay(ctx, sc, sc.EpidemicParams(), 4, days)
	results = append(results, compareReplays("parallel stepping", a, p))

	results = append(results, checkIsolatedRegions(ctx, sc))
	results = append(results, checkConservation(ctx, sc, days))

	return results, a.latency
}

// replayResult holds every snapshot of a replay and how it ended.
type replayResult struct {
	snaps   []*epidemic.State
	err     error
	latency time.Duration // average per advanced day
}

// replay advances a fresh engine up to days times, keeping every snapshot.
// Negative counts are tolerated so the run goes as far as the model allows.
func replay(ctx context.Context, sc *config.Scenario, p epidemic.Params, workers, days int) replayResult {
	st, err := sc.State()
	if err != nil {
		return replayResult{err: err}
	}
	return replayState(ctx, st, p, workers, days)
}

func replayState(ctx context.Context, st *epidemic.State, p epidemic.Params, workers, days int) replayResult {
	eng := engine.NewEngine(st, p, engine.Options{Workers: workers, NegativePolicy: engine.NegativeAllow}, nil, nil, nil)
	res := replayResult{snaps: []*epidemic.State{eng.Snapshot()}}
	start := time.Now()
	for i := 0; i < days; i++ {
		if _, err := eng.AdvanceDay(ctx); err != nil {
			res.err = err
			break
		}
		res.snaps = append(res.snaps, eng.Snapshot())
	}
	res.latency = average(time.Since(start), len(res.snaps)-1)
	return res
}

func average(total time.Duration, n int) time.Duration {
	if n < 1 {
		return 0
	}
	return total / time.Duration(n)
}

func compareReplays(name string, a, b replayResult) auditResult {
	if len(a.snaps) != len(b.snaps) {
		return auditResult{name, false, fmt.Sprintf("stopped after %d vs %d days", len(a.snaps)-1, len(b.snaps)-1)}
	}
	for day := range a.snaps {
		x, y := a.snaps[day], b.snaps[day]
		if !reflect.DeepEqual(x.S, y.S) || !reflect.DeepEqual(x.I, y.I) || !reflect.DeepEqual(x.R, y.R) {
			return auditResult{name, false, fmt.Sprintf("diverged on day %d", day)}
		}
	}
	if fmt.Sprint(a.err) != fmt.Sprint(b.err) {
		return auditResult{name, false, fmt.Sprintf("errors differ: %v / %v", a.err, b.err)}
	}
	detail := fmt.Sprintf("%d days identical", len(a.snaps)-1)
	if a.err != nil {
		detail += fmt.Sprintf(", both stopped with: %v", a.err)
	}
	return auditResult{name, true, detail}
}

// checkIsolatedRegions removes every commuter and compares one day with the
// single-region recurrence, where inflow, outflow and mixing vanish and the
// home term keeps ALFA*(1-THETA)*s*I*BETA/pop.
func checkIsolatedRegions(ctx context.Context, sc *config.Scenario) auditResult {
	const name = "isolated regions"
	st, err := sc.State()
	if err != nil {
		return auditResult{name, false, err.Error()}
	}
	n := st.Len()
	st.Commuting = make([][]int, n)
	for i := range st.Commuting {
		st.Commuting[i] = make([]int, n)
	}
	initial := st.Clone()
	p := sc.EpidemicParams()

	res := replayState(ctx, st, p, 1, 1)
	if res.err != nil {
		return auditResult{name, false, res.err.Error()}
	}
	next := res.snaps[1]

	for d := 0; d < n; d++ {
		s, inf := float64(initial.S[d]), float64(initial.I[d])
		pop := float64(initial.Population(d))
		local := p.Theta * s * inf * p.Beta / pop
		home := p.Alfa * (1 - p.Theta) * ((s * (inf * p.Beta)) / pop)

		wantS := int(math.Round(s - local - home))
		wantI := int(math.Round(inf + local - p.Gamma*inf + home))
		wantR := int(float64(initial.R[d]) + p.Gamma*inf)
		if next.S[d] != wantS || next.I[d] != wantI || next.R[d] != wantR {
			return auditResult{name, false, fmt.Sprintf("region %s: got (%d,%d,%d), want (%d,%d,%d)",
				initial.Regions[d].Code, next.S[d], next.I[d], next.R[d], wantS, wantI, wantR)}
		}
	}
	return auditResult{name, true, fmt.Sprintf("%d regions match the closed form", n)}
}

// checkConservation disables transmission (ALFA = THETA = 0) and bounds the
// drift of s+I+r from the population by one person per day.
func checkConservation(ctx context.Context, sc *config.Scenario, days int) auditResult {
	const name = "conservation"
	p := sc.EpidemicParams()
	p.Alfa, p.Theta = 0, 0

	res := replay(ctx, sc, p, 1, days)
	if res.err != nil {
		return auditResult{name, false, res.err.Error()}
	}
	last := res.snaps[len(res.snaps)-1]
	worst := 0
	for d := range last.Regions {
		drift := last.Population(d) - (last.S[d] + last.I[d] + last.R[d])
		if drift < 0 {
			drift = -drift
		}
		if drift > worst {
			worst = drift
		}
	}
	if worst > days {
		return auditResult{name, false, fmt.Sprintf("drift %d after %d days", worst, days)}
	}
	return auditResult{name, true, fmt.Sprintf("max drift %d after %d days", worst, days)}
}
