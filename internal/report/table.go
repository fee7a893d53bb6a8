// Package report renders day reports for terminals, logs and pipes.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/ljavorsk/IMS-project/internal/domain/epidemic"
	"github.com/ljavorsk/IMS-project/internal/engine"
)

var (
	colorInfected  = lipgloss.Color("#E74C3C")
	colorHealthy   = lipgloss.Color("#2CD7C7")
	colorRecovered = lipgloss.Color("#F4D03F")
	colorRule      = lipgloss.Color("#2C4A54")
)

const (
	nameWidth  = 18
	countWidth = 14
	ruleWidth  = 80
)

// Options tune the console renderers.
type Options struct {
	Styled   bool // ANSI styling via lipgloss
	Humanize bool // thousands separators
}

// Table prints the per-region table every few days and an aggregate line
// for every day.
type Table struct {
	out   io.Writer
	every int
	opts  Options

	title     lipgloss.Style
	rule      lipgloss.Style
	infected  lipgloss.Style
	healthy   lipgloss.Style
	recovered lipgloss.Style
}

// NewTable creates a table reporter. every <= 0 disables the per-region table.
func NewTable(out io.Writer, every int, opts Options) *Table {
	t := &Table{
		out:       out,
		every:     every,
		opts:      opts,
		title:     lipgloss.NewStyle(),
		rule:      lipgloss.NewStyle(),
		infected:  lipgloss.NewStyle(),
		healthy:   lipgloss.NewStyle(),
		recovered: lipgloss.NewStyle(),
	}
	if opts.Styled {
		t.title = t.title.Bold(true)
		t.rule = t.rule.Foreground(colorRule)
		t.infected = t.infected.Foreground(colorInfected)
		t.healthy = t.healthy.Foreground(colorHealthy)
		t.recovered = t.recovered.Foreground(colorRecovered)
	}
	return t
}

// Report implements engine.Reporter.
func (t *Table) Report(r engine.DayReport) error {
	var b strings.Builder
	withTable := t.every > 0 && r.Day%t.every == 0

	if withTable {
		rule := t.rule.Render(strings.Repeat("-", ruleWidth))
		b.WriteString("\n" + rule + "\n")
		b.WriteString(t.title.Render(t.row("DISTRICT", "INFECTED", "HEALTHY", "CURED")) + "\n")
		b.WriteString(rule + "\n")
		for _, reg := range r.Regions {
			name := reg.Name
			if name == "" {
				name = reg.Code
			}
			b.WriteString(t.row(name,
				t.infected.Render(t.count(reg.Infected)),
				t.healthy.Render(t.count(reg.Susceptible)),
				t.recovered.Render(t.count(reg.Recovered))) + "\n")
		}
		b.WriteString(rule + "\n")
	}

	fmt.Fprintf(&b, "DAY %d: | Infected: %s | Healthy: %s | Cured: %s | New Cases: %s\n",
		r.Day, t.count(r.Totals.Infected), t.count(r.Totals.Susceptible),
		t.count(r.Totals.Recovered), t.count(r.NewCases))
	if withTable {
		b.WriteString("\n")
	}

	_, err := io.WriteString(t.out, b.String())
	return err
}

func (t *Table) row(name, infected, healthy, recovered string) string {
	cell := lipgloss.NewStyle().Width(countWidth)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(nameWidth).Render(name), "| ",
		cell.Render(infected), "| ",
		cell.Render(healthy), "| ",
		recovered)
}

func (t *Table) count(n int) string {
	return formatCount(n, t.opts.Humanize)
}

func formatCount(n int, human bool) string {
	if human {
		return humanize.Comma(int64(n))
	}
	return fmt.Sprintf("%d", n)
}

// WriteHeader prints the run banner with the reproduction number.
func WriteHeader(out io.Writer, scenario string, regions, days int, p epidemic.Params, opts Options) error {
	title := lipgloss.NewStyle()
	if opts.Styled {
		title = title.Bold(true).Foreground(colorHealthy)
	}
	_, err := fmt.Fprintf(out, "%s\n%d regions, %d days, BETA=%g GAMMA=%g THETA=%g ALFA=%g, R0=%.2f\n",
		title.Render("Epidemic simulation: "+scenario), regions, days,
		p.Beta, p.Gamma, p.Theta, p.Alfa, p.R0())
	return err
}
