package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ljavorsk/IMS-project/internal/engine"
	"github.com/ljavorsk/IMS-project/internal/platform/metrics"
)

// Line prints one compact line per day.
type Line struct {
	out  io.Writer
	opts Options
}

// NewLine creates a compact line reporter.
func NewLine(out io.Writer, opts Options) *Line {
	return &Line{out: out, opts: opts}
}

func (l *Line) Report(r engine.DayReport) error {
	_, err := fmt.Fprintf(l.out, "day %3d  I=%s S=%s R=%s new=%s\n", r.Day,
		formatCount(r.Totals.Infected, l.opts.Humanize),
		formatCount(r.Totals.Susceptible, l.opts.Humanize),
		formatCount(r.Totals.Recovered, l.opts.Humanize),
		formatCount(r.NewCases, l.opts.Humanize))
	return err
}

// JSON writes newline-delimited day reports.
type JSON struct {
	enc *json.Encoder
}

func NewJSON(out io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(out)}
}

func (j *JSON) Report(r engine.DayReport) error {
	return j.enc.Encode(r)
}

// Multi fans a report out to every reporter. All of them are called even if
// one fails; the failures are joined.
type Multi []engine.Reporter

func (m Multi) Report(r engine.DayReport) error {
	var errs []error
	for _, rep := range m {
		if rep == nil {
			continue
		}
		if err := rep.Report(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Counted records failed writes of the wrapped reporter.
func Counted(rep engine.Reporter, m *metrics.Collector) engine.Reporter {
	return engine.ReporterFunc(func(r engine.DayReport) error {
		err := rep.Report(r)
		if err != nil {
			m.RecordReportWriteError()
		}
		return err
	})
}
