package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljavorsk/IMS-project/internal/domain/epidemic"
	"github.com/ljavorsk/IMS-project/internal/engine"
	"github.com/ljavorsk/IMS-project/internal/platform/metrics"
)

func sampleReport(day int) engine.DayReport {
	return engine.DayReport{
		RunID:    "r1",
		Day:      day,
		Totals:   epidemic.Totals{Susceptible: 5230887, Infected: 3356, Recovered: 3622},
		NewCases: 210,
		Regions: []engine.RegionCounts{
			{Code: "BA", Name: "Bratislava", Susceptible: 668922, Infected: 318, Recovered: 351},
			{Code: "KE", Susceptible: 800739, Infected: 336, Recovered: 384},
		},
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestTablePrintsRegionsOnCadence(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, 5, Options{})

	require.NoError(t, tbl.Report(sampleReport(5)))
	out := buf.String()
	assert.Contains(t, out, "DISTRICT")
	assert.Contains(t, out, "Bratislava")
	assert.Contains(t, out, "668922")
	assert.Contains(t, out, "KE") // falls back to the code
	assert.Contains(t, out, "DAY 5: | Infected: 3356 | Healthy: 5230887 | Cured: 3622 | New Cases: 210")
	assert.True(t, strings.HasSuffix(out, "\n\n"))

	buf.Reset()
	require.NoError(t, tbl.Report(sampleReport(6)))
	assert.NotContains(t, buf.String(), "DISTRICT")
	assert.Equal(t, "DAY 6: | Infected: 3356 | Healthy: 5230887 | Cured: 3622 | New Cases: 210\n", buf.String())
}

func TestTableWithoutCadence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTable(&buf, 0, Options{}).Report(sampleReport(0)))
	assert.NotContains(t, buf.String(), "DISTRICT")
}

func TestHumanizedCounts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewLine(&buf, Options{Humanize: true}).Report(sampleReport(1)))
	assert.Equal(t, "day   1  I=3,356 S=5,230,887 R=3,622 new=210\n", buf.String())
}

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	j := NewJSON(&buf)
	require.NoError(t, j.Report(sampleReport(1)))
	require.NoError(t, j.Report(sampleReport(2)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got engine.DayReport
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &got))
	assert.Equal(t, 2, got.Day)
	assert.Equal(t, 3356, got.Totals.Infected)
	assert.Equal(t, "BA", got.Regions[0].Code)
}

func TestMultiCallsEveryReporter(t *testing.T) {
	var a, b bytes.Buffer
	m := Multi{NewLine(failingWriter{}, Options{}), NewLine(&a, Options{}), nil, NewJSON(&b)}

	err := m.Report(sampleReport(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
	assert.NotEmpty(t, a.String())
	assert.NotEmpty(t, b.String())
}

func TestCountedRecordsFailures(t *testing.T) {
	c := metrics.New()
	rep := Counted(NewLine(failingWriter{}, Options{}), c)
	assert.Error(t, rep.Report(sampleReport(1)))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "epidemic_report_write_errors_total 1")
}

func TestWriteHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, "slovakia", 8, 61, epidemic.ReferenceParams(), Options{}))
	assert.Contains(t, buf.String(), "Epidemic simulation: slovakia")
	assert.Contains(t, buf.String(), "R0=1.92")
}
