package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ljavorsk/IMS-project/internal/domain/epidemic"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestScenarioPrintsReference(t *testing.T) {
	out, err := execute(t, "scenario")
	require.NoError(t, err)
	assert.Contains(t, out, "name: slovakia")
	assert.Contains(t, out, "Banska Bystrica")
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	ref, err := execute(t, "scenario")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(good, []byte(ref), 0o644))

	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "slovakia: ok (8 regions, 61 days, R0=1.92)")
	assert.Contains(t, out, "theta=16 is outside [0,1]")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: x\n"), 0o644))
	_, err = execute(t, "validate", bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errUsage))
}

func TestRunLineFormat(t *testing.T) {
	out, err := execute(t, "run", "--format", "line", "--days", "3", "--quiet")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5) // two header lines, three days
	assert.Contains(t, lines[0], "slovakia")
	assert.Contains(t, lines[1], "R0=1.92")
	assert.Equal(t, "day   0  I=3146 S=5451156 R=3571 new=56", lines[2])
	assert.Contains(t, lines[3], "new=210")
}

func TestRunReferenceAbortsOnNegativeCompartment(t *testing.T) {
	out, err := execute(t, "run", "--quiet")
	require.Error(t, err)
	assert.ErrorIs(t, err, epidemic.ErrNegativeCompartment)
	assert.Contains(t, err.Error(), "--negative-policy allow")

	assert.Equal(t, 10, strings.Count(out, "DAY "))
	assert.Equal(t, 2, strings.Count(out, "DISTRICT")) // days 0 and 5
	assert.Contains(t, out, "DAY 0: | Infected: 3146")
}

func TestRunRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "run", "--format", "xml", "--quiet")
	assert.ErrorIs(t, err, errUsage)

	_, err = execute(t, "run", "--negative-policy", "clamp", "--quiet")
	assert.ErrorIs(t, err, errUsage)
}

func TestRunRecordsHistory(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	_, err := execute(t, "run", "--format", "json", "--days", "4", "--db", db, "--quiet")
	require.NoError(t, err)

	out, err := execute(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "COMPLETED")
	assert.Contains(t, out, "day 4/4")
	runID := strings.Fields(out)[0]

	out, err = execute(t, "history", "--db", db, runID)
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+runID)
	assert.Contains(t, out, "recorded:    days 0..4 (5 reports)")
	assert.Contains(t, out, "Run completed at day 4.")

	_, err = execute(t, "history", "--db", filepath.Join(t.TempDir(), "none.db"))
	assert.ErrorIs(t, err, errUsage)
}

func TestAuditReference(t *testing.T) {
	out, err := execute(t, "audit")
	require.NoError(t, err, out)
	assert.Contains(t, out, "PASS  determinism")
	assert.Contains(t, out, "PASS  parallel stepping")
	assert.Contains(t, out, "PASS  isolated regions")
	assert.Contains(t, out, "PASS  conservation")
	assert.Contains(t, out, "tuning: region workers ")
}
