package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellfade/adapters/excel"
	"cellfade/app"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	return runEnv(t, nil, args...)
}

// runEnv executes the root command with a clean CELLFADE_* environment plus env
func runEnv(t *testing.T, env map[string]string, args ...string) string {
	t.Helper()
	for _, k := range []string{"CELLFADE_DATA_FILE", "CELLFADE_STATS_FILE", "CELLFADE_SEED", "CELLFADE_REGRESSION", "CELLFADE_CHECKPOINT", "CELLFADE_WORKERS"} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_LEVEL", "ERROR")
	for k, v := range env {
		t.Setenv(k, v)
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestKPIsCommand(t *testing.T) {
	out := run(t, "kpis", "--checkpoint", "2000")

	assert.Contains(t, out, "Total cells:        4")
	assert.Contains(t, out, "Completed tests:    1")
	assert.Contains(t, out, "Retention at 2000 cycles:")
	assert.Contains(t, out, "LFP   85.0%")
}

func TestFilterCommand(t *testing.T) {
	out := run(t, "filter", "--chemistry", "NMC,LFP", "--temp-max", "30")

	assert.Contains(t, out, "BT-001")
	assert.NotContains(t, out, "BT-002")
}

func TestFitCommand_JSON(t *testing.T) {
	out := run(t, "fit", "--seed", "3", "--kind", "quadratic", "--json")

	var report app.AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Fits, 4)
	assert.Equal(t, int64(3), report.Seed)
}

func TestFitCommand_Chart(t *testing.T) {
	out := run(t, "fit", "--seed", "3", "--chemistry", "LFP", "--chart")

	assert.Contains(t, out, "LFP observed (blue) vs linear fit (red)")
	assert.Contains(t, out, "y = ")
}

func TestSynthesizeCommand(t *testing.T) {
	out := run(t, "synthesize", "BT-003", "--seed", "1")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "CYCLE"))
	assert.Len(t, lines, 1+850/50+1)
}

func TestSynthesizeCommand_SeedFromEnv(t *testing.T) {
	fromEnv := runEnv(t, map[string]string{"CELLFADE_SEED": "5"}, "synthesize", "BT-001")
	fromFlag := run(t, "synthesize", "BT-001", "--seed", "5")
	assert.Equal(t, fromFlag, fromEnv)

	overridden := runEnv(t, map[string]string{"CELLFADE_SEED": "5"}, "synthesize", "BT-001", "--seed", "6")
	assert.NotEqual(t, fromEnv, overridden)
}

func TestDistributionCommand_SeedFromEnv(t *testing.T) {
	fromEnv := runEnv(t, map[string]string{"CELLFADE_SEED": "9"}, "distribution", "NMC", "--json")
	fromFlag := run(t, "distribution", "NMC", "--json", "--seed", "9")
	assert.Equal(t, fromFlag, fromEnv)
}

func TestReportCommand(t *testing.T) {
	out := run(t, "report", "BT-001", "BT-004", "BT-X")

	assert.Contains(t, out, "Total cycles:   2930")
	assert.Contains(t, out, "Unknown ids:    [BT-X]")
}

func TestExportFixturesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.xlsx")
	run(t, "export-fixtures", path)

	tests, err := excel.LoadTests(path)
	require.NoError(t, err)
	assert.Len(t, tests, 4)
}

func TestRenderFit_Empty(t *testing.T) {
	assert.Equal(t, "no data", renderFit(nil, []float64{1}, "x"))
	assert.Equal(t, "no data", renderSeries(nil, "x"))
	assert.Contains(t, renderSeries([]float64{1, 2, 3}, "rising"), "rising")
}
