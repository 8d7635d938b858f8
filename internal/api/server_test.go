package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellfade/adapters/rng"
	"cellfade/app"
	"cellfade/domain/battery"
	"cellfade/internal"
	"cellfade/internal/errors"
	"cellfade/internal/testkit"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := internal.NewLoggerTo(io.Discard, internal.LogLevelError)
	svc := app.NewAnalyticsService(testkit.NewCanonicalRepository(), rng.New(), logger, 2)
	ts := httptest.NewServer(NewServer(svc, Defaults{Seed: 42}, logger))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, ts *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestListTests(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := do(t, ts, http.MethodGet, "/api/tests", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body struct {
		Tests []battery.TestSummary `json:"tests"`
		Count int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, 4, body.Count)
	assert.Equal(t, battery.ChemistryLFP, body.Tests[1].Chemistry)
}

func TestAnalysis(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := do(t, ts, http.MethodPost, "/api/analysis",
		`{"criteria":{"chemistries":["nmc","LFP"],"temperature":{"lo":20,"hi":50},"c_rate":{"lo":0.5,"hi":2}},"kind":"exponential"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))

	var report app.AnalysisReport
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, int64(42), report.Seed)
	require.Len(t, report.Fits, 2)
	assert.Equal(t, battery.ChemistryNMC, report.Fits[0].Series.Chemistry)
	assert.NotZero(t, report.Fits[0].Fit.Coefficients.A)
	assert.Equal(t, 2, report.KPIs.TotalCells)
}

func TestAnalysis_SeedMakesResponsesIdentical(t *testing.T) {
	ts := newTestServer(t)

	_, first := do(t, ts, http.MethodGet, "/api/tests/BT-002/cycles?seed=9", "")
	_, second := do(t, ts, http.MethodGet, "/api/tests/BT-002/cycles?seed=9", "")
	assert.JSONEq(t, string(first), string(second))
}

func TestKPIs(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := do(t, ts, http.MethodGet, "/api/kpis", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"total_cells":4,"avg_cycles_to_80":1850,"tests_in_progress":3,"completed_tests":1}`, string(raw))
}

func TestRetention(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := do(t, ts, http.MethodGet, "/api/retention/1000?chemistry=lco,NCA", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"checkpoint":1000,"retention":{"LCO":78,"NCA":87}}`, string(raw))
}

func TestRegression(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := do(t, ts, http.MethodPost, "/api/regression", `{"x":[0,1,2],"y":[1,3,5]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fit app.FitResponse
	require.NoError(t, json.Unmarshal(raw, &fit))
	assert.InDelta(t, 2, fit.Coefficients.Slope, 1e-9)
	assert.InDelta(t, 1, fit.Coefficients.Intercept, 1e-9)
	assert.InDelta(t, 1, fit.RSquared, 1e-9)
}

func TestReport(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := do(t, ts, http.MethodPost, "/api/report", `{"ids":["BT-001","BT-002","BT-777"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary battery.ReportSummary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, 2, summary.SelectedTests)
	assert.Equal(t, 3350, summary.TotalCycles)
	assert.Len(t, summary.Missing, 1)
}

func TestDistribution(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := do(t, ts, http.MethodGet, "/api/chemistry/nmc/distribution?field=capacity_retention_500", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var dist app.DistributionResponse
	require.NoError(t, json.Unmarshal(raw, &dist))
	assert.Len(t, dist.Samples, 20)
	assert.InDelta(t, 92, dist.Summary.Median, 92*0.1)
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"unknown test", http.MethodGet, "/api/tests/BT-404/cycles", "", http.StatusNotFound, errors.CodeNotFound},
		{"bad seed", http.MethodGet, "/api/tests/BT-001/cycles?seed=abc", "", http.StatusBadRequest, errors.CodeInvalidArgument},
		{"unsupported checkpoint", http.MethodGet, "/api/retention/750", "", http.StatusBadRequest, errors.CodeInvalidArgument},
		{"checkpoint not a number", http.MethodGet, "/api/retention/soon", "", http.StatusBadRequest, errors.CodeInvalidArgument},
		{"too few points", http.MethodPost, "/api/regression", `{"x":[1],"y":[2]}`, http.StatusUnprocessableEntity, errors.CodeInsufficientData},
		{"zero variance", http.MethodPost, "/api/regression", `{"x":[3,3,3],"y":[1,2,3]}`, http.StatusUnprocessableEntity, errors.CodeDegenerateInput},
		{"unknown kind", http.MethodPost, "/api/regression", `{"x":[1,2],"y":[1,2],"kind":"spline"}`, http.StatusBadRequest, errors.CodeInvalidArgument},
		{"malformed body", http.MethodPost, "/api/analysis", `{"kind":`, http.StatusBadRequest, errors.CodeInvalidArgument},
		{"unknown field", http.MethodGet, "/api/chemistry/NMC/distribution?field=voltage", "", http.StatusBadRequest, errors.CodeInvalidArgument},
		{"unknown chemistry", http.MethodGet, "/api/chemistry/NIMH/distribution", "", http.StatusNotFound, errors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := do(t, ts, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(raw))

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(raw, &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
