package container

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellfade/domain/analysis"
	"cellfade/internal/config"
	"cellfade/internal/errors"
)

func baseConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "8080"},
		Data:     config.DataConfig{AvgCyclesTo80: 1700},
		Analysis: config.AnalysisConfig{Regression: analysis.KindLinear, Checkpoint: analysis.Checkpoint500, Workers: 2},
		LogLevel: "ERROR",
	}
}

func TestNew_FallsBackToFixtures(t *testing.T) {
	c, err := New(baseConfig())
	require.NoError(t, err)

	tests, err := c.Repository.Tests(context.Background())
	require.NoError(t, err)
	assert.Len(t, tests, 4)

	kpis, err := c.Analytics.KPIs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1700.0, kpis.AvgCyclesTo80)
}

func TestNew_LoadsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tests.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"id,cell_id,chemistry,start_date,current_cycle,capacity,initial_capacity,temperature,c_rate,status\n"+
			"X-1,C-1,LFP,2024-03-01,400,3.0,3.2,30,1.0,active\n"), 0o644))

	cfg := baseConfig()
	cfg.Data.DataFile = path
	c, err := New(cfg)
	require.NoError(t, err)

	tests, err := c.Repository.Tests(context.Background())
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "X-1", tests[0].ID.String())

	stats, err := c.Repository.ChemistryStats(context.Background())
	require.NoError(t, err)
	assert.Len(t, stats, 4, "csv data files fall back to the reference table")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(nil)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	cfg := baseConfig()
	cfg.Data.DataFile = filepath.Join(t.TempDir(), "missing.xlsx")
	_, err = New(cfg)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestServer_Healthz(t *testing.T) {
	c, err := New(baseConfig())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	c.Server().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
