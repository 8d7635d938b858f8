package excel

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cellfade/domain/battery"
	"cellfade/domain/core"
	"cellfade/internal"
	"cellfade/internal/errors"
	"cellfade/internal/testkit"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestWorkbook_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.xlsx")
	require.NoError(t, WriteWorkbook(path, testkit.CanonicalTests(), testkit.CanonicalChemistryStats()))

	tests, err := LoadTests(path)
	require.NoError(t, err)
	assert.Equal(t, testkit.CanonicalTests(), tests)

	stats, err := LoadStats(path)
	require.NoError(t, err)
	assert.Equal(t, testkit.CanonicalChemistryStats(), stats)
}

func TestLoadTests_CSV(t *testing.T) {
	path := writeFile(t, "tests.csv", `ID,Cell ID,Chemistry,Start Date,Current Cycle,Initial Capacity,Temperature,C-Rate,Status,Humidity
BT-101,LFP-1,lfp,2024-03-01,400,3.2,35,0.5,completed,50
,,

,NMC-2,NMC,,150,3.5,25,1,,
`)

	tests, err := LoadTests(path)
	require.NoError(t, err)
	require.Len(t, tests, 2)

	first := tests[0]
	assert.Equal(t, core.TestID("BT-101"), first.ID)
	assert.Equal(t, battery.ChemistryLFP, first.Chemistry)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.StartDate)
	assert.Equal(t, 400, first.CurrentCycle)
	assert.Equal(t, battery.StatusCompleted, first.Status)
	assert.Equal(t, 35.0, first.Conditions.Temperature, "condition temperature defaults to operating temperature")
	assert.Equal(t, 50.0, first.Conditions.Humidity)

	second := tests[1]
	assert.False(t, core.ID(second.ID).IsEmpty(), "missing ids are minted")
	assert.Equal(t, battery.StatusActive, second.Status)
	assert.True(t, second.StartDate.IsZero())
}

func TestLoadTests_ExcelSerialDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serial.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", SheetTests))
	require.NoError(t, f.SetSheetRow(SheetTests, "A1", &[]interface{}{"id", "chemistry", "start_date", "current_cycle", "initial_capacity", "temperature", "c_rate"}))
	require.NoError(t, f.SetSheetRow(SheetTests, "A2", &[]interface{}{"BT-9", "NCA", 45306, 100, 4.8, 25, 0.5}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	tests, err := LoadTests(path)
	require.NoError(t, err)
	require.Len(t, tests, 1)
	assert.Equal(t, "2024-01-15", tests[0].StartDate.Format(time.DateOnly))
}

func TestLoadTests_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		line    string
	}{
		{"bad number", "id,chemistry,current_cycle,initial_capacity,temperature,c_rate\nA,NMC,ten,3.5,25,1\n", "line 2"},
		{"missing required", "id,chemistry,current_cycle,temperature,c_rate\nA,NMC,10,25,1\n", "initialcapacity is required"},
		{"fractional cycle", "id,chemistry,current_cycle,initial_capacity,temperature,c_rate\nA,NMC,10.5,3.5,25,1\n", "whole number"},
		{"unknown status", "id,chemistry,current_cycle,initial_capacity,temperature,c_rate,status\nA,NMC,10,3.5,25,1,paused\n", "unknown status"},
		{"duplicate id", "id,chemistry,current_cycle,initial_capacity,temperature,c_rate\nA,NMC,10,3.5,25,1\nA,LFP,10,3.5,25,1\n", "duplicate test id"},
		{"missing chemistry", "id,current_cycle,initial_capacity,temperature,c_rate\nA,10,3.5,25,1\n", "chemistry is required"},
		{"NaN temperature", "id,chemistry,current_cycle,initial_capacity,temperature,c_rate\nA,NMC,10,3.5,NaN,1\n", `temperature: "NaN" is not finite`},
		{"infinite capacity", "id,chemistry,current_cycle,capacity,initial_capacity,temperature,c_rate\nA,NMC,10,+Inf,3.5,25,1\n", "is not finite"},
		{"infinite humidity", "id,chemistry,current_cycle,initial_capacity,temperature,c_rate,humidity\nA,NMC,10,3.5,25,1,-Inf\n", "humidity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTests(writeFile(t, "tests.csv", tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
			assert.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestLoadStats_NonFinite(t *testing.T) {
	path := writeFile(t, "stats.csv", "chemistry,avg_cycles_to_failure,capacity_retention_500,capacity_retention_1000,capacity_retention_2000,efficiency\nNMC,2200,92,85,72,NaN\n")
	_, err := LoadStats(path)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
	assert.Contains(t, err.Error(), "not finite")
}

func TestNewRepository_RejectsNonFiniteCells(t *testing.T) {
	path := writeFile(t, "tests.csv", "id,chemistry,current_cycle,capacity,initial_capacity,temperature,c_rate\nBT-1,NMC,100,Inf,3.5,NaN,1\n")
	_, err := NewRepository(RepositoryConfig{DataFile: path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestNewRepository_LogsThroughConfiguredLogger(t *testing.T) {
	path := writeFile(t, "tests.csv", "id,chemistry,current_cycle,capacity,initial_capacity,temperature,c_rate\nBT-1,NIMH,100,3.2,3.5,25,1\n")
	var buf bytes.Buffer
	repo, err := NewRepository(RepositoryConfig{DataFile: path, Logger: internal.NewLoggerTo(&buf, internal.LogLevelDebug)})
	require.NoError(t, err)
	require.NotNil(t, repo)

	out := buf.String()
	assert.Contains(t, out, "[excel] ")
	assert.Contains(t, out, "read "+path)
	assert.Contains(t, out, `test BT-1 has unrecognized chemistry "NIMH"`)
	assert.Contains(t, out, "loaded 1 tests")
}

func TestLoadTests_MissingFile(t *testing.T) {
	_, err := LoadTests(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestLoadStats_DuplicateChemistry(t *testing.T) {
	path := writeFile(t, "stats.csv", "chemistry,avg_cycles_to_failure,capacity_retention_500,capacity_retention_1000,capacity_retention_2000,efficiency\nNMC,1,2,3,4,5\nnmc,1,2,3,4,5\n")
	_, err := LoadStats(path)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestNewRepository(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("workbook supplies both tables", func(t *testing.T) {
		path := filepath.Join(dir, "all.xlsx")
		require.NoError(t, WriteWorkbook(path, testkit.CanonicalTests(), testkit.CanonicalChemistryStats()[:2]))

		repo, err := NewRepository(RepositoryConfig{DataFile: path, KPIReference: testkit.CanonicalKPIReference()})
		require.NoError(t, err)

		stats, err := repo.ChemistryStats(ctx)
		require.NoError(t, err)
		assert.Len(t, stats, 2)
		ref, err := repo.KPIReference(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1850.0, ref.AvgCyclesTo80)
	})

	t.Run("csv tests fall back to reference stats", func(t *testing.T) {
		path := writeFile(t, "tests.csv", "id,chemistry,current_cycle,initial_capacity,temperature,c_rate\nA,NMC,10,3.5,25,1\n")

		repo, err := NewRepository(RepositoryConfig{DataFile: path, FallbackStats: testkit.CanonicalChemistryStats()})
		require.NoError(t, err)

		tests, err := repo.Tests(ctx)
		require.NoError(t, err)
		assert.Len(t, tests, 1)
		stats, err := repo.ChemistryStats(ctx)
		require.NoError(t, err)
		assert.Len(t, stats, 4)
	})

	t.Run("separate stats file", func(t *testing.T) {
		tests := writeFile(t, "tests.csv", "id,chemistry,current_cycle,initial_capacity,temperature,c_rate\nA,NMC,10,3.5,25,1\n")
		stats := writeFile(t, "stats.csv", "chemistry,avg_cycles_to_failure,capacity_retention_500,capacity_retention_1000,capacity_retention_2000,efficiency\nNMC,2200,92,85,72,94.5\n")

		repo, err := NewRepository(RepositoryConfig{DataFile: tests, StatsFile: stats})
		require.NoError(t, err)
		got, err := repo.ChemistryStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 92.0, got[0].CapacityRetention500)
	})

	t.Run("no data file", func(t *testing.T) {
		_, err := NewRepository(RepositoryConfig{})
		assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
	})
}
