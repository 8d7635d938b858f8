package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"cellfade/domain/battery"
	"cellfade/internal/errors"
)

// WriteWorkbook saves tests and stats as a two-sheet workbook that LoadTests
// and LoadStats read back
func WriteWorkbook(path string, tests []battery.TestSummary, stats []battery.ChemistryStat) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetTests); err != nil {
		return errors.Wrap(err, "rename default sheet")
	}
	if _, err := f.NewSheet(SheetStats); err != nil {
		return errors.Wrap(err, "create stats sheet")
	}

	if err := writeRow(f, SheetTests, 1, toRow(testHeaders)); err != nil {
		return err
	}
	for i, t := range tests {
		row := []interface{}{
			t.ID.String(), t.CellID.String(), string(t.Chemistry), formatDate(t.StartDate),
			t.CurrentCycle, t.Capacity, t.InitialCapacity, t.Temperature, t.CRate,
			string(t.Status), t.Conditions.ChargeVoltage, t.Conditions.DischargeVoltage,
			t.Conditions.Temperature, t.Conditions.Humidity,
		}
		if err := writeRow(f, SheetTests, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, SheetStats, 1, toRow(statHeaders)); err != nil {
		return err
	}
	for i, s := range stats {
		row := []interface{}{
			string(s.Chemistry), s.AvgCyclesToFailure, s.CapacityRetention500,
			s.CapacityRetention1000, s.CapacityRetention2000, s.Efficiency,
		}
		if err := writeRow(f, SheetStats, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "save workbook %s", path)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, line int, values []interface{}) error {
	cell := fmt.Sprintf("A%d", line)
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "write %s!%s", sheet, cell)
	}
	return nil
}

func toRow(headers []string) []interface{} {
	out := make([]interface{}, len(headers))
	for i, h := range headers {
		out[i] = h
	}
	return out
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
