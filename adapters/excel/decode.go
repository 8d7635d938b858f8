package excel

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"cellfade/domain/battery"
	"cellfade/domain/core"
	"cellfade/internal/errors"
)

// rowDecoder accumulates the first parse error of a row
type rowDecoder struct {
	row  RawRow
	line int
	err  error
}

func (d *rowDecoder) str(col string) string {
	return d.row[col]
}

func (d *rowDecoder) float(col string, required bool) float64 {
	raw := d.row[col]
	if raw == "" {
		if required && d.err == nil {
			d.err = errors.InvalidArgument("line %d: %s is required", d.line, col)
		}
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if d.err == nil {
			d.err = errors.InvalidArgument("line %d: %s: %q is not a number", d.line, col, raw)
		}
		return 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		if d.err == nil {
			d.err = errors.InvalidArgument("line %d: %s: %q is not finite", d.line, col, raw)
		}
		return 0
	}
	return v
}

func (d *rowDecoder) int(col string, required bool) int {
	f := d.float(col, required)
	if f != float64(int(f)) && d.err == nil {
		d.err = errors.InvalidArgument("line %d: %s: %v is not a whole number", d.line, col, f)
	}
	return int(f)
}

// date accepts ISO dates, RFC3339 timestamps and Excel serial numbers
func (d *rowDecoder) date(col string) time.Time {
	raw := d.row[col]
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
			return t
		}
	}
	if d.err == nil {
		d.err = errors.InvalidArgument("line %d: %s: %q is not a date", d.line, col, raw)
	}
	return time.Time{}
}

// DecodeTests maps a table onto test summaries. Rows without an id get a
// fresh one; a missing condition temperature defaults to the operating
// temperature; a missing status means active.
func DecodeTests(t *Table) ([]battery.TestSummary, error) {
	out := make([]battery.TestSummary, 0, len(t.Rows))
	seen := make(map[core.TestID]int, len(t.Rows))

	for i, row := range t.Rows {
		d := &rowDecoder{row: row, line: t.Lines[i]}

		id := core.TestID(d.str(colID))
		if core.ID(id).IsEmpty() {
			id = core.NewTestID()
		}
		if prev, dup := seen[id]; dup {
			return nil, errors.InvalidArgument("line %d: duplicate test id %s (first on line %d)", d.line, id, prev)
		}
		seen[id] = d.line

		status := battery.TestStatus(strings.ToLower(d.str(colStatus)))
		if status == "" {
			status = battery.StatusActive
		}
		if !status.Valid() {
			return nil, errors.InvalidArgument("line %d: unknown status %q", d.line, status)
		}

		chem := battery.ParseChemistry(d.str(colChemistry))
		if chem == "" {
			return nil, errors.InvalidArgument("line %d: chemistry is required", d.line)
		}

		test := battery.TestSummary{
			ID:              id,
			CellID:          core.CellID(d.str(colCellID)),
			Chemistry:       chem,
			StartDate:       d.date(colStartDate),
			CurrentCycle:    d.int(colCurrentCycle, true),
			Capacity:        d.float(colCapacity, false),
			InitialCapacity: d.float(colInitialCapacity, true),
			Temperature:     d.float(colTemperature, true),
			CRate:           d.float(colCRate, true),
			Status:          status,
			Conditions: battery.TestConditions{
				ChargeVoltage:    d.float(colChargeVoltage, false),
				DischargeVoltage: d.float(colDischargeVoltage, false),
				Humidity:         d.float(colHumidity, false),
			},
		}
		if _, ok := row[colCondTemperature]; ok && row[colCondTemperature] != "" {
			test.Conditions.Temperature = d.float(colCondTemperature, false)
		} else {
			test.Conditions.Temperature = test.Temperature
		}
		if d.err != nil {
			return nil, d.err
		}
		out = append(out, test)
	}
	return out, nil
}

// DecodeStats maps a table onto chemistry reference rows
func DecodeStats(t *Table) ([]battery.ChemistryStat, error) {
	out := make([]battery.ChemistryStat, 0, len(t.Rows))
	seen := make(map[battery.Chemistry]bool, len(t.Rows))

	for i, row := range t.Rows {
		d := &rowDecoder{row: row, line: t.Lines[i]}

		chem := battery.ParseChemistry(d.str(colChemistry))
		if chem == "" {
			return nil, errors.InvalidArgument("line %d: chemistry is required", d.line)
		}
		if seen[chem] {
			return nil, errors.InvalidArgument("line %d: duplicate chemistry %s", d.line, chem)
		}
		seen[chem] = true

		stat := battery.ChemistryStat{
			Chemistry:             chem,
			AvgCyclesToFailure:    d.float(colCyclesToFailure, true),
			CapacityRetention500:  d.float(colRetention500, true),
			CapacityRetention1000: d.float(colRetention1000, true),
			CapacityRetention2000: d.float(colRetention2000, true),
			Efficiency:            d.float(colEfficiency, true),
		}
		if d.err != nil {
			return nil, d.err
		}
		out = append(out, stat)
	}
	return out, nil
}
