package excel

import (
	"strings"
)

// Sheet names inside a workbook
const (
	SheetTests = "Tests"
	SheetStats = "ChemistryStats"
)

// RawRow is one data row keyed by normalized header
type RawRow map[string]string

// Table is a header row plus data rows read from a sheet or csv file
type Table struct {
	Headers []string
	Rows    []RawRow
	// Line numbers of Rows in the source (1-based, header is line 1)
	Lines []int
}

// normalizeHeader lower-cases and strips everything but letters and digits,
// so "Initial Capacity", "initial_capacity" and "InitialCapacity" collide.
func normalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// test table columns
const (
	colID               = "id"
	colCellID           = "cellid"
	colChemistry        = "chemistry"
	colStartDate        = "startdate"
	colCurrentCycle     = "currentcycle"
	colCapacity         = "capacity"
	colInitialCapacity  = "initialcapacity"
	colTemperature      = "temperature"
	colCRate            = "crate"
	colStatus           = "status"
	colChargeVoltage    = "chargevoltage"
	colDischargeVoltage = "dischargevoltage"
	colCondTemperature  = "conditiontemperature"
	colHumidity         = "humidity"
)

// chemistry statistic columns
const (
	colCyclesToFailure = "avgcyclestofailure"
	colRetention500    = "capacityretention500"
	colRetention1000   = "capacityretention1000"
	colRetention2000   = "capacityretention2000"
	colEfficiency      = "efficiency"
)

var testHeaders = []string{
	"id", "cell_id", "chemistry", "start_date", "current_cycle", "capacity",
	"initial_capacity", "temperature", "c_rate", "status", "charge_voltage",
	"discharge_voltage", "condition_temperature", "humidity",
}

var statHeaders = []string{
	"chemistry", "avg_cycles_to_failure", "capacity_retention_500",
	"capacity_retention_1000", "capacity_retention_2000", "efficiency",
}
