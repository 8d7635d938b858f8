package testkit

import (
	"time"

	"cellfade/domain/battery"
)

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// CanonicalTests returns the four reference cells: NMC@25°C/1.0C,
// LFP@40°C/0.5C, LCO@25°C/1.0C, NCA@25°C/0.5C. A fresh slice every call.
func CanonicalTests() []battery.TestSummary {
	return []battery.TestSummary{
		{
			ID:              "BT-001",
			CellID:          "NMC-18650-001",
			Chemistry:       battery.ChemistryNMC,
			StartDate:       date("2024-01-15"),
			CurrentCycle:    1250,
			Capacity:        2.8,
			InitialCapacity: 3.5,
			Temperature:     25,
			CRate:           1.0,
			Status:          battery.StatusActive,
			Conditions:      battery.TestConditions{ChargeVoltage: 4.2, DischargeVoltage: 2.5, Temperature: 25, Humidity: 45},
		},
		{
			ID:              "BT-002",
			CellID:          "LFP-26650-002",
			Chemistry:       battery.ChemistryLFP,
			StartDate:       date("2024-01-20"),
			CurrentCycle:    2100,
			Capacity:        2.9,
			InitialCapacity: 3.2,
			Temperature:     40,
			CRate:           0.5,
			Status:          battery.StatusActive,
			Conditions:      battery.TestConditions{ChargeVoltage: 3.6, DischargeVoltage: 2.0, Temperature: 40, Humidity: 50},
		},
		{
			ID:              "BT-003",
			CellID:          "LCO-18650-003",
			Chemistry:       battery.ChemistryLCO,
			StartDate:       date("2024-02-01"),
			CurrentCycle:    850,
			Capacity:        2.1,
			InitialCapacity: 2.6,
			Temperature:     25,
			CRate:           1.0,
			Status:          battery.StatusCompleted,
			Conditions:      battery.TestConditions{ChargeVoltage: 4.2, DischargeVoltage: 2.75, Temperature: 25, Humidity: 45},
		},
		{
			ID:              "BT-004",
			CellID:          "NCA-21700-004",
			Chemistry:       battery.ChemistryNCA,
			StartDate:       date("2024-02-10"),
			CurrentCycle:    1680,
			Capacity:        3.8,
			InitialCapacity: 4.8,
			Temperature:     25,
			CRate:           0.5,
			Status:          battery.StatusActive,
			Conditions:      battery.TestConditions{ChargeVoltage: 4.2, DischargeVoltage: 2.5, Temperature: 25, Humidity: 40},
		},
	}
}

// CanonicalChemistryStats returns the reference table
func CanonicalChemistryStats() []battery.ChemistryStat {
	return []battery.ChemistryStat{
		{Chemistry: battery.ChemistryNMC, AvgCyclesToFailure: 2200, CapacityRetention500: 92, CapacityRetention1000: 85, CapacityRetention2000: 72, Efficiency: 94.5},
		{Chemistry: battery.ChemistryLFP, AvgCyclesToFailure: 3800, CapacityRetention500: 96, CapacityRetention1000: 92, CapacityRetention2000: 85, Efficiency: 96.2},
		{Chemistry: battery.ChemistryLCO, AvgCyclesToFailure: 1200, CapacityRetention500: 88, CapacityRetention1000: 78, CapacityRetention2000: 65, Efficiency: 92.1},
		{Chemistry: battery.ChemistryNCA, AvgCyclesToFailure: 2800, CapacityRetention500: 94, CapacityRetention1000: 87, CapacityRetention2000: 75, Efficiency: 93.8},
	}
}

// CanonicalKPIReference is the reference-table KPI figure set
func CanonicalKPIReference() battery.KPIReference {
	return battery.KPIReference{AvgCyclesTo80: 1850}
}
