package aggregate

import (
	"cellfade/domain/battery"
	"cellfade/internal/errors"
	"cellfade/ports"
)

// StatField names a numeric column of the chemistry reference table
type StatField string

const (
	FieldCyclesToFailure StatField = "avg_cycles_to_failure"
	FieldRetention500    StatField = "capacity_retention_500"
	FieldRetention1000   StatField = "capacity_retention_1000"
	FieldRetention2000   StatField = "capacity_retention_2000"
	FieldEfficiency      StatField = "efficiency"
)

const (
	boxSamples      = 20
	boxSpread       = 0.2 // of the reference value
	efficiencyCount = 50
	efficiencyWidth = 4.0 // percentage points
)

// FieldValue reads field from a reference row
func FieldValue(s battery.ChemistryStat, field StatField) (float64, error) {
	switch field {
	case FieldCyclesToFailure:
		return s.AvgCyclesToFailure, nil
	case FieldRetention500:
		return s.CapacityRetention500, nil
	case FieldRetention1000:
		return s.CapacityRetention1000, nil
	case FieldRetention2000:
		return s.CapacityRetention2000, nil
	case FieldEfficiency:
		return s.Efficiency, nil
	default:
		return 0, errors.InvalidArgument("unknown statistic field %q", field)
	}
}

// ReferenceSamples spreads illustrative samples around a single reference
// value: efficiency gets 50 draws within ±2 points, every other field 20
// draws within ±10% of its value. The reference table has no raw data; these
// are for box/violin display only.
func ReferenceSamples(s battery.ChemistryStat, field StatField, src ports.RandomSource) ([]float64, error) {
	value, err := FieldValue(s, field)
	if err != nil {
		return nil, err
	}
	if field == FieldEfficiency {
		return SpreadSamples(value, efficiencyWidth, efficiencyCount, src), nil
	}
	return SpreadSamples(value, value*boxSpread, boxSamples, src), nil
}
