// Package filter selects tests and reference statistics by chemistry,
// temperature and C-rate.
package filter

import (
	"cellfade/domain/analysis"
	"cellfade/domain/battery"
)

// Matches reports whether a single test satisfies all criteria
func Matches(test battery.TestSummary, criteria analysis.FilterCriteria) bool {
	return containsChemistry(criteria.Chemistries, test.Chemistry) &&
		criteria.Temperature.Contains(test.Temperature) &&
		criteria.CRate.Contains(test.CRate)
}

// Tests returns the matching tests in input order. The input is not modified.
func Tests(tests []battery.TestSummary, criteria analysis.FilterCriteria) []battery.TestSummary {
	out := make([]battery.TestSummary, 0, len(tests))
	if len(criteria.Chemistries) == 0 {
		return out
	}
	for _, t := range tests {
		if Matches(t, criteria) {
			out = append(out, t)
		}
	}
	return out
}

// Stats returns the reference rows for the selected chemistries, in table order
func Stats(stats []battery.ChemistryStat, chemistries []battery.Chemistry) []battery.ChemistryStat {
	out := make([]battery.ChemistryStat, 0, len(chemistries))
	for _, s := range stats {
		if containsChemistry(chemistries, s.Chemistry) {
			out = append(out, s)
		}
	}
	return out
}

// the set is tiny (four chemistries), a linear scan beats building a map
func containsChemistry(set []battery.Chemistry, c battery.Chemistry) bool {
	for _, s := range set {
		if s == c {
			return true
		}
	}
	return false
}
