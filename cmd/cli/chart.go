package main

import (
	"github.com/guptarohit/asciigraph"
)

const (
	chartWidth  = 72
	chartHeight = 12
)

// renderSeries plots one series
func renderSeries(data []float64, caption string) string {
	if len(data) == 0 {
		return "no data"
	}
	return asciigraph.Plot(data,
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(caption),
	)
}

// renderFit overlays observed and fitted values, both indexed by sample
func renderFit(observed, fitted []float64, caption string) string {
	if len(observed) == 0 || len(fitted) == 0 {
		return "no data"
	}
	return asciigraph.PlotMany([][]float64{observed, fitted},
		asciigraph.Height(chartHeight),
		asciigraph.Width(chartWidth),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(
			asciigraph.Blue,
			asciigraph.Red,
		),
	)
}
