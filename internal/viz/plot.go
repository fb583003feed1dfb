package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Cyan, asciigraph.Magenta, asciigraph.Yellow, asciigraph.Green, asciigraph.Red, asciigraph.Blue,
}

// PlotOptions sizes a chart.
type PlotOptions struct {
	Width   int
	Height  int
	Caption string
}

func (o PlotOptions) apply(extra ...asciigraph.Option) []asciigraph.Option {
	opts := []asciigraph.Option{asciigraph.Height(o.Height), asciigraph.Width(o.Width)}
	if o.Caption != "" {
		opts = append(opts, asciigraph.Caption(o.Caption))
	}
	return append(opts, extra...)
}

// PlotComponents charts the selected components of states against sample
// index. An empty selection plots every component.
func PlotComponents(states [][]float64, components []int, o PlotOptions) (string, error) {
	if len(states) == 0 {
		return "", fmt.Errorf("no samples to plot")
	}
	dim := len(states[0])
	if len(components) == 0 {
		for i := range dim {
			components = append(components, i)
		}
	}

	series := make([][]float64, 0, len(components))
	colors := make([]asciigraph.AnsiColor, 0, len(components))
	for n, c := range components {
		if c < 0 || c >= dim {
			return "", fmt.Errorf("component %d out of range [0,%d)", c, dim)
		}
		data := make([]float64, len(states))
		for i, s := range states {
			data[i] = s[c]
		}
		series = append(series, data)
		colors = append(colors, seriesColors[n%len(seriesColors)])
	}

	if len(series) == 1 {
		return asciigraph.Plot(series[0], o.apply()...), nil
	}
	return asciigraph.PlotMany(series, o.apply(asciigraph.SeriesColors(colors...))...), nil
}

// PlotStepSizes charts the step size of every sample after the first.
func PlotStepSizes(stepSizes []float64, o PlotOptions) (string, error) {
	if len(stepSizes) < 2 {
		return "", fmt.Errorf("no steps to plot")
	}
	return asciigraph.Plot(stepSizes[1:], o.apply(asciigraph.Precision(4))...), nil
}
