// Package viz renders solutions in the terminal.
//
//   - [PlotComponents], [PlotStepSizes]: asciigraph charts of a trajectory
//   - [Canvas], [PhasePortrait]: Braille pixel canvas for two-component plots
//   - [Summary], [SparklineChart], [ProgressBar]: lipgloss-styled panels
//
// Everything here only reads the t and y of each sample.
package viz
