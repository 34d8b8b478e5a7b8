// Package viz renders training and evaluation output for the terminal
// and for image files.
//
// Terminal charts are plain strings built with asciigraph:
//
//   - [Chart]: one series as a line chart
//   - [LossCurve]: per-epoch train and validation totals
//   - [Compare]: a measured signal stacked over its predictions
//   - [SpectrumChart]: residual spectrum magnitudes
//
// [SavePlot] writes the same data as PNG or SVG through gonum/plot for
// reports. The lipgloss styles and sparkline helpers are shared with
// the live training view.
package viz
