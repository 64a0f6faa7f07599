// Package analysis characterizes recorded trajectories.
//
//   - [PowerSpectrum] and [DominantFrequency]: frequency content of a column
//   - [NewPhasePortrait]: one column plotted against another
//
// Samples are assumed evenly spaced; the recorder's final row may be closer
// to its predecessor than the step size, which slightly blurs the spectrum.
package analysis
