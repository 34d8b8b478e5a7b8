// Package analysis scores fitted models against logged data and digs into
// their residuals.
//
//   - [Evaluate]: RMSE, MAE and max error per predicted body state
//   - [Residuals]: one-step prediction residual series per state
//   - [Spectrum]: magnitude spectrum of a residual series
//   - [Phase]: phase-plane scatter of two logged channels
//   - [Divergence]: closed-loop sensitivity to a nudged initial state
//
// # Residual spectra
//
// A well-fitted model leaves residuals close to white noise. A dominant
// spectral bin points at periodic dynamics the tap windows missed:
//
//	res, _ := analysis.Residuals(m, &ds.Segments[0])
//	spec := analysis.Spectrum(res["vy"])
package analysis
