// Package analysis post-processes recorded rate-controller telemetry.
//
//   - [ErrorSpectrum]: amplitude spectrum of one axis' tracking error
//   - [StepResponse]: rise time, overshoot and settling of a step run
//
// An oscillating loop shows up as a sharp peak in the error spectrum:
//
//	spectrum, err := analysis.ErrorSpectrum(records, ratecontrol.Roll)
//	if err == nil && spectrum.Dominant() > 10 {
//	    // roll loop is ringing above 10 Hz
//	}
package analysis
