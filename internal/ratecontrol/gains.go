package ratecontrol

import "fmt"

// MinWindow is the shortest MFC window the estimator can integrate over.
const MinWindow = 4

// MFCGains configures the model-free law. Window is fixed for the lifetime
// of a RateControl.
type MFCGains struct {
	P, I, D Vector3

	FHatGain     float64 // weight of the unmodeled-dynamics estimate
	SetpointGain float64 // weight of the setpoint curvature estimate
	Lambda       float64 // ultra-local plant gain constant
	Window       int
}

// ValidateWindow reports whether n can be used as an MFC window length.
func ValidateWindow(n int) error {
	if n < MinWindow || n%2 != 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWindow, n)
	}
	return nil
}

// Validate checks the configuration-time preconditions of the MFC law.
func (g MFCGains) Validate() error {
	if err := ValidateWindow(g.Window); err != nil {
		return err
	}
	if g.Lambda == 0 || !isFinite(g.Lambda) {
		return fmt.Errorf("%w: got %v", ErrInvalidLambda, g.Lambda)
	}
	if !g.P.IsFinite() || !g.I.IsFinite() || !g.D.IsFinite() ||
		!isFinite(g.FHatGain) || !isFinite(g.SetpointGain) {
		return ErrNonFiniteGain
	}
	return nil
}
