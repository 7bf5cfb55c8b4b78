package ratecontrol

import "errors"

// Configuration errors. Update itself never fails.
var (
	// ErrInvalidWindow indicates an odd MFC window or one shorter than MinWindow.
	ErrInvalidWindow = errors.New("ratecontrol: window length must be even and >= 4")

	// ErrWindowChanged indicates MFC gains carrying a window length other than
	// the one the controller was built with.
	ErrWindowChanged = errors.New("ratecontrol: window length is fixed at construction")

	// ErrInvalidLambda indicates a zero or non-finite plant gain constant.
	ErrInvalidLambda = errors.New("ratecontrol: lambda must be finite and non-zero")

	// ErrNonFiniteGain indicates a NaN or Inf gain.
	ErrNonFiniteGain = errors.New("ratecontrol: gains must be finite")
)
