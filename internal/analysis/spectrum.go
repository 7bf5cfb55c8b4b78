package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/ratectl/internal/ratecontrol"
)

var ErrTooShort = errors.New("analysis: not enough samples")

// Spectrum is a one-sided amplitude spectrum.
type Spectrum struct {
	Freqs     []float64 // Hz
	Amplitude []float64
}

// Dominant returns the frequency of the largest non-DC bin, or zero if the
// spectrum has no such bin.
func (s Spectrum) Dominant() float64 {
	best, at := 0.0, 0.0
	for i := 1; i < len(s.Amplitude); i++ {
		if s.Amplitude[i] > best {
			best = s.Amplitude[i]
			at = s.Freqs[i]
		}
	}
	return at
}

// ErrorSpectrum transforms the setpoint-minus-rate error of one axis. The
// sample period is taken from the first record's Dt.
func ErrorSpectrum(records []ratecontrol.Diagnostics, axis int) (Spectrum, error) {
	if len(records) < 4 {
		return Spectrum{}, ErrTooShort
	}
	if axis < 0 || axis > 2 {
		return Spectrum{}, errors.New("analysis: axis out of range")
	}
	dt := records[0].Dt
	if dt <= 0 {
		return Spectrum{}, errors.New("analysis: records carry no dt")
	}

	data := make([]float64, len(records))
	for i, d := range records {
		data[i] = d.RateSetpoint[axis] - d.Rate[axis]
	}
	return amplitudeSpectrum(data, dt), nil
}

func amplitudeSpectrum(data []float64, dt float64) Spectrum {
	n := len(data)
	coeffs := fft.FFTReal(data)

	bins := n/2 + 1
	s := Spectrum{
		Freqs:     make([]float64, bins),
		Amplitude: make([]float64, bins),
	}
	for k := 0; k < bins; k++ {
		s.Freqs[k] = float64(k) / (float64(n) * dt)
		s.Amplitude[k] = cmplx.Abs(coeffs[k]) / float64(n)
	}
	return s
}
