package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/ratectl/internal/ratecontrol"
	"gonum.org/v1/gonum/floats"
)

var axisNames = [3]string{"roll", "pitch", "yaw"}

// TrackingRMS is the root-mean-square rate error of one axis, rad/s.
// Ticks before Skip seconds are ignored so a step transient can be excluded.
type TrackingRMS struct {
	axis   int
	skipUs uint64
	errs   []float64
}

func NewTrackingRMS(axis int, skip float64) *TrackingRMS {
	return &TrackingRMS{axis: axis, skipUs: uint64(skip * 1e6)}
}

func (m *TrackingRMS) Name() string {
	return fmt.Sprintf("rms_error_%s", axisNames[m.axis])
}

func (m *TrackingRMS) Publish(d ratecontrol.Diagnostics) {
	if d.Timestamp < m.skipUs {
		return
	}
	m.errs = append(m.errs, d.RateSetpoint[m.axis]-d.Rate[m.axis])
}

func (m *TrackingRMS) Value() float64 {
	if len(m.errs) == 0 {
		return 0
	}
	return floats.Norm(m.errs, 2) / math.Sqrt(float64(len(m.errs)))
}

func (m *TrackingRMS) Reset() { m.errs = m.errs[:0] }

// PeakIntegral is the largest integral magnitude seen on any axis.
type PeakIntegral struct {
	peak float64
}

func NewPeakIntegral() *PeakIntegral { return &PeakIntegral{} }

func (m *PeakIntegral) Name() string { return "peak_integral" }

func (m *PeakIntegral) Publish(d ratecontrol.Diagnostics) {
	abs := []float64{math.Abs(d.I[0]), math.Abs(d.I[1]), math.Abs(d.I[2])}
	m.peak = math.Max(m.peak, floats.Max(abs))
}

func (m *PeakIntegral) Value() float64 { return m.peak }
func (m *PeakIntegral) Reset()         { m.peak = 0 }
