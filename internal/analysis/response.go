package analysis

import (
	"math"

	"github.com/san-kum/ratectl/internal/ratecontrol"
)

// Response summarises how one axis followed a constant setpoint.
type Response struct {
	Target    float64 `json:"target"`
	RiseTime  float64 `json:"rise_time"`  // 10% to 90%, s; NaN if never reached
	Overshoot float64 `json:"overshoot"`  // fraction of target
	Settling  float64 `json:"settling"`   // last exit from the band, s
	Final     float64 `json:"final_rate"` // rad/s
}

// StepResponse measures the response of axis to the setpoint held by the
// last record. band is the settling tolerance as a fraction of the target.
func StepResponse(records []ratecontrol.Diagnostics, axis int, band float64) (Response, error) {
	if len(records) < 2 {
		return Response{}, ErrTooShort
	}

	target := records[len(records)-1].RateSetpoint[axis]
	r := Response{
		Target:   target,
		RiseTime: math.NaN(),
		Final:    records[len(records)-1].Rate[axis],
	}
	if target == 0 {
		return r, nil
	}

	start := float64(records[0].Timestamp) / 1e6
	t10, t90 := math.NaN(), math.NaN()
	peak := 0.0
	tol := math.Abs(target) * band
	for _, d := range records {
		t := float64(d.Timestamp)/1e6 - start
		frac := d.Rate[axis] / target
		if math.IsNaN(t10) && frac >= 0.1 {
			t10 = t
		}
		if math.IsNaN(t90) && frac >= 0.9 {
			t90 = t
		}
		peak = math.Max(peak, frac)
		if math.Abs(d.Rate[axis]-target) > tol {
			r.Settling = t
		}
	}
	if !math.IsNaN(t90) {
		r.RiseTime = t90 - t10
	}
	r.Overshoot = math.Max(0, peak-1)
	return r, nil
}
