package metrics

import (
	"github.com/san-kum/ratectl/internal/ratecontrol"
	"gonum.org/v1/gonum/stat"
)

// AxisSummary describes one axis of a recorded run.
type AxisSummary struct {
	MeanError   float64 `json:"mean_error"`
	StdDevError float64 `json:"stddev_error"`
	MeanTorque  float64 `json:"mean_torque"`
	MeanFHat    float64 `json:"mean_f_hat"`
}

// Summarize computes per-axis statistics over a telemetry stream.
func Summarize(records []ratecontrol.Diagnostics) [3]AxisSummary {
	var out [3]AxisSummary
	if len(records) == 0 {
		return out
	}

	errs := make([]float64, len(records))
	torque := make([]float64, len(records))
	fhat := make([]float64, len(records))
	for axis := 0; axis < 3; axis++ {
		for i, d := range records {
			errs[i] = d.RateSetpoint[axis] - d.Rate[axis]
			torque[i] = d.Torque[axis]
			fhat[i] = d.FHat[axis]
		}
		mean, std := stat.MeanStdDev(errs, nil)
		out[axis] = AxisSummary{
			MeanError:   mean,
			StdDevError: std,
			MeanTorque:  stat.Mean(torque, nil),
			MeanFHat:    stat.Mean(fhat, nil),
		}
	}
	return out
}

// Metric matches the simulator's metric contract.
type Metric interface {
	ratecontrol.Sink
	Name() string
	Value() float64
	Reset()
}

// Standard is the metric set attached to every run. Tracking error ignores
// the first skip seconds.
func Standard(skip, maxRate float64) []Metric {
	return []Metric{
		NewTrackingRMS(0, skip),
		NewTrackingRMS(1, skip),
		NewTrackingRMS(2, skip),
		NewControlEffort(),
		NewPeakIntegral(),
		NewStability(maxRate),
	}
}
