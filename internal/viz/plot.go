package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ratectl/internal/ratecontrol"
)

var AxisNames = [3]string{"roll", "pitch", "yaw"}

// decimate keeps at most width evenly spaced samples.
func decimate(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		return values
	}
	out := make([]float64, width)
	for i := range out {
		out[i] = values[i*len(values)/width]
	}
	return out
}

func series(records []ratecontrol.Diagnostics, pick func(ratecontrol.Diagnostics) float64) []float64 {
	out := make([]float64, len(records))
	for i, d := range records {
		out[i] = pick(d)
	}
	return out
}

// PlotAxis draws the setpoint and measured rate of one axis.
func PlotAxis(records []ratecontrol.Diagnostics, axis, width, height int) string {
	if len(records) < 2 {
		return "not enough samples\n"
	}
	sp := series(records, func(d ratecontrol.Diagnostics) float64 { return d.RateSetpoint[axis] })
	rate := series(records, func(d ratecontrol.Diagnostics) float64 { return d.Rate[axis] })

	return asciigraph.PlotMany(
		[][]float64{decimate(sp, width), decimate(rate, width)},
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("%s rate (rad/s): setpoint, measured", AxisNames[axis])),
		asciigraph.SeriesColors(asciigraph.Cyan, asciigraph.Magenta),
	)
}

// PlotTorque draws the torque command of one axis.
func PlotTorque(records []ratecontrol.Diagnostics, axis, width, height int) string {
	if len(records) < 2 {
		return "not enough samples\n"
	}
	torque := series(records, func(d ratecontrol.Diagnostics) float64 { return d.Torque[axis] })

	return asciigraph.Plot(
		decimate(torque, width),
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("%s torque command", AxisNames[axis])),
	)
}

// PlotFHat draws the unmodeled-dynamics estimate of roll or pitch.
func PlotFHat(records []ratecontrol.Diagnostics, axis, width, height int) string {
	if len(records) < 2 {
		return "not enough samples\n"
	}
	fhat := series(records, func(d ratecontrol.Diagnostics) float64 { return d.FHat[axis] })
	curv := series(records, func(d ratecontrol.Diagnostics) float64 { return d.SetpointCurvature[axis] })

	return asciigraph.PlotMany(
		[][]float64{decimate(fhat, width), decimate(curv, width)},
		asciigraph.Height(height),
		asciigraph.Caption(fmt.Sprintf("%s f_hat, setpoint curvature", AxisNames[axis])),
		asciigraph.SeriesColors(asciigraph.Yellow, asciigraph.Green),
	)
}
