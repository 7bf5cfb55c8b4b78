package sim

import (
	"fmt"
	"math"

	"github.com/san-kum/ratectl/internal/ratecontrol"
)

// Profile produces the rate setpoint in rad/s.
type Profile interface {
	Setpoint(t float64) ratecontrol.Vector3
}

// Step holds Amplitude from At onward.
type Step struct {
	Amplitude ratecontrol.Vector3
	At        float64
}

func (s Step) Setpoint(t float64) ratecontrol.Vector3 {
	if t < s.At {
		return ratecontrol.Vector3{}
	}
	return s.Amplitude
}

// Doublet is +Amplitude for half a period, -Amplitude for the next half,
// then zero.
type Doublet struct {
	Amplitude ratecontrol.Vector3
	Period    float64
}

func (d Doublet) Setpoint(t float64) ratecontrol.Vector3 {
	half := d.Period / 2
	switch {
	case t < half:
		return d.Amplitude
	case t < d.Period:
		return ratecontrol.Vector3{}.Sub(d.Amplitude)
	default:
		return ratecontrol.Vector3{}
	}
}

type Sine struct {
	Amplitude ratecontrol.Vector3
	Period    float64
}

func (s Sine) Setpoint(t float64) ratecontrol.Vector3 {
	k := math.Sin(2 * math.Pi * t / s.Period)
	return ratecontrol.Vector3{s.Amplitude[0] * k, s.Amplitude[1] * k, s.Amplitude[2] * k}
}

func NewProfile(name string, amplitude ratecontrol.Vector3, period float64) (Profile, error) {
	switch name {
	case "step", "":
		return Step{Amplitude: amplitude}, nil
	case "doublet":
		if period <= 0 {
			return nil, fmt.Errorf("doublet period must be positive, got %v", period)
		}
		return Doublet{Amplitude: amplitude, Period: period}, nil
	case "sine":
		if period <= 0 {
			return nil, fmt.Errorf("sine period must be positive, got %v", period)
		}
		return Sine{Amplitude: amplitude, Period: period}, nil
	default:
		return nil, fmt.Errorf("unknown profile: %s", name)
	}
}

// ChannelSchedule gives the raw mode-select channel value at time t.
type ChannelSchedule func(t float64) float64

// ConstantChannel holds one channel value for the whole run.
func ConstantChannel(v float64) ChannelSchedule {
	return func(float64) float64 { return v }
}

// SwitchChannel keeps the channel low (PID) until at, then raises it (MFC).
func SwitchChannel(at float64) ChannelSchedule {
	return func(t float64) float64 {
		if t < at {
			return -1
		}
		return 1
	}
}
