package sim

import (
	"github.com/san-kum/ratectl/internal/dynamo"
	"github.com/san-kum/ratectl/internal/ratecontrol"
)

// Metric consumes the controller's diagnostics stream.
type Metric interface {
	ratecontrol.Sink
	Name() string
	Value() float64
	Reset()
}

// Observer sees the plant state and the torque actually applied each tick.
type Observer interface {
	OnStep(x dynamo.State, u dynamo.Control, t float64)
}

// Scenario describes one closed-loop run.
type Scenario struct {
	Dt       float64
	Duration float64
	Profile  Profile
	Channel  ChannelSchedule // nil keeps the controller's own mode source
	// The vehicle reports landed while t < LandedUntil.
	LandedUntil float64
	// Abort once the body rate magnitude exceeds MaxRate; zero disables the check.
	MaxRate  float64
	InitRate dynamo.State
}

type Result struct {
	Times     []float64
	States    []dynamo.State
	Controls  []dynamo.Control // torque after allocation
	Telemetry []ratecontrol.Diagnostics
	Energy    []float64 // per state, only for plants implementing dynamo.Hamiltonian
	Metrics   map[string]float64

	StepsTaken int
	// Ticks on which at least one axis was saturated.
	SaturatedTicks int
	Errors         []error
}

// Final returns the last plant state.
func (r *Result) Final() dynamo.State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}
