package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/ratectl/internal/dynamo"
)

// harmonic is x'' = -x.
type harmonic struct{}

func (harmonic) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (harmonic) StateDim() int   { return 2 }
func (harmonic) ControlDim() int { return 0 }

// decay is x' = u - x, driven by a held control.
type decay struct{}

func (decay) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{u[0] - x[0]}
}

func (decay) StateDim() int   { return 1 }
func (decay) ControlDim() int { return 1 }

func TestRK4Accuracy(t *testing.T) {
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(harmonic{}, x, nil, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[1], expectedV)
	}
}

func TestIntegratorsHeldControl(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			integ, err := New(name)
			if err != nil {
				t.Fatalf("New(%q): %v", name, err)
			}
			x := dynamo.State{0}
			u := dynamo.Control{2}
			for i := 0; i < 1000; i++ {
				x = integ.Step(decay{}, x, u, float64(i)*0.01, 0.01)
			}
			if math.Abs(x[0]-2) > 1e-3 {
				t.Errorf("expected x to settle at 2, got %f", x[0])
			}
		})
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}

func TestStepDoesNotAliasInput(t *testing.T) {
	integ := NewRK4()
	x := dynamo.State{1.0, 0.0}
	next := integ.Step(harmonic{}, x, nil, 0, 0.1)
	if x[0] != 1.0 || x[1] != 0.0 {
		t.Errorf("input state modified: %v", x)
	}
	if &next[0] == &x[0] {
		t.Error("result aliases input")
	}
}
