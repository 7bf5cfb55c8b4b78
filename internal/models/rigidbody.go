package models

import (
	"fmt"

	"github.com/san-kum/ratectl/internal/dynamo"
)

// RigidBody is the rotational plant seen by a rate controller:
//
//	J ω' = E τ - ω × (J ω) - C ω + τd
//
// State is the body rate [p, q, r] in rad/s. Control is the normalized torque
// command per axis, E maps it to N·m. τd is a constant disturbance torque the
// controller is not told about.
type RigidBody struct {
	Inertia       [3]float64 // kg·m², principal axes
	Damping       [3]float64 // N·m·s/rad
	Effectiveness [3]float64 // N·m per unit command
	Disturbance   [3]float64 // N·m
}

func NewRigidBody() *RigidBody {
	return &RigidBody{
		Inertia:       [3]float64{0.02, 0.02, 0.04},
		Damping:       [3]float64{0.002, 0.002, 0.004},
		Effectiveness: [3]float64{1, 1, 1},
	}
}

func (b *RigidBody) StateDim() int   { return 3 }
func (b *RigidBody) ControlDim() int { return 3 }

func (b *RigidBody) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	p, q, r := x[0], x[1], x[2]
	jp, jq, jr := b.Inertia[0]*p, b.Inertia[1]*q, b.Inertia[2]*r

	// gyroscopic term ω × Jω
	gyro := [3]float64{
		q*jr - r*jq,
		r*jp - p*jr,
		p*jq - q*jp,
	}

	dx := make(dynamo.State, 3)
	for i := 0; i < 3; i++ {
		torque := 0.0
		if i < len(u) {
			torque = b.Effectiveness[i] * u[i]
		}
		dx[i] = (torque - gyro[i] - b.Damping[i]*x[i] + b.Disturbance[i]) / b.Inertia[i]
	}
	return dx
}

// Energy is the rotational kinetic energy.
func (b *RigidBody) Energy(x dynamo.State) float64 {
	e := 0.0
	for i := 0; i < 3; i++ {
		e += 0.5 * b.Inertia[i] * x[i] * x[i]
	}
	return e
}

// Validate rejects parameters the plant cannot be integrated with.
func (b *RigidBody) Validate() error {
	for i := 0; i < 3; i++ {
		if b.Inertia[i] <= 0 {
			return fmt.Errorf("%w: inertia[%d] = %v", dynamo.ErrParameterBounds, i, b.Inertia[i])
		}
		if b.Damping[i] < 0 {
			return fmt.Errorf("%w: damping[%d] = %v", dynamo.ErrParameterBounds, i, b.Damping[i])
		}
	}
	return nil
}
