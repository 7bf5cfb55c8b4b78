// Package dynamo provides the plant-side primitives of the closed-loop
// simulator.
//
//   - [State]: vector representing plant state
//   - [System]: interface for ODE plants (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//
// The rate controller itself lives in package ratecontrol and knows nothing
// about these types; the simulator converts between the two.
package dynamo
