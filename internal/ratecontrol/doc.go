// Package ratecontrol computes the body-rate torque command for a three-axis
// (roll, pitch, yaw) inner control loop.
//
// Two control laws share one anti-windup integral:
//
//   - [LawPID]: proportional + integral + derivative-on-acceleration + feedforward
//   - [LawMFC]: model-free control. Unmodeled dynamics ("F-hat") and the setpoint
//     curvature are estimated from a sliding window of past samples with an
//     algebraic differentiator, then a first-order ultra-local model is inverted
//     on roll and pitch. Yaw uses the classical torque.
//
// # Usage
//
//	rc, err := ratecontrol.New(20)
//	rc.SetPIDGains(p, i, d)
//	rc.SetIntegratorLimit(lim)
//	rc.SetModeSource(ratecontrol.FixedMode(ratecontrol.LawPID))
//	// once per control tick
//	torque := rc.Update(rate, rateSp, angAccel, dt, landed)
//
// # Thread Safety
//
// A RateControl is NOT safe for concurrent use. It is meant to be confined to
// the single task that runs the control loop. Update does not allocate.
package ratecontrol
