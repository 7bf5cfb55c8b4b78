package ratecontrol

import "time"

// Diagnostics is published once per Update. Vectors are copies; a sink may
// keep the record.
type Diagnostics struct {
	Timestamp uint64 // µs from the controller's clock
	Law       Law
	Landed    bool

	P Vector3
	I Vector3
	D Vector3

	// Zero under LawPID. Only roll and pitch are estimated.
	FHat              Vector3
	SetpointCurvature Vector3

	Torque       Vector3
	RateSetpoint Vector3
	Rate         Vector3

	Dt         float64
	WindowSpan float64 // MFC window length in seconds, zero under LawPID
}

// Sink receives diagnostics. Publish must not block the control loop.
type Sink interface {
	Publish(d Diagnostics)
}

// Clock returns a monotonic time in microseconds.
type Clock interface {
	NowMicros() uint64
}

type nopSink struct{}

func (nopSink) Publish(Diagnostics) {}

type monotonicClock struct {
	start time.Time
}

func (c monotonicClock) NowMicros() uint64 {
	return uint64(time.Since(c.start) / time.Microsecond)
}

// RateCtrlStatus is the integral state reported to health/status consumers.
type RateCtrlStatus struct {
	RollspeedInteg  float64 `json:"rollspeed_integ"`
	PitchspeedInteg float64 `json:"pitchspeed_integ"`
	YawspeedInteg   float64 `json:"yawspeed_integ"`
}
