package ratecontrol

import (
	"fmt"
	"time"
)

// RateControl is the three-axis body-rate controller.
type RateControl struct {
	// PID-FF law
	gainP, gainI, gainD, gainFF Vector3

	mfc MFCGains

	limInt   Vector3
	integral Vector3

	satPos, satNeg Bool3

	// MFC state
	times      timeAxis
	history    [2]axisHistory // roll, pitch
	lastOutput Vector3
	fHat       Vector3
	spCurv     Vector3

	mode  ModeSource
	sink  Sink
	clock Clock
}

// New builds a controller whose MFC windows hold window samples. The window
// length cannot be changed afterwards. Gains and the integrator limit start
// at zero, so the integral stays pinned at zero until SetIntegratorLimit.
func New(window int) (*RateControl, error) {
	if err := ValidateWindow(window); err != nil {
		return nil, err
	}
	return &RateControl{
		mfc:     MFCGains{Window: window, Lambda: 1},
		times:   make(timeAxis, window),
		history: [2]axisHistory{newAxisHistory(window), newAxisHistory(window)},
		mode:    FixedMode(LawPID),
		sink:    nopSink{},
		clock:   monotonicClock{start: time.Now()},
	}, nil
}

func (r *RateControl) SetPIDGains(p, i, d Vector3) {
	r.gainP = p
	r.gainI = i
	r.gainD = d
}

// SetFeedForwardGain sets the rate feedforward. Both laws use it.
func (r *RateControl) SetFeedForwardGain(ff Vector3) {
	r.gainFF = ff
}

// SetIntegratorLimit bounds the magnitude of each integral axis.
func (r *RateControl) SetIntegratorLimit(lim Vector3) {
	r.limInt = lim
}

// SetMFCGains replaces the MFC gains. It fails, leaving the previous gains in
// place, when the gains are invalid or name a different window length.
func (r *RateControl) SetMFCGains(g MFCGains) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if g.Window != len(r.times) {
		return fmt.Errorf("%w: have %d, got %d", ErrWindowChanged, len(r.times), g.Window)
	}
	r.mfc = g
	return nil
}

func (r *RateControl) MFCGains() MFCGains { return r.mfc }

// Window returns the MFC window length.
func (r *RateControl) Window() int { return len(r.times) }

// SetModeSource replaces the law selector. A nil source pins the PID law.
func (r *RateControl) SetModeSource(m ModeSource) {
	if m == nil {
		m = FixedMode(LawPID)
	}
	r.mode = m
}

func (r *RateControl) ModeSource() ModeSource { return r.mode }

// SetSink replaces the diagnostics sink. A nil sink drops every record.
func (r *RateControl) SetSink(s Sink) {
	if s == nil {
		s = nopSink{}
	}
	r.sink = s
}

// SetClock replaces the diagnostics time source.
func (r *RateControl) SetClock(c Clock) {
	if c == nil {
		c = monotonicClock{start: time.Now()}
	}
	r.clock = c
}

func (r *RateControl) SetSaturationStatus(positive, negative Bool3) {
	r.satPos = positive
	r.satNeg = negative
}

// SetPositiveSaturationFlag ignores axes outside [0, 3).
func (r *RateControl) SetPositiveSaturationFlag(axis int, saturated bool) {
	if axis >= 0 && axis < 3 {
		r.satPos[axis] = saturated
	}
}

// SetNegativeSaturationFlag ignores axes outside [0, 3).
func (r *RateControl) SetNegativeSaturationFlag(axis int, saturated bool) {
	if axis >= 0 && axis < 3 {
		r.satNeg[axis] = saturated
	}
}

// ResetIntegral zeroes the shared integral.
func (r *RateControl) ResetIntegral() {
	r.integral = Vector3{}
}

func (r *RateControl) IntegralState() Vector3 { return r.integral }

// LastOutput is the most recent command, the one the next MFC tick feeds to
// its estimator.
func (r *RateControl) LastOutput() Vector3 { return r.lastOutput }

func (r *RateControl) Status() RateCtrlStatus {
	return RateCtrlStatus{
		RollspeedInteg:  r.integral[Roll],
		PitchspeedInteg: r.integral[Pitch],
		YawspeedInteg:   r.integral[Yaw],
	}
}

// Update runs one control tick with the law chosen by the mode source.
// dt is in seconds. While landed the integral is frozen.
func (r *RateControl) Update(rate, rateSp, angularAccel Vector3, dt float64, landed bool) Vector3 {
	return r.UpdateWithLaw(r.mode.Law(), rate, rateSp, angularAccel, dt, landed)
}

// UpdateWithLaw runs one control tick with an explicitly selected law.
func (r *RateControl) UpdateWithLaw(law Law, rate, rateSp, angularAccel Vector3, dt float64, landed bool) Vector3 {
	if law == LawMFC {
		return r.updateMFC(rate, rateSp, angularAccel, dt, landed)
	}
	return r.updatePID(rate, rateSp, angularAccel, dt, landed)
}

func (r *RateControl) updatePID(rate, rateSp, angularAccel Vector3, dt float64, landed bool) Vector3 {
	rateErr := rateSp.Sub(rate)

	p := r.gainP.EMult(rateErr)
	d := r.gainD.EMult(angularAccel)
	torque := p.Add(r.integral).Sub(d).Add(r.gainFF.EMult(rateSp))

	r.sink.Publish(Diagnostics{
		Timestamp:    r.clock.NowMicros(),
		Law:          LawPID,
		Landed:       landed,
		P:            p,
		I:            r.integral,
		D:            d,
		Torque:       torque,
		RateSetpoint: rateSp,
		Rate:         rate,
		Dt:           dt,
	})

	if !landed {
		r.updateIntegral(rateErr, r.gainI, dt)
	}

	r.lastOutput = torque
	return torque
}

func (r *RateControl) updateMFC(rate, rateSp, angularAccel Vector3, dt float64, landed bool) Vector3 {
	rateErr := rateSp.Sub(rate)

	p := r.mfc.P.EMult(rateErr)
	d := r.mfc.D.EMult(angularAccel)

	// Window bookkeeping happens on every tick so that index i keeps meaning
	// the same sample age regardless of the landed state.
	r.times.advance(dt)
	for axis := Roll; axis <= Pitch; axis++ {
		r.history[axis].push(r.lastOutput[axis], rateSp[axis], rate[axis])
	}

	if !landed {
		r.updateIntegral(rateErr, r.mfc.I, dt)

		torque := p.Add(r.integral).Sub(d).Add(r.gainFF.EMult(rateSp))
		for axis := Roll; axis <= Pitch; axis++ {
			h := &r.history[axis]
			r.spCurv[axis] = estimate(SecondDerivPure, r.times, &h.setpoint, &h.output, r.mfc.Lambda) * r.mfc.SetpointGain
			r.fHat[axis] = estimate(SecondDerivDynamic, r.times, &h.rate, &h.output, r.mfc.Lambda) * r.mfc.FHatGain
			torque[axis] = (r.spCurv[axis] + torque[axis] - r.fHat[axis]) / r.mfc.Lambda
		}
		r.lastOutput = torque
	}

	// landed: hold the previous command
	torque := r.lastOutput

	r.sink.Publish(Diagnostics{
		Timestamp:         r.clock.NowMicros(),
		Law:               LawMFC,
		Landed:            landed,
		P:                 p,
		I:                 r.integral,
		D:                 d,
		FHat:              r.fHat,
		SetpointCurvature: r.spCurv,
		Torque:            torque,
		RateSetpoint:      rateSp,
		Rate:              rate,
		Dt:                dt,
		WindowSpan:        r.times.span(),
	})

	return torque
}

// Windows returns copies of the MFC windows of one axis (Roll or Pitch),
// oldest first, together with the time axis. It allocates and is meant for
// debugging, not for the control loop.
func (r *RateControl) Windows(axis int) (offsets, outputs, setpoints, rates []float64) {
	offsets = append([]float64(nil), r.times...)
	if axis != Roll && axis != Pitch {
		return offsets, nil, nil, nil
	}
	h := &r.history[axis]
	return offsets, h.output.slice(), h.setpoint.slice(), h.rate.slice()
}
