package ratecontrol

// windupRefDeg is the rate error, in deg/s, at which the integral gain is
// attenuated to zero.
const windupRefDeg = 400.0

// updateIntegral integrates rateErr with the I gains of the executing law.
func (r *RateControl) updateIntegral(rateErr, gainI Vector3, dt float64) {
	ref := radians(windupRefDeg)

	for i := 0; i < 3; i++ {
		e := rateErr[i]

		// no further wind-up into a saturated actuator
		if r.satPos[i] && e > 0 {
			e = 0
		}
		if r.satNeg[i] && e < 0 {
			e = 0
		}

		// Attenuate I as the error grows: ~1 up to 100 deg/s, >0.75 up to
		// 200 deg/s. Keeps the integral from charging up during flips.
		factor := e / ref
		factor = 1 - factor*factor
		if factor < 0 {
			factor = 0
		}

		next := r.integral[i] + factor*gainI[i]*e*dt
		if isFinite(next) {
			r.integral[i] = constrain(next, -r.limInt[i], r.limInt[i])
		}
	}
}
