package ratecontrol

import "math"

// Derivative selects the modulating function of the algebraic estimator.
// "Dynamic" variants also weigh in the applied control action through lambda;
// "Pure" variants use the measured signal only.
type Derivative int

const (
	FirstDerivDynamic Derivative = iota
	FirstDerivPure
	SecondDerivDynamic
	SecondDerivPure
)

func (d Derivative) String() string {
	switch d {
	case FirstDerivDynamic:
		return "first_dynamic"
	case FirstDerivPure:
		return "first_pure"
	case SecondDerivDynamic:
		return "second_dynamic"
	case SecondDerivPure:
		return "second_pure"
	default:
		return "unknown"
	}
}

// kernel evaluates the closed-form integrand at window offset x for a
// window of length span. m is the measured sample and u the control output
// that was applied at that offset.
func kernel(d Derivative, x, span, lambda, m, u float64) float64 {
	switch d {
	case FirstDerivDynamic:
		return (6.0 / math.Pow(span, 3)) * ((span-2*x)*m - lambda*(span-x)*x*u)
	case FirstDerivPure:
		return (6.0 / math.Pow(span, 3)) * ((span - 2*x) * m)
	case SecondDerivDynamic:
		r := span - x
		return (60.0 / math.Pow(span, 5)) * ((span*span-6*r*span+6*r*r)*m -
			(lambda/2.0)*r*r*(span-r)*(span-r)*u)
	default:
		r := span - x
		return (60.0 / math.Pow(span, 5)) * ((span*span - 6*r*span + 6*r*r) * m)
	}
}

type estimator struct {
	kind     Derivative
	offsets  timeAxis
	measured *window
	outputs  *window
	n        int
	span     float64
	lambda   float64
}

func (e *estimator) point(i int) float64 {
	return kernel(e.kind, e.offsets[i], e.span, e.lambda, e.measured.at(i), e.outputs.at(i))
}

// integrate runs the composite Simpson sum over n/2+1 even/odd node pairs
// with step span/3. The pairing is fixed: pair 0 is (0, f0), pair n/2 is
// (4*f1, f[n-1]) and every pair k in between is (4*f[2k-1], 2*f[2k]).
// Sample 1 therefore carries weight 8 and the newest sample weight 1.
func (e *estimator) integrate() float64 {
	half := e.n / 2
	step := e.span / 3.0

	var total float64
	for k := 0; k <= half; k++ {
		var even, odd float64
		switch k {
		case 0:
			odd = e.point(0)
		case half:
			even = 4.0 * e.point(1)
			odd = e.point(e.n - 1)
		default:
			even = 4.0 * e.point(2*k-1)
			odd = 2.0 * e.point(2*k)
		}
		total += (even + odd) * step
	}
	return total
}

func estimate(d Derivative, t timeAxis, measured, outputs *window, lambda float64) float64 {
	e := estimator{
		kind:     d,
		offsets:  t,
		measured: measured,
		outputs:  outputs,
		n:        len(t),
		span:     t.span(),
		lambda:   lambda,
	}
	return e.integrate()
}

// Estimate evaluates the algebraic estimator over explicit, oldest-first
// windows. All three slices must have the same even length of at least 4;
// the last offset is taken as the window span.
func Estimate(d Derivative, offsets, measured, outputs []float64, lambda float64) float64 {
	if len(offsets) < 4 || len(offsets)%2 != 0 ||
		len(measured) != len(offsets) || len(outputs) != len(offsets) {
		return math.NaN()
	}
	m := window{data: measured}
	u := window{data: outputs}
	return estimate(d, timeAxis(offsets), &m, &u, lambda)
}
