package ratecontrol

import "math"

// Axis indices into a Vector3.
const (
	Roll = iota
	Pitch
	Yaw
)

// Vector3 holds one value per body axis.
type Vector3 [3]float64

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// EMult is the element-wise product.
func (v Vector3) EMult(o Vector3) Vector3 {
	return Vector3{v[0] * o[0], v[1] * o[1], v[2] * o[2]}
}

func (v Vector3) IsFinite() bool {
	for _, x := range v {
		if !isFinite(x) {
			return false
		}
	}
	return true
}

// Bool3 holds one flag per body axis.
type Bool3 [3]bool

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func constrain(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}
