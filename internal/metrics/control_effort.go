package metrics

import (
	"math"

	"github.com/san-kum/ratectl/internal/ratecontrol"
	"gonum.org/v1/gonum/stat"
)

// ControlEffort is the mean absolute torque command summed over axes.
type ControlEffort struct {
	samples []float64
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Publish(d ratecontrol.Diagnostics) {
	c.samples = append(c.samples, math.Abs(d.Torque[0])+math.Abs(d.Torque[1])+math.Abs(d.Torque[2]))
}

func (c *ControlEffort) Value() float64 {
	if len(c.samples) == 0 {
		return 0
	}
	return stat.Mean(c.samples, nil)
}

func (c *ControlEffort) Reset() { c.samples = c.samples[:0] }

// Stability is the fraction of ticks on which every body rate stayed below
// threshold (rad/s).
type Stability struct {
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Publish(d ratecontrol.Diagnostics) {
	s.samples++
	for _, v := range d.Rate {
		if math.Abs(v) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
