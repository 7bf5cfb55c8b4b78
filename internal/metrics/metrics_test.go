package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/ratectl/internal/ratecontrol"
)

func diag(ts uint64, sp, rate, torque, integ ratecontrol.Vector3) ratecontrol.Diagnostics {
	return ratecontrol.Diagnostics{
		Timestamp:    ts,
		RateSetpoint: sp,
		Rate:         rate,
		Torque:       torque,
		I:            integ,
	}
}

func TestTrackingRMS(t *testing.T) {
	m := NewTrackingRMS(1, 0.01)
	if m.Name() != "rms_error_pitch" {
		t.Errorf("unexpected name %s", m.Name())
	}

	// skipped: before 10 ms
	m.Publish(diag(5000, ratecontrol.Vector3{0, 100, 0}, ratecontrol.Vector3{}, ratecontrol.Vector3{}, ratecontrol.Vector3{}))
	m.Publish(diag(10000, ratecontrol.Vector3{0, 3, 0}, ratecontrol.Vector3{}, ratecontrol.Vector3{}, ratecontrol.Vector3{}))
	m.Publish(diag(14000, ratecontrol.Vector3{0, 0, 0}, ratecontrol.Vector3{0, 4, 0}, ratecontrol.Vector3{}, ratecontrol.Vector3{}))

	want := math.Sqrt((9.0 + 16.0) / 2)
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("rms: got %v, want %v", m.Value(), want)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("reset should clear samples")
	}
}

func TestPeakIntegral(t *testing.T) {
	m := NewPeakIntegral()
	m.Publish(diag(0, ratecontrol.Vector3{}, ratecontrol.Vector3{}, ratecontrol.Vector3{}, ratecontrol.Vector3{0.1, -0.25, 0.05}))
	m.Publish(diag(0, ratecontrol.Vector3{}, ratecontrol.Vector3{}, ratecontrol.Vector3{}, ratecontrol.Vector3{0.2, 0, 0}))
	if m.Value() != 0.25 {
		t.Errorf("peak: got %v, want 0.25", m.Value())
	}
}

func TestControlEffort(t *testing.T) {
	c := NewControlEffort()
	if c.Value() != 0 {
		t.Error("empty effort should be zero")
	}
	c.Publish(diag(0, ratecontrol.Vector3{}, ratecontrol.Vector3{}, ratecontrol.Vector3{1, -1, 0}, ratecontrol.Vector3{}))
	c.Publish(diag(0, ratecontrol.Vector3{}, ratecontrol.Vector3{}, ratecontrol.Vector3{0, 0, 0}, ratecontrol.Vector3{}))
	if math.Abs(c.Value()-1.0) > 1e-12 {
		t.Errorf("effort: got %v, want 1", c.Value())
	}
}

func TestStability(t *testing.T) {
	s := NewStability(1.0)
	if s.Value() != 1.0 {
		t.Error("no samples should read as stable")
	}
	s.Publish(diag(0, ratecontrol.Vector3{}, ratecontrol.Vector3{0.5, 0, 0}, ratecontrol.Vector3{}, ratecontrol.Vector3{}))
	s.Publish(diag(0, ratecontrol.Vector3{}, ratecontrol.Vector3{0, -2, 0}, ratecontrol.Vector3{}, ratecontrol.Vector3{}))
	if s.Value() != 0.5 {
		t.Errorf("stability: got %v, want 0.5", s.Value())
	}
}

func TestSummarize(t *testing.T) {
	records := []ratecontrol.Diagnostics{
		diag(0, ratecontrol.Vector3{1, 0, 0}, ratecontrol.Vector3{0, 0, 0}, ratecontrol.Vector3{0.2, 0, 0}, ratecontrol.Vector3{}),
		diag(0, ratecontrol.Vector3{1, 0, 0}, ratecontrol.Vector3{1, 0, 0}, ratecontrol.Vector3{0.4, 0, 0}, ratecontrol.Vector3{}),
	}
	s := Summarize(records)
	if math.Abs(s[0].MeanError-0.5) > 1e-12 {
		t.Errorf("mean error: got %v", s[0].MeanError)
	}
	if math.Abs(s[0].MeanTorque-0.3) > 1e-12 {
		t.Errorf("mean torque: got %v", s[0].MeanTorque)
	}
	if s[0].StdDevError <= 0 {
		t.Error("expected nonzero spread")
	}
	if s[2] != (AxisSummary{}) {
		t.Errorf("yaw should be all zero, got %+v", s[2])
	}
}

func TestStandardNames(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Standard(0.5, 50) {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 6 {
		t.Errorf("expected 6 metrics, got %d", len(seen))
	}
}
