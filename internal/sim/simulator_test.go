package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/ratectl/internal/config"
	"github.com/san-kum/ratectl/internal/dynamo"
	"github.com/san-kum/ratectl/internal/integrators"
	"github.com/san-kum/ratectl/internal/models"
	"github.com/san-kum/ratectl/internal/ratecontrol"
)

type countingObserver struct {
	calls int
}

func (o *countingObserver) OnStep(x dynamo.State, u dynamo.Control, t float64) { o.calls++ }

type countingMetric struct {
	n int
}

func (m *countingMetric) Publish(ratecontrol.Diagnostics) { m.n++ }
func (m *countingMetric) Name() string                    { return "ticks" }
func (m *countingMetric) Value() float64                  { return float64(m.n) }
func (m *countingMetric) Reset()                          { m.n = 0 }

func buildPreset(t *testing.T, name string) (*Simulator, Scenario) {
	t.Helper()
	cfg := config.GetPreset(name)
	if cfg == nil {
		t.Fatalf("missing preset %s", name)
	}
	s, sc, err := FromConfig(cfg)
	if err != nil {
		t.Fatalf("FromConfig(%s): %v", name, err)
	}
	return s, sc
}

func TestPIDStepTracks(t *testing.T) {
	s, sc := buildPreset(t, "step")

	res, err := s.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("run aborted: %v", res.Errors)
	}

	want := []float64{1.0, -0.5, 0.3}
	final := res.Final()
	for i := range want {
		if math.Abs(final[i]-want[i]) > 0.02 {
			t.Errorf("axis %d: final rate %v, want %v", i, final[i], want[i])
		}
	}
	if res.StepsTaken != 750 {
		t.Errorf("expected 750 steps, got %d", res.StepsTaken)
	}
	if len(res.Telemetry) != res.StepsTaken {
		t.Errorf("expected one record per tick, got %d", len(res.Telemetry))
	}
	if len(res.Energy) != len(res.States) {
		t.Errorf("expected energy per state, got %d for %d", len(res.Energy), len(res.States))
	}
}

func TestMFCStepTracks(t *testing.T) {
	s, sc := buildPreset(t, "mfc")

	res, err := s.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Errors) != 0 {
		t.Fatalf("run aborted: %v", res.Errors)
	}

	want := []float64{1.0, -0.5, 0.3}
	final := res.Final()
	for i := range want {
		if math.Abs(final[i]-want[i]) > 0.02 {
			t.Errorf("axis %d: final rate %v, want %v", i, final[i], want[i])
		}
	}
	last := res.Telemetry[len(res.Telemetry)-1]
	if last.Law != ratecontrol.LawMFC {
		t.Errorf("expected MFC telemetry, got %v", last.Law)
	}
	if math.Abs(last.WindowSpan-20*sc.Dt) > 1e-6 {
		t.Errorf("window span: got %v, want %v", last.WindowSpan, 20*sc.Dt)
	}
}

func TestSaturationCounted(t *testing.T) {
	s, sc := buildPreset(t, "saturate")

	res, err := s.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.SaturatedTicks == 0 {
		t.Error("expected saturated ticks")
	}
	for _, u := range res.Controls {
		for i, v := range u {
			if math.Abs(v) > 0.3+1e-12 {
				t.Fatalf("axis %d: applied torque %v exceeds limit", i, v)
			}
		}
	}
}

func TestLandedFreezesIntegral(t *testing.T) {
	s, sc := buildPreset(t, "takeoff")

	res, err := s.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	sawAirborne := false
	for _, d := range res.Telemetry {
		if d.Landed {
			if d.I != (ratecontrol.Vector3{}) {
				t.Fatalf("integral moved while landed at %d us: %v", d.Timestamp, d.I)
			}
			continue
		}
		sawAirborne = true
	}
	if !sawAirborne {
		t.Fatal("vehicle never left the ground")
	}
	if s.Controller().IntegralState() == (ratecontrol.Vector3{}) {
		t.Error("integral should accumulate once airborne")
	}
}

func TestChannelHandover(t *testing.T) {
	s, sc := buildPreset(t, "handover")

	res, err := s.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for _, d := range res.Telemetry {
		ts := float64(d.Timestamp) / 1e6
		if math.Abs(ts-2.0) < 1e-3 {
			continue
		}
		want := ratecontrol.LawPID
		if ts >= 2.0 {
			want = ratecontrol.LawMFC
		}
		if d.Law != want {
			t.Fatalf("t=%v: law %v, want %v", ts, d.Law, want)
		}
	}
}

func TestObserversAndMetrics(t *testing.T) {
	s, sc := buildPreset(t, "step")
	sc.Duration = 0.4

	obs := &countingObserver{}
	m := &countingMetric{}
	s.AddObserver(obs)
	s.AddMetric(m)

	res, err := s.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if obs.calls != 100 {
		t.Errorf("observer: got %d calls, want 100", obs.calls)
	}
	if res.Metrics["ticks"] != 100 {
		t.Errorf("metric: got %v, want 100", res.Metrics["ticks"])
	}
}

func TestInvalidScenario(t *testing.T) {
	ctrl, err := ratecontrol.New(8)
	if err != nil {
		t.Fatal(err)
	}
	s := New(models.NewRigidBody(), integrators.NewRK4(), ctrl, Allocator{Limit: ratecontrol.Vector3{1, 1, 1}})

	tests := []struct {
		name string
		sc   Scenario
	}{
		{"zero dt", Scenario{Dt: 0, Duration: 1, Profile: Step{}}},
		{"zero duration", Scenario{Dt: 0.004, Duration: 0, Profile: Step{}}},
		{"no profile", Scenario{Dt: 0.004, Duration: 1}},
		{"long init", Scenario{Dt: 0.004, Duration: 1, Profile: Step{}, InitRate: dynamo.State{1, 2, 3, 4}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Run(context.Background(), tt.sc); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestUnstableAborts(t *testing.T) {
	ctrl, err := ratecontrol.New(8)
	if err != nil {
		t.Fatal(err)
	}
	// positive feedback
	ctrl.SetPIDGains(ratecontrol.Vector3{-5, -5, -5}, ratecontrol.Vector3{}, ratecontrol.Vector3{})
	s := New(models.NewRigidBody(), integrators.NewRK4(), ctrl, Allocator{Limit: ratecontrol.Vector3{10, 10, 10}})

	res, err := s.Run(context.Background(), Scenario{
		Dt:       0.004,
		Duration: 5,
		Profile:  Step{Amplitude: ratecontrol.Vector3{1, 0, 0}},
		MaxRate:  20,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Fatalf("expected one abort error, got %v", res.Errors)
	}
	if !errors.Is(res.Errors[0], dynamo.ErrUnstable) {
		t.Errorf("expected ErrUnstable, got %v", res.Errors[0])
	}
	var simErr *dynamo.SimulationError
	if !errors.As(res.Errors[0], &simErr) {
		t.Fatal("expected a SimulationError")
	}
}

func TestRunCancelled(t *testing.T) {
	s, sc := buildPreset(t, "step")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Run(ctx, sc)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if res == nil || res.StepsTaken != 0 {
		t.Error("expected an empty partial result")
	}
}

func TestRunParallel(t *testing.T) {
	presets := []string{"step", "mfc", "doublet"}
	jobs := make([]Job, len(presets))
	for i, name := range presets {
		name := name
		jobs[i] = Job{
			Name: name,
			Build: func() (*Simulator, Scenario, error) {
				return FromConfig(config.GetPreset(name))
			},
		}
	}

	results, err := RunParallel(context.Background(), jobs)
	if err != nil {
		t.Fatalf("RunParallel: %v", err)
	}
	if len(results) != len(presets) {
		t.Fatalf("expected %d results, got %d", len(presets), len(results))
	}
	for i, res := range results {
		if res.StepsTaken == 0 {
			t.Errorf("%s: no steps taken", presets[i])
		}
	}
}

func TestRunParallelBuildError(t *testing.T) {
	jobs := []Job{{
		Name: "bad",
		Build: func() (*Simulator, Scenario, error) {
			cfg := config.DefaultConfig()
			cfg.MFC.Window = 3
			return FromConfig(cfg)
		},
	}}
	if _, err := RunParallel(context.Background(), jobs); !errors.Is(err, ratecontrol.ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestLoopStepsManually(t *testing.T) {
	s, sc := buildPreset(t, "step")
	sc.Duration = 0.02

	loop, err := s.Start(sc)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if loop.Steps() != 5 {
		t.Fatalf("expected 5 steps, got %d", loop.Steps())
	}
	if _, ok := loop.Last(); ok {
		t.Error("no record before the first tick")
	}

	ticks := 0
	for !loop.Done() {
		if _, err := loop.Step(); err != nil {
			t.Fatalf("step %d: %v", ticks, err)
		}
		ticks++
	}
	if ticks != 5 {
		t.Errorf("expected 5 ticks, got %d", ticks)
	}

	last, ok := loop.Last()
	if !ok {
		t.Fatal("expected a record")
	}
	if last.Timestamp != 16000 {
		t.Errorf("last record at %d us, want 16000", last.Timestamp)
	}
	if loop.State()[0] <= 0 {
		t.Error("roll rate should have started to rise")
	}
}

func TestStartRejectsInvalidScenario(t *testing.T) {
	s, sc := buildPreset(t, "step")
	sc.Profile = nil
	if _, err := s.Start(sc); err == nil {
		t.Error("expected error")
	}
}

func TestLoopSaturationFlags(t *testing.T) {
	s, sc := buildPreset(t, "saturate")

	loop, err := s.Start(sc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loop.Step(); err != nil {
		t.Fatal(err)
	}

	pos, neg := loop.SaturationFlags()
	if !loop.Saturated() || !pos[ratecontrol.Roll] {
		t.Errorf("roll should saturate positive on the first tick, got pos=%v neg=%v", pos, neg)
	}
	if neg[ratecontrol.Roll] || pos[ratecontrol.Yaw] {
		t.Errorf("unexpected flags pos=%v neg=%v", pos, neg)
	}
}

func TestChannelSourceRestoredAfterHandover(t *testing.T) {
	s, sc := buildPreset(t, "handover")

	if _, err := s.Run(context.Background(), sc); err != nil {
		t.Fatalf("handover run failed: %v", err)
	}
	if s.mode.Law() != ratecontrol.LawMFC {
		t.Fatal("channel should be left raised after the handover")
	}

	sc.Channel = nil
	sc.Duration = 0.1
	res, err := s.Run(context.Background(), sc)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	for i, d := range res.Telemetry {
		if d.Law != ratecontrol.LawPID {
			t.Fatalf("tick %d: stale channel selected %v", i, d.Law)
		}
	}
}

func TestCheckStateUsesRateMagnitude(t *testing.T) {
	s, sc := buildPreset(t, "step")
	sc.MaxRate = 20

	if err := s.checkState(dynamo.State{15, -15, 0}, sc); !errors.Is(err, dynamo.ErrUnstable) {
		t.Errorf("|rate| = 21.2 should abort, got %v", err)
	}
	if err := s.checkState(dynamo.State{12, -12, 0}, sc); err != nil {
		t.Errorf("|rate| = 17 should pass, got %v", err)
	}
	if err := s.checkState(dynamo.State{math.NaN(), 0, 0}, sc); !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("NaN rate should be invalid, got %v", err)
	}
}
