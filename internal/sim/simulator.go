package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/ratectl/internal/dynamo"
	"github.com/san-kum/ratectl/internal/ratecontrol"
	"github.com/san-kum/ratectl/internal/telemetry"
	"go.uber.org/zap"
)

// Simulator closes the loop between a rate controller and a plant.
type Simulator struct {
	plant      dynamo.System
	integrator dynamo.Integrator
	controller *ratecontrol.RateControl
	allocator  Allocator
	mode       *ratecontrol.ChannelModeSource
	prior      ratecontrol.ModeSource // restored once a channel scenario is over
	metrics    []Metric
	sinks      []ratecontrol.Sink
	observers  []Observer
	log        *zap.Logger
}

func New(plant dynamo.System, integrator dynamo.Integrator, controller *ratecontrol.RateControl, allocator Allocator) *Simulator {
	return &Simulator{
		plant:      plant,
		integrator: integrator,
		controller: controller,
		allocator:  allocator,
		mode:       ratecontrol.NewChannelModeSource(),
		metrics:    make([]Metric, 0),
		sinks:      make([]ratecontrol.Sink, 0),
		observers:  make([]Observer, 0),
		log:        zap.NewNop(),
	}
}

func (s *Simulator) AddMetric(m Metric)         { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddSink(k ratecontrol.Sink) { s.sinks = append(s.sinks, k) }
func (s *Simulator) AddObserver(o Observer)     { s.observers = append(s.observers, o) }

func (s *Simulator) Controller() *ratecontrol.RateControl { return s.controller }

func (s *Simulator) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	s.log = log
}

// simClock reports simulated time to the controller's diagnostics.
type simClock struct {
	t float64
}

func (c *simClock) NowMicros() uint64 {
	return uint64(math.Round(c.t * 1e6))
}

// Loop advances one closed loop a tick at a time. Run drives a Loop to the
// end of the scenario; interactive front ends step it themselves.
type Loop struct {
	s       *Simulator
	sc      Scenario
	clock   *simClock
	latest  latest
	x       dynamo.State
	accel   dynamo.State
	applied dynamo.Control
	tick    int

	satPos, satNeg ratecontrol.Bool3
	saturated      bool
}

type latest struct {
	d  ratecontrol.Diagnostics
	ok bool
}

func (l *latest) Publish(d ratecontrol.Diagnostics) {
	l.d = d
	l.ok = true
}

// Start validates sc and wires the controller's sink, clock and mode source
// for a new loop. extra sinks receive every record after the metrics.
func (s *Simulator) Start(sc Scenario, extra ...ratecontrol.Sink) (*Loop, error) {
	if err := s.validateScenario(sc); err != nil {
		return nil, err
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	l := &Loop{s: s, sc: sc, clock: &simClock{}}

	sink := telemetry.Multi{&l.latest}
	sink = append(sink, extra...)
	for _, m := range s.metrics {
		sink = append(sink, m)
	}
	sink = append(sink, s.sinks...)

	s.controller.SetSink(sink)
	s.controller.SetClock(l.clock)
	s.installModeSource(sc.Channel != nil)

	l.x = make(dynamo.State, s.plant.StateDim())
	copy(l.x, sc.InitRate)
	l.applied = make(dynamo.Control, s.plant.ControlDim())
	l.accel = s.plant.Derive(l.x, l.applied, 0)
	return l, nil
}

// Time is the simulated time of the next tick.
func (l *Loop) Time() float64 { return float64(l.tick) * l.sc.Dt }

// Done reports whether the scenario duration has been covered.
func (l *Loop) Done() bool { return l.tick >= l.Steps() }

func (l *Loop) Steps() int { return int(math.Round(l.sc.Duration / l.sc.Dt)) }

// Progress is the completed fraction of the scenario, in [0, 1].
func (l *Loop) Progress() float64 {
	n := l.Steps()
	if n == 0 {
		return 1
	}
	return float64(l.tick) / float64(n)
}

// State is the current body rate. It is replaced, not mutated, by Step.
func (l *Loop) State() dynamo.State { return l.x }

// Last returns the diagnostics record of the latest tick.
func (l *Loop) Last() (ratecontrol.Diagnostics, bool) { return l.latest.d, l.latest.ok }

// Saturated reports whether any axis hit its torque limit on the latest tick.
func (l *Loop) Saturated() bool { return l.saturated }

// SaturationFlags returns the per-axis flags of the latest tick.
func (l *Loop) SaturationFlags() (positive, negative ratecontrol.Bool3) {
	return l.satPos, l.satNeg
}

// Step runs one control tick and integrates the plant over it. On a
// *dynamo.SimulationError the state is left unchanged.
func (l *Loop) Step() (dynamo.Control, error) {
	s, sc := l.s, l.sc
	t := l.Time()
	l.clock.t = t
	if sc.Channel != nil {
		s.mode.Set(sc.Channel(t))
	}

	cmd := s.controller.Update(toVector(l.x), sc.Profile.Setpoint(t), toVector(l.accel), sc.Dt, t < sc.LandedUntil)

	applied, pos, neg := s.allocator.Allocate(cmd)
	s.controller.SetSaturationStatus(pos, neg)
	l.satPos, l.satNeg = pos, neg
	l.saturated = pos != (ratecontrol.Bool3{}) || neg != (ratecontrol.Bool3{})

	for _, obs := range s.observers {
		obs.OnStep(l.x, applied, t)
	}

	l.accel = s.plant.Derive(l.x, applied, t)
	next := s.integrator.Step(s.plant, l.x, applied, t, sc.Dt)

	if err := s.checkState(next, sc); err != nil {
		return applied, &dynamo.SimulationError{Step: l.tick, Time: t + sc.Dt, State: next, Wrapped: err}
	}

	l.x = next
	l.applied = applied
	l.tick++
	return applied, nil
}

func (s *Simulator) Run(ctx context.Context, sc Scenario) (*Result, error) {
	if err := s.validateScenario(sc); err != nil {
		return nil, err
	}

	steps := int(math.Round(sc.Duration / sc.Dt))
	recorder := telemetry.NewRecorder(steps)
	loop, err := s.Start(sc, recorder)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Times:    make([]float64, 0, steps+1),
		States:   make([]dynamo.State, 0, steps+1),
		Controls: make([]dynamo.Control, 0, steps),
		Metrics:  make(map[string]float64),
		Errors:   make([]error, 0),
	}

	energy, _ := s.plant.(dynamo.Hamiltonian)
	record := func() {
		result.States = append(result.States, loop.State().Clone())
		result.Times = append(result.Times, loop.Time())
		if energy != nil {
			result.Energy = append(result.Energy, energy.Energy(loop.State()))
		}
	}
	record()

	s.log.Info("run started",
		zap.Int("steps", steps),
		zap.Float64("dt", sc.Dt),
		zap.Int("window", s.controller.Window()),
	)

	for !loop.Done() {
		select {
		case <-ctx.Done():
			result.Telemetry = recorder.Records()
			return result, ctx.Err()
		default:
		}

		applied, err := loop.Step()
		if loop.Saturated() {
			result.SaturatedTicks++
		}
		if err != nil {
			result.Errors = append(result.Errors, err)
			s.log.Warn("run aborted", zap.Error(err), zap.Float64s("rate", loop.State()))
			break
		}

		result.StepsTaken++
		result.Controls = append(result.Controls, applied)
		record()
	}

	result.Telemetry = recorder.Records()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.log.Info("run finished",
		zap.Int("steps_taken", result.StepsTaken),
		zap.Int("saturated_ticks", result.SaturatedTicks),
		zap.Float64s("final_rate", result.Final()),
	)

	return result, nil
}

// installModeSource hands the controller the channel source for channel
// scenarios and gives back the source it had before otherwise.
func (s *Simulator) installModeSource(channel bool) {
	cur := s.controller.ModeSource()
	usingChannel := cur == ratecontrol.ModeSource(s.mode)
	switch {
	case channel && !usingChannel:
		s.prior = cur
		s.controller.SetModeSource(s.mode)
	case !channel && usingChannel:
		s.controller.SetModeSource(s.prior)
	}
}

func (s *Simulator) validateScenario(sc Scenario) error {
	if sc.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", sc.Dt)
	}
	if sc.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", sc.Duration)
	}
	if sc.Profile == nil {
		return fmt.Errorf("scenario has no setpoint profile")
	}
	if len(sc.InitRate) > s.plant.StateDim() {
		return fmt.Errorf("%w: initial rate has %d entries, plant has %d",
			dynamo.ErrDimensionMismatch, len(sc.InitRate), s.plant.StateDim())
	}
	return nil
}

func (s *Simulator) checkState(x dynamo.State, sc Scenario) error {
	if !x.IsValid() {
		return dynamo.ErrInvalidState
	}
	if sc.MaxRate > 0 && x.Norm() > sc.MaxRate {
		return dynamo.ErrUnstable
	}
	return nil
}

func toVector(x []float64) ratecontrol.Vector3 {
	var v ratecontrol.Vector3
	copy(v[:], x)
	return v
}
