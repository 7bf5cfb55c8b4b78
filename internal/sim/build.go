package sim

import (
	"fmt"

	"github.com/san-kum/ratectl/internal/config"
	"github.com/san-kum/ratectl/internal/integrators"
	"github.com/san-kum/ratectl/internal/models"
	"github.com/san-kum/ratectl/internal/ratecontrol"
)

// FromConfig wires controller, plant, integrator and allocator from cfg.
func FromConfig(cfg *config.Config) (*Simulator, Scenario, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Scenario{}, fmt.Errorf("invalid config: %w", err)
	}

	ctrl, err := cfg.NewController()
	if err != nil {
		return nil, Scenario{}, err
	}

	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, Scenario{}, err
	}

	plant := &models.RigidBody{
		Inertia:       cfg.Plant.Inertia,
		Damping:       cfg.Plant.Damping,
		Effectiveness: cfg.Plant.Effectiveness,
		Disturbance:   cfg.Plant.Disturbance,
	}
	if err := plant.Validate(); err != nil {
		return nil, Scenario{}, err
	}

	profile, err := NewProfile(cfg.Scenario.Profile, cfg.Scenario.Amplitude, cfg.Scenario.Period)
	if err != nil {
		return nil, Scenario{}, err
	}

	sc := Scenario{
		Dt:          cfg.Scenario.Dt,
		Duration:    cfg.Scenario.Duration,
		Profile:     profile,
		LandedUntil: cfg.Scenario.LandedUntil,
		MaxRate:     cfg.Scenario.MaxRate,
	}

	switch cfg.Law {
	case "mfc":
		ctrl.SetModeSource(ratecontrol.FixedMode(ratecontrol.LawMFC))
	case "channel":
		sc.Channel = SwitchChannel(cfg.Scenario.SwitchAt)
	default:
		ctrl.SetModeSource(ratecontrol.FixedMode(ratecontrol.LawPID))
	}

	return New(plant, integ, ctrl, Allocator{Limit: cfg.Plant.TorqueLimit}), sc, nil
}
