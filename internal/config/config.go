package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/ratectl/internal/ratecontrol"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.004
	DefaultDuration = 3.0
	DefaultWindow   = 20
	DefaultLambda   = 1.0
)

type Config struct {
	Law        string         `yaml:"law"` // pid, mfc or channel
	Integrator string         `yaml:"integrator"`
	PID        PIDConfig      `yaml:"pid"`
	MFC        MFCConfig      `yaml:"mfc"`
	Plant      PlantConfig    `yaml:"plant"`
	Scenario   ScenarioConfig `yaml:"scenario"`
}

type PIDConfig struct {
	P               [3]float64 `yaml:"p"`
	I               [3]float64 `yaml:"i"`
	D               [3]float64 `yaml:"d"`
	FF              [3]float64 `yaml:"ff"`
	IntegratorLimit [3]float64 `yaml:"integrator_limit"`
}

type MFCConfig struct {
	P            [3]float64 `yaml:"p"`
	I            [3]float64 `yaml:"i"`
	D            [3]float64 `yaml:"d"`
	FHatGain     float64    `yaml:"f_hat_gain"`
	SetpointGain float64    `yaml:"setpoint_gain"`
	Lambda       float64    `yaml:"lambda"`
	Window       int        `yaml:"window"`
}

type PlantConfig struct {
	Inertia       [3]float64 `yaml:"inertia"`
	Damping       [3]float64 `yaml:"damping"`
	Effectiveness [3]float64 `yaml:"effectiveness"`
	Disturbance   [3]float64 `yaml:"disturbance"`
	TorqueLimit   [3]float64 `yaml:"torque_limit"`
}

type ScenarioConfig struct {
	Dt        float64    `yaml:"dt"`
	Duration  float64    `yaml:"duration"`
	Profile   string     `yaml:"profile"` // step, doublet or sine
	Amplitude [3]float64 `yaml:"amplitude"`
	Period    float64    `yaml:"period"`
	// Time at which the mode channel is raised to engage MFC, for law=channel.
	SwitchAt float64 `yaml:"switch_at"`
	// The vehicle reports landed until this time.
	LandedUntil float64 `yaml:"landed_until"`
	// Abort once the body rate magnitude exceeds this (rad/s); zero disables.
	MaxRate float64 `yaml:"max_rate"`
}

func DefaultConfig() *Config {
	pid := PIDConfig{
		P:               [3]float64{0.15, 0.15, 0.2},
		I:               [3]float64{0.2, 0.2, 0.1},
		D:               [3]float64{0.003, 0.003, 0},
		IntegratorLimit: [3]float64{0.3, 0.3, 0.3},
	}
	return &Config{
		Law:        "pid",
		Integrator: "rk4",
		PID:        pid,
		MFC: MFCConfig{
			P:            pid.P,
			I:            pid.I,
			D:            pid.D,
			FHatGain:     1e-6,
			SetpointGain: 1e-6,
			Lambda:       DefaultLambda,
			Window:       DefaultWindow,
		},
		Plant: PlantConfig{
			Inertia:       [3]float64{0.02, 0.02, 0.04},
			Damping:       [3]float64{0.002, 0.002, 0.004},
			Effectiveness: [3]float64{1, 1, 1},
			Disturbance:   [3]float64{0.02, -0.01, 0},
			TorqueLimit:   [3]float64{1, 1, 1},
		},
		Scenario: ScenarioConfig{
			Dt:        DefaultDt,
			Duration:  DefaultDuration,
			Profile:   "step",
			Amplitude: [3]float64{1.0, -0.5, 0.3},
			Period:    1.0,
			MaxRate:   50,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks everything the controller and simulator take as
// preconditions, so that nothing has to be checked inside the control loop.
func (c *Config) Validate() error {
	var errs []error
	switch c.Law {
	case "pid", "mfc", "channel":
	default:
		errs = append(errs, fmt.Errorf("law must be pid, mfc or channel, got %q", c.Law))
	}
	if err := c.MFCGains().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("mfc: %w", err))
	}
	if c.Scenario.Dt <= 0 {
		errs = append(errs, fmt.Errorf("scenario.dt must be positive, got %v", c.Scenario.Dt))
	}
	if c.Scenario.Duration <= 0 {
		errs = append(errs, fmt.Errorf("scenario.duration must be positive, got %v", c.Scenario.Duration))
	}
	for i, v := range c.Plant.Inertia {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("plant.inertia[%d] must be positive, got %v", i, v))
		}
	}
	for i, v := range c.Plant.TorqueLimit {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("plant.torque_limit[%d] must be positive, got %v", i, v))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) MFCGains() ratecontrol.MFCGains {
	return ratecontrol.MFCGains{
		P:            c.MFC.P,
		I:            c.MFC.I,
		D:            c.MFC.D,
		FHatGain:     c.MFC.FHatGain,
		SetpointGain: c.MFC.SetpointGain,
		Lambda:       c.MFC.Lambda,
		Window:       c.MFC.Window,
	}
}

// NewController builds a rate controller carrying every gain in c.
func (c *Config) NewController() (*ratecontrol.RateControl, error) {
	rc, err := ratecontrol.New(c.MFC.Window)
	if err != nil {
		return nil, err
	}
	rc.SetPIDGains(c.PID.P, c.PID.I, c.PID.D)
	rc.SetFeedForwardGain(c.PID.FF)
	rc.SetIntegratorLimit(c.PID.IntegratorLimit)
	if err := rc.SetMFCGains(c.MFCGains()); err != nil {
		return nil, err
	}
	return rc, nil
}
