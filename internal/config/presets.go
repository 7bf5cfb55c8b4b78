package config

import "sort"

// Presets are named overlays on DefaultConfig.
var Presets = map[string]func(*Config){
	"step": func(c *Config) {},
	"doublet": func(c *Config) {
		c.Scenario.Profile = "doublet"
		c.Scenario.Duration = 4.0
		c.Scenario.Period = 2.0
	},
	"sine": func(c *Config) {
		c.Scenario.Profile = "sine"
		c.Scenario.Duration = 6.0
		c.Scenario.Period = 2.0
		c.Scenario.Amplitude = [3]float64{0.8, 0.8, 0.2}
	},
	"mfc": func(c *Config) {
		c.Law = "mfc"
	},
	"handover": func(c *Config) {
		c.Law = "channel"
		c.Scenario.Duration = 4.0
		c.Scenario.SwitchAt = 2.0
	},
	"takeoff": func(c *Config) {
		c.Scenario.LandedUntil = 0.5
	},
	"saturate": func(c *Config) {
		c.Scenario.Amplitude = [3]float64{6, 0, 0}
		c.Plant.TorqueLimit = [3]float64{0.3, 0.3, 0.3}
	},
}

// GetPreset returns DefaultConfig with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
