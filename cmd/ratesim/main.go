package main

import (
	"fmt"
	"os"

	"github.com/san-kum/ratectl/internal/config"
	"github.com/san-kum/ratectl/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	dataDir    string
	configFile string
	preset     string
	law        string
	integrator string
	dt         float64
	duration   float64
	window     int
	lambda     float64
	verbose    bool
	logJSON    bool
	// live view
	speed int
	theme string
	// plot/analyze
	axis int
	// export-json
	withTelemetry bool
	// tune
	metricName string
	tuneParams []string
	tuneValues []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "ratesim",
		Short:        "multicopter body-rate controller lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ratesim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging, including per-tick diagnostics")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a closed-loop scenario and store it",
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot setpoint, rate and torque of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&axis, "axis", -1, "axis to plot (0 roll, 1 pitch, 2 yaw); all when negative")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step response and tracking-error spectrum",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scenario with live visualization",
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&speed, "speed", 2, "control ticks per frame")
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", fmt.Sprintf("color theme %v", viz.ThemeNames()))

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json",
		Short: "run a scenario and write it to stdout as JSON",
		RunE:  exportJSON,
	}
	addScenarioFlags(exportJSONCmd)
	exportJSONCmd.Flags().BoolVar(&withTelemetry, "telemetry", false, "include per-tick diagnostics")

	compareCmd := &cobra.Command{
		Use:   "compare [preset] [preset] ...",
		Short: "run several presets side by side",
		Args:  cobra.MinimumNArgs(2),
		RunE:  comparePresets,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search controller gains",
		RunE:  tuneGains,
	}
	addScenarioFlags(tuneCmd)
	tuneCmd.Flags().StringVar(&metricName, "metric", "rms_error_roll", "metric to minimise")
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "parameter to sweep (repeatable)")
	tuneCmd.Flags().StringArrayVar(&tuneValues, "values", nil, "comma-separated values for the matching --param")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, analyzeCmd, liveCmd, presetsCmd, exportJSONCmd, compareCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&law, "law", "pid", "control law: pid, mfc or channel")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "plant integrator")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "control period (s)")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	cmd.Flags().IntVar(&window, "window", config.DefaultWindow, "MFC window length (even, >= 4)")
	cmd.Flags().Float64Var(&lambda, "lambda", config.DefaultLambda, "MFC plant gain constant")
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("law") {
		cfg.Law = law
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Scenario.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Scenario.Duration = duration
	}
	if flags.Changed("window") {
		cfg.MFC.Window = window
	}
	if flags.Changed("lambda") {
		cfg.MFC.Lambda = lambda
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger() (*zap.Logger, error) {
	var zc zap.Config
	if logJSON {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zc.Build()
}
