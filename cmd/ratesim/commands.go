package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/ratectl/internal/analysis"
	"github.com/san-kum/ratectl/internal/config"
	"github.com/san-kum/ratectl/internal/metrics"
	"github.com/san-kum/ratectl/internal/optim"
	"github.com/san-kum/ratectl/internal/ratecontrol"
	"github.com/san-kum/ratectl/internal/sim"
	"github.com/san-kum/ratectl/internal/storage"
	"github.com/san-kum/ratectl/internal/telemetry"
	"github.com/san-kum/ratectl/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// build wires a simulator for cfg with the standard metrics attached.
func build(cfg *config.Config, log *zap.Logger) (*sim.Simulator, sim.Scenario, error) {
	s, sc, err := sim.FromConfig(cfg)
	if err != nil {
		return nil, sc, err
	}
	s.SetLogger(log)
	for _, m := range metrics.Standard(sc.Duration/3, sc.MaxRate) {
		s.AddMetric(m)
	}
	return s, sc, nil
}

func presetName() string {
	if preset == "" {
		return "custom"
	}
	return preset
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, sc, err := build(cfg, log)
	if err != nil {
		return err
	}

	// per-tick diagnostics go through a bounded queue so logging never
	// stalls the loop
	var async *telemetry.Async
	if verbose {
		async = telemetry.NewAsync(telemetry.NewLogSink(log, 25), 1024)
		s.AddSink(async)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	result, err := s.Run(ctx, sc)
	if async != nil {
		async.Close()
		if n := async.Dropped(); n > 0 {
			log.Warn("diagnostics dropped", zap.Uint64("count", n))
		}
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(presetName(), cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("law: %s\n", cfg.Law)
	fmt.Printf("steps: %d (%d saturated)\n", result.StepsTaken, result.SaturatedTicks)
	fmt.Printf("final rate: %s\n", formatVector(result.Final()))
	for _, e := range result.Errors {
		fmt.Printf("aborted: %v\n", e)
	}
	printMetrics(result.Metrics)

	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %-16s %.6f\n", name, m[name])
	}
}

func formatVector(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%+.4f", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tLAW\tTIME\tDURATION\tDT\tWINDOW\tRMS ROLL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%.4f\n",
			run.ID,
			run.Preset,
			run.Law,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Window,
			run.Metrics["rms_error_roll"],
		)
	}

	return w.Flush()
}

func axes() []int {
	if axis >= 0 && axis < 3 {
		return []int{axis}
	}
	return []int{ratecontrol.Roll, ratecontrol.Pitch, ratecontrol.Yaw}
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	records, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("law: %s\n", meta.Law)
	fmt.Printf("samples: %d\n\n", len(records))

	for _, a := range axes() {
		fmt.Println(viz.PlotAxis(records, a, 80, 10))
		fmt.Println()
		fmt.Println(viz.PlotTorque(records, a, 80, 6))
		fmt.Println()
		if meta.Law != "pid" && a != ratecontrol.Yaw {
			fmt.Println(viz.PlotFHat(records, a, 80, 6))
			fmt.Println()
		}
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	records, err := st.LoadTelemetry(runID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AXIS\tTARGET\tRISE\tOVERSHOOT\tSETTLING\tFINAL\tMEAN ERR\tSTD ERR\tPEAK FREQ")

	summary := metrics.Summarize(records)
	for _, a := range []int{ratecontrol.Roll, ratecontrol.Pitch, ratecontrol.Yaw} {
		resp, err := analysis.StepResponse(records, a, 0.05)
		if err != nil {
			return err
		}
		peak := math.NaN()
		if spectrum, err := analysis.ErrorSpectrum(records, a); err == nil {
			peak = spectrum.Dominant()
		}
		fmt.Fprintf(w, "%s\t%+.3f\t%.3fs\t%.1f%%\t%.3fs\t%+.4f\t%+.5f\t%.5f\t%.2f Hz\n",
			viz.AxisNames[a],
			resp.Target,
			resp.RiseTime,
			resp.Overshoot*100,
			resp.Settling,
			resp.Final,
			summary[a].MeanError,
			summary[a].StdDevError,
			peak,
		)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	viz.SetTheme(theme)
	builder := func() (*sim.Loop, error) {
		s, sc, err := sim.FromConfig(cfg)
		if err != nil {
			return nil, err
		}
		return s.Start(sc)
	}
	return viz.Run(builder, fmt.Sprintf("%s / %s", presetName(), cfg.Law), speed)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	s, sc, err := build(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	result, err := s.Run(cmd.Context(), sc)
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, cfg.Law, cfg.Integrator, sc.Dt, sc.Duration, result, withTelemetry)
}

func comparePresets(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	jobs := make([]sim.Job, len(args))
	for i, name := range args {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		jobs[i] = sim.Job{
			Name: name,
			Build: func() (*sim.Simulator, sim.Scenario, error) {
				return build(cfg, log.With(zap.String("preset", name)))
			},
		}
	}

	results, err := sim.RunParallel(cmd.Context(), jobs)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tSTEPS\tSATURATED\tRMS ROLL\tRMS PITCH\tRMS YAW\tEFFORT\tFINAL RATE")
	for i, res := range results {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%s\n",
			args[i],
			res.StepsTaken,
			res.SaturatedTicks,
			res.Metrics["rms_error_roll"],
			res.Metrics["rms_error_pitch"],
			res.Metrics["rms_error_yaw"],
			res.Metrics["control_effort"],
			formatVector(res.Final()),
		)
	}
	return w.Flush()
}

func parseValues(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("bad value %q: %w", f, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	if len(tuneParams) == 0 {
		return fmt.Errorf("at least one --param is required (available: %v)", optim.ParamNames())
	}
	if len(tuneParams) != len(tuneValues) {
		return fmt.Errorf("got %d --param but %d --values", len(tuneParams), len(tuneValues))
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ranges := make([][]float64, len(tuneValues))
	for i, v := range tuneValues {
		if ranges[i], err = parseValues(v); err != nil {
			return err
		}
	}

	g, err := optim.NewGridSearch(tuneParams, ranges)
	if err != nil {
		return err
	}

	best, trials, err := g.Search(cmd.Context(), cfg, metricName)
	if err != nil {
		return err
	}

	fmt.Printf("evaluated %d points\n", len(trials))
	if math.IsInf(best.Score, 1) {
		fmt.Println("no stable point found")
		return nil
	}
	fmt.Printf("best %s: %.6f\n", metricName, best.Score)
	for _, name := range tuneParams {
		fmt.Printf("  %s = %g\n", name, best.Params[name])
	}
	return nil
}
