package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/ratectl/internal/config"
	"github.com/san-kum/ratectl/internal/metrics"
	"github.com/san-kum/ratectl/internal/sim"
)

// Setters maps a tunable parameter name to the config fields it writes.
// Vector gains are set on every axis.
var Setters = map[string]func(*config.Config, float64){
	"pid.p":             func(c *config.Config, v float64) { c.PID.P = [3]float64{v, v, v} },
	"pid.i":             func(c *config.Config, v float64) { c.PID.I = [3]float64{v, v, v} },
	"pid.d":             func(c *config.Config, v float64) { c.PID.D = [3]float64{v, v, v} },
	"pid.ff":            func(c *config.Config, v float64) { c.PID.FF = [3]float64{v, v, v} },
	"mfc.p":             func(c *config.Config, v float64) { c.MFC.P = [3]float64{v, v, v} },
	"mfc.i":             func(c *config.Config, v float64) { c.MFC.I = [3]float64{v, v, v} },
	"mfc.d":             func(c *config.Config, v float64) { c.MFC.D = [3]float64{v, v, v} },
	"mfc.f_hat_gain":    func(c *config.Config, v float64) { c.MFC.FHatGain = v },
	"mfc.setpoint_gain": func(c *config.Config, v float64) { c.MFC.SetpointGain = v },
	"mfc.lambda":        func(c *config.Config, v float64) { c.MFC.Lambda = v },
}

func ParamNames() []string {
	names := make([]string, 0, len(Setters))
	for name := range Setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trial is one evaluated grid point. Score is +Inf for runs that failed to
// build or aborted.
type Trial struct {
	Params map[string]float64
	Score  float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("got %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := Setters[name]; !ok {
			return nil, fmt.Errorf("unknown parameter: %s", name)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("empty range for %s", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search evaluates every grid point on top of base, in parallel, and
// returns the point minimising metricName along with all trials.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (Trial, []Trial, error) {
	points := make([]map[string]float64, 0)
	g.enumerate(0, make(map[string]float64), &points)

	trials := make([]Trial, len(points))
	jobs := make([]sim.Job, len(points))
	for i, p := range points {
		trials[i] = Trial{Params: p, Score: math.Inf(1)}
		cfg := apply(base, p)
		jobs[i] = sim.Job{
			Name: fmt.Sprint(p),
			Build: func() (*sim.Simulator, sim.Scenario, error) {
				s, sc, err := sim.FromConfig(cfg)
				if err != nil {
					return nil, sc, err
				}
				for _, m := range metrics.Standard(sc.Duration/3, sc.MaxRate) {
					s.AddMetric(m)
				}
				return s, sc, nil
			},
		}
	}

	results, err := sim.RunParallel(ctx, jobs)
	if err != nil {
		return Trial{}, trials, err
	}

	best := Trial{Score: math.Inf(1)}
	for i, res := range results {
		val, ok := res.Metrics[metricName]
		if !ok {
			return Trial{}, trials, fmt.Errorf("unknown metric: %s", metricName)
		}
		if len(res.Errors) == 0 && !math.IsNaN(val) {
			trials[i].Score = val
		}
		if trials[i].Score < best.Score {
			best = trials[i]
		}
	}
	return best, trials, nil
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		point := make(map[string]float64, len(current))
		for k, v := range current {
			point[k] = v
		}
		*out = append(*out, point)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[paramName] = val
		g.enumerate(depth+1, current, out)
	}
}

func apply(base *config.Config, params map[string]float64) *config.Config {
	cfg := *base
	for name, v := range params {
		Setters[name](&cfg, v)
	}
	return &cfg
}
