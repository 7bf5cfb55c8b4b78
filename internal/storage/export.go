package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/ratectl/internal/ratecontrol"
	"github.com/san-kum/ratectl/internal/sim"
)

type ExportData struct {
	Law        string                    `json:"law"`
	Integrator string                    `json:"integrator"`
	Dt         float64                   `json:"dt"`
	Duration   float64                   `json:"duration"`
	Steps      int                       `json:"steps"`
	Times      []float64                 `json:"times"`
	Rates      [][]float64               `json:"rates"`
	Torques    [][]float64               `json:"torques"`
	Telemetry  []ratecontrol.Diagnostics `json:"telemetry,omitempty"`
	Metrics    map[string]float64        `json:"metrics"`
}

// ExportJSON writes a run as one JSON document. Telemetry is included only
// when withTelemetry is set.
func ExportJSON(w io.Writer, law, integrator string, dt, duration float64, result *sim.Result, withTelemetry bool) error {
	data := ExportData{
		Law:        law,
		Integrator: integrator,
		Dt:         dt,
		Duration:   duration,
		Steps:      result.StepsTaken,
		Times:      result.Times,
		Rates:      make([][]float64, len(result.States)),
		Torques:    make([][]float64, len(result.Controls)),
		Metrics:    result.Metrics,
	}

	for i, s := range result.States {
		data.Rates[i] = s
	}
	for i, c := range result.Controls {
		data.Torques[i] = c
	}
	if withTelemetry {
		data.Telemetry = result.Telemetry
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
