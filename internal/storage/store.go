package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/ratectl/internal/config"
	"github.com/san-kum/ratectl/internal/ratecontrol"
	"github.com/san-kum/ratectl/internal/sim"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile  = "metadata.json"
	telemetryFile = "telemetry.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Preset         string             `json:"preset"`
	Law            string             `json:"law"`
	Timestamp      time.Time          `json:"timestamp"`
	Dt             float64            `json:"dt"`
	Duration       float64            `json:"duration"`
	Integrator     string             `json:"integrator"`
	Window         int                `json:"window"`
	StepsTaken     int                `json:"steps_taken"`
	SaturatedTicks int                `json:"saturated_ticks"`
	FinalRate      []float64          `json:"final_rate"`
	Metrics        map[string]float64 `json:"metrics"`
	Config         *config.Config     `json:"config"`
}

// Save writes the run's metadata and its diagnostics stream under a fresh
// run id.
func (s *Store) Save(preset string, cfg *config.Config, result *sim.Result) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:             runID,
		Preset:         preset,
		Law:            cfg.Law,
		Timestamp:      time.Now(),
		Dt:             cfg.Scenario.Dt,
		Duration:       cfg.Scenario.Duration,
		Integrator:     cfg.Integrator,
		Window:         cfg.MFC.Window,
		StepsTaken:     result.StepsTaken,
		SaturatedTicks: result.SaturatedTicks,
		FinalRate:      result.Final(),
		Metrics:        result.Metrics,
		Config:         cfg,
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}

	if err := writeTelemetry(filepath.Join(runDir, telemetryFile), result.Telemetry); err != nil {
		return "", fmt.Errorf("write telemetry: %w", err)
	}

	return runID, nil
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata of %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadTelemetry(runID string) ([]ratecontrol.Diagnostics, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, telemetryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []ratecontrol.Diagnostics{}, nil
	}

	out := make([]ratecontrol.Diagnostics, 0, len(records)-1)
	for i, row := range records[1:] {
		d, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("telemetry row %d: %w", i+1, err)
		}
		out = append(out, d)
	}
	return out, nil
}
