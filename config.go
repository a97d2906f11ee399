package gotdoa

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// TrackerConfig configures the orbit followed by one tracker around the
// predicted target positions.
type TrackerConfig struct {
	Label string `json:"label"`
	// Radius of the orbit in meters.
	Radius float64 `json:"radius"`
	// AngularVelocity of the orbit in rad/s, the sign sets the direction.
	AngularVelocity float64 `json:"angular_velocity"`
	// Phase is the orbit angle at t=0.
	Phase float64 `json:"phase"`
}

// SimulationConfig is the configuration of a tracking simulation.
type SimulationConfig struct {
	TimeStep       float64      `json:"time_step"`
	Steps          int          `json:"steps"`
	Horizon        int          `json:"horizon"`
	TargetPath     [][2]float64 `json:"target_path"`
	TargetVelocity float64      `json:"target_velocity"`
	SplineDegree   int          `json:"spline_degree"`

	Trackers        [2]TrackerConfig `json:"trackers"`
	StateWeights    [3]float64       `json:"state_weights"`
	ControlWeights  [2]float64       `json:"control_weights"`
	LinearVelocity  [2]float64       `json:"linear_velocity"`
	AngularVelocity [2]float64       `json:"angular_velocity"`

	HyperbolaParameterMax float64 `json:"hyperbola_parameter_max"`
	HyperbolaSamples      int     `json:"hyperbola_samples"`
	// TraceLength bounds the traces of the solution cloud, -1 keeps everything.
	TraceLength       int     `json:"trace_length"`
	TrajectorySamples int     `json:"trajectory_samples"`
	HistogramBin      float64 `json:"histogram_bin"`

	RangeNoiseStdDev    float64 `json:"range_noise_std_dev"`
	PositionNoiseStdDev float64 `json:"position_noise_std_dev"`
	Seed                uint64  `json:"seed"`

	Solver PenaltySettings `json:"solver"`
}

// DefaultSimulationConfig returns the default configuration: two trackers
// orbiting in opposite phases around a target following a smooth S path.
func DefaultSimulationConfig() *SimulationConfig {
	return &SimulationConfig{
		TimeStep:       0.5,
		Steps:          120,
		Horizon:        10,
		TargetPath:     [][2]float64{{0, 0}, {15, 10}, {30, -10}, {45, 10}, {60, 0}},
		TargetVelocity: 0.8,
		SplineDegree:   DefaultDegree,
		Trackers: [2]TrackerConfig{
			{Label: "tracker1", Radius: 10, AngularVelocity: 0.15, Phase: math.Pi / 2},
			{Label: "tracker2", Radius: 10, AngularVelocity: 0.15, Phase: -math.Pi / 2},
		},
		StateWeights:          [3]float64{10, 10, 1},
		ControlWeights:        [2]float64{0.1, 0.1},
		LinearVelocity:        [2]float64{0, 4},
		AngularVelocity:       [2]float64{-1.5, 1.5},
		HyperbolaParameterMax: DefaultHyperbolaParameterMax,
		HyperbolaSamples:      DefaultHyperbolaSamples,
		TraceLength:           50,
		TrajectorySamples:     FullTrajectorySamples,
		HistogramBin:          1,
		Seed:                  1,
		Solver:                DefaultPenaltySettings(),
	}
}

// LoadSimulationConfig loads a SimulationConfig from a JSON file.
// Fields omitted from the file keep their default values.
func LoadSimulationConfig(path string) (*SimulationConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultSimulationConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid. The returned error
// wraps ErrInvalidInput.
func (c *SimulationConfig) Validate() error {
	invalid := func(format string, v ...interface{}) error {
		return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, v...))
	}
	if !(c.TimeStep > 0) {
		return invalid("time_step must be positive, got %f", c.TimeStep)
	}
	if c.Steps <= 0 {
		return invalid("steps must be positive, got %d", c.Steps)
	}
	if c.Horizon <= 0 {
		return invalid("horizon must be positive, got %d", c.Horizon)
	}
	if len(c.TargetPath) < 2 {
		return invalid("target_path needs at least 2 points, got %d", len(c.TargetPath))
	}
	if !(c.TargetVelocity > 0) {
		return invalid("target_velocity must be positive, got %f", c.TargetVelocity)
	}
	if c.SplineDegree < 1 {
		return invalid("spline_degree must be at least 1, got %d", c.SplineDegree)
	}
	if c.Trackers[0].Label == "" || c.Trackers[0].Label == c.Trackers[1].Label {
		return invalid("trackers need distinct non-empty labels")
	}
	for _, tr := range c.Trackers {
		if !(tr.Radius >= 0) {
			return invalid("%s radius must be non-negative, got %f", tr.Label, tr.Radius)
		}
	}
	for _, w := range append(c.StateWeights[:], c.ControlWeights[:]...) {
		if !(w >= 0) {
			return invalid("weights must be non-negative, got %v %v", c.StateWeights, c.ControlWeights)
		}
	}
	if c.LinearVelocity[0] == c.LinearVelocity[1] {
		return invalid("linear_velocity range is empty")
	}
	if c.AngularVelocity[0] == c.AngularVelocity[1] {
		return invalid("angular_velocity range is empty")
	}
	if !(c.HyperbolaParameterMax > 0) || c.HyperbolaSamples < 2 {
		return invalid("hyperbola_parameter_max=%f hyperbola_samples=%d", c.HyperbolaParameterMax, c.HyperbolaSamples)
	}
	if c.TraceLength == 0 || c.TraceLength < -1 {
		return invalid("trace_length must be positive or -1, got %d", c.TraceLength)
	}
	if c.TrajectorySamples < 2 {
		return invalid("trajectory_samples must be at least 2, got %d", c.TrajectorySamples)
	}
	if !(c.HistogramBin > 0) {
		return invalid("histogram_bin must be positive, got %f", c.HistogramBin)
	}
	if !(c.RangeNoiseStdDev >= 0) || !(c.PositionNoiseStdDev >= 0) {
		return invalid("noise standard deviations must be non-negative")
	}
	if _, err := NewPenaltySolver(c.Solver); err != nil {
		return err
	}
	return nil
}

// ControlPoints returns the target path as points.
func (c *SimulationConfig) ControlPoints() []Point2D {
	points := make([]Point2D, len(c.TargetPath))
	for i, p := range c.TargetPath {
		points[i] = Point2D{p[0], p[1]}
	}
	return points
}
