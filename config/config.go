// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid        GridConfig        `yaml:"grid"`
	Kernel      KernelConfig      `yaml:"kernel"`
	Growth      GrowthConfig      `yaml:"growth"`
	Detection   DetectionConfig   `yaml:"detection"`
	Energy      EnergyConfig      `yaml:"energy"`
	Mutation    MutationConfig    `yaml:"mutation"`
	Predation   PredationConfig   `yaml:"predation"`
	Environment EnvironmentConfig `yaml:"environment"`
	Memory      MemoryConfig      `yaml:"memory"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
}

// GridConfig holds world grid dimensions.
type GridConfig struct {
	Size int   `yaml:"size"` // Grid is Size x Size, toroidal
	Seed int64 `yaml:"seed"` // RNG seed for the engine
}

// KernelConfig holds convolution kernel parameters.
type KernelConfig struct {
	Type   string    `yaml:"type"`   // ring, gaussian, multiring
	Radius int       `yaml:"radius"` // Interaction radius in cells
	Peaks  []float64 `yaml:"peaks"`  // Shell amplitudes for multiring
}

// GrowthConfig holds field solver parameters.
// Small dt favors integration stability; very small sigma makes the affinity
// response sharp and prone to oscillation. These are tuning constraints, not
// enforced invariants.
type GrowthConfig struct {
	Mu           float64 `yaml:"mu"`            // Growth function center
	Sigma        float64 `yaml:"sigma"`         // Growth function width
	DT           float64 `yaml:"dt"`            // Transport time step
	FlowStrength float64 `yaml:"flow_strength"` // Gradient scale for the flow field
	Diffusion    float64 `yaml:"diffusion"`     // Per-step neighbor share rate
	FFTThreshold int     `yaml:"fft_threshold"` // Kernel size (2R+1) above which the FFT path is used
}

// DetectionConfig holds creature detection and matching parameters.
type DetectionConfig struct {
	MassThreshold   float64 `yaml:"mass_threshold"`    // Cell density floor for flood fill
	MinCreatureMass float64 `yaml:"min_creature_mass"` // Discard components below this total mass
	MaxCreatures    int     `yaml:"max_creatures"`     // Keep the heaviest N components
	MatchDistance   float64 `yaml:"match_distance"`    // Max toroidal distance for identity matching
	StaleFrames     int     `yaml:"stale_frames"`      // Remove creatures unseen this many frames
	VelocitySmooth  float64 `yaml:"velocity_smooth"`   // EMA factor for velocity updates
	SpeedNoiseFloor float64 `yaml:"speed_noise_floor"` // Below this speed, heading is not recomputed
}

// EnergyConfig holds the energy economy parameters.
type EnergyConfig struct {
	Initial             float64 `yaml:"initial"`               // Energy assigned to fresh generation-0 creatures
	SizeMetabolism      float64 `yaml:"size_metabolism"`       // Per-step cost multiplier on mass
	FoodEnergyGain      float64 `yaml:"food_energy_gain"`      // Energy per unit of food consumed
	MaxFoodPerCell      float64 `yaml:"max_food_per_cell"`     // Cap on food taken per owned cell per step
	DeathFoodFraction   float64 `yaml:"death_food_fraction"`   // Fraction of mass deposited as food on death
	ReproMassSplitLow   float64 `yaml:"repro_mass_split_low"`  // Lower bound of the randomized parent mass split
	ReproOffsetFactor   float64 `yaml:"repro_offset_factor"`   // Offspring offset as a fraction of parent radius
	PendingTimeout      int     `yaml:"pending_timeout"`       // Frames before unmatched pending offspring are dropped
	PendingCaptureDist  float64 `yaml:"pending_capture_dist"`  // Capture radius for offspring reconciliation
	MaxPopulation       int     `yaml:"max_population"`        // Reproduction headroom limit
}

// MutationConfig holds genome mutation parameters.
type MutationConfig struct {
	Rate     float64 `yaml:"rate"`     // Per-field mutation probability
	Strength float64 `yaml:"strength"` // Mutation magnitude as a fraction of field range
	FlipRate float64 `yaml:"flip_rate"` // Predator bit flip probability
}

// PredationConfig holds hunting parameters.
type PredationConfig struct {
	Enabled           bool    `yaml:"enabled"`             // Ecosystem mode: predation active
	CatchRadiusFactor float64 `yaml:"catch_radius_factor"` // Catch radius scale on combined radii
	DangerRadius      float64 `yaml:"danger_radius"`       // Prey within this range record danger and alarm
	PredationEnergy   float64 `yaml:"predation_energy"`    // Energy per unit of consumed prey mass
}

// EnvironmentConfig holds the environment layer parameters.
type EnvironmentConfig struct {
	FoodRegen      float64 `yaml:"food_regen"`      // Regeneration rate toward capacity per second
	FoodCapacity   float64 `yaml:"food_capacity"`   // Peak food capacity
	NoiseScale     float64 `yaml:"noise_scale"`     // Simplex frequency for the capacity field
	NoiseSeed      int64   `yaml:"noise_seed"`      // Simplex seed
	PheromoneDecay float64 `yaml:"pheromone_decay"` // Geometric decay per step
	SignalDecay    float64 `yaml:"signal_decay"`    // Geometric decay per step
	SignalDiffuse  float64 `yaml:"signal_diffuse"`  // Signal diffusion rate
	CurrentSpeed   float64 `yaml:"current_speed"`   // Magnitude of the drifting current field
	CurrentDrift   float64 `yaml:"current_drift"`   // Temporal drift rate of the current noise
}

// MemoryConfig holds creature memory parameters.
type MemoryConfig struct {
	Resolution    int     `yaml:"resolution"`     // Memory grid is Resolution x Resolution
	InheritFactor float64 `yaml:"inherit_factor"` // Damping applied to inherited parent memory
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowFrames int    `yaml:"window_frames"` // Frames per stats window
	OutputDir    string `yaml:"output_dir"`    // CSV output directory ("" disables)
	StorePath    string `yaml:"store_path"`    // SQLite run store path ("" disables)
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return cfg, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
