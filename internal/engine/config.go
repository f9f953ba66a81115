package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/talgya/rescue-bots/internal/city"
	"github.com/talgya/rescue-bots/internal/fire"
	"github.com/talgya/rescue-bots/internal/robots"
)

// ErrInvalidConfiguration is matched (via errors.Is) by every configuration
// problem reported at construction time.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ConfigError names one rejected configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidConfiguration.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// Config holds every tunable of a simulation run.
type Config struct {
	Seed     int64              `mapstructure:"seed" json:"seed"`
	City     city.GenConfig     `mapstructure:"city" json:"city"`
	Fleet    robots.FleetConfig `mapstructure:"fleet" json:"fleet"`
	Fire     FireConfig         `mapstructure:"fire" json:"fire"`
	Priority fire.Weights       `mapstructure:"priority" json:"priority"`
	Assign   AssignConfig       `mapstructure:"assign" json:"assign"`
	Ops      OpsConfig          `mapstructure:"ops" json:"ops"`
}

// FireConfig controls ignition, growth, spread and destruction.
type FireConfig struct {
	InitialFires         int     `mapstructure:"initial_fires" json:"initial_fires"`
	InitialIntensityMin  float64 `mapstructure:"initial_intensity_min" json:"initial_intensity_min"`
	InitialIntensityMax  float64 `mapstructure:"initial_intensity_max" json:"initial_intensity_max"`
	IgnitionRate         float64 `mapstructure:"ignition_rate" json:"ignition_rate"`                 // Expected random ignitions per second
	GrowthRate           float64 `mapstructure:"growth_rate" json:"growth_rate"`                     // Intensity per second while unfought
	SpreadRate           float64 `mapstructure:"spread_rate" json:"spread_rate"`                     // Spread attempts per second at threshold intensity
	SpreadRadius         float64 `mapstructure:"spread_radius" json:"spread_radius"`                 // Metres
	DestructionThreshold float64 `mapstructure:"destruction_threshold" json:"destruction_threshold"` // Intensity above which the building is lost
}

// AssignConfig weights the fight-selection score
//
//	score = priority*PriorityWeight - distance*DistanceWeight
type AssignConfig struct {
	PriorityWeight float64 `mapstructure:"priority_weight" json:"priority_weight"`
	DistanceWeight float64 `mapstructure:"distance_weight" json:"distance_weight"`
}

// OpsConfig covers robot operations at fires and stations.
type OpsConfig struct {
	RefillRate          float64 `mapstructure:"refill_rate" json:"refill_rate"`                     // Water per second at a station
	ArrivalRadius       float64 `mapstructure:"arrival_radius" json:"arrival_radius"`               // Distance counted as "arrived"
	WaterPerSuppression float64 `mapstructure:"water_per_suppression" json:"water_per_suppression"` // Water spent per unit of intensity removed
}

// DefaultConfig returns a 200m city with 1000 buildings, 5 stations and 50 robots.
func DefaultConfig() Config {
	return Config{
		Seed:  42,
		City:  city.DefaultGenConfig(),
		Fleet: robots.DefaultFleetConfig(),
		Fire: FireConfig{
			InitialFires:         20,
			InitialIntensityMin:  20,
			InitialIntensityMax:  60,
			IgnitionRate:         0.05,
			GrowthRate:           1.0,
			SpreadRate:           0.02,
			SpreadRadius:         8,
			DestructionThreshold: 150,
		},
		Priority: fire.DefaultWeights(),
		Assign: AssignConfig{
			PriorityWeight: 100,
			DistanceWeight: 1,
		},
		Ops: OpsConfig{
			RefillRate:          50,
			ArrivalRadius:       1.0,
			WaterPerSuppression: 1.0,
		},
	}
}

// Validate reports every problem with a config used to generate a city.
func (c Config) Validate() error {
	var errs []error
	add := func(field, reason string) {
		errs = append(errs, &ConfigError{Field: field, Reason: reason})
	}

	if !positive(c.City.Width) {
		add("city.width", "must be positive")
	}
	if !positive(c.City.Height) {
		add("city.height", "must be positive")
	}
	if c.City.Buildings < 0 {
		add("city.buildings", "must not be negative")
	}
	if c.City.Stations <= 0 {
		add("city.stations", "must be positive (robots could never refill)")
	}
	switch c.City.StationLayout {
	case city.StationLayoutGrid, city.StationLayoutRandom:
	default:
		add("city.station_layout", fmt.Sprintf("must be %q or %q", city.StationLayoutGrid, city.StationLayoutRandom))
	}
	if c.City.StationJitter < 0 {
		add("city.station_jitter", "must not be negative")
	}
	if !positive(c.City.NoiseScale) {
		add("city.noise_scale", "must be positive")
	}

	if c.Fleet.Scouts < 0 || c.Fleet.Standards < 0 || c.Fleet.Heavies < 0 {
		add("fleet", "robot counts must not be negative")
	} else if c.Fleet.Total() == 0 {
		add("fleet", "needs at least one robot")
	}

	if c.Fire.InitialFires > c.City.Buildings {
		add("fire.initial_fires", "must not exceed city.buildings")
	}

	errs = append(errs, c.validateDynamics()...)
	return errors.Join(errs...)
}

// validateDynamics checks the rates and weights that apply to any layout.
func (c Config) validateDynamics() []error {
	var errs []error
	add := func(field, reason string) {
		errs = append(errs, &ConfigError{Field: field, Reason: reason})
	}

	f := c.Fire
	if f.InitialFires < 0 {
		add("fire.initial_fires", "must not be negative")
	}
	if !positive(f.InitialIntensityMin) {
		add("fire.initial_intensity_min", "must be positive")
	}
	if !(f.InitialIntensityMax >= f.InitialIntensityMin) {
		add("fire.initial_intensity_max", "must be at least fire.initial_intensity_min")
	}
	if !nonNegative(f.IgnitionRate) {
		add("fire.ignition_rate", "must not be negative")
	}
	if !nonNegative(f.GrowthRate) {
		add("fire.growth_rate", "must not be negative")
	}
	if !nonNegative(f.SpreadRate) {
		add("fire.spread_rate", "must not be negative")
	}
	if !nonNegative(f.SpreadRadius) {
		add("fire.spread_radius", "must not be negative")
	}
	if !positive(f.DestructionThreshold) {
		add("fire.destruction_threshold", "must be positive")
	}

	p := c.Priority
	if !positive(p.Intensity) {
		add("priority.intensity_weight", "must be positive")
	}
	if !nonNegative(p.Structure) {
		add("priority.structure_weight", "must not be negative")
	}
	if !positive(p.Density) {
		add("priority.density_weight", "must be positive")
	}
	if !positive(p.Radius) {
		add("priority.radius", "must be positive")
	}

	if !positive(c.Assign.PriorityWeight) {
		add("assign.priority_weight", "must be positive")
	}
	if !nonNegative(c.Assign.DistanceWeight) {
		add("assign.distance_weight", "must not be negative")
	}

	if !positive(c.Ops.RefillRate) {
		add("ops.refill_rate", "must be positive")
	}
	if !positive(c.Ops.ArrivalRadius) {
		add("ops.arrival_radius", "must be positive")
	}
	if !positive(c.Ops.WaterPerSuppression) {
		add("ops.water_per_suppression", "must be positive")
	}
	return errs
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
