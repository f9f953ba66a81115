package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/rescue-bots/internal/city"
	"github.com/talgya/rescue-bots/internal/robots"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name  string
		field string
		edit  func(*Config)
	}{
		{"zero robots", "fleet", func(c *Config) { c.Fleet = robots.FleetConfig{} }},
		{"negative robots", "fleet", func(c *Config) { c.Fleet.Heavies = -1 }},
		{"zero stations", "city.stations", func(c *Config) { c.City.Stations = 0 }},
		{"negative growth", "fire.growth_rate", func(c *Config) { c.Fire.GrowthRate = -1 }},
		{"negative ignition", "fire.ignition_rate", func(c *Config) { c.Fire.IgnitionRate = -0.1 }},
		{"nan spread", "fire.spread_rate", func(c *Config) { c.Fire.SpreadRate = math.NaN() }},
		{"zero threshold", "fire.destruction_threshold", func(c *Config) { c.Fire.DestructionThreshold = 0 }},
		{"inverted intensity range", "fire.initial_intensity_max", func(c *Config) { c.Fire.InitialIntensityMax = 1 }},
		{"too many initial fires", "fire.initial_fires", func(c *Config) { c.Fire.InitialFires = c.City.Buildings + 1 }},
		{"zero width", "city.width", func(c *Config) { c.City.Width = 0 }},
		{"bad station layout", "city.station_layout", func(c *Config) { c.City.StationLayout = "hex" }},
		{"zero refill rate", "ops.refill_rate", func(c *Config) { c.Ops.RefillRate = 0 }},
		{"zero priority weight", "assign.priority_weight", func(c *Config) { c.Assign.PriorityWeight = 0 }},
		{"zero density weight", "priority.density_weight", func(c *Config) { c.Priority.Density = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfiguration))
			assert.Contains(t, err.Error(), tt.field)

			_, err = New(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := DefaultConfig()
	cfg.City.Stations = 0
	cfg.Ops.RefillRate = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city.stations")
	assert.Contains(t, err.Error(), "ops.refill_rate")

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestNewWithLayoutRejectsUnusableLayouts(t *testing.T) {
	cfg := quietConfig()

	_, err := NewWithLayout(cfg, Layout{
		Buildings: []*city.Building{testBuilding(1, 0, 0)},
		Stations:  []*city.WaterStation{testStation(1, 0, 0)},
	})
	assert.ErrorIs(t, err, ErrInvalidConfiguration, "no robots")

	_, err = NewWithLayout(cfg, Layout{
		Buildings: []*city.Building{testBuilding(1, 0, 0)},
		Robots:    []*robots.Robot{testRobot(1, robots.Standard, 0, 0)},
	})
	assert.ErrorIs(t, err, ErrInvalidConfiguration, "no stations")

	_, err = NewWithLayout(cfg, Layout{
		Buildings: []*city.Building{testBuilding(1, 0, 0), testBuilding(1, 5, 5)},
		Stations:  []*city.WaterStation{testStation(1, 0, 0)},
		Robots:    []*robots.Robot{testRobot(1, robots.Standard, 0, 0)},
	})
	assert.ErrorIs(t, err, ErrInvalidConfiguration, "duplicate building ids")
}
