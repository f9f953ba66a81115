package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/talgya/rescue-bots/internal/city"
	"github.com/talgya/rescue-bots/internal/fire"
	"github.com/talgya/rescue-bots/internal/robots"
)

// quietConfig disables every stochastic fire process so scenarios are exact.
func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Fire.InitialFires = 0
	cfg.Fire.IgnitionRate = 0
	cfg.Fire.GrowthRate = 0
	cfg.Fire.SpreadRate = 0
	return cfg
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.City.Width = 120
	cfg.City.Height = 120
	cfg.City.Buildings = 300
	cfg.City.Stations = 4
	cfg.Fleet = robots.FleetConfig{Scouts: 3, Standards: 5, Heavies: 2}
	cfg.Fire.InitialFires = 10
	return cfg
}

func testBuilding(id uint64, x, y float64) *city.Building {
	return &city.Building{ID: city.BuildingID(id), Position: city.Point{X: x, Y: y}, Weight: 1, Health: 1}
}

func testStation(id uint64, x, y float64) *city.WaterStation {
	return &city.WaterStation{ID: city.StationID(id), Position: city.Point{X: x, Y: y}}
}

func testRobot(id uint64, t robots.RobotType, x, y float64) *robots.Robot {
	return robots.New(robots.RobotID(id), t, city.Point{X: x, Y: y})
}

func newTestSim(t *testing.T, cfg Config, layout Layout) *Simulation {
	t.Helper()
	sim, err := NewWithLayout(cfg, layout)
	require.NoError(t, err)
	return sim
}

func mustStartFire(t *testing.T, sim *Simulation, building uint64, intensity float64) *fire.Fire {
	t.Helper()
	id, ok := sim.StartFire(city.BuildingID(building), intensity)
	require.True(t, ok, "start fire on building %d", building)
	f, ok := sim.Fire(id)
	require.True(t, ok)
	return f
}

func mustRobot(t *testing.T, sim *Simulation, id uint64) *robots.Robot {
	t.Helper()
	r, ok := sim.Robot(robots.RobotID(id))
	require.True(t, ok)
	return r
}
