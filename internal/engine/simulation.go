// Simulation ties together the city, the fleet and the fires, and advances
// them one tick at a time.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/talgya/rescue-bots/internal/city"
	"github.com/talgya/rescue-bots/internal/fire"
	"github.com/talgya/rescue-bots/internal/robots"
)

// Layout is a complete initial world supplied by the caller.
type Layout struct {
	Buildings []*city.Building
	Stations  []*city.WaterStation
	Robots    []*robots.Robot
}

// Simulation owns every entity collection plus the clock and counters.
// It is single-threaded: only Step and StartFire mutate it.
type Simulation struct {
	cfg Config

	buildings []*city.Building
	stations  []*city.WaterStation
	fleet     []*robots.Robot
	fires     []*fire.Fire // Every fire ever started, in ID order
	active    []*fire.Fire // Live fires, in ID order

	// Registries resolving weak references.
	buildingIndex  map[city.BuildingID]*city.Building
	robotIndex     map[robots.RobotID]*robots.Robot
	stationIndex   map[city.StationID]*city.WaterStation
	fireIndex      map[fire.FireID]*fire.Fire
	fireByBuilding map[city.BuildingID]*fire.Fire // Live fire per building

	grid       *city.Grid
	rng        *rand.Rand
	nextFireID fire.FireID

	tick uint64
	time float64

	totals totals
}

// totals are the cumulative counters; they never decrease.
type totals struct {
	FiresStarted       int
	FiresExtinguished  int
	BuildingsDestroyed int
	ResponseTimeSum    float64
}

// New generates a city and fleet from cfg and starts the initial fires.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cityLayout := city.Generate(cfg.City, cfg.Seed)
	spawner := robots.NewSpawner(cfg.Seed)
	layout := Layout{
		Buildings: cityLayout.Buildings,
		Stations:  cityLayout.Stations,
		Robots:    spawner.SpawnFleet(cfg.Fleet, cfg.City.Width, cfg.City.Height),
	}
	return NewWithLayout(cfg, layout)
}

// NewWithLayout builds a simulation over caller-supplied entities. The
// generation fields of cfg (city sizes, fleet counts) are ignored; the
// rates, weights and seed apply.
func NewWithLayout(cfg Config, layout Layout) (*Simulation, error) {
	errs := cfg.validateDynamics()
	if len(layout.Robots) == 0 {
		errs = append(errs, &ConfigError{Field: "fleet", Reason: "needs at least one robot"})
	}
	if len(layout.Stations) == 0 {
		errs = append(errs, &ConfigError{Field: "city.stations", Reason: "must be positive (robots could never refill)"})
	}
	if cfg.Fire.InitialFires > len(layout.Buildings) {
		errs = append(errs, &ConfigError{Field: "fire.initial_fires", Reason: "must not exceed the number of buildings"})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	s := &Simulation{
		cfg:            cfg,
		buildings:      layout.Buildings,
		stations:       layout.Stations,
		fleet:          layout.Robots,
		buildingIndex:  make(map[city.BuildingID]*city.Building, len(layout.Buildings)),
		robotIndex:     make(map[robots.RobotID]*robots.Robot, len(layout.Robots)),
		stationIndex:   make(map[city.StationID]*city.WaterStation, len(layout.Stations)),
		fireIndex:      make(map[fire.FireID]*fire.Fire),
		fireByBuilding: make(map[city.BuildingID]*fire.Fire),
		rng:            rand.New(rand.NewSource(cfg.Seed + 500)),
		nextFireID:     1,
	}

	for _, b := range layout.Buildings {
		if _, dup := s.buildingIndex[b.ID]; dup {
			return nil, &ConfigError{Field: "buildings", Reason: fmt.Sprintf("duplicate id %d", b.ID)}
		}
		s.buildingIndex[b.ID] = b
	}
	for _, st := range layout.Stations {
		if _, dup := s.stationIndex[st.ID]; dup {
			return nil, &ConfigError{Field: "stations", Reason: fmt.Sprintf("duplicate id %d", st.ID)}
		}
		s.stationIndex[st.ID] = st
	}
	for _, r := range layout.Robots {
		if _, dup := s.robotIndex[r.ID]; dup {
			return nil, &ConfigError{Field: "robots", Reason: fmt.Sprintf("duplicate id %d", r.ID)}
		}
		s.robotIndex[r.ID] = r
	}

	s.grid = city.NewGrid(s.buildings, math.Max(cfg.Priority.Radius, cfg.Fire.SpreadRadius))
	s.startInitialFires(cfg.Fire.InitialFires)

	slog.Info("simulation created",
		"buildings", len(s.buildings),
		"stations", len(s.stations),
		"robots", len(s.fleet),
		"initial_fires", len(s.active),
		"seed", cfg.Seed,
	)
	return s, nil
}

// Config returns the configuration the simulation was built with.
func (s *Simulation) Config() Config {
	return s.cfg
}

// CurrentTick returns the number of completed ticks.
func (s *Simulation) CurrentTick() uint64 {
	return s.tick
}

// Elapsed returns simulated seconds since construction.
func (s *Simulation) Elapsed() float64 {
	return s.time
}

// ActiveFires returns the number of live fires.
func (s *Simulation) ActiveFires() int {
	return len(s.active)
}

// BuildingsDestroyed returns the cumulative count of lost buildings.
func (s *Simulation) BuildingsDestroyed() int {
	return s.totals.BuildingsDestroyed
}

// Robot looks up a robot by ID.
func (s *Simulation) Robot(id robots.RobotID) (*robots.Robot, bool) {
	r, ok := s.robotIndex[id]
	return r, ok
}

// Fire looks up any fire, live or not, by ID.
func (s *Simulation) Fire(id fire.FireID) (*fire.Fire, bool) {
	f, ok := s.fireIndex[id]
	return f, ok
}

// Building looks up a building by ID.
func (s *Simulation) Building(id city.BuildingID) (*city.Building, bool) {
	b, ok := s.buildingIndex[id]
	return b, ok
}

// liveFire resolves a target to a fire that can still be fought, or nil.
func (s *Simulation) liveFire(t robots.Target) *fire.Fire {
	if t.Kind != robots.TargetFire {
		return nil
	}
	f, ok := s.fireIndex[fire.FireID(t.ID)]
	if !ok || !f.Live() {
		return nil
	}
	if b, ok := s.buildingIndex[f.BuildingID]; !ok || b.Destroyed {
		return nil
	}
	return f
}

// station resolves a target to a water station, or nil.
func (s *Simulation) station(t robots.Target) *city.WaterStation {
	if t.Kind != robots.TargetStation {
		return nil
	}
	return s.stationIndex[city.StationID(t.ID)]
}

// Step advances the simulation by dt seconds. Phases run in a fixed order,
// each seeing the completed result of the previous one.
func (s *Simulation) Step(dt float64) {
	if !positive(dt) {
		return
	}
	now := s.time + dt

	s.updateFires(dt, now)
	s.assignTargets()
	s.updateRobots(dt, now)
	s.compactActive()

	s.tick++
	s.time = now
}
