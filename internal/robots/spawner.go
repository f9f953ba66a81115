package robots

import (
	"math/rand"

	"github.com/talgya/rescue-bots/internal/city"
)

// FleetConfig sets the initial number of robots per type.
type FleetConfig struct {
	Scouts    int `mapstructure:"scouts" json:"scouts"`
	Standards int `mapstructure:"standards" json:"standards"`
	Heavies   int `mapstructure:"heavies" json:"heavies"`
}

// DefaultFleetConfig is the 20/50/30 split of a 50-robot fleet.
func DefaultFleetConfig() FleetConfig {
	return FleetConfig{Scouts: 10, Standards: 25, Heavies: 15}
}

// Total returns the fleet size.
func (f FleetConfig) Total() int {
	return f.Scouts + f.Standards + f.Heavies
}

// Count returns how many robots of type t the fleet has.
func (f FleetConfig) Count(t RobotType) int {
	switch t {
	case Scout:
		return f.Scouts
	case Standard:
		return f.Standards
	case Heavy:
		return f.Heavies
	default:
		return 0
	}
}

// Spawner creates robots at random positions in the city.
type Spawner struct {
	rng    *rand.Rand
	nextID RobotID
}

// NewSpawner creates a robot spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// SpawnFleet creates the configured fleet, grouped by type in table order,
// scattered uniformly over a width × height city.
func (s *Spawner) SpawnFleet(cfg FleetConfig, width, height float64) []*Robot {
	fleet := make([]*Robot, 0, cfg.Total())
	for _, t := range Types {
		for i := 0; i < cfg.Count(t); i++ {
			pos := city.Point{X: s.rng.Float64() * width, Y: s.rng.Float64() * height}
			fleet = append(fleet, s.Spawn(t, pos))
		}
	}
	return fleet
}

// Spawn creates one robot with the next free ID.
func (s *Spawner) Spawn(t RobotType, pos city.Point) *Robot {
	id := s.nextID
	s.nextID++
	return New(id, t, pos)
}
