package engine

import (
	"github.com/talgya/rescue-bots/internal/city"
	"github.com/talgya/rescue-bots/internal/fire"
	"github.com/talgya/rescue-bots/internal/robots"
)

// Entity type tags used in the export.
const (
	TypeBuilding     = "building"
	TypeRobot        = "robot"
	TypeFire         = "fire"
	TypeWaterStation = "water_station"
)

// State is the full exported view of a simulation: flat, type-tagged entity
// arrays plus the stats snapshot. It shares no memory with the simulation.
type State struct {
	RunID     string         `json:"run_id,omitempty"`
	Tick      uint64         `json:"tick"`
	Time      float64        `json:"time"`
	Width     float64        `json:"width"`
	Height    float64        `json:"height"`
	Buildings []BuildingView `json:"buildings"`
	Robots    []RobotView    `json:"robots"`
	Fires     []FireView     `json:"fires"`
	Stations  []StationView  `json:"water_stations"`
	Stats     Stats          `json:"stats"`
}

// BuildingView is an exported building.
type BuildingView struct {
	Type      string          `json:"type"`
	ID        city.BuildingID `db:"id" json:"id"`
	X         float64         `db:"x" json:"x"`
	Y         float64         `db:"y" json:"y"`
	Weight    float64         `db:"weight" json:"weight"`
	Health    float64         `db:"health" json:"health"`
	OnFire    bool            `db:"on_fire" json:"on_fire"`
	Destroyed bool            `db:"destroyed" json:"destroyed"`
}

// RobotView is an exported robot.
type RobotView struct {
	Type              string         `json:"type"`
	ID                robots.RobotID `db:"id" json:"id"`
	RobotType         string         `db:"robot_type" json:"robot_type"`
	X                 float64        `db:"x" json:"x"`
	Y                 float64        `db:"y" json:"y"`
	Water             float64        `db:"water" json:"water"`
	MaxWater          float64        `db:"max_water" json:"max_water"`
	Speed             float64        `db:"speed" json:"speed"`
	ExtinguishRate    float64        `db:"extinguish_rate" json:"extinguish_rate"`
	State             string         `db:"state" json:"state"`
	TargetType        string         `db:"target_type" json:"target_type"`
	TargetID          uint64         `db:"target_id" json:"target_id,omitempty"`
	FiresExtinguished int            `db:"fires_extinguished" json:"fires_extinguished"`
	DistanceTraveled  float64        `db:"distance_traveled" json:"distance_traveled"`
}

// FireView is an exported fire.
type FireView struct {
	Type         string          `json:"type"`
	ID           fire.FireID     `db:"id" json:"id"`
	BuildingID   city.BuildingID `db:"building_id" json:"building_id"`
	X            float64         `db:"x" json:"x"`
	Y            float64         `db:"y" json:"y"`
	Intensity    float64         `db:"intensity" json:"intensity"`
	Priority     float64         `db:"priority" json:"priority"`
	Active       bool            `db:"active" json:"active"`
	Extinguished bool            `db:"extinguished" json:"extinguished"`
	BurnedOut    bool            `db:"burned_out" json:"burned_out"`
	StartTime    float64         `db:"start_time" json:"start_time"`
	EndTime      float64         `db:"end_time" json:"end_time,omitempty"`
}

// StationView is an exported water station.
type StationView struct {
	Type string         `json:"type"`
	ID   city.StationID `db:"id" json:"id"`
	X    float64        `db:"x" json:"x"`
	Y    float64        `db:"y" json:"y"`
}

// Export returns a detached copy of the full current state for an external
// consumer. It performs no I/O and does not mutate the simulation.
func (s *Simulation) Export() State {
	out := State{
		Tick:      s.tick,
		Time:      s.time,
		Width:     s.cfg.City.Width,
		Height:    s.cfg.City.Height,
		Buildings: make([]BuildingView, 0, len(s.buildings)),
		Robots:    make([]RobotView, 0, len(s.fleet)),
		Fires:     make([]FireView, 0, len(s.fires)),
		Stations:  make([]StationView, 0, len(s.stations)),
		Stats:     s.Stats(),
	}

	for _, b := range s.buildings {
		out.Buildings = append(out.Buildings, BuildingView{
			Type:      TypeBuilding,
			ID:        b.ID,
			X:         b.Position.X,
			Y:         b.Position.Y,
			Weight:    b.Weight,
			Health:    b.Health,
			OnFire:    b.OnFire,
			Destroyed: b.Destroyed,
		})
	}

	for _, r := range s.fleet {
		spec := r.Type.Spec()
		out.Robots = append(out.Robots, RobotView{
			Type:              TypeRobot,
			ID:                r.ID,
			RobotType:         r.Type.String(),
			X:                 r.Position.X,
			Y:                 r.Position.Y,
			Water:             r.Water,
			MaxWater:          spec.MaxWater,
			Speed:             spec.Speed,
			ExtinguishRate:    spec.ExtinguishRate,
			State:             r.State.String(),
			TargetType:        r.Target.Kind.String(),
			TargetID:          r.Target.ID,
			FiresExtinguished: r.FiresExtinguished,
			DistanceTraveled:  r.DistanceTraveled,
		})
	}

	for _, f := range s.fires {
		out.Fires = append(out.Fires, FireView{
			Type:         TypeFire,
			ID:           f.ID,
			BuildingID:   f.BuildingID,
			X:            f.Position.X,
			Y:            f.Position.Y,
			Intensity:    f.Intensity,
			Priority:     f.Priority,
			Active:       f.Active,
			Extinguished: f.Extinguished,
			BurnedOut:    f.BurnedOut,
			StartTime:    f.StartTime,
			EndTime:      f.EndTime,
		})
	}

	for _, st := range s.stations {
		out.Stations = append(out.Stations, StationView{
			Type: TypeWaterStation,
			ID:   st.ID,
			X:    st.Position.X,
			Y:    st.Position.Y,
		})
	}
	return out
}
