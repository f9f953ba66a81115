package engine

import (
	"github.com/talgya/rescue-bots/internal/city"
	"github.com/talgya/rescue-bots/internal/robots"
)

// Stats is a read-only snapshot of aggregate metrics.
type Stats struct {
	Tick        uint64  `json:"tick"`
	ElapsedTime float64 `json:"elapsed_time"`

	FiresStarted       int `json:"fires_started"`
	FiresExtinguished  int `json:"fires_extinguished"`
	BuildingsDestroyed int `json:"buildings_destroyed"` // Also the count of uncontained fires
	ActiveFires        int `json:"active_fires"`

	RobotsIdle            int `json:"robots_idle"`
	RobotsEnRouteToFire   int `json:"robots_en_route_to_fire"`
	RobotsFighting        int `json:"robots_fighting"`
	RobotsEnRouteToRefill int `json:"robots_en_route_to_refill"`
	RobotsRefilling       int `json:"robots_refilling"`

	AvgWaterPct        float64 `json:"avg_water_pct"`
	TotalFireIntensity float64 `json:"total_fire_intensity"`
	AvgResponseTime    float64 `json:"avg_response_time"`

	Fleet     map[string]int   `json:"fleet"` // Robot count per type
	Robots    []RobotStats     `json:"robots"`
	Buildings []BuildingStatus `json:"buildings"`
}

// RobotStats is the per-robot part of a Stats snapshot.
type RobotStats struct {
	ID                robots.RobotID `json:"id"`
	Type              string         `json:"robot_type"`
	State             string         `json:"state"`
	Water             float64        `json:"water"`
	MaxWater          float64        `json:"max_water"`
	FiresExtinguished int            `json:"fires_extinguished"`
	DistanceTraveled  float64        `json:"distance_traveled"`
	BusyTime          float64        `json:"busy_time"`
	IdleTime          float64        `json:"idle_time"`
	Utilization       float64        `json:"utilization"`
}

// BuildingStatus is the per-building part of a Stats snapshot.
type BuildingStatus struct {
	ID        city.BuildingID `json:"id"`
	OnFire    bool            `json:"on_fire"`
	Destroyed bool            `json:"destroyed"`
	Health    float64         `json:"health"`
}

// Stats aggregates the current state. It does not mutate the simulation.
func (s *Simulation) Stats() Stats {
	st := Stats{
		Tick:               s.tick,
		ElapsedTime:        s.time,
		FiresStarted:       s.totals.FiresStarted,
		FiresExtinguished:  s.totals.FiresExtinguished,
		BuildingsDestroyed: s.totals.BuildingsDestroyed,
		Fleet:              make(map[string]int, len(robots.Types)),
		Robots:             make([]RobotStats, 0, len(s.fleet)),
		Buildings:          make([]BuildingStatus, 0, len(s.buildings)),
	}

	for _, f := range s.active {
		if f.Live() {
			st.ActiveFires++
			st.TotalFireIntensity += f.Intensity
		}
	}
	if st.FiresExtinguished > 0 {
		st.AvgResponseTime = s.totals.ResponseTimeSum / float64(st.FiresExtinguished)
	}

	waterPct := 0.0
	for _, t := range robots.Types {
		st.Fleet[t.String()] = 0
	}
	for _, r := range s.fleet {
		switch r.State {
		case robots.StateIdle:
			st.RobotsIdle++
		case robots.StateEnRouteToFire:
			st.RobotsEnRouteToFire++
		case robots.StateFighting:
			st.RobotsFighting++
		case robots.StateEnRouteToRefill:
			st.RobotsEnRouteToRefill++
		case robots.StateRefilling:
			st.RobotsRefilling++
		}
		st.Fleet[r.Type.String()]++
		waterPct += r.WaterFraction() * 100

		st.Robots = append(st.Robots, RobotStats{
			ID:                r.ID,
			Type:              r.Type.String(),
			State:             r.State.String(),
			Water:             r.Water,
			MaxWater:          r.MaxWater(),
			FiresExtinguished: r.FiresExtinguished,
			DistanceTraveled:  r.DistanceTraveled,
			BusyTime:          r.BusyTime,
			IdleTime:          r.IdleTime,
			Utilization:       r.Utilization(),
		})
	}
	if len(s.fleet) > 0 {
		st.AvgWaterPct = waterPct / float64(len(s.fleet))
	}

	for _, b := range s.buildings {
		st.Buildings = append(st.Buildings, BuildingStatus{
			ID:        b.ID,
			OnFire:    b.OnFire,
			Destroyed: b.Destroyed,
			Health:    b.Health,
		})
	}
	return st
}
