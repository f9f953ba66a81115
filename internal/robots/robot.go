package robots

import "github.com/talgya/rescue-bots/internal/city"

// RefillFraction is the water level, relative to capacity, below which a
// robot must head for a station instead of fighting.
const RefillFraction = 0.20

// Robot is an autonomous firefighting unit.
type Robot struct {
	ID       RobotID    `json:"id"`
	Type     RobotType  `json:"type"`
	Position city.Point `json:"position"`
	Water    float64    `json:"water"`
	State    State      `json:"state"`
	Target   Target     `json:"target"`

	// Lifetime counters.
	FiresExtinguished int     `json:"fires_extinguished"`
	DistanceTraveled  float64 `json:"distance_traveled"`
	BusyTime          float64 `json:"busy_time"`
	IdleTime          float64 `json:"idle_time"`
}

// New creates a robot of the given type with a full tank.
func New(id RobotID, t RobotType, pos city.Point) *Robot {
	return &Robot{
		ID:       id,
		Type:     t,
		Position: pos,
		Water:    t.Spec().MaxWater,
		State:    StateIdle,
	}
}

// MaxWater returns the tank capacity for the robot's type.
func (r *Robot) MaxWater() float64 {
	return r.Type.Spec().MaxWater
}

// NeedsRefill reports whether the water level is below the refill threshold.
func (r *Robot) NeedsRefill() bool {
	return r.Water < RefillFraction*r.MaxWater()
}

// WaterFraction returns water as a fraction of capacity.
func (r *Robot) WaterFraction() float64 {
	max := r.MaxWater()
	if max <= 0 {
		return 0
	}
	return r.Water / max
}

// AddWater changes the water level by delta, clamped to [0, MaxWater].
func (r *Robot) AddWater(delta float64) {
	r.Water += delta
	if r.Water < 0 {
		r.Water = 0
	}
	if max := r.MaxWater(); r.Water > max {
		r.Water = max
	}
}

// Idle drops any target and returns the robot to the idle state.
func (r *Robot) Idle() {
	r.State = StateIdle
	r.Target = NoTarget
}

// Utilization returns busy time as a fraction of accounted time.
func (r *Robot) Utilization() float64 {
	total := r.BusyTime + r.IdleTime
	if total <= 0 {
		return 0
	}
	return r.BusyTime / total
}
