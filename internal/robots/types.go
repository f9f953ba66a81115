// Package robots provides the firefighting robot model: the fixed capability
// table per robot type, robot state, weak target references, and fleet spawning.
package robots

import (
	"fmt"

	"github.com/talgya/rescue-bots/internal/city"
)

// RobotID is a unique identifier for a robot.
type RobotID uint64

// RobotType selects one row of the capability table.
type RobotType uint8

const (
	Scout    RobotType = iota // Fast, small tank, weak nozzle
	Standard                  // Balanced
	Heavy                     // Slow, large tank, strong nozzle
)

// Spec is the fixed capability set of a robot type.
type Spec struct {
	Speed          float64 // Metres per second
	MaxWater       float64 // Tank capacity
	ExtinguishRate float64 // Intensity removed per second while fighting
}

var specs = [...]Spec{
	Scout:    {Speed: 16, MaxWater: 50, ExtinguishRate: 3},
	Standard: {Speed: 10, MaxWater: 120, ExtinguishRate: 6},
	Heavy:    {Speed: 6.5, MaxWater: 250, ExtinguishRate: 10},
}

// Types lists every robot type in table order.
var Types = []RobotType{Scout, Standard, Heavy}

// Spec returns the capability set for the type.
func (t RobotType) Spec() Spec {
	if int(t) >= len(specs) {
		return specs[Standard]
	}
	return specs[t]
}

// String returns the export name of the type.
func (t RobotType) String() string {
	switch t {
	case Scout:
		return "scout"
	case Standard:
		return "standard"
	case Heavy:
		return "heavy"
	default:
		return fmt.Sprintf("robot_type(%d)", uint8(t))
	}
}

// State is the robot's current activity.
type State uint8

const (
	StateIdle State = iota
	StateEnRouteToFire
	StateFighting
	StateEnRouteToRefill
	StateRefilling
)

// String returns the export name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEnRouteToFire:
		return "en_route_to_fire"
	case StateFighting:
		return "fighting"
	case StateEnRouteToRefill:
		return "en_route_to_refill"
	case StateRefilling:
		return "refilling"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Busy reports whether the state counts toward utilization.
func (s State) Busy() bool {
	return s != StateIdle
}

// TargetKind tags what a Target refers to.
type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetFire
	TargetStation
)

// String returns the export name of the kind.
func (k TargetKind) String() string {
	switch k {
	case TargetFire:
		return "fire"
	case TargetStation:
		return "water_station"
	default:
		return "none"
	}
}

// Target is a weak reference: an entity kind plus identity. It is resolved
// against the live registry on every use and never dereferenced directly.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   uint64     `json:"id"`
}

// NoTarget is the idle target.
var NoTarget = Target{}

// FireTarget refers to a fire by identity.
func FireTarget(id uint64) Target {
	return Target{Kind: TargetFire, ID: id}
}

// StationTarget refers to a water station by identity.
func StationTarget(id city.StationID) Target {
	return Target{Kind: TargetStation, ID: uint64(id)}
}

// IsNone reports whether the target is empty.
func (t Target) IsNone() bool {
	return t.Kind == TargetNone
}
