// Target assignment: the per-tick greedy refill / fight / idle decision.
package engine

import (
	"math"

	"github.com/talgya/rescue-bots/internal/city"
	"github.com/talgya/rescue-bots/internal/fire"
	"github.com/talgya/rescue-bots/internal/robots"
)

// Decision is the outcome of assignment for one robot.
type Decision struct {
	State  robots.State
	Target robots.Target
}

// assignTargets decides for every robot that is idle or whose target has
// gone stale. Decisions read only the start-of-phase state and are applied
// afterwards, so no robot's choice depends on another's within the tick.
func (s *Simulation) assignTargets() {
	plan := s.planAssignments()
	for _, r := range s.fleet {
		if d, ok := plan[r.ID]; ok {
			r.State = d.State
			r.Target = d.Target
		}
	}
}

// PlanAssignments returns the decisions the next assignment phase would make
// on the current state, without applying them.
func (s *Simulation) PlanAssignments() map[robots.RobotID]Decision {
	return s.planAssignments()
}

func (s *Simulation) planAssignments() map[robots.RobotID]Decision {
	plan := make(map[robots.RobotID]Decision)
	for _, r := range s.fleet {
		if r.State == robots.StateIdle || s.targetStale(r) {
			plan[r.ID] = s.decide(r)
		}
	}
	return plan
}

// targetStale reports whether a busy robot's target no longer resolves to a
// live entity.
func (s *Simulation) targetStale(r *robots.Robot) bool {
	switch r.Target.Kind {
	case robots.TargetFire:
		return s.liveFire(r.Target) == nil
	case robots.TargetStation:
		return s.station(r.Target) == nil
	default:
		return r.State != robots.StateIdle
	}
}

// decide picks a target for an idle robot. A robot low on water always heads
// for the nearest station, whatever is burning.
func (s *Simulation) decide(r *robots.Robot) Decision {
	arrival := s.cfg.Ops.ArrivalRadius

	if r.NeedsRefill() {
		st, dist := s.nearestStation(r.Position)
		if st == nil {
			return Decision{State: robots.StateIdle}
		}
		state := robots.StateEnRouteToRefill
		if dist <= arrival {
			state = robots.StateRefilling
		}
		return Decision{State: state, Target: robots.StationTarget(st.ID)}
	}

	f, dist := s.bestFire(r.Position)
	if f == nil {
		return Decision{State: robots.StateIdle}
	}
	state := robots.StateEnRouteToFire
	if dist <= arrival {
		state = robots.StateFighting
	}
	return Decision{State: state, Target: robots.FireTarget(uint64(f.ID))}
}

// nearestStation returns the closest station; ties go to the lowest ID.
func (s *Simulation) nearestStation(p city.Point) (*city.WaterStation, float64) {
	var best *city.WaterStation
	bestDist := math.Inf(1)
	for _, st := range s.stations {
		d := city.Distance(p, st.Position)
		if d < bestDist || (d == bestDist && best != nil && st.ID < best.ID) {
			best = st
			bestDist = d
		}
	}
	return best, bestDist
}

// bestFire returns the live fire maximizing
// priority*PriorityWeight - distance*DistanceWeight. Equal scores go to the
// nearer fire, then to the lower fire ID.
func (s *Simulation) bestFire(p city.Point) (*fire.Fire, float64) {
	var best *fire.Fire
	bestScore := math.Inf(-1)
	bestDist := math.Inf(1)

	for _, f := range s.active {
		if !f.Live() {
			continue
		}
		if b := s.buildingIndex[f.BuildingID]; b == nil || b.Destroyed {
			continue
		}
		d := city.Distance(p, f.Position)
		score := f.Priority*s.cfg.Assign.PriorityWeight - d*s.cfg.Assign.DistanceWeight
		if best == nil || betterFire(score, d, f.ID, bestScore, bestDist, best.ID) {
			best = f
			bestScore = score
			bestDist = d
		}
	}
	return best, bestDist
}

func betterFire(score, dist float64, id fire.FireID, bestScore, bestDist float64, bestID fire.FireID) bool {
	if score != bestScore {
		return score > bestScore
	}
	if dist != bestDist {
		return dist < bestDist
	}
	return id < bestID
}
