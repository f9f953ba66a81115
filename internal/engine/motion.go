// Robot motion and extinguishing update.
package engine

import (
	"log/slog"

	"github.com/talgya/rescue-bots/internal/city"
	"github.com/talgya/rescue-bots/internal/fire"
	"github.com/talgya/rescue-bots/internal/robots"
)

// updateRobots moves, fights and refills for every robot.
func (s *Simulation) updateRobots(dt, now float64) {
	for _, r := range s.fleet {
		if r.State.Busy() {
			r.BusyTime += dt
		} else {
			r.IdleTime += dt
		}

		switch r.State {
		case robots.StateEnRouteToFire, robots.StateFighting:
			f := s.liveFire(r.Target)
			if f == nil {
				// Target vanished (put out by others or building lost): never chase it.
				r.Idle()
				continue
			}
			if r.State == robots.StateEnRouteToFire {
				s.travel(r, f.Position, dt, robots.StateFighting)
				continue
			}
			s.fight(r, f, dt, now)

		case robots.StateEnRouteToRefill, robots.StateRefilling:
			st := s.station(r.Target)
			if st == nil {
				r.Idle()
				continue
			}
			if r.State == robots.StateEnRouteToRefill {
				s.travel(r, st.Position, dt, robots.StateRefilling)
				continue
			}
			s.refill(r, dt)
		}
	}

	// Fires put out later in this pass may still be targeted by robots
	// handled earlier; release them now so no robot ends the tick on one.
	for _, r := range s.fleet {
		if r.Target.Kind == robots.TargetFire && s.liveFire(r.Target) == nil {
			r.Idle()
		}
	}
}

// travel moves r toward dest at its type's speed and switches to arrived on arrival.
func (s *Simulation) travel(r *robots.Robot, dest city.Point, dt float64, arrived robots.State) {
	pos, moved := city.MoveToward(r.Position, dest, r.Type.Spec().Speed*dt)
	r.Position = pos
	r.DistanceTraveled += moved
	if city.Distance(r.Position, dest) <= s.cfg.Ops.ArrivalRadius {
		r.State = arrived
	}
}

// fight sprays water on f. Several robots on one fire add up because each
// one suppresses independently within the same phase.
func (s *Simulation) fight(r *robots.Robot, f *fire.Fire, dt, now float64) {
	perUnit := s.cfg.Ops.WaterPerSuppression
	amount := r.Type.Spec().ExtinguishRate * dt
	waterLimited := false
	if capacity := r.Water / perUnit; amount >= capacity {
		amount = capacity
		waterLimited = true
	}

	removed := f.Suppress(amount, now)
	if waterLimited && removed >= amount {
		r.Water = 0
	} else {
		r.AddWater(-removed * perUnit)
	}

	if f.Extinguished {
		s.extinguished(f, r, now)
		r.Idle()
		return
	}
	if r.Water <= 0 {
		r.Idle()
	}
}

// extinguished records a fire put out by r.
func (s *Simulation) extinguished(f *fire.Fire, r *robots.Robot, now float64) {
	if b := s.buildingIndex[f.BuildingID]; b != nil {
		b.OnFire = false
	}
	delete(s.fireByBuilding, f.BuildingID)
	r.FiresExtinguished++
	s.totals.FiresExtinguished++
	s.totals.ResponseTimeSum += now - f.StartTime
	slog.Debug("fire extinguished", "fire", f.ID, "building", f.BuildingID, "robot", r.ID, "time", now)
}

// refill tops up r at a station and idles it once full.
func (s *Simulation) refill(r *robots.Robot, dt float64) {
	r.AddWater(s.cfg.Ops.RefillRate * dt)
	if r.Water >= r.MaxWater() {
		r.Water = r.MaxWater()
		r.Idle()
	}
}
