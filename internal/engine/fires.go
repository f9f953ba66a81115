// Fire lifecycle: growth, destruction, spread, ignition and priority refresh.
package engine

import (
	"log/slog"
	"math"

	"github.com/talgya/rescue-bots/internal/city"
	"github.com/talgya/rescue-bots/internal/fire"
	"github.com/talgya/rescue-bots/internal/robots"
)

// updateFires runs the fire phase of a tick.
func (s *Simulation) updateFires(dt, now float64) {
	fought := s.fightingCounts()
	threshold := s.cfg.Fire.DestructionThreshold

	var spreadTo []*city.Building
	for _, f := range s.active {
		if !f.Live() {
			continue
		}
		b := s.buildingIndex[f.BuildingID]
		if b == nil || b.Destroyed {
			// A live fire never outlives its building; close it out.
			f.BurnOut(now)
			continue
		}

		if fought[f.ID] == 0 {
			f.Intensity += f.GrowthRate * dt
		}
		s.updateHealth(b, f.Intensity)

		if f.Intensity > threshold {
			s.destroy(f, b, now)
			continue
		}

		if fought[f.ID] == 0 {
			if target := s.trySpread(f, b, dt); target != nil && !containsBuilding(spreadTo, target) {
				spreadTo = append(spreadTo, target)
			}
		}
	}

	s.compactActive()

	// New fires from this tick neither grow nor spread until the next one.
	for _, b := range spreadTo {
		if f, ok := s.ignite(b, s.randomIntensity(), now); ok {
			slog.Debug("fire spread", "fire", f.ID, "building", b.ID, "intensity", f.Intensity)
		}
	}
	s.randomIgnition(dt, now)

	s.refreshPriorities()
}

// fightingCounts returns, per fire, how many robots are in the fighting state on it.
func (s *Simulation) fightingCounts() map[fire.FireID]int {
	counts := make(map[fire.FireID]int)
	for _, r := range s.fleet {
		if r.State == robots.StateFighting && r.Target.Kind == robots.TargetFire {
			counts[fire.FireID(r.Target.ID)]++
		}
	}
	return counts
}

func (s *Simulation) updateHealth(b *city.Building, intensity float64) {
	h := 1 - intensity/s.cfg.Fire.DestructionThreshold
	if h < 0 {
		h = 0
	}
	if h < b.Health {
		b.Health = h
	}
}

// destroy loses the building and burns the fire out. The fire counts as
// uncontained, never as extinguished.
func (s *Simulation) destroy(f *fire.Fire, b *city.Building, now float64) {
	b.Destroyed = true
	b.OnFire = false
	b.Health = 0
	f.BurnOut(now)
	delete(s.fireByBuilding, b.ID)
	s.totals.BuildingsDestroyed++
	slog.Debug("building destroyed", "building", b.ID, "fire", f.ID, "time", now)
}

// trySpread rolls for spread from f and returns the building it reaches, if any.
// The closest eligible building within the spread radius is the only
// candidate; closer buildings catch more easily.
func (s *Simulation) trySpread(f *fire.Fire, b *city.Building, dt float64) *city.Building {
	radius := s.cfg.Fire.SpreadRadius
	if s.cfg.Fire.SpreadRate <= 0 || radius <= 0 {
		return nil
	}
	chance := s.cfg.Fire.SpreadRate * dt * f.Intensity / s.cfg.Fire.DestructionThreshold
	if s.rng.Float64() >= chance {
		return nil
	}

	var nearest *city.Building
	nearestDist := math.Inf(1)
	s.grid.Within(b.Position, radius, func(n *city.Building, dist float64) {
		if n.ID == b.ID || !n.Ignitable() {
			return
		}
		if dist < nearestDist || (dist == nearestDist && n.ID < nearest.ID) {
			nearest = n
			nearestDist = dist
		}
	})
	if nearest == nil {
		return nil
	}
	if s.rng.Float64() >= 1-nearestDist/radius {
		return nil
	}
	return nearest
}

// randomIgnition starts at most one fire per tick on a random eligible
// building, chosen with probability proportional to its structural weight.
func (s *Simulation) randomIgnition(dt, now float64) {
	if s.cfg.Fire.IgnitionRate <= 0 || s.rng.Float64() >= s.cfg.Fire.IgnitionRate*dt {
		return
	}

	total := 0.0
	for _, b := range s.buildings {
		if b.Ignitable() {
			total += b.Weight
		}
	}
	if total <= 0 {
		return
	}

	pick := s.rng.Float64() * total
	var chosen *city.Building
	for _, b := range s.buildings {
		if !b.Ignitable() {
			continue
		}
		chosen = b
		pick -= b.Weight
		if pick < 0 {
			break
		}
	}
	if f, ok := s.ignite(chosen, s.randomIntensity(), now); ok {
		slog.Debug("fire ignited", "fire", f.ID, "building", chosen.ID, "intensity", f.Intensity)
	}
}

// startInitialFires ignites n distinct random buildings at time zero.
func (s *Simulation) startInitialFires(n int) {
	if n <= 0 {
		return
	}
	for _, i := range s.rng.Perm(len(s.buildings))[:n] {
		s.ignite(s.buildings[i], s.randomIntensity(), s.time)
	}
	s.refreshPriorities()
}

// StartFire ignites a specific building with the given intensity. It
// reports false when the building is unknown, burning or destroyed, or when
// the intensity is not positive.
func (s *Simulation) StartFire(id city.BuildingID, intensity float64) (fire.FireID, bool) {
	b, ok := s.buildingIndex[id]
	if !ok || !positive(intensity) {
		return 0, false
	}
	f, ok := s.ignite(b, intensity, s.time)
	if !ok {
		return 0, false
	}
	f.Priority = fire.Priority(s.cfg.Priority, s.grid, f, b)
	return f.ID, true
}

// ignite creates a fire in b. At most one fire burns per building.
func (s *Simulation) ignite(b *city.Building, intensity, now float64) (*fire.Fire, bool) {
	if b == nil || !b.Ignitable() {
		return nil, false
	}
	if _, burning := s.fireByBuilding[b.ID]; burning {
		return nil, false
	}

	f := &fire.Fire{
		ID:         s.nextFireID,
		BuildingID: b.ID,
		Position:   b.Position,
		Intensity:  intensity,
		GrowthRate: s.cfg.Fire.GrowthRate,
		Active:     true,
		StartTime:  now,
	}
	s.nextFireID++

	b.OnFire = true
	s.updateHealth(b, intensity)

	s.fires = append(s.fires, f)
	s.active = append(s.active, f)
	s.fireIndex[f.ID] = f
	s.fireByBuilding[b.ID] = f
	s.totals.FiresStarted++
	return f, true
}

func (s *Simulation) randomIntensity() float64 {
	lo, hi := s.cfg.Fire.InitialIntensityMin, s.cfg.Fire.InitialIntensityMax
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Float64()*(hi-lo)
}

// refreshPriorities recomputes the ranking key of every live fire.
func (s *Simulation) refreshPriorities() {
	for _, f := range s.active {
		if b := s.buildingIndex[f.BuildingID]; b != nil {
			f.Priority = fire.Priority(s.cfg.Priority, s.grid, f, b)
		}
	}
}

// compactActive drops fires that are no longer live, preserving ID order.
func (s *Simulation) compactActive() {
	live := s.active[:0]
	for _, f := range s.active {
		if f.Live() {
			live = append(live, f)
		}
	}
	for i := len(live); i < len(s.active); i++ {
		s.active[i] = nil
	}
	s.active = live
}

func containsBuilding(list []*city.Building, b *city.Building) bool {
	for _, x := range list {
		if x.ID == b.ID {
			return true
		}
	}
	return false
}
