// Package fire provides the fire entity and priority scoring.
package fire

import "github.com/talgya/rescue-bots/internal/city"

// FireID is a unique identifier for a fire.
type FireID uint64

// Fire burns in exactly one building. It refers to the building by ID only;
// the building roster is owned by the simulation.
type Fire struct {
	ID         FireID          `json:"id"`
	BuildingID city.BuildingID `json:"building_id"`
	Position   city.Point      `json:"position"` // Position of the building, fixed at ignition

	Intensity  float64 `json:"intensity"`
	GrowthRate float64 `json:"growth_rate"` // Intensity gained per second while unfought
	Priority   float64 `json:"priority"`    // Ranking key, recomputed every tick

	Active       bool `json:"active"`
	Extinguished bool `json:"extinguished"`
	BurnedOut    bool `json:"burned_out"` // Building was lost; counted as uncontained

	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time,omitempty"`
}

// Live reports whether the fire can still be fought.
func (f *Fire) Live() bool {
	return f != nil && f.Active && !f.Extinguished && !f.BurnedOut
}

// Suppress removes up to amount of intensity and returns how much was
// actually removed. The fire is marked extinguished when it reaches zero.
func (f *Fire) Suppress(amount, now float64) float64 {
	if !f.Live() || amount <= 0 {
		return 0
	}
	if amount > f.Intensity {
		amount = f.Intensity
	}
	f.Intensity -= amount
	if f.Intensity <= 0 {
		f.Intensity = 0
		f.Active = false
		f.Extinguished = true
		f.EndTime = now
	}
	return amount
}

// BurnOut ends the fire because its building was destroyed.
func (f *Fire) BurnOut(now float64) {
	f.Active = false
	f.BurnedOut = true
	f.EndTime = now
}
