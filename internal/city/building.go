package city

// BuildingID is a unique identifier for a building.
type BuildingID uint64

// StationID is a unique identifier for a water station.
type StationID uint64

// Building is a structure that can catch fire. Buildings are never removed
// from the roster; a lost building is only flagged Destroyed.
type Building struct {
	ID       BuildingID `json:"id"`
	Position Point      `json:"position"`

	// Weight is the structural size of the building (1.0 = small house,
	// ~3.0 = dense-district block). Heavier buildings rank higher as fires.
	Weight float64 `json:"weight"`

	// Health: 1.0 (intact) to 0.0 (lost). Derived from fire intensity while burning.
	Health float64 `json:"health"`

	OnFire    bool `json:"on_fire"`
	Destroyed bool `json:"destroyed"`
}

// Intact reports whether the building is standing and not burning.
func (b *Building) Intact() bool {
	return !b.Destroyed && !b.OnFire
}

// Ignitable reports whether a new fire may start in the building.
func (b *Building) Ignitable() bool {
	return b.Intact()
}

// WaterStation is a fixed refill point with unlimited capacity.
type WaterStation struct {
	ID       StationID `json:"id"`
	Position Point     `json:"position"`
}
