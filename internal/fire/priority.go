package fire

import "github.com/talgya/rescue-bots/internal/city"

// Weights tunes the priority formula
//
//	priority = Intensity*intensity + Structure*weight + Density*exposure
//
// where exposure is the summed proximity (1 - d/Radius) of intact buildings
// within Radius of the burning one. All weights must be positive so the score
// strictly increases in each term.
type Weights struct {
	Intensity float64 `mapstructure:"intensity_weight" json:"intensity_weight"`
	Structure float64 `mapstructure:"structure_weight" json:"structure_weight"`
	Density   float64 `mapstructure:"density_weight" json:"density_weight"`
	Radius    float64 `mapstructure:"radius" json:"radius"`
}

// DefaultWeights returns the standard priority tuning.
func DefaultWeights() Weights {
	return Weights{
		Intensity: 1.0,
		Structure: 5.0,
		Density:   4.0,
		Radius:    15.0,
	}
}

// Score combines intensity, structural weight and exposure into a ranking key.
func (w Weights) Score(intensity, weight, exposure float64) float64 {
	return w.Intensity*intensity + w.Structure*weight + w.Density*exposure
}

// Exposure sums the proximity of intact neighbours of b within radius.
// Closer neighbours contribute more; b itself is excluded.
func Exposure(grid *city.Grid, b *city.Building, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	total := 0.0
	grid.Within(b.Position, radius, func(n *city.Building, dist float64) {
		if n.ID == b.ID || !n.Intact() {
			return
		}
		total += 1 - dist/radius
	})
	return total
}

// Priority computes the ranking key for f burning in b.
func Priority(w Weights, grid *city.Grid, f *Fire, b *city.Building) float64 {
	return w.Score(f.Intensity, b.Weight, Exposure(grid, b, w.Radius))
}
