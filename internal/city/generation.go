// City layout generation using a simplex density field.
// Dense districts get more buildings and heavier structures; stations are
// placed on a jittered grid or scattered uniformly.
package city

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Station placement strategies.
const (
	StationLayoutGrid   = "grid"
	StationLayoutRandom = "random"
)

// GenConfig holds city generation parameters.
type GenConfig struct {
	Width         float64 `mapstructure:"width" json:"width"`                   // City extent along X (metres)
	Height        float64 `mapstructure:"height" json:"height"`                 // City extent along Y (metres)
	Buildings     int     `mapstructure:"buildings" json:"buildings"`           // Number of buildings
	Stations      int     `mapstructure:"stations" json:"stations"`             // Number of water stations
	StationLayout string  `mapstructure:"station_layout" json:"station_layout"` // "grid" or "random"
	StationJitter float64 `mapstructure:"station_jitter" json:"station_jitter"` // Max offset from grid cell centre
	NoiseScale    float64 `mapstructure:"noise_scale" json:"noise_scale"`       // Density field frequency (per metre)
}

// DefaultGenConfig returns the standard 200m × 200m city.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:         200,
		Height:        200,
		Buildings:     1000,
		Stations:      5,
		StationLayout: StationLayoutGrid,
		StationJitter: 10,
		NoiseScale:    0.02,
	}
}

// Layout is the initial static city: buildings and water stations.
type Layout struct {
	Buildings []*Building
	Stations  []*WaterStation
}

// maxPlacementAttempts bounds rejection sampling per building.
const maxPlacementAttempts = 64

// Generate creates buildings and stations deterministically from seed.
func Generate(cfg GenConfig, seed int64) *Layout {
	rng := rand.New(rand.NewSource(seed + 100))
	density := opensimplex.NewNormalized(seed)

	layout := &Layout{
		Buildings: make([]*Building, 0, cfg.Buildings),
		Stations:  make([]*WaterStation, 0, cfg.Stations),
	}

	for i := 0; i < cfg.Buildings; i++ {
		var p Point
		var d float64
		// Rejection sampling: accept a candidate with probability rising with density.
		for attempt := 0; attempt < maxPlacementAttempts; attempt++ {
			p = Point{X: rng.Float64() * cfg.Width, Y: rng.Float64() * cfg.Height}
			d = octaveNoise(density, p.X, p.Y, 3, cfg.NoiseScale, 0.5)
			if rng.Float64() < 0.2+0.8*d {
				break
			}
		}
		layout.Buildings = append(layout.Buildings, &Building{
			ID:       BuildingID(i + 1),
			Position: p,
			Weight:   1.0 + 2.0*d,
			Health:   1.0,
		})
	}

	switch cfg.StationLayout {
	case StationLayoutRandom:
		for i := 0; i < cfg.Stations; i++ {
			layout.Stations = append(layout.Stations, &WaterStation{
				ID:       StationID(i + 1),
				Position: Point{X: rng.Float64() * cfg.Width, Y: rng.Float64() * cfg.Height},
			})
		}
	default:
		layout.Stations = gridStations(cfg, rng)
	}

	return layout
}

// gridStations spreads stations across a ceil(sqrt(n)) square grid of cells,
// one per cell in row-major order, each offset by up to StationJitter.
func gridStations(cfg GenConfig, rng *rand.Rand) []*WaterStation {
	if cfg.Stations <= 0 {
		return nil
	}
	gridSize := int(math.Ceil(math.Sqrt(float64(cfg.Stations))))
	cellW := cfg.Width / float64(gridSize)
	cellH := cfg.Height / float64(gridSize)

	stations := make([]*WaterStation, 0, cfg.Stations)
	for i := 0; i < cfg.Stations; i++ {
		row := i / gridSize
		col := i % gridSize
		p := Point{
			X: (float64(col)+0.5)*cellW + (rng.Float64()*2-1)*cfg.StationJitter,
			Y: (float64(row)+0.5)*cellH + (rng.Float64()*2-1)*cfg.StationJitter,
		}
		stations = append(stations, &WaterStation{
			ID:       StationID(i + 1),
			Position: Clamp(p, cfg.Width, cfg.Height),
		})
	}
	return stations
}

// octaveNoise sums several noise octaves and normalizes back to [0, 1).
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
