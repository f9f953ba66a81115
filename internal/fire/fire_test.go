package fire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/rescue-bots/internal/city"
)

func TestSuppressExtinguishesAtZero(t *testing.T) {
	f := &Fire{ID: 1, Intensity: 5, Active: true}

	removed := f.Suppress(3, 1)
	assert.InDelta(t, 3.0, removed, 1e-9)
	assert.True(t, f.Live())

	removed = f.Suppress(6, 2)
	assert.InDelta(t, 2.0, removed, 1e-9)
	assert.Zero(t, f.Intensity)
	assert.False(t, f.Active)
	assert.True(t, f.Extinguished)
	assert.Equal(t, 2.0, f.EndTime)

	assert.Zero(t, f.Suppress(1, 3), "dead fires absorb nothing")
}

func TestBurnOut(t *testing.T) {
	f := &Fire{ID: 1, Intensity: 120, Active: true}
	f.BurnOut(9)
	assert.False(t, f.Live())
	assert.True(t, f.BurnedOut)
	assert.False(t, f.Extinguished)
}

func TestScoreStrictlyIncreasing(t *testing.T) {
	w := DefaultWeights()
	base := w.Score(10, 1, 2)
	assert.Greater(t, w.Score(11, 1, 2), base)
	assert.Greater(t, w.Score(10, 2, 2), base)
	assert.Greater(t, w.Score(10, 1, 3), base)
}

func TestExposureCountsIntactNeighboursOnly(t *testing.T) {
	center := &city.Building{ID: 1, Position: city.Point{X: 50, Y: 50}, Weight: 1}
	near := &city.Building{ID: 2, Position: city.Point{X: 55, Y: 50}, Weight: 1}
	burning := &city.Building{ID: 3, Position: city.Point{X: 50, Y: 55}, Weight: 1, OnFire: true}
	destroyed := &city.Building{ID: 4, Position: city.Point{X: 45, Y: 50}, Weight: 1, Destroyed: true}
	far := &city.Building{ID: 5, Position: city.Point{X: 90, Y: 90}, Weight: 1}

	grid := city.NewGrid([]*city.Building{center, near, burning, destroyed, far}, 10)

	got := Exposure(grid, center, 10)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestPriorityRisesWithDensity(t *testing.T) {
	w := DefaultWeights()

	lonely := &city.Building{ID: 1, Position: city.Point{X: 10, Y: 10}, Weight: 1}
	crowded := &city.Building{ID: 2, Position: city.Point{X: 100, Y: 100}, Weight: 1}
	buildings := []*city.Building{lonely, crowded}
	for i := 0; i < 5; i++ {
		buildings = append(buildings, &city.Building{
			ID:       city.BuildingID(10 + i),
			Position: city.Point{X: 100 + float64(i), Y: 102},
			Weight:   1,
		})
	}
	grid := city.NewGrid(buildings, 16)

	f1 := &Fire{ID: 1, Intensity: 30, Active: true}
	f2 := &Fire{ID: 2, Intensity: 30, Active: true}
	p1 := Priority(w, grid, f1, lonely)
	p2 := Priority(w, grid, f2, crowded)
	require.Greater(t, p2, p1)
}
