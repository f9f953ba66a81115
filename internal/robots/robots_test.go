package robots

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/rescue-bots/internal/city"
)

func TestSpecTable(t *testing.T) {
	tests := []struct {
		typ  RobotType
		name string
		spec Spec
	}{
		{Scout, "scout", Spec{Speed: 16, MaxWater: 50, ExtinguishRate: 3}},
		{Standard, "standard", Spec{Speed: 10, MaxWater: 120, ExtinguishRate: 6}},
		{Heavy, "heavy", Spec{Speed: 6.5, MaxWater: 250, ExtinguishRate: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.spec, tt.typ.Spec())
			assert.Equal(t, tt.name, tt.typ.String())
		})
	}
}

func TestNewStartsFullAndIdle(t *testing.T) {
	r := New(1, Heavy, city.Point{X: 1, Y: 2})
	assert.Equal(t, 250.0, r.Water)
	assert.Equal(t, StateIdle, r.State)
	assert.True(t, r.Target.IsNone())
	assert.False(t, r.NeedsRefill())
}

func TestAddWaterClamps(t *testing.T) {
	r := New(1, Scout, city.Point{})
	r.AddWater(-500)
	assert.Zero(t, r.Water)
	r.AddWater(1000)
	assert.Equal(t, 50.0, r.Water)
}

func TestNeedsRefillThreshold(t *testing.T) {
	r := New(1, Standard, city.Point{})
	r.Water = 24 // exactly 20% of 120
	assert.False(t, r.NeedsRefill())
	r.Water = 23.9
	assert.True(t, r.NeedsRefill())
}

func TestIdleClearsTarget(t *testing.T) {
	r := New(1, Standard, city.Point{})
	r.State = StateFighting
	r.Target = FireTarget(4)
	r.Idle()
	assert.Equal(t, StateIdle, r.State)
	assert.Equal(t, NoTarget, r.Target)
}

func TestUtilization(t *testing.T) {
	r := New(1, Standard, city.Point{})
	assert.Zero(t, r.Utilization())
	r.BusyTime = 3
	r.IdleTime = 1
	assert.InDelta(t, 0.75, r.Utilization(), 1e-9)
}

func TestSpawnFleet(t *testing.T) {
	cfg := FleetConfig{Scouts: 2, Standards: 3, Heavies: 1}
	fleet := NewSpawner(5).SpawnFleet(cfg, 100, 50)
	require.Len(t, fleet, 6)

	counts := make(map[RobotType]int)
	for i, r := range fleet {
		assert.Equal(t, RobotID(i+1), r.ID)
		assert.LessOrEqual(t, r.Position.X, 100.0)
		assert.LessOrEqual(t, r.Position.Y, 50.0)
		counts[r.Type]++
	}
	assert.Equal(t, 2, counts[Scout])
	assert.Equal(t, 3, counts[Standard])
	assert.Equal(t, 1, counts[Heavy])
}

func TestTargetConstructors(t *testing.T) {
	assert.Equal(t, Target{Kind: TargetFire, ID: 3}, FireTarget(3))
	assert.Equal(t, Target{Kind: TargetStation, ID: 2}, StationTarget(city.StationID(2)))
	assert.Equal(t, "water_station", TargetStation.String())
	assert.True(t, NoTarget.IsNone())
}
