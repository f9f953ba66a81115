package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/rescue-bots/internal/city"
	"github.com/talgya/rescue-bots/internal/config"
	"github.com/talgya/rescue-bots/internal/engine"
	"github.com/talgya/rescue-bots/internal/persistence"
	"github.com/talgya/rescue-bots/internal/robots"
)

func smallSim(t *testing.T) *engine.Simulation {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.City.Width = 60
	cfg.City.Height = 60
	cfg.City.Buildings = 40
	cfg.City.Stations = 2
	cfg.Fleet = robots.FleetConfig{Scouts: 1, Standards: 1, Heavies: 1}
	cfg.Fire.InitialFires = 3
	sim, err := engine.New(cfg)
	require.NoError(t, err)
	return sim
}

func TestWriteExport(t *testing.T) {
	state := smallSim(t).Export()
	state.RunID = "abc"
	dir := t.TempDir()

	path, size, err := writeExport(filepath.Join(dir, "out", "state.json"), false, state)
	require.NoError(t, err)
	assert.Positive(t, size)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded engine.State
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "abc", decoded.RunID)
	assert.Len(t, decoded.Buildings, len(state.Buildings))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "water_stations")
}

func TestWriteExportCompressed(t *testing.T) {
	state := smallSim(t).Export()

	path, _, err := writeExport(filepath.Join(t.TempDir(), "state.json"), true, state)
	require.NoError(t, err)
	assert.Equal(t, ".gz", filepath.Ext(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var decoded engine.State
	require.NoError(t, json.NewDecoder(gz).Decode(&decoded))
	assert.Equal(t, state.Stats.FiresStarted, decoded.Stats.FiresStarted)
}

func TestWriteExportBadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	_, _, err := writeExport(filepath.Join(blocker, "state.json"), false, engine.State{})
	assert.Error(t, err)
}

func TestStopCondition(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Fire.InitialFires = 0
	cfg.Fire.GrowthRate = 0
	sim, err := engine.NewWithLayout(cfg, engine.Layout{
		Buildings: []*city.Building{
			{ID: 1, Weight: 1, Health: 1},
			{ID: 2, Position: city.Point{X: 50}, Weight: 1, Health: 1},
		},
		Stations: []*city.WaterStation{{ID: 1, Position: city.Point{X: 500, Y: 500}}},
		Robots:   []*robots.Robot{robots.New(1, robots.Standard, city.Point{X: 500, Y: 500})},
	})
	require.NoError(t, err)

	stop := stopCondition(config.RunConfig{MaxDestroyed: 0})
	assert.True(t, stop(sim), "nothing burning")

	_, ok := sim.StartFire(1, 10)
	require.True(t, ok)
	assert.False(t, stop(sim))

	_, ok = sim.StartFire(2, 200)
	require.True(t, ok)
	sim.Step(1) // building 2 is lost at once, building 1 keeps burning
	require.Equal(t, 1, sim.BuildingsDestroyed())
	assert.False(t, stop(sim), "no damage cap")
	assert.False(t, stopCondition(config.RunConfig{MaxDestroyed: 1})(sim), "cap not exceeded")

	_, ok = sim.StartFire(1, 10)
	assert.False(t, ok, "already burning")
}

func TestPrintSummary(t *testing.T) {
	sim := smallSim(t)
	for i := 0; i < 10; i++ {
		sim.Step(1)
	}
	var buf bytes.Buffer
	printSummary(&buf, sim.Stats(), engine.StopMaxTicks, 1500*time.Millisecond)

	out := buf.String()
	assert.Contains(t, out, "Simulation stopped (max_ticks) after 10 ticks")
	assert.Contains(t, out, "Fires started:")
	assert.Contains(t, out, "scout=1 standard=1 heavy=1")
	assert.Contains(t, out, "Top robot:")
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()
	export := filepath.Join(dir, "state.json")
	dbPath := filepath.Join(dir, "rescue.db")

	code := run([]string{
		"--buildings", "40", "--width", "60", "--height", "60", "--stations", "2",
		"--scouts", "1", "--standards", "1", "--heavies", "1",
		"--initial-fires", "3", "--max-ticks", "25", "--report-every", "10",
		"--export", export, "--db", dbPath, "--log-level", "error",
	})
	require.Equal(t, 0, code)

	data, err := os.ReadFile(export)
	require.NoError(t, err)
	var state engine.State
	require.NoError(t, json.Unmarshal(data, &state))
	assert.NotEmpty(t, state.RunID)
	assert.LessOrEqual(t, state.Tick, uint64(25))

	db, err := persistence.Open(dbPath)
	require.NoError(t, err)
	defer db.Close()
	saved, err := db.LoadState()
	require.NoError(t, err)
	assert.Equal(t, state.Tick, saved.Tick)
	assert.Equal(t, state.RunID, saved.RunID)
}

func TestRunRejectsBadConfig(t *testing.T) {
	assert.Equal(t, 2, run([]string{"--stations", "0"}))
	assert.Equal(t, 2, run([]string{"--no-such-flag"}))
}
