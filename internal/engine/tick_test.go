package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	sim, err := New(smallConfig())
	require.NoError(t, err)
	return NewEngine(sim)
}

func TestEngineStopsAtMaxTicks(t *testing.T) {
	e := newTestEngine(t)
	e.MaxTicks = 10
	e.ReportEvery = 5

	var reports []uint64
	ticks := 0
	e.OnTick = func(uint64) { ticks++ }
	e.OnReport = func(tick uint64, st Stats) {
		assert.Equal(t, tick, st.Tick)
		reports = append(reports, tick)
	}

	reason := e.Run(context.Background())

	assert.Equal(t, StopMaxTicks, reason)
	assert.Equal(t, uint64(10), e.Sim.CurrentTick())
	assert.Equal(t, 10, ticks)
	assert.Equal(t, []uint64{5, 10}, reports)
	assert.InDelta(t, 10*DefaultDt, e.Sim.Elapsed(), 1e-9)
}

func TestEngineStopCondition(t *testing.T) {
	e := newTestEngine(t)
	e.StopWhen = func(sim *Simulation) bool { return sim.CurrentTick() >= 3 }

	assert.Equal(t, StopCondition, e.Run(context.Background()))
	assert.Equal(t, uint64(3), e.Sim.CurrentTick())
}

func TestEngineStopRequested(t *testing.T) {
	e := newTestEngine(t)
	e.OnTick = func(tick uint64) {
		if tick == 7 {
			e.Stop()
		}
	}

	assert.Equal(t, StopRequested, e.Run(context.Background()))
	assert.Equal(t, uint64(7), e.Sim.CurrentTick())
}

func TestEngineCancelledContext(t *testing.T) {
	e := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, StopCancelled, e.Run(ctx))
	assert.Equal(t, uint64(0), e.Sim.CurrentTick())
}

func TestEngineRunResumes(t *testing.T) {
	e := newTestEngine(t)
	e.MaxTicks = 4

	require.Equal(t, StopMaxTicks, e.Run(context.Background()))
	require.Equal(t, StopMaxTicks, e.Run(context.Background()))
	assert.Equal(t, uint64(8), e.Sim.CurrentTick(), "MaxTicks counts per run")
}
