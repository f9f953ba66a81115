// Package engine provides the rescue simulation core and its tick-based run loop.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultDt is the standard tick length in simulated seconds.
const DefaultDt = 0.1

// StopReason explains why Run returned.
type StopReason string

const (
	StopCancelled StopReason = "cancelled" // Context done
	StopRequested StopReason = "stopped"   // Stop() called
	StopMaxTicks  StopReason = "max_ticks" // Tick cap reached
	StopCondition StopReason = "condition" // StopWhen returned true
)

// Engine drives a Simulation forward.
type Engine struct {
	Sim         *Simulation
	Dt          float64       // Simulated seconds per tick
	Interval    time.Duration // Wall-clock pacing per tick; 0 runs flat out
	MaxTicks    uint64        // 0 = unbounded
	ReportEvery uint64        // OnReport cadence in ticks; 0 = never

	// Callbacks, populated during setup.
	OnTick   func(tick uint64)              // After every tick
	OnReport func(tick uint64, stats Stats) // Every ReportEvery ticks
	StopWhen func(sim *Simulation) bool     // Checked after every tick

	stopped atomic.Bool
}

// NewEngine creates an engine over sim with the default tick length.
func NewEngine(sim *Simulation) *Engine {
	return &Engine{
		Sim: sim,
		Dt:  DefaultDt,
	}
}

// Run steps the simulation until ctx is done, Stop is called, MaxTicks is
// reached or StopWhen reports true.
func (e *Engine) Run(ctx context.Context) StopReason {
	e.stopped.Store(false)
	slog.Info("simulation engine started", "tick", e.Sim.CurrentTick(), "dt", e.Dt, "max_ticks", e.MaxTicks)

	reason := e.loop(ctx)

	slog.Info("simulation engine stopped", "tick", e.Sim.CurrentTick(), "reason", string(reason))
	return reason
}

func (e *Engine) loop(ctx context.Context) StopReason {
	var ticks uint64
	for {
		select {
		case <-ctx.Done():
			return StopCancelled
		default:
		}
		if e.stopped.Load() {
			return StopRequested
		}
		if e.MaxTicks > 0 && ticks >= e.MaxTicks {
			return StopMaxTicks
		}

		start := time.Now()
		e.step()
		ticks++

		if e.StopWhen != nil && e.StopWhen(e.Sim) {
			return StopCondition
		}

		// Sleep for the remainder of the tick interval.
		if e.Interval > 0 {
			if elapsed := time.Since(start); elapsed < e.Interval {
				select {
				case <-ctx.Done():
					return StopCancelled
				case <-time.After(e.Interval - elapsed):
				}
			}
		}
	}
}

// Stop halts the loop after the current tick. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// step advances the simulation by one tick and fires callbacks.
func (e *Engine) step() {
	e.Sim.Step(e.Dt)
	tick := e.Sim.CurrentTick()

	if e.OnTick != nil {
		e.OnTick(tick)
	}
	if e.ReportEvery > 0 && tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(tick, e.Sim.Stats())
	}
}
