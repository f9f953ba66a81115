// Command rescuesim runs the city fire-response simulation.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/talgya/rescue-bots/internal/api"
	"github.com/talgya/rescue-bots/internal/config"
	"github.com/talgya/rescue-bots/internal/engine"
	"github.com/talgya/rescue-bots/internal/persistence"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := config.Flags("rescuesim")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	cfgPath, _ := fs.GetString("config")

	opts, err := config.Load(cfgPath, fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 2
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLevel(opts.LogLevel),
	}))
	slog.SetDefault(logger)

	runID := uuid.NewString()
	slog.Info("rescue simulation", "run_id", runID, "seed", opts.Sim.Seed)

	// ── Simulation ────────────────────────────────────────────────────
	sim, err := engine.New(opts.Sim)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		return 2
	}

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if opts.Run.DBPath != "" {
		db, err = persistence.Open(opts.Run.DBPath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			return 1
		}
		defer db.Close()
		slog.Info("database opened", "path", opts.Run.DBPath)

		if err := db.SaveMeta(persistence.MetaRunID, runID); err != nil {
			slog.Error("save run id failed", "error", err)
		}
		if err := db.SaveMeta("seed", strconv.FormatInt(opts.Sim.Seed, 10)); err != nil {
			slog.Error("save seed failed", "error", err)
		}
	}

	snapshot := func() engine.State {
		st := sim.Export()
		st.RunID = runID
		return st
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var apiServer *api.Server
	if opts.Run.APIPort > 0 {
		apiServer = api.NewServer(opts.Run.APIPort, db)
		apiServer.Publish(snapshot())
		apiServer.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			apiServer.Shutdown(ctx)
		}()
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(sim)
	eng.Dt = opts.Run.Dt
	eng.Interval = opts.Run.Interval
	eng.MaxTicks = opts.Run.MaxTicks
	eng.ReportEvery = opts.Run.ReportEvery
	eng.StopWhen = stopCondition(opts.Run)

	eng.OnReport = func(tick uint64, st engine.Stats) {
		logReport(st)
		if db != nil {
			if err := db.SaveState(snapshot()); err != nil {
				slog.Error("periodic save failed", "error", err)
			}
		}
		if apiServer != nil {
			apiServer.Publish(snapshot())
		}
	}
	// Paced runs are watched live; keep the API current every tick.
	if apiServer != nil && opts.Run.Interval > 0 {
		eng.OnTick = func(uint64) { apiServer.Publish(snapshot()) }
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	reason := eng.Run(ctx)
	wall := time.Since(start)

	// ── Final output ──────────────────────────────────────────────────
	final := snapshot()
	printSummary(os.Stdout, final.Stats, reason, wall)

	status := 0
	if opts.Run.ExportPath != "" {
		path, size, err := writeExport(opts.Run.ExportPath, opts.Run.Compress, final)
		if err != nil {
			slog.Error("export failed", "path", opts.Run.ExportPath, "error", err)
			status = 1
		} else {
			fmt.Printf("State exported to %s (%s)\n", path, formatBytes(size))
		}
	}
	if db != nil {
		if err := db.SaveState(final); err != nil {
			slog.Error("final save failed", "error", err)
			status = 1
		}
	}
	if apiServer != nil {
		apiServer.Publish(final)
	}
	return status
}

// stopCondition ends the run when every fire is out or damage exceeds the cap.
func stopCondition(rc config.RunConfig) func(*engine.Simulation) bool {
	return func(sim *engine.Simulation) bool {
		if sim.ActiveFires() == 0 {
			return true
		}
		return rc.MaxDestroyed > 0 && sim.BuildingsDestroyed() > rc.MaxDestroyed
	}
}

func logReport(st engine.Stats) {
	slog.Info("periodic report",
		"tick", st.Tick,
		"time", fmt.Sprintf("%.1fs", st.ElapsedTime),
		"active_fires", st.ActiveFires,
		"extinguished", st.FiresExtinguished,
		"destroyed", st.BuildingsDestroyed,
		"fighting", st.RobotsFighting,
		"refilling", st.RobotsEnRouteToRefill+st.RobotsRefilling,
		"idle", st.RobotsIdle,
		"avg_water", fmt.Sprintf("%.1f%%", st.AvgWaterPct),
	)
}
