package main

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/rescue-bots/internal/engine"
	"github.com/talgya/rescue-bots/internal/robots"
)

// writeExport writes state as JSON, gzipped when compress is set, and returns
// the final path and its size on disk.
func writeExport(path string, compress bool, state engine.State) (string, int64, error) {
	if compress && !strings.HasSuffix(path, ".gz") {
		path += ".gz"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", 0, fmt.Errorf("create export directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if compress {
		err = writeGzipJSON(f, state)
	} else {
		err = writeJSON(f, state)
	}
	if err != nil {
		return "", 0, fmt.Errorf("encode export: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat export file: %w", err)
	}
	return path, info.Size(), nil
}

func writeJSON(w io.Writer, state engine.State) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

func writeGzipJSON(w io.Writer, state engine.State) error {
	gz := gzip.NewWriter(w)
	if err := json.NewEncoder(gz).Encode(state); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// printSummary writes the end-of-run statistics.
func printSummary(w io.Writer, st engine.Stats, reason engine.StopReason, wall time.Duration) {
	fmt.Fprintf(w, "\nSimulation stopped (%s) after %s ticks, %.1fs simulated in %s.\n",
		reason, humanize.Comma(int64(st.Tick)), st.ElapsedTime, wall.Round(time.Millisecond))
	fmt.Fprintf(w, "  Fires started:        %s\n", humanize.Comma(int64(st.FiresStarted)))
	fmt.Fprintf(w, "  Fires extinguished:   %s\n", humanize.Comma(int64(st.FiresExtinguished)))
	fmt.Fprintf(w, "  Buildings destroyed:  %s\n", humanize.Comma(int64(st.BuildingsDestroyed)))
	fmt.Fprintf(w, "  Still burning:        %s\n", humanize.Comma(int64(st.ActiveFires)))
	if st.FiresExtinguished > 0 {
		fmt.Fprintf(w, "  Avg response time:    %.1fs\n", st.AvgResponseTime)
	}
	fmt.Fprintf(w, "  Avg water level:      %.1f%%\n", st.AvgWaterPct)

	fmt.Fprintf(w, "  Fleet:               ")
	for _, t := range robots.Types {
		fmt.Fprintf(w, " %s=%d", t, st.Fleet[t.String()])
	}
	fmt.Fprintln(w)

	if len(st.Robots) == 0 {
		return
	}
	best := st.Robots[0]
	util := 0.0
	for _, r := range st.Robots {
		util += r.Utilization
		if r.FiresExtinguished > best.FiresExtinguished {
			best = r
		}
	}
	fmt.Fprintf(w, "  Avg utilization:      %.0f%%\n", 100*util/float64(len(st.Robots)))
	fmt.Fprintf(w, "  Top robot:            #%d (%s) with %s fires, %sm traveled\n",
		best.ID, best.Type, humanize.Comma(int64(best.FiresExtinguished)),
		humanize.CommafWithDigits(best.DistanceTraveled, 0))
}

func formatBytes(n int64) string {
	return humanize.Bytes(uint64(n))
}
