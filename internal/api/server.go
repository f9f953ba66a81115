// Package api serves the latest published simulation snapshot over HTTP.
// All endpoints are read-only. The simulation goroutine publishes a detached
// engine.State after each tick it wants visible; handlers never touch the
// live simulation.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talgya/rescue-bots/internal/engine"
	"github.com/talgya/rescue-bots/internal/persistence"
)

const maxStreamConns = 4

// Server serves simulation state over HTTP.
type Server struct {
	Port int
	DB   *persistence.DB // Optional; backs /api/v1/saved

	latest atomic.Pointer[engine.State]

	subMu   sync.Mutex
	subs    map[int]chan *engine.State
	nextSub int

	// Active stream connection count (atomic).
	streamConns int32

	srv *http.Server
}

// NewServer creates a server for the given port. db may be nil.
func NewServer(port int, db *persistence.DB) *Server {
	return &Server{
		Port: port,
		DB:   db,
		subs: make(map[int]chan *engine.State),
	}
}

// Publish makes state the snapshot served by every endpoint and pushes it to
// stream subscribers. Slow subscribers only ever see the newest snapshot.
func (s *Server) Publish(state engine.State) {
	st := &state
	s.latest.Store(st)

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

// Latest returns the most recently published snapshot, or nil.
func (s *Server) Latest() *engine.State {
	return s.latest.Load()
}

func (s *Server) subscribe() (int, <-chan *engine.State) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan *engine.State, 1)
	s.subs[id] = ch
	return id, ch
}

func (s *Server) unsubscribe(id int) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	delete(s.subs, id)
}

// Handler returns the routed API with CORS applied.
func (s *Server) Handler() http.Handler {
	savedLimiter := NewRateLimiter(60, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/state", s.handleState)
	mux.HandleFunc("/api/v1/robots", s.handleRobots)
	mux.HandleFunc("/api/v1/fires", s.handleFires)
	mux.HandleFunc("/api/v1/buildings", s.handleBuildings)
	mux.HandleFunc("/api/v1/saved", RateLimitMiddleware(savedLimiter, s.handleSaved))
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.srv = &http.Server{Addr: addr, Handler: s.Handler()}
	slog.Info("HTTP API starting", "addr", addr, "db", s.DB != nil)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server started by Start.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// RESCUESIM_CORS_ORIGINS extends the list with comma-separated origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("RESCUESIM_CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// snapshot returns the latest state or writes 503 when nothing is published yet.
func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) *engine.State {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil
	}
	st := s.latest.Load()
	if st == nil {
		http.Error(w, "no snapshot published yet", http.StatusServiceUnavailable)
		return nil
	}
	return st
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.snapshot(w, r)
	if st == nil {
		return
	}
	writeJSON(w, map[string]any{
		"name":                "rescuesim",
		"run_id":              st.RunID,
		"tick":                st.Tick,
		"time":                st.Time,
		"active_fires":        st.Stats.ActiveFires,
		"fires_started":       st.Stats.FiresStarted,
		"fires_extinguished":  st.Stats.FiresExtinguished,
		"buildings_destroyed": st.Stats.BuildingsDestroyed,
		"robots":              len(st.Robots),
		"stream_clients":      atomic.LoadInt32(&s.streamConns),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if st := s.snapshot(w, r); st != nil {
		writeJSON(w, st.Stats)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if st := s.snapshot(w, r); st != nil {
		writeJSON(w, st)
	}
}

// handleRobots lists robots, optionally filtered by ?state= and ?type=.
func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	st := s.snapshot(w, r)
	if st == nil {
		return
	}
	state := r.URL.Query().Get("state")
	robotType := r.URL.Query().Get("type")

	out := make([]engine.RobotView, 0, len(st.Robots))
	for _, rv := range st.Robots {
		if state != "" && rv.State != state {
			continue
		}
		if robotType != "" && rv.RobotType != robotType {
			continue
		}
		out = append(out, rv)
	}
	writeJSON(w, out)
}

// handleFires lists fires. ?active=true limits it to fires still burning.
func (s *Server) handleFires(w http.ResponseWriter, r *http.Request) {
	st := s.snapshot(w, r)
	if st == nil {
		return
	}
	activeOnly, ok := boolParam(w, r, "active")
	if !ok {
		return
	}

	out := make([]engine.FireView, 0, len(st.Fires))
	for _, f := range st.Fires {
		if activeOnly && !f.Active {
			continue
		}
		out = append(out, f)
	}
	writeJSON(w, out)
}

// handleBuildings lists buildings, optionally only those ?on_fire=true or ?destroyed=true.
func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	st := s.snapshot(w, r)
	if st == nil {
		return
	}
	onFire, ok := boolParam(w, r, "on_fire")
	if !ok {
		return
	}
	destroyed, ok := boolParam(w, r, "destroyed")
	if !ok {
		return
	}

	out := make([]engine.BuildingView, 0, len(st.Buildings))
	for _, b := range st.Buildings {
		if onFire && !b.OnFire {
			continue
		}
		if destroyed && !b.Destroyed {
			continue
		}
		out = append(out, b)
	}
	writeJSON(w, out)
}

// handleSaved serves the snapshot last written to the database.
func (s *Server) handleSaved(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "no database configured", http.StatusNotFound)
		return
	}
	st, err := s.DB.LoadState()
	if err != nil {
		slog.Error("load saved state", "error", err)
		http.Error(w, "no saved state", http.StatusNotFound)
		return
	}
	writeJSON(w, st)
}

func boolParam(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("%s must be a boolean", name), http.StatusBadRequest)
		return false, false
	}
	return v, true
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
