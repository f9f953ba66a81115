package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/rescue-bots/internal/engine"
	"github.com/talgya/rescue-bots/internal/persistence"
	"github.com/talgya/rescue-bots/internal/robots"
)

func newTestSim(t *testing.T) *engine.Simulation {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.City.Width = 80
	cfg.City.Height = 80
	cfg.City.Buildings = 60
	cfg.City.Stations = 2
	cfg.Fleet = robots.FleetConfig{Scouts: 2, Standards: 2, Heavies: 1}
	cfg.Fire.InitialFires = 6

	sim, err := engine.New(cfg)
	require.NoError(t, err)
	return sim
}

func newTestServer(t *testing.T, s *Server) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && out != nil {
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestEndpointsWaitForSnapshot(t *testing.T) {
	srv := newTestServer(t, NewServer(0, nil))

	for _, path := range []string{"/api/v1/status", "/api/v1/stats", "/api/v1/state", "/api/v1/robots", "/api/v1/fires"} {
		assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv.URL+path, nil), path)
	}
}

func TestStatusAndStats(t *testing.T) {
	sim := newTestSim(t)
	sim.Step(1)
	state := sim.Export()
	state.RunID = "run-1"

	s := NewServer(0, nil)
	s.Publish(state)
	srv := newTestServer(t, s)

	var status map[string]any
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/status", &status))
	assert.Equal(t, "run-1", status["run_id"])
	assert.Equal(t, float64(1), status["tick"])
	assert.Equal(t, float64(len(state.Robots)), status["robots"])

	var stats engine.Stats
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/stats", &stats))
	assert.Equal(t, state.Stats.FiresStarted, stats.FiresStarted)
	assert.Equal(t, state.Stats.ActiveFires, stats.ActiveFires)

	var full engine.State
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/state", &full))
	assert.Equal(t, state.Tick, full.Tick)
	assert.Len(t, full.Stations, len(state.Stations))
}

func TestListFilters(t *testing.T) {
	sim := newTestSim(t)
	sim.Step(1)
	state := sim.Export()
	s := NewServer(0, nil)
	s.Publish(state)
	srv := newTestServer(t, s)

	var scouts []engine.RobotView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/robots?type=scout", &scouts))
	assert.Len(t, scouts, 2)
	for _, r := range scouts {
		assert.Equal(t, "scout", r.RobotType)
	}

	var active []engine.FireView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/fires?active=true", &active))
	assert.Len(t, active, state.Stats.ActiveFires)

	var burning []engine.BuildingView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/buildings?on_fire=true", &burning))
	assert.Len(t, burning, state.Stats.ActiveFires)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/fires?active=maybe", nil))
}

func TestRejectsNonGet(t *testing.T) {
	s := NewServer(0, nil)
	s.Publish(newTestSim(t).Export())
	srv := newTestServer(t, s)

	resp, err := http.Post(srv.URL+"/api/v1/state", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSavedEndpoint(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, getJSON(t, newTestServer(t, NewServer(0, nil)).URL+"/api/v1/saved", nil))

	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv := newTestServer(t, NewServer(0, db))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/saved", nil), "nothing saved yet")

	sim := newTestSim(t)
	sim.Step(1)
	require.NoError(t, db.SaveState(sim.Export()))

	var saved engine.State
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/saved", &saved))
	assert.Equal(t, uint64(1), saved.Tick)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, NewServer(0, nil))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/status", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStreamPushesSnapshots(t *testing.T) {
	sim := newTestSim(t)
	s := NewServer(0, nil)
	s.Publish(sim.Export())
	srv := newTestServer(t, s)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first engine.State
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, uint64(0), first.Tick)

	for i := 0; i < 3; i++ {
		sim.Step(1)
	}
	s.Publish(sim.Export())

	var next engine.State
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, uint64(3), next.Tick)
}
