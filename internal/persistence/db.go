// Package persistence stores the latest simulation snapshot in SQLite.
// Every save replaces the previous one; no history is kept.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/rescue-bots/internal/engine"
)

// Metadata keys written by SaveState.
const (
	MetaRunID    = "run_id"
	MetaLastTick = "last_tick"
	MetaTime     = "time"
	MetaWidth    = "width"
	MetaHeight   = "height"
	MetaStats    = "stats_json"
)

// DB wraps a SQLite connection for snapshot persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS buildings (
		id INTEGER PRIMARY KEY,
		x REAL NOT NULL,
		y REAL NOT NULL,
		weight REAL NOT NULL,
		health REAL NOT NULL,
		on_fire INTEGER NOT NULL,
		destroyed INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS robots (
		id INTEGER PRIMARY KEY,
		robot_type TEXT NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		water REAL NOT NULL,
		max_water REAL NOT NULL,
		speed REAL NOT NULL,
		extinguish_rate REAL NOT NULL,
		state TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id INTEGER NOT NULL,
		fires_extinguished INTEGER NOT NULL,
		distance_traveled REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS fires (
		id INTEGER PRIMARY KEY,
		building_id INTEGER NOT NULL,
		x REAL NOT NULL,
		y REAL NOT NULL,
		intensity REAL NOT NULL,
		priority REAL NOT NULL,
		active INTEGER NOT NULL,
		extinguished INTEGER NOT NULL,
		burned_out INTEGER NOT NULL,
		start_time REAL NOT NULL,
		end_time REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS water_stations (
		id INTEGER PRIMARY KEY,
		x REAL NOT NULL,
		y REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_fires_active ON fires(active);
	CREATE INDEX IF NOT EXISTS idx_fires_building ON fires(building_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveState writes a full snapshot in one transaction, replacing whatever
// was stored before.
func (db *DB) SaveState(state engine.State) error {
	slog.Info("saving simulation state",
		"tick", state.Tick,
		"buildings", len(state.Buildings),
		"robots", len(state.Robots),
		"fires", len(state.Fires),
	)

	statsJSON, err := json.Marshal(state.Stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"buildings", "robots", "fires", "water_stations"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := saveBuildings(tx, state.Buildings); err != nil {
		return fmt.Errorf("save buildings: %w", err)
	}
	if err := saveRobots(tx, state.Robots); err != nil {
		return fmt.Errorf("save robots: %w", err)
	}
	if err := saveFires(tx, state.Fires); err != nil {
		return fmt.Errorf("save fires: %w", err)
	}
	for _, s := range state.Stations {
		if _, err := tx.Exec("INSERT INTO water_stations (id, x, y) VALUES (?, ?, ?)", s.ID, s.X, s.Y); err != nil {
			return fmt.Errorf("insert water station %d: %w", s.ID, err)
		}
	}

	meta := map[string]string{
		MetaLastTick: strconv.FormatUint(state.Tick, 10),
		MetaTime:     strconv.FormatFloat(state.Time, 'g', -1, 64),
		MetaWidth:    strconv.FormatFloat(state.Width, 'g', -1, 64),
		MetaHeight:   strconv.FormatFloat(state.Height, 'g', -1, 64),
		MetaStats:    string(statsJSON),
	}
	if state.RunID != "" {
		meta[MetaRunID] = state.RunID
	}
	for k, v := range meta {
		if _, err := tx.Exec("INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("save meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("simulation state saved", "tick", state.Tick)
	return nil
}

func saveBuildings(tx *sqlx.Tx, buildings []engine.BuildingView) error {
	stmt, err := tx.Preparex(`INSERT INTO buildings
		(id, x, y, weight, health, on_fire, destroyed)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range buildings {
		if _, err := stmt.Exec(b.ID, b.X, b.Y, b.Weight, b.Health, b.OnFire, b.Destroyed); err != nil {
			return fmt.Errorf("insert building %d: %w", b.ID, err)
		}
	}
	return nil
}

func saveRobots(tx *sqlx.Tx, list []engine.RobotView) error {
	stmt, err := tx.Preparex(`INSERT INTO robots
		(id, robot_type, x, y, water, max_water, speed, extinguish_rate,
		 state, target_type, target_id, fires_extinguished, distance_traveled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range list {
		_, err := stmt.Exec(
			r.ID, r.RobotType, r.X, r.Y, r.Water, r.MaxWater, r.Speed, r.ExtinguishRate,
			r.State, r.TargetType, int64(r.TargetID), r.FiresExtinguished, r.DistanceTraveled,
		)
		if err != nil {
			return fmt.Errorf("insert robot %d: %w", r.ID, err)
		}
	}
	return nil
}

func saveFires(tx *sqlx.Tx, fires []engine.FireView) error {
	stmt, err := tx.Preparex(`INSERT INTO fires
		(id, building_id, x, y, intensity, priority, active, extinguished,
		 burned_out, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range fires {
		_, err := stmt.Exec(
			f.ID, f.BuildingID, f.X, f.Y, f.Intensity, f.Priority,
			f.Active, f.Extinguished, f.BurnedOut, f.StartTime, f.EndTime,
		)
		if err != nil {
			return fmt.Errorf("insert fire %d: %w", f.ID, err)
		}
	}
	return nil
}

// SaveMeta stores a key-value pair in run metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. A missing key yields sql.ErrNoRows.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}

// Buildings returns the stored buildings in ID order.
func (db *DB) Buildings() ([]engine.BuildingView, error) {
	var rows []engine.BuildingView
	err := db.conn.Select(&rows,
		"SELECT id, x, y, weight, health, on_fire, destroyed FROM buildings ORDER BY id")
	return tag(rows, engine.TypeBuilding, func(v *engine.BuildingView, t string) { v.Type = t }), err
}

// Robots returns the stored robots in ID order.
func (db *DB) Robots() ([]engine.RobotView, error) {
	var rows []engine.RobotView
	err := db.conn.Select(&rows, `SELECT id, robot_type, x, y, water, max_water, speed,
		extinguish_rate, state, target_type, target_id, fires_extinguished, distance_traveled
		FROM robots ORDER BY id`)
	return tag(rows, engine.TypeRobot, func(v *engine.RobotView, t string) { v.Type = t }), err
}

// Fires returns the stored fires in ID order. activeOnly limits the result to
// fires still burning.
func (db *DB) Fires(activeOnly bool) ([]engine.FireView, error) {
	query := `SELECT id, building_id, x, y, intensity, priority, active, extinguished,
		burned_out, start_time, end_time FROM fires`
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY id"

	var rows []engine.FireView
	err := db.conn.Select(&rows, query)
	return tag(rows, engine.TypeFire, func(v *engine.FireView, t string) { v.Type = t }), err
}

// Stations returns the stored water stations in ID order.
func (db *DB) Stations() ([]engine.StationView, error) {
	var rows []engine.StationView
	err := db.conn.Select(&rows, "SELECT id, x, y FROM water_stations ORDER BY id")
	return tag(rows, engine.TypeWaterStation, func(v *engine.StationView, t string) { v.Type = t }), err
}

// LoadState reassembles the last saved snapshot. It returns sql.ErrNoRows
// when nothing has been saved yet.
func (db *DB) LoadState() (engine.State, error) {
	var state engine.State

	tickStr, err := db.GetMeta(MetaLastTick)
	if err != nil {
		return state, err
	}
	if state.Tick, err = strconv.ParseUint(tickStr, 10, 64); err != nil {
		return state, fmt.Errorf("parse %s: %w", MetaLastTick, err)
	}
	for key, dst := range map[string]*float64{MetaTime: &state.Time, MetaWidth: &state.Width, MetaHeight: &state.Height} {
		v, err := db.GetMeta(key)
		if err != nil {
			return state, fmt.Errorf("get %s: %w", key, err)
		}
		if *dst, err = strconv.ParseFloat(v, 64); err != nil {
			return state, fmt.Errorf("parse %s: %w", key, err)
		}
	}
	if state.RunID, err = db.GetMeta(MetaRunID); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return state, fmt.Errorf("get %s: %w", MetaRunID, err)
	}
	statsJSON, err := db.GetMeta(MetaStats)
	if err != nil {
		return state, fmt.Errorf("get %s: %w", MetaStats, err)
	}
	if err := json.Unmarshal([]byte(statsJSON), &state.Stats); err != nil {
		return state, fmt.Errorf("decode stats: %w", err)
	}

	if state.Buildings, err = db.Buildings(); err != nil {
		return state, fmt.Errorf("load buildings: %w", err)
	}
	if state.Robots, err = db.Robots(); err != nil {
		return state, fmt.Errorf("load robots: %w", err)
	}
	if state.Fires, err = db.Fires(false); err != nil {
		return state, fmt.Errorf("load fires: %w", err)
	}
	if state.Stations, err = db.Stations(); err != nil {
		return state, fmt.Errorf("load water stations: %w", err)
	}
	return state, nil
}

func tag[T any](rows []T, typ string, set func(*T, string)) []T {
	if rows == nil {
		rows = []T{}
	}
	for i := range rows {
		set(&rows[i], typ)
	}
	return rows
}
