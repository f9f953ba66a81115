// Package config loads simulation and run options from defaults, an optional
// config file, RESCUESIM_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/talgya/rescue-bots/internal/engine"
)

// EnvPrefix is prepended to every environment override, e.g. RESCUESIM_FLEET_SCOUTS.
const EnvPrefix = "RESCUESIM"

// RunConfig holds driver options that are not part of the simulation itself.
type RunConfig struct {
	Dt           float64       `mapstructure:"dt"`
	Interval     time.Duration `mapstructure:"interval"`      // Wall-clock pacing per tick; 0 runs flat out
	MaxTicks     uint64        `mapstructure:"max_ticks"`     // 0 = unbounded
	MaxDestroyed int           `mapstructure:"max_destroyed"` // Stop once more buildings are lost; 0 = no cap
	ReportEvery  uint64        `mapstructure:"report_every"`
	ExportPath   string        `mapstructure:"export_path"`
	Compress     bool          `mapstructure:"compress"`
	DBPath       string        `mapstructure:"db_path"` // Empty disables the database
	APIPort      int           `mapstructure:"api_port"` // 0 disables the HTTP API
}

// Options is everything the driver needs.
type Options struct {
	Sim      engine.Config `mapstructure:",squash"`
	Run      RunConfig     `mapstructure:"run"`
	LogLevel string        `mapstructure:"log_level"`
}

// DefaultRunConfig returns the driver defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Dt:          engine.DefaultDt,
		MaxTicks:    20000,
		ReportEvery: 100,
		ExportPath:  "simulation_state.json",
	}
}

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"seed":          "seed",
	"width":         "city.width",
	"height":        "city.height",
	"buildings":     "city.buildings",
	"stations":      "city.stations",
	"scouts":        "fleet.scouts",
	"standards":     "fleet.standards",
	"heavies":       "fleet.heavies",
	"initial-fires": "fire.initial_fires",
	"ignition-rate": "fire.ignition_rate",
	"growth-rate":   "fire.growth_rate",
	"spread-rate":   "fire.spread_rate",
	"dt":            "run.dt",
	"interval":      "run.interval",
	"max-ticks":     "run.max_ticks",
	"max-destroyed": "run.max_destroyed",
	"report-every":  "run.report_every",
	"export":        "run.export_path",
	"compress":      "run.compress",
	"db":            "run.db_path",
	"api-port":      "run.api_port",
	"log-level":     "log_level",
}

// Flags returns the command-line flag set understood by Load.
func Flags(name string) *pflag.FlagSet {
	sim := engine.DefaultConfig()
	run := DefaultRunConfig()

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "config file (json, yaml or toml)")
	fs.Int64("seed", sim.Seed, "random seed")
	fs.Float64("width", sim.City.Width, "city width in metres")
	fs.Float64("height", sim.City.Height, "city height in metres")
	fs.Int("buildings", sim.City.Buildings, "number of buildings")
	fs.Int("stations", sim.City.Stations, "number of water stations")
	fs.Int("scouts", sim.Fleet.Scouts, "scout robots")
	fs.Int("standards", sim.Fleet.Standards, "standard robots")
	fs.Int("heavies", sim.Fleet.Heavies, "heavy robots")
	fs.Int("initial-fires", sim.Fire.InitialFires, "fires burning at start")
	fs.Float64("ignition-rate", sim.Fire.IgnitionRate, "random ignitions per second")
	fs.Float64("growth-rate", sim.Fire.GrowthRate, "fire growth per second")
	fs.Float64("spread-rate", sim.Fire.SpreadRate, "spread attempts per second")
	fs.Float64("dt", run.Dt, "simulated seconds per tick")
	fs.Duration("interval", run.Interval, "wall-clock time per tick (0 = as fast as possible)")
	fs.Uint64("max-ticks", run.MaxTicks, "stop after this many ticks (0 = unbounded)")
	fs.Int("max-destroyed", run.MaxDestroyed, "stop once more buildings than this are destroyed (0 = no cap)")
	fs.Uint64("report-every", run.ReportEvery, "ticks between progress reports")
	fs.String("export", run.ExportPath, "final state export path (empty disables)")
	fs.Bool("compress", run.Compress, "gzip the export")
	fs.String("db", run.DBPath, "sqlite database path (empty disables)")
	fs.Int("api-port", run.APIPort, "HTTP API port (0 disables)")
	fs.String("log-level", "info", "debug, info, warn or error")
	return fs
}

// Load resolves options in order of precedence: flags, environment, config
// file, defaults. path may be empty; flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Options, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Options{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Options{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("decode config: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate checks the simulation config and the run options together.
func (o Options) Validate() error {
	errs := []error{o.Sim.Validate()}
	if !(o.Run.Dt > 0) {
		errs = append(errs, &engine.ConfigError{Field: "run.dt", Reason: "must be positive"})
	}
	if o.Run.Interval < 0 {
		errs = append(errs, &engine.ConfigError{Field: "run.interval", Reason: "must not be negative"})
	}
	if o.Run.MaxDestroyed < 0 {
		errs = append(errs, &engine.ConfigError{Field: "run.max_destroyed", Reason: "must not be negative"})
	}
	if o.Run.APIPort < 0 || o.Run.APIPort > 65535 {
		errs = append(errs, &engine.ConfigError{Field: "run.api_port", Reason: "must be a valid port"})
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	sim := engine.DefaultConfig()
	run := DefaultRunConfig()

	v.SetDefault("log_level", "info")
	v.SetDefault("seed", sim.Seed)

	v.SetDefault("city.width", sim.City.Width)
	v.SetDefault("city.height", sim.City.Height)
	v.SetDefault("city.buildings", sim.City.Buildings)
	v.SetDefault("city.stations", sim.City.Stations)
	v.SetDefault("city.station_layout", sim.City.StationLayout)
	v.SetDefault("city.station_jitter", sim.City.StationJitter)
	v.SetDefault("city.noise_scale", sim.City.NoiseScale)

	v.SetDefault("fleet.scouts", sim.Fleet.Scouts)
	v.SetDefault("fleet.standards", sim.Fleet.Standards)
	v.SetDefault("fleet.heavies", sim.Fleet.Heavies)

	v.SetDefault("fire.initial_fires", sim.Fire.InitialFires)
	v.SetDefault("fire.initial_intensity_min", sim.Fire.InitialIntensityMin)
	v.SetDefault("fire.initial_intensity_max", sim.Fire.InitialIntensityMax)
	v.SetDefault("fire.ignition_rate", sim.Fire.IgnitionRate)
	v.SetDefault("fire.growth_rate", sim.Fire.GrowthRate)
	v.SetDefault("fire.spread_rate", sim.Fire.SpreadRate)
	v.SetDefault("fire.spread_radius", sim.Fire.SpreadRadius)
	v.SetDefault("fire.destruction_threshold", sim.Fire.DestructionThreshold)

	v.SetDefault("priority.intensity_weight", sim.Priority.Intensity)
	v.SetDefault("priority.structure_weight", sim.Priority.Structure)
	v.SetDefault("priority.density_weight", sim.Priority.Density)
	v.SetDefault("priority.radius", sim.Priority.Radius)

	v.SetDefault("assign.priority_weight", sim.Assign.PriorityWeight)
	v.SetDefault("assign.distance_weight", sim.Assign.DistanceWeight)

	v.SetDefault("ops.refill_rate", sim.Ops.RefillRate)
	v.SetDefault("ops.arrival_radius", sim.Ops.ArrivalRadius)
	v.SetDefault("ops.water_per_suppression", sim.Ops.WaterPerSuppression)

	v.SetDefault("run.dt", run.Dt)
	v.SetDefault("run.interval", run.Interval)
	v.SetDefault("run.max_ticks", run.MaxTicks)
	v.SetDefault("run.max_destroyed", run.MaxDestroyed)
	v.SetDefault("run.report_every", run.ReportEvery)
	v.SetDefault("run.export_path", run.ExportPath)
	v.SetDefault("run.compress", run.Compress)
	v.SetDefault("run.db_path", run.DBPath)
	v.SetDefault("run.api_port", run.APIPort)
}

// ParseLevel converts a log level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
