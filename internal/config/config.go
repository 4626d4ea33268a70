// Package config loads application settings from defaults, an optional
// config file and TRADEFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TRADEFLOW_MAP_FPS.
const EnvPrefix = "TRADEFLOW"

// Reload interval bounds.
const (
	MinReload = time.Second
	MaxReload = 5 * time.Minute
)

// Config is the resolved application configuration.
type Config struct {
	Log     LogConfig
	Catalog CatalogConfig
	Map     MapConfig
	Metrics MetricsConfig
}

// LogConfig controls logging.
type LogConfig struct {
	Level string
	File  string
}

// CatalogConfig controls where the catalog comes from.
type CatalogConfig struct {
	// Path is a YAML catalog file; empty means the embedded dataset.
	Path   string
	Reload time.Duration
}

// MapConfig tunes the map view.
type MapConfig struct {
	FPS                 int
	ReducedMotion       bool
	Projection          string
	RouteHitRadius      float64
	ChokepointHitRadius float64
	AnimationCap        int
	TopVolume           int
}

// MetricsConfig controls the Prometheus endpoint. Empty Addr disables it.
type MetricsConfig struct {
	Addr string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", filepath.Join(os.TempDir(), "ls-tradeflow.log"))
	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.reload", 5*time.Second)
	v.SetDefault("map.fps", 60)
	v.SetDefault("map.reduced_motion", false)
	v.SetDefault("map.projection", "equirectangular")
	v.SetDefault("map.route_hit_radius", 20)
	v.SetDefault("map.chokepoint_hit_radius", 15)
	v.SetDefault("map.animation_cap", 20)
	v.SetDefault("map.top_volume", 10)
	v.SetDefault("metrics.addr", "")
}

// Default returns the built-in configuration.
func Default() Config {
	cfg, _ := Load("")
	return cfg
}

// Load resolves configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("config file %s: %w", path, os.ErrNotExist)
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Log: LogConfig{
			Level: v.GetString("log.level"),
			File:  v.GetString("log.file"),
		},
		Catalog: CatalogConfig{
			Path:   v.GetString("catalog.path"),
			Reload: clampDuration(v.GetDuration("catalog.reload"), MinReload, MaxReload),
		},
		Map: MapConfig{
			FPS:                 clampInt(v.GetInt("map.fps"), 1, 120),
			ReducedMotion:       v.GetBool("map.reduced_motion") || reducedMotionEnv(),
			Projection:          v.GetString("map.projection"),
			RouteHitRadius:      v.GetFloat64("map.route_hit_radius"),
			ChokepointHitRadius: v.GetFloat64("map.chokepoint_hit_radius"),
			AnimationCap:        v.GetInt("map.animation_cap"),
			TopVolume:           v.GetInt("map.top_volume"),
		},
		Metrics: MetricsConfig{
			Addr: v.GetString("metrics.addr"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values that cannot be clamped into range.
func (c Config) Validate() error {
	var errs []error
	if c.Map.RouteHitRadius <= 0 {
		errs = append(errs, fmt.Errorf("map.route_hit_radius must be positive, got %v", c.Map.RouteHitRadius))
	}
	if c.Map.ChokepointHitRadius <= 0 {
		errs = append(errs, fmt.Errorf("map.chokepoint_hit_radius must be positive, got %v", c.Map.ChokepointHitRadius))
	}
	if c.Map.AnimationCap < 0 {
		errs = append(errs, fmt.Errorf("map.animation_cap must not be negative, got %d", c.Map.AnimationCap))
	}
	if c.Map.TopVolume < 0 {
		errs = append(errs, fmt.Errorf("map.top_volume must not be negative, got %d", c.Map.TopVolume))
	}
	switch strings.ToLower(strings.TrimSpace(c.Map.Projection)) {
	case "", "equirectangular", "mercator", "webmercator", "epsg:3857", "3857":
	default:
		errs = append(errs, fmt.Errorf("map.projection: unknown projection %q", c.Map.Projection))
	}
	return errors.Join(errs...)
}

// reducedMotionEnv reports the conventional REDUCED_MOTION / NO_MOTION
// opt-outs.
func reducedMotionEnv() bool {
	if _, ok := os.LookupEnv("NO_MOTION"); ok {
		return true
	}
	switch strings.ToLower(os.Getenv("REDUCED_MOTION")) {
	case "1", "true", "yes", "reduce":
		return true
	}
	return false
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
