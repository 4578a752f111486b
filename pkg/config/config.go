// Package config loads the optional TOML configuration file. Values from
// the file sit below CLI flags: commands apply the file first and let
// explicitly set flags override.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/SammySnake-d/markmap-sub002/pkg/errors"
	"github.com/SammySnake-d/markmap-sub002/pkg/mindmap"
)

// Config is the full file shape.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	View   ViewConfig   `toml:"view"`
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
}

// LayoutConfig controls node spacing and the initial fold level.
type LayoutConfig struct {
	PaddingX           float64 `toml:"padding_x"`
	SpacingHorizontal  float64 `toml:"spacing_horizontal"`
	SpacingVertical    float64 `toml:"spacing_vertical"`
	InitialExpandLevel int     `toml:"initial_expand_level"`
}

// ViewConfig controls the viewport transform defaults.
type ViewConfig struct {
	FitRatio        float64 `toml:"fit_ratio"`
	MaxInitialScale float64 `toml:"max_initial_scale"`
	DurationMS      int     `toml:"duration_ms"`
}

// RenderConfig controls static output.
type RenderConfig struct {
	Format string   `toml:"format"`
	Colors []string `toml:"colors"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", "none".
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	opts := mindmap.DefaultOptions()
	return Config{
		Layout: LayoutConfig{
			PaddingX:           opts.PaddingX,
			SpacingHorizontal:  opts.SpacingHorizontal,
			SpacingVertical:    opts.SpacingVertical,
			InitialExpandLevel: opts.InitialExpandLevel,
		},
		View: ViewConfig{
			FitRatio:        opts.FitRatio,
			MaxInitialScale: opts.MaxInitialScale,
			DurationMS:      int(opts.Duration / time.Millisecond),
		},
		Render: RenderConfig{Format: "svg"},
		Cache:  CacheConfig{Backend: "file", Dir: DefaultCacheDir()},
	}
}

// DefaultCacheDir returns the per-user cache directory.
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "mindmap")
}

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "mindmap", "config.toml")
}

// Load reads a TOML file over the defaults. An empty path loads the default
// location; a missing file at the default location is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return cfg, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s", path)
			}
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidFormat, err, "%s", path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.View.FitRatio <= 0 || c.View.FitRatio > 1 {
		return errors.New(errors.ErrCodeInvalidOptions, "fit_ratio %v out of (0, 1]", c.View.FitRatio)
	}
	if c.Layout.SpacingHorizontal < 0 || c.Layout.SpacingVertical < 0 || c.Layout.PaddingX < 0 {
		return errors.New(errors.ErrCodeInvalidOptions, "spacing values must be non-negative")
	}
	switch c.Cache.Backend {
	case "file", "redis", "none":
	default:
		return errors.New(errors.ErrCodeInvalidOptions, "unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// EngineOptions projects the configuration onto engine options.
func (c Config) EngineOptions() mindmap.Options {
	opts := mindmap.DefaultOptions()
	opts.PaddingX = c.Layout.PaddingX
	opts.SpacingHorizontal = c.Layout.SpacingHorizontal
	opts.SpacingVertical = c.Layout.SpacingVertical
	opts.InitialExpandLevel = c.Layout.InitialExpandLevel
	opts.FitRatio = c.View.FitRatio
	opts.MaxInitialScale = c.View.MaxInitialScale
	opts.Duration = time.Duration(c.View.DurationMS) * time.Millisecond
	if len(c.Render.Colors) > 0 {
		opts.Color = mindmap.PaletteColor(c.Render.Colors)
	}
	return opts
}

// StyleKey fingerprints the configured styling for artifact cache keys.
func (c Config) StyleKey() string {
	return strings.Join(c.Render.Colors, ",")
}
