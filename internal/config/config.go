// Package config loads the TOML settings shared by the tools.
package config

import (
	"errors"
	"fmt"
	"os"

	"spatial3d/internal/culling"

	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Octree    OctreeConfig    `toml:"octree"`
	Culling   CullingConfig   `toml:"culling"`
	Collision CollisionConfig `toml:"collision"`
	Logging   LoggingConfig   `toml:"logging"`
}

type OctreeConfig struct {
	Enabled    bool `toml:"enabled"`
	Capacity   int  `toml:"capacity"`
	MaxDepth   int  `toml:"max_depth"`
	CubeBounds bool `toml:"cube_bounds"`
	// Submesh octrees are built for meshes with at least this many submeshes.
	SubMeshThreshold int `toml:"submesh_threshold"`
}

type CullingConfig struct {
	Strategy string `toml:"strategy"`
	// GPU sphere culling kicks in above this many candidates. 0 disables it.
	GPUThreshold int `toml:"gpu_threshold"`
}

type CollisionConfig struct {
	MaxRetries  int     `toml:"max_retries"`
	Epsilon     float32 `toml:"epsilon"`
	DoubleSided bool    `toml:"double_sided"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

func Default() Config {
	return Config{
		Octree: OctreeConfig{
			Enabled:          true,
			Capacity:         64,
			MaxDepth:         2,
			SubMeshThreshold: 8,
		},
		Culling: CullingConfig{
			Strategy:     culling.Standard.String(),
			GPUThreshold: 0,
		},
		Collision: CollisionConfig{
			MaxRetries: 5,
			Epsilon:    0.001,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Infof("Config: %s not found, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML into cfg, which should hold the defaults, and validates
// the result.
func Parse(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}
	return cfg.Validate()
}

func (c Config) Validate() error {
	if c.Octree.Capacity <= 0 {
		return fmt.Errorf("%w: octree.capacity %d", ErrInvalid, c.Octree.Capacity)
	}
	if c.Octree.MaxDepth < 0 {
		return fmt.Errorf("%w: octree.max_depth %d", ErrInvalid, c.Octree.MaxDepth)
	}
	if _, err := culling.ParseCullingStrategy(c.Culling.Strategy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Culling.GPUThreshold < 0 {
		return fmt.Errorf("%w: culling.gpu_threshold %d", ErrInvalid, c.Culling.GPUThreshold)
	}
	if c.Collision.MaxRetries <= 0 {
		return fmt.Errorf("%w: collision.max_retries %d", ErrInvalid, c.Collision.MaxRetries)
	}
	if c.Collision.Epsilon <= 0 {
		return fmt.Errorf("%w: collision.epsilon %g", ErrInvalid, c.Collision.Epsilon)
	}
	if _, err := log.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level)
	}
	return nil
}

// Strategy returns the parsed culling strategy. Validate guarantees it parses.
func (c Config) Strategy() culling.CullingStrategy {
	s, _ := culling.ParseCullingStrategy(c.Culling.Strategy)
	return s
}

// ApplyLogging configures the standard logrus logger.
func (c Config) ApplyLogging() {
	level, err := log.ParseLevel(c.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if c.Logging.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}
