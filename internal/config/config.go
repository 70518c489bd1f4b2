// Package config handles configuration loading and shared data structures.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"github.com/woozymasta/olsview/internal/style"

	"gopkg.in/yaml.v3"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config represents the root configuration file structure.
type Config struct {
	Visibility map[string]bool  `yaml:"visibility" json:"visibility"`
	RoadStyles style.RoadStyles `yaml:"road_styles" json:"road_styles"`
	Data       Data             `yaml:"data" json:"data"`
	Cache      Cache            `yaml:"cache" json:"-"`
	Layers     Layers           `yaml:"layers" json:"layers"`
}

// Data describes where layer files are fetched from.
// BaseURL takes precedence over Dir when both are set.
type Data struct {
	BaseURL string        `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	Dir     string        `yaml:"dir,omitempty" json:"dir,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"-"`
}

// Layers lists the resource paths of every surface layer, relative to the data root.
type Layers struct {
	Approach     string     `yaml:"approach" json:"approach"`
	OLSDir       string     `yaml:"ols_dir" json:"ols_dir"`
	Buildings    string     `yaml:"buildings" json:"buildings"`
	Roads        string     `yaml:"roads" json:"roads"`
	OLS          []OLSLayer `yaml:"ols" json:"ols"`
	MaxBuildings int        `yaml:"max_buildings" json:"max_buildings"`
	MaxRoads     int        `yaml:"max_roads" json:"max_roads"`
}

// OLSLayer is one obstacle limitation surface file and its fill color.
type OLSLayer struct {
	File  string      `yaml:"file" json:"file"`
	Color style.Color `yaml:"color" json:"color"`
}

// Cache configures the fetch cache.
type Cache struct {
	Backend       string        `yaml:"backend"`
	RedisAddr     string        `yaml:"redis_addr,omitempty"`
	RedisPassword string        `yaml:"redis_password,omitempty"`
	Prefix        string        `yaml:"prefix,omitempty"`
	TTL           time.Duration `yaml:"ttl,omitempty"`
	MaxBytes      int64         `yaml:"max_bytes,omitempty"`
	RedisDB       int           `yaml:"redis_db,omitempty"`
}

// Default returns the built-in configuration matching the published data layout.
func Default() *Config {
	files := []string{
		"suraface dapproche aligned.geojson",
		"suraface de transition.geojson",
		"suraface interieuere de transition.geojson",
		"surface conique aligned.geojson",
		"surface d'atterrissage interrompu.geojson",
		"surface de montee au decollage.geojson",
		"surface horizontal interieur aligned.geojson",
		"surface interieure dapproche.geojson",
	}

	palette := style.OLSPalette()
	ols := make([]OLSLayer, len(files))
	for i, f := range files {
		ols[i] = OLSLayer{File: f, Color: palette[i]}
	}

	return &Config{
		Data: Data{
			Dir:     "data",
			Timeout: 30 * time.Second,
		},
		Layers: Layers{
			Approach:     "surface_approche_geojson/surfaceapproche.geojson",
			OLSDir:       "surface_approche_geojson/dxf_surfaces",
			OLS:          ols,
			Buildings:    "surface_approche_geojson/reseaux/gis_osm_buildings_a_free_1.geojson",
			MaxBuildings: 1000,
			Roads:        "surface_approche_geojson/reseaux/gis_osm_roads_free_1.geojson",
			MaxRoads:     500,
		},
		Visibility: map[string]bool{
			"approach":  true,
			"buildings": false,
			"roads":     false,
			"ols":       false,
			"natural":   false,
			"transport": false,
		},
		RoadStyles: style.DefaultRoadStyles(),
		Cache: Cache{
			Backend:  CacheMemory,
			TTL:      10 * time.Minute,
			MaxBytes: 256 << 20,
			Prefix:   "olsview:",
		},
	}
}

// Load reads the YAML configuration file over the defaults.
// An empty file name returns the defaults.
func Load(file string) (*Config, error) {
	cfg := Default()
	if file == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// OLS entries without a color take the palette color at their position
	palette := style.OLSPalette()
	for i := range cfg.Layers.OLS {
		if cfg.Layers.OLS[i].Color == (style.Color{}) {
			cfg.Layers.OLS[i].Color = palette[i%len(palette)]
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields the defaults.
func LoadOptional(file string) (*Config, error) {
	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		return Load("")
	}
	return Load(file)
}

// Validate checks the configuration for values the loaders cannot use.
func (c *Config) Validate() error {
	if c.Data.BaseURL == "" && c.Data.Dir == "" {
		return fmt.Errorf("data: either base_url or dir is required")
	}
	if c.Layers.MaxBuildings < 0 || c.Layers.MaxRoads < 0 {
		return fmt.Errorf("layers: feature limits must not be negative")
	}
	for i, l := range c.Layers.OLS {
		if l.File == "" {
			return fmt.Errorf("layers.ols[%d]: file is required", i)
		}
	}

	switch c.Cache.Backend {
	case "", CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache: redis backend requires redis_addr")
		}
	default:
		return fmt.Errorf("cache: unknown backend %q", c.Cache.Backend)
	}

	return nil
}

// Paths returns every configured layer file path, in load order.
func (c *Config) Paths() []string {
	paths := []string{c.Layers.Approach}
	for _, l := range c.Layers.OLS {
		paths = append(paths, path.Join(c.Layers.OLSDir, l.File))
	}
	return append(paths, c.Layers.Buildings, c.Layers.Roads)
}
