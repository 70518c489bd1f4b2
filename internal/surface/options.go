package surface

import (
	"hash/fnv"
	"strconv"

	"github.com/woozymasta/olsview/internal/config"
	"github.com/woozymasta/olsview/internal/geo"
	"github.com/woozymasta/olsview/internal/style"
)

// Options configures a Manager. Resource paths are relative to the fetcher root.
type Options struct {
	Visibility map[Category]bool
	RoadStyles style.RoadStyles

	// BuildingHeight returns the extrusion height of a building footprint.
	BuildingHeight func(f geo.GeoJSONFeature, index int) float64

	ApproachPath  string
	OLSDir        string
	BuildingsPath string
	RoadsPath     string
	OLSFiles      []string
	OLSPalette    []style.Color

	// Caps on registered primitives per call; zero or less disables the cap.
	MaxBuildings int
	MaxRoads     int
}

// DefaultOptions returns options matching config.Default.
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig builds manager options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := Options{
		ApproachPath:   cfg.Layers.Approach,
		OLSDir:         cfg.Layers.OLSDir,
		BuildingsPath:  cfg.Layers.Buildings,
		RoadsPath:      cfg.Layers.Roads,
		MaxBuildings:   cfg.Layers.MaxBuildings,
		MaxRoads:       cfg.Layers.MaxRoads,
		RoadStyles:     cfg.RoadStyles,
		BuildingHeight: DefaultBuildingHeight,
		Visibility:     make(map[Category]bool, len(cfg.Visibility)),
	}

	for _, l := range cfg.Layers.OLS {
		opts.OLSFiles = append(opts.OLSFiles, l.File)
		opts.OLSPalette = append(opts.OLSPalette, l.Color)
	}
	for k, v := range cfg.Visibility {
		opts.Visibility[Category(k)] = v
	}

	return opts
}

// DefaultBuildingHeight derives a stable height in meters: the "height" property,
// else three meters per level, else a value in [5, 25) hashed from the OSM id
// (or the feature index when the id is missing).
func DefaultBuildingHeight(f geo.GeoJSONFeature, index int) float64 {
	if h, ok := f.NumberProperty("height"); ok && h > 0 {
		return h
	}
	for _, key := range []string{"building:levels", "levels"} {
		if l, ok := f.NumberProperty(key); ok && l > 0 {
			return l * 3
		}
	}

	seed := f.StringProperty("osm_id")
	if seed == "" {
		seed = strconv.Itoa(index)
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return 5 + float64(h.Sum32()%2000)/100
}
