// Package processor mirrors surface layer files into a local data directory.
package processor

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/woozymasta/olsview/internal/geo"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	jsonmin "github.com/tdewolff/minify/v2/json"
)

// Fetcher returns the raw bytes of a named resource.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// Summary counts the outcome of a mirror run.
type Summary struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// NewMinifier returns a minifier for JSON and GeoJSON documents.
func NewMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("application/json", jsonmin.Minify)
	m.AddFunc("application/geo+json", jsonmin.Minify)
	return m
}

// ProcessLayers fetches every named layer file and writes it under destRoot,
// keeping the relative path. Existing files are kept unless force is set.
// Documents that are not GeoJSON feature collections are rejected.
func ProcessLayers(ctx context.Context, f Fetcher, names []string, destRoot string, force, minified bool) Summary {
	var sum Summary
	var m *minify.M
	if minified {
		m = NewMinifier()
	}

	for _, name := range names {
		// keep every write under destRoot
		if !fs.ValidPath(name) {
			log.Error().Str("layer", name).Msg("Invalid layer path, skipping")
			sum.Failed++
			continue
		}

		destFile := filepath.Join(destRoot, filepath.FromSlash(name))

		// Check if file exists
		if _, err := os.Stat(destFile); err == nil && !force {
			log.Debug().Str("layer", name).Msg("Layer file exists, skipping")
			sum.Skipped++
			continue
		}

		if err := processLayer(ctx, f, m, name, destFile); err != nil {
			log.Error().Err(err).Str("layer", name).Msg("Failed to mirror layer")
			sum.Failed++
			continue
		}

		log.Info().Str("layer", name).Str("path", destFile).Msg("Layer saved")
		sum.Saved++
	}

	return sum
}

func processLayer(ctx context.Context, f Fetcher, m *minify.M, name, destFile string) error {
	data, err := f.Fetch(ctx, name)
	if err != nil {
		return err
	}

	fc, err := geo.DecodeFeatureCollection(data)
	if err != nil {
		return errors.Wrap(err, "invalid layer document")
	}
	log.Debug().
		Str("layer", name).
		Int("features", len(fc.Features)).
		Int("malformed", fc.Malformed()).
		Msg("Layer fetched")

	if m != nil {
		out, err := m.Bytes("application/geo+json", data)
		if err != nil {
			return errors.Wrap(err, "minify")
		}
		data = out
	}

	return saveFile(filepath.Dir(destFile), destFile, data)
}

// saveFile writes data through a temporary file so readers never see a partial layer.
func saveFile(dir, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".layer-*")
	if err != nil {
		return err
	}
	// no-op after a successful rename
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}

	return os.Rename(tmp.Name(), path)
}
