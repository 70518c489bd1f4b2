package server

import (
	"io/fs"
	"os"
	"sync"

	"github.com/woozymasta/olsview/assets"
	"github.com/woozymasta/olsview/internal/config"
	"github.com/woozymasta/olsview/internal/processor"
	"github.com/woozymasta/olsview/internal/scene"
	"github.com/woozymasta/olsview/internal/surface"

	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
)

// ServerContext holds dependencies for request handlers.
// Manager calls are serialized through mu.
type ServerContext struct {
	Config    *config.Config
	Manager   *surface.Manager
	Scene     *scene.Scene
	Minifier  *minify.M
	DataFS    fs.FS
	IndexHTML []byte
	Favicon   []byte
	mu        sync.Mutex
}

// NewServerContext wires the manager and its scene to the HTTP handlers.
// Local layer files are served from the data directory when it exists.
func NewServerContext(cfg *config.Config, m *surface.Manager, sc *scene.Scene) *ServerContext {
	log.Info().
		Str("data_dir", cfg.Data.Dir).
		Int("ols_layers", len(cfg.Layers.OLS)).
		Msg("Initializing server context")

	var dataFS fs.FS
	if info, err := os.Stat(cfg.Data.Dir); err != nil || !info.IsDir() {
		log.Warn().
			Str("path", cfg.Data.Dir).
			Msg("Data directory not found, /data/ is disabled")
	} else {
		dataFS = os.DirFS(cfg.Data.Dir)
		log.Debug().
			Str("path", cfg.Data.Dir).
			Msg("Serving layer files from data directory")
	}

	return &ServerContext{
		Config:    cfg,
		Manager:   m,
		Scene:     sc,
		Minifier:  processor.NewMinifier(),
		DataFS:    dataFS,
		IndexHTML: assets.Index,
		Favicon:   assets.Favicon,
	}
}
