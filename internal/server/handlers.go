// Package server exposes a surface manager over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/woozymasta/olsview/internal/scene"
	"github.com/woozymasta/olsview/internal/surface"

	"github.com/rs/zerolog/log"
)

const (
	etagCap = 64

	defaultPreviewWidth  = 800
	defaultPreviewHeight = 600
	maxPreviewSide       = 4096
	previewQuality       = 80

	defaultPickTolerance = 1e-4
)

// LayersResponse is the body of GET /api/layers.
type LayersResponse struct {
	Visibility map[surface.Category]bool `json:"visibility"`
	Stats      surface.Stats             `json:"stats"`
}

// LoadResponse is the body of POST /api/load/{set}.
type LoadResponse struct {
	Set    string        `json:"set"`
	Loaded int           `json:"loaded"`
	OK     bool          `json:"ok"`
	Stats  surface.Stats `json:"stats"`
}

// PickHit is one visible entity returned by GET /api/pick.
type PickHit struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HandleLayers serves the visibility state and registry counts.
func (s *ServerContext) HandleLayers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := LayersResponse{
		Visibility: s.Manager.VisibilityState(),
		Stats:      s.Manager.Stats(),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// HandleToggle flips one visibility category.
func (s *ServerContext) HandleToggle(w http.ResponseWriter, r *http.Request) {
	category := surface.Category(r.PathValue("category"))

	s.mu.Lock()
	visible := s.Manager.ToggleVisibility(category)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"category": category,
		"visible":  visible,
	})
}

// HandleLoad runs one of the manager loaders: all, approach, ols, buildings or roads.
func (s *ServerContext) HandleLoad(w http.ResponseWriter, r *http.Request) {
	set := r.PathValue("set")
	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := LoadResponse{Set: set, OK: true}
	before := s.Manager.Stats().Total

	switch set {
	case "all":
		resp.OK = s.Manager.LoadAll(ctx)
	case "approach":
		s.Manager.LoadApproachSurface(ctx)
	case "ols":
		s.Manager.LoadOLSSurfaces(ctx)
	case "buildings":
		s.Manager.LoadBuildings(ctx)
	case "roads":
		s.Manager.LoadRoads(ctx)
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown layer set %q", set))
		return
	}

	resp.Stats = s.Manager.Stats()
	resp.Loaded = resp.Stats.Total - before

	log.Info().
		Str("set", set).
		Int("loaded", resp.Loaded).
		Bool("ok", resp.OK).
		Msg("Layer set loaded")

	writeJSON(w, http.StatusOK, resp)
}

// HandleReset forgets every primitive and empties the scene.
func (s *ServerContext) HandleReset(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.Manager.Reset()
	s.Scene.Clear()
	stats := s.Manager.Stats()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, stats)
}

// HandlePick lists the entities at a location. The location is either
// lon/lat, or a pixel x/y of a w x h preview.
func (s *ServerContext) HandlePick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	tolerance := defaultPickTolerance
	if v := q.Get("tolerance"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil || t < 0 {
			writeError(w, http.StatusBadRequest, "invalid tolerance")
			return
		}
		tolerance = t
	}

	var lon, lat float64
	if q.Has("x") {
		x, errX := strconv.ParseFloat(q.Get("x"), 64)
		y, errY := strconv.ParseFloat(q.Get("y"), 64)
		pw, ph, err := previewSize(q.Get("w"), q.Get("h"))
		if errX != nil || errY != nil || err != nil {
			writeError(w, http.StatusBadRequest, "invalid pixel location")
			return
		}

		var ok bool
		if lon, lat, ok = s.Scene.Unproject(x, y, pw, ph); !ok {
			writeJSON(w, http.StatusOK, []PickHit{})
			return
		}
	} else {
		var errLon, errLat error
		lon, errLon = strconv.ParseFloat(q.Get("lon"), 64)
		lat, errLat = strconv.ParseFloat(q.Get("lat"), 64)
		if errLon != nil || errLat != nil {
			writeError(w, http.StatusBadRequest, "lon and lat are required")
			return
		}
	}

	hits := make([]PickHit, 0)
	for _, e := range s.Scene.Pick(lon, lat, tolerance) {
		if !e.Show() {
			continue
		}
		hits = append(hits, PickHit{ID: e.ID(), Name: e.Name()})
	}

	writeJSON(w, http.StatusOK, hits)
}

// HandlePreview renders the visible scene as WebP.
func (s *ServerContext) HandlePreview(w http.ResponseWriter, r *http.Request) {
	pw, ph, err := previewSize(r.URL.Query().Get("w"), r.URL.Query().Get("h"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := scene.EncodeWebP(&buf, s.Scene.Render(pw, ph), previewQuality); err != nil {
		log.Error().Err(err).Msg("Failed to encode preview")
		writeError(w, http.StatusInternalServerError, "preview encoding failed")
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func previewSize(ws, hs string) (int, int, error) {
	w, h := defaultPreviewWidth, defaultPreviewHeight
	if ws != "" {
		v, err := strconv.Atoi(ws)
		if err != nil || v <= 0 || v > maxPreviewSide {
			return 0, 0, fmt.Errorf("invalid width %q", ws)
		}
		w = v
	}
	if hs != "" {
		v, err := strconv.Atoi(hs)
		if err != nil || v <= 0 || v > maxPreviewSide {
			return 0, 0, fmt.Errorf("invalid height %q", hs)
		}
		h = v
	}
	return w, h, nil
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/x-icon")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(s.Favicon)
}

// HandleIndex serves the layer panel page.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	etag := fmt.Sprintf(`"%x"`, len(s.IndexHTML))

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	_, _ = w.Write(s.IndexHTML)
}

// HandleData serves GeoJSON layer files from the data directory, minified.
func (s *ServerContext) HandleData(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("path")
	ext := strings.ToLower(path.Ext(name))
	if s.DataFS == nil || !fs.ValidPath(name) || (ext != ".geojson" && ext != ".json") {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	if !s.serveFile(w, r, name, "application/geo+json") {
		http.NotFound(w, r)
	}
}

// serveFile serves a data file with ETag generation.
// It returns true if the file was found and served (or 304).
func (s *ServerContext) serveFile(w http.ResponseWriter, r *http.Request, name string, contentType string) bool {
	info, err := fs.Stat(s.DataFS, name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return false
	}

	buf := make([]byte, 0, etagCap)
	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, info.Size(), 16)
	buf = append(buf, '-')
	buf = strconv.AppendInt(buf, info.ModTime().UnixNano(), 16)
	buf = append(buf, '"')
	etag := string(buf)

	// check If-None-Match (client sent ETag)
	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}

	data, err := fs.ReadFile(s.DataFS, name)
	if err != nil {
		return false
	}

	if out, err := s.Minifier.Bytes(contentType, data); err != nil {
		log.Warn().Err(err).Str("path", name).Msg("Serving layer file unminified")
	} else {
		data = out
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, no-cache")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
	return true
}
