package server

import (
	"net/http"

	"github.com/woozymasta/olsview/internal/metrics"
)

// Routes registers every endpoint on a new mux.
func (s *ServerContext) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/layers", s.HandleLayers)
	mux.HandleFunc("POST /api/layers/{category}/toggle", s.HandleToggle)
	mux.HandleFunc("POST /api/load/{set}", s.HandleLoad)
	mux.HandleFunc("POST /api/reset", s.HandleReset)
	mux.HandleFunc("GET /api/pick", s.HandlePick)
	mux.HandleFunc("GET /preview.webp", s.HandlePreview)
	mux.HandleFunc("GET /data/{path...}", s.HandleData)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /favicon.ico", s.HandleFavicon)
	mux.HandleFunc("GET /", s.HandleIndex)
	return mux
}
