// Package viewer serves the interactive point-cloud views over HTTP:
// class-colored 3-D scatters, separating-plane overlays, static projections
// and a JSON API, plus Prometheus metrics and catalog admin routes.
package viewer

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/lascloud/internal/catalog"
	"github.com/banshee-data/lascloud/internal/cloud"
	"github.com/banshee-data/lascloud/internal/las"
	"github.com/banshee-data/lascloud/internal/monitoring"
)

// WebServer handles the HTTP interface of the viewer.
type WebServer struct {
	cfg      Config
	registry *Registry
	db       *catalog.DB
	server   *http.Server
}

// WebServerConfig bundles the dependencies of a WebServer.
type WebServerConfig struct {
	Config   Config
	Registry *Registry
	DB       *catalog.DB // optional; nil disables cataloging and admin routes
}

// NewWebServer creates a viewer server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	if config.Registry == nil {
		config.Registry = NewRegistry()
	}
	ws := &WebServer{
		cfg:      config.Config,
		registry: config.Registry,
		db:       config.DB,
	}
	ws.server = &http.Server{
		Addr:    ws.cfg.Listen,
		Handler: ws.setupRoutes(),
	}
	return ws
}

// LoadFile reads a LAS file into the registry, recording it in the catalog
// when one is attached, and returns the new entry.
func (ws *WebServer) LoadFile(path string) (*Entry, error) {
	file, err := las.ReadFile(path)
	if err != nil {
		fileLoads.WithLabelValues("error").Inc()
		return nil, err
	}

	c := cloud.FromLAS(file)
	rec := &catalog.FileRecord{
		Path:        path,
		PointFormat: file.Header.PointFormat,
		PointCount:  c.Count(),
		Histogram:   c.ClassHistogram(),
	}
	if b, err := c.Bounds(); err == nil {
		rec.Bounds = b
	}
	if ws.db != nil {
		if err := ws.db.RecordFile(rec); err != nil {
			fileLoads.WithLabelValues("error").Inc()
			return nil, err
		}
	} else if rec.FileID == "" {
		// No catalog attached: still need a stable id for URLs.
		rec.FileID = path
	}

	entry := &Entry{FileID: rec.FileID, Path: path, Header: file.Header, Cloud: c}
	ws.registry.Add(entry)
	fileLoads.WithLabelValues("ok").Inc()
	loadedPoints.Set(float64(ws.registry.TotalPoints()))
	monitoring.Logf("loaded %s: %d points, format %d", path, c.Count(), file.Header.PointFormat)
	return entry, nil
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("failed to encode response: %v", err)
	}
}

// setupRoutes configures the HTTP routes and handlers.
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleDashboard)
	mux.HandleFunc("/view", ws.handleView)
	mux.HandleFunc("/plane", ws.handlePlane)
	mux.HandleFunc("/projection", ws.handleProjection)
	mux.HandleFunc("/api/clouds", ws.handleClouds)
	mux.HandleFunc("/api/cloud/summary", ws.handleSummary)
	mux.HandleFunc("/api/cloud/ranges", ws.handleRanges)
	mux.HandleFunc("/api/cloud/classes", ws.handleClasses)
	mux.Handle("/metrics", promhttp.Handler())

	if ws.db != nil {
		ws.db.AttachAdminRoutes(mux)
	}
	return mux
}

// Start begins the HTTP server and blocks until ctx is cancelled, then
// shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("starting viewer server on %s", ws.cfg.Listen)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("shutting down viewer server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("viewer server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("viewer server force close error: %v", err)
		}
	}
	monitoring.Logf("viewer server stopped")
	return nil
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, map[string]interface{}{
		"status": "ok",
		"clouds": len(ws.registry.List()),
		"points": ws.registry.TotalPoints(),
	})
}
