// Package health provides a lightweight HTTP server for container health checks.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeboard/internal/cache"
	"github.com/yourusername/edgeboard/internal/models"
)

// Pinger checks connectivity to one dependency (database, redis, backend).
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

// SnapshotSource reports the accuracy indexes currently held in memory.
type SnapshotSource interface {
	Snapshots() map[models.Sport]*cache.Snapshot
}

// StatsSource reports runtime counters shown on /ready.
type StatsSource interface {
	Metrics() map[string]interface{}
}

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp,omitempty"`
	Version   string `json:"version,omitempty"`
}

// IndexStatus describes the cached index of one sport.
type IndexStatus struct {
	SnapshotID string    `json:"snapshot_id,omitempty"`
	Origin     string    `json:"origin,omitempty"`
	BuiltAt    time.Time `json:"built_at,omitempty"`
	Buckets    int       `json:"buckets"`
}

// ReadyResponse represents the JSON response for readiness check endpoints.
type ReadyResponse struct {
	Status   string                            `json:"status"`
	Service  string                            `json:"service"`
	Checks   map[string]string                 `json:"checks,omitempty"`
	Indexes  map[string]IndexStatus            `json:"indexes,omitempty"`
	Stats    map[string]map[string]interface{} `json:"stats,omitempty"`
	Duration string                            `json:"duration,omitempty"`
}

// Server is a lightweight HTTP server for health check endpoints.
type Server struct {
	serviceName string
	version     string
	port        int
	server      *http.Server
	logger      *logrus.Logger
	checks      map[string]Pinger
	snapshots   SnapshotSource
	stats       map[string]StatsSource
	sports      []models.Sport
	mu          sync.RWMutex
	ready       bool
}

// Config holds the configuration for the health server.
type Config struct {
	ServiceName string
	Version     string
	Port        int
	Logger      *logrus.Logger
	// Checks are pinged on /ready, keyed by dependency name
	Checks map[string]Pinger
	// Snapshots and Sports report index status on /ready. A sport without an index
	// does not fail readiness; the board degrades without it.
	Snapshots SnapshotSource
	Sports    []models.Sport
	// Stats are reported on /ready, keyed by component name
	Stats map[string]StatsSource
}

// NewServer creates a new health check server.
func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == 0 {
		port = 8081
	}
	checks := make(map[string]Pinger, len(cfg.Checks))
	for name, p := range cfg.Checks {
		if p != nil {
			checks[name] = p
		}
	}

	return &Server{
		serviceName: cfg.ServiceName,
		version:     cfg.Version,
		port:        port,
		logger:      cfg.Logger,
		checks:      checks,
		snapshots:   cfg.Snapshots,
		stats:       cfg.Stats,
		sports:      cfg.Sports,
	}
}

// SetReady marks the server as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// IsReady returns whether the server is ready.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Handler returns the health endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)
	return mux
}

// Start starts the health check server in the background.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         ":" + strconv.Itoa(s.port),
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{
				"port":    s.port,
				"service": s.serviceName,
			}).Info("Health check server starting")
		}

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.WithError(err).Error("Health check server error")
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return nil
}

// Shutdown gracefully shuts down the health check server.
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	if s.logger != nil {
		s.logger.Info("Health check server shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// handleHealth handles the /health endpoint - basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Service:   s.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
	})
}

// handleLive handles the /live endpoint - kubernetes liveness probe.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: s.serviceName,
	})
}

// handleReady handles the /ready endpoint - pings every dependency.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := make(map[string]string)
	allHealthy := true

	if !s.IsReady() {
		allHealthy = false
		checks["service"] = "not_ready"
	} else {
		checks["service"] = "ok"
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		err := s.checks[name].Ping(ctx)
		cancel()

		if err != nil {
			allHealthy = false
			checks[name] = fmt.Sprintf("error: %v", err)
		} else {
			checks[name] = "ok"
		}
	}

	response := ReadyResponse{
		Service:  s.serviceName,
		Checks:   checks,
		Indexes:  s.indexStatus(),
		Stats:    s.componentStats(),
		Duration: time.Since(start).String(),
	}

	status := http.StatusOK
	response.Status = "ok"
	if !allHealthy {
		response.Status = "not_ready"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func (s *Server) indexStatus() map[string]IndexStatus {
	if s.snapshots == nil {
		return nil
	}

	snaps := s.snapshots.Snapshots()
	out := make(map[string]IndexStatus, len(s.sports))
	for _, sport := range s.sports {
		snap, ok := snaps[sport]
		if !ok {
			out[string(sport)] = IndexStatus{}
			continue
		}
		out[string(sport)] = IndexStatus{
			SnapshotID: snap.ID,
			Origin:     snap.Origin,
			BuiltAt:    snap.BuiltAt,
			Buckets:    snap.Index.Len(),
		}
	}
	return out
}

func (s *Server) componentStats() map[string]map[string]interface{} {
	if len(s.stats) == 0 {
		return nil
	}
	out := make(map[string]map[string]interface{}, len(s.stats))
	for name, src := range s.stats {
		if src != nil {
			out[name] = src.Metrics()
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
