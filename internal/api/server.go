// Package api exposes boards, accuracy indexes and consensus over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/service"
	"github.com/yourusername/edgeboard/internal/stream"
)

const maxBodyBytes = 1 << 20

// Options configures the API server
type Options struct {
	Port         int
	CORSOrigins  []string
	DefaultSort  edge.SortMode
	Location     *time.Location
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MetricsPath mounts the Prometheus handler on the API router when set
	MetricsPath string
}

// Server is the HTTP API server
type Server struct {
	boards    *service.BoardService
	indexes   *service.IndexService
	consensus *service.ConsensusService
	hub       *stream.Hub
	opts      Options
	logger    *logrus.Entry
	now       func() time.Time

	router     chi.Router
	httpServer *http.Server
	streamCtx  context.Context
}

// NewServer creates a new API server. hub may be nil to disable the refresh stream.
func NewServer(boards *service.BoardService, indexes *service.IndexService, consensus *service.ConsensusService, hub *stream.Hub, opts Options, log *logrus.Logger) (*Server, error) {
	if boards == nil || indexes == nil || consensus == nil {
		return nil, errors.New("board, index and consensus services are required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.DefaultSort == "" {
		opts.DefaultSort = edge.SortTime
	}

	s := &Server{
		boards:    boards,
		indexes:   indexes,
		consensus: consensus,
		hub:       hub,
		opts:      opts,
		logger:    log.WithField("component", "api"),
		now:       time.Now,
		streamCtx: context.Background(),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(30 * time.Second))

		r.Get("/sports", s.handleSports)
		r.Get("/sports/{sport}/board", s.handleBoard)
		r.Get("/sports/{sport}/index", s.handleIndex)
		r.Post("/sports/{sport}/index/refresh", s.handleRefresh)
		r.Post("/consensus", s.handleConsensus)
	})

	if s.hub != nil {
		r.Get("/ws/refresh", func(w http.ResponseWriter, r *http.Request) {
			s.hub.Serve(s.streamCtx, w, r)
		})
	}
	if s.opts.MetricsPath != "" {
		r.Handle(s.opts.MetricsPath, metrics.Handler())
	}

	return r
}

// Start serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.streamCtx = ctx
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.opts.Port),
		Handler:      s.router,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("port", s.opts.Port).Info("API server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(shutdownCtx)
}
